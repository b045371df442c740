package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv("EPGMERGE_SOURCE", "")

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
feed_db = %q
schedule_db = %q
lock_file = %q
log_dir = %q

[import]
source = "tvm"
lock_attempts = 5
lock_delay_ms = 1

[logging]
level = "error"

[[channels]]
feed_id = "ard.de"
targets = ["ch-1"]

[channels.policy]
use_description = true
use_country_year = true
`,
		filepath.Join(base, "data", "epg.db"),
		filepath.Join(base, "data", "schedule.db"),
		filepath.Join(base, "data", "schedule.lock"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{baseDir: base, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIImportFlow(t *testing.T) {
	env := setupCLITestEnv(t)
	start := time.Now().Add(2 * time.Hour).Truncate(time.Minute)

	if out, _, err := runCLI(t, []string{"schedule", "add-channel", "ch-1", "Das Erste"}, env.configPath); err != nil {
		t.Fatalf("add-channel: %v", err)
	} else if !strings.Contains(out, "Registered channel ch-1") {
		t.Fatalf("unexpected output: %q", out)
	}

	args := []string{"schedule", "add-event", "--channel", "ch-1", "--start", start.Format(time.RFC3339),
		"--duration", "90m", "--title", "Tatort", "--event-id", "4711"}
	if _, _, err := runCLI(t, args, env.configPath); err != nil {
		t.Fatalf("add-event: %v", err)
	}

	records := []map[string]any{{
		"channel":     "ard.de",
		"event_id":    1,
		"start":       start.Format(time.RFC3339),
		"duration":    5400,
		"title":       "Tatort",
		"description": "Kommissare ermitteln.",
		"country":     "DE",
	}}
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal records: %v", err)
	}
	feedFile := filepath.Join(env.baseDir, "feed.json")
	if err := os.WriteFile(feedFile, data, 0o644); err != nil {
		t.Fatalf("write feed file: %v", err)
	}
	if out, _, err := runCLI(t, []string{"feed", "put", feedFile}, env.configPath); err != nil {
		t.Fatalf("feed put: %v", err)
	} else if !strings.Contains(out, "Stored 1 feed events for tvm") {
		t.Fatalf("unexpected output: %q", out)
	}

	out, _, err := runCLI(t, []string{"import"}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "processed 1 events") || !strings.Contains(out, "changed 1") {
		t.Fatalf("unexpected import output: %q", out)
	}

	out, _, err = runCLI(t, []string{"schedule", "show", "--channel", "ch-1"}, env.configPath)
	if err != nil {
		t.Fatalf("schedule show: %v", err)
	}
	if !strings.Contains(out, "Tatort") || !strings.Contains(out, "yes") {
		t.Fatalf("expected enriched event in schedule:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"feed", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("feed list: %v", err)
	}
	if !strings.Contains(out, "4711") {
		t.Fatalf("expected recorded correlation in feed list:\n%s", out)
	}
}

func TestCLIImportWithoutFeedStoreExitsWithStoreStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"import"}, env.configPath)
	var exit *exitError
	if !errors.As(err, &exit) || exit.code != 3 {
		t.Fatalf("expected exit code 3, got %v", err)
	}
}

func TestCLICheckReportsMissingFeedStore(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail without a feed store")
	}
	if !strings.Contains(out, "Feed store") || !strings.Contains(out, "FAIL") {
		t.Fatalf("unexpected check output:\n%s", out)
	}
}

func TestCLIConfigInit(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	target := filepath.Join(base, "cfg", "epgmerge.toml")

	out, _, err := runCLI(t, []string{"config", "init", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, _, err := runCLI(t, []string{"config", "init", target}, ""); err == nil {
		t.Fatal("expected second init to refuse overwriting")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--overwrite", target}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestCLIConfigShow(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "feed_id = 'ard.de'") && !strings.Contains(out, `feed_id = "ard.de"`) {
		t.Fatalf("expected channel mapping in output:\n%s", out)
	}
}
