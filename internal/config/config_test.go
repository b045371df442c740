package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"epgmerge/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("EPGMERGE_SOURCE", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantFeed := filepath.Join(tempHome, ".local", "share", "epgmerge", "epg.db")
	if cfg.Paths.FeedDB != wantFeed {
		t.Fatalf("unexpected feed db: got %q want %q", cfg.Paths.FeedDB, wantFeed)
	}
	if cfg.Import.Charset != "utf-8" {
		t.Fatalf("unexpected charset: %q", cfg.Import.Charset)
	}
	if !cfg.Import.NativeParentalRating {
		t.Fatal("expected native parental rating by default")
	}
	if cfg.Import.LockAttempts != config.Default().Import.LockAttempts {
		t.Fatalf("unexpected lock attempts: %d", cfg.Import.LockAttempts)
	}
	if label, ok := cfg.LabelLookup().Label("country"); !ok || label != "Country" {
		t.Fatalf("expected default country label, got %q %v", label, ok)
	}
	if err := cfg.RequireSource(); err == nil {
		t.Fatal("expected missing source to be reported")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{filepath.Dir(cfg.Paths.FeedDB), cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "epgmerge.toml")

	type policy struct {
		AppendEvents bool `toml:"append_events"`
		UseSubtitle  bool `toml:"use_subtitle"`
		UseCredits   bool `toml:"use_credits"`
		CreditsList  bool `toml:"credits_list"`
	}
	type channel struct {
		FeedID  string   `toml:"feed_id"`
		Targets []string `toml:"targets"`
		Policy  policy   `toml:"policy"`
	}
	type payload struct {
		Paths struct {
			FeedDB string `toml:"feed_db"`
		} `toml:"paths"`
		Import struct {
			Source  string `toml:"source"`
			Charset string `toml:"charset"`
		} `toml:"import"`
		Labels   map[string]string `toml:"labels"`
		Channels []channel         `toml:"channels"`
	}
	custom := payload{}
	custom.Paths.FeedDB = filepath.Join(tempDir, "feeds", "epg.db")
	custom.Import.Source = " tvm "
	custom.Import.Charset = "ISO-8859-15"
	custom.Labels = map[string]string{"Country": "Land", "review": ""}
	custom.Channels = []channel{
		{FeedID: "ard.de", Targets: []string{"ch-1", " ", "ch-2", "ch-1"}, Policy: policy{UseSubtitle: true, UseCredits: true, CreditsList: true}},
		{FeedID: "zdf.de", Targets: []string{"ch-3"}, Policy: policy{AppendEvents: true}},
	}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EPGMERGE_SOURCE", "")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Import.Source != "tvm" {
		t.Fatalf("expected trimmed source, got %q", cfg.Import.Source)
	}
	if cfg.Import.Charset != "iso-8859-15" {
		t.Fatalf("expected lowercased charset, got %q", cfg.Import.Charset)
	}
	if cfg.Paths.FeedDB != custom.Paths.FeedDB {
		t.Fatalf("unexpected feed db: %q", cfg.Paths.FeedDB)
	}

	labels := cfg.LabelLookup()
	if label, _ := labels.Label("country"); label != "Land" {
		t.Fatalf("expected overridden country label, got %q", label)
	}
	if _, ok := labels.Label("review"); ok {
		t.Fatal("expected empty label to disable review")
	}
	if label, _ := labels.Label("year"); label != "Year" {
		t.Fatalf("expected default year label, got %q", label)
	}

	mappings := cfg.Mappings()
	ard, ok := mappings.Lookup("ard.de")
	if !ok {
		t.Fatal("expected ard.de mapping")
	}
	if strings.Join(ard.Targets, ",") != "ch-1,ch-2" {
		t.Fatalf("unexpected targets: %v", ard.Targets)
	}
	if !ard.Policy.UseSubtitle || !ard.Policy.CreditsList || ard.Policy.AppendEvents {
		t.Fatalf("unexpected policy: %+v", ard.Policy)
	}
	if got := mappings.ForTarget("ch-3"); len(got) != 1 || got[0].FeedID != "zdf.de" {
		t.Fatalf("unexpected reverse mapping: %+v", got)
	}
	if _, ok := mappings.Lookup("missing"); ok {
		t.Fatal("expected no mapping for unknown feed channel")
	}
}

func TestMappingsAreIndependentCopies(t *testing.T) {
	cfg := config.Default()
	cfg.Channels = []config.Channel{{FeedID: "a", Targets: []string{"t"}}}
	cfg.Channels[0].Policy.AppendEvents = true

	first := cfg.Mappings()
	m, _ := first.Lookup("a")
	m.Policy.AppendEvents = false

	second := cfg.Mappings()
	m2, _ := second.Lookup("a")
	if !m2.Policy.AppendEvents {
		t.Fatal("expected a fresh mapping table to carry the configured policy")
	}
	if !cfg.Channels[0].Policy.AppendEvents {
		t.Fatal("expected config to be unchanged")
	}
}

func TestSourceEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("EPGMERGE_SOURCE", "epgdata")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Import.Source != "epgdata" {
		t.Fatalf("expected source from env, got %q", cfg.Import.Source)
	}
	if err := cfg.RequireSource(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "format",
			mutate: func(c *config.Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
		{
			name:   "level",
			mutate: func(c *config.Config) { c.Logging.Level = "trace" },
			want:   "logging.level",
		},
		{
			name:   "days",
			mutate: func(c *config.Config) { c.Import.DaysInAdvance = 90 },
			want:   "days_in_advance",
		},
		{
			name:   "missing feed id",
			mutate: func(c *config.Config) { c.Channels = []config.Channel{{Targets: []string{"x"}}} },
			want:   "feed_id must be set",
		},
		{
			name: "duplicate feed id",
			mutate: func(c *config.Config) {
				c.Channels = []config.Channel{{FeedID: "a", Targets: []string{"x"}}, {FeedID: "a", Targets: []string{"y"}}}
			},
			want: "duplicate feed_id",
		},
		{
			name:   "no targets",
			mutate: func(c *config.Config) { c.Channels = []config.Channel{{FeedID: "a"}} },
			want:   "at least one target",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[import]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("EPGMERGE_SOURCE", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Import.DaysInAdvance != 7 {
		t.Fatalf("unexpected days: %d", cfg.Import.DaysInAdvance)
	}
}
