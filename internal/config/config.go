package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"epgmerge/internal/epg"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains store and log locations.
type Paths struct {
	FeedDB     string `toml:"feed_db"`
	ScheduleDB string `toml:"schedule_db"`
	LockFile   string `toml:"lock_file"`
	LogDir     string `toml:"log_dir"`
}

// Import contains settings for import passes.
type Import struct {
	// Source is the feed source name whose rows a pass imports.
	Source        string `toml:"source"`
	DaysInAdvance int    `toml:"days_in_advance"`
	// Charset is the display character set of the schedule ("utf-8",
	// "iso-8859-15", "us-ascii//translit" or "locale").
	Charset string `toml:"charset"`
	// NativeParentalRating is true when the schedule stores ratings in their
	// own field instead of the description text.
	NativeParentalRating bool `toml:"native_parental_rating"`
	LockAttempts         int  `toml:"lock_attempts"`
	LockDelayMS          int  `toml:"lock_delay_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Metrics contains configuration for the Prometheus textfile export.
type Metrics struct {
	// Textfile is written after every pass when set.
	Textfile string `toml:"textfile"`
}

// Channel maps one feed channel onto target schedule channels.
type Channel struct {
	FeedID  string     `toml:"feed_id"`
	Targets []string   `toml:"targets"`
	Policy  epg.Policy `toml:"policy"`
}

// Config encapsulates all configuration values for epgmerge.
//
// Configuration sections by subsystem:
//   - Paths: feed/schedule databases, lock file, log directory
//   - Import: source, window, display charset, lock retry
//   - Logging: log format, level, and rotation
//   - Metrics: textfile export
//   - Labels: display labels for description fields
//   - Channels: feed channel mappings with merge policies
type Config struct {
	Paths    Paths             `toml:"paths"`
	Import   Import            `toml:"import"`
	Logging  Logging           `toml:"logging"`
	Metrics  Metrics           `toml:"metrics"`
	Labels   map[string]string `toml:"labels"`
	Channels []Channel         `toml:"channels"`
}

const defaultConfigPath = "~/.config/epgmerge/config.toml"

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("epgmerge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the parent directories of the stores, the lock
// file and the log directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Paths.FeedDB),
		filepath.Dir(c.Paths.ScheduleDB),
		filepath.Dir(c.Paths.LockFile),
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
