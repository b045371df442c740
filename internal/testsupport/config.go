package testsupport

import (
	"path/filepath"
	"testing"

	"epgmerge/internal/config"
	"epgmerge/internal/epg"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.FeedDB = filepath.Join(base, "data", "epg.db")
	cfgVal.Paths.ScheduleDB = filepath.Join(base, "data", "schedule.db")
	cfgVal.Paths.LockFile = filepath.Join(base, "data", "schedule.lock")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Import.Source = "test"
	cfgVal.Import.LockAttempts = 5
	cfgVal.Import.LockDelayMS = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSource sets the feed source of import passes.
func WithSource(source string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Import.Source = source
	}
}

// WithChannel adds a channel mapping.
func WithChannel(feedID string, policy epg.Policy, targets ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Channels = append(b.cfg.Channels, config.Channel{
			FeedID:  feedID,
			Targets: targets,
			Policy:  policy,
		})
	}
}

// WithMetricsTextfile enables the textfile export under the test directory.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, "metrics", "epgmerge.prom")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
