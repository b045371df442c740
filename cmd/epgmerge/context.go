package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"epgmerge/internal/charset"
	"epgmerge/internal/config"
	"epgmerge/internal/feedstore"
	"epgmerge/internal/importer"
	"epgmerge/internal/logging"
	"epgmerge/internal/metrics"
	"epgmerge/internal/reconcile"
	"epgmerge/internal/schedlock"
	"epgmerge/internal/schedule"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withSchedules opens the schedule store for the duration of fn.
func (c *commandContext) withSchedules(ctx context.Context, fn func(*schedule.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	store, err := schedule.Open(ctx, cfg.Paths.ScheduleDB, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// withFeeds opens the feed store for the duration of fn.
func (c *commandContext) withFeeds(ctx context.Context, create bool, fn func(*feedstore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	store, err := feedstore.Open(ctx, cfg.Paths.FeedDB, create, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// withImporter wires an importer over the schedule store.
func (c *commandContext) withImporter(ctx context.Context, fn func(*importer.Importer) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	conv, err := charset.New(cfg.Import.Charset)
	if err != nil {
		return fmt.Errorf("import.charset: %w", err)
	}
	engine := reconcile.NewEngine(reconcile.Options{
		Converter:            conv,
		Labels:               cfg.LabelLookup(),
		NativeParentalRating: cfg.Import.NativeParentalRating,
		Logger:               logger,
	})
	lock := schedlock.New(schedlock.Options{
		Path:     cfg.Paths.LockFile,
		Attempts: cfg.Import.LockAttempts,
		Delay:    time.Duration(cfg.Import.LockDelayMS) * time.Millisecond,
		Logger:   logger,
	})
	return c.withSchedules(ctx, func(store *schedule.Store) error {
		imp := importer.New(cfg, store, lock, engine,
			importer.WithLogger(logger),
			importer.WithMetrics(metrics.New()),
		)
		return fn(imp)
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
