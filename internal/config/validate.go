package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateImport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateChannels()
}

func (c *Config) validateImport() error {
	if c.Import.DaysInAdvance > 31 {
		return errors.New("import.days_in_advance must be between 1 and 31")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateChannels() error {
	seen := make(map[string]struct{}, len(c.Channels))
	for i, ch := range c.Channels {
		if ch.FeedID == "" {
			return fmt.Errorf("channels[%d].feed_id must be set", i)
		}
		if _, ok := seen[ch.FeedID]; ok {
			return fmt.Errorf("channels[%d]: duplicate feed_id %q", i, ch.FeedID)
		}
		seen[ch.FeedID] = struct{}{}
		if len(ch.Targets) == 0 {
			return fmt.Errorf("channels[%d] (%s): at least one target is required", i, ch.FeedID)
		}
	}
	return nil
}

// RequireSource reports a usable error when no feed source is configured.
func (c *Config) RequireSource() error {
	if c.Import.Source == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("import.source is required. Set EPGMERGE_SOURCE or edit %s (create with 'epgmerge config init')", defaultPath)
	}
	return nil
}
