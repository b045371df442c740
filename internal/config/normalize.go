package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeImport()
	c.normalizeLogging()
	c.normalizeLabels()
	c.normalizeChannels()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.feed_db", &c.Paths.FeedDB, defaultFeedDB},
		{"paths.schedule_db", &c.Paths.ScheduleDB, defaultScheduleDB},
		{"paths.lock_file", &c.Paths.LockFile, defaultLockFile},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.value) == "" {
			*f.value = f.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.value = expanded
	}

	if textfile := strings.TrimSpace(c.Metrics.Textfile); textfile != "" {
		expanded, err := expandPath(textfile)
		if err != nil {
			return fmt.Errorf("metrics.textfile: %w", err)
		}
		c.Metrics.Textfile = expanded
	}
	return nil
}

func (c *Config) normalizeImport() {
	c.Import.Source = strings.TrimSpace(c.Import.Source)
	if value, ok := os.LookupEnv("EPGMERGE_SOURCE"); ok && strings.TrimSpace(value) != "" {
		c.Import.Source = strings.TrimSpace(value)
	}
	c.Import.Charset = strings.ToLower(strings.TrimSpace(c.Import.Charset))
	if c.Import.Charset == "" {
		c.Import.Charset = defaultCharset
	}
	if c.Import.DaysInAdvance <= 0 {
		c.Import.DaysInAdvance = defaultDaysInAdvance
	}
	if c.Import.LockAttempts <= 0 {
		c.Import.LockAttempts = defaultLockAttempts
	}
	if c.Import.LockDelayMS <= 0 {
		c.Import.LockDelayMS = defaultLockDelayMS
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}

func (c *Config) normalizeLabels() {
	labels := make(map[string]string, len(defaultLabels)+len(c.Labels))
	for key, value := range defaultLabels {
		labels[key] = value
	}
	for key, value := range c.Labels {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		labels[key] = strings.TrimSpace(value)
	}
	c.Labels = labels
}

func (c *Config) normalizeChannels() {
	for i := range c.Channels {
		ch := &c.Channels[i]
		ch.FeedID = strings.TrimSpace(ch.FeedID)
		targets := make([]string, 0, len(ch.Targets))
		seen := make(map[string]struct{}, len(ch.Targets))
		for _, target := range ch.Targets {
			target = strings.TrimSpace(target)
			if target == "" {
				continue
			}
			if _, ok := seen[target]; ok {
				continue
			}
			seen[target] = struct{}{}
			targets = append(targets, target)
		}
		ch.Targets = targets
	}
}
