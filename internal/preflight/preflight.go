package preflight

import (
	"context"
	"path/filepath"

	"epgmerge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Feed directory", filepath.Dir(cfg.Paths.FeedDB)))
	results = append(results, CheckDirectoryAccess("Schedule directory", filepath.Dir(cfg.Paths.ScheduleDB)))
	results = append(results, CheckDirectoryAccess("Lock directory", filepath.Dir(cfg.Paths.LockFile)))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	results = append(results, CheckFeedStore(ctx, cfg.Paths.FeedDB))
	results = append(results, CheckSchedule(ctx, cfg))
	results = append(results, CheckCharset(cfg.Import.Charset))

	if cfg.Import.Source == "" {
		results = append(results, Result{Name: "Feed source", Detail: "not set (import.source or EPGMERGE_SOURCE)"})
	} else {
		results = append(results, Result{Name: "Feed source", Passed: true, Detail: cfg.Import.Source})
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
