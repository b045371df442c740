package preflight

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/sys/unix"

	"epgmerge/internal/charset"
	"epgmerge/internal/config"
	"epgmerge/internal/feedstore"
	"epgmerge/internal/schedule"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFeedStore verifies the feed database exists, is writable and opens.
func CheckFeedStore(ctx context.Context, path string) Result {
	const name = "Feed store"

	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	store, err := feedstore.Open(ctx, path, false, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	_ = store.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (ok)", path)}
}

// CheckSchedule opens the schedule store and verifies every mapped target
// channel is registered.
func CheckSchedule(ctx context.Context, cfg *config.Config) Result {
	const name = "Schedule store"

	store, err := schedule.Open(ctx, cfg.Paths.ScheduleDB, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Paths.ScheduleDB, err)}
	}
	defer store.Close()

	channels, err := store.Channels(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("list channels: %v", err)}
	}
	known := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		known[ch.ID] = struct{}{}
	}

	missing := make(map[string]struct{})
	for _, mapping := range cfg.Mappings().All() {
		for _, target := range mapping.Targets {
			if _, ok := known[target]; !ok {
				missing[target] = struct{}{}
			}
		}
	}
	if len(missing) > 0 {
		ids := make([]string, 0, len(missing))
		for id := range missing {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return Result{Name: name, Detail: "unregistered target channels: " + strings.Join(ids, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d channels", len(channels))}
}

// CheckCharset verifies the display charset is supported.
func CheckCharset(name string) Result {
	const check = "Display charset"

	conv, err := charset.New(name)
	if err != nil {
		return Result{Name: check, Detail: err.Error()}
	}
	return Result{Name: check, Passed: true, Detail: conv.Name()}
}
