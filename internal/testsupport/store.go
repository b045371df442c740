package testsupport

import (
	"context"
	"testing"

	"epgmerge/internal/config"
	"epgmerge/internal/feedstore"
	"epgmerge/internal/schedule"
)

// MustOpenFeedStore opens (and creates) the feed store for tests and
// registers cleanup.
func MustOpenFeedStore(t testing.TB, cfg *config.Config) *feedstore.Store {
	t.Helper()

	store, err := feedstore.Open(context.Background(), cfg.Paths.FeedDB, true, nil)
	if err != nil {
		t.Fatalf("feedstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenScheduleStore opens the schedule store for tests and registers
// cleanup. Each channel is registered.
func MustOpenScheduleStore(t testing.TB, cfg *config.Config, channels ...string) *schedule.Store {
	t.Helper()

	store, err := schedule.Open(context.Background(), cfg.Paths.ScheduleDB, nil)
	if err != nil {
		t.Fatalf("schedule.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	for _, id := range channels {
		if err := store.AddChannel(context.Background(), id, id); err != nil {
			t.Fatalf("AddChannel %s: %v", id, err)
		}
	}
	return store
}
