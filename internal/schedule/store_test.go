package schedule

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"epgmerge/internal/epg"
)

var base = time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "schedule.db"), nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLoadErrors(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx, "missing", true); !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("expected ErrChannelNotFound, got %v", err)
	}
	if err := store.AddChannel(ctx, "ard", "Das Erste"); err != nil {
		t.Fatalf("AddChannel returned error: %v", err)
	}
	if _, err := store.Load(ctx, "ard", false); !errors.Is(err, ErrNoSchedule) {
		t.Fatalf("expected ErrNoSchedule, got %v", err)
	}
	sched, err := store.Load(ctx, "ard", true)
	if err != nil {
		t.Fatalf("Load with create returned error: %v", err)
	}
	if sched.Len() != 0 || sched.ChannelID != "ard" {
		t.Fatalf("unexpected schedule %+v", sched)
	}
}

func TestSaveWritesOnlyDirtyEvents(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.AddChannel(ctx, "ard", ""); err != nil {
		t.Fatalf("AddChannel returned error: %v", err)
	}
	for i, title := range []string{"Tagesschau", "Tatort"} {
		ev := &epg.ScheduleEvent{EventID: epg.EventID(100 + i), Start: base.Add(time.Duration(i) * time.Hour), Duration: time.Hour, Title: title}
		if err := store.AddEvent(ctx, "ard", ev); err != nil {
			t.Fatalf("AddEvent returned error: %v", err)
		}
	}

	sched, err := store.Load(ctx, "ard", false)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if n, err := store.Save(ctx, sched); err != nil || n != 0 {
		t.Fatalf("expected nothing to save, got %d (%v)", n, err)
	}

	tatort := sched.EventAt(base.Add(time.Hour))
	tatort.SetDescription("Krimi"+epg.Sentinel, true)
	tatort.SetSubtitle("Folge 1")
	tatort.SetParentalRating(12)
	sched.Add(&epg.ScheduleEvent{EventID: 900, Start: base.Add(2 * time.Hour), Duration: 30 * time.Minute, Title: "Nachtmagazin"})

	n, err := store.Save(ctx, sched)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 events saved, got %d", n)
	}
	if len(sched.DirtyEvents()) != 0 {
		t.Fatal("events still dirty after save")
	}

	reloaded, err := store.Load(ctx, "ard", false)
	if err != nil {
		t.Fatalf("reload returned error: %v", err)
	}
	if reloaded.Len() != 3 {
		t.Fatalf("expected 3 events, got %d", reloaded.Len())
	}
	got := reloaded.EventByID(101)
	if got.Description != "Krimi"+epg.Sentinel || !got.Enriched || got.Subtitle != "Folge 1" || got.ParentalRating != 12 {
		t.Fatalf("changes not persisted: %+v", got)
	}
	if !got.WasEnriched() {
		t.Fatal("expected enriched event")
	}
	if last := reloaded.Events()[2]; last.Title != "Nachtmagazin" || last.Duration != 30*time.Minute {
		t.Fatalf("inserted event not persisted: %+v", last)
	}
}

func TestChannels(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_ = store.AddChannel(ctx, "zdf", "ZDF")
	_ = store.AddChannel(ctx, "ard", "ARD")
	_ = store.AddChannel(ctx, "ard", "Das Erste")

	channels, err := store.Channels(ctx)
	if err != nil {
		t.Fatalf("Channels returned error: %v", err)
	}
	if len(channels) != 2 || channels[0].ID != "ard" || channels[0].Name != "Das Erste" {
		t.Fatalf("unexpected channels %+v", channels)
	}
	if err := store.AddChannel(ctx, " ", "blank"); err == nil {
		t.Fatal("expected error for blank channel id")
	}
}
