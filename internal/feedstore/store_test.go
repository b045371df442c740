package feedstore

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"epgmerge/internal/epg"
)

var base = time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "epg.db"), true, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func candidate(source string, srcIdx int, channel string, id epg.EventID, start time.Time, title string) epg.CandidateEvent {
	return epg.CandidateEvent{
		Source:      source,
		SourceIndex: srcIdx,
		ChannelID:   channel,
		EventID:     id,
		Start:       start,
		Duration:    time.Hour,
		Title:       title,
	}
}

func TestOpenMissingWithoutCreate(t *testing.T) {
	if _, err := Open(context.Background(), filepath.Join(t.TempDir(), "none.db"), false, nil); err == nil {
		t.Fatal("expected error opening missing feed store")
	}
}

func TestPutAndWindowRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	full := candidate("tvsp", 0, "ard.de", 1, base, "Tatort")
	full.OrigTitle = "Crime Scene"
	full.Subtitle = "Folge 1"
	full.Description = "Kommissare ermitteln."
	full.Country = "DE"
	full.Year = 2024
	full.Season = 3
	full.Episode = 7
	full.Credits = []epg.Pair{{Key: "actor", Value: "Alice"}, {Key: "director", Value: "Carol"}}
	full.Categories = []string{"Krimi"}
	full.Reviews = []string{"Spannend"}
	full.Ratings = []epg.Pair{{Key: "FSK", Value: "12"}}
	full.StarRatings = []epg.Pair{{Key: "*", Value: "4/5"}}
	full.Video = []epg.Pair{{Key: "aspect", Value: "16:9"}}
	full.Audio = "stereo"
	full.ParentalRating = 12
	full.Mixing = true

	events := []epg.CandidateEvent{
		full,
		candidate("tvsp", 0, "zdf.de", 2, base.Add(2*time.Hour), "heute"),
		candidate("tvsp", 0, "zdf.de", 3, base.Add(-3*time.Hour), "too early"),
		candidate("other", 0, "zdf.de", 4, base, "other source"),
	}
	if err := store.Put(ctx, events); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	got, err := store.Window(ctx, "tvsp", base.Add(-time.Minute), base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Window returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows in window, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0], full) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got[0], full)
	}
	if got[1].EventID != 2 {
		t.Fatalf("expected rows ordered by start, got %+v", got[1])
	}
}

func TestPutKeepsCorrelation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ev := candidate("tvsp", 0, "ard.de", 1, base, "Tatort")
	if err := store.Put(ctx, []epg.CandidateEvent{ev}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	pass := store.BeginPass(ctx, "tvsp")
	if err := pass.Record(ctx, 1, 500, "broadcast text"); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if err := pass.Commit(); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}

	ev.Title = "Tatort (neu)"
	if err := store.Put(ctx, []epg.CandidateEvent{ev}); err != nil {
		t.Fatalf("second Put returned error: %v", err)
	}
	got, err := store.Window(ctx, "tvsp", base.Add(-time.Minute), base.Add(time.Hour*24))
	if err != nil || len(got) != 1 {
		t.Fatalf("Window: %v (%d rows)", err, len(got))
	}
	if got[0].Title != "Tatort (neu)" || got[0].EITEventID != 500 || got[0].EITDescription != "broadcast text" {
		t.Fatalf("unexpected row after re-put: %+v", got[0])
	}
}

func TestLookupTiers(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	low := candidate("a", 0, "ard.de", 10, base, "Tagesschau")
	high := candidate("b", 5, "ard.de", 11, base, "Tagesschau")
	later := candidate("a", 0, "ard.de", 12, base.Add(10*time.Minute), "Tagesschau")
	if err := store.Put(ctx, []epg.CandidateEvent{high, low, later}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	sched := &epg.ScheduleEvent{EventID: 77, Start: base.Add(time.Minute), Duration: 15 * time.Minute, Title: "Tagesschau"}
	got, err := store.Lookup(ctx, "ard.de", sched)
	if err != nil {
		t.Fatalf("Lookup by title returned error: %v", err)
	}
	if got.EventID != 10 {
		t.Fatalf("expected closest lowest-srcidx row 10, got %d", got.EventID)
	}

	pass := store.BeginPass(ctx, "b")
	if err := pass.Record(ctx, 11, 77, ""); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	got, err = pass.Lookup(ctx, "ard.de", sched)
	if err != nil {
		t.Fatalf("Lookup in pass returned error: %v", err)
	}
	if got.EventID != 11 {
		t.Fatalf("expected correlated row 11, got %d", got.EventID)
	}
	if err := pass.Commit(); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}

	miss := &epg.ScheduleEvent{Start: base.Add(5 * time.Hour), Title: "Tagesschau"}
	if _, err := store.Lookup(ctx, "ard.de", miss); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound outside window, got %v", err)
	}
}

func TestPassRollbackDiscardsWrites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.Put(ctx, []epg.CandidateEvent{candidate("a", 0, "ard.de", 1, base, "Film")}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	pass := store.BeginPass(ctx, "a")
	if err := pass.Record(ctx, 1, 99, "text"); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if err := pass.Rollback(); err != nil {
		t.Fatalf("Rollback returned error: %v", err)
	}

	got, err := store.Window(ctx, "a", base.Add(-time.Minute), base.Add(24*time.Hour))
	if err != nil || len(got) != 1 {
		t.Fatalf("Window: %v (%d rows)", err, len(got))
	}
	if got[0].EITEventID != 0 || got[0].EITDescription != "" {
		t.Fatalf("rolled back correlation visible: %+v", got[0])
	}
}

func TestCommitWithoutWritesIsNoop(t *testing.T) {
	store := openTestStore(t)
	pass := store.BeginPass(context.Background(), "a")
	if err := pass.Commit(); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
}

func TestRecordWithoutRowIsNotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	pass := store.BeginPass(ctx, "a")
	if err := pass.Record(ctx, 12345, 777, "cached text"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := pass.Commit(); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	got, err := store.Window(ctx, "a", base.Add(-24*time.Hour), base.Add(24*time.Hour))
	if err != nil || len(got) != 0 {
		t.Fatalf("Window: %v (%d rows)", err, len(got))
	}
}

func TestAddBroadcast(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ev := &epg.ScheduleEvent{EventID: 777, Start: base, Duration: 30 * time.Minute, Title: "Nachrichten", Subtitle: "Spät", Description: "Aus dem Studio"}
	enriched := &epg.ScheduleEvent{EventID: 778, Start: base.Add(time.Hour), Duration: time.Hour, Title: "Film", Description: "Done" + epg.Sentinel}
	noID := &epg.ScheduleEvent{Start: base.Add(2 * time.Hour), Duration: time.Hour, Title: "Doku", Description: "Text"}

	pass := store.BeginPass(ctx, "a")
	c, err := pass.AddBroadcast(ctx, "ard.de", ev)
	if err != nil {
		t.Fatalf("AddBroadcast returned error: %v", err)
	}
	if c == nil || c.Source != BroadcastSource || c.EITDescription != "Aus dem Studio" {
		t.Fatalf("unexpected candidate %+v", c)
	}
	for _, skip := range []*epg.ScheduleEvent{enriched, noID} {
		if c, err := pass.AddBroadcast(ctx, "ard.de", skip); err != nil || c != nil {
			t.Fatalf("expected %q to be skipped, got %+v, %v", skip.Title, c, err)
		}
	}
	if err := pass.Commit(); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}

	got, err := store.Lookup(ctx, "ard.de", ev)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	want := epg.CandidateEvent{
		Source:         BroadcastSource,
		SourceIndex:    BroadcastSourceIndex,
		ChannelID:      "ard.de",
		EventID:        777,
		EITEventID:     777,
		Start:          base,
		Duration:       30 * time.Minute,
		Title:          "Nachrichten",
		Subtitle:       "Spät",
		EITDescription: "Aus dem Studio",
	}
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("Lookup = %+v, want %+v", *got, want)
	}
	for _, skip := range []*epg.ScheduleEvent{enriched, noID} {
		if _, err := store.Lookup(ctx, "ard.de", skip); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected no row for %q, got %v", skip.Title, err)
		}
	}
	rows, err := store.Window(ctx, BroadcastSource, base.Add(-time.Hour), base.Add(24*time.Hour))
	if err != nil || len(rows) != 1 {
		t.Fatalf("Window: %v (%d rows)", err, len(rows))
	}
}
