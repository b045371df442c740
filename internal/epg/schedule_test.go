package epg

import (
	"testing"
	"time"
)

var base = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

func at(offset time.Duration) time.Time { return base.Add(offset) }

func TestScheduleLookups(t *testing.T) {
	a := &ScheduleEvent{RowID: 1, EventID: 10, Start: at(0), Duration: time.Hour, Title: "A"}
	b := &ScheduleEvent{RowID: 2, EventID: 11, Start: at(time.Hour), Duration: time.Hour, Title: "B"}
	c := &ScheduleEvent{RowID: 3, EventID: 12, Start: at(2 * time.Hour), Duration: time.Hour, Title: "C"}
	s := NewSchedule("ch", c, a, b)

	if got := s.Events(); got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("events not sorted: %v", got)
	}
	if s.EventByID(11) != b {
		t.Fatal("EventByID(11) should return b")
	}
	if s.EventByID(0) != nil {
		t.Fatal("zero id must never match")
	}
	if s.EventAt(at(time.Hour)) != b {
		t.Fatal("EventAt should find b")
	}
	if s.EventAt(at(time.Minute)) != nil {
		t.Fatal("EventAt should not match inside an event")
	}
	if s.EventBefore(at(90*time.Minute)) != b {
		t.Fatal("EventBefore should return b")
	}
	if s.EventBefore(at(-time.Minute)) != nil {
		t.Fatal("EventBefore before first event should be nil")
	}
	if s.EventBefore(at(5*time.Hour)) != c {
		t.Fatal("EventBefore after last event should be c")
	}
	if s.Next(b) != c || s.Next(c) != nil {
		t.Fatal("Next returned wrong neighbour")
	}
}

func TestScheduleAddMarksDirty(t *testing.T) {
	a := &ScheduleEvent{RowID: 1, Start: at(0), Duration: time.Hour}
	c := &ScheduleEvent{RowID: 3, Start: at(2 * time.Hour), Duration: time.Hour}
	s := NewSchedule("ch", a, c)
	if len(s.DirtyEvents()) != 0 {
		t.Fatal("loaded events should be clean")
	}

	b := &ScheduleEvent{Start: at(time.Hour), Duration: time.Hour}
	s.Add(b)
	if s.Events()[1] != b {
		t.Fatal("added event not sorted into place")
	}
	a.SetSubtitle("x")
	dirty := s.DirtyEvents()
	if len(dirty) != 2 || dirty[0] != a || dirty[1] != b {
		t.Fatalf("unexpected dirty set: %v", dirty)
	}
	a.MarkClean()
	if a.Dirty() {
		t.Fatal("MarkClean should clear dirty flag")
	}
}

func TestWasEnriched(t *testing.T) {
	cases := []struct {
		name string
		ev   ScheduleEvent
		want bool
	}{
		{"plain", ScheduleEvent{Description: "plain text"}, false},
		{"utf8 sentinel", ScheduleEvent{Description: "text" + Sentinel}, true},
		{"latin1 sentinel", ScheduleEvent{Description: "text\xa0"}, true},
		{"flag only", ScheduleEvent{Description: "text", Enriched: true}, true},
		{"empty", ScheduleEvent{}, false},
	}
	for _, tc := range cases {
		if got := tc.ev.WasEnriched(); got != tc.want {
			t.Fatalf("%s: WasEnriched = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestLabels(t *testing.T) {
	l := Labels{"country": "Land", "year": ""}
	if v, ok := l.Label("Country"); !ok || v != "Land" {
		t.Fatalf("case-insensitive lookup failed: %q %v", v, ok)
	}
	if _, ok := l.Label("year"); ok {
		t.Fatal("empty label must be treated as missing")
	}
	if _, ok := l.Label("season"); ok {
		t.Fatal("missing label must not resolve")
	}
}
