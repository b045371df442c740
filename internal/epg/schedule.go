package epg

import (
	"sort"
	"time"
)

// Schedule is the ordered sequence of known events for one channel.
type Schedule struct {
	ChannelID string
	events    []*ScheduleEvent
}

// NewSchedule builds a schedule and sorts the supplied events by start time.
func NewSchedule(channelID string, events ...*ScheduleEvent) *Schedule {
	s := &Schedule{ChannelID: channelID}
	for _, ev := range events {
		if ev != nil {
			s.events = append(s.events, ev)
		}
	}
	s.Sort()
	return s
}

// Events returns the events in start-time order. The slice must not be
// modified by callers.
func (s *Schedule) Events() []*ScheduleEvent {
	if s == nil {
		return nil
	}
	return s.events
}

func (s *Schedule) Len() int {
	if s == nil {
		return 0
	}
	return len(s.events)
}

// EventByID returns the first event carrying id, or nil. A zero id never matches.
func (s *Schedule) EventByID(id EventID) *ScheduleEvent {
	if s == nil || id == 0 {
		return nil
	}
	for _, ev := range s.events {
		if ev.EventID == id {
			return ev
		}
	}
	return nil
}

// EventAt returns the event starting exactly at start, or nil.
func (s *Schedule) EventAt(start time.Time) *ScheduleEvent {
	if s == nil {
		return nil
	}
	idx := sort.Search(len(s.events), func(i int) bool {
		return !s.events[i].Start.Before(start)
	})
	if idx < len(s.events) && s.events[idx].Start.Equal(start) {
		return s.events[idx]
	}
	return nil
}

// EventBefore returns the last event that does not start after start. When
// every event starts later it returns nil.
func (s *Schedule) EventBefore(start time.Time) *ScheduleEvent {
	if s.Len() == 0 {
		return nil
	}
	idx := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].Start.After(start)
	})
	if idx == 0 {
		return nil
	}
	return s.events[idx-1]
}

// Next returns the event following ev, or nil.
func (s *Schedule) Next(ev *ScheduleEvent) *ScheduleEvent {
	if s == nil || ev == nil {
		return nil
	}
	for i, cur := range s.events {
		if cur == ev {
			if i+1 < len(s.events) {
				return s.events[i+1]
			}
			return nil
		}
	}
	return nil
}

// Add inserts ev and restores start-time order.
func (s *Schedule) Add(ev *ScheduleEvent) {
	if ev == nil {
		return
	}
	ev.dirty = true
	s.events = append(s.events, ev)
	s.Sort()
}

// Sort orders events by start time, keeping insertion order on ties.
func (s *Schedule) Sort() {
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].Start.Before(s.events[j].Start)
	})
}

// DirtyEvents returns events that are unsaved or modified.
func (s *Schedule) DirtyEvents() []*ScheduleEvent {
	if s == nil {
		return nil
	}
	var out []*ScheduleEvent
	for _, ev := range s.events {
		if ev.Dirty() {
			out = append(out, ev)
		}
	}
	return out
}
