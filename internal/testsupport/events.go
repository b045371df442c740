package testsupport

import (
	"time"

	"epgmerge/internal/epg"
)

// BaseTime is the fixed reference time of fixtures.
var BaseTime = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

// Event builds a schedule event starting offset after BaseTime.
func Event(id epg.EventID, offset, duration time.Duration, title string) *epg.ScheduleEvent {
	return &epg.ScheduleEvent{
		EventID:  id,
		Start:    BaseTime.Add(offset),
		Duration: duration,
		Title:    title,
	}
}

// Candidate builds a feed candidate starting offset after BaseTime.
func Candidate(source, channelID string, id epg.EventID, offset, duration time.Duration, title string) epg.CandidateEvent {
	return epg.CandidateEvent{
		Source:    source,
		ChannelID: channelID,
		EventID:   id,
		Start:     BaseTime.Add(offset),
		Duration:  duration,
		Title:     title,
	}
}
