package reconcile

import (
	"context"
	"time"

	"epgmerge/internal/epg"
	"epgmerge/internal/logging"
	"epgmerge/internal/textnorm"
)

// MatchKind names the locator tier that produced a match.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchEITEventID
	MatchEventID
	MatchStartTime
	MatchTitle
	MatchFuzzyTitle
)

func (k MatchKind) String() string {
	switch k {
	case MatchEITEventID:
		return "eit_event_id"
	case MatchEventID:
		return "event_id"
	case MatchStartTime:
		return "start_time"
	case MatchTitle:
		return "title"
	case MatchFuzzyTitle:
		return "fuzzy_title"
	default:
		return "none"
	}
}

// minFuzzyWindow bounds the title scan for short or unknown durations.
const minFuzzyWindow = 780 * time.Second

// FuzzyWindow returns how far from the candidate start the title scan looks:
// a quarter of the duration, never less than 13 minutes.
func FuzzyWindow(d time.Duration) time.Duration {
	w := d / 4
	if w < minFuzzyWindow {
		w = minFuzzyWindow
	}
	return w
}

// Locate finds the schedule event c describes. Tiers are tried in order and
// the first hit wins: broadcast id, feed id (unless shared across sources),
// exact start with identical title, then the title scan. Inside the scan an
// identical title always beats a similar one; within a kind the smaller start
// distance wins and the first seen event wins a tie.
func (e *Engine) Locate(ctx context.Context, s *epg.Schedule, c *epg.CandidateEvent) (*epg.ScheduleEvent, MatchKind) {
	if s.Len() == 0 || c == nil {
		return nil, MatchNone
	}
	if ev := s.EventByID(c.EITEventID); ev != nil {
		return ev, MatchEITEventID
	}
	if !c.Mixing {
		if ev := s.EventByID(c.EventID); ev != nil {
			return ev, MatchEventID
		}
	}

	title := e.conv.Convert(c.Title)
	if ev := s.EventAt(c.Start); ev != nil && ev.Title == title {
		return ev, MatchStartTime
	}

	window := FuzzyWindow(c.Duration)
	var (
		exact, fuzzy         *epg.ScheduleEvent
		exactDiff, fuzzyDiff time.Duration
	)
	for _, ev := range s.Events() {
		diff := absDuration(ev.Start.Sub(c.Start))
		if diff > window {
			continue
		}
		if ev.Title == title {
			if exact == nil || diff < exactDiff {
				exact, exactDiff = ev, diff
			}
			continue
		}
		if exact != nil {
			continue
		}
		if !textnorm.SimilarTitles(ev.Title, title) {
			continue
		}
		if fuzzy == nil || diff < fuzzyDiff {
			fuzzy, fuzzyDiff = ev, diff
		}
	}

	if exact != nil {
		return exact, MatchTitle
	}
	if fuzzy != nil {
		if !fuzzy.WasEnriched() {
			e.eventLogger(ctx).Debug("fuzzy title match",
				logging.String(logging.FieldTitle, fuzzy.Title),
				logging.String("candidate_title", title),
				logging.Duration("distance", fuzzyDiff),
			)
		}
		return fuzzy, MatchFuzzyTitle
	}
	return nil, MatchNone
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
