package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"epgmerge/internal/epg"
	"epgmerge/internal/logging"
)

// OverlapTolerance is the largest overlap with a neighbour that insertion
// absorbs by shortening one of the two events.
const OverlapTolerance = 300 * time.Second

// ErrSlotConflict classifies insertion failures.
var ErrSlotConflict = errors.New("slot conflict")

// ConflictError describes why a candidate could not be inserted.
type ConflictError struct {
	Title      string
	Window     string
	Reason     string
	Neighbours []*epg.ScheduleEvent
}

func (e *ConflictError) Error() string {
	found := make([]string, 0, len(e.Neighbours))
	for _, n := range e.Neighbours {
		found = append(found, n.String())
	}
	return fmt.Sprintf("cannot add '%s'@%s: %s (found %s)", e.Title, e.Window, e.Reason, strings.Join(found, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrSlotConflict }

// TryInsert adds c to s when it fits between its neighbours. Overlaps up to
// OverlapTolerance are removed by shortening the candidate (against the next
// event) or the previous event. When the candidate has no duration and the
// previous event has none either, the previous event is stretched up to the
// candidate start. On failure s and its events are left unchanged.
func (e *Engine) TryInsert(ctx context.Context, s *epg.Schedule, c *epg.CandidateEvent) (*epg.ScheduleEvent, error) {
	title := e.conv.Convert(c.Title)
	start := c.Start
	duration := c.Duration
	if duration < 0 {
		duration = 0
	}
	conflict := func(reason string, neighbours ...*epg.ScheduleEvent) error {
		err := &ConflictError{
			Title:      title,
			Window:     epg.FormatWindow(start, start.Add(c.Duration)),
			Reason:     reason,
			Neighbours: neighbours,
		}
		attrs := []logging.Attr{
			logging.String(logging.FieldTitle, title),
			logging.String(logging.FieldWindow, err.Window),
			logging.String("reason", reason),
			logging.String(logging.FieldErrorHint, "check for overlapping events in the schedule"),
			logging.String(logging.FieldImpact, "event not added"),
		}
		for i, n := range neighbours {
			attrs = append(attrs, logging.String(fmt.Sprintf("found_%d", i+1), n.String()))
		}
		logging.WarnWithContext(e.eventLogger(ctx), "cannot add event", "slot_conflict", attrs...)
		return err
	}

	prev := s.EventBefore(start)
	var next *epg.ScheduleEvent
	if prev != nil {
		next = s.Next(prev)
	} else if events := s.Events(); len(events) > 0 {
		next = events[0]
	}

	if prev != nil && prev.Start.Equal(start) {
		return nil, conflict("slot occupied", prev)
	}
	if prev != nil && next != nil && prev.End().Equal(next.Start) {
		return nil, conflict("no gap between neighbours", prev, next)
	}

	if next != nil {
		end := start.Add(duration)
		if end.After(next.Start) {
			overlap := end.Sub(next.Start)
			if overlap > OverlapTolerance {
				return nil, conflict("overlaps next event", next)
			}
			duration -= overlap
		}
	}

	var prevDuration time.Duration
	if prev != nil {
		prevDuration = prev.Duration
		if prev.End().After(start) {
			overlap := prev.End().Sub(start)
			if overlap > OverlapTolerance {
				return nil, conflict("overlaps previous event", prev)
			}
			prevDuration -= overlap
		}
		if c.Duration == 0 && prev.Duration == 0 {
			prevDuration = start.Sub(prev.Start)
		}
	}

	if prev != nil {
		prev.SetDuration(prevDuration)
	}
	ev := &epg.ScheduleEvent{
		EventID:  c.EventID,
		Start:    start,
		Duration: duration,
		Title:    title,
	}
	s.Add(ev)

	e.eventLogger(ctx).Info("adding event",
		logging.String(logging.FieldTitle, title),
		logging.String(logging.FieldWindow, ev.Window()),
		logging.Uint64(logging.FieldEventID, uint64(ev.EventID)),
	)
	return ev, nil
}
