package reconcile

import (
	"context"

	"epgmerge/internal/epg"
	"epgmerge/internal/logging"
)

// ChangeKind classifies what Merge changed on a schedule event.
type ChangeKind int

const (
	ChangeNothing     ChangeKind = 0
	ChangeSubtitle    ChangeKind = 1
	ChangeDescription ChangeKind = 2
	ChangeBoth                   = ChangeSubtitle | ChangeDescription
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSubtitle:
		return "subtitle"
	case ChangeDescription:
		return "description"
	case ChangeBoth:
		return "subtitle+description"
	default:
		return "nothing"
	}
}

// Merge copies the candidate's subtitle, rating and synthesized description
// onto ev. Only values that differ are written, so merging the same candidate
// twice reports ChangeNothing the second time. inserted is true when ev was
// just created by TryInsert; the subtitle is then always taken and no change
// line is logged.
func (e *Engine) Merge(ctx context.Context, ev *epg.ScheduleEvent, c *epg.CandidateEvent, p epg.Policy, inserted bool, rec Recorder) ChangeKind {
	if ev == nil || c == nil {
		return ChangeNothing
	}
	logger := e.eventLogger(ctx)
	change := ChangeNothing

	if (p.UseSubtitle || inserted) && c.Subtitle != "" {
		subtitle := e.conv.Convert(c.Subtitle)
		if equalFold(subtitle, ev.Title) {
			if ev.Subtitle != "" {
				logger.Debug("title and subtitle equal, clearing subtitle", logging.String(logging.FieldTitle, ev.Title))
			}
			ev.SetSubtitle("")
		} else if ev.Subtitle != subtitle {
			ev.SetSubtitle(subtitle)
			change |= ChangeSubtitle
		}
	}

	if p.UseRating && e.nativeRating && c.ParentalRating > 0 {
		ev.SetParentalRating(c.ParentalRating)
	}

	syn := e.Synthesize(c, ev, p)
	if syn.FromExisting && rec != nil {
		if err := rec.Record(ctx, c.EventID, ev.EventID, ev.Description); err != nil {
			logging.WarnWithContext(logger, "record correlation failed", "feed_record_failed",
				logging.Uint64(logging.FieldEventID, uint64(c.EventID)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the feed store is writable"),
				logging.String(logging.FieldImpact, "description will be recomputed next pass"),
			)
		}
	}
	if syn.Text != "" && ev.Description != syn.Text {
		ev.SetDescription(syn.Text, true)
		change |= ChangeDescription
	}

	if !inserted && change != ChangeNothing {
		logger.Info("changing event",
			logging.String(logging.FieldChange, change.String()),
			logging.String(logging.FieldTitle, ev.Title),
			logging.String(logging.FieldWindow, ev.Window()),
		)
	}
	return change
}
