package reconcile

import (
	"context"
	"log/slog"

	"epgmerge/internal/epg"
	"epgmerge/internal/logging"
)

// Recorder persists a correlation between a feed event and a schedule event
// so a later pass can recover the schedule's original description.
type Recorder interface {
	Record(ctx context.Context, feedEventID, eitEventID epg.EventID, description string) error
}

// Options configures an Engine.
type Options struct {
	// Converter renders feed text as schedule display text. Nil means identity.
	Converter epg.Converter
	// Labels resolves field labels for synthesized descriptions.
	Labels epg.LabelLookup
	// NativeParentalRating is true when schedule events carry a rating field,
	// in which case content ratings are only rendered as text on request.
	NativeParentalRating bool
	Logger               *slog.Logger
}

// Engine applies candidate events to schedules. It holds no per-pass state
// and may be reused across channels.
type Engine struct {
	conv         epg.Converter
	labels       epg.LabelLookup
	nativeRating bool
	logger       *slog.Logger
}

// NewEngine builds an Engine from opts.
func NewEngine(opts Options) *Engine {
	conv := opts.Converter
	if conv == nil {
		conv = epg.Identity
	}
	labels := opts.Labels
	if labels == nil {
		labels = epg.Labels(nil)
	}
	return &Engine{
		conv:         conv,
		labels:       labels,
		nativeRating: opts.NativeParentalRating,
		logger:       logging.NewComponentLogger(opts.Logger, "reconcile"),
	}
}

// Outcome reports what Apply did with one candidate.
type Outcome struct {
	// Event is the matched or inserted schedule event; nil when neither.
	Event    *epg.ScheduleEvent
	Match    MatchKind
	Inserted bool
	Change   ChangeKind
}

// Apply reconciles c against s. existing is the event returned by Locate
// (nil when nothing matched). When no event matched and the policy allows
// appending, the candidate is inserted first. A slot conflict is returned as
// a *ConflictError and leaves s untouched.
func (e *Engine) Apply(ctx context.Context, s *epg.Schedule, existing *epg.ScheduleEvent, match MatchKind, c *epg.CandidateEvent, p epg.Policy, rec Recorder) (Outcome, error) {
	out := Outcome{Event: existing, Match: match}
	if existing == nil {
		if !p.AppendEvents {
			return out, nil
		}
		inserted, err := e.TryInsert(ctx, s, c)
		if err != nil {
			return out, err
		}
		out.Event = inserted
		out.Inserted = true
	}
	out.Change = e.Merge(ctx, out.Event, c, p, out.Inserted, rec)
	return out, nil
}

func (e *Engine) eventLogger(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, e.logger)
}
