package importer

import (
	"context"
	"fmt"

	"epgmerge/internal/config"
	"epgmerge/internal/epg"
	"epgmerge/internal/feedstore"
	"epgmerge/internal/logging"
	"epgmerge/internal/reconcile"
)

// applyTarget reconciles c against the schedule of target while holding the
// schedule lock.
func (i *Importer) applyTarget(ctx context.Context, pass *feedstore.Pass, mapping *config.Mapping, target string, c *epg.CandidateEvent) (reconcile.Outcome, error) {
	release, err := i.lock.Acquire(ctx)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	defer release()

	sched, err := i.schedules.Load(ctx, target, mapping.Policy.AppendEvents)
	if err != nil {
		return reconcile.Outcome{}, err
	}

	existing, match := i.engine.Locate(ctx, sched, c)
	if mapping.Policy.AppendEvents && existing != nil && existing.EventID != c.EventID {
		logging.ErrorWithContext(logging.WithContext(ctx, i.logger), "found another event with different event id, disabling append", "append_disabled",
			logging.String(logging.FieldChannel, target),
			logging.String(logging.FieldTitle, existing.Title),
			logging.Uint64(logging.FieldEventID, uint64(existing.EventID)),
			logging.Uint64("feed_event_id", uint64(c.EventID)),
			logging.String(logging.FieldErrorHint, "the channel already carries broadcast events; disable append_events for "+mapping.FeedID),
		)
		mapping.Policy.AppendEvents = false
	}
	if existing != nil && existing.EventID != 0 && existing.EventID != c.EITEventID && existing.EventID != c.EventID {
		if err := pass.Record(ctx, c.EventID, existing.EventID, ""); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, i.logger), "failed to record event correlation", "correlation_record_failed",
				logging.Uint64(logging.FieldEventID, uint64(c.EventID)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the feed database is writable"),
			)
		}
	}

	outcome, err := i.engine.Apply(ctx, sched, existing, match, c, mapping.Policy, pass)
	if err != nil {
		return outcome, err
	}
	if _, err := i.schedules.Save(ctx, sched); err != nil {
		return outcome, fmt.Errorf("save schedule %s: %w", target, err)
	}
	return outcome, nil
}
