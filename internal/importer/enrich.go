package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"epgmerge/internal/config"
	"epgmerge/internal/epg"
	"epgmerge/internal/feedstore"
	"epgmerge/internal/logging"
	"epgmerge/internal/reconcile"
	"epgmerge/internal/schedlock"
)

// Enrich fills in descriptions of channelID's schedule events that were not
// produced by an earlier pass, using the cached feed rows of every feed
// channel mapped onto channelID. Events no feed row matches have their
// broadcast description cached under feedstore.BroadcastSource.
func (i *Importer) Enrich(ctx context.Context, channelID string) (result Result, err error) {
	mappings := i.cfg.Mappings().ForTarget(channelID)
	if len(mappings) == 0 {
		return Result{}, fmt.Errorf("no feed channel is mapped to %s", channelID)
	}
	result = Result{RunID: uuid.NewString(), Source: i.cfg.Import.Source}
	ctx = logging.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, i.logger).With(logging.String(logging.FieldChannel, channelID))

	begin := i.now()
	defer func() {
		result.Elapsed = i.now().Sub(begin)
		logger.Info("enrich pass finished",
			logging.String("status", result.Status.String()),
			logging.Int("processed", result.Processed),
			logging.Int("changed", result.Changed),
			logging.Duration("elapsed", result.Elapsed),
		)
	}()

	feeds, err := feedstore.Open(ctx, i.cfg.Paths.FeedDB, false, i.logger)
	if err != nil {
		result.Status = StatusStoreUnavailable
		return result, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer feeds.Close()

	release, err := i.lock.Acquire(ctx)
	if errors.Is(err, schedlock.ErrStopped) {
		result.Status = StatusStopped
		return result, nil
	}
	if err != nil {
		return result, err
	}
	defer release()

	sched, err := i.schedules.Load(ctx, channelID, false)
	if err != nil {
		return result, err
	}

	pass := feeds.BeginPass(ctx, i.cfg.Import.Source)

	for _, ev := range sched.Events() {
		if ev.WasEnriched() {
			continue
		}
		c, mapping, err := i.lookupCandidate(ctx, pass, mappings, ev)
		if errors.Is(err, feedstore.ErrNotFound) {
			if _, err := pass.AddBroadcast(ctx, mappings[0].FeedID, ev); err != nil {
				logging.WarnWithContext(logger, "caching broadcast description failed", "feed_record_failed",
					logging.String(logging.FieldTitle, ev.Title),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the feed database is writable"),
				)
			}
			continue
		}
		if err != nil {
			logging.WarnWithContext(logger, "feed lookup failed", "feed_lookup_failed",
				logging.String(logging.FieldTitle, ev.Title),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the feed database"),
			)
			result.Skipped++
			continue
		}
		if c.Source == feedstore.BroadcastSource {
			continue
		}
		result.Processed++
		change := i.engine.Merge(ctx, ev, c, mapping.Policy, false, pass.ForSource(c.Source))
		if change != reconcile.ChangeNothing {
			result.Changed++
			i.metrics.RecordChange(c.Source, change.String())
		}
	}

	if _, err := i.schedules.Save(ctx, sched); err != nil {
		_ = pass.Rollback()
		return result, fmt.Errorf("save schedule %s: %w", channelID, err)
	}
	if err := pass.Commit(); err != nil {
		logger.Warn("feed pass commit failed", logging.Error(err))
	}
	result.Status = StatusOK
	return result, nil
}

func (i *Importer) lookupCandidate(ctx context.Context, pass *feedstore.Pass, mappings []*config.Mapping, ev *epg.ScheduleEvent) (*epg.CandidateEvent, *config.Mapping, error) {
	for _, mapping := range mappings {
		c, err := pass.Lookup(ctx, mapping.FeedID, ev)
		if errors.Is(err, feedstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return c, mapping, nil
	}
	return nil, nil, feedstore.ErrNotFound
}
