package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"epgmerge/internal/config"
	"epgmerge/internal/epg"
	"epgmerge/internal/feedstore"
	"epgmerge/internal/logging"
	"epgmerge/internal/metrics"
	"epgmerge/internal/reconcile"
	"epgmerge/internal/schedlock"
	"epgmerge/internal/schedule"
)

// ErrStoreUnavailable is returned when the feed store cannot be opened or
// queried at the start of a pass.
var ErrStoreUnavailable = errors.New("feed store unavailable")

// Status is the terminal status of a pass.
type Status int

const (
	StatusOK Status = iota
	// StatusStopped means a stop was requested while waiting for the
	// schedule lock. The pass's feed store writes were rolled back.
	StatusStopped
	// StatusStoreUnavailable means the feed store could not be used at all.
	StatusStoreUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusStopped:
		return "stopped"
	case StatusStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// Result summarizes a pass.
type Result struct {
	RunID  string
	Source string
	Status Status

	// Processed counts candidate/target pairs that reached a schedule.
	Processed int
	Inserted  int
	Changed   int
	Conflicts int
	Skipped   int

	Elapsed time.Duration
}

// ScheduleStore loads and saves channel schedules.
type ScheduleStore interface {
	Load(ctx context.Context, channelID string, create bool) (*epg.Schedule, error)
	Save(ctx context.Context, sched *epg.Schedule) (int, error)
}

// Locker guards schedule access between processes.
type Locker interface {
	Acquire(ctx context.Context) (func(), error)
}

// Option customizes an Importer.
type Option func(*Importer)

// WithMetrics records pass metrics on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(i *Importer) {
		i.metrics = m
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

// WithClock overrides the pass clock.
func WithClock(now func() time.Time) Option {
	return func(i *Importer) {
		if now != nil {
			i.now = now
		}
	}
}

// Importer runs import and enrich passes.
type Importer struct {
	cfg       *config.Config
	schedules ScheduleStore
	lock      Locker
	engine    *reconcile.Engine
	metrics   *metrics.Manager
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs an Importer.
func New(cfg *config.Config, schedules ScheduleStore, lock Locker, engine *reconcile.Engine, opts ...Option) *Importer {
	i := &Importer{
		cfg:       cfg,
		schedules: schedules,
		lock:      lock,
		engine:    engine,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.NewComponentLogger(i.logger, "importer")
	return i
}

// Run performs one import pass over the configured source. A stop request
// ends the pass with StatusStopped and a nil error.
func (i *Importer) Run(ctx context.Context) (result Result, err error) {
	if err := i.cfg.RequireSource(); err != nil {
		return Result{}, err
	}
	source := i.cfg.Import.Source
	result = Result{RunID: uuid.NewString(), Source: source}

	ctx = logging.WithRunID(ctx, result.RunID)
	ctx = logging.WithSource(ctx, source)
	logger := logging.WithContext(ctx, i.logger)

	begin := i.now()
	end := begin.Add(time.Duration(i.cfg.Import.DaysInAdvance) * 24 * time.Hour)
	defer func() {
		result.Elapsed = i.now().Sub(begin)
		i.finish(logger, &result)
	}()

	feeds, err := feedstore.Open(ctx, i.cfg.Paths.FeedDB, false, i.logger)
	if err != nil {
		result.Status = StatusStoreUnavailable
		logging.ErrorWithContext(logger, "failed to open feed store", "feed_store_unavailable",
			logging.String("path", i.cfg.Paths.FeedDB),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run the feed fetcher first or check paths.feed_db"),
			logging.String(logging.FieldImpact, "import pass aborted"),
		)
		return result, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer feeds.Close()

	pass := feeds.BeginPass(ctx, source)
	candidates, err := pass.Window(ctx, begin, end)
	if err != nil {
		result.Status = StatusStoreUnavailable
		_ = pass.Rollback()
		logging.ErrorWithContext(logger, "failed to read feed window", "feed_query_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the feed database schema"),
			logging.String(logging.FieldImpact, "import pass aborted"),
		)
		return result, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	logger.Debug("feed window loaded",
		logging.Int("candidates", len(candidates)),
		logging.String(logging.FieldWindow, epg.FormatWindow(begin, end)),
	)

	mappings := i.cfg.Mappings()
	report := newReporter(logger)

	for idx := range candidates {
		c := &candidates[idx]
		mapping, ok := mappings.Lookup(c.ChannelID)
		if !ok {
			report.once(causeNoMapping, c.ChannelID, "no mapping for feed channel",
				logging.String(logging.FieldChannel, c.ChannelID),
			)
			i.skip(&result, "no_mapping")
			continue
		}

		for _, target := range mapping.Targets {
			outcome, err := i.applyTarget(ctx, pass, mapping, target, c)
			if errors.Is(err, schedlock.ErrStopped) {
				result.Status = StatusStopped
				if rbErr := pass.Rollback(); rbErr != nil {
					logger.Warn("feed pass rollback failed", logging.Error(rbErr))
				}
				logger.Info("request to stop, import pass aborted", logging.Int("processed", result.Processed))
				return result, nil
			}
			i.account(ctx, &result, report, mapping, target, c, outcome, err)
		}
	}

	if err := pass.Commit(); err != nil {
		logging.ErrorWithContext(logger, "feed pass commit failed", "feed_commit_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check disk space and feed database permissions"),
			logging.String(logging.FieldImpact, "correlations of this pass are lost"),
		)
	}
	result.Status = StatusOK
	return result, nil
}

// account folds the outcome of one candidate/target pair into result.
func (i *Importer) account(ctx context.Context, result *Result, report *reporter, mapping *config.Mapping, target string, c *epg.CandidateEvent, outcome reconcile.Outcome, err error) {
	var conflict *reconcile.ConflictError
	switch {
	case err == nil:
		result.Processed++
		i.metrics.RecordProcessed(result.Source)
		if outcome.Inserted {
			result.Inserted++
			i.metrics.RecordInserted(result.Source)
		}
		if outcome.Change != reconcile.ChangeNothing {
			result.Changed++
			i.metrics.RecordChange(result.Source, outcome.Change.String())
		}
	case errors.As(err, &conflict):
		result.Processed++
		result.Conflicts++
		i.metrics.RecordProcessed(result.Source)
		i.metrics.RecordConflict(result.Source)
	case errors.Is(err, schedule.ErrChannelNotFound):
		report.once(causeNoChannel, target, "target channel not found",
			logging.String(logging.FieldChannel, target),
		)
		i.skip(result, "channel_not_found")
	case errors.Is(err, schedule.ErrNoSchedule):
		hint := ""
		if !mapping.Policy.AppendEvents {
			hint = " - try append_events"
		}
		report.once(causeNoSchedule, target, "cannot get schedule for channel"+hint,
			logging.String(logging.FieldChannel, target),
		)
		i.skip(result, "no_schedule")
	case errors.Is(err, schedlock.ErrTimeout):
		logging.WarnWithContext(logging.WithContext(ctx, i.logger), "schedule lock timeout, skipping event", "schedule_lock_timeout",
			logging.String(logging.FieldChannel, target),
			logging.String(logging.FieldTitle, c.Title),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "another process holds the schedule lock"),
		)
		i.skip(result, "lock_timeout")
	default:
		logging.WarnWithContext(logging.WithContext(ctx, i.logger), "failed to apply feed event", "apply_failed",
			logging.String(logging.FieldChannel, target),
			logging.Uint64(logging.FieldEventID, uint64(c.EventID)),
			logging.String(logging.FieldTitle, c.Title),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the schedule database"),
		)
		i.skip(result, "error")
	}
}

func (i *Importer) skip(result *Result, reason string) {
	result.Skipped++
	i.metrics.RecordSkipped(result.Source, reason)
}

func (i *Importer) finish(logger *slog.Logger, result *Result) {
	i.metrics.ObservePass(result.Source, result.Status.String(), result.Elapsed, i.now())
	if path := i.cfg.Metrics.Textfile; path != "" && i.metrics != nil {
		if err := i.metrics.WriteTextfile(path); err != nil {
			logging.WarnWithContext(logger, "failed to write metrics textfile", "metrics_textfile_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check metrics.textfile directory permissions"),
			)
		}
	}
	logger.Info("import pass finished",
		logging.String("status", result.Status.String()),
		logging.Int("processed", result.Processed),
		logging.Int("inserted", result.Inserted),
		logging.Int("changed", result.Changed),
		logging.Int("conflicts", result.Conflicts),
		logging.Int("skipped", result.Skipped),
		logging.Duration("elapsed", result.Elapsed),
	)
}
