package feedstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"epgmerge/internal/epg"
	"epgmerge/internal/logging"
	"epgmerge/internal/reconcile"
)

// Pass groups the feed store writes of one import pass for source into a
// single transaction.
type Pass struct {
	store  *Store
	source string
	tx     *sql.Tx
	logger *slog.Logger
}

// BeginPass starts a pass. No transaction is opened until the first write.
func (s *Store) BeginPass(ctx context.Context, source string) *Pass {
	return &Pass{
		store:  s,
		source: source,
		logger: logging.WithContext(ctx, s.logger),
	}
}

func (p *Pass) querier() querier {
	if p.tx != nil {
		return p.tx
	}
	return p.store.db
}

// ensureTx opens the pass transaction. A failure is logged and the write
// proceeds outside a transaction; the next write tries again.
func (p *Pass) ensureTx(ctx context.Context) {
	if p.tx != nil {
		return
	}
	tx, err := p.store.db.BeginTx(ctx, nil)
	if err != nil {
		logging.ErrorWithContext(p.logger, "begin feed transaction failed", "feed_tx_begin_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the feed database is writable"),
		)
		return
	}
	p.tx = tx
}

// Record stores that feed event feedEventID of this pass's source is
// broadcast as eitEventID. A non-empty description is cached as the
// broadcast description.
func (p *Pass) Record(ctx context.Context, feedEventID, eitEventID epg.EventID, description string) error {
	return p.recordFor(ctx, p.source, feedEventID, eitEventID, description)
}

// ForSource returns a recorder that writes correlations of source rows
// through this pass's transaction.
func (p *Pass) ForSource(source string) reconcile.Recorder {
	return sourceRecorder{pass: p, source: source}
}

type sourceRecorder struct {
	pass   *Pass
	source string
}

func (r sourceRecorder) Record(ctx context.Context, feedEventID, eitEventID epg.EventID, description string) error {
	return r.pass.recordFor(ctx, r.source, feedEventID, eitEventID, description)
}

func (p *Pass) recordFor(ctx context.Context, source string, feedEventID, eitEventID epg.EventID, description string) error {
	p.ensureTx(ctx)
	if err := record(ctx, p.querier(), source, feedEventID, eitEventID, description); err != nil {
		return err
	}
	if description != "" {
		p.logger.Debug("updating cached description",
			logging.String(logging.FieldSource, source),
			logging.Uint64(logging.FieldEventID, uint64(feedEventID)),
			logging.Uint64("eit_event_id", uint64(eitEventID)),
		)
	}
	return nil
}

// AddBroadcast caches ev's broadcast description for feed channel channelID
// when no feed row matches ev. Later lookups find the row by ev's broadcast
// id. It returns nil without writing when ev has no broadcast id or no
// broadcast description of its own.
func (p *Pass) AddBroadcast(ctx context.Context, channelID string, ev *epg.ScheduleEvent) (*epg.CandidateEvent, error) {
	if ev == nil || ev.EventID == 0 || ev.Description == "" || ev.WasEnriched() {
		return nil, nil
	}
	p.ensureTx(ctx)
	c, err := addBroadcast(ctx, p.querier(), channelID, ev)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("caching broadcast description",
		logging.String(logging.FieldChannel, channelID),
		logging.Uint64(logging.FieldEventID, uint64(ev.EventID)),
		logging.String(logging.FieldTitle, ev.Title),
	)
	return c, nil
}

// Lookup returns the feed row for ev on channelID: first the row correlated
// with ev's broadcast id (lowest srcidx wins), then the row with ev's title
// closest to its start within the fuzzy window. ErrNotFound when neither
// exists.
func (p *Pass) Lookup(ctx context.Context, channelID string, ev *epg.ScheduleEvent) (*epg.CandidateEvent, error) {
	return lookup(ctx, p.querier(), channelID, ev)
}

// Window reads the pass's source rows through the pass transaction.
func (p *Pass) Window(ctx context.Context, from, to time.Time) ([]epg.CandidateEvent, error) {
	return window(ctx, p.querier(), p.source, from, to)
}

// Commit ends the pass. Nothing happens when no write opened a transaction.
func (p *Pass) Commit() error {
	if p.tx == nil {
		return nil
	}
	tx := p.tx
	p.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit feed pass: %w", err)
	}
	return nil
}

// Rollback discards the pass writes.
func (p *Pass) Rollback() error {
	if p.tx == nil {
		return nil
	}
	tx := p.tx
	p.tx = nil
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("rollback feed pass: %w", err)
	}
	return nil
}
