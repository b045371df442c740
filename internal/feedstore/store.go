package feedstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"epgmerge/internal/epg"
	"epgmerge/internal/logging"
	"epgmerge/internal/reconcile"
	"epgmerge/internal/sqlstore"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNotFound is returned by lookups and correlation writes that match no
// feed row.
var ErrNotFound = errors.New("feed event not found")

// Schedule events no feed row matched are cached under BroadcastSource, after
// every real feed source.
const (
	BroadcastSource      = "eit"
	BroadcastSourceIndex = 99
)

// Store is the SQLite-backed feed store.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open connects to the feed database. With create unset a missing file is an
// error, which callers treat as the store being unavailable.
func Open(ctx context.Context, path string, create bool, logger *slog.Logger) (*Store, error) {
	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("feed migrations: %w", err)
	}
	db, err := sqlstore.Open(ctx, path, create, migrations)
	if err != nil {
		return nil, fmt.Errorf("open feed store: %w", err)
	}
	return &Store{db: db, path: path, logger: logging.NewComponentLogger(logger, "feedstore")}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

const putSQL = `INSERT INTO epg (
        src, srcidx, channel_id, event_id, start_time, duration, title, orig_title,
        short_text, description, country, year, credits, category, review, rating,
        star_rating, video, audio, season, episode, parental_rating, mixing
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT (src, channel_id, event_id) DO UPDATE SET
        srcidx = excluded.srcidx, start_time = excluded.start_time, duration = excluded.duration,
        title = excluded.title, orig_title = excluded.orig_title, short_text = excluded.short_text,
        description = excluded.description, country = excluded.country, year = excluded.year,
        credits = excluded.credits, category = excluded.category, review = excluded.review,
        rating = excluded.rating, star_rating = excluded.star_rating, video = excluded.video,
        audio = excluded.audio, season = excluded.season, episode = excluded.episode,
        parental_rating = excluded.parental_rating, mixing = excluded.mixing`

// Put upserts feed events. Correlations recorded by earlier passes survive a
// re-import of the same event.
func (s *Store) Put(ctx context.Context, events []epg.CandidateEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, putSQL)
	if err != nil {
		return fmt.Errorf("prepare put: %w", err)
	}
	defer stmt.Close()

	for i := range events {
		ev := &events[i]
		if ev.Source == "" || ev.ChannelID == "" {
			return fmt.Errorf("put event %d: source and channel are required", ev.EventID)
		}
		args, err := putArgs(ev)
		if err != nil {
			return fmt.Errorf("put event %d: %w", ev.EventID, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("put event %d: %w", ev.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put: %w", err)
	}
	return nil
}

// Window returns the rows of source that start or end after from and end
// before to, ordered by start time and then source priority.
func (s *Store) Window(ctx context.Context, source string, from, to time.Time) ([]epg.CandidateEvent, error) {
	return window(ctx, s.db, source, from, to)
}

// Lookup finds the cached feed row for a schedule event on channelID. See
// Pass.Lookup for the matching rules.
func (s *Store) Lookup(ctx context.Context, channelID string, ev *epg.ScheduleEvent) (*epg.CandidateEvent, error) {
	return lookup(ctx, s.db, channelID, ev)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func window(ctx context.Context, q querier, source string, from, to time.Time) ([]epg.CandidateEvent, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+candidateColumns+` FROM epg
         WHERE src = ?
           AND (start_time > ? OR start_time + duration > ?)
           AND start_time + duration < ?
         ORDER BY start_time, srcidx, channel_id, event_id`,
		source, from.Unix(), from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("query feed window: %w", err)
	}
	defer rows.Close()

	var events []epg.CandidateEvent
	for rows.Next() {
		ev, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed row: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed rows: %w", err)
	}
	return events, nil
}

// lookup tries the broadcast correlation first, then a row with the same
// title inside the fuzzy window closest to the event start.
func lookup(ctx context.Context, q querier, channelID string, ev *epg.ScheduleEvent) (*epg.CandidateEvent, error) {
	if ev == nil {
		return nil, ErrNotFound
	}
	if ev.EventID != 0 {
		row := q.QueryRowContext(ctx,
			`SELECT `+candidateColumns+` FROM epg
             WHERE eit_event_id = ? AND channel_id = ?
             ORDER BY srcidx ASC LIMIT 1`,
			int64(ev.EventID), channelID,
		)
		found, err := scanCandidate(row)
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lookup by broadcast id: %w", err)
		}
	}

	window := int64(reconcile.FuzzyWindow(ev.Duration) / time.Second)
	start := ev.Start.Unix()
	row := q.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM epg
         WHERE start_time >= ? AND start_time <= ? AND title = ? AND channel_id = ?
         ORDER BY abs(start_time - ?), srcidx ASC LIMIT 1`,
		start-window, start+window, ev.Title, channelID, start,
	)
	found, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup by title: %w", err)
	}
	return found, nil
}

func record(ctx context.Context, q querier, source string, feedEventID, eitEventID epg.EventID, description string) error {
	var (
		res sql.Result
		err error
	)
	if description != "" {
		res, err = q.ExecContext(ctx,
			`UPDATE epg SET eit_event_id = ?, eit_description = ? WHERE event_id = ? AND src = ?`,
			int64(eitEventID), description, int64(feedEventID), source,
		)
	} else {
		res, err = q.ExecContext(ctx,
			`UPDATE epg SET eit_event_id = ? WHERE event_id = ? AND src = ?`,
			int64(eitEventID), int64(feedEventID), source,
		)
	}
	if err != nil {
		return fmt.Errorf("record correlation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record correlation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("record correlation for %s event %d: %w", source, feedEventID, ErrNotFound)
	}
	return nil
}

// addBroadcast stores ev under BroadcastSource so its broadcast description
// survives until a feed row is correlated with it. The text is kept only as
// the cached broadcast description; it is already in the display charset.
func addBroadcast(ctx context.Context, q querier, channelID string, ev *epg.ScheduleEvent) (*epg.CandidateEvent, error) {
	c := &epg.CandidateEvent{
		Source:         BroadcastSource,
		SourceIndex:    BroadcastSourceIndex,
		ChannelID:      channelID,
		EventID:        ev.EventID,
		EITEventID:     ev.EventID,
		Start:          ev.Start,
		Duration:       ev.Duration,
		Title:          ev.Title,
		Subtitle:       ev.Subtitle,
		EITDescription: ev.Description,
	}
	args, err := putArgs(c)
	if err != nil {
		return nil, fmt.Errorf("add broadcast event %d: %w", ev.EventID, err)
	}
	if _, err := q.ExecContext(ctx, putSQL, args...); err != nil {
		return nil, fmt.Errorf("add broadcast event %d: %w", ev.EventID, err)
	}
	if err := record(ctx, q, BroadcastSource, ev.EventID, ev.EventID, ev.Description); err != nil {
		return nil, err
	}
	return c, nil
}
