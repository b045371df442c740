// Package schedule persists per-channel programme schedules in SQLite.
package schedule

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"epgmerge/internal/epg"
	"epgmerge/internal/logging"
	"epgmerge/internal/sqlstore"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var (
	// ErrChannelNotFound is returned for channels that were never registered.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrNoSchedule is returned when a channel has no schedule and the caller
	// did not ask for one to be created.
	ErrNoSchedule = errors.New("no schedule for channel")
)

// Channel is a registered target channel.
type Channel struct {
	ID   string
	Name string
}

// Store is the SQLite-backed schedule store.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open connects to the schedule database, creating it when missing.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("schedule migrations: %w", err)
	}
	db, err := sqlstore.Open(ctx, path, true, migrations)
	if err != nil {
		return nil, fmt.Errorf("open schedule store: %w", err)
	}
	return &Store{db: db, path: path, logger: logging.NewComponentLogger(logger, "schedule")}, nil
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

// AddChannel registers a channel or renames an existing one.
func (s *Store) AddChannel(ctx context.Context, id, name string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("channel id is empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (id, name) VALUES (?, ?)
         ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		id, sqlstore.NullableString(name),
	)
	if err != nil {
		return fmt.Errorf("add channel: %w", err)
	}
	return nil
}

// Channel returns a registered channel.
func (s *Store) Channel(ctx context.Context, id string) (*Channel, error) {
	var name sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT name FROM channels WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return &Channel{ID: id, Name: name.String}, nil
}

// Channels lists registered channels ordered by id.
func (s *Store) Channels(ctx context.Context) ([]Channel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var (
			ch   Channel
			name sql.NullString
		)
		if err := rows.Scan(&ch.ID, &name); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		ch.Name = name.String
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

const eventColumns = "id, event_id, start_time, duration, title, short_text, description, parental_rating, enriched"

// Load reads the schedule of channelID. A channel without events has no
// schedule; with create set an empty schedule is returned instead of
// ErrNoSchedule.
func (s *Store) Load(ctx context.Context, channelID string, create bool) (*epg.Schedule, error) {
	if _, err := s.Channel(ctx, channelID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE channel_id = ? ORDER BY start_time`,
		channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	defer rows.Close()

	var events []*epg.ScheduleEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule events: %w", err)
	}

	if len(events) == 0 && !create {
		return nil, fmt.Errorf("%w: %s", ErrNoSchedule, channelID)
	}
	return epg.NewSchedule(channelID, events...), nil
}

// Save writes the dirty events of sched in one transaction and returns how
// many were written.
func (s *Store) Save(ctx context.Context, sched *epg.Schedule) (int, error) {
	dirty := sched.DirtyEvents()
	if len(dirty) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin schedule tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, ev := range dirty {
		if err := saveEvent(ctx, tx, sched.ChannelID, ev); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit schedule: %w", err)
	}
	for _, ev := range dirty {
		ev.MarkClean()
	}
	return len(dirty), nil
}

// AddEvent stores a single broadcast event on channelID.
func (s *Store) AddEvent(ctx context.Context, channelID string, ev *epg.ScheduleEvent) error {
	if ev == nil {
		return errors.New("event is nil")
	}
	if _, err := s.Channel(ctx, channelID); err != nil {
		return err
	}
	if err := saveEvent(ctx, s.db, channelID, ev); err != nil {
		return err
	}
	ev.MarkClean()
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveEvent(ctx context.Context, db execer, channelID string, ev *epg.ScheduleEvent) error {
	enriched := 0
	if ev.Enriched {
		enriched = 1
	}
	if ev.RowID == 0 {
		res, err := db.ExecContext(ctx,
			`INSERT INTO events (
                channel_id, event_id, start_time, duration, title, short_text,
                description, parental_rating, enriched
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			channelID,
			sqlstore.NullableInt(int64(ev.EventID)),
			ev.Start.Unix(),
			int64(ev.Duration/time.Second),
			ev.Title,
			sqlstore.NullableString(ev.Subtitle),
			sqlstore.NullableString(ev.Description),
			sqlstore.NullableInt(int64(ev.ParentalRating)),
			enriched,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", ev, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		ev.RowID = id
		return nil
	}

	_, err := db.ExecContext(ctx,
		`UPDATE events
         SET event_id = ?, start_time = ?, duration = ?, title = ?, short_text = ?,
             description = ?, parental_rating = ?, enriched = ?
         WHERE id = ?`,
		sqlstore.NullableInt(int64(ev.EventID)),
		ev.Start.Unix(),
		int64(ev.Duration/time.Second),
		ev.Title,
		sqlstore.NullableString(ev.Subtitle),
		sqlstore.NullableString(ev.Description),
		sqlstore.NullableInt(int64(ev.ParentalRating)),
		enriched,
		ev.RowID,
	)
	if err != nil {
		return fmt.Errorf("update event %s: %w", ev, err)
	}
	return nil
}

func scanEvent(scanner interface{ Scan(dest ...any) error }) (*epg.ScheduleEvent, error) {
	var (
		rowID       int64
		eventID     sql.NullInt64
		startTime   int64
		duration    int64
		title       string
		shortText   sql.NullString
		description sql.NullString
		parental    sql.NullInt64
		enriched    int64
	)
	if err := scanner.Scan(&rowID, &eventID, &startTime, &duration, &title, &shortText, &description, &parental, &enriched); err != nil {
		return nil, err
	}
	return &epg.ScheduleEvent{
		RowID:          rowID,
		EventID:        epg.EventID(eventID.Int64),
		Start:          time.Unix(startTime, 0).UTC(),
		Duration:       time.Duration(duration) * time.Second,
		Title:          title,
		Subtitle:       shortText.String,
		Description:    description.String,
		ParentalRating: int(parental.Int64),
		Enriched:       enriched != 0,
	}, nil
}
