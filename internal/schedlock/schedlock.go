// Package schedlock guards the schedule store with a cooperative file lock.
//
// Acquire polls the lock with a fixed delay for a bounded number of attempts.
// Cancelling the context is the stop request: it ends the wait with
// ErrStopped so an import pass can shut down cleanly.
package schedlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gofrs/flock"

	"epgmerge/internal/logging"
)

const (
	DefaultAttempts = 300
	DefaultDelay    = 200 * time.Millisecond
)

var (
	// ErrTimeout is returned when every attempt found the lock held.
	ErrTimeout = errors.New("schedule lock timeout")
	// ErrStopped is returned when the context ended while waiting.
	ErrStopped = errors.New("stop requested while waiting for schedule lock")

	errBusy = errors.New("schedule lock busy")
)

// Backoff is a bounded fixed-delay retry policy.
type Backoff struct {
	Attempts uint
	Delay    time.Duration
}

func (b Backoff) normalized() Backoff {
	if b.Attempts == 0 {
		b.Attempts = DefaultAttempts
	}
	if b.Delay <= 0 {
		b.Delay = DefaultDelay
	}
	return b
}

// Wait calls try until it reports success, fails with an error other than
// busy, the attempts run out (ErrTimeout) or ctx ends (ErrStopped).
func (b Backoff) Wait(ctx context.Context, try func() (bool, error), onRetry func(attempt uint)) error {
	b = b.normalized()
	if ctx.Err() != nil {
		return ErrStopped
	}
	err := retry.Do(
		func() error {
			ok, err := try()
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if !ok {
				return errBusy
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(b.Attempts),
		retry.Delay(b.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, _ error) {
			if onRetry != nil {
				onRetry(n + 1)
			}
		}),
	)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ErrStopped
	case errors.Is(err, errBusy):
		return fmt.Errorf("%w after %d attempts", ErrTimeout, b.Attempts)
	default:
		return err
	}
}

// Locker serializes access to the schedule store between processes.
type Locker struct {
	path    string
	backoff Backoff
	logger  *slog.Logger
}

// Options configures a Locker.
type Options struct {
	Path     string
	Attempts int
	Delay    time.Duration
	Logger   *slog.Logger
}

// New creates a Locker for the lock file at opts.Path.
func New(opts Options) *Locker {
	attempts := opts.Attempts
	if attempts < 0 {
		attempts = 0
	}
	return &Locker{
		path:    opts.Path,
		backoff: Backoff{Attempts: uint(attempts), Delay: opts.Delay}.normalized(),
		logger:  logging.NewComponentLogger(opts.Logger, "schedlock"),
	}
}

// Path returns the lock file location.
func (l *Locker) Path() string { return l.path }

// Acquire takes the lock, waiting up to the configured backoff. The returned
// release function is safe to call more than once.
func (l *Locker) Acquire(ctx context.Context) (func(), error) {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure lock directory: %w", err)
		}
	}
	lock := flock.New(l.path)
	err := l.backoff.Wait(ctx, lock.TryLock, func(attempt uint) {
		if attempt == 1 {
			l.logger.Debug("schedule lock busy, waiting", logging.String("lock", l.path))
		}
	})
	if err != nil {
		if errors.Is(err, ErrStopped) {
			l.logger.Info("request to stop while waiting for schedule lock")
		}
		return nil, err
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		if err := lock.Unlock(); err != nil {
			l.logger.Warn("failed to release schedule lock",
				logging.String("lock", l.path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "lock_release_failed"),
				logging.String(logging.FieldErrorHint, "remove the lock file if no other process holds it"),
			)
		}
	}, nil
}
