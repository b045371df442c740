package schedlock

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestBackoffSucceedsAfterRetries(t *testing.T) {
	calls := 0
	retries := 0
	err := Backoff{Attempts: 5, Delay: time.Millisecond}.Wait(context.Background(), func() (bool, error) {
		calls++
		return calls == 3, nil
	}, func(uint) { retries++ })
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if calls != 3 || retries != 2 {
		t.Fatalf("expected 3 calls and 2 retries, got %d/%d", calls, retries)
	}
}

func TestBackoffTimeout(t *testing.T) {
	calls := 0
	err := Backoff{Attempts: 4, Delay: time.Millisecond}.Wait(context.Background(), func() (bool, error) {
		calls++
		return false, nil
	}, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
}

func TestBackoffStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Backoff{Attempts: 1000, Delay: 5 * time.Millisecond}.Wait(ctx, func() (bool, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return false, nil
	}, nil)
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if calls >= 1000 {
		t.Fatalf("cancellation did not stop retries")
	}
}

func TestBackoffPropagatesHardErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Backoff{Attempts: 10, Delay: time.Millisecond}.Wait(context.Background(), func() (bool, error) {
		calls++
		return false, boom
	}, nil)
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected immediate boom, got %v after %d calls", err, calls)
	}
}

func TestLockerExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "schedule.lock")
	first := New(Options{Path: path, Attempts: 2, Delay: time.Millisecond})
	second := New(Options{Path: path, Attempts: 2, Delay: time.Millisecond})

	release, err := first.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first Acquire returned error: %v", err)
	}
	if _, err := second.Acquire(context.Background()); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout while held, got %v", err)
	}
	release()
	release()

	releaseSecond, err := second.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second Acquire after release returned error: %v", err)
	}
	releaseSecond()
}

func TestLockerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	locker := New(Options{Path: filepath.Join(t.TempDir(), "schedule.lock")})
	if _, err := locker.Acquire(ctx); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}
