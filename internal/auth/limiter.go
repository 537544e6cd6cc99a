package auth

import (
	"context"
	"errors"
	"time"

	"quickorder/internal/storage"
)

// attemptLimiter counts failed sign-ins per email inside a sliding window.
// The timestamps live in the shared store under authFailures:{email} and
// expire with the window, so every instance behind the same store sees the
// same count. Concurrent failures for one email may overwrite each other,
// which only undercounts by the racing attempts.
type attemptLimiter struct {
	store  storage.Store
	max    int
	window time.Duration
}

func newAttemptLimiter(store storage.Store, max int, window time.Duration) *attemptLimiter {
	return &attemptLimiter{store: store, max: max, window: window}
}

func (l *attemptLimiter) Blocked(ctx context.Context, email string, now time.Time) (bool, error) {
	recent, err := l.recent(ctx, email, now)
	if err != nil {
		return false, err
	}
	return len(recent) >= l.max, nil
}

func (l *attemptLimiter) Fail(ctx context.Context, email string, now time.Time) error {
	recent, err := l.recent(ctx, email, now)
	if err != nil {
		return err
	}
	return storage.SetJSONTTL(ctx, l.store, storage.AuthFailuresKey(email), append(recent, now.UTC()), l.window)
}

func (l *attemptLimiter) Reset(ctx context.Context, email string) error {
	return l.store.Delete(ctx, storage.AuthFailuresKey(email))
}

func (l *attemptLimiter) recent(ctx context.Context, email string, now time.Time) ([]time.Time, error) {
	var stamps []time.Time
	if _, err := storage.GetJSON(ctx, l.store, storage.AuthFailuresKey(email), &stamps); err != nil {
		var corrupted *storage.CorruptedError
		if !errors.As(err, &corrupted) {
			return nil, err
		}
	}

	kept := stamps[:0]
	for _, at := range stamps {
		if now.Sub(at) < l.window {
			kept = append(kept, at)
		}
	}
	return kept, nil
}
