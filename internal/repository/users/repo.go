// Package users implements the per-user request counter registry.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/semsearch/internal/domain"
)

var userKeyPrefix = domain.KeyPrefix + "user:"

// store is the consumer interface for user counters (ISP).
type store interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repo tracks a monotonically increasing request counter per user.
// The counter is created on first increment and, with window 0, never expires.
type Repo struct {
	store  store
	window time.Duration
}

// New creates a user registry. window 0 disables counter expiry entirely.
func New(s store, window time.Duration) *Repo {
	return &Repo{store: s, window: window}
}

// IncrementAndGet atomically bumps the user's counter and returns the
// post-increment value. INCR upserts the key, so two concurrent calls can
// never observe the same value.
func (r *Repo) IncrementAndGet(ctx context.Context, userID string) (int64, error) {
	key := userKeyPrefix + userID

	count, err := r.store.Incr(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("%w: incr %s: %w", domain.ErrStoreUnavailable, key, err)
	}

	if r.window > 0 {
		// NX keeps the window anchored at the user's first request.
		if err := r.store.Expire(ctx, key, r.window, true); err != nil {
			return 0, fmt.Errorf("%w: expire %s: %w", domain.ErrStoreUnavailable, key, err)
		}
	}

	return count, nil
}
