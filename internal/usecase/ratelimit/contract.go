package ratelimit

import "context"

// Counters is the storage contract for per-user request counters.
type Counters interface {
	IncrementAndGet(ctx context.Context, userID string) (int64, error)
}
