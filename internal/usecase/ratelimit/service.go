package ratelimit

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/semsearch/internal/domain"
	"github.com/kailas-cloud/semsearch/internal/metrics"
)

// Service enforces a per-user request quota.
//
// Every call increments the user's counter, including calls that end up
// rejected. With a zero window the counter is cumulative over the user's
// lifetime, so once a user crosses the threshold they stay rejected.
type Service struct {
	counters  Counters
	threshold int64
}

// New creates a rate limiter with the given threshold.
func New(counters Counters, threshold int64) *Service {
	return &Service{counters: counters, threshold: threshold}
}

// Allow records one request for the user and returns the resulting count.
// It returns domain.ErrRateLimited when the count exceeds the threshold.
func (s *Service) Allow(ctx context.Context, userID string) (int64, error) {
	count, err := s.counters.IncrementAndGet(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("increment user counter: %w", err)
	}

	if count > s.threshold {
		metrics.SearchRateLimitedTotal.Inc()
		return count, domain.ErrRateLimited
	}
	return count, nil
}
