// Package cache implements the shared query-result cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/semsearch/internal/db"
	"github.com/kailas-cloud/semsearch/internal/domain"
	"github.com/kailas-cloud/semsearch/internal/domain/search/result"
)

var cacheKeyPrefix = domain.KeyPrefix + "result_cache:"

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo caches ranked result sets keyed by (text, top_k, threshold).
// The key deliberately excludes the user: identical queries share one entry.
type Repo struct {
	store store
}

// New creates a result cache repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// resultDTO is the serialized cache shape of a single result.
type resultDTO struct {
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// Get returns the cached results for a query, or domain.ErrNotFound on a miss.
// Expired entries behave as misses.
func (r *Repo) Get(ctx context.Context, text string, topK int, threshold float64) ([]result.Result, error) {
	data, err := r.store.Get(ctx, cacheKey(text, topK, threshold))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: cache get: %w", domain.ErrStoreUnavailable, err)
	}

	var dtos []resultDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		// A corrupt entry is treated as a miss; the next Set overwrites it.
		return nil, domain.ErrNotFound
	}

	results := make([]result.Result, len(dtos))
	for i, d := range dtos {
		results[i] = result.New(d.Title, d.Similarity)
	}
	return results, nil
}

// Set overwrites the cached results for a query with the given TTL.
func (r *Repo) Set(
	ctx context.Context, text string, topK int, threshold float64,
	results []result.Result, ttl time.Duration,
) error {
	dtos := make([]resultDTO, len(results))
	for i := range results {
		dtos[i] = resultDTO{Title: results[i].Title(), Similarity: results[i].Similarity()}
	}

	data, err := json.Marshal(dtos)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	if err := r.store.SetWithTTL(ctx, cacheKey(text, topK, threshold), data, ttl); err != nil {
		return fmt.Errorf("%w: cache set: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// cacheKey builds the deterministic content-addressed key. Threshold uses the
// shortest exact decimal form so 0.5 and 0.50 collapse to the same entry.
func cacheKey(text string, topK int, threshold float64) string {
	raw := text + "|" + strconv.Itoa(topK) + "|" + strconv.FormatFloat(threshold, 'g', -1, 64)
	h := sha256.Sum256([]byte(raw))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}
