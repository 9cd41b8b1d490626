package search

import (
	"context"
	"iter"
	"time"

	"github.com/kailas-cloud/semsearch/internal/domain"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
	"github.com/kailas-cloud/semsearch/internal/domain/search/result"
)

// DocumentScanner streams the full document corpus for ranking.
type DocumentScanner interface {
	Scan(ctx context.Context) iter.Seq2[domdoc.Document, error]
}

// ResultCache stores ranked results keyed by query parameters.
type ResultCache interface {
	Get(ctx context.Context, text string, topK int, threshold float64) ([]result.Result, error)
	Set(
		ctx context.Context, text string, topK int, threshold float64,
		results []result.Result, ttl time.Duration,
	) error
}

// RateLimiter records a request for the user and rejects over-budget ones.
type RateLimiter interface {
	Allow(ctx context.Context, userID string) (int64, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
