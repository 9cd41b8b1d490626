package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semsearch/internal/domain"
	"github.com/kailas-cloud/semsearch/internal/domain/search/request"
	"github.com/kailas-cloud/semsearch/internal/domain/search/result"
	"github.com/kailas-cloud/semsearch/internal/metrics"
)

// Result sources reported to clients.
const (
	SourceCache = "cache"
	SourceLive  = "live"
)

// Response is the outcome of one search request.
type Response struct {
	Results       []result.Result
	Source        string
	InferenceTime float64 // seconds
}

// Service ranks the document corpus against a query by cosine similarity.
//
// Ranking is a brute-force scan over every stored document. The cache in
// front of it is content-addressed, so identical queries from different
// users share one entry.
type Service struct {
	docs     DocumentScanner
	cache    ResultCache
	limiter  RateLimiter
	embed    Embedder
	cacheTTL time.Duration
	logger   *zap.Logger
}

// New creates a search service.
func New(
	docs DocumentScanner,
	cache ResultCache,
	limiter RateLimiter,
	embed Embedder,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		docs:     docs,
		cache:    cache,
		limiter:  limiter,
		embed:    embed,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Search executes one rate-limited, cached similarity search.
// The rate limiter runs before anything else, so rejected requests are
// counted but never touch the cache, the embedder, or the corpus.
func (s *Service) Search(ctx context.Context, req *request.Request) (Response, error) {
	started := time.Now()

	if _, err := s.limiter.Allow(ctx, req.UserID()); err != nil {
		return Response{}, fmt.Errorf("allow user %s: %w", req.UserID(), err)
	}

	if results, ok := s.getCached(ctx, req); ok {
		metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
		return Response{
			Results:       results,
			Source:        SourceCache,
			InferenceTime: time.Since(started).Seconds(),
		}, nil
	}
	metrics.SearchCacheTotal.WithLabelValues("miss").Inc()

	embResult, err := s.embed.Embed(ctx, req.Text())
	if err != nil {
		return Response{}, fmt.Errorf("%w: vectorize query: %w", domain.ErrEmbeddingProviderError, err)
	}

	results, err := s.rank(ctx, embResult.Embedding, req)
	if err != nil {
		return Response{}, err
	}

	s.putCached(ctx, req, results)

	return Response{
		Results:       results,
		Source:        SourceLive,
		InferenceTime: time.Since(started).Seconds(),
	}, nil
}

// rank scans the corpus and returns the top-k documents at or above the
// threshold, ordered by descending similarity. Ties keep insertion order.
func (s *Service) rank(
	ctx context.Context, queryVec []float32, req *request.Request,
) ([]result.Result, error) {
	scanStarted := time.Now()

	var matched []result.Result
	for doc, err := range s.docs.Scan(ctx) {
		if err != nil {
			return nil, fmt.Errorf("scan documents: %w", err)
		}

		sim, err := domain.CosineSimilarity(queryVec, doc.Vector())
		if err != nil {
			return nil, fmt.Errorf("score document %s: %w", doc.ID(), err)
		}
		if sim >= req.Threshold() {
			matched = append(matched, result.New(doc.Title(), sim))
		}
	}

	metrics.SearchScanDuration.Observe(time.Since(scanStarted).Seconds())

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Similarity() > matched[j].Similarity()
	})

	if len(matched) > req.TopK() {
		matched = matched[:req.TopK()]
	}
	if matched == nil {
		matched = []result.Result{}
	}
	return matched, nil
}

func (s *Service) getCached(ctx context.Context, req *request.Request) ([]result.Result, bool) {
	results, err := s.cache.Get(ctx, req.Text(), req.TopK(), req.Threshold())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("Failed to read result cache", zap.Error(err))
		}
		return nil, false
	}
	return results, true
}

func (s *Service) putCached(ctx context.Context, req *request.Request, results []result.Result) {
	if err := s.cache.Set(ctx, req.Text(), req.TopK(), req.Threshold(), results, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to write result cache", zap.Error(err))
	}
}
