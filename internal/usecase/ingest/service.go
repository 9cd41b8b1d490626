package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
	"github.com/kailas-cloud/semsearch/internal/metrics"
)

// Service periodically pulls candidates from the source, embeds them, and
// appends them to the corpus.
//
// Failures are isolated per candidate: a bad embed or insert is logged and
// counted, and the cycle moves on. Only context cancellation stops the loop.
type Service struct {
	fetcher   CandidateFetcher
	docs      DocumentWriter
	embed     Embedder
	vectorDim int
	interval  time.Duration
	logger    *zap.Logger
}

// New creates an ingestion service.
func New(
	fetcher CandidateFetcher,
	docs DocumentWriter,
	embed Embedder,
	vectorDim int,
	interval time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		fetcher:   fetcher,
		docs:      docs,
		embed:     embed,
		vectorDim: vectorDim,
		interval:  interval,
		logger:    logger,
	}
}

// Run executes ingestion cycles until ctx is cancelled. The interval is
// measured between cycles, not as a fixed cadence.
func (s *Service) Run(ctx context.Context) {
	timer := time.NewTimer(0) // first cycle runs immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Ingestion loop stopped")
			return
		case <-timer.C:
		}

		stored := s.RunCycle(ctx)
		s.logger.Info("Ingestion cycle finished", zap.Int("stored", stored))

		timer.Reset(s.interval)
	}
}

// RunCycle fetches, embeds, and stores one batch of candidates. It returns
// the number of documents stored.
func (s *Service) RunCycle(ctx context.Context) int {
	started := time.Now()
	defer func() {
		metrics.IngestCycleDuration.Observe(time.Since(started).Seconds())
	}()

	candidates, err := s.fetcher.FetchCandidates(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch candidates", zap.Error(err))
		return 0
	}

	var stored int
	for _, c := range candidates {
		if ctx.Err() != nil {
			return stored
		}

		embResult, err := s.embed.Embed(ctx, c.Content)
		if err != nil {
			metrics.IngestDocumentsTotal.WithLabelValues("embed_failed").Inc()
			s.logger.Warn("Failed to embed candidate",
				zap.String("title", c.Title), zap.Error(err))
			continue
		}

		doc, err := domdoc.New(uuid.NewString(), c.Title, c.Content, embResult.Embedding, s.vectorDim)
		if err != nil {
			metrics.IngestDocumentsTotal.WithLabelValues("embed_failed").Inc()
			s.logger.Warn("Discarding invalid candidate",
				zap.String("title", c.Title), zap.Error(err))
			continue
		}

		if err := s.docs.Insert(ctx, &doc); err != nil {
			metrics.IngestDocumentsTotal.WithLabelValues("insert_failed").Inc()
			s.logger.Warn("Failed to store candidate",
				zap.String("title", c.Title), zap.Error(err))
			continue
		}

		metrics.IngestDocumentsTotal.WithLabelValues("stored").Inc()
		stored++
	}

	return stored
}
