package hackernews

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semsearch/internal/domain"
)

// Fetcher pulls front-page stories as ingestion candidates.
type Fetcher struct {
	client        *client
	maxCandidates int
	logger        *zap.Logger
}

// NewFetcher creates a Hacker News candidate fetcher. baseURL falls back to
// the public API when empty.
func NewFetcher(baseURL string, maxCandidates int, logger *zap.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		client:        newClient(baseURL),
		maxCandidates: maxCandidates,
		logger:        logger,
	}
}

// FetchCandidates returns up to maxCandidates front-page stories in rank
// order. Items that fail to load or carry no title are skipped; only a
// failure to list the front page itself is an error.
func (f *Fetcher) FetchCandidates(ctx context.Context) ([]domain.Candidate, error) {
	ids, err := f.client.topStories(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch top stories: %w", err)
	}

	candidates := make([]domain.Candidate, 0, f.maxCandidates)
	for _, id := range ids {
		if len(candidates) >= f.maxCandidates {
			break
		}
		if ctx.Err() != nil {
			return candidates, nil
		}

		it, err := f.client.getItem(ctx, id)
		if err != nil {
			f.logger.Warn("Failed to fetch story", zap.Int64("id", id), zap.Error(err))
			continue
		}
		if it.Dead || it.Type != "story" || it.Title == "" {
			continue
		}

		candidates = append(candidates, domain.Candidate{
			Title:   it.Title,
			Content: storyContent(it),
		})
	}

	return candidates, nil
}

// storyContent picks the text to embed. Self posts carry their own text;
// link posts fall back to the title.
func storyContent(it item) string {
	if it.Text != "" {
		return it.Text
	}
	return it.Title
}
