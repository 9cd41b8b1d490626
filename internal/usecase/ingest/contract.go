package ingest

import (
	"context"

	"github.com/kailas-cloud/semsearch/internal/domain"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
)

// CandidateFetcher retrieves raw documents from the external source.
type CandidateFetcher interface {
	FetchCandidates(ctx context.Context) ([]domain.Candidate, error)
}

// DocumentWriter appends documents to the corpus.
type DocumentWriter interface {
	Insert(ctx context.Context, doc *domdoc.Document) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
