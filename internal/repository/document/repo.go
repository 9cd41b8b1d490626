// Package document implements the append-only document store.
package document

import (
	"context"
	"fmt"
	"iter"

	"github.com/kailas-cloud/semsearch/internal/domain"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
)

const defaultScanBatch = 64

var (
	docKeyPrefix = domain.KeyPrefix + "doc:"
	indexKey     = domain.KeyPrefix + "docs"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	RPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LLen(ctx context.Context, key string) (int64, error)
}

// Repo implements the document store on top of db hashes and an id list.
//
// Insert writes the full document hash before pushing its id onto the index
// list, and scans discover documents only through the list. A scan racing an
// insert therefore either sees the whole document or none of it.
type Repo struct {
	store     store
	vectorDim int
	scanBatch int
}

// New creates a document repository. vectorDim is the process-wide embedding
// dimension every stored document must carry.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim, scanBatch: defaultScanBatch}
}

// WithScanBatch overrides the number of documents fetched per scan round-trip.
func (r *Repo) WithScanBatch(n int) *Repo {
	if n > 0 {
		r.scanBatch = n
	}
	return r
}

// Insert appends a new document. Ids are assigned by the caller and never
// reused, so an insert never overwrites.
func (r *Repo) Insert(ctx context.Context, doc *domdoc.Document) error {
	key := docKeyPrefix + doc.ID()
	if err := r.store.HSet(ctx, key, buildHashFields(doc)); err != nil {
		return fmt.Errorf("%w: hset %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	// The id becomes visible to scans only after the hash is complete.
	if err := r.store.RPush(ctx, indexKey, doc.ID()); err != nil {
		return fmt.Errorf("%w: rpush %s: %w", domain.ErrStoreUnavailable, doc.ID(), err)
	}
	return nil
}

// Count returns the number of stored documents.
func (r *Repo) Count(ctx context.Context) (int64, error) {
	n, err := r.store.LLen(ctx, indexKey)
	if err != nil {
		return 0, fmt.Errorf("%w: llen: %w", domain.ErrStoreUnavailable, err)
	}
	return n, nil
}

// Scan yields every stored document lazily, in insertion order, fetching
// scanBatch documents per round-trip. The sequence is restartable: each range
// starts a fresh scan. Inserts racing the scan may or may not be observed;
// yielded documents are always complete. A stored vector of the wrong
// dimension yields ErrVectorDimMismatch.
func (r *Repo) Scan(ctx context.Context) iter.Seq2[domdoc.Document, error] {
	return func(yield func(domdoc.Document, error) bool) {
		// Bound the scan to the length observed at the start so a single
		// pass terminates even under a steady stream of inserts.
		total, err := r.store.LLen(ctx, indexKey)
		if err != nil {
			yield(domdoc.Document{}, fmt.Errorf("%w: llen: %w", domain.ErrStoreUnavailable, err))
			return
		}

		for offset := int64(0); offset < total; offset += int64(r.scanBatch) {
			stop := offset + int64(r.scanBatch) - 1
			if stop >= total {
				stop = total - 1
			}

			ids, err := r.store.LRange(ctx, indexKey, offset, stop)
			if err != nil {
				yield(domdoc.Document{}, fmt.Errorf("%w: lrange: %w", domain.ErrStoreUnavailable, err))
				return
			}

			keys := make([]string, len(ids))
			for i, id := range ids {
				keys[i] = docKeyPrefix + id
			}

			hashes, err := r.store.HGetAllMulti(ctx, keys)
			if err != nil {
				yield(domdoc.Document{}, fmt.Errorf("%w: hgetall: %w", domain.ErrStoreUnavailable, err))
				return
			}

			for i, fields := range hashes {
				doc, err := parseHashFields(ids[i], fields, r.vectorDim)
				if !yield(doc, err) {
					return
				}
			}
		}
	}
}
