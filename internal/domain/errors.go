package domain

import "errors"

var (
	// ErrBadRequest signals a malformed or incomplete client request.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound signals a missing resource (including a cache miss).
	ErrNotFound = errors.New("not found")
	// ErrRateLimited signals a per-user request budget hit.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrStoreUnavailable signals an unreachable document or cache store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
