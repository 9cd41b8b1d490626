// Package request holds the validated search request value object.
package request

import (
	"fmt"

	"github.com/kailas-cloud/semsearch/internal/domain"
)

const (
	// DefaultTopK is used when the caller omits top_k.
	DefaultTopK = 5
	// DefaultThreshold is used when the caller omits threshold.
	DefaultThreshold = 0.5
	// MaxTopK bounds the result window.
	MaxTopK = 1000
)

// Request is a validated search request.
// top_k=0 is legal and yields an empty result set.
type Request struct {
	text      string
	topK      int
	threshold float64
	userID    string
}

// New validates and creates a Request. A missing user_id is a client error;
// every other request with the same text/topK/threshold is equivalent for
// caching purposes regardless of user.
func New(text string, topK int, threshold float64, userID string) (Request, error) {
	if userID == "" {
		return Request{}, fmt.Errorf("%w: user_id is required", domain.ErrBadRequest)
	}
	if topK < 0 || topK > MaxTopK {
		return Request{}, fmt.Errorf("%w: top_k must be between 0 and %d", domain.ErrBadRequest, MaxTopK)
	}
	if threshold < -1 || threshold > 1 {
		return Request{}, fmt.Errorf("%w: threshold must be between -1 and 1", domain.ErrBadRequest)
	}
	return Request{text: text, topK: topK, threshold: threshold, userID: userID}, nil
}

// Text returns the raw query text.
func (r *Request) Text() string { return r.text }

// TopK returns the maximum number of results to return.
func (r *Request) TopK() int { return r.topK }

// Threshold returns the minimum similarity a result must reach.
func (r *Request) Threshold() float64 { return r.threshold }

// UserID returns the requesting user's identifier.
func (r *Request) UserID() string { return r.userID }
