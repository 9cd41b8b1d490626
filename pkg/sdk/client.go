// Package sdk is a Go client for the semsearch HTTP API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/semsearch/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client is the semsearch SDK entry point.
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL. userID identifies the
// caller for rate limiting.
func New(baseURL, userID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userID:     userID,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchOption adjusts a single search call.
type SearchOption func(*searchRequest)

// WithTopK sets the maximum number of results.
func WithTopK(k int) SearchOption {
	return func(r *searchRequest) { r.TopK = &k }
}

// WithThreshold sets the minimum similarity for a match.
func WithThreshold(t float64) SearchOption {
	return func(r *searchRequest) { r.Threshold = &t }
}

type searchRequest struct {
	Text      string   `json:"text"`
	TopK      *int     `json:"top_k,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	UserID    string   `json:"user_id"`
}

// Result is one ranked document.
type Result struct {
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// SearchResponse is the outcome of one search call.
type SearchResponse struct {
	Results       []Result `json:"results"`
	Source        string   `json:"source"` // "cache" or "live"
	InferenceTime float64  `json:"inference_time"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Search runs a similarity query. Server-side rejections map onto the
// domain sentinels, so errors.Is(err, domain.ErrRateLimited) works.
func (c *Client) Search(ctx context.Context, text string, opts ...SearchOption) (SearchResponse, error) {
	req := searchRequest{Text: text, UserID: c.userID}
	for _, o := range opts {
		o(&req)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("semsearch: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return SearchResponse{}, fmt.Errorf("semsearch: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("semsearch: search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SearchResponse{}, c.apiError(resp)
	}

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return SearchResponse{}, fmt.Errorf("semsearch: decode response: %w", err)
	}
	return out, nil
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status    string            `json:"status"` // "ok" or "degraded"
	Checks    map[string]string `json:"checks"`
	Documents int64             `json:"documents"`
}

// Health checks the health of all server components. A degraded server
// still returns a status, not an error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("semsearch: build request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("semsearch: health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return HealthStatus{}, c.apiError(resp)
	}

	var out HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return HealthStatus{}, fmt.Errorf("semsearch: decode response: %w", err)
	}
	return out, nil
}

// apiError converts a non-2xx response into a sentinel-wrapped error.
func (c *Client) apiError(resp *http.Response) error {
	var body errorResponse
	msg := "unknown error"
	if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error != "" {
		msg = body.Error
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("semsearch: %s: %w", msg, domain.ErrBadRequest)
	case http.StatusTooManyRequests:
		return fmt.Errorf("semsearch: %s: %w", msg, domain.ErrRateLimited)
	default:
		return fmt.Errorf("semsearch: server error %d: %s", resp.StatusCode, msg)
	}
}
