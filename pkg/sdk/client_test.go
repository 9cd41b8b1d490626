package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/semsearch/internal/domain"
)

func fakeServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-user")
}

func TestSearch(t *testing.T) {
	var gotBody map[string]any
	c := fakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{ //nolint:errcheck
			Results: []Result{{Title: "hit", Similarity: 0.92}},
			Source:  "live",
		})
	})

	resp, err := c.Search(context.Background(), "vector search", WithTopK(3), WithThreshold(0.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "hit" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Source != "live" {
		t.Errorf("expected live, got %q", resp.Source)
	}

	if gotBody["text"] != "vector search" {
		t.Errorf("unexpected text: %v", gotBody["text"])
	}
	if gotBody["user_id"] != "test-user" {
		t.Errorf("unexpected user_id: %v", gotBody["user_id"])
	}
	if gotBody["top_k"] != float64(3) {
		t.Errorf("unexpected top_k: %v", gotBody["top_k"])
	}
	if gotBody["threshold"] != 0.7 {
		t.Errorf("unexpected threshold: %v", gotBody["threshold"])
	}
}

func TestSearch_OmitsUnsetOptions(t *testing.T) {
	c := fakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
		if _, ok := body["top_k"]; ok {
			t.Error("top_k should be omitted when unset")
		}
		if _, ok := body["threshold"]; ok {
			t.Error("threshold should be omitted when unset")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{Results: []Result{}}) //nolint:errcheck
	})

	if _, err := c.Search(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearch_RateLimited(t *testing.T) {
	c := fakeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"}) //nolint:errcheck
	})

	_, err := c.Search(context.Background(), "q")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestSearch_BadRequest(t *testing.T) {
	c := fakeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "user_id is required"}) //nolint:errcheck
	})

	_, err := c.Search(context.Background(), "q")
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestSearch_ServerError(t *testing.T) {
	c := fakeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Search(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrBadRequest) || errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("500 must not map to a client sentinel: %v", err)
	}
}

func TestHealth(t *testing.T) {
	c := fakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(HealthStatus{ //nolint:errcheck
			Status:    "ok",
			Checks:    map[string]string{"database": "ok"},
			Documents: 12,
		})
	})

	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Status != "ok" || status.Documents != 12 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestHealth_DegradedIsNotAnError(t *testing.T) {
	c := fakeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(HealthStatus{ //nolint:errcheck
			Status: "degraded",
			Checks: map[string]string{"database": "error"},
		})
	})

	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Status != "degraded" {
		t.Fatalf("unexpected status: %+v", status)
	}
}
