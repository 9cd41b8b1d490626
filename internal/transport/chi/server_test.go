package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semsearch/internal/db/memory"
	"github.com/kailas-cloud/semsearch/internal/domain"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
	"github.com/kailas-cloud/semsearch/internal/metrics"
	cacherepo "github.com/kailas-cloud/semsearch/internal/repository/cache"
	documentrepo "github.com/kailas-cloud/semsearch/internal/repository/document"
	usersrepo "github.com/kailas-cloud/semsearch/internal/repository/users"
	healthuc "github.com/kailas-cloud/semsearch/internal/usecase/health"
	ratelimituc "github.com/kailas-cloud/semsearch/internal/usecase/ratelimit"
	searchuc "github.com/kailas-cloud/semsearch/internal/usecase/search"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

const testDim = 2

// stubEmbedder maps known texts to fixed vectors.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	vec, ok := s.vectors[text]
	if !ok {
		vec = []float32{1, 0}
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: 1}, nil
}

type testEnv struct {
	server *httptest.Server
	docs   *documentrepo.Repo
}

// newTestEnv wires the full stack over the in-memory store: document and
// cache repositories, rate limiter, search and health services.
func newTestEnv(t *testing.T, embed *stubEmbedder, rateLimit int64) *testEnv {
	t.Helper()

	store := memory.NewStore()
	docs := documentrepo.New(store, testDim)
	cache := cacherepo.New(store)
	limiter := ratelimituc.New(usersrepo.New(store, 0), rateLimit)

	searchSvc := searchuc.New(docs, cache, limiter, embed, time.Hour, zap.NewNop())
	healthSvc := healthuc.New(store, nil, docs)

	r := chirouter.NewRouter()
	NewServer(searchSvc, healthSvc, zap.NewNop()).Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, docs: docs}
}

func (e *testEnv) insert(t *testing.T, title string, vec []float32) {
	t.Helper()
	doc, err := domdoc.New("id-"+title, title, "content of "+title, vec, testDim)
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	if err := e.docs.Insert(context.Background(), &doc); err != nil {
		t.Fatalf("insert document: %v", err)
	}
}

func (e *testEnv) postSearch(t *testing.T, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(e.server.URL+"/search", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post search: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func decodeSearch(t *testing.T, body []byte) searchResponse {
	t.Helper()
	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode response %q: %v", body, err)
	}
	return out
}

func TestSearch_EndToEndRanking(t *testing.T) {
	embed := &stubEmbedder{vectors: map[string][]float32{
		"graph databases": {1, 0},
	}}
	env := newTestEnv(t, embed, 100)

	env.insert(t, "far away", []float32{0, 1})
	env.insert(t, "exact match", []float32{1, 0})
	env.insert(t, "nearby", []float32{1, 0.3})

	resp, body := env.postSearch(t, `{"text": "graph databases", "user_id": "u1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	out := decodeSearch(t, body)
	if out.Source != searchuc.SourceLive {
		t.Errorf("expected source live, got %q", out.Source)
	}
	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d: %s", len(out.Results), body)
	}
	if out.Results[0].Title != "exact match" || out.Results[1].Title != "nearby" {
		t.Errorf("unexpected order: %+v", out.Results)
	}
	if out.Results[0].Similarity < out.Results[1].Similarity {
		t.Error("results not in descending similarity order")
	}
	if out.InferenceTime < 0 {
		t.Errorf("negative inference time: %v", out.InferenceTime)
	}
}

func TestSearch_SecondCallHitsCache(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{}, 100)
	env.insert(t, "doc", []float32{1, 0})

	_, body := env.postSearch(t, `{"text": "q", "user_id": "u1"}`)
	first := decodeSearch(t, body)
	if first.Source != searchuc.SourceLive {
		t.Fatalf("expected live first, got %q", first.Source)
	}

	_, body = env.postSearch(t, `{"text": "q", "user_id": "u1"}`)
	second := decodeSearch(t, body)
	if second.Source != searchuc.SourceCache {
		t.Fatalf("expected cache second, got %q", second.Source)
	}
	if len(second.Results) != len(first.Results) {
		t.Fatalf("cache returned different results: %+v vs %+v", second.Results, first.Results)
	}
	for i := range first.Results {
		if second.Results[i] != first.Results[i] {
			t.Fatalf("cached payload differs at %d: %+v vs %+v", i, second.Results[i], first.Results[i])
		}
	}

	// The cache is content-addressed, so another user shares the entry.
	_, body = env.postSearch(t, `{"text": "q", "user_id": "u2"}`)
	if decodeSearch(t, body).Source != searchuc.SourceCache {
		t.Error("expected cross-user cache hit")
	}
}

func TestSearch_MissingUserID(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{}, 100)

	resp, body := env.postSearch(t, `{"text": "q"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, body)
	}

	var out errorResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	if out.Error == "" {
		t.Error("expected an error message")
	}
}

func TestSearch_InvalidBody(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{}, 100)

	resp, _ := env.postSearch(t, `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSearch_RateLimit(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{}, 5)
	env.insert(t, "doc", []float32{1, 0})

	for i := 1; i <= 5; i++ {
		resp, body := env.postSearch(t, `{"text": "q", "user_id": "heavy"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d: %s", i, resp.StatusCode, body)
		}
	}

	resp, body := env.postSearch(t, `{"text": "q", "user_id": "heavy"}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", resp.StatusCode, body)
	}

	var out errorResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	if out.Error != domain.ErrRateLimited.Error() {
		t.Errorf("unexpected message: %q", out.Error)
	}

	// Other users are unaffected.
	resp, _ = env.postSearch(t, `{"text": "q", "user_id": "light"}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for another user, got %d", resp.StatusCode)
	}
}

func TestSearch_ExplicitZeroTopK(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{}, 100)
	env.insert(t, "doc", []float32{1, 0})

	resp, body := env.postSearch(t, `{"text": "q", "top_k": 0, "user_id": "u1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	out := decodeSearch(t, body)
	if len(out.Results) != 0 {
		t.Fatalf("expected no results with top_k=0, got %d", len(out.Results))
	}
	if out.Results == nil {
		t.Error("results must serialize as [], not null")
	}
}

func TestSearch_ThresholdDefaultApplied(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{}, 100)
	env.insert(t, "borderline", []float32{1, 1.8}) // similarity ~0.49 against (1,0)

	_, body := env.postSearch(t, `{"text": "q", "user_id": "u1"}`)
	if got := len(decodeSearch(t, body).Results); got != 0 {
		t.Fatalf("expected default threshold 0.5 to filter, got %d results", got)
	}

	_, body = env.postSearch(t, `{"text": "q", "threshold": 0.1, "user_id": "u1"}`)
	if got := len(decodeSearch(t, body).Results); got != 1 {
		t.Fatalf("expected explicit low threshold to match, got %d results", got)
	}
}

func TestSearch_InvalidParameters(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{}, 100)

	cases := []struct {
		name string
		body string
	}{
		{"negative top_k", `{"text": "q", "top_k": -1, "user_id": "u1"}`},
		{"threshold above 1", `{"text": "q", "threshold": 1.5, "user_id": "u1"}`},
		{"threshold below -1", `{"text": "q", "threshold": -1.5, "user_id": "u1"}`},
		{"top_k above max", fmt.Sprintf(`{"text": "q", "top_k": %d, "user_id": "u1"}`, 100000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := env.postSearch(t, tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.StatusCode, body)
			}
		})
	}
}

func TestSearch_EmbedderFailureIsGeneric500(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{err: errors.New("key leaked into logs")}, 100)

	resp, body := env.postSearch(t, `{"text": "q", "user_id": "u1"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", resp.StatusCode, body)
	}

	var out errorResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	if out.Error != "an unexpected error occurred" {
		t.Errorf("internal detail leaked to client: %q", out.Error)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{}, 100)
	env.insert(t, "doc", []float32{1, 0})

	resp, err := http.Get(env.server.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if out.Status != string(healthuc.Healthy) {
		t.Errorf("expected ok, got %q", out.Status)
	}
	if out.Checks["database"] != string(healthuc.CheckOK) {
		t.Errorf("expected database ok, got %q", out.Checks["database"])
	}
	if out.Documents != 1 {
		t.Errorf("expected 1 document, got %d", out.Documents)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{}, 100)

	resp, err := http.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
