package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"webrag/internal/domain"
)

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newFakeServer(t *testing.T, failures *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", got)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if len(req.Input) == 1 && req.Input[0] == "flaky" && atomic.AddInt32(failures, -1) >= 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy","type":"server_error"}}`))
			return
		}
		if len(req.Input) == 1 && req.Input[0] == "broken" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"bad input","type":"invalid_request_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"object":"list","model":"test","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}]}`))
	}))
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	t.Setenv("TEST_EMBED_KEY", "test-key")
	c, err := NewClient(context.Background(), Config{
		BaseURL:    srv.URL + "/v1",
		APIKeyEnv:  "TEST_EMBED_KEY",
		Model:      "test",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	c.sleep = func(time.Duration) {}
	return c
}

func TestNewClientProbesDimension(t *testing.T) {
	var failures int32
	srv := newFakeServer(t, &failures)
	defer srv.Close()
	c := newTestClient(t, srv)
	if c.Dimension() != 3 {
		t.Fatalf("Dimension() = %d, want 3", c.Dimension())
	}
	v, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(v) != 3 || v[1] != 0.2 {
		t.Fatalf("Embed = %v, want [0.1 0.2 0.3]", v)
	}
}

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY_MISSING", "")
	_, err := NewClient(context.Background(), Config{APIKeyEnv: "TEST_EMBED_KEY_MISSING"})
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("NewClient error = %v, want ErrMissingCredential", err)
	}
}

func TestEmbedRetriesServerErrors(t *testing.T) {
	failures := int32(2)
	srv := newFakeServer(t, &failures)
	defer srv.Close()
	c := newTestClient(t, srv)
	if _, err := c.Embed(context.Background(), "flaky"); err != nil {
		t.Fatalf("Embed(flaky) failed after retries: %v", err)
	}
}

func TestEmbedClientErrorIsEmbeddingError(t *testing.T) {
	var failures int32
	srv := newFakeServer(t, &failures)
	defer srv.Close()
	c := newTestClient(t, srv)
	_, err := c.Embed(context.Background(), "broken")
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("Embed(broken) error = %v, want ErrEmbedding", err)
	}
}

func TestEmbedBlankTextSkipsRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv)
	v, err := c.Embed(context.Background(), "  ")
	if err != nil || len(v) != 2 {
		t.Fatalf("Embed(blank) = %v, %v; want zero vector of len 2", v, err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("requests = %d, want 1 (probe only)", n)
	}
}
