package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"webrag/internal/domain"
	"webrag/internal/generation"
)

func newClient(t *testing.T, url string, timeout time.Duration) *Client {
	t.Helper()
	t.Setenv("TEST_GEMINI_KEY", "k-123")
	c, err := NewClient(Config{Endpoint: url, APIKeyEnv: "TEST_GEMINI_KEY", Timeout: timeout})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestGenerateSendsPromptAndParameters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer k-123" {
			t.Errorf("Authorization = %q, want Bearer k-123", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["prompt"] != "Q?" || body["maxOutputTokens"] != float64(200) {
			t.Errorf("body = %v, want prompt Q? and maxOutputTokens 200", body)
		}
		if temp, _ := body["temperature"].(float64); temp < 0.69 || temp > 0.71 {
			t.Errorf("temperature = %v, want 0.7", body["temperature"])
		}
		_, _ = w.Write([]byte(`{"candidates":[{"output":"  Paris.  "}]}`))
	}))
	defer srv.Close()

	out, err := newClient(t, srv.URL, time.Second).Generate(context.Background(), generation.Request{
		Prompt: "Q?", Temperature: 0.7, MaxOutputTokens: 200,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "  Paris.  " {
		t.Fatalf("Generate = %q, want raw candidate output", out)
	}
}

func TestGenerateNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()
	out, err := newClient(t, srv.URL, time.Second).Generate(context.Background(), generation.Request{Prompt: "x"})
	if err != nil || out != "" {
		t.Fatalf("Generate = %q, %v; want empty, nil", out, err)
	}
}

func TestGenerateHTTPErrorIsGenerationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))
	defer srv.Close()
	_, err := newClient(t, srv.URL, time.Second).Generate(context.Background(), generation.Request{Prompt: "x"})
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("Generate error = %v, want ErrGeneration", err)
	}
}

func TestGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)
	_, err := newClient(t, srv.URL, 50*time.Millisecond).Generate(context.Background(), generation.Request{Prompt: "x"})
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("Generate error = %v, want ErrGeneration", err)
	}
}

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY_EMPTY", "")
	if _, err := NewClient(Config{APIKeyEnv: "TEST_GEMINI_KEY_EMPTY"}); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("NewClient error = %v, want ErrMissingCredential", err)
	}
}
