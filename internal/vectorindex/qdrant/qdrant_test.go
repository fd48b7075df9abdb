package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"webrag/internal/domain"
)

// fakeQdrant records upserted points and answers searches with fixed scores.
type fakeQdrant struct {
	mu      sync.Mutex
	created bool
	points  map[int][]float32
	scores  []map[string]any
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Header.Get("api-key") != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch {
	case r.Method == http.MethodDelete && r.URL.Path == "/collections/docs":
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
		f.created = true
		_, _ = w.Write([]byte(`{"result":true}`))
	case r.Method == http.MethodPut && r.URL.Path == "/collections/docs/points":
		var body struct {
			Points []struct {
				ID     int       `json:"id"`
				Vector []float32 `json:"vector"`
			} `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Points {
			f.points[p.ID] = p.Vector
		}
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/search":
		_ = json.NewEncoder(w).Encode(map[string]any{"result": f.scores})
	default:
		http.NotFound(w, r)
	}
}

func newTestIndex(t *testing.T, f *fakeQdrant) *Index {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	x, err := NewIndex(context.Background(), Config{URL: srv.URL + "/", APIKey: "secret", Collection: "docs"}, 2)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	return x
}

func TestNewIndexCreatesCollection(t *testing.T) {
	f := &fakeQdrant{points: map[int][]float32{}}
	newTestIndex(t, f)
	if !f.created {
		t.Fatalf("collection was not created")
	}
}

func TestInsertAssignsOrdinals(t *testing.T) {
	f := &fakeQdrant{points: map[int][]float32{}}
	x := newTestIndex(t, f)
	for want := 0; want < 3; want++ {
		got, err := x.Insert(context.Background(), []float32{float32(want), 0})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if got != want {
			t.Fatalf("Insert ordinal = %d, want %d", got, want)
		}
	}
	if x.Count() != 3 || len(f.points) != 3 {
		t.Fatalf("Count() = %d, stored = %d; want 3, 3", x.Count(), len(f.points))
	}
	if _, err := x.Insert(context.Background(), []float32{1}); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("Insert wrong dim error = %v, want ErrDimensionMismatch", err)
	}
}

func TestSearchBreaksTiesByOrdinal(t *testing.T) {
	f := &fakeQdrant{points: map[int][]float32{}}
	x := newTestIndex(t, f)
	for i := 0; i < 3; i++ {
		_, _ = x.Insert(context.Background(), []float32{1, 1})
	}
	f.scores = []map[string]any{
		{"id": 2, "score": 1.0},
		{"id": 0, "score": 1.0},
		{"id": 1, "score": 0.5},
	}
	hits, err := x.Search(context.Background(), []float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 || hits[0].Ordinal != 1 || hits[1].Ordinal != 0 {
		t.Fatalf("Search = %+v, want ordinals [1 0]", hits)
	}
	if hits[0].Distance != 0.25 {
		t.Fatalf("hits[0].Distance = %v, want 0.25", hits[0].Distance)
	}
}

func TestSearchEmptyAndNonPositiveK(t *testing.T) {
	f := &fakeQdrant{points: map[int][]float32{}}
	x := newTestIndex(t, f)
	if hits, err := x.Search(context.Background(), []float32{0, 0}, 3); err != nil || len(hits) != 0 {
		t.Fatalf("Search on empty = %v, %v; want empty", hits, err)
	}
	_, _ = x.Insert(context.Background(), []float32{1, 1})
	if hits, _ := x.Search(context.Background(), []float32{0, 0}, 0); len(hits) != 0 {
		t.Fatalf("Search k=0 = %v, want empty", hits)
	}
}
