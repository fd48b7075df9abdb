package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"webrag/internal/domain"
)

func TestAppendAndGet(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	chunks := []domain.Chunk{
		{SourceID: "https://a.example", Content: "Paris is the capital of France."},
		{SourceID: "https://a.example", Content: "The Eiffel Tower is in Paris."},
	}
	for i, c := range chunks {
		ord, err := s.Append(context.Background(), c)
		if err != nil || ord != i {
			t.Fatalf("Append #%d = %d, %v; want %d, nil", i, ord, err, i)
		}
	}
	rec, err := s.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get(1) failed: %v", err)
	}
	if rec.Chunk != chunks[1] || rec.Ordinal != 1 {
		t.Fatalf("Get(1) = %+v, want %+v at ordinal 1", rec, chunks[1])
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if _, err := s.Get(context.Background(), 2); !errors.Is(err, domain.ErrOutOfRange) {
		t.Fatalf("Get(2) error = %v, want ErrOutOfRange", err)
	}
}

func TestOpenStartsEmpty(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "data", "meta.db")
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", dsn, err)
	}
	_, _ = s.Append(context.Background(), domain.Chunk{SourceID: "x", Content: "y"})
	_ = s.Close()

	s, err = Open(dsn)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if s.Len() != 0 {
		t.Fatalf("Len() after reopen = %d, want 0", s.Len())
	}
	if _, err := s.Get(context.Background(), 0); !errors.Is(err, domain.ErrOutOfRange) {
		t.Fatalf("Get(0) after reopen error = %v, want ErrOutOfRange", err)
	}
}
