package memory

import (
	"context"
	"errors"
	"testing"

	"webrag/internal/domain"
)

func TestAppendAndGet(t *testing.T) {
	s := NewStore()
	for i, text := range []string{"a", "b"} {
		ord, err := s.Append(context.Background(), domain.Chunk{SourceID: "doc", Content: text})
		if err != nil || ord != i {
			t.Fatalf("Append(%q) = %d, %v; want %d, nil", text, ord, err, i)
		}
	}
	rec, err := s.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get(1) failed: %v", err)
	}
	if rec.Ordinal != 1 || rec.Chunk.Content != "b" || rec.Chunk.SourceID != "doc" {
		t.Fatalf("Get(1) = %+v, want ordinal 1 content b", rec)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
}

func TestGetOutOfRange(t *testing.T) {
	s := NewStore()
	_, _ = s.Append(context.Background(), domain.Chunk{Content: "a"})
	for _, ord := range []int{1, 7, -1} {
		_, err := s.Get(context.Background(), ord)
		var oor *domain.OutOfRangeError
		if !errors.As(err, &oor) || oor.Size != 1 {
			t.Fatalf("Get(%d) error = %v, want OutOfRangeError with size 1", ord, err)
		}
	}
}
