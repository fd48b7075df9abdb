package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"webrag/internal/chunker"
	"webrag/internal/domain"
	mdmemory "webrag/internal/metadata/memory"
	"webrag/internal/state"
	ixmemory "webrag/internal/vectorindex/memory"
)

// fakeEmbedder maps text to a 2-d vector and fails on texts containing "FAIL".
type fakeEmbedder struct {
	dim int
}

func (f fakeEmbedder) Name() string   { return "fake" }
func (f fakeEmbedder) Dimension() int { return 2 }

func (f fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.Contains(text, "FAIL") {
		return nil, &domain.EmbeddingError{Text: text, Err: errors.New("model error")}
	}
	dim := f.dim
	if dim == 0 {
		dim = 2
	}
	v := make([]float32, dim)
	v[0] = float32(len(text))
	return v, nil
}

// failingStore rejects every append.
type failingStore struct{ mdmemory.Store }

func (*failingStore) Append(context.Context, domain.Chunk) (int, error) {
	return -1, errors.New("disk full")
}

func newState(t *testing.T) *state.State {
	t.Helper()
	ix, _ := ixmemory.NewIndex(2)
	st, err := state.New(ix, mdmemory.NewStore())
	if err != nil {
		t.Fatalf("state.New failed: %v", err)
	}
	return st
}

func TestIngestSkipsFailedChunksAndStaysAligned(t *testing.T) {
	st := newState(t)
	p := NewPipeline(fakeEmbedder{}, st, nil)
	chunks := []string{"alpha", "FAIL one", "beta", "FAIL two", "gamma"}
	report, err := p.Ingest(context.Background(), "doc1", chunks)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if report.Total != 5 || report.Ingested != 3 || len(report.Failed) != 2 {
		t.Fatalf("report = %+v, want total 5 ingested 3 failed 2", report)
	}
	if report.Failed[0].Position != 1 || report.Failed[1].Position != 3 {
		t.Fatalf("failed positions = %d,%d; want 1,3", report.Failed[0].Position, report.Failed[1].Position)
	}
	if !errors.Is(report.Failed[0].Err, domain.ErrEmbedding) {
		t.Fatalf("failure error = %v, want ErrEmbedding", report.Failed[0].Err)
	}
	if st.Index.Count() != st.Metadata.Len() || st.Metadata.Len() != 3 {
		t.Fatalf("index=%d metadata=%d, want 3 and 3", st.Index.Count(), st.Metadata.Len())
	}
	for i, want := range []string{"alpha", "beta", "gamma"} {
		rec, err := st.Metadata.Get(context.Background(), i)
		if err != nil || rec.Chunk.Content != want || rec.Chunk.SourceID != "doc1" {
			t.Fatalf("record %d = %+v, %v; want %q from doc1", i, rec, err, want)
		}
	}
}

func TestIngestAllChunksFail(t *testing.T) {
	st := newState(t)
	p := NewPipeline(fakeEmbedder{}, st, nil)
	report, err := p.Ingest(context.Background(), "doc", []string{"FAIL a", "FAIL b"})
	if err != nil {
		t.Fatalf("Ingest error = %v, want nil", err)
	}
	if report.Ingested != 0 || !st.Aligned() || st.Index.Count() != 0 {
		t.Fatalf("report = %+v, count = %d; want nothing ingested", report, st.Index.Count())
	}
}

func TestIngestDimensionMismatchAborts(t *testing.T) {
	st := newState(t)
	p := NewPipeline(fakeEmbedder{dim: 3}, st, nil)
	_, err := p.Ingest(context.Background(), "doc", []string{"a", "b"})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("Ingest error = %v, want ErrDimensionMismatch", err)
	}
	if st.Index.Count() != 0 || !st.Aligned() {
		t.Fatalf("index count = %d, want 0 and aligned", st.Index.Count())
	}
}

func TestIngestMetadataFailureIsMisalignment(t *testing.T) {
	ix, _ := ixmemory.NewIndex(2)
	st, _ := state.New(ix, &failingStore{})
	p := NewPipeline(fakeEmbedder{}, st, nil)
	_, err := p.Ingest(context.Background(), "doc", []string{"a"})
	if !errors.Is(err, domain.ErrMisaligned) {
		t.Fatalf("Ingest error = %v, want ErrMisaligned", err)
	}
}

func TestIngestAfterSealFails(t *testing.T) {
	st := newState(t)
	st.Seal()
	p := NewPipeline(fakeEmbedder{}, st, nil)
	if _, err := p.Ingest(context.Background(), "doc", []string{"a"}); !errors.Is(err, domain.ErrSealed) {
		t.Fatalf("Ingest error = %v, want ErrSealed", err)
	}
}

func TestIngestDocumentAppliesSplitter(t *testing.T) {
	st := newState(t)
	p := NewPipeline(fakeEmbedder{}, st, chunker.NewSentenceChunker(1, 0))
	report, err := p.IngestDocument(context.Background(), domain.Document{
		SourceID: "https://example.com",
		Chunks:   []string{"One. Two.", "Three."},
	})
	if err != nil {
		t.Fatalf("IngestDocument failed: %v", err)
	}
	if report.Total != 3 || st.Metadata.Len() != 3 {
		t.Fatalf("report.Total = %d, metadata = %d; want 3, 3", report.Total, st.Metadata.Len())
	}
}
