package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"

	"webrag/internal/chunker"
	"webrag/internal/domain"
	"webrag/internal/embedding"
	"webrag/internal/state"
)

// ChunkFailure records a chunk that could not be ingested.
type ChunkFailure struct {
	Position int
	Text     string
	Err      error
}

// Report summarises one Ingest call.
type Report struct {
	SourceID string
	Total    int
	Ingested int
	Failed   []ChunkFailure
}

// Pipeline embeds chunks and writes them to the retrieval state.
// It is the only writer of the state and must finish before the state is sealed.
type Pipeline struct {
	embedder embedding.Embedder
	state    *state.State
	splitter chunker.Splitter
}

// NewPipeline creates a pipeline. splitter may be nil, in which case
// documents are ingested one chunk per extracted block.
func NewPipeline(embedder embedding.Embedder, st *state.State, splitter chunker.Splitter) *Pipeline {
	return &Pipeline{embedder: embedder, state: st, splitter: splitter}
}

// Ingest embeds each chunk independently. A chunk that fails to embed is
// logged and skipped; the rest of the batch continues. For every chunk that
// embeds, the vector is inserted into the index and then its record is
// appended to the metadata store, so the two stay aligned after every step.
//
// An error is returned only for conditions that break that alignment or
// indicate a bug: a sealed state, a dimension mismatch, a metadata write
// failure, or a cancelled context.
func (p *Pipeline) Ingest(ctx context.Context, sourceID string, chunks []string) (Report, error) {
	report := Report{SourceID: sourceID, Total: len(chunks)}
	if p.state.Sealed() {
		return report, domain.ErrSealed
	}
	for i, text := range chunks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		vec, err := p.embedder.Embed(ctx, text)
		if err == nil {
			err = p.insert(ctx, sourceID, text, vec)
		}
		if err == nil {
			report.Ingested++
			continue
		}
		if errors.Is(err, domain.ErrDimensionMismatch) || errors.Is(err, domain.ErrMisaligned) {
			log.Printf("[ingest] FATAL chunk %d of %s: %v", i, sourceID, err)
			return report, fmt.Errorf("ingest %s chunk %d: %w", sourceID, i, err)
		}
		log.Printf("[ingest] Error processing chunk: %s Error: %v", domain.Preview(text, 30), err)
		report.Failed = append(report.Failed, ChunkFailure{Position: i, Text: text, Err: err})
	}
	return report, nil
}

// IngestDocument splits the document's blocks (when a splitter is set) and ingests them.
func (p *Pipeline) IngestDocument(ctx context.Context, doc domain.Document) (Report, error) {
	chunks := doc.Chunks
	if p.splitter != nil {
		chunks = chunker.SplitAll(p.splitter, doc.Chunks)
	}
	return p.Ingest(ctx, doc.SourceID, chunks)
}

func (p *Pipeline) insert(ctx context.Context, sourceID, text string, vec []float32) error {
	ordinal, err := p.state.Index.Insert(ctx, vec)
	if err != nil {
		return err
	}
	stored, err := p.state.Metadata.Append(ctx, domain.Chunk{SourceID: sourceID, Content: text})
	if err != nil {
		return fmt.Errorf("%w: vector %d has no record: %v", domain.ErrMisaligned, ordinal, err)
	}
	if stored != ordinal {
		return fmt.Errorf("%w: vector %d stored as record %d", domain.ErrMisaligned, ordinal, stored)
	}
	return nil
}
