package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log"

	"webrag/internal/domain"
	"webrag/internal/embedding"
	"webrag/internal/state"
)

// DefaultTopK is used when the caller passes no explicit k.
const DefaultTopK = 5

// Service answers nearest-neighbour queries against a populated state.
// It only reads the state and is safe for concurrent use once the state is sealed.
type Service struct {
	embedder embedding.Embedder
	state    *state.State
	topK     int
}

func NewService(embedder embedding.Embedder, st *state.State, topK int) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{embedder: embedder, state: st, topK: topK}
}

// TopK returns the configured default k.
func (s *Service) TopK() int { return s.topK }

// Retrieve embeds query and returns up to k records ranked by ascending
// distance. The result is never nil. On failure the result is empty and
// the error says why; an empty index is not a failure.
//
// Ordinals the metadata store cannot resolve are dropped: the result only
// ever contains records below the store's current size.
func (s *Service) Retrieve(ctx context.Context, query string, k int) (domain.QueryResult, error) {
	result := domain.QueryResult{}
	if k <= 0 || s.state.Index.Count() == 0 {
		return result, nil
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("[retrieve] Error retrieving similar chunks for query %q: %v", query, err)
		return result, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.state.Index.Search(ctx, vec, k)
	if err != nil {
		log.Printf("[retrieve] search failed for query %q: %v", query, err)
		return result, fmt.Errorf("search index: %w", err)
	}
	for _, h := range hits {
		rec, err := s.state.Metadata.Get(ctx, h.Ordinal)
		if err != nil {
			if !errors.Is(err, domain.ErrOutOfRange) {
				log.Printf("[retrieve] skipping ordinal %d: %v", h.Ordinal, err)
			}
			continue
		}
		result = append(result, rec)
		if len(result) == k {
			break
		}
	}
	return result, nil
}

// RetrieveDefault calls Retrieve with the configured k.
func (s *Service) RetrieveDefault(ctx context.Context, query string) (domain.QueryResult, error) {
	return s.Retrieve(ctx, query, s.topK)
}
