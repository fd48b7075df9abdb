package memory

import (
	"context"
	"sync"

	"webrag/internal/domain"
	"webrag/internal/vectorindex"
)

// Index is an exact in-memory index using brute-force squared L2 distance.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
}

// NewIndex creates an empty index for vectors of the given dimension.
func NewIndex(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, domain.ErrInvalidDimension
	}
	return &Index{dimension: dimension}, nil
}

func (x *Index) Dimension() int { return x.dimension }

func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

func (x *Index) Insert(_ context.Context, v []float32) (int, error) {
	if err := vectorindex.CheckDimension(x.dimension, v); err != nil {
		return -1, err
	}
	cp := make([]float32, len(v))
	copy(cp, v)
	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = append(x.vectors, cp)
	return len(x.vectors) - 1, nil
}

func (x *Index) Search(_ context.Context, query []float32, k int) ([]domain.Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := vectorindex.CheckDimension(x.dimension, query); err != nil {
		return nil, err
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	hits := make([]domain.Neighbor, len(x.vectors))
	for i, v := range x.vectors {
		hits[i] = domain.Neighbor{Ordinal: i, Distance: vectorindex.SquaredL2(query, v)}
	}
	vectorindex.SortNeighbors(hits)
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}
