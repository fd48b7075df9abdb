// Package vectorindex defines the nearest-neighbour index over embedding
// vectors. Vectors are addressed by ordinal: the 0-based insertion order,
// which doubles as the join key into the metadata store.
package vectorindex

import (
	"context"
	"sort"

	"webrag/internal/domain"
)

// Index stores fixed-dimension vectors and answers k-nearest-neighbour
// queries by Euclidean distance.
type Index interface {
	// Dimension is the vector length every insert and query must have.
	Dimension() int
	// Count is the number of vectors inserted so far.
	Count() int
	// Insert appends v and returns its ordinal.
	Insert(ctx context.Context, v []float32) (int, error)
	// Search returns up to k neighbours ordered by ascending distance,
	// ties broken by lower ordinal.
	Search(ctx context.Context, query []float32, k int) ([]domain.Neighbor, error)
}

// SortNeighbors orders hits by (distance, ordinal).
func SortNeighbors(hits []domain.Neighbor) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})
}

// SquaredL2 returns the squared Euclidean distance between a and b, which
// must have equal length.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// CheckDimension returns a DimensionMismatchError when len(v) != want.
func CheckDimension(want int, v []float32) error {
	if len(v) != want {
		return &domain.DimensionMismatchError{Want: want, Got: len(v)}
	}
	return nil
}
