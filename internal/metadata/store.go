// Package metadata holds the records that run parallel to the vector index:
// record i describes the i-th inserted vector.
package metadata

import (
	"context"

	"webrag/internal/domain"
)

// Store is an append-only sequence of chunks addressed by ordinal.
type Store interface {
	// Append adds c at the next ordinal and returns that ordinal.
	Append(ctx context.Context, c domain.Chunk) (int, error)
	// Get returns the record at ordinal, or an OutOfRangeError.
	Get(ctx context.Context, ordinal int) (domain.MetadataRecord, error)
	// Len is the number of records appended so far.
	Len() int
	Close() error
}
