// Package state owns the vector index and metadata store as one unit.
//
// Lifecycle: a State is built empty at startup, written only by the ingestion
// pipeline, then sealed. After Seal it is read-only and may be shared by any
// number of concurrent retrievals. Ingesting while serving is not supported;
// writes after Seal fail with domain.ErrSealed.
package state

import (
	"errors"
	"fmt"
	"sync/atomic"

	"webrag/internal/metadata"
	"webrag/internal/vectorindex"
)

type State struct {
	Index    vectorindex.Index
	Metadata metadata.Store
	sealed   atomic.Bool
}

// New returns an unsealed state over an empty index and store.
func New(index vectorindex.Index, store metadata.Store) (*State, error) {
	if index == nil || store == nil {
		return nil, errors.New("state: index and metadata store are required")
	}
	if index.Count() != 0 || store.Len() != 0 {
		return nil, fmt.Errorf("state: index (%d) and metadata store (%d) must start empty", index.Count(), store.Len())
	}
	return &State{Index: index, Metadata: store}, nil
}

// Seal ends the ingestion phase.
func (s *State) Seal() { s.sealed.Store(true) }

func (s *State) Sealed() bool { return s.sealed.Load() }

// Aligned reports whether the index and the metadata store hold the same
// number of entries.
func (s *State) Aligned() bool { return s.Index.Count() == s.Metadata.Len() }

// Close releases the metadata store.
func (s *State) Close() error { return s.Metadata.Close() }
