package memory

import (
	"context"
	"sync"

	"webrag/internal/domain"
)

// Store keeps records in a slice whose index is the ordinal.
type Store struct {
	mu      sync.RWMutex
	records []domain.MetadataRecord
}

func NewStore() *Store { return &Store{} }

func (s *Store) Append(_ context.Context, c domain.Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ordinal := len(s.records)
	s.records = append(s.records, domain.MetadataRecord{Ordinal: ordinal, Chunk: c})
	return ordinal, nil
}

func (s *Store) Get(_ context.Context, ordinal int) (domain.MetadataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ordinal < 0 || ordinal >= len(s.records) {
		return domain.MetadataRecord{}, &domain.OutOfRangeError{Ordinal: ordinal, Size: len(s.records)}
	}
	return s.records[ordinal], nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Close() error { return nil }
