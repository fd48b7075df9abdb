package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"webrag/internal/domain"
)

//go:embed schema.sql
var schema string

// Store keeps metadata records in a SQLite table keyed by ordinal.
// The table is recreated on open so the store always starts empty,
// in step with a freshly built vector index.
type Store struct {
	db *sql.DB

	mu   sync.RWMutex
	size int
}

// Open opens (or creates) the database at dsn. ":memory:" is the default.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	if dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Append(ctx context.Context, c domain.Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ordinal := s.size
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chunks (ordinal, source_id, content) VALUES (?, ?, ?)`,
		ordinal, c.SourceID, c.Content)
	if err != nil {
		return -1, fmt.Errorf("insert chunk %d: %w", ordinal, err)
	}
	s.size++
	return ordinal, nil
}

func (s *Store) Get(ctx context.Context, ordinal int) (domain.MetadataRecord, error) {
	size := s.Len()
	if ordinal < 0 || ordinal >= size {
		return domain.MetadataRecord{}, &domain.OutOfRangeError{Ordinal: ordinal, Size: size}
	}
	rec := domain.MetadataRecord{Ordinal: ordinal}
	err := s.db.QueryRowContext(ctx,
		`SELECT source_id, content FROM chunks WHERE ordinal = ?`, ordinal).
		Scan(&rec.Chunk.SourceID, &rec.Chunk.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MetadataRecord{}, &domain.OutOfRangeError{Ordinal: ordinal, Size: size}
	}
	if err != nil {
		return domain.MetadataRecord{}, fmt.Errorf("query chunk %d: %w", ordinal, err)
	}
	return rec, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

func (s *Store) Close() error { return s.db.Close() }
