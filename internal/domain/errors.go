package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmbedding         = errors.New("embedding failed")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrOutOfRange        = errors.New("ordinal out of range")
	ErrGeneration        = errors.New("generation request failed")
	ErrSealed            = errors.New("retrieval state is sealed")
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidDimension  = errors.New("invalid dimension")
	ErrMisaligned        = errors.New("index and metadata store out of step")
)

// EmbeddingError reports a model failure for a single text.
type EmbeddingError struct {
	Text string
	Err  error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embed %q: %v", Preview(e.Text, 30), e.Err)
}

func (e *EmbeddingError) Unwrap() []error { return []error{ErrEmbedding, e.Err} }

// DimensionMismatchError is returned when a vector's length differs from the
// dimension fixed at startup.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: want %d, got %d", e.Want, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// OutOfRangeError is returned by metadata lookups past the current size.
type OutOfRangeError struct {
	Ordinal int
	Size    int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("ordinal %d out of range [0,%d)", e.Ordinal, e.Size)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// GenerationError wraps a failure talking to the text-generation API.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() []error { return []error{ErrGeneration, e.Err} }

// Preview returns at most n runes of s followed by "..." when truncated.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
