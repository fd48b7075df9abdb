// Package generation is the boundary to the external text-generation API:
// a prompt goes in, text comes out, or an error.
package generation

import "context"

// Request carries a prompt and the fixed sampling parameters.
type Request struct {
	Prompt          string
	Temperature     float32
	MaxOutputTokens int
}

// Generator produces text for a prompt. Implementations wrap failures in a
// *domain.GenerationError.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
