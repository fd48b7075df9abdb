package embedding

import "context"

// Embedder converts free text into a fixed-dimension vector.
// The dimension is known once the embedder is constructed and never changes.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}
