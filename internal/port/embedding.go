package port

import "context"

// Embedder abstracts the embedding backend. Implementations must be
// deterministic: identical input and model produce identical vectors.
type Embedder interface {
	// ModelName returns the identifier of the embedding model in use.
	ModelName() string

	// Embed generates a fixed-dimension vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for multiple texts in one call,
	// aligned by position with the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
