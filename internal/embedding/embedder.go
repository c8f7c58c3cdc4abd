// Package embedding provides text embedding providers and caching.
package embedding

import "context"

// Embedder produces fixed-dimension vector embeddings for text.
type Embedder interface {
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
