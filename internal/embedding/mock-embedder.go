package embedding

import (
	"context"
	"sync/atomic"

	"github.com/hyperjump/kaiwa/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and offline runs. It hashes each
// token into a bucket (feature hashing) and L2-normalizes the counts, so texts that share
// words end up close together and the same text always gets the same embedding.
type MockEmbedder struct {
	dimensions int
	calls      atomic.Int64
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns the hashed bag-of-words embedding of text.
func (e *MockEmbedder) Embed(text string) []float32 {
	emb := make([]float32, e.dimensions)
	for _, tok := range Tokens(text) {
		emb[HashString(tok)%e.dimensions] += 1
	}
	utils.NormalizeL2(emb)
	return emb
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.calls.Add(1)
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.Embed(text)
	}
	return embeddings, nil
}

// Calls returns how many times EmbedBatch has been invoked.
func (e *MockEmbedder) Calls() int {
	return int(e.calls.Load())
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
