package embedding

import (
	"context"
	"fmt"
)

// CachingEmbedder wraps an Embedder with an LRU cache. Only texts missing from the cache
// are sent to the underlying provider, in one batch.
type CachingEmbedder struct {
	inner Embedder
	cache *EmbeddingCache
}

// NewCachingEmbedder wraps inner with a cache of the given capacity.
// A non-positive capacity disables caching and returns inner unchanged.
func NewCachingEmbedder(inner Embedder, capacity int) Embedder {
	if capacity <= 0 {
		return inner
	}
	return &CachingEmbedder{inner: inner, cache: NewEmbeddingCache(capacity)}
}

// EmbedBatch serves cached texts and embeds the rest.
func (c *CachingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingAt []int
	for i, text := range texts {
		if v, ok := c.cache.Get(text); ok {
			out[i] = v
			continue
		}
		missing = append(missing, text)
		missingAt = append(missingAt, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	embedded, err := c.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missing) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d texts", len(embedded), len(missing))
	}
	for j, v := range embedded {
		c.cache.Set(missing[j], v)
		out[missingAt[j]] = v
	}
	return out, nil
}

// Dimensions returns the underlying embedder's dimension.
func (c *CachingEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Close closes the underlying embedder.
func (c *CachingEmbedder) Close() error {
	return c.inner.Close()
}
