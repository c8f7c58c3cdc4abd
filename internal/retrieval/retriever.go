// Package retrieval keeps the vector index and document store aligned and searches them.
package retrieval

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/kaiwa/internal/docstore"
	"github.com/hyperjump/kaiwa/internal/embedding"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/storage"
	"github.com/hyperjump/kaiwa/internal/vector"
	"go.uber.org/zap"
)

// Retriever owns the index/store pair. Ingest is the single append path and holds the
// write lock across the in-memory append and the checkpoint write; searches hold the read
// lock, so they observe either the state before an ingest or after it. Provider calls are
// made without any lock held.
type Retriever struct {
	mu         sync.RWMutex
	index      *vector.FlatIndex
	docs       *docstore.Store
	embedder   embedding.Embedder
	checkpoint *storage.Checkpoint
	logger     *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// Open loads the checkpoint (or starts empty) and returns a ready retriever.
// The index dimension must match the embedder's; a mismatch is a configuration error.
func Open(embedder embedding.Embedder, checkpoint *storage.Checkpoint, opts ...Option) (*Retriever, error) {
	r := &Retriever{
		embedder:   embedder,
		checkpoint: checkpoint,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	idx, docs, err := checkpoint.Load(embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	r.index = idx
	r.docs = docs
	return r, nil
}

// Ingest embeds content, appends it to the index and store, and persists both.
// Returns the total document count. On a persistence error the in-memory state keeps
// the new document while disk does not.
func (r *Retriever) Ingest(ctx context.Context, content string, metadata map[string]interface{}) (int, error) {
	vec, err := r.embedOne(ctx, content, "ingest")
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.index.Add([][]float32{vec}); err != nil {
		return 0, models.NewError(models.ErrEmbedding, "ingest", err)
	}
	r.docs.Append(models.DocumentRecord{Content: content, Metadata: metadata})
	total := r.docs.Len()
	if err := r.checkpoint.Save(r.index, r.docs); err != nil {
		r.logger.Error("checkpoint write failed, memory ahead of disk",
			zap.Int("total_docs", total), zap.Error(err))
		return 0, err
	}
	r.logger.Debug("document ingested", zap.Int("total_docs", total), zap.Int("content_len", len(content)))
	return total, nil
}

// Retrieve returns the content of up to k documents nearest to query, closest first.
// It returns nothing, without calling the embedder, when k <= 0 or the store is empty.
// Ordinals outside the store are dropped.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 || r.Count() == 0 {
		return []string{}, nil
	}
	vec, err := r.embedOne(ctx, query, "retrieve")
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	hits, err := r.index.Search(vec, k)
	if err != nil {
		return nil, models.NewError(models.ErrEmbedding, "retrieve", err)
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		rec, ok := r.docs.Get(h.Ordinal)
		if !ok {
			r.logger.Warn("dropping out-of-range ordinal", zap.Int("ordinal", h.Ordinal), zap.Int("documents", r.docs.Len()))
			continue
		}
		out = append(out, rec.Content)
	}
	return out, nil
}

// Count returns the number of stored documents.
func (r *Retriever) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.docs.Len()
}

// Metadata returns the metadata of every stored document in ordinal order.
func (r *Retriever) Metadata() []map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.docs.Metadata()
}

// VectorCount returns the number of vectors in the index.
func (r *Retriever) VectorCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Len()
}

// Dimensions returns the index vector dimension.
func (r *Retriever) Dimensions() int {
	return r.index.Dimensions()
}

// Checkpoint returns the persistence location.
func (r *Retriever) Checkpoint() *storage.Checkpoint {
	return r.checkpoint
}

func (r *Retriever) embedOne(ctx context.Context, text, op string) ([]float32, error) {
	vecs, err := r.embedder.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, models.NewError(models.ErrEmbedding, op, err)
	}
	if len(vecs) != 1 {
		return nil, models.NewError(models.ErrEmbedding, op, fmt.Errorf("expected 1 embedding, got %d", len(vecs)))
	}
	if len(vecs[0]) != r.index.Dimensions() {
		return nil, models.NewError(models.ErrEmbedding, op,
			fmt.Errorf("embedding dimension %d, index expects %d", len(vecs[0]), r.index.Dimensions()))
	}
	return vecs[0], nil
}
