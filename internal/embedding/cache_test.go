package embedding

import (
	"context"
	"errors"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len=%d", c.Len())
	}
}

type failingEmbedder struct{ dims int }

func (f *failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("quota exceeded")
}
func (f *failingEmbedder) Dimensions() int { return f.dims }
func (f *failingEmbedder) Close() error    { return nil }

func TestCachingEmbedder_ServesRepeatsFromCache(t *testing.T) {
	ctx := context.Background()
	mock := NewMockEmbedder(8)
	emb := NewCachingEmbedder(mock, 10)

	first, err := emb.EmbedBatch(ctx, []string{"card fraud", "kyc"})
	if err != nil {
		t.Fatal(err)
	}
	if mock.Calls() != 1 {
		t.Fatalf("expected 1 provider call, got %d", mock.Calls())
	}
	second, err := emb.EmbedBatch(ctx, []string{"kyc", "card fraud"})
	if err != nil {
		t.Fatal(err)
	}
	if mock.Calls() != 1 {
		t.Errorf("cached batch should not call provider, got %d calls", mock.Calls())
	}
	if second[1][0] != first[0][0] || second[0][0] != first[1][0] {
		t.Error("cached vectors should be returned in input order")
	}
	if emb.Dimensions() != 8 {
		t.Errorf("Dimensions=%d", emb.Dimensions())
	}
}

func TestCachingEmbedder_DisabledReturnsInner(t *testing.T) {
	mock := NewMockEmbedder(4)
	if got := NewCachingEmbedder(mock, 0); got != Embedder(mock) {
		t.Error("capacity 0 should return the inner embedder")
	}
}

func TestCachingEmbedder_PropagatesErrors(t *testing.T) {
	emb := NewCachingEmbedder(&failingEmbedder{dims: 4}, 4)
	if _, err := emb.EmbedBatch(context.Background(), []string{"x"}); err == nil {
		t.Error("expected provider error")
	}
}

func TestMockEmbedder_SimilarTextsAreCloser(t *testing.T) {
	e := NewMockEmbedder(64)
	doc := e.Embed("Fintech fraud detection uses anomaly scoring.")
	near := e.Embed("How is fraud detected with anomaly scoring?")
	far := e.Embed("Mortgage interest rates for first-time buyers")
	if dot(doc, near) <= dot(doc, far) {
		t.Errorf("expected shared-token text to be closer: near=%f far=%f", dot(doc, near), dot(doc, far))
	}
	if len(e.Embed("")) != 64 {
		t.Error("empty text should still produce a full-size vector")
	}
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
