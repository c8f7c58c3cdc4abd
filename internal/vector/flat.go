package vector

import (
	"fmt"
	"sort"
)

// FlatIndex is an append-only exact L2 index. Vectors are stored contiguously and
// searched by brute force, which is fine for the small stores this service targets.
// FlatIndex is not safe for concurrent use; callers synchronize.
type FlatIndex struct {
	dimensions int
	data       []float32
	count      int
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &FlatIndex{dimensions: dimensions}, nil
}

// Dimensions returns the vector dimension.
func (f *FlatIndex) Dimensions() int {
	return f.dimensions
}

// Len returns the number of vectors in the index.
func (f *FlatIndex) Len() int {
	return f.count
}

// Add appends vectors in order. Nothing is appended if any vector has the wrong dimension.
func (f *FlatIndex) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != f.dimensions {
			return fmt.Errorf("vector %d dimension mismatch: got %d, expected %d", i, len(v), f.dimensions)
		}
	}
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	f.count += len(vectors)
	return nil
}

// Vector returns a copy of the vector at ordinal i.
func (f *FlatIndex) Vector(i int) ([]float32, bool) {
	if i < 0 || i >= f.count {
		return nil, false
	}
	out := make([]float32, f.dimensions)
	copy(out, f.at(i))
	return out, true
}

func (f *FlatIndex) at(i int) []float32 {
	return f.data[i*f.dimensions : (i+1)*f.dimensions]
}

// Search returns up to k nearest vectors by squared Euclidean distance, closest first.
// Equal distances keep insertion order.
func (f *FlatIndex) Search(query []float32, k int) ([]Result, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), f.dimensions)
	}
	if k <= 0 || f.count == 0 {
		return nil, nil
	}
	results := make([]Result, f.count)
	for i := 0; i < f.count; i++ {
		results[i] = Result{Ordinal: i, Distance: SquaredL2(query, f.at(i))}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}
