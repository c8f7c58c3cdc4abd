// Package vector provides an exact nearest-neighbor index over flat float32 storage.
package vector

// Result is a single search hit. Ordinal is the vector's insertion position,
// which the document store uses as the record identity.
type Result struct {
	Ordinal  int
	Distance float32 // squared Euclidean distance to the query
}
