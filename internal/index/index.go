// Package index provides the vector similarity index over memory embeddings.
//
// The index is a best-effort projection of the record store: entries exist
// only for records whose embedding succeeded at write time, and a missing
// entry never invalidates the record itself.
package index

import "context"

// Hit is a single nearest-neighbor match.
type Hit struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// Index maps memory ids to embeddings and answers nearest-neighbor queries.
type Index interface {
	// Upsert adds or replaces the entry for id.
	Upsert(ctx context.Context, id, content string, embedding []float32, meta map[string]string) error

	// Query returns up to k hits ordered by ascending distance. An empty
	// result is normal for an empty index.
	Query(ctx context.Context, embedding []float32, k int) ([]Hit, error)

	// Count reports the number of indexed entries.
	Count() int
}
