package vectorindex

import (
	"context"
	"errors"
	"fmt"
)

// ErrCollectionNotFound marks a search against a collection that has never
// been created. Callers on the query path treat it as an empty result set,
// not a failure; a data source with nothing ingested has no collections.
var ErrCollectionNotFound = errors.New("collection does not exist")

// Point is one vector with its payload, addressed by a caller-chosen ID.
// Upserting a point with an existing ID replaces it.
type Point struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ScoredPoint is a search result ranked by similarity.
type ScoredPoint struct {
	ID      string                 `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Filter restricts a search to points whose payload matches every entry.
type Filter map[string]interface{}

// Index is the similarity-search collaborator. Implementations provide
// their own internal concurrency safety; the engine performs no locking
// around index calls.
type Index interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, collection string, dimensions int) error

	// Upsert inserts or replaces points in a collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the topK most similar points, optionally filtered by
	// payload fields.
	Search(ctx context.Context, collection string, vector []float32, filter Filter, topK int) ([]ScoredPoint, error)

	// Close releases any resources held by the index client.
	Close() error
}

// RecordCollection names the collection holding raw record embeddings for a
// data source. The naming scheme is shared with the ingestion pipeline.
func RecordCollection(dataSourceID string) string {
	return fmt.Sprintf("datasource_%s", dataSourceID)
}

// FactCollection names the collection holding materialized aggregate facts
// for a data source.
func FactCollection(dataSourceID string) string {
	return fmt.Sprintf("aggregates_%s", dataSourceID)
}
