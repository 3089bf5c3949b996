package aggstore

import (
	"context"
	"fmt"

	"github.com/soundprediction/aggrego/pkg/types"
	"github.com/soundprediction/aggrego/pkg/vectorindex"
)

// IndexedStore pairs a Store with a vector index so every upserted fact is
// also searchable by semantic similarity. The fact key doubles as the
// vector point ID, which makes re-materialization overwrite the prior
// vector instead of appending a duplicate.
type IndexedStore struct {
	Store
	index      vectorindex.Index
	dimensions int
}

// NewIndexedStore wraps a store with a vector index.
func NewIndexedStore(store Store, index vectorindex.Index, dimensions int) *IndexedStore {
	return &IndexedStore{
		Store:      store,
		index:      index,
		dimensions: dimensions,
	}
}

// Upsert writes the fact to the keyed store and mirrors it into the
// aggregates collection of its data source.
func (s *IndexedStore) Upsert(ctx context.Context, fact *types.AggregateFact) error {
	if err := s.Store.Upsert(ctx, fact); err != nil {
		return err
	}
	if len(fact.Embedding) == 0 {
		return nil
	}

	collection := vectorindex.FactCollection(fact.DataSourceID)
	if err := s.index.EnsureCollection(ctx, collection, s.dimensions); err != nil {
		return fmt.Errorf("failed to ensure fact collection: %w", err)
	}

	point := vectorindex.Point{
		ID:     fact.Key,
		Vector: fact.Embedding,
		Payload: map[string]interface{}{
			"text":             fact.Description,
			"data_source_id":   fact.DataSourceID,
			"aggregation_type": string(fact.AggregationType),
			"subject":          fact.Subject,
			"subject_id":       fact.SubjectID,
			"value":            fact.Value,
			"last_updated":     fact.LastUpdated.UTC().Format("2006-01-02T15:04:05Z07:00"),
		},
	}
	if err := s.index.Upsert(ctx, collection, []vectorindex.Point{point}); err != nil {
		return fmt.Errorf("failed to index fact %s: %w", fact.Key, err)
	}
	return nil
}
