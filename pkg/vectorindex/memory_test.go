package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndexUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	require.NoError(t, idx.EnsureCollection(ctx, "aggregates_ds1", 3))

	points := []Point{
		{ID: "a", Vector: []float32{1, 0, 0}, Payload: map[string]interface{}{"data_source_id": "ds1", "text": "alpha"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Payload: map[string]interface{}{"data_source_id": "ds1", "text": "beta"}},
		{ID: "c", Vector: []float32{0.9, 0.1, 0}, Payload: map[string]interface{}{"data_source_id": "ds2", "text": "gamma"}},
	}
	require.NoError(t, idx.Upsert(ctx, "aggregates_ds1", points))

	results, err := idx.Search(ctx, "aggregates_ds1", []float32{1, 0, 0}, nil, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "c", results[1].ID)
}

func TestMemoryIndexMissingCollection(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	_, err := idx.Search(ctx, "datasource_nope", []float32{1, 0}, nil, 5)
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	err = idx.Upsert(ctx, "datasource_nope", []Point{{ID: "x", Vector: []float32{1, 0}}})
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestMemoryIndexFilter(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	require.NoError(t, idx.EnsureCollection(ctx, "coll", 2))
	require.NoError(t, idx.Upsert(ctx, "coll", []Point{
		{ID: "x", Vector: []float32{1, 0}, Payload: map[string]interface{}{"data_source_id": "ds1"}},
		{ID: "y", Vector: []float32{1, 0}, Payload: map[string]interface{}{"data_source_id": "ds2"}},
	}))

	results, err := idx.Search(ctx, "coll", []float32{1, 0}, Filter{"data_source_id": "ds2"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "y", results[0].ID)
}

func TestMemoryIndexUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	require.NoError(t, idx.EnsureCollection(ctx, "coll", 2))
	require.NoError(t, idx.Upsert(ctx, "coll", []Point{
		{ID: "x", Vector: []float32{1, 0}, Payload: map[string]interface{}{"text": "old"}},
	}))
	require.NoError(t, idx.Upsert(ctx, "coll", []Point{
		{ID: "x", Vector: []float32{0, 1}, Payload: map[string]interface{}{"text": "new"}},
	}))

	results, err := idx.Search(ctx, "coll", []float32{0, 1}, nil, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Payload["text"])
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	require.NoError(t, idx.EnsureCollection(ctx, "coll", 3))
	err := idx.Upsert(ctx, "coll", []Point{{ID: "x", Vector: []float32{1, 0}}})
	assert.Error(t, err)
}

func TestCollectionNames(t *testing.T) {
	assert.Equal(t, "datasource_ds-1", RecordCollection("ds-1"))
	assert.Equal(t, "aggregates_ds-1", FactCollection("ds-1"))
}
