package executor

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/aggrego/pkg/aggstore"
	"github.com/soundprediction/aggrego/pkg/rawdata"
	"github.com/soundprediction/aggrego/pkg/types"
	"github.com/soundprediction/aggrego/pkg/vectorindex"
)

type stubEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.EmbedSingle(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if s.fail {
		return nil, assert.AnError
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (s *stubEmbedder) Dimensions() int { return 3 }
func (s *stubEmbedder) Close() error    { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testRecords() []rawdata.SalesRecord {
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)
	return []rawdata.SalesRecord{
		{RecordID: "r1", ProductID: "prod-a", Product: "Product A", Category: "electronics", Date: jan, Quantity: 2, UnitPrice: 100, Amount: 200},
		{RecordID: "r2", ProductID: "prod-a", Product: "Product A", Category: "electronics", Date: feb, Quantity: 3, UnitPrice: 110, Amount: 330},
		{RecordID: "r3", ProductID: "prod-b", Product: "Product B", Category: "furniture", Date: jan, Quantity: 1, UnitPrice: 50, Amount: 50},
	}
}

func TestExecutePrecomputed(t *testing.T) {
	ctx := context.Background()
	store := aggstore.NewMemoryStore()

	fact := &types.AggregateFact{
		Key:             types.FactKey("sales-2026", types.TotalBySubject, "prod-a"),
		DataSourceID:    "sales-2026",
		AggregationType: types.TotalBySubject,
		Subject:         "Product A",
		SubjectID:       "prod-a",
		Value:           530,
		LastUpdated:     time.Now(),
	}
	require.NoError(t, store.Upsert(ctx, fact))

	exec := New(store, nil, vectorindex.NewMemoryIndex(), &stubEmbedder{}, time.Second, testLogger())

	plan := &types.ExecutionPlan{
		Strategy: types.StrategyPrecomputed,
		Detail:   types.PlanDetail{FactKey: fact.Key},
	}

	out, err := exec.Execute(ctx, plan)
	require.NoError(t, err)

	assert.Equal(t, types.StrategyPrecomputed, out.Strategy)
	assert.True(t, out.IsPrecomputed)
	assert.Equal(t, 530.0, out.Value)
	require.NotNil(t, out.Fact)
	assert.Equal(t, "prod-a", out.Fact.SubjectID)
	assert.Greater(t, out.Timings.Total, time.Duration(0))
}

func TestExecutePrecomputedMissingFact(t *testing.T) {
	exec := New(aggstore.NewMemoryStore(), nil, vectorindex.NewMemoryIndex(), &stubEmbedder{}, time.Second, testLogger())

	plan := &types.ExecutionPlan{
		Strategy: types.StrategyPrecomputed,
		Detail:   types.PlanDetail{FactKey: "sales-2026:total_by_subject:prod-a"},
	}

	_, err := exec.Execute(context.Background(), plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, aggstore.ErrFactNotFound)
}

func TestExecuteFullScan(t *testing.T) {
	registry := rawdata.NewRegistry()
	registry.Register("sales-2026", rawdata.NewMemorySource(testRecords()))
	exec := New(aggstore.NewMemoryStore(), registry, vectorindex.NewMemoryIndex(), &stubEmbedder{}, time.Second, testLogger())

	tests := []struct {
		name     string
		detail   types.PlanDetail
		expected float64
	}{
		{
			name: "total for one product",
			detail: types.PlanDetail{
				DataSourceID:        "sales-2026",
				AggregationType:     types.TotalBySubject,
				AggregationFunction: types.FunctionSum,
				SubjectID:           "prod-a",
			},
			expected: 530,
		},
		{
			name: "total across all subjects",
			detail: types.PlanDetail{
				DataSourceID:        "sales-2026",
				AggregationType:     types.TotalBySubject,
				AggregationFunction: types.FunctionSum,
				SubjectID:           types.SubjectAll,
			},
			expected: 580,
		},
		{
			name: "unit count",
			detail: types.PlanDetail{
				DataSourceID:        "sales-2026",
				AggregationType:     types.CountBySubject,
				AggregationFunction: types.FunctionSum,
				SubjectID:           "prod-a",
			},
			expected: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := &types.ExecutionPlan{Strategy: types.StrategyFullScan, Detail: tt.detail}

			out, err := exec.Execute(context.Background(), plan)
			require.NoError(t, err)

			assert.Equal(t, types.StrategyFullScan, out.Strategy)
			assert.False(t, out.IsPrecomputed)
			assert.False(t, out.NeedsImplementation)
			assert.Equal(t, tt.expected, out.Value)
		})
	}
}

func TestExecuteFullScanWithoutSource(t *testing.T) {
	exec := New(aggstore.NewMemoryStore(), nil, vectorindex.NewMemoryIndex(), &stubEmbedder{}, time.Second, testLogger())

	plan := &types.ExecutionPlan{
		Strategy: types.StrategyFullScan,
		Detail: types.PlanDetail{
			DataSourceID:        "sales-2026",
			AggregationType:     types.TotalBySubject,
			AggregationFunction: types.FunctionSum,
			SubjectID:           "prod-a",
		},
	}

	out, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.True(t, out.NeedsImplementation)
	assert.False(t, out.IsPrecomputed)
	assert.Zero(t, out.Value)
}

func TestExecuteSemanticSearch(t *testing.T) {
	ctx := context.Background()
	index := vectorindex.NewMemoryIndex()

	records := vectorindex.RecordCollection("sales-2026")
	require.NoError(t, index.EnsureCollection(ctx, records, 3))
	require.NoError(t, index.Upsert(ctx, records, []vectorindex.Point{
		{ID: "r1", Vector: []float32{1, 0, 0}, Payload: map[string]interface{}{"text": "Product A sold in January"}},
		{ID: "r2", Vector: []float32{0, 1, 0}, Payload: map[string]interface{}{"text": "Product B sold in January"}},
	}))

	facts := vectorindex.FactCollection("sales-2026")
	require.NoError(t, index.EnsureCollection(ctx, facts, 3))
	require.NoError(t, index.Upsert(ctx, facts, []vectorindex.Point{
		{ID: "f1", Vector: []float32{0.9, 0.1, 0}, Payload: map[string]interface{}{"text": "Total sales for Product A (prod-a): 530.00"}},
	}))

	exec := New(aggstore.NewMemoryStore(), nil, index, &stubEmbedder{}, time.Second, testLogger())

	plan := &types.ExecutionPlan{
		Strategy: types.StrategySemantic,
		Detail: types.PlanDetail{
			DataSourceID: "sales-2026",
			Query:        "tell me about product a",
			TopK:         2,
		},
	}

	out, err := exec.Execute(ctx, plan)
	require.NoError(t, err)

	require.Len(t, out.Hits, 2)
	assert.Equal(t, "r1", out.Hits[0].ID)
	assert.Equal(t, "Product A sold in January", out.Hits[0].Text)
	assert.GreaterOrEqual(t, out.Hits[0].Score, out.Hits[1].Score)
	assert.GreaterOrEqual(t, out.Timings.Embedding, time.Duration(0))
}

func TestExecuteSemanticSearchColdFactCollection(t *testing.T) {
	ctx := context.Background()
	index := vectorindex.NewMemoryIndex()

	// Only the record collection exists; the fact collection has never
	// been materialized.
	records := vectorindex.RecordCollection("sales-2026")
	require.NoError(t, index.EnsureCollection(ctx, records, 3))
	require.NoError(t, index.Upsert(ctx, records, []vectorindex.Point{
		{ID: "r1", Vector: []float32{1, 0, 0}, Payload: map[string]interface{}{"text": "Product A sold in January"}},
	}))

	exec := New(aggstore.NewMemoryStore(), nil, index, &stubEmbedder{}, time.Second, testLogger())

	plan := &types.ExecutionPlan{
		Strategy: types.StrategySemantic,
		Detail:   types.PlanDetail{DataSourceID: "sales-2026", Query: "product a", TopK: 5},
	}

	out, err := exec.Execute(ctx, plan)
	require.NoError(t, err)
	require.Len(t, out.Hits, 1)
	assert.Equal(t, "r1", out.Hits[0].ID)
}

func TestExecuteSemanticSearchColdSource(t *testing.T) {
	// Neither the record collection nor the fact collection exists yet.
	// Nothing ingested means zero hits, not an error.
	exec := New(aggstore.NewMemoryStore(), nil, vectorindex.NewMemoryIndex(), &stubEmbedder{}, time.Second, testLogger())

	plan := &types.ExecutionPlan{
		Strategy: types.StrategySemantic,
		Detail:   types.PlanDetail{DataSourceID: "cold-src", Query: "tell me something interesting", TopK: 5},
	}

	out, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Empty(t, out.Hits)
	assert.Equal(t, types.StrategySemantic, out.Strategy)
}

func TestExecuteSemanticSearchEmbedFailure(t *testing.T) {
	exec := New(aggstore.NewMemoryStore(), nil, vectorindex.NewMemoryIndex(), &stubEmbedder{fail: true}, time.Second, testLogger())

	plan := &types.ExecutionPlan{
		Strategy: types.StrategySemantic,
		Detail:   types.PlanDetail{DataSourceID: "sales-2026", Query: "anything"},
	}

	_, err := exec.Execute(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed query")
}

func TestExecuteHybrid(t *testing.T) {
	ctx := context.Background()
	store := aggstore.NewMemoryStore()

	fact := &types.AggregateFact{
		Key:             types.FactKey("sales-2026", types.TotalBySubject, "prod-a"),
		DataSourceID:    "sales-2026",
		AggregationType: types.TotalBySubject,
		Subject:         "Product A",
		SubjectID:       "prod-a",
		Value:           530,
		LastUpdated:     time.Now(),
	}
	require.NoError(t, store.Upsert(ctx, fact))

	index := vectorindex.NewMemoryIndex()
	records := vectorindex.RecordCollection("sales-2026")
	require.NoError(t, index.EnsureCollection(ctx, records, 3))
	require.NoError(t, index.Upsert(ctx, records, []vectorindex.Point{
		{ID: "r1", Vector: []float32{1, 0, 0}, Payload: map[string]interface{}{"text": "Product A sold in January"}},
	}))

	exec := New(store, nil, index, &stubEmbedder{}, time.Second, testLogger())

	plan := &types.ExecutionPlan{
		Strategy: types.StrategyHybrid,
		Detail:   types.PlanDetail{FactKey: fact.Key},
		Fallback: &types.PlanDetail{
			DataSourceID: "sales-2026",
			Query:        "total sales of product a with details",
			TopK:         3,
		},
	}

	out, err := exec.Execute(ctx, plan)
	require.NoError(t, err)

	assert.Equal(t, types.StrategyHybrid, out.Strategy)
	assert.True(t, out.IsPrecomputed)
	assert.Equal(t, 530.0, out.Value)
	require.Len(t, out.Hits, 1)
	assert.Equal(t, "r1", out.Hits[0].ID)
}

func TestExecuteHybridSurvivesFallbackFailure(t *testing.T) {
	ctx := context.Background()
	store := aggstore.NewMemoryStore()

	fact := &types.AggregateFact{
		Key:             types.FactKey("sales-2026", types.TotalBySubject, "prod-a"),
		DataSourceID:    "sales-2026",
		AggregationType: types.TotalBySubject,
		Subject:         "Product A",
		SubjectID:       "prod-a",
		Value:           530,
		LastUpdated:     time.Now(),
	}
	require.NoError(t, store.Upsert(ctx, fact))

	exec := New(store, nil, vectorindex.NewMemoryIndex(), &stubEmbedder{fail: true}, time.Second, testLogger())

	plan := &types.ExecutionPlan{
		Strategy: types.StrategyHybrid,
		Detail:   types.PlanDetail{FactKey: fact.Key},
		Fallback: &types.PlanDetail{DataSourceID: "sales-2026", Query: "details please", TopK: 3},
	}

	out, err := exec.Execute(ctx, plan)
	require.NoError(t, err)

	assert.Equal(t, 530.0, out.Value)
	assert.Empty(t, out.Hits)
}

func TestExecuteUnknownStrategy(t *testing.T) {
	exec := New(aggstore.NewMemoryStore(), nil, vectorindex.NewMemoryIndex(), &stubEmbedder{}, time.Second, testLogger())

	_, err := exec.Execute(context.Background(), &types.ExecutionPlan{Strategy: types.Strategy("guesswork")})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnknownStrategy)
}
