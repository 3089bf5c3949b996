package aggrego

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/aggrego/pkg/aggstore"
	"github.com/soundprediction/aggrego/pkg/classifier"
	"github.com/soundprediction/aggrego/pkg/rawdata"
	"github.com/soundprediction/aggrego/pkg/types"
	"github.com/soundprediction/aggrego/pkg/vectorindex"
)

// stubEmbedder maps texts onto a tiny fixed vector space so similarity
// ranking in tests is predictable.
type stubEmbedder struct{}

func vectorFor(text string) []float32 {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "product a"):
		return []float32{1, 0, 0}
	case strings.Contains(t, "product b"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func (stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = vectorFor(text)
	}
	return out, nil
}

func (stubEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return vectorFor(text), nil
}

func (stubEmbedder) Dimensions() int { return 3 }
func (stubEmbedder) Close() error    { return nil }

func testCatalog() *classifier.Catalog {
	return classifier.DefaultCatalog().WithSubjects([]classifier.SubjectLabel{
		{Role: "product", Label: "product a", ID: "prod-a"},
		{Role: "product", Label: "product b", ID: "prod-b"},
		{Role: "category", Label: "electronics", ID: "electronics"},
	})
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

func newTestEngine(t *testing.T, config *Config) *Client {
	t.Helper()

	index := vectorindex.NewMemoryIndex()
	store := aggstore.NewIndexedStore(aggstore.NewMemoryStore(), index, 3)

	if config == nil {
		config = &Config{}
	}
	if config.Catalog == nil {
		config.Catalog = testCatalog()
	}

	engine, err := NewClient(store, index, stubEmbedder{}, config, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	engine.RegisterDataSource("sales-2026", rawdata.NewMemorySource(testRecords()))
	return engine
}

func TestAnswerQueryUsesFreshPrecomputedFact(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, nil)

	report, err := engine.MaterializeAggregations(ctx, "sales-2026")
	require.NoError(t, err)
	require.Empty(t, report.Errors)

	answer, err := engine.AnswerQuery(ctx, "sales-2026", "What are the total sales of Product A?")
	require.NoError(t, err)

	assert.Equal(t, types.StrategyPrecomputed, answer.Strategy)
	assert.True(t, answer.Precomputed)
	require.NotNil(t, answer.Value)
	assert.Equal(t, 530.0, *answer.Value)
	assert.Equal(t, 0.85, answer.Confidence)
	require.NotNil(t, answer.LastUpdated)
	assert.Contains(t, answer.Explanation, "pre-computed aggregations")
}

func TestAnswerQueryScansColdDataSource(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, nil)

	// No materialization has ever run for this source.
	answer, err := engine.AnswerQuery(ctx, "sales-2026", "What are the total sales of Product A?")
	require.NoError(t, err)

	assert.Equal(t, types.StrategyFullScan, answer.Strategy)
	assert.False(t, answer.Precomputed)
	require.NotNil(t, answer.Value)
	assert.Equal(t, 530.0, *answer.Value)
	assert.Nil(t, answer.LastUpdated)
	assert.Contains(t, answer.Explanation, "calculated by analyzing the data")
}

func TestAnswerQueryScansWhenFactIsStale(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, &Config{FreshnessWindow: time.Nanosecond})

	_, err := engine.MaterializeAggregations(ctx, "sales-2026")
	require.NoError(t, err)

	answer, err := engine.AnswerQuery(ctx, "sales-2026", "What are the total sales of Product A?")
	require.NoError(t, err)

	assert.Equal(t, types.StrategyFullScan, answer.Strategy)
	assert.False(t, answer.Precomputed)
	require.NotNil(t, answer.Value)
	assert.Equal(t, 530.0, *answer.Value)
}

func TestAnswerQuerySemantic(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, nil)

	n, err := engine.IngestRecords(ctx, "sales-2026", testRecords())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	answer, err := engine.AnswerQuery(ctx, "sales-2026", "tell me about product a")
	require.NoError(t, err)

	assert.Equal(t, types.ResultTypeSemantic, answer.ResultType)
	assert.Equal(t, types.StrategySemantic, answer.Strategy)
	assert.Nil(t, answer.Value)
	assert.Equal(t, 0.7, answer.Confidence)
	require.NotEmpty(t, answer.Results)
	assert.Contains(t, strings.ToLower(answer.Results[0].Text), "product a")
}

func TestAnswerQueryColdSourceSemantic(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, nil)
	engine.RegisterDataSource("cold-src", rawdata.NewMemorySource(nil))

	// Nothing ingested and nothing materialized: no collections exist at
	// all. The answer is an empty result set, not an error.
	answer, err := engine.AnswerQuery(ctx, "cold-src", "tell me something interesting")
	require.NoError(t, err)

	assert.Equal(t, types.ResultTypeSemantic, answer.ResultType)
	assert.Empty(t, answer.Results)
	assert.Contains(t, answer.Explanation, "No matching records")
}

func TestAnswerQuerySemanticHonorsConfiguredTopK(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, &Config{TopK: 2})

	n, err := engine.IngestRecords(ctx, "sales-2026", testRecords())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	answer, err := engine.AnswerQuery(ctx, "sales-2026", "tell me about product a")
	require.NoError(t, err)
	require.Len(t, answer.Results, 2)
	assert.Contains(t, strings.ToLower(answer.Results[0].Text), "product a")
}

func TestAnswerQueryEmptyText(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, nil)

	answer, err := engine.AnswerQuery(ctx, "sales-2026", "")
	require.NoError(t, err)

	assert.Equal(t, types.ResultTypeSemantic, answer.ResultType)
	assert.Zero(t, answer.Confidence)
}

func TestAnswerQueryHybrid(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, nil)

	_, err := engine.MaterializeAggregations(ctx, "sales-2026")
	require.NoError(t, err)
	_, err = engine.IngestRecords(ctx, "sales-2026", testRecords())
	require.NoError(t, err)

	answer, err := engine.AnswerQuery(ctx, "sales-2026", "total sales of product a with details")
	require.NoError(t, err)

	assert.Equal(t, types.StrategyHybrid, answer.Strategy)
	require.NotNil(t, answer.Value)
	assert.Equal(t, 530.0, *answer.Value)
	assert.NotEmpty(t, answer.Results)
}

func TestAnswerQueryValidation(t *testing.T) {
	engine := newTestEngine(t, nil)

	_, err := engine.AnswerQuery(context.Background(), "", "total sales")
	assert.ErrorIs(t, err, types.ErrEmptyDataSourceID)
}

func TestIngestRecordsFeedsFullScan(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, nil)

	_, err := engine.IngestRecords(ctx, "sales-2026", []rawdata.SalesRecord{
		{RecordID: "r4", ProductID: "prod-a", Product: "Product A", Category: "electronics",
			Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Quantity: 1, UnitPrice: 100, Amount: 100},
	})
	require.NoError(t, err)

	answer, err := engine.AnswerQuery(ctx, "sales-2026", "What are the total sales of Product A?")
	require.NoError(t, err)
	require.NotNil(t, answer.Value)
	assert.Equal(t, 630.0, *answer.Value)
}

func TestConcurrentQueriesDuringMaterialization(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 3; i++ {
			_, err := engine.MaterializeAggregations(ctx, "sales-2026")
			assert.NoError(t, err)
		}
	}()

	// Readers must always see a whole fact or none, never a torn one.
	for i := 0; i < 20; i++ {
		answer, err := engine.AnswerQuery(ctx, "sales-2026", "What are the total sales of Product A?")
		require.NoError(t, err)
		require.NotNil(t, answer.Value)
		assert.Equal(t, 530.0, *answer.Value)
	}
	wg.Wait()
}

func TestMaterializeIsRepeatable(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, nil)

	first, err := engine.MaterializeAggregations(ctx, "sales-2026")
	require.NoError(t, err)
	second, err := engine.MaterializeAggregations(ctx, "sales-2026")
	require.NoError(t, err)

	assert.Equal(t, first.FactsWritten, second.FactsWritten)
	assert.Positive(t, first.FactsWritten)
}
