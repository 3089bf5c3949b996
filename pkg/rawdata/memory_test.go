package rawdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soundprediction/aggrego/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords() []SalesRecord {
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	return []SalesRecord{
		{RecordID: "r1", ProductID: "prod-a", Product: "Product A", Category: "electronics", Date: jan, Quantity: 2, UnitPrice: 100, Amount: 200},
		{RecordID: "r2", ProductID: "prod-a", Product: "Product A", Category: "electronics", Date: feb, Quantity: 3, UnitPrice: 110, Amount: 330},
		{RecordID: "r3", ProductID: "prod-b", Product: "Product B", Category: "furniture", Date: jan, Quantity: 1, UnitPrice: 50, Amount: 50},
	}
}

func TestListSubjectsByType(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource(testRecords())

	tests := []struct {
		aggType  types.AggregationType
		expected []Subject
	}{
		{types.TotalBySubject, []Subject{{ID: "prod-a", Name: "Product A"}, {ID: "prod-b", Name: "Product B"}}},
		{types.ByCategory, []Subject{{ID: "electronics", Name: "electronics"}, {ID: "furniture", Name: "furniture"}}},
		{types.ByDateRange, []Subject{{ID: "2026-01", Name: "2026-01"}, {ID: "2026-02", Name: "2026-02"}}},
	}

	for _, tt := range tests {
		subjects, err := src.ListSubjects(ctx, tt.aggType)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, subjects, "subjects for %s", tt.aggType)
	}
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource(testRecords())

	tests := []struct {
		name      string
		aggType   types.AggregationType
		fn        types.AggregationFunction
		subjectID string
		expected  float64
	}{
		{"total for product", types.TotalBySubject, types.FunctionSum, "prod-a", 530},
		{"total across all", types.TotalBySubject, types.FunctionSum, types.SubjectAll, 580},
		{"units for product", types.CountBySubject, types.FunctionSum, "prod-a", 5},
		{"average price", types.AverageBySubject, types.FunctionAvg, "prod-a", 105},
		{"category total", types.ByCategory, types.FunctionSum, "electronics", 530},
		{"month total", types.ByDateRange, types.FunctionSum, "2026-01", 250},
		{"min amount", types.TotalBySubject, types.FunctionMin, types.SubjectAll, 50},
		{"max amount", types.TotalBySubject, types.FunctionMax, types.SubjectAll, 330},
		{"row count", types.TotalBySubject, types.FunctionCount, "prod-a", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := src.Aggregate(ctx, tt.aggType, tt.fn, tt.subjectID)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestAggregateNoRecords(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource(testRecords())

	_, err := src.Aggregate(ctx, types.TotalBySubject, types.FunctionSum, "prod-missing")
	assert.True(t, errors.Is(err, ErrNoRecords))
}

func TestAggregateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewMemorySource(testRecords())
	_, err := src.Aggregate(ctx, types.TotalBySubject, types.FunctionSum, types.SubjectAll)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource(nil)
	src.Append(testRecords()...)

	got, err := src.Aggregate(ctx, types.TotalBySubject, types.FunctionSum, types.SubjectAll)
	require.NoError(t, err)
	assert.InDelta(t, 580, got, 1e-9)
}
