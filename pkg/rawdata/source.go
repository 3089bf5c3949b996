package rawdata

import (
	"context"
	"errors"
	"time"

	"github.com/soundprediction/aggrego/pkg/types"
)

var (
	// ErrNoRecords is returned when an aggregation matches no rows.
	ErrNoRecords = errors.New("no records match the aggregation")
	// ErrUnsupportedAggregation is returned for a scan path that is not
	// wired for the requested aggregation type.
	ErrUnsupportedAggregation = errors.New("aggregation type not supported by this source")
)

// Subject is one distinct grouping value for an aggregation type, e.g. a
// product for total_by_subject or a category for by_category.
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SalesRecord is one raw analytics row. The field set mirrors the record
// shape the ingestion pipeline embeds per row.
type SalesRecord struct {
	RecordID  string    `json:"record_id" parquet:"record_id"`
	ProductID string    `json:"product_id" parquet:"product_id"`
	Product   string    `json:"product" parquet:"product"`
	Category  string    `json:"category" parquet:"category"`
	Date      time.Time `json:"date" parquet:"date"`
	Quantity  float64   `json:"quantity" parquet:"quantity"`
	UnitPrice float64   `json:"unit_price" parquet:"unit_price"`
	Amount    float64   `json:"amount" parquet:"amount"`
}

// Source supplies raw rows for on-demand aggregation and subject
// enumeration. It is an external collaborator: warehouse connectors live
// behind this interface, outside the engine.
type Source interface {
	// ListSubjects enumerates the distinct subjects relevant to an
	// aggregation type, e.g. distinct products for total_by_subject.
	ListSubjects(ctx context.Context, aggType types.AggregationType) ([]Subject, error)

	// Aggregate computes a single numeric value: the fn reduction over the
	// rows grouped by aggType's dimension and filtered to subjectID.
	// SubjectAll means no filter.
	Aggregate(ctx context.Context, aggType types.AggregationType, fn types.AggregationFunction, subjectID string) (float64, error)
}
