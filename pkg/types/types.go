package types

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrEmptyDataSourceID      = errors.New("data_source_id cannot be empty")
	ErrEmptySubjectID         = errors.New("subject_id cannot be empty")
	ErrEmptyDescription       = errors.New("description cannot be empty")
	ErrUnknownAggregationType = errors.New("unknown aggregation type")
	ErrUnknownStrategy        = errors.New("unknown execution strategy")
)

// ContextKey is the type used for request-scoped context values.
type ContextKey string

const (
	ContextKeyUserID        ContextKey = "user_id"
	ContextKeySessionID     ContextKey = "session_id"
	ContextKeyRequestSource ContextKey = "request_source"
)

// AggregationType identifies one member of the fixed aggregation catalog.
// It is a closed enumeration: construct values through ParseAggregationType
// so that unknown names are rejected at the boundary rather than at
// dispatch time.
type AggregationType string

const (
	TotalBySubject   AggregationType = "total_by_subject"
	CountBySubject   AggregationType = "count_by_subject"
	AverageBySubject AggregationType = "average_by_subject"
	ByCategory       AggregationType = "by_category"
	ByDateRange      AggregationType = "by_date_range"
)

// AllAggregationTypes lists every catalog member in materialization order.
func AllAggregationTypes() []AggregationType {
	return []AggregationType{
		TotalBySubject,
		CountBySubject,
		AverageBySubject,
		ByCategory,
		ByDateRange,
	}
}

// ParseAggregationType validates a free-form string against the catalog.
func ParseAggregationType(s string) (AggregationType, error) {
	switch AggregationType(s) {
	case TotalBySubject, CountBySubject, AverageBySubject, ByCategory, ByDateRange:
		return AggregationType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAggregationType, s)
}

// AggregationFunction is the reduction applied over raw records.
type AggregationFunction string

const (
	FunctionSum   AggregationFunction = "sum"
	FunctionCount AggregationFunction = "count"
	FunctionAvg   AggregationFunction = "avg"
	FunctionMin   AggregationFunction = "min"
	FunctionMax   AggregationFunction = "max"
)

// QueryKind classifies what a free-text query is asking for.
type QueryKind string

const (
	KindSemantic    QueryKind = "semantic"
	KindFilter      QueryKind = "filter"
	KindAggregation QueryKind = "aggregation"
	KindHybrid      QueryKind = "hybrid"
)

// Strategy is the execution path chosen for one query.
type Strategy string

const (
	StrategyPrecomputed Strategy = "precomputed_aggregation"
	StrategyFullScan    Strategy = "full_scan_aggregation"
	StrategySemantic    Strategy = "semantic_search"
	StrategyHybrid      Strategy = "hybrid"
)

// ResultType distinguishes the two answer envelope shapes.
type ResultType string

const (
	ResultTypeAggregation ResultType = "aggregation"
	ResultTypeSemantic    ResultType = "semantic"
)
