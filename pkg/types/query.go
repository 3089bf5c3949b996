package types

import "time"

// QueryIntent is the structured interpretation of one free-text query.
// It is produced per request and never persisted.
//
// AggregationType and AggregationFunction are set if and only if Kind is
// KindAggregation or KindHybrid.
type QueryIntent struct {
	Kind                QueryKind           `json:"kind"`
	Entities            map[string]string   `json:"entities,omitempty"`
	AggregationFunction AggregationFunction `json:"aggregation_function,omitempty"`
	AggregationType     AggregationType     `json:"aggregation_type,omitempty"`
	Confidence          float64             `json:"confidence"`
}

// IsAggregation reports whether the intent carries aggregation parameters.
func (i *QueryIntent) IsAggregation() bool {
	return i.Kind == KindAggregation || i.Kind == KindHybrid
}

// ExecutionPlan is the selector's decision for one query.
type ExecutionPlan struct {
	Strategy Strategy    `json:"strategy"`
	Detail   PlanDetail  `json:"detail"`
	Intent   QueryIntent `json:"intent"`

	// Fallback carries the semantic-search segment of a hybrid plan so the
	// executor can enrich a numeric answer with supporting snippets.
	Fallback *PlanDetail `json:"fallback,omitempty"`
}

// PlanDetail holds strategy-specific parameters.
type PlanDetail struct {
	// FactKey is set for precomputed lookups.
	FactKey string `json:"fact_key,omitempty"`

	// Scan parameters for full-scan aggregation.
	DataSourceID        string              `json:"data_source_id,omitempty"`
	AggregationType     AggregationType     `json:"aggregation_type,omitempty"`
	AggregationFunction AggregationFunction `json:"aggregation_function,omitempty"`
	SubjectID           string              `json:"subject_id,omitempty"`
	Entities            map[string]string   `json:"entities,omitempty"`

	// Semantic search parameters.
	Query string `json:"query,omitempty"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchHit is one ranked result from the vector index.
type SearchHit struct {
	ID      string                 `json:"id"`
	Score   float64                `json:"score"`
	Text    string                 `json:"text"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ExecutionOutput is the executor's raw result plus observability metadata.
type ExecutionOutput struct {
	Strategy Strategy `json:"strategy"`

	// Aggregation results.
	Value         float64        `json:"value,omitempty"`
	Fact          *AggregateFact `json:"fact,omitempty"`
	IsPrecomputed bool           `json:"is_precomputed"`

	// NeedsImplementation marks a degraded scan path that is not wired to
	// real data. An explicit placeholder, never a silent wrong answer.
	NeedsImplementation bool `json:"needs_implementation,omitempty"`

	// Semantic results.
	Hits []SearchHit `json:"hits,omitempty"`

	Timings ExecutionTimings `json:"timings"`
}

// ExecutionTimings records where time went during execution.
type ExecutionTimings struct {
	Total     time.Duration `json:"total"`
	Embedding time.Duration `json:"embedding,omitempty"`
	Store     time.Duration `json:"store,omitempty"`
	Scan      time.Duration `json:"scan,omitempty"`
	Search    time.Duration `json:"search,omitempty"`
}

// AnswerEnvelope is the externally visible result of one query.
type AnswerEnvelope struct {
	ResultType  ResultType  `json:"result_type"`
	Value       *float64    `json:"value,omitempty"`
	Results     []SearchHit `json:"results,omitempty"`
	Confidence  float64     `json:"confidence"`
	Precomputed bool        `json:"precomputed"`
	LastUpdated *time.Time  `json:"last_updated,omitempty"`
	Explanation string      `json:"explanation"`
	Strategy    Strategy    `json:"strategy"`
}

// MaterializationReport summarizes one materializer run.
type MaterializationReport struct {
	DataSourceID string                  `json:"data_source_id"`
	FactsWritten int                     `json:"facts_written"`
	ByType       map[AggregationType]int `json:"by_type"`
	Errors       []MaterializationError  `json:"errors,omitempty"`
	Duration     time.Duration           `json:"duration"`
	StartedAt    time.Time               `json:"started_at"`
}

// MaterializationError records a per-type failure that did not abort the run.
type MaterializationError struct {
	AggregationType AggregationType `json:"aggregation_type"`
	Message         string          `json:"message"`
}
