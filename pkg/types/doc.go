// Package types defines the shared data model for the query-routing and
// aggregation-materialization engine.
//
// The central persistent type is AggregateFact, a precomputed numeric answer
// keyed by {data_source_id}:{aggregation_type}:{subject_id}. Everything else
// (QueryIntent, ExecutionPlan, ExecutionOutput, AnswerEnvelope) is ephemeral
// request state flowing through the classify → plan → execute → format
// pipeline.
//
// AggregationType, AggregationFunction, QueryKind and Strategy are closed
// enumerations. Unknown names are rejected when parsed at the boundary so
// dispatch switches can be exhaustive.
package types
