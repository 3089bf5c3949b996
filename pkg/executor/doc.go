// Package executor carries out execution plans produced by the planner.
//
// Each strategy maps to one retrieval path:
//
//   - precomputed_aggregation performs a point lookup in the aggregation
//     store and tags the output as precomputed.
//   - full_scan_aggregation recomputes the aggregate from the raw source
//     under a scan deadline. A timeout is reported as an error, and a path
//     with no wired source returns an explicit needs-implementation flag.
//   - semantic_search embeds the query and searches the data source's
//     record and materialized-fact collections, merged by score.
//   - hybrid runs the numeric path first and attaches supporting snippets
//     from the semantic fallback segment.
//
// Outputs always carry the executed strategy and a total wall-clock timing.
package executor
