// Package materializer precomputes aggregate facts from raw data sources.
//
// A materialization pass walks the aggregation catalog, enumerates the
// subjects of each aggregation type, computes one value per subject plus
// an all-subjects rollup, renders a deterministic description for each,
// embeds the descriptions in batch, and upserts the resulting facts keyed
// by {dataSourceID}:{aggregationType}:{subjectID}. Re-running a pass
// overwrites existing facts in place, so repeated runs never grow the
// store.
//
// Passes are serialized per data source. A failure in one aggregation type
// is recorded in the run report and leaves the other types untouched.
package materializer
