// Package aggstore provides the keyed table of precomputed aggregate facts.
//
// Each fact is addressed by {data_source_id}:{aggregation_type}:{subject_id}
// and is written only by the materializer, with upsert semantics: the same
// key always overwrites, never appends. Stale facts are never deleted
// eagerly; the planner's freshness check decides whether a fact is usable.
//
// # Supported Backends
//
//   - BadgerStore: embedded persistent KV store
//   - MemoryStore: process-local, for tests and ephemeral deployments
//
// Wrap either in an IndexedStore to mirror fact embeddings into the vector
// index so facts can also be found by semantic similarity.
package aggstore
