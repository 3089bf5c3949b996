// Package vectorindex provides similarity-search backends for embedded
// records and aggregate facts.
//
// Two collections exist per data source: datasource_{id} for raw record
// embeddings written by the ingestion pipeline, and aggregates_{id} for
// materialized fact embeddings. Both use cosine distance.
//
// # Supported Backends
//
//   - QdrantIndex: Qdrant over its REST API
//   - MemoryIndex: in-process brute-force cosine search for tests and
//     single-node use
package vectorindex
