// Package rawdata abstracts the raw-record collaborator that supplies rows
// for on-demand aggregation and subject enumeration.
//
// The engine never scans rows itself; it asks a Source for distinct
// subjects per aggregation type and for single reduced values. Two
// implementations ship here: MemorySource for tests and startup-loaded
// datasets, and ParquetSource for exported record files. Warehouse
// connectors implement the same interface outside this repository.
package rawdata
