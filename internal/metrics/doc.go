// Package metrics provides lock-free counters for auth-core observability.
//
// # Design
//
// Counters live in a fixed array of atomic uint64 slots indexed by
// [MetricID]. The write path is allocation-free; Snapshot copies the
// counters into a map for callers that want to export them.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshot creation. Export
// (Prometheus, logs) is the caller's concern and reads Snapshot values.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import authcore or any sibling package.
//   - Expose global metric registries.
package metrics
