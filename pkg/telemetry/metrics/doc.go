// Package metrics provides Prometheus metrics for the Synesis compiler.
//
// # Metrics Categories
//
//   - Compile Metrics: compilations by status, wall time and stage durations
//   - Document Metrics: documents read by kind and their sizes
//   - Diagnostic Metrics: diagnostics by severity and kind
//   - Cache Metrics: hits, misses, entries and evictions of the editor
//     adapter caches
//   - Export Metrics: exporter runs and runs pruned by retention
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Metrics, nil)
//	c := compiler.New(opts).WithMetrics(collector)
//
//	srv := collector.NewServer()
//	go srv.ListenAndServe()
//
// Every recording method is a no-op when metrics are disabled, so a
// collector can be wired unconditionally.
//
// # Cardinality Management
//
// Project names are the only free-form label. After 100 distinct projects
// further names are recorded as "other".
package metrics
