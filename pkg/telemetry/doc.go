// Package telemetry groups the observability packages of the Synesis tools.
//
//   - logging: structured logging with compilation context fields
//   - metrics: Prometheus metrics for compilations, documents, diagnostics,
//     adapter caches and exporters
package telemetry
