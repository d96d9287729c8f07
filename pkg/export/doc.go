// Package export writes compilation results to disk.
//
// Every exporter works from a Snapshot, the flat record view of one
// compilation built by NewSnapshot:
//
//   - JSONExporter writes the whole snapshot as one document.
//   - CSVExporter writes one table per call (sources, items, codes,
//     relations, ontology, topics, diagnostics).
//   - XLSXExporter writes the same tables as sheets of one workbook.
//   - Store appends runs to a SQLite database keyed by compilation ID. Both
//     the pure Go driver ("sqlite") and the cgo driver ("sqlite3") are
//     registered; the configuration selects one.
//
// Exporter runs the configured formats for the CLI. Pruner deletes stored
// runs older than the retention window and Scheduler runs it on a cron
// schedule in watch mode.
//
// # Layout
//
//	out/<project>.json
//	out/<project>/<table>.csv
//	out/<project>.xlsx
//	out/synesis.db
package export
