package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/syn/compiler"
	"synesis-hq/synesis/pkg/telemetry/logging"
)

// Output formats.
const (
	FormatJSON   = "json"
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
	FormatXLSX   = "xlsx"
)

// Formats lists every output format.
var Formats = []string{FormatJSON, FormatCSV, FormatSQLite, FormatXLSX}

// Export statuses recorded in metrics.
const (
	exportSuccess = "success"
	exportError   = "error"
)

// ExportRecorder records exporter outcomes.
type ExportRecorder interface {
	RecordExport(format, status string)
}

// Output describes one written artifact.
type Output struct {
	Format string
	Path   string
}

// Exporter writes compilation results in the configured formats.
type Exporter struct {
	config  config.ExportConfig
	metrics ExportRecorder
	logger  *slog.Logger
}

// NewExporter creates an exporter from cfg.
func NewExporter(cfg *config.ExportConfig) *Exporter {
	return &Exporter{
		config: *cfg,
		logger: logging.Discard(),
	}
}

// WithMetrics sets the recorder of export outcomes.
func (e *Exporter) WithMetrics(r ExportRecorder) *Exporter {
	e.metrics = r
	return e
}

// WithLogger sets the logger.
func (e *Exporter) WithLogger(logger *slog.Logger) *Exporter {
	if logger != nil {
		e.logger = logger.With("component", "export")
	}
	return e
}

// Export writes res in each of formats, or the configured formats when none
// are given. JSON goes to <output>/<project>.json, CSV tables to
// <output>/<project>/<table>.csv, the XLSX workbook to <output>/<project>.xlsx
// and runs are appended to the SQLite store.
// A failed compilation is exported only when force is set.
func (e *Exporter) Export(ctx context.Context, res *compiler.Result, formats []string, force bool) ([]Output, error) {
	if _, err := res.Output(force); err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		formats = e.config.Formats
	}

	snap := NewSnapshot(res)
	name := projectFileName(res.Name)

	var outputs []Output
	for _, format := range dedupe(formats) {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}

		var (
			written []Output
			err     error
		)
		switch format {
		case FormatJSON:
			written, err = e.writeJSON(ctx, snap, name)
		case FormatCSV:
			written, err = e.writeCSV(ctx, snap, name)
		case FormatSQLite:
			written, err = e.writeSQLite(ctx, snap)
		case FormatXLSX:
			written, err = e.writeXLSX(ctx, snap, name)
		default:
			err = NewExportError(format, name, fmt.Errorf("unknown format %q, must be one of: %s", format, strings.Join(Formats, ", ")))
		}

		e.record(format, err)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, written...)
		e.logger.InfoContext(ctx, "exported",
			"format", format,
			"project", res.Name,
			"run_id", snap.Run.ID)
	}
	return outputs, nil
}

func (e *Exporter) writeJSON(ctx context.Context, snap *Snapshot, name string) ([]Output, error) {
	path := filepath.Join(e.config.OutputDir, name+".json")
	err := writeFile(path, func(f *os.File) error {
		return NewJSONExporter(e.config.JSONPretty).Export(ctx, snap, f)
	})
	if err != nil {
		return nil, wrapExport(FormatJSON, path, err)
	}
	return []Output{{Format: FormatJSON, Path: path}}, nil
}

func (e *Exporter) writeCSV(ctx context.Context, snap *Snapshot, name string) ([]Output, error) {
	exporter := NewCSVExporter(e.config.CSVIncludeHeader)
	dir := filepath.Join(e.config.OutputDir, name)

	var outputs []Output
	for _, table := range Tables {
		path := filepath.Join(dir, table+".csv")
		err := writeFile(path, func(f *os.File) error {
			return exporter.ExportTable(ctx, snap, table, f)
		})
		if err != nil {
			return outputs, wrapExport(FormatCSV, path, err)
		}
		outputs = append(outputs, Output{Format: FormatCSV, Path: path})
	}
	return outputs, nil
}

func (e *Exporter) writeXLSX(ctx context.Context, snap *Snapshot, name string) ([]Output, error) {
	path := filepath.Join(e.config.OutputDir, name+".xlsx")
	err := writeFile(path, func(f *os.File) error {
		return NewXLSXExporter(e.config.CSVIncludeHeader).Export(ctx, snap, f)
	})
	if err != nil {
		return nil, wrapExport(FormatXLSX, path, err)
	}
	return []Output{{Format: FormatXLSX, Path: path}}, nil
}

func (e *Exporter) writeSQLite(ctx context.Context, snap *Snapshot) ([]Output, error) {
	store, err := OpenStore(ctx, &e.config.SQLite, e.logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if err := store.Save(ctx, snap); err != nil {
		return nil, err
	}
	if e.config.Retention.Days > 0 {
		pruner := NewPruner(store, &e.config.Retention).WithLogger(e.logger)
		if r, ok := e.metrics.(PruneRecorder); ok {
			pruner.WithMetrics(r)
		}
		if _, err := pruner.Prune(ctx); err != nil {
			return nil, err
		}
	}
	return []Output{{Format: FormatSQLite, Path: e.config.SQLite.Path}}, nil
}

func (e *Exporter) record(format string, err error) {
	if e.metrics == nil {
		return
	}
	status := exportSuccess
	if err != nil {
		status = exportError
	}
	e.metrics.RecordExport(format, status)
}

// writeFile creates path and its directory and passes the file to write.
func writeFile(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// wrapExport adds the output path to errors that do not carry a target yet.
func wrapExport(format, path string, err error) error {
	var exportErr *ExportError
	if errors.As(err, &exportErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return NewExportError(format, path, err)
}

func projectFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "project"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

func dedupe(formats []string) []string {
	seen := make(map[string]bool, len(formats))
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
