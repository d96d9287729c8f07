package export

import (
	"context"
	"encoding/json"
	"io"
)

// JSONExporter writes a snapshot as one JSON document.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes snap to w.
func (e *JSONExporter) Export(ctx context.Context, snap *Snapshot, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(snap); err != nil {
		return NewExportError(FormatJSON, snap.Run.Project, err)
	}
	return nil
}
