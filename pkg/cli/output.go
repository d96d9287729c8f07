package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"synesis-hq/synesis/pkg/export"
	"synesis-hq/synesis/pkg/syn/compiler"
	synerrors "synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/linker"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is human-readable text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output for scripts and editors.
	FormatJSON OutputFormat = "json"
)

// ParseFormat parses an output format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q, must be one of: text, json", s)
}

// Formatter formats command output.
type Formatter interface {
	Format(data any) ([]byte, error)
	FormatTo(w io.Writer, data any) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct{}

// Format converts data to text format.
func (f *TextFormatter) Format(data any) ([]byte, error) {
	return []byte(fmt.Sprintf("%v\n", data)), nil
}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format converts data to JSON format.
func (f *JSONFormatter) Format(data any) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	default:
		return &TextFormatter{}
	}
}

// Report is the JSON form of a compilation's diagnostics.
type Report struct {
	Project     string                    `json:"project"`
	RunID       string                    `json:"run_id"`
	Status      string                    `json:"status"`
	Strict      bool                      `json:"strict"`
	Stats       linker.Stats              `json:"stats"`
	Diagnostics []export.DiagnosticRecord `json:"diagnostics"`
}

// NewReport builds the report of res.
func NewReport(res *compiler.Result) *Report {
	snap := export.NewSnapshot(res)
	r := &Report{
		Project:     snap.Run.Project,
		RunID:       snap.Run.ID,
		Status:      snap.Run.Status,
		Strict:      snap.Run.Strict,
		Stats:       snap.Run.Stats,
		Diagnostics: snap.Diagnostics,
	}
	if r.Diagnostics == nil {
		r.Diagnostics = []export.DiagnosticRecord{}
	}
	return r
}

// WriteDiagnostics writes the diagnostics of res. Text output renders each
// diagnostic with contextLines lines of source around it and ends with a
// summary line; JSON output writes a Report.
func WriteDiagnostics(w io.Writer, res *compiler.Result, format OutputFormat, contextLines int) error {
	if format == FormatJSON {
		return NewFormatter(FormatJSON).FormatTo(w, NewReport(res))
	}

	if res.Diagnostics != nil {
		synerrors.AttachContext(res.Diagnostics, res.Sources, contextLines)
		if err := WriteDiagnosticList(w, res.Diagnostics); err != nil {
			return err
		}
	}
	return WriteSummary(w, res)
}

// WriteDiagnosticList writes every diagnostic of dl followed by a blank line.
func WriteDiagnosticList(w io.Writer, dl *synerrors.DiagnosticList) error {
	for _, d := range dl.Diagnostics {
		if _, err := fmt.Fprintf(w, "%s\n", d.Error()); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary writes the one-line outcome of res.
func WriteSummary(w io.Writer, res *compiler.Result) error {
	mark := "✓"
	if res.Failed() {
		mark = "✗"
	}
	_, err := fmt.Fprintf(w, "%s %s: %d error(s), %d warning(s)", mark, res.Name, res.Stats.Errors, res.Stats.Warnings)
	if err != nil {
		return err
	}
	if res.Strict && res.Stats.Warnings > 0 {
		if _, err := fmt.Fprint(w, " (strict: warnings are errors)"); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, " in %s\n", res.Duration.Round(time.Microsecond))
	return err
}

// WriteStats writes compilation statistics as an aligned table.
func WriteStats(w io.Writer, stats linker.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []struct {
		name  string
		value int
	}{
		{"Sources", stats.Sources},
		{"Items", stats.Items},
		{"Concepts", stats.Concepts},
		{"Codes", stats.Codes},
		{"Chains", stats.Chains},
		{"Triples", stats.Triples},
		{"Errors", stats.Errors},
		{"Warnings", stats.Warnings},
		{"Infos", stats.Infos},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s:\t%d\n", r.name, r.value)
	}
	return tw.Flush()
}
