package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"synesis-hq/synesis/pkg/syn"
	"synesis-hq/synesis/pkg/syn/compiler"
	"synesis-hq/synesis/pkg/syn/linker"
)

const testTemplate = `TEMPLATE notes
ITEM FIELDS
    REQUIRED quote
    OPTIONAL code
END ITEM FIELDS
FIELD quote TYPE QUOTATION
END FIELD
FIELD code TYPE CODE
END FIELD
END TEMPLATE
`

const testBibliography = `@misc{doe2020, title = {Notes}}`

func compileNotes(t *testing.T, annotations string, strict bool) *compiler.Result {
	t.Helper()
	opts := compiler.DefaultOptions()
	opts.Strict = strict
	res, err := syn.Load(context.Background(), syn.Sources{
		Template:     testTemplate,
		Bibliography: testBibliography,
		Annotations:  map[string]string{"notes.syn": annotations},
		Ontologies:   map[string]string{"concepts.syno": "ONTOLOGY Known\nEND ONTOLOGY\n"},
	}, &opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return res
}

const undefinedCode = `SOURCE @doe2020
    ITEM
        quote: hello
        code: Mystery
    END ITEM
END SOURCE
`

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{" JSON ", FormatJSON, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTextFormatter(t *testing.T) {
	formatter := &TextFormatter{}

	output, err := formatter.Format("test message")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(output) != "test message\n" {
		t.Errorf("Format() = %q", output)
	}

	buf := &bytes.Buffer{}
	if err := formatter.FormatTo(buf, "test message"); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if buf.String() != "test message\n" {
		t.Errorf("FormatTo() = %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	tests := []struct {
		name   string
		data   any
		indent bool
	}{
		{"simple string", "test", false},
		{"map with indent", map[string]string{"key": "value"}, true},
		{"html is not escaped", map[string]string{"chain": "A -> B"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			if err := (&JSONFormatter{Indent: tt.indent}).FormatTo(buf, tt.data); err != nil {
				t.Fatalf("FormatTo() error = %v", err)
			}
			var result any
			if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
				t.Errorf("FormatTo() produced invalid JSON: %v", err)
			}
			if strings.Contains(buf.String(), `\u003e`) {
				t.Errorf("FormatTo() escaped HTML: %s", buf.String())
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{"unknown", "*cli.TextFormatter"},
	}
	for _, tt := range tests {
		if got := fmt.Sprintf("%T", NewFormatter(tt.format)); got != tt.want {
			t.Errorf("NewFormatter(%q) type = %v, want %v", tt.format, got, tt.want)
		}
	}
}

func TestWriteDiagnostics_Text(t *testing.T) {
	res := compileNotes(t, undefinedCode, false)

	buf := &bytes.Buffer{}
	if err := WriteDiagnostics(buf, res, FormatText, 1); err != nil {
		t.Fatalf("WriteDiagnostics() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"warning[UndefinedCode]",
		"--> notes.syn:4:",
		"code: Mystery",
		"✓ default: 0 error(s), 1 warning(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
}

func TestWriteDiagnostics_Strict(t *testing.T) {
	res := compileNotes(t, undefinedCode, true)

	buf := &bytes.Buffer{}
	if err := WriteDiagnostics(buf, res, FormatText, 0); err != nil {
		t.Fatalf("WriteDiagnostics() error = %v", err)
	}
	if !strings.Contains(buf.String(), "✗ default: 0 error(s), 1 warning(s) (strict: warnings are errors)") {
		t.Errorf("unexpected summary:\n%s", buf.String())
	}
}

func TestWriteDiagnostics_JSON(t *testing.T) {
	res := compileNotes(t, "ITEM @nobody\n    quote: hello\nEND ITEM\n", false)

	buf := &bytes.Buffer{}
	if err := WriteDiagnostics(buf, res, FormatJSON, 2); err != nil {
		t.Fatalf("WriteDiagnostics() error = %v", err)
	}

	var report Report
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.Status != "failed" || report.RunID != res.ID.String() {
		t.Errorf("unexpected report: %+v", report)
	}
	if len(report.Diagnostics) == 0 || report.Diagnostics[0].Position.File != "notes.syn" {
		t.Errorf("unexpected diagnostics: %+v", report.Diagnostics)
	}
}

func TestNewReport_NoDiagnostics(t *testing.T) {
	res := compileNotes(t, "SOURCE @doe2020\n    ITEM\n        quote: hello\n    END ITEM\nEND SOURCE\n", false)

	data, err := NewFormatter(FormatJSON).Format(NewReport(res))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"diagnostics": []`) {
		t.Errorf("expected an empty diagnostics array:\n%s", data)
	}
}

func TestWriteStats(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteStats(buf, linker.Stats{Sources: 2, Items: 14, Triples: 3}); err != nil {
		t.Fatalf("WriteStats() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 9 {
		t.Fatalf("got %d lines, want 9:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "  Items:") || !strings.HasSuffix(lines[1], "14") {
		t.Errorf("unexpected items line %q", lines[1])
	}
}
