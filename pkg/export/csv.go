package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Table names of the CSV exporter.
const (
	TableSources     = "sources"
	TableItems       = "items"
	TableCodes       = "codes"
	TableRelations   = "relations"
	TableOntology    = "ontology"
	TableTopics      = "topics"
	TableDiagnostics = "diagnostics"
)

// Tables lists every CSV table in output order.
var Tables = []string{TableSources, TableItems, TableCodes, TableRelations, TableOntology, TableTopics, TableDiagnostics}

// listSeparator joins multi-valued cells.
const listSeparator = "; "

// CSVExporter writes the tables of a snapshot, one table per call.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// ExportTable writes one table of snap to w.
func (e *CSVExporter) ExportTable(ctx context.Context, snap *Snapshot, table string, w io.Writer) error {
	header, rows, err := tableRows(snap, table)
	if err != nil {
		return NewExportError(FormatCSV, table, err)
	}

	writer := csv.NewWriter(w)
	if e.IncludeHeader {
		if err := writer.Write(header); err != nil {
			return NewExportError(FormatCSV, table, err)
		}
	}
	for i, row := range rows {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := writer.Write(row); err != nil {
			return NewExportError(FormatCSV, table, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return NewExportError(FormatCSV, table, err)
	}
	return nil
}

func tableRows(s *Snapshot, table string) ([]string, [][]string, error) {
	var rows [][]string
	switch table {
	case TableSources:
		for _, r := range s.Sources {
			rows = append(rows, []string{
				r.Key, r.Bibref, r.Citation, r.EntryType, r.Entry["title"],
				itoa(r.Items), joinFields(r.Fields), r.Position.File, itoa(r.Position.Line),
			})
		}
		return []string{"key", "bibref", "citation", "entry_type", "title", "items", "fields", "file", "line"}, rows, nil

	case TableItems:
		for _, r := range s.Items {
			rows = append(rows, []string{
				itoa(r.Seq), r.SourceKey, r.Bibref, strconv.FormatBool(r.Nested), r.Quote,
				strings.Join(r.Codes, listSeparator), strings.Join(r.Memos, listSeparator),
				strings.Join(r.Chains, listSeparator), r.Position.File, itoa(r.Position.Line),
			})
		}
		return []string{"seq", "source_key", "bibref", "nested", "quote", "codes", "memos", "chains", "file", "line"}, rows, nil

	case TableCodes:
		for _, r := range s.Codes {
			rows = append(rows, []string{r.Code, itoa(r.Count), itoa(r.Items), strconv.FormatBool(r.Defined)})
		}
		return []string{"code", "count", "items", "defined"}, rows, nil

	case TableRelations:
		for _, r := range s.Relations {
			rows = append(rows, []string{
				itoa(r.Seq), r.From, r.Relation, r.To, r.Field, r.Bibref,
				strconv.FormatBool(r.Qualified), r.Position.File, itoa(r.Position.Line),
			})
		}
		return []string{"seq", "from", "relation", "to", "field", "bibref", "qualified", "file", "line"}, rows, nil

	case TableOntology:
		for _, r := range s.Ontology {
			rows = append(rows, []string{
				r.Concept, r.Description, strings.Join(r.Ancestors, listSeparator),
				itoa(r.Uses), joinFields(r.Fields), r.Position.File, itoa(r.Position.Line),
			})
		}
		return []string{"concept", "description", "ancestors", "uses", "fields", "file", "line"}, rows, nil

	case TableTopics:
		for _, r := range s.Topics {
			rows = append(rows, []string{
				r.Name, strconv.FormatBool(r.Concept),
				strings.Join(r.Parents, listSeparator), strings.Join(r.Children, listSeparator),
			})
		}
		return []string{"name", "concept", "parents", "children"}, rows, nil

	case TableDiagnostics:
		for _, r := range s.Diagnostics {
			rows = append(rows, []string{
				itoa(r.Seq), r.Severity, r.Kind, r.Position.File, itoa(r.Position.Line),
				itoa(r.Position.Column), r.Message, r.Suggestion,
			})
		}
		return []string{"seq", "severity", "kind", "file", "line", "column", "message", "suggestion"}, rows, nil
	}
	return nil, nil, fmt.Errorf("unknown table %q", table)
}

func joinFields(fs []FieldRecord) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.Name + "=" + f.Value
	}
	return strings.Join(parts, listSeparator)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
