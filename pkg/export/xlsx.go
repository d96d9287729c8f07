package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter writes a snapshot as one workbook with a sheet per table.
type XLSXExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewXLSXExporter creates a new XLSX exporter.
func NewXLSXExporter(includeHeader bool) *XLSXExporter {
	return &XLSXExporter{IncludeHeader: includeHeader}
}

// Export writes every table of snap to w, sheets in Tables order.
func (e *XLSXExporter) Export(ctx context.Context, snap *Snapshot, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, table := range Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), table); err != nil {
				return NewExportError(FormatXLSX, table, err)
			}
		} else if _, err := f.NewSheet(table); err != nil {
			return NewExportError(FormatXLSX, table, err)
		}
		if err := e.writeSheet(ctx, f, snap, table); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return NewExportError(FormatXLSX, "workbook", err)
	}
	return nil
}

func (e *XLSXExporter) writeSheet(ctx context.Context, f *excelize.File, snap *Snapshot, table string) error {
	header, rows, err := tableRows(snap, table)
	if err != nil {
		return NewExportError(FormatXLSX, table, err)
	}
	if e.IncludeHeader {
		rows = append([][]string{header}, rows...)
	}

	for i, row := range rows {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return NewExportError(FormatXLSX, table, err)
		}
		if err := f.SetSheetRow(table, cell, &row); err != nil {
			return NewExportError(FormatXLSX, table, fmt.Errorf("row %d: %w", i+1, err))
		}
	}
	return nil
}
