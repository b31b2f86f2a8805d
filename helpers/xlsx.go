package helpers

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/canvas/engine"
)

// ParseXLSX reads sheet (the first sheet when empty) into a dataset. The
// first row is the header.
func ParseXLSX(r io.Reader, table, sheet string) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}
	return fromRows(table, rows[0], rows[1:])
}

// ExportXLSX writes an expanded table view as a one-sheet workbook. Number
// columns are stored as numbers; the summary becomes a trailing row.
func ExportXLSX(w io.Writer, t *engine.TableData) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if t.Title != "" {
		name := t.Title
		if len(name) > 31 {
			name = name[:31]
		}
		if err := f.SetSheetName(sheet, name); err != nil {
			return err
		}
		sheet = name
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if len(t.Columns) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		values := make([]any, len(row))
		for c, v := range row {
			values[c] = cellValue(t.Columns[c], v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if t.Summary != nil && len(t.Columns) > 0 {
		values := make([]any, len(t.Columns))
		values[0] = t.Summary.Label
		for i, c := range t.Columns {
			if v, ok := t.Summary.Values[c.Key]; ok {
				values[i] = cellValue(c, v)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, len(t.Rows)+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func cellValue(c engine.TableColumn, v string) any {
	if c.Type == "number" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return v
}
