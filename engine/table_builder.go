package engine

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/spektr-org/canvas/model"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from a Descriptor and its result rows
// ============================================================================
// Column labels follow the binding alias; aggregated columns read
// "{Aggregation} of {alias}". Numeric columns are right-aligned and totalled.
// ============================================================================

// BuildTable renders result rows (already filtered and sorted) as a table.
func BuildTable(title string, d Descriptor, view RecordView) *TableData {
	outputs := d.Outputs()
	columns := make([]TableColumn, 0, len(outputs))
	for _, b := range outputs {
		label := b.Label()
		if b.Aggregation != model.AggNone {
			label = AggregatedFilterName(b)
		}
		col := TableColumn{Key: OutputKey(b), Label: label, Type: "text", Align: "left"}
		if numericColumn(view, col.Key) {
			col.Type, col.Align = "number", "right"
		}
		columns = append(columns, col)
	}

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		row := make([]string, len(columns))
		for c, col := range columns {
			row[c] = view.Dimension(i, col.Key)
		}
		rows = append(rows, row)
	}

	table := &TableData{Title: title, Columns: columns, Rows: rows}
	if view.Len() == 0 {
		return table
	}

	totals := map[string]string{}
	for _, col := range columns {
		if col.Type != "number" {
			continue
		}
		if sum, err := stats.Sum(numbers(view, col.Key)); err == nil {
			totals[col.Key] = formatNumber(sum)
		}
	}
	if len(totals) > 0 {
		table.Summary = &Summary{
			Label:  fmt.Sprintf("Total (%d rows)", view.Len()),
			Values: totals,
		}
	}
	return table
}

// numericColumn reports whether every non-blank value of key is a number.
func numericColumn(view RecordView, key string) bool {
	seen := false
	for i := 0; i < view.Len(); i++ {
		if isBlank(view.Dimension(i, key)) {
			continue
		}
		if _, ok := view.Measure(i, key); !ok {
			return false
		}
		seen = true
	}
	return seen
}
