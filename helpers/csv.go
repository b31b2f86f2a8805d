package helpers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/schema"
)

// ============================================================================
// CSV HELPER — Parses CSV data into a Dataset
// ============================================================================
// Consumer reads the file from wherever it lives. The header row becomes
// column keys (schema.Key), column types are discovered from the values and
// every row becomes an engine.Record.
// ============================================================================

// Dataset is a materialised table ready to register with a query service.
type Dataset struct {
	Table   schema.Table
	Keys    []string
	Records []engine.Record
}

// View exposes the dataset as a RecordView.
func (d *Dataset) View() engine.RecordView {
	return engine.NewSliceView(d.Records, d.Keys...)
}

// ParseCSV parses CSV bytes into a dataset named table.
func ParseCSV(data []byte, table string) (*Dataset, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}
	return fromRows(table, headers, rows)
}

func fromRows(table string, headers []string, rows [][]string) (*Dataset, error) {
	t, err := schema.DiscoverTable(table, headers, rows)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		keys[i] = c.Name
	}

	records := make([]engine.Record, 0, len(rows))
	for _, row := range rows {
		rec := engine.Record{Dimensions: make(map[string]string, len(keys))}
		for i, key := range keys {
			val := ""
			if i < len(row) {
				val = strings.TrimSpace(row[i])
			}
			rec.Set(key, val)
		}
		records = append(records, rec)
	}
	return &Dataset{Table: t, Keys: keys, Records: records}, nil
}
