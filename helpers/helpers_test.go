package helpers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/schema"
)

const ordersCSV = `Order Date,Region,Amount
10/05/2024,North,10
11/05/2024,South,"25,5"
12/05/2024,,7
`

func TestParseCSV(t *testing.T) {
	ds, err := ParseCSV([]byte(ordersCSV), "orders")
	require.NoError(t, err)

	assert.Equal(t, []string{"order_date", "region", "amount"}, ds.Keys)
	assert.Equal(t, "orders", ds.Table.Name)
	require.Len(t, ds.Table.Columns, 3)
	assert.Equal(t, schema.TypeReal, ds.Table.Columns[2].Type)
	assert.Equal(t, schema.TypeDate, ds.Table.Columns[0].Type)

	view := ds.View()
	require.Equal(t, 3, view.Len())
	assert.Equal(t, "", view.Dimension(2, "region"))
	m, ok := view.Measure(1, "amount")
	require.True(t, ok)
	assert.Equal(t, 25.5, m)
}

func TestParseCSVNoHeader(t *testing.T) {
	_, err := ParseCSV(nil, "empty")
	assert.Error(t, err)
}

func TestExportAndParseXLSX(t *testing.T) {
	table := &engine.TableData{
		Title: "Sales by region",
		Columns: []engine.TableColumn{
			{Key: "region", Label: "Region", Type: "text"},
			{Key: "sum_amount", Label: "Sum of amount", Type: "number"},
		},
		Rows:    [][]string{{"North", "30"}, {"South", "5.5"}},
		Summary: &engine.Summary{Label: "Total (2 rows)", Values: map[string]string{"sum_amount": "35.5"}},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, table))

	ds, err := ParseXLSX(&buf, "export", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "sum_of_amount"}, ds.Keys)

	view := ds.View()
	require.Equal(t, 3, view.Len())
	assert.Equal(t, "North", view.Dimension(0, "region"))
	assert.Equal(t, "5.5", view.Dimension(1, "sum_of_amount"))
	assert.Equal(t, "Total (2 rows)", view.Dimension(2, "region"))
	assert.Equal(t, "35.5", view.Dimension(2, "sum_of_amount"))
}
