package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spektr-org/canvas/model"
	"github.com/spektr-org/canvas/schema"
)

// ============================================================================
// SORT/FILTER PIPELINE TESTS
// ============================================================================

func singleColumn(values ...string) RecordView {
	records := make([]Record, len(values))
	for i, v := range values {
		records[i] = NewRecord(map[string]string{"v": v, "pos": formatNumber(float64(i))})
	}
	return NewSliceView(records, "v", "pos")
}

func sortedValues(view RecordView, p Pipeline) []string {
	return Column(p.Apply(view), "v")
}

func permutations(values []string) [][]string {
	if len(values) <= 1 {
		return [][]string{append([]string(nil), values...)}
	}
	var out [][]string
	for i := range values {
		rest := make([]string, 0, len(values)-1)
		rest = append(rest, values[:i]...)
		rest = append(rest, values[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]string{values[i]}, p...))
		}
	}
	return out
}

func TestDateNumSortsDatesThenNumbersThenText(t *testing.T) {
	p := Pipeline{Sorts: []SortLevel{{Column: "v", Type: schema.SortDateNum}}}
	for _, in := range permutations([]string{"10/05/2024", "7", "abc"}) {
		assert.Equal(t, []string{"10/05/2024", "7", "abc"}, sortedValues(singleColumn(in...), p), "input %v", in)
	}
}

func TestDateNumWithinClass(t *testing.T) {
	p := Pipeline{Sorts: []SortLevel{{Column: "v", Type: schema.SortDateNum}}}
	got := sortedValues(singleColumn("b", "12", "02/01/2024", "3,5", "01/02/2024", "A"), p)
	assert.Equal(t, []string{"02/01/2024", "01/02/2024", "3,5", "12", "A", "b"}, got)

	p.Sorts[0].Direction = model.Descending
	got = sortedValues(singleColumn("b", "12", "02/01/2024", "3,5", "01/02/2024", "A"), p)
	assert.Equal(t, []string{"b", "A", "12", "3,5", "01/02/2024", "02/01/2024"}, got)
}

func TestDateNumTreatsNonFiniteWordsAsText(t *testing.T) {
	p := Pipeline{Sorts: []SortLevel{{Column: "v", Type: schema.SortDateNum}}}
	assert.Equal(t, []string{"3", "7", "abc", "nan"}, sortedValues(singleColumn("nan", "7", "abc", "3"), p))
	assert.Equal(t, []string{"10/05/2024", "7", "abc", "inf"}, sortedValues(singleColumn("abc", "inf", "7", "10/05/2024"), p))
	assert.Equal(t, []string{"2", "0x1p3", "Infinity"}, sortedValues(singleColumn("Infinity", "0x1p3", "2"), p))
}

func TestNumericSortIsDecimalCommaAware(t *testing.T) {
	p := Pipeline{Sorts: []SortLevel{{Column: "v", Type: schema.SortNumeric}}}
	got := sortedValues(singleColumn("10", "9,5", "100", "-1", "n/a"), p)
	assert.Equal(t, []string{"-1", "9,5", "10", "100", "n/a"}, got)

	got = sortedValues(singleColumn("1.234,56", "2,5"), p)
	assert.Equal(t, []string{"2,5", "1.234,56"}, got)
}

func TestDateSortParsesDayFirst(t *testing.T) {
	p := Pipeline{Sorts: []SortLevel{{Column: "v", Type: schema.SortDate}}}
	got := sortedValues(singleColumn("01/03/2024", "15/02/2024", "02/01/2025"), p)
	assert.Equal(t, []string{"15/02/2024", "01/03/2024", "02/01/2025"}, got)
}

func TestBlanksSortLastInBothDirections(t *testing.T) {
	for _, dir := range []model.Direction{model.Ascending, model.Descending} {
		p := Pipeline{Sorts: []SortLevel{{Column: "v", Direction: dir, Type: schema.SortText}}}
		got := sortedValues(singleColumn("", "b", " ", "a"), p)
		assert.ElementsMatch(t, []string{"", " "}, got[2:], "dir %s", dir)
		if dir == model.Ascending {
			assert.Equal(t, []string{"a", "b"}, got[:2])
		} else {
			assert.Equal(t, []string{"b", "a"}, got[:2])
		}
	}
}

func TestMultiLevelSortIsStable(t *testing.T) {
	records := []Record{
		NewRecord(map[string]string{"region": "North", "amount": "5", "id": "1"}),
		NewRecord(map[string]string{"region": "South", "amount": "5", "id": "2"}),
		NewRecord(map[string]string{"region": "North", "amount": "7", "id": "3"}),
		NewRecord(map[string]string{"region": "North", "amount": "5", "id": "4"}),
	}
	view := NewSliceView(records, "region", "amount", "id")
	p := Pipeline{Sorts: []SortLevel{
		{Column: "region", Type: schema.SortText},
		{Column: "amount", Direction: model.Descending, Type: schema.SortNumeric},
	}}
	assert.Equal(t, []string{"3", "1", "4", "2"}, Column(p.Apply(view), "id"))
	// input untouched
	assert.Equal(t, []string{"1", "2", "3", "4"}, Column(view, "id"))
}

func TestPipelineFiltersAndOptions(t *testing.T) {
	p := Pipeline{}.SetFilter("region", "North").SetFilter("status", "open")
	view := ordersView()

	out := p.Apply(view)
	assert.Equal(t, []string{"alice"}, Column(out, "customer"))

	assert.Equal(t, []string{"North", "South"}, p.Options(view, "region"))
	assert.Equal(t, []string{"closed", "open"}, p.Options(view, "status"))

	cleared := p.SetFilter("region")
	assert.Len(t, cleared.Filters, 1)
	assert.Len(t, p.Filters, 2)
}

func TestToggleSortCycles(t *testing.T) {
	p := Pipeline{}.ToggleSort("amount", schema.SortNumeric)
	assert.Equal(t, []SortLevel{{Column: "amount", Type: schema.SortNumeric}}, p.Sorts)

	p = p.ToggleSort("region", schema.SortText).ToggleSort("amount", schema.SortNumeric)
	assert.Equal(t, model.Descending, p.Sorts[0].Direction)
	assert.Equal(t, "region", p.Sorts[1].Column)

	p = p.ToggleSort("amount", schema.SortNumeric)
	assert.Equal(t, []SortLevel{{Column: "region", Type: schema.SortText}}, p.Sorts)
}
