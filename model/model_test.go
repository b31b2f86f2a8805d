package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/canvas/schema"
)

func everyKindDocument() Document {
	amount := FieldBinding{Table: "orders", Column: "amount", DisplayName: "Revenue", Aggregation: AggSum, Type: schema.TypeReal}
	region := FieldBinding{Table: "orders", Column: "region", DisplayName: "region", Type: schema.TypeText}

	visuals := []*Visual{
		{Kind: KindCard, HasData: true, Slots: map[string][]FieldBinding{"value": {amount}}},
		{Kind: KindTable, HasData: true, Slots: map[string][]FieldBinding{"columns": {region, {Table: "orders", Column: "qty", DisplayName: "qty", Aggregation: AggNone}}}},
		{Kind: KindMatrix, HasData: true, Slots: map[string][]FieldBinding{"rows": {region}, "values": {amount}}},
		{Kind: KindBar, HasData: true, Slots: map[string][]FieldBinding{"yAxis": {region}, "xAxis": {amount, {Table: "orders", Column: "id", DisplayName: "Orders", Aggregation: AggCountDistinct}}}},
		{Kind: KindColumn},
		{Kind: KindLine, Format: FormatOptions{"title": map[string]any{"color": "#336699", "size": 14.0}, "series": []any{"a", true}}},
		{Kind: KindPie, HasData: true, Slots: map[string][]FieldBinding{"legend": {region}, "values": {amount}}},
		{Kind: KindGauge, HasData: true, Slots: map[string][]FieldBinding{"value": {amount}, "maxValue": {amount}}},
	}
	visuals[0].Filters = FilterSet{
		{ID: "implicit-orders-amount", Table: "orders", Column: "amount", DisplayName: "Revenue", Implicit: true, Config: Basic("10", BlankLabel)},
		{ID: "implicit-agg-orders-amount-sum", Table: "orders", Column: "amount", DisplayName: "Sum of Revenue", Implicit: true, Aggregated: true, Aggregation: AggSum,
			Config: Advanced(LogicOr, Rule{Condition: CondGreater, Value: "5"}, Rule{Condition: CondIsNull})},
	}
	visuals[3].Filters = FilterSet{
		{ID: "top", Table: "orders", Column: "amount", Implicit: true, Aggregated: true, Aggregation: AggSum, Config: TopN(3, Descending)},
	}

	rows := []Row{
		{ID: "r1", Template: TemplateThreeEqual, HeightLevel: 5, Columns: []Column{{Visual: visuals[0]}, {Visual: visuals[1]}, {Visual: visuals[2]}}},
		{ID: "r2", Template: TemplateTwoWideLeft, HeightLevel: 1, Columns: []Column{{Visual: visuals[3]}, {Visual: visuals[5]}}},
		{ID: "r3", Template: TemplateThreeEqual, HeightLevel: 10, Columns: []Column{{Visual: visuals[6]}, {}, {Visual: visuals[7]}}},
		{ID: "r4", Template: TemplateOneColumn, HeightLevel: 3, Columns: []Column{{Visual: visuals[4]}}},
	}

	return Document{
		Layout: Dashboard{Title: "Every kind", Description: "round trip", Rows: rows},
		PageFilters: FilterSet{
			{ID: "page-1", Table: "orders", Column: "region", Config: Basic("North")},
		},
	}
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	doc := everyKindDocument()

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var back Document
	require.NoError(t, json.Unmarshal(data, &back))

	if diff := cmp.Diff(doc, back, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	kinds := map[VisualKind]bool{}
	for _, p := range back.Layout.Visuals() {
		kinds[p.Visual.Kind] = true
	}
	assert.Len(t, kinds, len(AllKinds))
}

func TestDocumentJSONIsPlainTree(t *testing.T) {
	data, err := json.Marshal(everyKindDocument())
	require.NoError(t, err)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(data, &tree))
	layout := tree["layout"].(map[string]any)
	row := layout["rows"].([]any)[0].(map[string]any)
	assert.Equal(t, "3-col-equal", row["columnTemplate"])
	visual := row["columns"].([]any)[0].(map[string]any)["visual"].(map[string]any)
	assert.Equal(t, "card", visual["kind"])
	filter := visual["filters"].([]any)[1].(map[string]any)
	assert.Equal(t, "advanced", filter["filterConfig"].(map[string]any)["type"])
}

func TestCloneIsDeep(t *testing.T) {
	doc := everyKindDocument()
	cp := doc.Clone()
	require.True(t, cmp.Equal(doc, cp, cmpopts.EquateEmpty()))

	cp.Layout.Rows[0].Columns[0].Visual.Slots["value"][0].DisplayName = "changed"
	cp.Layout.Rows[0].Columns[0].Visual.Filters[0].Config.Basic.SelectedValues[0] = "changed"
	cp.Layout.Rows[1].Columns[1].Visual.Format["title"].(map[string]any)["color"] = "red"
	cp.Layout.Rows[1].Columns[1].Visual.Format["series"].([]any)[0] = "z"
	cp.PageFilters[0].Config.Basic.SelectedValues[0] = "South"

	assert.Equal(t, "Revenue", doc.Layout.Rows[0].Columns[0].Visual.Slots["value"][0].DisplayName)
	assert.Equal(t, "10", doc.Layout.Rows[0].Columns[0].Visual.Filters[0].Config.Basic.SelectedValues[0])
	assert.Equal(t, "#336699", doc.Layout.Rows[1].Columns[1].Visual.Format["title"].(map[string]any)["color"])
	assert.Equal(t, "a", doc.Layout.Rows[1].Columns[1].Visual.Format["series"].([]any)[0])
	assert.Equal(t, "North", doc.PageFilters[0].Config.Basic.SelectedValues[0])
}

func TestFilterSetRemove(t *testing.T) {
	fs := FilterSet{
		{ID: "implicit-orders-amount", Implicit: true, Config: Basic()},
		{ID: "explicit", Config: Basic("a")},
	}

	out, removed := fs.Remove("implicit-orders-amount")
	assert.False(t, removed)
	assert.Equal(t, fs, out)

	out, removed = fs.Remove("missing")
	assert.False(t, removed)
	assert.Equal(t, fs, out)

	out, removed = fs.Remove("explicit")
	assert.True(t, removed)
	assert.Len(t, out, 1)
	assert.Len(t, fs, 2)
}

func TestFilterSetConfigureAndReset(t *testing.T) {
	fs := FilterSet{
		{ID: "raw", Implicit: true, Config: Basic()},
		{ID: "agg", Implicit: true, Aggregated: true, Config: Advanced(LogicAnd)},
	}
	out, ok := fs.Configure("raw", Basic("x"))
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, out[0].Config.Basic.SelectedValues)
	assert.Empty(t, fs[0].Config.Basic.SelectedValues)

	out, ok = out.Configure("agg", TopN(0, Descending))
	require.True(t, ok)
	assert.Equal(t, DefaultTopN, out[1].Config.TopN.Count)

	out, ok = out.Reset("agg")
	require.True(t, ok)
	assert.Equal(t, ConfigAdvanced, out[1].Config.Type)
	out, _ = out.Reset("raw")
	assert.Equal(t, ConfigBasic, out[0].Config.Type)
	assert.Empty(t, out[0].Config.Basic.SelectedValues)

	_, ok = fs.Configure("missing", Basic())
	assert.False(t, ok)
}

func TestFilterConfigValidate(t *testing.T) {
	assert.NoError(t, Basic("a").Validate())
	assert.NoError(t, Advanced(LogicOr).Validate())
	assert.NoError(t, TopN(5, Ascending).Validate())
	assert.Error(t, FilterConfig{Type: ConfigTopN, Basic: &BasicConfig{}}.Validate())
	assert.Error(t, FilterConfig{Type: ConfigBasic}.Validate())
}

func TestAllowedAggregations(t *testing.T) {
	value, _ := KindCard.Slot("value")
	yAxis, _ := KindBar.Slot("yAxis")
	xAxis, _ := KindBar.Slot("xAxis")
	columns, _ := KindTable.Slot("columns")

	assert.Equal(t, []Aggregation{AggNone}, AllowedAggregations(KindBar, yAxis, true))
	assert.Equal(t, []Aggregation{AggCount, AggCountDistinct}, AllowedAggregations(KindBar, xAxis, false))
	assert.Equal(t, []Aggregation{AggSum, AggAverage, AggMin, AggMax, AggCount, AggCountDistinct}, AllowedAggregations(KindBar, xAxis, true))
	assert.Equal(t, []Aggregation{AggFirst, AggLast, AggCount, AggCountDistinct}, AllowedAggregations(KindCard, value, false))
	assert.Equal(t, []Aggregation{AggNone, AggFirst, AggLast, AggCount, AggCountDistinct}, AllowedAggregations(KindTable, columns, false))
	assert.Equal(t, AggNone, AllowedAggregations(KindTable, columns, true)[0])

	assert.Equal(t, AggSum, DefaultAggregation(KindCard, value, true))
	assert.Equal(t, AggCount, DefaultAggregation(KindCard, value, false))
	assert.Equal(t, AggNone, DefaultAggregation(KindTable, columns, true))
	assert.Equal(t, AggNone, DefaultAggregation(KindBar, yAxis, true))
}

func TestSlotSchemas(t *testing.T) {
	for _, k := range AllKinds {
		assert.NotEmpty(t, SlotsFor(k), k.String())
	}
	spec, ok := KindLine.Slot("yAxis")
	require.True(t, ok)
	assert.True(t, spec.Multiple)
	assert.True(t, spec.Aggregatable)

	_, ok = KindCard.Slot("xAxis")
	assert.False(t, ok)
}

func TestEnumParsing(t *testing.T) {
	for _, s := range []string{"avg", "average"} {
		a, err := ParseAggregation(s)
		require.NoError(t, err)
		assert.Equal(t, AggAverage, a)
	}
	a, err := ParseAggregation("countd")
	require.NoError(t, err)
	assert.Equal(t, AggCountDistinct, a)
	_, err = ParseAggregation("median")
	assert.Error(t, err)

	d, err := ParseDirection("top")
	require.NoError(t, err)
	assert.Equal(t, Descending, d)

	var l Logic
	require.NoError(t, json.Unmarshal([]byte(`"OU"`), &l))
	assert.Equal(t, LogicOr, l)

	tpl, err := ParseGridTemplate("2-col-1-2")
	require.NoError(t, err)
	assert.Equal(t, 2, tpl.Capacity())
	assert.Equal(t, 3, TemplateThreeEqual.Capacity())

	_, err = ParseVisualKind("scatter")
	assert.Error(t, err)
}

func TestFormatOptionsSetIsPersistent(t *testing.T) {
	var f FormatOptions
	g := f.Set(true, "legend", "show")
	h := g.Set("bottom", "legend", "position")

	assert.Nil(t, f)
	_, ok := g.Get("legend", "position")
	assert.False(t, ok)
	v, ok := h.Get("legend", "show")
	require.True(t, ok)
	assert.Equal(t, true, v)
}
