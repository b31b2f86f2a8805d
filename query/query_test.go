package query

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/model"
)

func salesView() engine.RecordView {
	rows := []map[string]string{
		{"region": "North", "product": "Widget", "amount": "10"},
		{"region": "North", "product": "Gadget", "amount": "20"},
		{"region": "South", "product": "Widget", "amount": "5"},
		{"region": "East", "product": "", "amount": "40"},
	}
	records := make([]engine.Record, len(rows))
	for i, r := range rows {
		records[i] = engine.NewRecord(r)
	}
	return engine.NewSliceView(records, "region", "product", "amount")
}

func field(column string, agg model.Aggregation) model.FieldBinding {
	return model.FieldBinding{Table: "sales", Column: column, Aggregation: agg}
}

func sumByRegion() engine.Descriptor {
	return engine.Descriptor{
		Kind:     model.KindBar,
		GroupBy:  []model.FieldBinding{field("region", model.AggNone)},
		Measures: []model.FieldBinding{field("amount", model.AggSum)},
		Limit:    1000,
	}
}

// ============================================================================
// RENDER
// ============================================================================

func TestRenderAggregated(t *testing.T) {
	d := sumByRegion()
	d.RowFilters = model.FilterSet{{ID: "f1", Table: "sales", Column: "product",
		Config: model.Basic("Widget", model.BlankLabel)}}
	d.GroupFilters = model.FilterSet{{ID: "f2", Table: "sales", Column: "amount", Aggregated: true,
		Aggregation: model.AggSum, Config: model.Advanced(model.LogicAnd,
			model.Rule{Condition: model.CondGreater, Value: "5"})}}
	d.Rank = &engine.Ranking{Table: "sales", Column: "amount", Aggregation: model.AggSum,
		Count: 2, Direction: model.Descending}

	want := `SELECT "region", SUM("amount") AS "sum_amount" FROM "sales"` +
		` WHERE ("product" IN ('Widget') OR "product" IS NULL OR "product" = '')` +
		` GROUP BY "region"` +
		` HAVING (SUM("amount") > 5)` +
		` ORDER BY SUM("amount") DESC LIMIT 2`
	assert.Equal(t, want, Render(d))
}

func TestRenderRawEscapesLiterals(t *testing.T) {
	d := engine.Descriptor{
		Kind:    model.KindTable,
		Raw:     true,
		Columns: []model.FieldBinding{field("region", model.AggNone), field("product", model.AggNone)},
		RowFilters: model.FilterSet{{ID: "f", Table: "sales", Column: "product",
			Config: model.Advanced(model.LogicOr,
				model.Rule{Condition: model.CondContains, Value: "O'Neil"},
				model.Rule{Condition: model.CondEquals, Value: ""},
				model.Rule{Condition: model.CondIsNull})}},
	}
	assert.Equal(t,
		`SELECT "region", "product" FROM "sales" WHERE ("product" LIKE '%O''Neil%' OR ("product" IS NULL OR "product" = ''))`,
		Render(d))
}

// ============================================================================
// LOCAL SERVICE
// ============================================================================

func TestLocalFetch(t *testing.T) {
	svc := NewLocal()
	svc.Register("sales", salesView())

	res, err := svc.Fetch(context.Background(), sumByRegion())
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "sum_amount"}, res.Keys)
	assert.Contains(t, res.Query, "GROUP BY")

	got := map[string]string{}
	for _, r := range res.Rows {
		got[r.Dimensions["region"]] = r.Dimensions["sum_amount"]
	}
	assert.Equal(t, map[string]string{"North": "30", "South": "5", "East": "40"}, got)
	assert.Equal(t, 3, res.View().Len())
}

func TestLocalFetchUnknownTable(t *testing.T) {
	_, err := NewLocal().Fetch(context.Background(), sumByRegion())

	var qerr *QueryServiceError
	require.ErrorAs(t, err, &qerr)
	assert.Contains(t, qerr.Message, "unknown table")
	assert.NotEmpty(t, qerr.Query)
}

func TestLocalFetchCancelled(t *testing.T) {
	svc := NewLocal()
	svc.Register("sales", salesView())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Fetch(ctx, sumByRegion())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalDistinct(t *testing.T) {
	svc := NewLocal(WithDistinctLimit(2))
	svc.Register("sales", salesView())

	all, err := svc.Distinct(context.Background(), "sales", "region", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"East", "North"}, all)

	search, err := svc.Distinct(context.Background(), "sales", "product", "ADG")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gadget"}, search)

	_, err = svc.Distinct(context.Background(), "missing", "region", "")
	assert.Error(t, err)
	assert.Equal(t, []string{"sales"}, svc.Tables())
}

// ============================================================================
// HTTP CLIENT
// ============================================================================

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		body, _ := io.ReadAll(r.Body)
		var req fetchRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, model.KindBar, req.Descriptor.Kind)
		assert.Contains(t, req.Query, `SUM("amount")`)

		_, _ = w.Write([]byte(`{"columns":["region","sum_amount"],` +
			`"data":[{"region":"North","sum_amount":30},{"region":null,"sum_amount":2.5}],` +
			`"query":"SELECT 1"}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, srv.Client()).Fetch(context.Background(), sumByRegion())
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", res.Query)
	assert.Equal(t, []string{"region", "sum_amount"}, res.Keys)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "North", res.Rows[0].Dimensions["region"])
	assert.Equal(t, 30.0, res.Rows[0].Measures["sum_amount"])
	assert.Equal(t, "", res.Rows[1].Dimensions["region"])
	assert.Equal(t, "2.5", res.Rows[1].Dimensions["sum_amount"])
}

func TestClientFetchServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"column amount does not exist","query":"SELECT amount"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Fetch(context.Background(), sumByRegion())

	var qerr *QueryServiceError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, "column amount does not exist", qerr.Message)
	assert.Equal(t, "SELECT amount", qerr.Query)
}

func TestClientDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/distinct", r.URL.Path)
		assert.Equal(t, "sales", r.URL.Query().Get("table"))
		assert.Equal(t, "region", r.URL.Query().Get("column"))
		assert.Equal(t, "no", r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`{"values":["North",null,"Norway"]}`))
	}))
	defer srv.Close()

	values, err := NewClient(srv.URL+"/", nil).Distinct(context.Background(), "sales", "region", "no")
	require.NoError(t, err)
	assert.Equal(t, []string{"North", "", "Norway"}, values)
	assert.Equal(t, []string{"North", "Norway", model.BlankLabel}, engine.SeedOptions(values))
}
