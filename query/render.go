package query

import (
	"fmt"
	"strings"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/model"
	"github.com/spektr-org/canvas/schema"
)

// ============================================================================
// SQL RENDERING — Diagnostic query text for a Descriptor
// ============================================================================
// Raw filters become WHERE, aggregated filters HAVING, a ranking becomes
// ORDER BY aggregate + LIMIT. The text is returned with every result and
// error so a failing visual can show what was asked.
// ============================================================================

// Render returns the SQL equivalent of d.
func Render(d engine.Descriptor) string {
	var sb strings.Builder

	var selects []string
	for _, b := range d.Outputs() {
		if d.Raw || b.Aggregation == model.AggNone {
			selects = append(selects, quoteIdent(b.Column))
			continue
		}
		selects = append(selects, fmt.Sprintf("%s AS %s", aggExpr(b.Column, b.Aggregation), quoteIdent(engine.OutputKey(b))))
	}
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selects, ", "))

	tables := d.Tables()
	quoted := make([]string, len(tables))
	for i, t := range tables {
		quoted[i] = quoteIdent(t)
	}
	sb.WriteString(" FROM ")
	sb.WriteString(strings.Join(quoted, ", "))

	if where := conditions(d.RowFilters, false); where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	if !d.Raw && len(d.GroupBy) > 0 {
		cols := make([]string, len(d.GroupBy))
		for i, b := range d.GroupBy {
			cols[i] = quoteIdent(b.Column)
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(cols, ", "))
	}

	if having := conditions(d.GroupFilters, true); having != "" {
		sb.WriteString(" HAVING ")
		sb.WriteString(having)
	}

	limit := d.Limit
	if d.Rank != nil {
		dir := "ASC"
		if d.Rank.Direction == model.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", aggExpr(d.Rank.Column, d.Rank.Aggregation), dir)
		if limit <= 0 || d.Rank.Count < limit {
			limit = d.Rank.Count
		}
	}
	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", limit)
	}
	return sb.String()
}

func conditions(filters model.FilterSet, aggregated bool) string {
	var parts []string
	for _, f := range filters {
		expr := quoteIdent(f.Column)
		if aggregated {
			expr = aggExpr(f.Column, f.Aggregation)
		}
		if c := condition(expr, f.Config); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " AND ")
}

func condition(expr string, cfg model.FilterConfig) string {
	switch {
	case cfg.Type == model.ConfigBasic && cfg.Basic != nil && len(cfg.Basic.SelectedValues) > 0:
		var values []string
		blank := false
		for _, v := range cfg.Basic.SelectedValues {
			if v == model.BlankLabel {
				blank = true
				continue
			}
			values = append(values, quoteLiteral(v))
		}
		var alts []string
		if len(values) > 0 {
			alts = append(alts, fmt.Sprintf("%s IN (%s)", expr, strings.Join(values, ", ")))
		}
		if blank {
			alts = append(alts, fmt.Sprintf("%s IS NULL OR %s = ''", expr, expr))
		}
		return "(" + strings.Join(alts, " OR ") + ")"

	case cfg.Type == model.ConfigAdvanced && cfg.Advanced != nil:
		var parts []string
		for _, r := range cfg.Advanced.Rules {
			if c := rule(expr, r); c != "" {
				parts = append(parts, c)
			}
		}
		if len(parts) == 0 {
			return ""
		}
		return "(" + strings.Join(parts, " "+cfg.Advanced.Logic.String()+" ") + ")"
	}
	return ""
}

func rule(expr string, r model.Rule) string {
	like := quoteLiteral("%" + r.Value + "%")
	switch r.Condition {
	case model.CondIsNull:
		return fmt.Sprintf("(%s IS NULL OR %s = '')", expr, expr)
	case model.CondNotNull:
		return fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", expr, expr)
	}
	if strings.TrimSpace(r.Value) == "" {
		return ""
	}
	switch r.Condition {
	case model.CondContains:
		return fmt.Sprintf("%s LIKE %s", expr, like)
	case model.CondNotContains:
		return fmt.Sprintf("(%s IS NULL OR %s NOT LIKE %s)", expr, expr, like)
	case model.CondEquals:
		return fmt.Sprintf("%s = %s", expr, literal(r.Value))
	case model.CondNotEquals:
		return fmt.Sprintf("(%s IS NULL OR %s <> %s)", expr, expr, literal(r.Value))
	case model.CondGreater:
		return fmt.Sprintf("%s > %s", expr, literal(r.Value))
	case model.CondLess:
		return fmt.Sprintf("%s < %s", expr, literal(r.Value))
	case model.CondGreaterEq:
		return fmt.Sprintf("%s >= %s", expr, literal(r.Value))
	case model.CondLessEq:
		return fmt.Sprintf("%s <= %s", expr, literal(r.Value))
	}
	return ""
}

func aggExpr(column string, agg model.Aggregation) string {
	col := quoteIdent(column)
	switch agg {
	case model.AggSum:
		return "SUM(" + col + ")"
	case model.AggAverage:
		return "AVG(" + col + ")"
	case model.AggMin, model.AggFirst:
		return "MIN(" + col + ")"
	case model.AggMax, model.AggLast:
		return "MAX(" + col + ")"
	case model.AggCount:
		return "COUNT(" + col + ")"
	case model.AggCountDistinct:
		return "COUNT(DISTINCT " + col + ")"
	}
	return col
}

func literal(v string) string {
	if f, ok := schema.ParseNumber(v); ok {
		return fmt.Sprintf("%g", f)
	}
	return quoteLiteral(v)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
