package engine

import (
	"fmt"

	"github.com/spektr-org/canvas/model"
)

// ============================================================================
// IMPLICIT FILTERS — Derived from bindings, never removed by the user
// ============================================================================
// Every bound column owns one raw filter keyed (table, column). Every binding
// with a numeric-style aggregation also owns an aggregated filter keyed
// (table, column, aggregation). A filter is shared by all bindings with the
// same key and disappears with the last of them.
// ============================================================================

// RawFilterID is the id of the raw implicit filter of a column.
func RawFilterID(ref model.ColumnRef) string {
	return fmt.Sprintf("implicit-%s-%s", ref.Table, ref.Column)
}

// AggregatedFilterID is the id of the aggregated implicit filter of a column.
func AggregatedFilterID(ref model.ColumnRef, agg model.Aggregation) string {
	return fmt.Sprintf("implicit-agg-%s-%s-%s", ref.Table, ref.Column, agg)
}

// AggregatedFilterName is the title of an aggregated implicit filter.
func AggregatedFilterName(b model.FieldBinding) string {
	return fmt.Sprintf("%s of %s", b.Aggregation.Label(), b.Label())
}

func rawFilter(b model.FieldBinding) model.Filter {
	return model.Filter{
		ID:          RawFilterID(b.Ref()),
		Table:       b.Table,
		Column:      b.Column,
		DisplayName: b.Label(),
		Implicit:    true,
		Config:      model.Basic(),
	}
}

func aggregatedFilter(b model.FieldBinding) model.Filter {
	return model.Filter{
		ID:          AggregatedFilterID(b.Ref(), b.Aggregation),
		Table:       b.Table,
		Column:      b.Column,
		DisplayName: AggregatedFilterName(b),
		Implicit:    true,
		Aggregated:  true,
		Aggregation: b.Aggregation,
		Config:      model.Advanced(model.LogicAnd),
	}
}

// syncImplicit returns v's filters with implicit entries matching its
// bindings: stale ones dropped, missing ones appended, surviving ones keep
// their position and user config.
func syncImplicit(v model.Visual) model.FilterSet {
	var wanted []model.Filter
	seen := map[string]bool{}
	for _, sb := range v.Bindings() {
		b := sb.Binding
		candidates := []model.Filter{rawFilter(b)}
		if b.Aggregation.NumericStyle() {
			candidates = append(candidates, aggregatedFilter(b))
		}
		for _, f := range candidates {
			if !seen[f.ID] {
				seen[f.ID] = true
				wanted = append(wanted, f)
			}
		}
	}

	byID := make(map[string]model.Filter, len(wanted))
	for _, f := range wanted {
		byID[f.ID] = f
	}

	var out model.FilterSet
	kept := map[string]bool{}
	for _, f := range v.Filters {
		if !f.Implicit {
			out = append(out, f)
			continue
		}
		w, ok := byID[f.ID]
		if !ok || kept[f.ID] {
			continue
		}
		f.DisplayName = w.DisplayName
		out = append(out, f)
		kept[f.ID] = true
	}
	for _, f := range wanted {
		if !kept[f.ID] {
			out = append(out, f)
		}
	}
	return out
}
