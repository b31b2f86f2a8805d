package engine

import (
	"fmt"

	"github.com/spektr-org/canvas/model"
)

// ============================================================================
// QUERY DESCRIPTOR — What a visual asks the query service for
// ============================================================================
// Effective filters are page filters followed by the visual's own. They are
// split by where they apply:
//   RowFilters   — raw filters, before grouping (WHERE)
//   GroupFilters — aggregated filters, after grouping (HAVING)
//   Rank         — first aggregated topN filter (ORDER BY aggregate LIMIT n)
// Non-restrictive filters are left out.
// ============================================================================

// Descriptor is the resolved, renderer-independent query of one visual.
type Descriptor struct {
	Kind         model.VisualKind     `json:"kind"`
	Raw          bool                 `json:"raw"`
	Columns      []model.FieldBinding `json:"columns,omitempty"`
	GroupBy      []model.FieldBinding `json:"groupBy,omitempty"`
	Measures     []model.FieldBinding `json:"measures,omitempty"`
	RowFilters   model.FilterSet      `json:"rowFilters,omitempty"`
	GroupFilters model.FilterSet      `json:"groupFilters,omitempty"`
	Rank         *Ranking             `json:"rank,omitempty"`
	Limit        int                  `json:"limit"`
}

// Ranking orders groups by an aggregate and keeps the first Count.
type Ranking struct {
	Table       string            `json:"table"`
	Column      string            `json:"column"`
	Aggregation model.Aggregation `json:"aggregation"`
	Count       int               `json:"count"`
	Direction   model.Direction   `json:"direction"`
}

// Ref returns the ranked column.
func (r Ranking) Ref() model.ColumnRef {
	return model.ColumnRef{Table: r.Table, Column: r.Column}
}

// Tables lists the distinct source tables the descriptor reads.
func (d Descriptor) Tables() []string {
	seen := map[string]bool{}
	var out []string
	for _, group := range [][]model.FieldBinding{d.Columns, d.GroupBy, d.Measures} {
		for _, b := range group {
			if b.Table != "" && !seen[b.Table] {
				seen[b.Table] = true
				out = append(out, b.Table)
			}
		}
	}
	return out
}

// Outputs lists every output column in order.
func (d Descriptor) Outputs() []model.FieldBinding {
	if d.Raw {
		return d.Columns
	}
	out := make([]model.FieldBinding, 0, len(d.GroupBy)+len(d.Measures))
	out = append(out, d.GroupBy...)
	return append(out, d.Measures...)
}

// OutputKey is the result column key of a binding.
func OutputKey(b model.FieldBinding) string {
	if b.Aggregation == model.AggNone {
		return b.Column
	}
	return fmt.Sprintf("%s_%s", b.Aggregation, b.Column)
}

// Resolve builds the descriptor of v under the page filters.
func (e *Engine) Resolve(v model.Visual, page model.FilterSet) (Descriptor, error) {
	bindings := v.Bindings()
	if len(bindings) == 0 {
		return Descriptor{}, ErrEmptyVisual
	}

	d := Descriptor{Kind: v.Kind, Limit: e.cfg.RowLimit}

	aggregated := false
	for _, sb := range bindings {
		if sb.Binding.Aggregation != model.AggNone {
			aggregated = true
			break
		}
	}
	d.Raw = v.Kind.Tabular() && !aggregated

	grouped := map[model.ColumnRef]bool{}
	for _, sb := range bindings {
		b := sb.Binding
		switch {
		case d.Raw:
			d.Columns = append(d.Columns, b)
		case b.Aggregation == model.AggNone:
			if !grouped[b.Ref()] {
				grouped[b.Ref()] = true
				d.GroupBy = append(d.GroupBy, b)
			}
		default:
			d.Measures = append(d.Measures, b)
		}
	}

	for _, f := range page.Union(v.Filters) {
		switch {
		case f.Config.Type == model.ConfigTopN:
			if f.Aggregated && d.Rank == nil && f.Config.TopN != nil && !d.Raw {
				d.Rank = &Ranking{
					Table:       f.Table,
					Column:      f.Column,
					Aggregation: f.Aggregation,
					Count:       f.Config.TopN.Count,
					Direction:   f.Config.TopN.Direction,
				}
			}
		case !Restricts(f.Config):
		case f.Aggregated:
			if !d.Raw {
				d.GroupFilters = append(d.GroupFilters, f)
			}
		default:
			d.RowFilters = append(d.RowFilters, f)
		}
	}

	e.log.Debug("visual resolved", "kind", v.Kind, "raw", d.Raw,
		"groupBy", len(d.GroupBy), "measures", len(d.Measures),
		"rowFilters", len(d.RowFilters), "groupFilters", len(d.GroupFilters))
	return d, nil
}
