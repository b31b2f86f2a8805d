package engine

import (
	"sort"

	"github.com/spektr-org/canvas/model"
	"github.com/spektr-org/canvas/schema"
)

// ============================================================================
// SORT/FILTER PIPELINE — Expanded table view over materialised rows
// ============================================================================
// 1. Column inclusion filters (AND across columns)
// 2. Stable multi-level sort; blanks always last, whatever the direction
// The input view is never reordered: the result is a new SubView.
// ============================================================================

// SortLevel is one key of a multi-level sort.
type SortLevel struct {
	Column    string          `json:"columnKey"`
	Direction model.Direction `json:"direction"`
	Type      schema.SortType `json:"columnType"`
}

// Pipeline holds the per-column filters and sort levels of a table view.
type Pipeline struct {
	Filters model.FilterSet `json:"filters,omitempty"`
	Sorts   []SortLevel     `json:"sorts,omitempty"`
}

// Apply filters then sorts view.
func (p Pipeline) Apply(view RecordView) RecordView {
	filtered := ApplyFilters(view, p.Filters)

	indices := make([]int, filtered.Len())
	for i := range indices {
		indices[i] = i
	}
	if len(p.Sorts) > 0 {
		keys := make([]string, len(p.Sorts))
		for i, s := range p.Sorts {
			keys[i] = KeyFor(view, model.ColumnRef{Column: s.Column})
		}
		sort.SliceStable(indices, func(x, y int) bool {
			return p.less(filtered, keys, indices[x], indices[y])
		})
	}
	return newSubView(filtered, indices)
}

func (p Pipeline) less(view RecordView, keys []string, i, j int) bool {
	for n, level := range p.Sorts {
		a, b := view.Dimension(i, keys[n]), view.Dimension(j, keys[n])
		aBlank, bBlank := isBlank(a), isBlank(b)
		switch {
		case aBlank && bBlank:
			continue
		case aBlank:
			return false
		case bBlank:
			return true
		}
		c := compareValues(a, b, level.Type)
		if level.Direction == model.Descending {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
	}
	return false
}

// Options lists the selectable values of column given every other column's
// filter.
func (p Pipeline) Options(view RecordView, column string) []string {
	return OptionsFor(view, p.Filters, model.ColumnRef{Column: column})
}

// SetFilter returns a pipeline whose filter on column selects values.
// An empty selection removes the column filter.
func (p Pipeline) SetFilter(column string, values ...string) Pipeline {
	id := "column-" + column
	out := Pipeline{Sorts: append([]SortLevel(nil), p.Sorts...)}
	out.Filters, _ = p.Filters.Remove(id)
	if len(values) > 0 {
		out.Filters = out.Filters.Add(model.Filter{ID: id, Column: column, Config: model.Basic(values...)})
	}
	return out
}

// ToggleSort cycles one column through ascending, descending and off,
// keeping the other levels in order.
func (p Pipeline) ToggleSort(column string, t schema.SortType) Pipeline {
	out := Pipeline{Filters: p.Filters.Clone()}
	found := false
	for _, s := range p.Sorts {
		if s.Column != column {
			out.Sorts = append(out.Sorts, s)
			continue
		}
		found = true
		if s.Direction == model.Ascending {
			s.Direction = model.Descending
			out.Sorts = append(out.Sorts, s)
		}
	}
	if !found {
		out.Sorts = append(out.Sorts, SortLevel{Column: column, Direction: model.Ascending, Type: t})
	}
	return out
}
