package engine

import (
	"sort"

	"github.com/spektr-org/canvas/model"
)

// ============================================================================
// CASCADING OPTIONS — Selectable values of one column under the others
// ============================================================================
// A column's own filter never narrows its own option list; otherwise every
// selection would remove its siblings from the list it was picked from.
// ============================================================================

// OptionsFor returns the sorted distinct values of target in view after
// applying every filter not keyed to target. Blank values collapse into
// model.BlankLabel, listed last.
func OptionsFor(view RecordView, filters model.FilterSet, target model.ColumnRef) []string {
	others := make(model.FilterSet, 0, len(filters))
	for _, f := range filters {
		if f.Ref() == target {
			continue
		}
		others = append(others, f)
	}
	return distinct(ApplyFilters(view, others), KeyFor(view, target))
}

// OptionsFor is the logged form of the package-level resolver.
func (e *Engine) OptionsFor(view RecordView, filters model.FilterSet, target model.ColumnRef) []string {
	out := OptionsFor(view, filters, target)
	e.log.Debug("options resolved", "column", target, "rows", view.Len(), "options", len(out))
	return out
}

func distinct(view RecordView, key string) []string {
	seen := make(map[string]bool)
	var values []string
	blank := false
	for i := 0; i < view.Len(); i++ {
		v := view.Dimension(i, key)
		if isBlank(v) {
			blank = true
			continue
		}
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	if blank {
		values = append(values, model.BlankLabel)
	}
	return values
}

// SeedOptions merges a distinct-values service answer with the blank
// sentinel handling used for locally resolved lists.
func SeedOptions(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	blank := false
	for _, v := range values {
		if isBlank(v) || v == model.BlankLabel {
			blank = true
			continue
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	if blank {
		out = append(out, model.BlankLabel)
	}
	return out
}
