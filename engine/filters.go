package engine

import (
	"strconv"
	"strings"

	"github.com/spektr-org/canvas/model"
	"github.com/spektr-org/canvas/schema"
)

// ============================================================================
// FILTERS — Row-level filter evaluation via RecordView
// ============================================================================
// Single pass: each record is checked against every active predicate.
// Returns a SubView (index list into parent) — zero data copy.
//
// Only raw filters restrict rows. Aggregated filters apply to groups (see
// aggregators.go) and topN configs only rank.
// ============================================================================

// ApplyFilters returns a view of records passing every row-level filter.
// Filters are AND-combined.
func ApplyFilters(view RecordView, filters model.FilterSet) RecordView {
	preds := rowPredicates(view, filters)
	if len(preds) == 0 {
		return view
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for _, p := range preds {
			if !p(i) {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

func rowPredicates(view RecordView, filters model.FilterSet) []func(int) bool {
	var preds []func(int) bool
	for _, f := range filters {
		if f.Aggregated || !Restricts(f.Config) {
			continue
		}
		key := KeyFor(view, f.Ref())
		cfg := f.Config
		preds = append(preds, func(i int) bool {
			return Matches(cfg, view.Dimension(i, key))
		})
	}
	return preds
}

// Restricts reports whether a config can exclude anything at row level.
// An empty basic selection and an advanced config without complete rules
// let everything through; topN never restricts rows.
func Restricts(cfg model.FilterConfig) bool {
	switch cfg.Type {
	case model.ConfigBasic:
		return cfg.Basic != nil && len(cfg.Basic.SelectedValues) > 0
	case model.ConfigAdvanced:
		return cfg.Advanced != nil && len(activeRules(cfg.Advanced.Rules)) > 0
	}
	return false
}

// Matches evaluates one config against one textual value.
func Matches(cfg model.FilterConfig, value string) bool {
	switch cfg.Type {
	case model.ConfigBasic:
		if cfg.Basic == nil {
			return true
		}
		return matchBasic(cfg.Basic.SelectedValues, value)
	case model.ConfigAdvanced:
		if cfg.Advanced == nil {
			return true
		}
		return matchAdvanced(*cfg.Advanced, value)
	}
	return true
}

func matchBasic(selected []string, value string) bool {
	if len(selected) == 0 {
		return true
	}
	want := value
	if isBlank(value) {
		want = model.BlankLabel
	}
	for _, s := range selected {
		if s == want {
			return true
		}
	}
	return false
}

// matchAdvanced joins rule results with the logic operator. Zero complete
// rules is non-restrictive.
func matchAdvanced(cfg model.AdvancedConfig, value string) bool {
	rules := activeRules(cfg.Rules)
	if len(rules) == 0 {
		return true
	}
	for _, r := range rules {
		ok := matchRule(r, value)
		if cfg.Logic == model.LogicOr && ok {
			return true
		}
		if cfg.Logic == model.LogicAnd && !ok {
			return false
		}
	}
	return cfg.Logic == model.LogicAnd
}

// activeRules drops rules still missing the operand their condition needs.
func activeRules(rules []model.Rule) []model.Rule {
	var out []model.Rule
	for _, r := range rules {
		switch r.Condition {
		case "":
			continue
		case model.CondIsNull, model.CondNotNull:
		default:
			if strings.TrimSpace(r.Value) == "" {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func matchRule(r model.Rule, value string) bool {
	blank := isBlank(value)
	switch r.Condition {
	case model.CondIsNull:
		return blank
	case model.CondNotNull:
		return !blank
	case model.CondContains:
		return !blank && strings.Contains(strings.ToLower(value), strings.ToLower(r.Value))
	case model.CondNotContains:
		return blank || !strings.Contains(strings.ToLower(value), strings.ToLower(r.Value))
	case model.CondEquals:
		return !blank && equalValues(value, r.Value)
	case model.CondNotEquals:
		return blank || !equalValues(value, r.Value)
	}

	if !r.Condition.Numeric() || blank {
		return false
	}
	a, okA := schema.ParseNumber(value)
	b, okB := schema.ParseNumber(r.Value)
	if !okA || !okB {
		return false
	}
	switch r.Condition {
	case model.CondGreater:
		return a > b
	case model.CondLess:
		return a < b
	case model.CondGreaterEq:
		return a >= b
	case model.CondLessEq:
		return a <= b
	}
	return false
}

// equalValues compares numerically when both sides are numbers,
// case-insensitively otherwise.
func equalValues(a, b string) bool {
	if x, ok := schema.ParseNumber(a); ok {
		if y, ok := schema.ParseNumber(b); ok {
			return x == y
		}
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func isBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
