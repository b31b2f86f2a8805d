package engine

import (
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/spektr-org/canvas/model"
)

// ============================================================================
// AGGREGATORS — Local evaluation of a Descriptor over a RecordView
// ============================================================================
// Pipeline: row filters → group → aggregate → group filters → rank → limit.
// Grouping produces SubViews (index lists into parent view).
// ============================================================================

// Group is one set of rows sharing the group-by values.
type Group struct {
	Key    string
	Labels []string
	View   RecordView
}

// Execute evaluates d against view and returns the result rows, keyed by
// OutputKey, in descriptor output order.
func Execute(view RecordView, d Descriptor) RecordView {
	filtered := ApplyFilters(view, d.RowFilters)
	outputs := d.Outputs()
	keys := make([]string, len(outputs))
	for i, b := range outputs {
		keys[i] = OutputKey(b)
	}

	if d.Raw {
		return project(filtered, d.Columns, keys, d.Limit)
	}

	groupKeys := make([]string, len(d.GroupBy))
	for i, b := range d.GroupBy {
		groupKeys[i] = KeyFor(view, b.Ref())
	}
	groups := GroupBy(filtered, groupKeys)

	// HAVING
	if len(d.GroupFilters) > 0 {
		kept := groups[:0]
		for _, g := range groups {
			if passesGroupFilters(g.View, d.GroupFilters) {
				kept = append(kept, g)
			}
		}
		groups = kept
	}

	if d.Rank != nil {
		rankGroups(groups, *d.Rank)
		if d.Rank.Count > 0 && len(groups) > d.Rank.Count {
			groups = groups[:d.Rank.Count]
		}
	}

	if d.Limit > 0 && len(groups) > d.Limit {
		groups = groups[:d.Limit]
	}

	records := make([]Record, 0, len(groups))
	for _, g := range groups {
		r := Record{Dimensions: make(map[string]string, len(keys))}
		for i, b := range d.GroupBy {
			r.Set(OutputKey(b), g.Labels[i])
		}
		for _, b := range d.Measures {
			r.Set(OutputKey(b), AggregateText(g.View, KeyFor(view, b.Ref()), b.Aggregation))
		}
		records = append(records, r)
	}
	return NewSliceView(records, keys...)
}

func project(view RecordView, columns []model.FieldBinding, keys []string, limit int) RecordView {
	n := view.Len()
	if limit > 0 && n > limit {
		n = limit
	}
	src := make([]string, len(columns))
	for i, b := range columns {
		src[i] = KeyFor(view, b.Ref())
	}
	records := make([]Record, n)
	for i := 0; i < n; i++ {
		r := Record{Dimensions: make(map[string]string, len(keys))}
		for c, k := range keys {
			r.Set(k, view.Dimension(i, src[c]))
		}
		records[i] = r
	}
	return NewSliceView(records, keys...)
}

// ============================================================================
// GROUPING
// ============================================================================

// GroupBy splits view by the values of keys, in order of first appearance.
// No keys yields a single group over every row.
func GroupBy(view RecordView, keys []string) []Group {
	if len(keys) == 0 {
		all := make([]int, view.Len())
		for i := range all {
			all[i] = i
		}
		return []Group{{Key: "all", View: newSubView(view, all)}}
	}

	grouped := make(map[string][]int)
	labels := make(map[string][]string)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		vals := make([]string, len(keys))
		for k, key := range keys {
			vals[k] = view.Dimension(i, key)
		}
		key := strings.Join(vals, "\x1f")
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
			labels[key] = vals
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:    key,
			Labels: labels[key],
			View:   newSubView(view, grouped[key]),
		})
	}
	return groups
}

func passesGroupFilters(view RecordView, filters model.FilterSet) bool {
	for _, f := range filters {
		v := AggregateText(view, KeyFor(view, f.Ref()), f.Aggregation)
		if !Matches(f.Config, v) {
			return false
		}
	}
	return true
}

func rankGroups(groups []Group, r Ranking) {
	values := make([]float64, len(groups))
	for i, g := range groups {
		values[i], _ = Aggregate(g.View, KeyFor(g.View, r.Ref()), r.Aggregation)
	}
	idx := make([]int, len(groups))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if r.Direction == model.Descending {
			return values[idx[a]] > values[idx[b]]
		}
		return values[idx[a]] < values[idx[b]]
	})
	sorted := make([]Group, len(groups))
	for i, j := range idx {
		sorted[i] = groups[j]
	}
	copy(groups, sorted)
}

// ============================================================================
// AGGREGATION
// ============================================================================

// Aggregate reduces one column of view to a number. ok is false when the
// aggregation has no numeric result (no numeric input, or first/last of text).
func Aggregate(view RecordView, key string, agg model.Aggregation) (float64, bool) {
	switch agg {
	case model.AggCount:
		n := 0
		for i := 0; i < view.Len(); i++ {
			if !isBlank(view.Dimension(i, key)) {
				n++
			}
		}
		return float64(n), true
	case model.AggCountDistinct:
		seen := map[string]bool{}
		for i := 0; i < view.Len(); i++ {
			if v := view.Dimension(i, key); !isBlank(v) {
				seen[v] = true
			}
		}
		return float64(len(seen)), true
	case model.AggFirst, model.AggLast, model.AggNone:
		f, ok := pick(view, key, agg)
		if !ok {
			return 0, false
		}
		return measureOf(view, key, f)
	}

	data := numbers(view, key)
	if agg == model.AggSum && len(data) == 0 {
		return 0, true
	}
	var (
		v   float64
		err error
	)
	switch agg {
	case model.AggSum:
		v, err = stats.Sum(data)
	case model.AggAverage:
		v, err = stats.Mean(data)
	case model.AggMin:
		v, err = stats.Min(data)
	case model.AggMax:
		v, err = stats.Max(data)
	default:
		return 0, false
	}
	if err != nil {
		return 0, false
	}
	return v, true
}

// AggregateText is Aggregate rendered as a cell value; first/last keep text.
func AggregateText(view RecordView, key string, agg model.Aggregation) string {
	switch agg {
	case model.AggFirst, model.AggLast, model.AggNone:
		if i, ok := pick(view, key, agg); ok {
			return view.Dimension(i, key)
		}
		return ""
	}
	if v, ok := Aggregate(view, key, agg); ok {
		return formatNumber(v)
	}
	return ""
}

// pick returns the row index of the first (or last) non-blank value.
func pick(view RecordView, key string, agg model.Aggregation) (int, bool) {
	n := view.Len()
	if agg == model.AggLast {
		for i := n - 1; i >= 0; i-- {
			if !isBlank(view.Dimension(i, key)) {
				return i, true
			}
		}
		return 0, false
	}
	for i := 0; i < n; i++ {
		if !isBlank(view.Dimension(i, key)) {
			return i, true
		}
	}
	return 0, false
}

func measureOf(view RecordView, key string, i int) (float64, bool) {
	return view.Measure(i, key)
}

func numbers(view RecordView, key string) []float64 {
	data := make([]float64, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if f, ok := view.Measure(i, key); ok {
			data = append(data, f)
		}
	}
	return data
}
