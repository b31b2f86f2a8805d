package engine

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spektr-org/canvas/model"
	"github.com/spektr-org/canvas/schema"
)

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// Materialised rows (query results, file imports) are read through this
// interface. Filtering and sorting produce SubViews: index lists into the
// parent, never copies.
//
// Implementations:
//   SliceView — wraps []Record
//   SubView   — filtered or reordered subset of a parent view
// ============================================================================

// RecordView provides indexed access to a row set.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) (float64, bool)
	Keys() []string // column keys in display order
}

// Record is one materialised row. Every value is kept as text in Dimensions;
// values that parse as numbers are mirrored in Measures.
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures,omitempty"`
}

// NewRecord builds a record from textual values.
func NewRecord(values map[string]string) Record {
	r := Record{Dimensions: make(map[string]string, len(values))}
	for k, v := range values {
		r.Set(k, v)
	}
	return r
}

// RecordFromMap builds a record from decoded JSON values. nil becomes blank.
func RecordFromMap(values map[string]any) Record {
	r := Record{Dimensions: make(map[string]string, len(values))}
	for k, v := range values {
		switch t := v.(type) {
		case nil:
			r.Dimensions[k] = ""
		case float64:
			r.Dimensions[k] = strconv.FormatFloat(t, 'f', -1, 64)
			r.setMeasure(k, t)
		case bool:
			r.Dimensions[k] = strconv.FormatBool(t)
		case string:
			r.Set(k, t)
		default:
			r.Set(k, fmt.Sprint(t))
		}
	}
	return r
}

// Set stores a textual value, mirroring it as a measure when numeric.
func (r *Record) Set(key, value string) {
	if r.Dimensions == nil {
		r.Dimensions = map[string]string{}
	}
	r.Dimensions[key] = value
	if f, ok := schema.ParseNumber(value); ok {
		r.setMeasure(key, f)
	}
}

func (r *Record) setMeasure(key string, f float64) {
	if r.Measures == nil {
		r.Measures = map[string]float64{}
	}
	r.Measures[key] = f
}

// ============================================================================
// SLICE VIEW — wraps []Record
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
type SliceView struct {
	records []Record
	keys    []string
}

// NewSliceView creates a RecordView from records. keys fixes the column
// order; when omitted the keys are collected from the records and sorted.
func NewSliceView(records []Record, keys ...string) RecordView {
	v := &SliceView{records: records, keys: keys}
	if len(v.keys) == 0 {
		v.cacheKeys()
	}
	return v
}

func (v *SliceView) cacheKeys() {
	seen := make(map[string]bool)
	for _, r := range v.records {
		for k := range r.Dimensions {
			if !seen[k] {
				seen[k] = true
				v.keys = append(v.keys, k)
			}
		}
	}
	sort.Strings(v.keys)
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Dimensions[key]
}

func (v *SliceView) Measure(i int, key string) (float64, bool) {
	if i < 0 || i >= len(v.records) {
		return 0, false
	}
	f, ok := v.records[i].Measures[key]
	return f, ok
}

func (v *SliceView) Keys() []string { return v.keys }

// ============================================================================
// SUB VIEW — filtered or reordered subset (zero-copy)
// ============================================================================

// SubView is a subset of a parent RecordView.
// Holds indices into the parent — no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) (float64, bool) {
	if i < 0 || i >= len(v.indices) {
		return 0, false
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) Keys() []string { return v.parent.Keys() }

// Materialize copies a view into plain records.
func Materialize(view RecordView) []Record {
	keys := view.Keys()
	out := make([]Record, view.Len())
	for i := range out {
		r := Record{Dimensions: make(map[string]string, len(keys))}
		for _, k := range keys {
			r.Dimensions[k] = view.Dimension(i, k)
			if f, ok := view.Measure(i, k); ok {
				r.setMeasure(k, f)
			}
		}
		out[i] = r
	}
	return out
}

// Column returns every value of one key.
func Column(view RecordView, key string) []string {
	out := make([]string, view.Len())
	for i := range out {
		out[i] = view.Dimension(i, key)
	}
	return out
}

// KeyFor resolves a column reference against the view's keys: a qualified
// "table.column" key wins over the bare column name.
func KeyFor(view RecordView, ref model.ColumnRef) string {
	if ref.Table != "" {
		q := ref.String()
		for _, k := range view.Keys() {
			if k == q {
				return q
			}
		}
	}
	return ref.Column
}
