package model

import (
	"github.com/spektr-org/canvas/schema"
)

// ============================================================================
// BINDING MODEL — Canonical in-memory representation of one report
// ============================================================================
// Dashboard → Rows → Columns → at most one Visual. Pure data: every mutation
// lives in the engine package as a (model) → model' function.
// ============================================================================

// Height level bounds for a Row.
const (
	MinHeightLevel     = 1
	MaxHeightLevel     = 10
	DefaultHeightLevel = 5
)

// Document is the persisted unit: layout plus page-level filters.
type Document struct {
	Layout      Dashboard `json:"layout"`
	PageFilters FilterSet `json:"pageFilters"`
}

// Dashboard is the root aggregate of a report.
type Dashboard struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Rows        []Row  `json:"rows"`
}

// Row is one horizontal band of the grid.
type Row struct {
	ID          string       `json:"id"`
	Template    GridTemplate `json:"columnTemplate"`
	HeightLevel int          `json:"heightLevel"`
	Columns     []Column     `json:"columns"`
}

// PixelHeight is the rendered height hint for the row.
func (r Row) PixelHeight() int {
	return 200 + 50*r.HeightLevel
}

// Populated counts columns holding a visual.
func (r Row) Populated() int {
	n := 0
	for _, c := range r.Columns {
		if c.Visual != nil {
			n++
		}
	}
	return n
}

// Column is one cell of a Row; a nil Visual is an empty drop target.
type Column struct {
	Visual *Visual `json:"visual"`
}

// Visual is one chart, table or card placed in the grid.
type Visual struct {
	Kind    VisualKind                `json:"kind"`
	Slots   map[string][]FieldBinding `json:"fieldSlots,omitempty"`
	HasData bool                      `json:"hasData"`
	Filters FilterSet                 `json:"filters,omitempty"`
	Format  FormatOptions             `json:"format,omitempty"`
}

// NewVisual returns an empty visual of the given kind.
func NewVisual(kind VisualKind) *Visual {
	return &Visual{Kind: kind}
}

// Bindings returns every binding in slot-schema order.
func (v Visual) Bindings() []SlotBinding {
	var out []SlotBinding
	for _, spec := range SlotsFor(v.Kind) {
		for i, b := range v.Slots[spec.Name] {
			out = append(out, SlotBinding{Slot: spec, Index: i, Binding: b})
		}
	}
	return out
}

// SlotBinding is a binding together with its position.
type SlotBinding struct {
	Slot    SlotSpec
	Index   int
	Binding FieldBinding
}

// FieldBinding is a data column bound to a slot.
type FieldBinding struct {
	Table       string            `json:"sourceTable"`
	Column      string            `json:"sourceColumn"`
	DisplayName string            `json:"displayName"`
	Aggregation Aggregation       `json:"aggregation"`
	Type        schema.ColumnType `json:"type,omitempty"`
}

// Ref returns the (table, column) key of the binding.
func (b FieldBinding) Ref() ColumnRef {
	return ColumnRef{Table: b.Table, Column: b.Column}
}

// Label is the alias, falling back to the raw column name.
func (b FieldBinding) Label() string {
	if b.DisplayName != "" {
		return b.DisplayName
	}
	return b.Column
}

// ColumnRef addresses a source column.
type ColumnRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

func (c ColumnRef) String() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// Position addresses one Column of the grid.
type Position struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}
