package model

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// VISUAL KINDS — Tagged union keyed by kind, slot schema as table data
// ============================================================================
// Every kind carries a fixed slot schema. The engine never dispatches on
// slot names; it reads cardinality and aggregatability from SlotsFor.
// ============================================================================

// VisualKind identifies the shape of a Visual.
type VisualKind uint8

const (
	KindUnknown VisualKind = iota
	KindCard
	KindTable
	KindMatrix
	KindBar
	KindColumn
	KindLine
	KindPie
	KindGauge
)

// AllKinds lists every placeable kind in sidebar order.
var AllKinds = []VisualKind{KindCard, KindTable, KindMatrix, KindBar, KindColumn, KindLine, KindPie, KindGauge}

var kindNames = map[VisualKind]string{
	KindCard:   "card",
	KindTable:  "table",
	KindMatrix: "matrix",
	KindBar:    "bar",
	KindColumn: "column",
	KindLine:   "line",
	KindPie:    "pie",
	KindGauge:  "gauge",
}

func (k VisualKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseVisualKind maps a keyword back to its kind.
func ParseVisualKind(s string) (VisualKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown visual kind %q", s)
}

// Tabular reports whether the kind renders raw projected rows.
func (k VisualKind) Tabular() bool {
	return k == KindTable || k == KindMatrix
}

func (k VisualKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *VisualKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseVisualKind(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// SlotSpec describes one binding point on a visual.
type SlotSpec struct {
	Name         string
	Title        string
	Multiple     bool
	Aggregatable bool
}

var slotSchemas = map[VisualKind][]SlotSpec{
	KindCard: {
		{Name: "value", Title: "Value", Aggregatable: true},
	},
	KindBar: {
		{Name: "yAxis", Title: "Y axis"},
		{Name: "xAxis", Title: "X axis", Multiple: true, Aggregatable: true},
	},
	KindColumn: {
		{Name: "xAxis", Title: "X axis"},
		{Name: "columnValues", Title: "Column values", Multiple: true, Aggregatable: true},
	},
	KindLine: {
		{Name: "xAxis", Title: "X axis"},
		{Name: "yAxis", Title: "Y axis", Multiple: true, Aggregatable: true},
	},
	KindPie: {
		{Name: "legend", Title: "Legend"},
		{Name: "values", Title: "Values", Aggregatable: true},
	},
	KindGauge: {
		{Name: "value", Title: "Value", Aggregatable: true},
		{Name: "minValue", Title: "Minimum value", Aggregatable: true},
		{Name: "maxValue", Title: "Maximum value", Aggregatable: true},
	},
	KindTable: {
		{Name: "columns", Title: "Columns", Multiple: true, Aggregatable: true},
	},
	KindMatrix: {
		{Name: "rows", Title: "Rows"},
		{Name: "columns", Title: "Columns"},
		{Name: "values", Title: "Values", Aggregatable: true},
	},
}

// SlotsFor returns the ordered slot schema of a kind.
func SlotsFor(k VisualKind) []SlotSpec {
	return slotSchemas[k]
}

// Slot looks up a single slot spec by name.
func (k VisualKind) Slot(name string) (SlotSpec, bool) {
	for _, s := range slotSchemas[k] {
		if s.Name == name {
			return s, true
		}
	}
	return SlotSpec{}, false
}
