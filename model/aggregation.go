package model

import (
	"encoding/json"
	"fmt"
)

// Aggregation is the reduction applied to a bound column.
type Aggregation uint8

const (
	AggNone Aggregation = iota
	AggSum
	AggAverage
	AggMin
	AggMax
	AggCount
	AggCountDistinct
	AggFirst
	AggLast
)

var aggNames = [...]string{
	AggNone:          "none",
	AggSum:           "sum",
	AggAverage:       "average",
	AggMin:           "min",
	AggMax:           "max",
	AggCount:         "count",
	AggCountDistinct: "countDistinct",
	AggFirst:         "first",
	AggLast:          "last",
}

var aggLabels = [...]string{
	AggNone:          "None",
	AggSum:           "Sum",
	AggAverage:       "Average",
	AggMin:           "Minimum",
	AggMax:           "Maximum",
	AggCount:         "Count",
	AggCountDistinct: "Count (distinct)",
	AggFirst:         "First",
	AggLast:          "Last",
}

func (a Aggregation) String() string {
	if int(a) < len(aggNames) {
		return aggNames[a]
	}
	return "none"
}

// Label is the human name used in derived filter titles ("Sum of amount").
func (a Aggregation) Label() string {
	if int(a) < len(aggLabels) {
		return aggLabels[a]
	}
	return aggLabels[AggNone]
}

// NumericStyle reports whether the aggregation yields a number that can be
// filtered after grouping. Only these get an aggregated implicit filter.
func (a Aggregation) NumericStyle() bool {
	switch a {
	case AggSum, AggAverage, AggMin, AggMax, AggCount, AggCountDistinct:
		return true
	}
	return false
}

// ParseAggregation accepts the keyword form. "avg" and "countd" are accepted
// as aliases for documents written by older editors.
func ParseAggregation(s string) (Aggregation, error) {
	switch s {
	case "", "none":
		return AggNone, nil
	case "avg":
		return AggAverage, nil
	case "countd":
		return AggCountDistinct, nil
	}
	for i, name := range aggNames {
		if name == s {
			return Aggregation(i), nil
		}
	}
	return AggNone, fmt.Errorf("unknown aggregation %q", s)
}

func (a Aggregation) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Aggregation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseAggregation(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

var (
	numericAggs = []Aggregation{AggSum, AggAverage, AggMin, AggMax, AggCount, AggCountDistinct}
	textAggs    = []Aggregation{AggFirst, AggLast, AggCount, AggCountDistinct}
	chartText   = []Aggregation{AggCount, AggCountDistinct}
)

// AllowedAggregations lists the aggregations a binding may carry in the
// given slot. The first entry is not necessarily the default; see
// DefaultAggregation.
func AllowedAggregations(kind VisualKind, slot SlotSpec, numeric bool) []Aggregation {
	if !slot.Aggregatable {
		return []Aggregation{AggNone}
	}
	switch {
	case kind.Tabular() && numeric:
		return append([]Aggregation{AggNone}, numericAggs...)
	case kind.Tabular():
		return append([]Aggregation{AggNone}, textAggs...)
	case numeric:
		return append([]Aggregation(nil), numericAggs...)
	case kind == KindCard:
		return append([]Aggregation(nil), textAggs...)
	default:
		return append([]Aggregation(nil), chartText...)
	}
}

// IsAllowed reports whether agg is in AllowedAggregations.
func IsAllowed(kind VisualKind, slot SlotSpec, numeric bool, agg Aggregation) bool {
	for _, a := range AllowedAggregations(kind, slot, numeric) {
		if a == agg {
			return true
		}
	}
	return false
}

// DefaultAggregation is the aggregation assigned when a column is first
// dropped on a slot.
func DefaultAggregation(kind VisualKind, slot SlotSpec, numeric bool) Aggregation {
	switch {
	case kind.Tabular() || !slot.Aggregatable:
		return AggNone
	case numeric:
		return AggSum
	default:
		return AggCount
	}
}
