package engine

import (
	"strings"

	"github.com/spektr-org/canvas/schema"
)

// ============================================================================
// COMPARATORS — Type-aware ordering of textual cell values
// ============================================================================
// compareValues orders two non-blank values ascending. Values the type's
// parser rejects sort after the parsed ones.
// ============================================================================

func compareValues(a, b string, t schema.SortType) int {
	switch t {
	case schema.SortNumeric:
		return compareNumeric(a, b)
	case schema.SortDate:
		return compareDate(a, b)
	case schema.SortDateNum:
		return compareDateNum(a, b)
	}
	return compareText(a, b)
}

func compareNumeric(a, b string) int {
	x, okA := schema.ParseNumber(a)
	y, okB := schema.ParseNumber(b)
	switch {
	case okA && okB:
		return compareFloat(x, y)
	case okA:
		return -1
	case okB:
		return 1
	}
	return compareText(a, b)
}

func compareDate(a, b string) int {
	x, okA := schema.ParseDayMonthYear(a)
	y, okB := schema.ParseDayMonthYear(b)
	switch {
	case okA && okB:
		return x.Compare(y)
	case okA:
		return -1
	case okB:
		return 1
	}
	return compareText(a, b)
}

// Class ranks for mixed columns: dates, then numbers, then free text.
const (
	classDate = iota
	classNumber
	classText
)

func valueClass(v string) int {
	if schema.IsDateLike(v) {
		if _, ok := schema.ParseDayMonthYear(v); ok {
			return classDate
		}
	}
	if _, ok := schema.ParseNumber(v); ok {
		return classNumber
	}
	return classText
}

func compareDateNum(a, b string) int {
	ca, cb := valueClass(a), valueClass(b)
	if ca != cb {
		return ca - cb
	}
	switch ca {
	case classDate:
		return compareDate(a, b)
	case classNumber:
		return compareNumeric(a, b)
	}
	return compareText(a, b)
}

func compareText(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func compareFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
