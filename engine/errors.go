package engine

import (
	"errors"
	"fmt"

	"github.com/spektr-org/canvas/model"
)

// ============================================================================
// ERRORS — Local, recoverable engine errors
// ============================================================================

// ErrStaleFetch marks a fetch result issued against a superseded model
// version. Callers drop it silently.
var ErrStaleFetch = errors.New("stale fetch ignored")

// ErrEmptyVisual is returned when resolving a visual with no bindings.
var ErrEmptyVisual = errors.New("visual has no bound fields")

// SlotCardinalityError reports a bind or reorder the slot's cardinality
// does not allow.
type SlotCardinalityError struct {
	Kind model.VisualKind
	Slot string
	Op   string
}

func (e *SlotCardinalityError) Error() string {
	if e.Op == "reorder" {
		return fmt.Sprintf("slot %s of %s visual holds a single field and cannot be reordered", e.Slot, e.Kind)
	}
	return fmt.Sprintf("slot %s of %s visual is already occupied", e.Slot, e.Kind)
}

// InvalidAggregationError reports an aggregation the slot does not permit.
type InvalidAggregationError struct {
	Kind        model.VisualKind
	Slot        string
	Aggregation model.Aggregation
	Allowed     []model.Aggregation
}

func (e *InvalidAggregationError) Error() string {
	return fmt.Sprintf("aggregation %s not allowed on slot %s of %s visual (allowed: %v)",
		e.Aggregation, e.Slot, e.Kind, e.Allowed)
}

// TemplateShrinkError reports a template change that would drop visuals.
type TemplateShrinkError struct {
	Row       int
	Populated int
	Capacity  int
}

func (e *TemplateShrinkError) Error() string {
	return fmt.Sprintf("row %d holds %d visuals but the new template fits %d", e.Row, e.Populated, e.Capacity)
}

// UnknownSlotError reports a slot name the visual kind does not define.
type UnknownSlotError struct {
	Kind model.VisualKind
	Slot string
}

func (e *UnknownSlotError) Error() string {
	return fmt.Sprintf("%s visual has no slot %q", e.Kind, e.Slot)
}

// IndexError reports an out-of-range row, column, binding or filter.
type IndexError struct {
	What  string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0,%d)", e.What, e.Index, e.Len)
}

// CellError reports a drop on a cell in the wrong state.
type CellError struct {
	Position model.Position
	Occupied bool
}

func (e *CellError) Error() string {
	if e.Occupied {
		return fmt.Sprintf("cell %d/%d already holds a visual", e.Position.Row, e.Position.Column)
	}
	return fmt.Sprintf("cell %d/%d is empty", e.Position.Row, e.Position.Column)
}

// FilterError reports an unknown filter id or a config the filter cannot take.
type FilterError struct {
	ID     string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %s: %s", e.ID, e.Reason)
}
