package engine

import (
	"strings"

	"github.com/spektr-org/canvas/model"
	"github.com/spektr-org/canvas/schema"
)

// ============================================================================
// FIELD BINDING — Drop, remove, reorder and re-aggregate slot bindings
// ============================================================================
// Each operation clones the visual, mutates the clone, then re-derives the
// implicit filters and hasData before handing it back.
// ============================================================================

// Bind appends b to slot. A single-valued slot that is already occupied
// fails with *SlotCardinalityError; use BindAt to replace.
func (e *Engine) Bind(v model.Visual, slot string, b model.FieldBinding) (model.Visual, error) {
	spec, err := slotSpec(v, slot)
	if err != nil {
		return v, err
	}
	if !spec.Multiple && len(v.Slots[slot]) > 0 {
		return v, &SlotCardinalityError{Kind: v.Kind, Slot: slot, Op: "bind"}
	}
	return e.bindAt(v, spec, len(v.Slots[slot]), b, false)
}

// BindAt binds b at index. On a multi-valued slot the binding is inserted
// (index is clamped to the slot length); on a single-valued slot the binding
// at index 0 is replaced.
func (e *Engine) BindAt(v model.Visual, slot string, index int, b model.FieldBinding) (model.Visual, error) {
	spec, err := slotSpec(v, slot)
	if err != nil {
		return v, err
	}
	n := len(v.Slots[slot])
	if spec.Multiple {
		if index < 0 || index > n {
			index = n
		}
		return e.bindAt(v, spec, index, b, false)
	}
	if index != 0 {
		return v, &IndexError{What: "binding", Index: index, Len: 1}
	}
	return e.bindAt(v, spec, 0, b, n > 0)
}

func (e *Engine) bindAt(v model.Visual, spec model.SlotSpec, index int, b model.FieldBinding, replace bool) (model.Visual, error) {
	b = e.prepare(v.Kind, spec, b)

	out := *v.Clone()
	if out.Slots == nil {
		out.Slots = map[string][]model.FieldBinding{}
	}
	list := out.Slots[spec.Name]
	if replace {
		list[index] = b
	} else {
		list = append(list, model.FieldBinding{})
		copy(list[index+1:], list[index:])
		list[index] = b
	}
	out.Slots[spec.Name] = list
	settle(&out)

	e.log.Debug("field bound", "kind", v.Kind, "slot", spec.Name, "field", b.Ref(), "aggregation", b.Aggregation)
	return out, nil
}

// prepare fills in the defaults a freshly dropped column receives.
func (e *Engine) prepare(kind model.VisualKind, spec model.SlotSpec, b model.FieldBinding) model.FieldBinding {
	if b.Type == schema.TypeUnknown {
		if col, ok := e.cfg.Catalog.Lookup(b.Table, b.Column); ok {
			b.Type = col.Type
		}
	}
	b.DisplayName = strings.TrimSpace(b.DisplayName)
	if b.DisplayName == "" {
		b.DisplayName = b.Column
	}
	b.Aggregation = model.DefaultAggregation(kind, spec, b.Type.Numeric())
	return b
}

// Unbind removes the binding at index, together with any implicit filter
// no other binding still needs.
func (e *Engine) Unbind(v model.Visual, slot string, index int) (model.Visual, error) {
	spec, err := slotSpec(v, slot)
	if err != nil {
		return v, err
	}
	list := v.Slots[slot]
	if index < 0 || index >= len(list) {
		return v, &IndexError{What: "binding", Index: index, Len: len(list)}
	}
	removed := list[index]

	out := *v.Clone()
	rest := out.Slots[spec.Name]
	out.Slots[spec.Name] = append(rest[:index], rest[index+1:]...)
	settle(&out)

	e.log.Debug("field unbound", "kind", v.Kind, "slot", slot, "field", removed.Ref())
	return out, nil
}

// Reorder swaps two bindings of a multi-valued slot.
func (e *Engine) Reorder(v model.Visual, slot string, from, to int) (model.Visual, error) {
	spec, err := slotSpec(v, slot)
	if err != nil {
		return v, err
	}
	if !spec.Multiple {
		return v, &SlotCardinalityError{Kind: v.Kind, Slot: slot, Op: "reorder"}
	}
	list := v.Slots[slot]
	for _, i := range []int{from, to} {
		if i < 0 || i >= len(list) {
			return v, &IndexError{What: "binding", Index: i, Len: len(list)}
		}
	}
	out := *v.Clone()
	l := out.Slots[slot]
	l[from], l[to] = l[to], l[from]
	return out, nil
}

// Replace swaps the binding at index for nb, migrating implicit filters.
func (e *Engine) Replace(v model.Visual, slot string, index int, nb model.FieldBinding) (model.Visual, error) {
	spec, err := slotSpec(v, slot)
	if err != nil {
		return v, err
	}
	if index < 0 || index >= len(v.Slots[slot]) {
		return v, &IndexError{What: "binding", Index: index, Len: len(v.Slots[slot])}
	}
	return e.bindAt(v, spec, index, nb, true)
}

// ChangeAggregation sets a new aggregation on one binding. The aggregated
// implicit filter follows the aggregation; the raw one is untouched.
func (e *Engine) ChangeAggregation(v model.Visual, slot string, index int, agg model.Aggregation) (model.Visual, error) {
	spec, err := slotSpec(v, slot)
	if err != nil {
		return v, err
	}
	list := v.Slots[slot]
	if index < 0 || index >= len(list) {
		return v, &IndexError{What: "binding", Index: index, Len: len(list)}
	}
	numeric := list[index].Type.Numeric()
	if !model.IsAllowed(v.Kind, spec, numeric, agg) {
		return v, &InvalidAggregationError{
			Kind:        v.Kind,
			Slot:        slot,
			Aggregation: agg,
			Allowed:     model.AllowedAggregations(v.Kind, spec, numeric),
		}
	}
	out := *v.Clone()
	out.Slots[slot][index].Aggregation = agg
	settle(&out)

	e.log.Debug("aggregation changed", "kind", v.Kind, "slot", slot, "field", list[index].Ref(), "from", list[index].Aggregation, "to", agg)
	return out, nil
}

// Rename sets the display alias of one binding. A blank name restores the
// raw column name.
func (e *Engine) Rename(v model.Visual, slot string, index int, name string) (model.Visual, error) {
	if _, err := slotSpec(v, slot); err != nil {
		return v, err
	}
	list := v.Slots[slot]
	if index < 0 || index >= len(list) {
		return v, &IndexError{What: "binding", Index: index, Len: len(list)}
	}
	out := *v.Clone()
	b := &out.Slots[slot][index]
	b.DisplayName = strings.TrimSpace(name)
	if b.DisplayName == "" {
		b.DisplayName = b.Column
	}
	settle(&out)
	return out, nil
}

func slotSpec(v model.Visual, slot string) (model.SlotSpec, error) {
	spec, ok := v.Kind.Slot(slot)
	if !ok {
		return model.SlotSpec{}, &UnknownSlotError{Kind: v.Kind, Slot: slot}
	}
	return spec, nil
}

// settle drops empty slots, re-derives implicit filters and hasData.
func settle(v *model.Visual) {
	for name, list := range v.Slots {
		if len(list) == 0 {
			delete(v.Slots, name)
		}
	}
	if len(v.Slots) == 0 {
		v.Slots = nil
	}
	v.HasData = len(v.Slots) > 0
	v.Filters = syncImplicit(*v)
}
