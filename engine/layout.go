package engine

import (
	"strings"

	"github.com/google/uuid"

	"github.com/spektr-org/canvas/model"
)

// ============================================================================
// LAYOUT GRID — Row and cell mutations on the dashboard
// ============================================================================

// MoveDirection is the direction of a row move.
type MoveDirection int

const (
	MoveUp   MoveDirection = -1
	MoveDown MoveDirection = 1
)

// AddRow appends a row of empty columns shaped by template.
func (e *Engine) AddRow(d model.Dashboard, template model.GridTemplate) model.Dashboard {
	out := d.Clone()
	row := model.Row{
		ID:          uuid.NewString(),
		Template:    template,
		HeightLevel: model.DefaultHeightLevel,
		Columns:     make([]model.Column, template.Capacity()),
	}
	out.Rows = append(out.Rows, row)
	e.log.Debug("row added", "row", len(out.Rows)-1, "template", template)
	return out
}

// RowHasVisuals reports whether removing the row would discard visuals, so
// the caller can ask for confirmation first.
func RowHasVisuals(d model.Dashboard, index int) bool {
	if index < 0 || index >= len(d.Rows) {
		return false
	}
	return d.Rows[index].Populated() > 0
}

// RemoveRow deletes a row unconditionally.
func (e *Engine) RemoveRow(d model.Dashboard, index int) (model.Dashboard, error) {
	if err := checkRow(d, index); err != nil {
		return d, err
	}
	out := d.Clone()
	out.Rows = append(out.Rows[:index], out.Rows[index+1:]...)
	e.log.Debug("row removed", "row", index)
	return out, nil
}

// MoveRow shifts a row one place. Moving past either end is a no-op.
func (e *Engine) MoveRow(d model.Dashboard, index int, dir MoveDirection) (model.Dashboard, error) {
	if err := checkRow(d, index); err != nil {
		return d, err
	}
	target := index + int(dir)
	if target < 0 || target >= len(d.Rows) {
		return d, nil
	}
	out := d.Clone()
	out.Rows[index], out.Rows[target] = out.Rows[target], out.Rows[index]
	return out, nil
}

// ChangeTemplate reshapes a row. Visuals keep their cell when it still
// exists, otherwise they are packed left in their original order. Fails with
// *TemplateShrinkError when the row holds more visuals than fit.
func (e *Engine) ChangeTemplate(d model.Dashboard, index int, template model.GridTemplate) (model.Dashboard, error) {
	if err := checkRow(d, index); err != nil {
		return d, err
	}
	row := d.Rows[index]
	capacity := template.Capacity()
	if n := row.Populated(); n > capacity {
		return d, &TemplateShrinkError{Row: index, Populated: n, Capacity: capacity}
	}

	out := d.Clone()
	src := out.Rows[index].Columns
	cols := make([]model.Column, capacity)

	fits := true
	for i, c := range src {
		if c.Visual != nil && i >= capacity {
			fits = false
			break
		}
	}
	if fits {
		copy(cols, src)
	} else {
		n := 0
		for _, c := range src {
			if c.Visual != nil {
				cols[n] = c
				n++
			}
		}
	}
	out.Rows[index].Columns = cols
	out.Rows[index].Template = template
	e.log.Debug("row template changed", "row", index, "from", row.Template, "to", template)
	return out, nil
}

// SetHeightLevel sets a row's height, clamped to the allowed levels.
func (e *Engine) SetHeightLevel(d model.Dashboard, index, level int) (model.Dashboard, error) {
	if err := checkRow(d, index); err != nil {
		return d, err
	}
	level = min(max(level, model.MinHeightLevel), model.MaxHeightLevel)
	out := d.Clone()
	out.Rows[index].HeightLevel = level
	return out, nil
}

// PlaceVisual drops a new empty visual of kind onto an empty cell.
func (e *Engine) PlaceVisual(d model.Dashboard, pos model.Position, kind model.VisualKind) (model.Dashboard, error) {
	if err := checkCell(d, pos); err != nil {
		return d, err
	}
	if d.VisualAt(pos) != nil {
		return d, &CellError{Position: pos, Occupied: true}
	}
	out := d.Clone()
	out.Rows[pos.Row].Columns[pos.Column].Visual = model.NewVisual(kind)
	e.log.Debug("visual placed", "row", pos.Row, "column", pos.Column, "kind", kind)
	return out, nil
}

// SwapVisuals exchanges the contents of two cells; either may be empty.
func (e *Engine) SwapVisuals(d model.Dashboard, a, b model.Position) (model.Dashboard, error) {
	for _, p := range []model.Position{a, b} {
		if err := checkCell(d, p); err != nil {
			return d, err
		}
	}
	if a == b {
		return d, nil
	}
	out := d.Clone()
	ca := &out.Rows[a.Row].Columns[a.Column]
	cb := &out.Rows[b.Row].Columns[b.Column]
	ca.Visual, cb.Visual = cb.Visual, ca.Visual
	return out, nil
}

// DeleteVisual empties a cell.
func (e *Engine) DeleteVisual(d model.Dashboard, pos model.Position) (model.Dashboard, error) {
	if err := checkCell(d, pos); err != nil {
		return d, err
	}
	if d.VisualAt(pos) == nil {
		return d, nil
	}
	out := d.Clone()
	out.Rows[pos.Row].Columns[pos.Column].Visual = nil
	e.log.Debug("visual deleted", "row", pos.Row, "column", pos.Column)
	return out, nil
}

// UpdateVisual applies fn to the visual at pos and stores the result.
func (e *Engine) UpdateVisual(d model.Dashboard, pos model.Position, fn func(model.Visual) (model.Visual, error)) (model.Dashboard, error) {
	if err := checkCell(d, pos); err != nil {
		return d, err
	}
	cur := d.VisualAt(pos)
	if cur == nil {
		return d, &CellError{Position: pos}
	}
	next, err := fn(*cur.Clone())
	if err != nil {
		return d, err
	}
	out := d.Clone()
	out.Rows[pos.Row].Columns[pos.Column].Visual = &next
	return out, nil
}

// SetFormat replaces the format tree of the visual at pos.
func (e *Engine) SetFormat(d model.Dashboard, pos model.Position, format model.FormatOptions) (model.Dashboard, error) {
	return e.UpdateVisual(d, pos, func(v model.Visual) (model.Visual, error) {
		v.Format = format.Clone()
		return v, nil
	})
}

// SetTitle sets the dashboard title.
func (e *Engine) SetTitle(d model.Dashboard, title string) model.Dashboard {
	out := d.Clone()
	out.Title = strings.TrimSpace(title)
	return out
}

// SetDescription sets the dashboard description.
func (e *Engine) SetDescription(d model.Dashboard, desc string) model.Dashboard {
	out := d.Clone()
	out.Description = strings.TrimSpace(desc)
	return out
}

func checkRow(d model.Dashboard, index int) error {
	if index < 0 || index >= len(d.Rows) {
		return &IndexError{What: "row", Index: index, Len: len(d.Rows)}
	}
	return nil
}

func checkCell(d model.Dashboard, pos model.Position) error {
	if err := checkRow(d, pos.Row); err != nil {
		return err
	}
	if n := len(d.Rows[pos.Row].Columns); pos.Column < 0 || pos.Column >= n {
		return &IndexError{What: "column", Index: pos.Column, Len: n}
	}
	return nil
}
