package model

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"
)

// mustCopy deep-copies between identical static types; a failure is a
// programming error, not a runtime condition.
func mustCopy(dst, src any) {
	if err := deepcopy.Copy(dst, src); err != nil {
		panic(fmt.Sprintf("model: deep copy %T: %v", src, err))
	}
}

// Clone deep-copies the config payload.
func (c FilterConfig) Clone() FilterConfig {
	var out FilterConfig
	mustCopy(&out, c)
	return out
}

// Clone deep-copies the set.
func (fs FilterSet) Clone() FilterSet {
	if fs == nil {
		return nil
	}
	var out FilterSet
	mustCopy(&out, fs)
	return out
}

// Clone deep-copies the visual, including its format tree.
func (v *Visual) Clone() *Visual {
	if v == nil {
		return nil
	}
	out := &Visual{
		Kind:    v.Kind,
		HasData: v.HasData,
		Filters: v.Filters.Clone(),
		Format:  v.Format.Clone(),
	}
	if len(v.Slots) > 0 {
		mustCopy(&out.Slots, v.Slots)
	}
	return out
}

// Clone deep-copies the row and every visual in it.
func (r Row) Clone() Row {
	out := r
	if r.Columns != nil {
		out.Columns = make([]Column, len(r.Columns))
		for i, c := range r.Columns {
			out.Columns[i] = Column{Visual: c.Visual.Clone()}
		}
	}
	return out
}

// Clone deep-copies the dashboard.
func (d Dashboard) Clone() Dashboard {
	out := d
	if d.Rows != nil {
		out.Rows = make([]Row, len(d.Rows))
		for i, r := range d.Rows {
			out.Rows[i] = r.Clone()
		}
	}
	return out
}

// Clone deep-copies the document.
func (d Document) Clone() Document {
	return Document{Layout: d.Layout.Clone(), PageFilters: d.PageFilters.Clone()}
}

// NewDocument seeds an empty report titled name.
func NewDocument(name string) Document {
	return Document{Layout: Dashboard{Title: name, Rows: []Row{}}}
}

// VisualAt returns the visual at pos, nil when the cell is empty or out of range.
func (d Dashboard) VisualAt(pos Position) *Visual {
	if pos.Row < 0 || pos.Row >= len(d.Rows) {
		return nil
	}
	cols := d.Rows[pos.Row].Columns
	if pos.Column < 0 || pos.Column >= len(cols) {
		return nil
	}
	return cols[pos.Column].Visual
}

// Visuals lists every placed visual with its position, in grid order.
func (d Dashboard) Visuals() []Placed {
	var out []Placed
	for ri, r := range d.Rows {
		for ci, c := range r.Columns {
			if c.Visual != nil {
				out = append(out, Placed{Position: Position{Row: ri, Column: ci}, Visual: c.Visual})
			}
		}
	}
	return out
}

// Placed is a visual with its grid position.
type Placed struct {
	Position Position
	Visual   *Visual
}
