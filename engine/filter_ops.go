package engine

import (
	"github.com/google/uuid"

	"github.com/spektr-org/canvas/model"
)

// NewFilter builds an explicit filter on a column with a fresh id.
func NewFilter(ref model.ColumnRef, displayName string, cfg model.FilterConfig) model.Filter {
	return model.Filter{
		ID:          uuid.NewString(),
		Table:       ref.Table,
		Column:      ref.Column,
		DisplayName: displayName,
		Config:      cfg,
	}
}

// AddFilter appends an explicit filter to a set.
func (e *Engine) AddFilter(fs model.FilterSet, f model.Filter) (model.FilterSet, error) {
	if f.Implicit {
		return fs, &FilterError{ID: f.ID, Reason: "implicit filters are derived from bindings"}
	}
	if err := checkConfig(f, f.Config); err != nil {
		return fs, err
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	e.log.Debug("filter added", "id", f.ID, "column", f.Ref())
	return fs.Add(f), nil
}

// ConfigureFilter replaces the config of a filter, implicit ones included.
func (e *Engine) ConfigureFilter(fs model.FilterSet, id string, cfg model.FilterConfig) (model.FilterSet, error) {
	f, ok := fs.Find(id)
	if !ok {
		return fs, &FilterError{ID: id, Reason: "not found"}
	}
	if err := checkConfig(f, cfg); err != nil {
		return fs, err
	}
	out, _ := fs.Configure(id, cfg)
	return out, nil
}

// ClearFilter resets a filter to its unrestricted default.
func (e *Engine) ClearFilter(fs model.FilterSet, id string) (model.FilterSet, error) {
	out, ok := fs.Reset(id)
	if !ok {
		return fs, &FilterError{ID: id, Reason: "not found"}
	}
	return out, nil
}

// RemoveFilter deletes an explicit filter. Removing an implicit filter is a
// no-op and reports false.
func (e *Engine) RemoveFilter(fs model.FilterSet, id string) (model.FilterSet, bool) {
	out, ok := fs.Remove(id)
	if !ok {
		e.log.Debug("filter removal ignored", "id", id)
	}
	return out, ok
}

// VisualFilters adapts a FilterSet operation to a visual.
func VisualFilters(fn func(model.FilterSet) (model.FilterSet, error)) func(model.Visual) (model.Visual, error) {
	return func(v model.Visual) (model.Visual, error) {
		fs, err := fn(v.Filters)
		if err != nil {
			return v, err
		}
		v.Filters = fs
		return v, nil
	}
}

func checkConfig(f model.Filter, cfg model.FilterConfig) error {
	if err := cfg.Validate(); err != nil {
		return &FilterError{ID: f.ID, Reason: err.Error()}
	}
	if cfg.Type == model.ConfigTopN && !f.Aggregated {
		return &FilterError{ID: f.ID, Reason: "topN applies to aggregated filters only"}
	}
	return nil
}
