package model

// FilterSet is an ordered collection of filters attached to one Visual or to
// the page. Methods never modify the receiver; they return a new set.
type FilterSet []Filter

// Index returns the position of the filter with the given id, or -1.
func (fs FilterSet) Index(id string) int {
	for i, f := range fs {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the filter with the given id.
func (fs FilterSet) Find(id string) (Filter, bool) {
	if i := fs.Index(id); i >= 0 {
		return fs[i], true
	}
	return Filter{}, false
}

// Add appends a filter. A filter whose id already exists replaces it in place.
func (fs FilterSet) Add(f Filter) FilterSet {
	out := fs.Clone()
	if i := out.Index(f.ID); i >= 0 {
		out[i] = f
		return out
	}
	return append(out, f)
}

// Remove deletes an explicit filter. Implicit filters are owned by their
// bindings: removing one returns the set unchanged and false.
func (fs FilterSet) Remove(id string) (FilterSet, bool) {
	i := fs.Index(id)
	if i < 0 || fs[i].Implicit {
		return fs, false
	}
	out := make(FilterSet, 0, len(fs)-1)
	out = append(out, fs[:i]...)
	out = append(out, fs[i+1:]...)
	return out.normalize(), true
}

// Configure replaces the config of one filter; allowed on implicit filters.
func (fs FilterSet) Configure(id string, cfg FilterConfig) (FilterSet, bool) {
	i := fs.Index(id)
	if i < 0 {
		return fs, false
	}
	out := fs.Clone()
	out[i].Config = cfg.Clone()
	return out, true
}

// Reset returns one filter to its default (unrestricted) config.
func (fs FilterSet) Reset(id string) (FilterSet, bool) {
	f, ok := fs.Find(id)
	if !ok {
		return fs, false
	}
	return fs.Configure(id, f.DefaultConfig())
}

// ForColumn returns the row-level filters keyed to a column.
func (fs FilterSet) ForColumn(ref ColumnRef) FilterSet {
	var out FilterSet
	for _, f := range fs {
		if !f.Aggregated && f.Ref() == ref {
			out = append(out, f)
		}
	}
	return out
}

// Union concatenates two sets, page filters first by convention.
func (fs FilterSet) Union(other FilterSet) FilterSet {
	if len(fs) == 0 && len(other) == 0 {
		return nil
	}
	out := make(FilterSet, 0, len(fs)+len(other))
	out = append(out, fs.Clone()...)
	return append(out, other.Clone()...)
}

// Explicit returns the user-added filters.
func (fs FilterSet) Explicit() FilterSet {
	var out FilterSet
	for _, f := range fs {
		if !f.Implicit {
			out = append(out, f)
		}
	}
	return out
}

func (fs FilterSet) normalize() FilterSet {
	if len(fs) == 0 {
		return nil
	}
	return fs
}
