package model

// FormatOptions is a sparse override tree for the renderer. Absent keys fall
// back to rendering defaults. Values are primitives, []any or nested maps.
type FormatOptions map[string]any

// Get walks a dotted path of keys.
func (f FormatOptions) Get(path ...string) (any, bool) {
	var cur any = map[string]any(f)
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set returns a copy with the value stored at path, creating maps as needed.
func (f FormatOptions) Set(value any, path ...string) FormatOptions {
	if len(path) == 0 {
		return f.Clone()
	}
	out := f.Clone()
	if out == nil {
		out = FormatOptions{}
	}
	m := map[string]any(out)
	for _, key := range path[:len(path)-1] {
		next, ok := asMap(m[key])
		if !ok {
			next = map[string]any{}
		}
		m[key] = next
		m = next
	}
	m[path[len(path)-1]] = value
	return out
}

// Clone deep-copies the tree, nested maps and slices included.
func (f FormatOptions) Clone() FormatOptions {
	if f == nil {
		return nil
	}
	var out FormatOptions
	mustCopy(&out, f)
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case FormatOptions:
		return m, true
	}
	return nil, false
}
