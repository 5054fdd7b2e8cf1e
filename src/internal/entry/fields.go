package entry

import (
	"slices"
	"strings"
)

// Fields is an insertion-ordered mapping of field names to values. A value is
// either a string or a []string.
type Fields struct {
	keys []string
	vals map[string]any
}

// NewFields returns an empty Fields.
func NewFields() *Fields {
	return &Fields{vals: map[string]any{}}
}

// Len reports the number of fields.
func (f *Fields) Len() int { return len(f.keys) }

// Keys returns the field names in insertion order.
func (f *Fields) Keys() []string { return slices.Clone(f.keys) }

// Has reports whether key is present.
func (f *Fields) Has(key string) bool {
	_, ok := f.vals[key]
	return ok
}

// Get returns the raw value for key (string or []string).
func (f *Fields) Get(key string) (any, bool) {
	v, ok := f.vals[key]
	return v, ok
}

// String returns the value for key flattened to a string; lists are joined
// with ", ".
func (f *Fields) String(key string) string {
	switch v := f.vals[key].(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	}
	return ""
}

// List returns the value for key as a list. A string value yields a single
// element list.
func (f *Fields) List(key string) []string {
	switch v := f.vals[key].(type) {
	case string:
		return []string{v}
	case []string:
		return slices.Clone(v)
	}
	return nil
}

// Set stores a string value. Replacing an existing key keeps its position.
func (f *Fields) Set(key, value string) { f.put(key, value) }

// SetList stores a list value. Replacing an existing key keeps its position.
func (f *Fields) SetList(key string, value []string) { f.put(key, slices.Clone(value)) }

func (f *Fields) put(key string, value any) {
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = value
}

// Delete removes key if present.
func (f *Fields) Delete(key string) {
	if _, ok := f.vals[key]; !ok {
		return
	}
	delete(f.vals, key)
	f.keys = slices.DeleteFunc(f.keys, func(k string) bool { return k == key })
}

// Clone returns a deep copy.
func (f *Fields) Clone() *Fields {
	out := NewFields()
	for _, k := range f.keys {
		switch v := f.vals[k].(type) {
		case []string:
			out.SetList(k, v)
		case string:
			out.Set(k, v)
		}
	}
	return out
}

// Equal compares key/value sets, ignoring order.
func (f *Fields) Equal(o *Fields) bool {
	if f.Len() != o.Len() {
		return false
	}
	for _, k := range f.keys {
		ov, ok := o.vals[k]
		if !ok {
			return false
		}
		switch v := f.vals[k].(type) {
		case string:
			s, ok := ov.(string)
			if !ok || s != v {
				return false
			}
		case []string:
			l, ok := ov.([]string)
			if !ok || !slices.Equal(l, v) {
				return false
			}
		}
	}
	return true
}

// sortedKeys returns the field names in byte order.
func (f *Fields) sortedKeys() []string {
	keys := f.Keys()
	slices.Sort(keys)
	return keys
}
