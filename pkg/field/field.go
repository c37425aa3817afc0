// Package field provides the named field container the derivation engine
// operates on: rank-2 (grid point x vertical level) float64 arrays with a
// per-field metadata bag and a shared horizontal index space.
//
// The engine treats this container as opaque storage. Layout here is a flat
// slice indexed point-major; nothing in the engine depends on that choice.
package field

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Set.Get when a field is absent.
var ErrNotFound = errors.New("field not found")

// Space describes the horizontal index space fields are defined on.
// Points counts owned grid points; Halo counts additional boundary points
// stored after the owned ones. Elementwise operations may optionally cover
// the halo region.
type Space struct {
	Points int
	Halo   int
}

// Size returns the number of horizontal points including the halo.
func (s Space) Size() int {
	return s.Points + s.Halo
}

// Field is one named variable: a points-x-levels array plus metadata.
type Field struct {
	name     string
	space    Space
	levels   int
	data     []float64
	metadata Metadata
}

// New creates a zero-valued field on the given space with the given number
// of vertical levels. A levels value of 1 represents a scalar-per-column
// quantity.
func New(name string, space Space, levels int) *Field {
	return &Field{
		name:     name,
		space:    space,
		levels:   levels,
		data:     make([]float64, space.Size()*levels),
		metadata: make(Metadata),
	}
}

// Name returns the variable name this field is stored under.
func (f *Field) Name() string { return f.name }

// Space returns the horizontal index space of the field.
func (f *Field) Space() Space { return f.space }

// Levels returns the number of vertical levels.
func (f *Field) Levels() int { return f.levels }

// Metadata returns the field's metadata bag. The returned map is live;
// mutations are visible to later readers.
func (f *Field) Metadata() Metadata { return f.metadata }

// At returns the value at horizontal point jn and level jl.
func (f *Field) At(jn, jl int) float64 {
	return f.data[jn*f.levels+jl]
}

// SetAt stores a value at horizontal point jn and level jl.
func (f *Field) SetAt(jn, jl int, v float64) {
	f.data[jn*f.levels+jl] = v
}

// Values returns the backing slice, point-major. Shared, not copied.
func (f *Field) Values() []float64 { return f.data }

// Fill sets every element, halo included, to v.
func (f *Field) Fill(v float64) {
	for i := range f.data {
		f.data[i] = v
	}
}

// Zero resets every element to zero.
func (f *Field) Zero() { f.Fill(0) }

// Clone returns a deep copy of the field, metadata included.
func (f *Field) Clone() *Field {
	c := New(f.name, f.space, f.levels)
	copy(c.data, f.data)
	for k, v := range f.metadata {
		c.metadata[k] = v
	}
	return c
}

// Metadata is the per-field bag of flags and small scalars, e.g. the
// cap_super_sat flag on relative humidity or boundary_layer_index on height.
type Metadata map[string]any

// Has reports whether a key is present.
func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Set stores a value under key.
func (m Metadata) Set(key string, v any) { m[key] = v }

// GetBool returns the boolean stored under key, or false if the key is
// absent or holds a non-bool.
func (m Metadata) GetBool(key string) bool {
	b, _ := m[key].(bool)
	return b
}

// GetInt returns the integer stored under key and whether it was present
// as an int.
func (m Metadata) GetInt(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// GetFloat returns the float stored under key and whether it was present.
func (m Metadata) GetFloat(key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Set is a named collection of fields sharing one horizontal index space.
// It is the store recipes read ingredients from and write products into.
type Set struct {
	space  Space
	fields map[string]*Field
	order  []string
}

// NewSet creates an empty field set on the given space.
func NewSet(space Space) *Set {
	return &Set{
		space:  space,
		fields: make(map[string]*Field),
	}
}

// Space returns the horizontal index space shared by all fields in the set.
func (s *Set) Space() Space { return s.space }

// Has reports whether a field named name is present.
func (s *Set) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Get returns the field named name.
func (s *Set) Get(name string) (*Field, error) {
	f, ok := s.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return f, nil
}

// Add inserts a field into the set, replacing any field of the same name.
func (s *Set) Add(f *Field) {
	if _, exists := s.fields[f.name]; !exists {
		s.order = append(s.order, f.name)
	}
	s.fields[f.name] = f
}

// Alloc creates, inserts and returns a zero field with the given levels.
func (s *Set) Alloc(name string, levels int) *Field {
	f := New(name, s.space, levels)
	s.Add(f)
	return f
}

// Names returns the field names in insertion order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	c := NewSet(s.space)
	for _, name := range s.order {
		c.Add(s.fields[name].Clone())
	}
	return c
}

// ZeroAll resets every field in the set to zero.
func (s *Set) ZeroAll() {
	for _, f := range s.fields {
		f.Zero()
	}
}

// Require verifies that every named field is present, returning ErrNotFound
// (wrapped, naming the first missing field) otherwise. Recipes call this
// before touching their ingredients.
func (s *Set) Require(names ...string) error {
	for _, name := range names {
		if !s.Has(name) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
	}
	return nil
}
