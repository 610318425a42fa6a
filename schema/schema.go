// Package schema holds the static catalog of negotiable clauses: field
// shapes, numeric and enumerated bounds, non-negotiable flags, and the
// human-readable templates consumed at the presentation boundary.
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldKind is the primitive type of one clause field
type FieldKind string

const (
	FieldInteger FieldKind = "integer"
	FieldNumber  FieldKind = "number"
	FieldBoolean FieldKind = "boolean"
	FieldEnum    FieldKind = "enum"
)

// FieldSpec describes one parameter of a clause.
type FieldSpec struct {
	Name string    `yaml:"name" json:"name"`
	Kind FieldKind `yaml:"kind" json:"kind"`

	// Min/Max bound numeric fields. Ignored for boolean and enum fields.
	Min float64 `yaml:"min" json:"min,omitempty"`
	Max float64 `yaml:"max" json:"max,omitempty"`

	// Default is the fallback value: a number for numeric fields, the
	// default member for enum fields, a bool for boolean fields.
	Default any `yaml:"default" json:"default,omitempty"`

	// Allowed lists the members of an enum field.
	Allowed []string `yaml:"allowed,omitempty" json:"allowed,omitempty"`

	// Ordinal marks an enum whose members form a scale (utility scores by
	// index distance rather than exact match).
	Ordinal bool `yaml:"ordinal,omitempty" json:"ordinal,omitempty"`

	// NonNegotiable flags an investor-side floor/ceiling that may not be
	// crossed regardless of leverage.
	NonNegotiable bool `yaml:"non_negotiable,omitempty" json:"non_negotiable,omitempty"`
}

// Numeric reports whether the field carries a number.
func (f *FieldSpec) Numeric() bool {
	return f.Kind == FieldInteger || f.Kind == FieldNumber
}

// Range is the span of a numeric field, floored at 1 so degenerate schemas
// cannot divide by zero.
func (f *FieldSpec) Range() float64 {
	if r := f.Max - f.Min; r > 1 {
		return r
	}
	return 1
}

// DefaultNumber returns the numeric default, or the low bound when the
// catalog declares none.
func (f *FieldSpec) DefaultNumber() float64 {
	switch d := f.Default.(type) {
	case float64:
		return d
	case int:
		return float64(d)
	}
	return f.Min
}

// DefaultEnum returns the default enum member, or the first allowed member.
func (f *FieldSpec) DefaultEnum() string {
	if s, ok := f.Default.(string); ok {
		return s
	}
	if len(f.Allowed) > 0 {
		return f.Allowed[0]
	}
	return ""
}

// AllowedIndex returns the position of v in the allowed list, or -1.
func (f *FieldSpec) AllowedIndex(v string) int {
	for i, a := range f.Allowed {
		if a == v {
			return i
		}
	}
	return -1
}

// ClauseSchema is the full shape of one negotiable clause.
type ClauseSchema struct {
	Key      string      `yaml:"key" json:"key"`
	Title    string      `yaml:"title" json:"title"`
	Fields   []FieldSpec `yaml:"fields" json:"fields"`
	Template string      `yaml:"template,omitempty" json:"template,omitempty"`
}

// Field returns the spec of the named field, or nil.
func (s *ClauseSchema) Field(name string) *FieldSpec {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// Registry is the read-only clause catalog. A missing key is fatal for that
// clause but never for the round; callers skip unknown keys and record a
// validation error.
type Registry struct {
	clauses map[string]*ClauseSchema
	keys    []string
}

// NewRegistry builds a registry from the given clause schemas, preserving
// their order for deterministic iteration.
func NewRegistry(clauses []ClauseSchema) *Registry {
	r := &Registry{clauses: make(map[string]*ClauseSchema, len(clauses))}
	for i := range clauses {
		c := clauses[i]
		if _, dup := r.clauses[c.Key]; dup {
			continue
		}
		r.clauses[c.Key] = &c
		r.keys = append(r.keys, c.Key)
	}
	return r
}

// Get looks up a clause schema by key.
func (r *Registry) Get(clauseKey string) (*ClauseSchema, bool) {
	s, ok := r.clauses[clauseKey]
	return s, ok
}

// Keys returns the catalog clause keys in declaration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// LoadOverlay reads additional clause schemas from a YAML file and merges
// them into the registry. Overlay entries replace builtin entries with the
// same key.
func (r *Registry) LoadOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read clause catalog: %w", err)
	}

	var overlay struct {
		Clauses []ClauseSchema `yaml:"clauses"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse clause catalog: %w", err)
	}

	for i := range overlay.Clauses {
		c := overlay.Clauses[i]
		if _, exists := r.clauses[c.Key]; !exists {
			r.keys = append(r.keys, c.Key)
		}
		r.clauses[c.Key] = &c
	}
	return nil
}
