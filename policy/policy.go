// Package policy validates and clamps proposed clause values against the
// clause catalog's bounds. ValidateAndClamp is pure and deterministic:
// identical inputs always yield identical outputs and violation lists,
// which keeps negotiation audits reproducible.
package policy

import (
	"fmt"
	"math"
	"sort"

	"github.com/termdesk/termdesk/model"
	"github.com/termdesk/termdesk/schema"
)

// Violation is one policy finding for a clause value. Hard marks a
// non-negotiable bound crossing; everything else (enum replacement,
// unknown or non-numeric fields) is soft and only feeds validation
// errors, not the round's policy grade.
type Violation struct {
	Field   string
	Message string
	Hard    bool
}

func (v Violation) String() string {
	return v.Message
}

// Messages flattens violations into their message strings.
func Messages(violations []Violation) []string {
	if len(violations) == 0 {
		return nil
	}
	out := make([]string, len(violations))
	for i, v := range violations {
		out[i] = v.Message
	}
	return out
}

// HasHard reports whether any violation crossed a non-negotiable bound.
func HasHard(violations []Violation) bool {
	for _, v := range violations {
		if v.Hard {
			return true
		}
	}
	return false
}

// Engine clamps clause values to their schema bounds.
type Engine struct {
	registry *schema.Registry
}

// NewEngine builds a policy engine over the given clause catalog.
func NewEngine(registry *schema.Registry) *Engine {
	return &Engine{registry: registry}
}

// ValidateAndClamp returns a copy of value with every field forced inside
// its schema bounds, plus the list of violations found.
//
// Numeric fields are clamped to [min, max]; clamping a non-negotiable
// field records a violation, since that signals an attempted breach of a
// hard floor or ceiling rather than rounding noise. Enum fields outside
// the allowed set are replaced by the schema default with a violation.
// Boolean fields pass through unchanged.
func (e *Engine) ValidateAndClamp(clauseKey string, value model.ClauseValue) (model.ClauseValue, []Violation) {
	cs, ok := e.registry.Get(clauseKey)
	if !ok {
		return nil, []Violation{{
			Message: fmt.Sprintf("clause %q has no schema entry", clauseKey),
		}}
	}

	out := make(model.ClauseValue, len(value))
	var violations []Violation

	// Walk fields in schema declaration order so the violation list is
	// stable for identical inputs.
	for i := range cs.Fields {
		f := &cs.Fields[i]
		name := f.Name
		raw, present := value[name]
		if !present {
			continue
		}

		switch {
		case f.Numeric():
			n, ok := model.NumberValue(raw)
			if !ok {
				n = f.DefaultNumber()
				violations = append(violations, Violation{
					Field:   name,
					Message: fmt.Sprintf("%s.%s: non-numeric value replaced with default", clauseKey, name),
				})
			}
			clamped := math.Min(math.Max(n, f.Min), f.Max)
			if clamped != n && f.NonNegotiable {
				violations = append(violations, Violation{
					Field:   name,
					Message: fmt.Sprintf("%s.%s: %v crosses non-negotiable bound [%v, %v]", clauseKey, name, n, f.Min, f.Max),
					Hard:    true,
				})
			}
			if f.Kind == schema.FieldInteger {
				clamped = math.Round(clamped)
			}
			out[name] = clamped

		case f.Kind == schema.FieldEnum:
			s, ok := model.StringValue(raw)
			if !ok || f.AllowedIndex(s) < 0 {
				violations = append(violations, Violation{
					Field:   name,
					Message: fmt.Sprintf("%s.%s: %v not in allowed values, replaced with %q", clauseKey, name, raw, f.DefaultEnum()),
				})
				s = f.DefaultEnum()
			}
			out[name] = s

		case f.Kind == schema.FieldBoolean:
			out[name] = raw
		}
	}

	// Input fields the schema does not know, reported in sorted order.
	var unknown []string
	for name := range value {
		if cs.Field(name) == nil {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		violations = append(violations, Violation{
			Field:   name,
			Message: fmt.Sprintf("%s: unknown field %q dropped", clauseKey, name),
		})
	}

	return out, violations
}
