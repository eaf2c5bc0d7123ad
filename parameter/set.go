package parameter

import (
	"fmt"

	"github.com/c360/flowkit/errors"
)

// Set is an ordered collection of parameters. A fixed set only accepts the
// parameters it was defined with; an open set creates string parameters on
// first assignment.
type Set struct {
	fixed  bool
	order  []string
	params map[string]*Parameter
}

// NewFixed creates a fixed set from definitions. Duplicate names are rejected.
func NewFixed(defs ...Definition) (*Set, error) {
	s := &Set{fixed: true, params: make(map[string]*Parameter, len(defs))}
	for _, def := range defs {
		if err := s.Define(def); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewOpen creates an empty open set
func NewOpen() *Set {
	return &Set{params: make(map[string]*Parameter)}
}

// Fixed reports whether the set rejects unknown names
func (s *Set) Fixed() bool { return s.fixed }

// Define adds a parameter
func (s *Set) Define(def Definition) error {
	if def.Name == "" {
		return errors.WrapInvalid(
			fmt.Errorf("empty name: %w", errors.ErrInvalidParameter), "Set", "Define", "name validation")
	}
	if _, exists := s.params[def.Name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%s already defined: %w", def.Name, errors.ErrInvalidParameter), "Set", "Define", "duplicate check")
	}
	s.params[def.Name] = New(def)
	s.order = append(s.order, def.Name)
	return nil
}

// Set assigns value to the named parameter
func (s *Set) Set(name, value string) error {
	p, exists := s.params[name]
	if !exists {
		if s.fixed {
			return errors.WrapInvalid(
				fmt.Errorf("%s: %w", name, errors.ErrUnknownParameter), "Set", "Set", "parameter lookup")
		}
		if err := s.Define(Definition{Name: name, Type: TypeString}); err != nil {
			return err
		}
		p = s.params[name]
	}
	return p.SetValue(value)
}

// Get returns the named parameter
func (s *Set) Get(name string) (*Parameter, bool) {
	p, exists := s.params[name]
	return p, exists
}

// Has reports whether name is defined
func (s *Set) Has(name string) bool {
	_, exists := s.params[name]
	return exists
}

// Value returns the string value of the named parameter, or "" when undefined
func (s *Set) Value(name string) string {
	if p, exists := s.params[name]; exists {
		return p.Value()
	}
	return ""
}

// Names returns the parameter names in definition order
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of parameters
func (s *Set) Len() int { return len(s.order) }

// Apply copies every explicitly assigned value of src into s, in src order.
// It stops at the first rejected value.
func (s *Set) Apply(src *Set) error {
	if src == nil {
		return nil
	}
	for _, name := range src.order {
		p := src.params[name]
		if !p.IsSet() {
			continue
		}
		if err := s.Set(name, p.Value()); err != nil {
			return errors.Wrap(err, "Set", "Apply", "apply "+name)
		}
	}
	return nil
}
