// Package payload wraps opaque values flowing through a pipeline. A payload is
// tagged with a format and a type, carries a declared shape, and is only ever
// constructed when its value conforms to that shape.
package payload

import (
	"fmt"
	"reflect"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/errors"
)

// Definition declares what a payload looks like. Implementations must also
// satisfy component.Unit with DataKind; New checks this at run time because
// data kinds can arrive from external archives.
type Definition interface {
	Format() string
	Type() string
	Shape() reflect.Type
}

// Payload is an immutable, shape-checked value
type Payload struct {
	instanceID int64
	name       string
	format     string
	typ        string
	shape      reflect.Type
	value      any
}

// New validates value against def and returns a payload carrying the next id
// from seq. On failure no id is consumed and no payload exists.
func New(seq *component.Sequence, def Definition, name string, value any) (*Payload, error) {
	if seq == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Payload", "New", "sequence validation")
	}
	if def == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("nil definition: %w", errors.ErrNotAModule), "Payload", "New", "definition validation")
	}
	unit, ok := def.(component.Unit)
	if !ok || unit.Kind() != component.DataKind {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%T is not a data unit: %w", def, errors.ErrNotAModule), "Payload", "New", "unit contract check")
	}
	shape := def.Shape()
	if shape == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%s has no shape: %w", unit.About().Name, errors.ErrShapeMismatch), "Payload", "New", "shape validation")
	}
	if value == nil {
		return nil, errors.WrapInvalid(errors.ErrNilValue, "Payload", "New", "value validation")
	}
	if vt := reflect.TypeOf(value); !vt.AssignableTo(shape) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%s into %s: %w", vt, shape, errors.ErrShapeMismatch), "Payload", "New", "shape validation")
	}

	return &Payload{
		instanceID: seq.Next(),
		name:       name,
		format:     def.Format(),
		typ:        def.Type(),
		shape:      shape,
		value:      value,
	}, nil
}

// InstanceID returns the construction-order id, unique within its sequence
func (p *Payload) InstanceID() int64 { return p.instanceID }

// Name returns the payload name
func (p *Payload) Name() string { return p.name }

// Format returns the format tag
func (p *Payload) Format() string { return p.format }

// Type returns the type tag
func (p *Payload) Type() string { return p.typ }

// Shape returns the declared shape
func (p *Payload) Shape() reflect.Type { return p.shape }

// Value returns the wrapped value
func (p *Payload) Value() any { return p.value }

func (p *Payload) String() string {
	return fmt.Sprintf("payload #%d %s (%s/%s)", p.instanceID, p.name, p.format, p.typ)
}

// As returns the payload value as T. It reports false when the value has a
// different dynamic type.
func As[T any](p *Payload) (T, bool) {
	v, ok := p.value.(T)
	return v, ok
}
