// Package parameter provides the typed, validated settings a stage exposes.
//
// Values are always set from strings, the way they arrive from a command
// line or a manifest, and read back through typed getters. A Parameter that
// was never set reports its default.
package parameter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/flowkit/errors"
)

// Type is the data type of a parameter
type Type int

// Parameter types
const (
	TypeString Type = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeYesNo
	TypeStrings
)

// String returns the string representation of Type
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeYesNo:
		return "yesno"
	case TypeStrings:
		return "strings"
	default:
		return "unknown"
	}
}

// zero is what an unset parameter without a default parses as
func (t Type) zero() string {
	switch t {
	case TypeInt, TypeFloat:
		return "0"
	case TypeBool:
		return "false"
	case TypeYesNo:
		return "no"
	default:
		return ""
	}
}

// Definition describes a parameter
type Definition struct {
	Name        string
	Description string
	Unit        string
	Type        Type
	Default     string
	// Choices restricts the accepted values; each choice is an Equals check
	Choices []string
	// Checks are alternatives: a value is accepted when any check passes.
	// An empty list accepts everything that parses.
	Checks []Check
}

// Parameter is a single typed value
type Parameter struct {
	def   Definition
	raw   string
	isSet bool
}

// New creates an unset parameter
func New(def Definition) *Parameter {
	checks := make([]Check, 0, len(def.Checks)+len(def.Choices))
	checks = append(checks, def.Checks...)
	for _, choice := range def.Choices {
		checks = append(checks, Equals(choice))
	}
	def.Checks = checks
	return &Parameter{def: def}
}

// Name returns the parameter name
func (p *Parameter) Name() string { return p.def.Name }

// Definition returns the parameter definition
func (p *Parameter) Definition() Definition { return p.def }

// Type returns the parameter type
func (p *Parameter) Type() Type { return p.def.Type }

// IsSet reports whether a value was assigned explicitly
func (p *Parameter) IsSet() bool { return p.isSet }

// SetValue parses, validates and stores value. A rejected value leaves the
// previous one in place.
func (p *Parameter) SetValue(value string) error {
	if err := p.validate(value); err != nil {
		return err
	}
	p.raw = value
	p.isSet = true
	return nil
}

// Reset forgets an explicitly assigned value
func (p *Parameter) Reset() {
	p.raw = ""
	p.isSet = false
}

func (p *Parameter) validate(value string) error {
	if _, err := parse(p.def.Type, value); err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%s: %q is not a %s: %w", p.def.Name, value, p.def.Type, errors.ErrInvalidParameter),
			"Parameter", "SetValue", "value parsing")
	}

	candidates := []string{value}
	if p.def.Type == TypeStrings {
		candidates = splitList(value)
	}
	for _, candidate := range candidates {
		if !p.accepts(candidate) {
			return errors.WrapInvalid(
				fmt.Errorf("%s: %q: %w", p.def.Name, candidate, errors.ErrInvalidParameter),
				"Parameter", "SetValue", "value check")
		}
	}
	return nil
}

func (p *Parameter) accepts(value string) bool {
	if len(p.def.Checks) == 0 {
		return true
	}
	for _, check := range p.def.Checks {
		if check(value) {
			return true
		}
	}
	return false
}

// Value returns the current value as a string: the assigned value, else the
// default, else the zero value of the type
func (p *Parameter) Value() string {
	if p.isSet {
		return p.raw
	}
	if p.def.Default != "" {
		return p.def.Default
	}
	return p.def.Type.zero()
}

func (p *Parameter) typed(want ...Type) (any, error) {
	for _, t := range want {
		if p.def.Type == t {
			v, err := parse(p.def.Type, p.Value())
			if err != nil {
				return nil, errors.WrapInvalid(
					fmt.Errorf("%s: default %q: %w", p.def.Name, p.Value(), errors.ErrInvalidParameter),
					"Parameter", "Value", "default parsing")
			}
			return v, nil
		}
	}
	return nil, errors.WrapInvalid(
		fmt.Errorf("%s is a %s: %w", p.def.Name, p.def.Type, errors.ErrInvalidParameter),
		"Parameter", "Value", "type check")
}

// Int returns the value of an int parameter
func (p *Parameter) Int() (int, error) {
	v, err := p.typed(TypeInt)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Float returns the value of a float parameter
func (p *Parameter) Float() (float64, error) {
	v, err := p.typed(TypeFloat)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// Bool returns the value of a bool or yes/no parameter
func (p *Parameter) Bool() (bool, error) {
	v, err := p.typed(TypeBool, TypeYesNo)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Text returns the value of a string parameter
func (p *Parameter) Text() (string, error) {
	v, err := p.typed(TypeString)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Strings returns the elements of a comma separated list parameter
func (p *Parameter) Strings() ([]string, error) {
	v, err := p.typed(TypeStrings)
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func parse(t Type, value string) (any, error) {
	switch t {
	case TypeInt:
		return strconv.Atoi(strings.TrimSpace(value))
	case TypeFloat:
		return strconv.ParseFloat(strings.TrimSpace(value), 64)
	case TypeBool:
		return strconv.ParseBool(strings.TrimSpace(value))
	case TypeYesNo:
		return parseYesNo(value)
	case TypeStrings:
		return splitList(value), nil
	default:
		return value, nil
	}
}

func parseYesNo(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, fmt.Errorf("%q is neither yes nor no", value)
	}
}

// splitList splits on commas, trimming spaces and surrounding double quotes
func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(part), `"`)
	}
	return parts
}
