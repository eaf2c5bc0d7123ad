package payload

import (
	"reflect"

	"github.com/c360/flowkit/component"
)

// Schema is a ready-made data unit: a Definition that also satisfies
// component.Unit with DataKind
type Schema struct {
	about  component.About
	format string
	typ    string
	shape  reflect.Type
}

// NewSchema describes a data kind
func NewSchema(about component.About, format, typ string, shape reflect.Type) *Schema {
	return &Schema{about: about, format: format, typ: typ, shape: shape}
}

// About implements component.Unit
func (s *Schema) About() component.About { return s.about }

// Kind implements component.Unit
func (s *Schema) Kind() component.Kind { return component.DataKind }

// Format implements Definition
func (s *Schema) Format() string { return s.format }

// Type implements Definition
func (s *Schema) Type() string { return s.typ }

// Shape implements Definition
func (s *Schema) Shape() reflect.Type { return s.shape }

// Format and type tags of the built-in data kinds
const (
	FormatText  = "text/plain"
	FormatLines = "text/lines"
	FormatBytes = "application/octet-stream"

	TypeDocument = "document"
	TypeBlob     = "blob"
)

var builtinVersion = component.NewVersion(1, 0, 0)

// Built-in data kinds
var (
	Text = NewSchema(component.About{
		Name:             "text",
		Version:          builtinVersion,
		ShortDescription: "A single string",
		Stability:        component.StabilityStable,
	}, FormatText, TypeDocument, reflect.TypeOf(""))

	Lines = NewSchema(component.About{
		Name:             "lines",
		Version:          builtinVersion,
		ShortDescription: "An ordered list of text lines",
		Stability:        component.StabilityStable,
	}, FormatLines, TypeDocument, reflect.TypeOf([]string(nil)))

	Bytes = NewSchema(component.About{
		Name:             "bytes",
		Version:          builtinVersion,
		ShortDescription: "Raw bytes",
		Stability:        component.StabilityStable,
	}, FormatBytes, TypeBlob, reflect.TypeOf([]byte(nil)))
)

// Register registers the built-in data kinds with the given registry
func Register(registry *component.Registry) error {
	for id, schema := range map[string]*Schema{
		"flowkit/data.text":  Text,
		"flowkit/data.lines": Lines,
		"flowkit/data.bytes": Bytes,
	} {
		schema := schema
		if err := registry.RegisterWithConfig(component.RegistrationConfig{
			Identifier:  id,
			Kind:        component.DataKind,
			Description: schema.about.ShortDescription,
			Exported:    true,
			Factory:     func() (component.Unit, error) { return schema, nil },
		}); err != nil {
			return err
		}
	}
	return nil
}
