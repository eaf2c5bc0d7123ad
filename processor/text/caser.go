package text

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/container"
	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/parameter"
)

// ParamLanguage selects the BCP 47 language whose casing rules apply
const ParamLanguage = "language"

// Caser rewrites every lines payload with a case mapping
type Caser struct {
	seq   *component.Sequence
	name  string
	build func(language.Tag) cases.Caser
	caser cases.Caser
}

// NewUpper creates a Caser that upper-cases
func NewUpper(seq *component.Sequence) *Caser {
	return &Caser{seq: seq, name: "upper", build: func(t language.Tag) cases.Caser { return cases.Upper(t) }}
}

// NewLower creates a Caser that lower-cases
func NewLower(seq *component.Sequence) *Caser {
	return &Caser{seq: seq, name: "lower", build: func(t language.Tag) cases.Caser { return cases.Lower(t) }}
}

// About implements component.Unit
func (c *Caser) About() component.About {
	return about(c.name, fmt.Sprintf("Maps every line to %s case", c.name))
}

// Kind implements component.Unit
func (c *Caser) Kind() component.Kind { return component.AlgorithmKind }

// DefineParameters implements stage.ParameterDefiner
func (c *Caser) DefineParameters() (*parameter.Set, error) {
	return parameter.NewFixed(parameter.Definition{
		Name:        ParamLanguage,
		Description: "BCP 47 language tag",
		Type:        parameter.TypeString,
		Default:     "und",
	})
}

// Init implements stage.Initializer
func (c *Caser) Init(_ context.Context, params *parameter.Set) error {
	tag, err := language.Parse(params.Value(ParamLanguage))
	if err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%s %q: %w: %w", ParamLanguage, params.Value(ParamLanguage), errors.ErrInvalidParameter, err),
			"Caser", "Init", "language parsing")
	}
	c.caser = c.build(tag)
	return nil
}

// Process implements stage.Processor
func (c *Caser) Process(_ context.Context, ctr *container.Container, _ *parameter.Set) error {
	for _, p := range lineSets(ctr) {
		in, _ := p.Value().([]string)
		out := make([]string, len(in))
		for i, line := range in {
			out[i] = c.caser.String(line)
		}
		if err := replace(ctr, c.seq, p, out); err != nil {
			return errors.Wrap(err, "Caser", "Process", "replace payload")
		}
	}
	return nil
}
