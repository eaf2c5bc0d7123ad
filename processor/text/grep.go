package text

import (
	"context"
	"fmt"
	"regexp"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/container"
	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/parameter"
)

// Grep parameters
const (
	ParamPattern = "pattern"
	ParamInvert  = "invert"
)

// Grep keeps the lines matching a regular expression
type Grep struct {
	seq     *component.Sequence
	pattern *regexp.Regexp
	invert  bool
}

// NewGrep creates a Grep unit
func NewGrep(seq *component.Sequence) *Grep {
	return &Grep{seq: seq}
}

// About implements component.Unit
func (g *Grep) About() component.About {
	return about("grep", "Keeps the lines matching a regular expression")
}

// Kind implements component.Unit
func (g *Grep) Kind() component.Kind { return component.AlgorithmKind }

// DefineParameters implements stage.ParameterDefiner
func (g *Grep) DefineParameters() (*parameter.Set, error) {
	return parameter.NewFixed(
		parameter.Definition{Name: ParamPattern, Description: "RE2 regular expression", Type: parameter.TypeString},
		parameter.Definition{
			Name:        ParamInvert,
			Description: "Keep the lines that do not match",
			Type:        parameter.TypeYesNo,
			Default:     "no",
		},
	)
}

// Init implements stage.Initializer
func (g *Grep) Init(_ context.Context, params *parameter.Set) error {
	re, err := regexp.Compile(params.Value(ParamPattern))
	if err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%s: %w: %w", ParamPattern, errors.ErrInvalidParameter, err), "Grep", "Init", "pattern compilation")
	}
	invert, err := yesNo(params, ParamInvert)
	if err != nil {
		return err
	}
	g.pattern, g.invert = re, invert
	return nil
}

// Process implements stage.Processor
func (g *Grep) Process(_ context.Context, c *container.Container, _ *parameter.Set) error {
	for _, p := range lineSets(c) {
		in, _ := p.Value().([]string)
		kept := make([]string, 0, len(in))
		for _, line := range in {
			if g.pattern.MatchString(line) != g.invert {
				kept = append(kept, line)
			}
		}
		if len(kept) == len(in) {
			continue
		}
		if err := replace(c, g.seq, p, kept); err != nil {
			return errors.Wrap(err, "Grep", "Process", "replace payload")
		}
	}
	return nil
}
