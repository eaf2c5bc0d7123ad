package text

import (
	"context"
	"fmt"
	"strings"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/container"
	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/parameter"
	"github.com/c360/flowkit/payload"
	"github.com/c360/flowkit/stage"
)

// Lines parameters
const (
	ParamSeparator = "separator"
	ParamSkipEmpty = "skip_empty"
	ParamName      = "name"
)

// Lines turns the run arguments into a lines payload. It is meant to be the
// root of a text pipeline.
type Lines struct {
	seq *component.Sequence
}

// NewLines creates a Lines unit
func NewLines(seq *component.Sequence) *Lines {
	return &Lines{seq: seq}
}

// About implements component.Unit
func (l *Lines) About() component.About {
	return about("lines", "Splits the run arguments into lines")
}

// Kind implements component.Unit
func (l *Lines) Kind() component.Kind { return component.AlgorithmKind }

// DefineParameters implements stage.ParameterDefiner
func (l *Lines) DefineParameters() (*parameter.Set, error) {
	return parameter.NewFixed(
		parameter.Definition{Name: stage.ArgsParameter, Description: "Text to split", Type: parameter.TypeString},
		parameter.Definition{
			Name:        ParamSeparator,
			Description: "Line separator; empty splits on newlines",
			Type:        parameter.TypeString,
		},
		parameter.Definition{
			Name:        ParamSkipEmpty,
			Description: "Drop blank lines",
			Type:        parameter.TypeYesNo,
			Default:     "yes",
		},
		parameter.Definition{
			Name:        ParamName,
			Description: "Name of the created payload",
			Type:        parameter.TypeString,
			Default:     "lines",
		},
	)
}

// Process implements stage.Processor
func (l *Lines) Process(_ context.Context, c *container.Container, params *parameter.Set) error {
	args := params.Value(stage.ArgsParameter)
	sep := params.Value(ParamSeparator)

	var parts []string
	if sep == "" {
		parts = strings.Split(strings.ReplaceAll(args, "\r\n", "\n"), "\n")
	} else {
		parts = strings.Split(args, sep)
	}

	skip, err := yesNo(params, ParamSkipEmpty)
	if err != nil {
		return err
	}
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		if skip && strings.TrimSpace(part) == "" {
			continue
		}
		lines = append(lines, part)
	}

	p, err := payload.New(l.seq, payload.Lines, params.Value(ParamName), lines)
	if err != nil {
		return errors.Wrap(err, "Lines", "Process", "create payload")
	}
	if !c.Add(p) {
		return errors.WrapInvalid(
			fmt.Errorf("payload %d: %w", p.InstanceID(), errors.ErrDuplicatePayload), "Lines", "Process", "add payload")
	}
	return nil
}

func yesNo(params *parameter.Set, name string) (bool, error) {
	p, ok := params.Get(name)
	if !ok {
		return false, nil
	}
	return p.Bool()
}
