package text

import (
	"fmt"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/container"
	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/payload"
)

// Registry identifiers
const (
	LinesID   = "flowkit/text.lines"
	UpperID   = "flowkit/text.upper"
	LowerID   = "flowkit/text.lower"
	GrepID    = "flowkit/text.grep"
	CollectID = "flowkit/text.collect"
)

var version = component.NewVersion(1, 0, 0)

// about describes a text unit. Names carry the "text." prefix so they never
// collide with the built-in data kinds in a module index.
func about(name, description string) component.About {
	return component.About{
		Name:             "text." + name,
		Version:          version,
		ShortDescription: description,
		Organisation:     "flowkit",
		Stability:        component.StabilityStable,
	}
}

// lineSets returns the lines payloads of c
func lineSets(c *container.Container) []*payload.Payload {
	return c.FilterFormat(payload.FormatLines).Payloads()
}

// replace swaps old for a new lines payload with the same name
func replace(c *container.Container, seq *component.Sequence, old *payload.Payload, lines []string) error {
	p, err := payload.New(seq, payload.Lines, old.Name(), lines)
	if err != nil {
		return err
	}
	c.Remove(old)
	if !c.Add(p) {
		return errors.WrapInvalid(
			fmt.Errorf("payload %d: %w", p.InstanceID(), errors.ErrDuplicatePayload), "Text", "replace", "add payload")
	}
	return nil
}

// Register registers every text unit with registry. Payloads created by the
// units take their ids from seq.
func Register(registry *component.Registry, seq *component.Sequence) error {
	if seq == nil {
		return errors.WrapInvalid(
			fmt.Errorf("nil payload sequence: %w", errors.ErrInvalidConfig), "Text", "Register", "sequence validation")
	}

	for _, cfg := range []component.RegistrationConfig{
		{
			Identifier:  LinesID,
			Description: "Splits the run arguments into lines",
			Factory:     func() (component.Unit, error) { return NewLines(seq), nil },
		},
		{
			Identifier:  UpperID,
			Description: "Upper-cases every line",
			Factory:     func() (component.Unit, error) { return NewUpper(seq), nil },
		},
		{
			Identifier:  LowerID,
			Description: "Lower-cases every line",
			Factory:     func() (component.Unit, error) { return NewLower(seq), nil },
		},
		{
			Identifier:  GrepID,
			Description: "Keeps the lines matching a regular expression",
			Factory:     func() (component.Unit, error) { return NewGrep(seq), nil },
		},
		{
			Identifier:  CollectID,
			Description: "Accumulates every line it receives",
			Factory:     func() (component.Unit, error) { return NewCollect(), nil },
		},
	} {
		cfg.Kind = component.AlgorithmKind
		cfg.Exported = true
		if err := registry.RegisterWithConfig(cfg); err != nil {
			return errors.Wrap(err, "Text", "Register", "register "+cfg.Identifier)
		}
	}
	return nil
}
