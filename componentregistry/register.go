// Package componentregistry registers every built-in flowkit unit.
// Units are registered explicitly; nothing registers itself from an init
// function.
package componentregistry

import (
	"errors"

	"github.com/c360/flowkit/component"
	pkgerrors "github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/payload"
	"github.com/c360/flowkit/processor/text"
)

// Register registers all built-in units with the provided registry:
//
// Data kinds:
//   - text, lines and bytes payload schemas
//
// Algorithms:
//   - text.lines, text.upper, text.lower, text.grep and text.collect
//
// Payloads created by the algorithms take their ids from seqs.Payloads.
func Register(registry *component.Registry, seqs *component.Sequences) error {
	// Nil arguments are programming errors (fatal), not invalid input
	if registry == nil {
		return pkgerrors.WrapFatal(
			errors.New("registry cannot be nil"),
			"ComponentRegistry", "Register", "registry validation")
	}
	if seqs == nil {
		return pkgerrors.WrapFatal(
			errors.New("sequences cannot be nil"),
			"ComponentRegistry", "Register", "sequence validation")
	}

	if err := payload.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "data kind registration")
	}
	if err := text.Register(registry, seqs.Payloads); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "text processor registration")
	}

	return nil
}
