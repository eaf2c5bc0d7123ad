// Package component defines the pluggable-unit contract shared by data kinds
// and algorithms, and the host factory catalog that creates them.
//
// # Overview
//
// Every loadable object implements Unit: it describes itself through About and
// declares its Kind (DataKind or AlgorithmKind). Hosting code never constructs
// units by name lookup or reflection. Instead, each unit package exports a
// Register(*Registry) error function that binds a stable identifier to a
// Factory:
//
//	func Register(registry *component.Registry) error {
//		return registry.RegisterWithConfig(component.RegistrationConfig{
//			Identifier:  "flowkit/text.upper",
//			Kind:        component.AlgorithmKind,
//			Description: "Upper-cases text payloads",
//			Exported:    true,
//			Factory:     func() (component.Unit, error) { return NewUpper(), nil },
//		})
//	}
//
// componentregistry.Register wires every built-in package; main.go calls it
// with a freshly created Registry. There is no init() self-registration, so
// tests can build isolated registries.
//
// # Identifiers and versions
//
// Identifiers use alphanumerics, dash, underscore, dot and slash. Versions are
// major.minor.revision triples; negative parts clamp to zero and ParseVersion
// rejects anything that is not three dot-separated integers.
//
// # Sequences
//
// Sequence replaces process-wide instance counters. A runtime owns a
// Sequences value and passes the relevant Sequence to payload, container and
// stage constructors.
package component
