package component

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/c360/flowkit/errors"
)

// Factory creates a fresh unit instance. Factories must not perform I/O;
// one-time setup belongs in a stage initializer.
type Factory func() (Unit, error)

// Registration holds a factory and its catalog metadata
type Registration struct {
	Identifier  string  `json:"identifier"`  // Stable identifier (e.g., "flowkit/text.upper")
	Kind        Kind    `json:"kind"`        // Kind the factory produces
	Description string  `json:"description"` // Human-readable description
	Exported    bool    `json:"exported"`    // Visible to external archive scopes
	Factory     Factory `json:"-"`           // Factory function (not serializable)
}

// New runs the factory. A factory panic or error becomes ErrInstantiation and a
// nil result becomes ErrNotAModule; no partially constructed unit is returned.
func (reg *Registration) New() (unit Unit, err error) {
	defer func() {
		if r := recover(); r != nil {
			unit = nil
			err = errors.WrapFatal(
				fmt.Errorf("%s: panic: %v: %w", reg.Identifier, r, errors.ErrInstantiation),
				"Registration", "New", "factory execution")
		}
	}()

	unit, err = reg.Factory()
	if err != nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("%s: %w: %w", reg.Identifier, errors.ErrInstantiation, err),
			"Registration", "New", "factory execution")
	}
	if isNil(unit) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%s returned nil: %w", reg.Identifier, errors.ErrNotAModule),
			"Registration", "New", "unit contract check")
	}
	return unit, nil
}

// isNil also catches a nil pointer stored in a non-nil interface
func isNil(unit Unit) bool {
	if unit == nil {
		return true
	}
	v := reflect.ValueOf(unit)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// RegistrationConfig provides a clean API for factory registration
type RegistrationConfig struct {
	Identifier  string
	Kind        Kind
	Description string
	Exported    bool
	Factory     Factory
}

// Registry is the host factory catalog. It maps a stable identifier to the
// factory that creates the unit, replacing construction by name lookup.
type Registry struct {
	factories map[string]*Registration
	mu        sync.RWMutex
}

// NewRegistry creates a new empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]*Registration),
	}
}

// RegisterFactory registers a factory under identifier.
// Returns an error if a factory with the same identifier is already registered.
func (r *Registry) RegisterFactory(identifier string, registration *Registration) error {
	if err := ValidateIdentifier(identifier); err != nil {
		return errors.Wrap(err, "Registry", "RegisterFactory", "identifier validation")
	}
	if registration == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "registration validation")
	}
	if registration.Factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "factory function validation")
	}
	if !registration.Kind.Valid() {
		return errors.WrapInvalid(
			fmt.Errorf("kind %d: %w", registration.Kind, errors.ErrUnsupportedKind),
			"Registry", "RegisterFactory", "kind validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[identifier]; exists {
		msg := fmt.Errorf("factory '%s': %w", identifier, errors.ErrDuplicateFactory)
		return errors.WrapInvalid(msg, "Registry", "RegisterFactory", "duplicate factory check")
	}

	registration.Identifier = identifier
	r.factories[identifier] = registration
	return nil
}

// RegisterWithConfig registers a factory using a configuration struct.
//
//	registry.RegisterWithConfig(component.RegistrationConfig{
//	    Identifier:  "flowkit/text.upper",
//	    Kind:        component.AlgorithmKind,
//	    Description: "Upper-cases text payloads",
//	    Exported:    true,
//	    Factory:     func() (component.Unit, error) { return NewUpper(), nil },
//	})
func (r *Registry) RegisterWithConfig(config RegistrationConfig) error {
	return r.RegisterFactory(config.Identifier, &Registration{
		Kind:        config.Kind,
		Description: config.Description,
		Exported:    config.Exported,
		Factory:     config.Factory,
	})
}

// Lookup returns the registration for identifier
func (r *Registry) Lookup(identifier string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	registration, exists := r.factories[identifier]
	return registration, exists
}

// Create instantiates the unit registered under identifier
func (r *Registry) Create(identifier string) (Unit, error) {
	registration, exists := r.Lookup(identifier)
	if !exists {
		msg := fmt.Errorf("identifier '%s': %w", identifier, errors.ErrModuleNotFound)
		return nil, errors.WrapInvalid(msg, "Registry", "Create", "factory lookup")
	}
	return registration.New()
}

// Identifiers returns all registered identifiers in sorted order
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListFactories returns copies of all registrations without their factory functions
func (r *Registry) ListFactories() map[string]*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Registration, len(r.factories))
	for id, registration := range r.factories {
		result[id] = &Registration{
			Identifier:  registration.Identifier,
			Kind:        registration.Kind,
			Description: registration.Description,
			Exported:    registration.Exported,
		}
	}
	return result
}

// MaxIdentifierLength bounds identifiers accepted by the registry
const MaxIdentifierLength = 256

// ValidateIdentifier checks that an identifier is non-empty and only uses
// alphanumerics, dash, underscore, dot and slash
func ValidateIdentifier(identifier string) error {
	if identifier == "" {
		return errors.WrapInvalid(errors.ErrInvalidIdentifier, "Registry", "ValidateIdentifier", "empty identifier")
	}
	if len(identifier) > MaxIdentifierLength {
		return errors.WrapInvalid(errors.ErrInvalidIdentifier, "Registry", "ValidateIdentifier", "identifier too long")
	}
	for _, r := range identifier {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' || r == '/') {
			return errors.WrapInvalid(
				fmt.Errorf("%q: %w", identifier, errors.ErrInvalidIdentifier),
				"Registry", "ValidateIdentifier", "identifier character check")
		}
	}
	return nil
}
