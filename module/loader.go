package module

import (
	"fmt"
	"sync"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/errors"
)

// Loader instantiates units from descriptors. Each load creates a fresh
// instance; nothing is cached and failures are never retried.
type Loader struct {
	host *component.Registry

	mu     sync.RWMutex
	scopes map[string]*component.Registry
}

// NewLoader creates a loader resolving internal units in host
func NewLoader(host *component.Registry) *Loader {
	if host == nil {
		host = component.NewRegistry()
	}
	return &Loader{host: host, scopes: make(map[string]*component.Registry)}
}

// Host returns the host registry
func (l *Loader) Host() *component.Registry { return l.host }

// SetScope installs the factories private to an archive
func (l *Loader) SetScope(archive string, scope *component.Registry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if scope == nil {
		delete(l.scopes, archive)
		return
	}
	l.scopes[archive] = scope
}

// Scope returns the factories private to an archive
func (l *Loader) Scope(archive string) (*component.Registry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	scope, ok := l.scopes[archive]
	return scope, ok
}

func (l *Loader) resolve(d Descriptor) (*component.Registration, error) {
	if !d.Internal {
		if scope, ok := l.Scope(d.Archive); ok {
			if reg, found := scope.Lookup(d.Identifier); found {
				return reg, nil
			}
		}
	}

	reg, found := l.host.Lookup(d.Identifier)
	if !found {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%s: %w", d.Identifier, errors.ErrModuleNotFound), "Loader", "Load", "factory lookup")
	}
	if !d.Internal && !reg.Exported {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%s from %s: %w", d.Identifier, d.Archive, errors.ErrAccessViolation), "Loader", "Load", "export check")
	}
	return reg, nil
}

// Load creates a new instance of the unit d describes. The unit's kind must
// equal the descriptor kind when the descriptor names one.
func (l *Loader) Load(d Descriptor) (component.Unit, error) {
	reg, err := l.resolve(d)
	if err != nil {
		return nil, err
	}

	unit, err := reg.New()
	if err != nil {
		return nil, err
	}
	if d.Kind.Valid() && unit.Kind() != d.Kind {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%s is %s, not %s: %w", d.Identifier, unit.Kind(), d.Kind, errors.ErrNotAModule),
			"Loader", "Load", "kind check")
	}
	return unit, nil
}
