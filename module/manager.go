package module

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/metric"
)

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics reports the index size to the platform metrics
func WithMetrics(metrics *metric.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// WithScanner sets the scanner used by AddExternal
func WithScanner(scanner *Scanner) ManagerOption {
	return func(m *Manager) { m.scanner = scanner }
}

// Manager indexes descriptors by name and version and instantiates them
type Manager struct {
	loader  *Loader
	scanner *Scanner
	logger  *slog.Logger
	metrics *metric.Metrics

	mu    sync.RWMutex
	index map[string]map[component.Version]Descriptor
}

// NewManager creates an empty index backed by loader
func NewManager(loader *Loader, opts ...ManagerOption) *Manager {
	m := &Manager{
		loader: loader,
		logger: slog.Default(),
		index:  make(map[string]map[component.Version]Descriptor),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "module-manager")
	if m.scanner == nil {
		m.scanner = NewScanner(loader, WithScannerLogger(m.logger))
	}
	return m
}

// Loader returns the loader
func (m *Manager) Loader() *Loader { return m.loader }

// Add indexes d. A descriptor whose name and version are already indexed is
// ignored with a warning.
func (m *Manager) Add(d Descriptor) bool {
	m.mu.Lock()
	versions, ok := m.index[d.Name]
	if !ok {
		versions = make(map[component.Version]Descriptor)
		m.index[d.Name] = versions
	}
	if existing, dup := versions[d.Version]; dup {
		m.mu.Unlock()
		m.logger.Warn("modules have the same version",
			"name", d.Name, "version", d.Version.String(),
			"kept", existing.Source(), "ignored", d.Source())
		return false
	}
	versions[d.Version] = d
	n := m.lenLocked()
	m.mu.Unlock()

	m.metrics.RecordModulesIndexed(n)
	return true
}

// AddInternal instantiates a host unit once to read its About and indexes it
func (m *Manager) AddInternal(identifier string) (Descriptor, error) {
	reg, ok := m.loader.Host().Lookup(identifier)
	if !ok {
		return Descriptor{}, errors.WrapInvalid(
			fmt.Errorf("%s: %w", identifier, errors.ErrModuleNotFound), "Manager", "AddInternal", "factory lookup")
	}

	unit, err := m.loader.Load(Descriptor{Identifier: identifier, Internal: true, Kind: reg.Kind})
	if err != nil {
		return Descriptor{}, err
	}

	about := unit.About()
	d := Descriptor{
		Name:       about.Name,
		Version:    about.Version,
		Kind:       unit.Kind(),
		Identifier: identifier,
		Internal:   true,
	}
	if d.Name == "" {
		d.Name = identifier
	}
	m.Add(d)
	return d, nil
}

// AddAllInternal indexes every host registration
func (m *Manager) AddAllInternal() error {
	for _, id := range m.loader.Host().Identifiers() {
		if _, err := m.AddInternal(id); err != nil {
			return err
		}
	}
	return nil
}

// AddExternal scans roots and indexes every unit found. It returns the number
// of descriptors added.
func (m *Manager) AddExternal(ctx context.Context, roots ...string) (int, error) {
	descs, err := m.scanner.Scan(ctx, roots)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, d := range descs {
		if m.Add(d) {
			added++
		}
	}
	m.logger.Info("modules scanned", "roots", len(roots), "found", len(descs), "added", added)
	return added, nil
}

// Lookup selects a descriptor: the query's explicit descriptor when indexed,
// else the recommended version when indexed, else the newest version unless
// it is older than the minimal version. The kind must match the query.
func (m *Manager) Lookup(q Query) (Descriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	notFound := func(reason string) error {
		return errors.WrapInvalid(
			fmt.Errorf("%s (%s): %w", q.Name, reason, errors.ErrModuleNotFound), "Manager", "Lookup", "module lookup")
	}

	if q.Descriptor != nil {
		if d, ok := m.index[q.Descriptor.Name][q.Descriptor.Version]; ok && d == *q.Descriptor {
			return d, nil
		}
	}

	versions := m.index[q.Name]
	if len(versions) == 0 {
		return Descriptor{}, notFound("not indexed")
	}

	var chosen *Descriptor
	if q.Recommended != nil {
		if d, ok := versions[*q.Recommended]; ok {
			chosen = &d
		}
	}
	if chosen == nil {
		all := make([]component.Version, 0, len(versions))
		for v := range versions {
			all = append(all, v)
		}
		newest, _ := component.MaxVersion(all...)
		if q.Minimal != nil && q.Minimal.Compare(newest) > 0 {
			return Descriptor{}, notFound(fmt.Sprintf("newest %s is older than %s", newest, q.Minimal))
		}
		d := versions[newest]
		chosen = &d
	}

	if !q.matchesKind(chosen.Kind) {
		return Descriptor{}, notFound(fmt.Sprintf("%s is %s, not %s", chosen, chosen.Kind, q.Kind))
	}
	return *chosen, nil
}

// Instantiate looks up q and loads a fresh unit
func (m *Manager) Instantiate(_ context.Context, q Query) (Descriptor, component.Unit, error) {
	d, err := m.Lookup(q)
	if err != nil {
		return Descriptor{}, nil, err
	}
	unit, err := m.loader.Load(d)
	if err != nil {
		return Descriptor{}, nil, err
	}
	return d, unit, nil
}

// List returns every descriptor sorted by name, then version
func (m *Manager) List() []Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Descriptor, 0, m.lenLocked())
	for _, versions := range m.index {
		for _, d := range versions {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version.Compare(out[j].Version) < 0
	})
	return out
}

// Len returns the number of indexed descriptors
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lenLocked()
}

func (m *Manager) lenLocked() int {
	n := 0
	for _, versions := range m.index {
		n += len(versions)
	}
	return n
}
