package component

import (
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowkit/errors"
)

type mockUnit struct {
	name string
	kind Kind
}

func (m *mockUnit) About() About {
	return About{Name: m.name, Version: NewVersion(1, 0, 0)}
}

func (m *mockUnit) Kind() Kind { return m.kind }

func mockFactory(name string, kind Kind) Factory {
	return func() (Unit, error) {
		return &mockUnit{name: name, kind: kind}, nil
	}
}

func TestRegistry_RegisterFactory(t *testing.T) {
	tests := []struct {
		name         string
		identifier   string
		registration *Registration
		wantErr      error
	}{
		{"valid", "flowkit/test.echo", &Registration{Kind: AlgorithmKind, Factory: mockFactory("echo", AlgorithmKind)}, nil},
		{"empty identifier", "", &Registration{Kind: AlgorithmKind, Factory: mockFactory("x", AlgorithmKind)}, errors.ErrInvalidIdentifier},
		{"bad characters", "echo test", &Registration{Kind: AlgorithmKind, Factory: mockFactory("x", AlgorithmKind)}, errors.ErrInvalidIdentifier},
		{"nil registration", "flowkit/test.nil", nil, errors.ErrInvalidConfig},
		{"nil factory", "flowkit/test.nofactory", &Registration{Kind: AlgorithmKind}, errors.ErrInvalidConfig},
		{"invalid kind", "flowkit/test.kind", &Registration{Kind: Kind(7), Factory: mockFactory("x", 7)}, errors.ErrUnsupportedKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			err := registry.RegisterFactory(tt.identifier, tt.registration)
			if tt.wantErr == nil {
				require.NoError(t, err)
				reg, ok := registry.Lookup(tt.identifier)
				require.True(t, ok)
				assert.Equal(t, tt.identifier, reg.Identifier)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestRegistry_DuplicateFactory(t *testing.T) {
	registry := NewRegistry()
	config := RegistrationConfig{
		Identifier: "flowkit/test.echo",
		Kind:       AlgorithmKind,
		Factory:    mockFactory("echo", AlgorithmKind),
	}

	require.NoError(t, registry.RegisterWithConfig(config))
	err := registry.RegisterWithConfig(config)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateFactory)
}

func TestRegistry_Create(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.RegisterWithConfig(RegistrationConfig{
		Identifier: "ok",
		Kind:       DataKind,
		Factory:    mockFactory("ok", DataKind),
	}))
	require.NoError(t, registry.RegisterWithConfig(RegistrationConfig{
		Identifier: "failing",
		Kind:       AlgorithmKind,
		Factory:    func() (Unit, error) { return nil, stderrors.New("boom") },
	}))
	require.NoError(t, registry.RegisterWithConfig(RegistrationConfig{
		Identifier: "panicking",
		Kind:       AlgorithmKind,
		Factory:    func() (Unit, error) { panic("constructor exploded") },
	}))
	require.NoError(t, registry.RegisterWithConfig(RegistrationConfig{
		Identifier: "nil",
		Kind:       AlgorithmKind,
		Factory:    func() (Unit, error) { return nil, nil },
	}))
	require.NoError(t, registry.RegisterWithConfig(RegistrationConfig{
		Identifier: "typed-nil",
		Kind:       AlgorithmKind,
		Factory: func() (Unit, error) {
			var m *mockUnit
			return m, nil
		},
	}))

	t.Run("success", func(t *testing.T) {
		unit, err := registry.Create("ok")
		require.NoError(t, err)
		assert.Equal(t, "ok", unit.About().Name)
		assert.Equal(t, DataKind, unit.Kind())
	})

	t.Run("unknown identifier", func(t *testing.T) {
		unit, err := registry.Create("missing")
		assert.Nil(t, unit)
		assert.ErrorIs(t, err, errors.ErrModuleNotFound)
	})

	t.Run("factory error", func(t *testing.T) {
		unit, err := registry.Create("failing")
		assert.Nil(t, unit)
		assert.ErrorIs(t, err, errors.ErrInstantiation)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("factory panic", func(t *testing.T) {
		unit, err := registry.Create("panicking")
		assert.Nil(t, unit)
		assert.ErrorIs(t, err, errors.ErrInstantiation)
		assert.True(t, errors.IsFatal(err))
	})

	t.Run("nil unit", func(t *testing.T) {
		unit, err := registry.Create("nil")
		assert.Nil(t, unit)
		assert.ErrorIs(t, err, errors.ErrNotAModule)
	})

	t.Run("typed nil unit", func(t *testing.T) {
		unit, err := registry.Create("typed-nil")
		assert.True(t, unit == nil, "no nil pointer escapes in an interface")
		assert.ErrorIs(t, err, errors.ErrNotAModule)
	})
}

func TestRegistry_ListFactoriesOmitsFactory(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.RegisterWithConfig(RegistrationConfig{
		Identifier:  "b",
		Kind:        AlgorithmKind,
		Description: "second",
		Exported:    true,
		Factory:     mockFactory("b", AlgorithmKind),
	}))
	require.NoError(t, registry.RegisterWithConfig(RegistrationConfig{
		Identifier: "a",
		Kind:       DataKind,
		Factory:    mockFactory("a", DataKind),
	}))

	assert.Equal(t, []string{"a", "b"}, registry.Identifiers())

	listed := registry.ListFactories()
	require.Len(t, listed, 2)
	assert.Nil(t, listed["b"].Factory)
	assert.Equal(t, "second", listed["b"].Description)
	assert.True(t, listed["b"].Exported)
}

func TestRegistry_ConcurrentRegistration(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("unit-%d", i)
			_ = registry.RegisterWithConfig(RegistrationConfig{
				Identifier: id,
				Kind:       AlgorithmKind,
				Factory:    mockFactory(id, AlgorithmKind),
			})
		}(i)
	}
	wg.Wait()

	assert.Len(t, registry.Identifiers(), 50)
}
