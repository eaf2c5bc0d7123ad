package testutil

import (
	"context"
	"sync"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/container"
	"github.com/c360/flowkit/parameter"
)

// Script is a scripted algorithm. It counts the containers it sees and runs
// Fn, if set, on each of them.
type Script struct {
	Name    string
	Version component.Version
	Fn      func(ctx context.Context, c *container.Container, params *parameter.Set) error

	mu   sync.Mutex
	seen []int64
}

// NewScript creates a script that does nothing but count
func NewScript(name string) *Script {
	return &Script{Name: name, Version: component.NewVersion(1, 0, 0)}
}

// About implements component.Unit
func (s *Script) About() component.About {
	return component.About{Name: s.Name, Version: s.Version, Stability: component.StabilityTesting}
}

// Kind implements component.Unit
func (s *Script) Kind() component.Kind { return component.AlgorithmKind }

// Process implements stage.Processor
func (s *Script) Process(ctx context.Context, c *container.Container, params *parameter.Set) error {
	s.mu.Lock()
	s.seen = append(s.seen, c.ID())
	s.mu.Unlock()
	if s.Fn != nil {
		return s.Fn(ctx, c, params)
	}
	return nil
}

// Seen returns the ids of the containers processed so far
func (s *Script) Seen() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.seen))
	copy(out, s.seen)
	return out
}

// Count returns the number of containers processed so far
func (s *Script) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Factory returns a registry factory producing fresh scripts named name that
// run fn
func Factory(name string, fn func(ctx context.Context, c *container.Container, params *parameter.Set) error) component.Factory {
	return func() (component.Unit, error) {
		s := NewScript(name)
		s.Fn = fn
		return s, nil
	}
}
