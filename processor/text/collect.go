package text

import (
	"context"
	"sync"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/container"
	"github.com/c360/flowkit/parameter"
	"github.com/c360/flowkit/payload"
)

// Collect accumulates the lines of every container it receives. It does not
// modify the container.
type Collect struct {
	mu    sync.Mutex
	lines []string
}

// NewCollect creates an empty Collect unit
func NewCollect() *Collect {
	return &Collect{}
}

// About implements component.Unit
func (c *Collect) About() component.About {
	return about("collect", "Accumulates every line it receives")
}

// Kind implements component.Unit
func (c *Collect) Kind() component.Kind { return component.AlgorithmKind }

// Process implements stage.Processor
func (c *Collect) Process(_ context.Context, ctr *container.Container, _ *parameter.Set) error {
	var got []string
	ctr.Each(func(p *payload.Payload) bool {
		switch v := p.Value().(type) {
		case []string:
			got = append(got, v...)
		case string:
			got = append(got, v)
		}
		return true
	})

	c.mu.Lock()
	c.lines = append(c.lines, got...)
	c.mu.Unlock()
	return nil
}

// Lines returns a copy of everything collected so far
func (c *Collect) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Reset discards everything collected
func (c *Collect) Reset() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}
