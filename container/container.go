// Package container implements the token that flows through a pipeline: an
// ordered bag of payloads with constant-time add and remove, and lazily
// evaluated filtered views.
//
// A Container is not synchronized. It belongs to exactly one stage at a time
// and is handed from stage to stage along the links of a workflow.
package container

import (
	"container/list"
	"fmt"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/payload"
)

// Container is an ordered collection of payloads
type Container struct {
	id    int64
	items *list.List
	index map[int64]*list.Element
}

// New creates an empty container with the next id from seq. A nil seq yields
// an unsequenced container with id 0.
func New(seq *component.Sequence) *Container {
	var id int64
	if seq != nil {
		id = seq.Next()
	}
	return &Container{
		id:    id,
		items: list.New(),
		index: make(map[int64]*list.Element),
	}
}

// ID returns the container id
func (c *Container) ID() int64 { return c.id }

// Len returns the number of payloads
func (c *Container) Len() int { return c.items.Len() }

// Add appends p. It reports false for a nil payload or one already present.
func (c *Container) Add(p *payload.Payload) bool {
	if p == nil {
		return false
	}
	if _, exists := c.index[p.InstanceID()]; exists {
		return false
	}
	c.index[p.InstanceID()] = c.items.PushBack(p)
	return true
}

// Remove drops p and reports whether it was present
func (c *Container) Remove(p *payload.Payload) bool {
	if p == nil {
		return false
	}
	return c.RemoveID(p.InstanceID())
}

// RemoveID drops the payload with the given instance id
func (c *Container) RemoveID(id int64) bool {
	el, exists := c.index[id]
	if !exists {
		return false
	}
	c.items.Remove(el)
	delete(c.index, id)
	return true
}

// Get returns the payload with the given instance id
func (c *Container) Get(id int64) (*payload.Payload, bool) {
	el, exists := c.index[id]
	if !exists {
		return nil, false
	}
	return el.Value.(*payload.Payload), true
}

// Each calls fn for every payload in insertion order until fn returns false.
// fn must not add or remove payloads.
func (c *Container) Each(fn func(*payload.Payload) bool) {
	for el := c.items.Front(); el != nil; el = el.Next() {
		if !fn(el.Value.(*payload.Payload)) {
			return
		}
	}
}

// Payloads returns a snapshot of the payloads in insertion order
func (c *Container) Payloads() []*payload.Payload {
	out := make([]*payload.Payload, 0, c.items.Len())
	c.Each(func(p *payload.Payload) bool {
		out = append(out, p)
		return true
	})
	return out
}

// Value returns the value of the first payload named name
func (c *Container) Value(name string) (any, bool) {
	p := c.FilterName(name).First()
	if p == nil {
		return nil, false
	}
	return p.Value(), true
}

// FilterFormat returns a view of the payloads tagged with format
func (c *Container) FilterFormat(format string) View {
	return c.View().FilterFormat(format)
}

// FilterType returns a view of the payloads tagged with typ
func (c *Container) FilterType(typ string) View {
	return c.View().FilterType(typ)
}

// FilterName returns a view of the payloads named name
func (c *Container) FilterName(name string) View {
	return c.View().FilterName(name)
}

// View returns an unfiltered view of the container
func (c *Container) View() View {
	return View{source: c}
}

func (c *Container) String() string {
	return fmt.Sprintf("container #%d (%d payloads)", c.id, c.items.Len())
}
