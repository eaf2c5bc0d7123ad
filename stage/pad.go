package stage

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360/flowkit/container"
	"github.com/c360/flowkit/errors"
)

// InPad is the input connection point of a stage
type InPad struct {
	stage *Stage
	queue *queue
}

// Stage returns the stage owning the pad
func (p *InPad) Stage() *Stage { return p.stage }

// Queued returns the number of containers waiting in the buffer
func (p *InPad) Queued() int { return p.queue.len() }

// Deliver enqueues c and drains the buffer. When another goroutine is already
// draining this stage, Deliver only enqueues and the active loop picks c up.
func (p *InPad) Deliver(ctx context.Context, c *container.Container) error {
	if c == nil {
		return errors.WrapInvalid(errors.ErrNilValue, "InPad", "Deliver", "container validation")
	}
	p.queue.push(c)
	return p.stage.drain(ctx)
}

// OutPad is the output connection point of a stage. It fans a processed
// container out to every linked InPad in link-insertion order.
type OutPad struct {
	mu   sync.RWMutex
	pads []*InPad
}

// Add links pad
func (o *OutPad) Add(pad *InPad) error {
	if pad == nil {
		return errors.WrapInvalid(errors.ErrNilEndpoint, "OutPad", "Add", "pad validation")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, existing := range o.pads {
		if existing == pad {
			return errors.WrapInvalid(
				fmt.Errorf("stage %d: %w", pad.stage.id, errors.ErrDuplicateLink), "OutPad", "Add", "duplicate link check")
		}
	}
	o.pads = append(o.pads, pad)
	return nil
}

// Remove unlinks pad
func (o *OutPad) Remove(pad *InPad) error {
	if pad == nil {
		return errors.WrapInvalid(errors.ErrNilEndpoint, "OutPad", "Remove", "pad validation")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for i, existing := range o.pads {
		if existing == pad {
			o.pads = append(o.pads[:i:i], o.pads[i+1:]...)
			return nil
		}
	}
	return errors.WrapInvalid(
		fmt.Errorf("stage %d: %w", pad.stage.id, errors.ErrLinkNotFound), "OutPad", "Remove", "link lookup")
}

// RemoveAll unlinks every pad
func (o *OutPad) RemoveAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pads = nil
}

// Len returns the number of linked pads
func (o *OutPad) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.pads)
}

// Pads returns the linked pads in insertion order
func (o *OutPad) Pads() []*InPad {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]*InPad, len(o.pads))
	copy(out, o.pads)
	return out
}

// Contains reports whether pad is linked
func (o *OutPad) Contains(pad *InPad) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, existing := range o.pads {
		if existing == pad {
			return true
		}
	}
	return false
}

func (o *OutPad) deliver(ctx context.Context, c *container.Container) error {
	for _, pad := range o.Pads() {
		if err := pad.Deliver(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
