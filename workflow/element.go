package workflow

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/event"
	"github.com/c360/flowkit/module"
	"github.com/c360/flowkit/parameter"
	"github.com/c360/flowkit/stage"
)

// Element is a node of a workflow. It names the unit to run through a module
// query, or carries a ready processor, and owns the stage once activated.
type Element struct {
	id        string
	query     module.Query
	processor stage.Processor

	descriptor module.Descriptor
	stage      *stage.Stage
	staged     *parameter.Set

	workflow *Workflow
	relay    event.StageListener
	next     []*Link
	previous []*Link

	// Comment is free text attached by whoever builds the workflow
	Comment string
}

// NewElement creates an element resolved through a module query. An empty id
// gets a generated one.
func NewElement(id string, query module.Query) *Element {
	if id == "" {
		id = "element-" + uuid.NewString()
	}
	return &Element{id: id, query: query, staged: parameter.NewOpen()}
}

// NewProcessorElement creates an element around a ready processor. It needs
// no module manager.
func NewProcessorElement(id string, p stage.Processor) *Element {
	e := NewElement(id, module.Query{})
	e.processor = p
	if p != nil {
		about := p.About()
		e.query = module.NewQuery(about.Name)
		e.descriptor = module.Descriptor{Name: about.Name, Version: about.Version, Kind: p.Kind(), Internal: true}
	}
	return e
}

// ID returns the element id
func (e *Element) ID() string { return e.id }

// Query returns the module query the element resolves
func (e *Element) Query() module.Query { return e.query }

// Descriptor returns the descriptor the stage was loaded from
func (e *Element) Descriptor() module.Descriptor { return e.descriptor }

// Stage returns the stage, or nil before activation
func (e *Element) Stage() *stage.Stage { return e.stage }

// Activated reports whether the element has a stage
func (e *Element) Activated() bool { return e.stage != nil }

// Workflow returns the owning workflow, or nil
func (e *Element) Workflow() *Workflow { return e.workflow }

// Parameters returns the values staged for the future stage, or the stage's
// own parameters once it exists
func (e *Element) Parameters() (*parameter.Set, error) {
	if e.stage != nil {
		return e.stage.Parameters()
	}
	return e.staged, nil
}

// Next returns the outgoing links in insertion order
func (e *Element) Next() []*Link {
	out := make([]*Link, len(e.next))
	copy(out, e.next)
	return out
}

// Previous returns the incoming links in insertion order
func (e *Element) Previous() []*Link {
	out := make([]*Link, len(e.previous))
	copy(out, e.previous)
	return out
}

// NextIDs returns the ids of the outgoing targets, including pending names
func (e *Element) NextIDs() []string {
	ids := make([]string, len(e.next))
	for i, l := range e.next {
		ids[i] = l.TargetID()
	}
	return ids
}

// PreviousIDs returns the ids of the incoming sources
func (e *Element) PreviousIDs() []string {
	ids := make([]string, len(e.previous))
	for i, l := range e.previous {
		ids[i] = l.from.id
	}
	return ids
}

// LinkTo creates a pending link to the element that will be named target
func (e *Element) LinkTo(target string) (*Link, error) {
	if target == "" {
		return nil, errors.WrapInvalid(errors.ErrNilEndpoint, "Element", "LinkTo", "target validation")
	}
	for _, l := range e.next {
		if l.TargetID() == target {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%s-%s: %w", e.id, target, errors.ErrDuplicateLink), "Element", "LinkTo", "duplicate link check")
		}
	}
	l := &Link{from: e, targetName: target}
	e.next = append(e.next, l)
	return l, nil
}

// OutLink returns the resolved link from e to to, or nil
func (e *Element) OutLink(to *Element) *Link { return e.linkedTo(to) }

func (e *Element) linkedTo(to *Element) *Link {
	for _, l := range e.next {
		if !l.Pending() && l.to == to {
			return l
		}
	}
	return nil
}

func (e *Element) dropNext(l *Link) {
	e.next = without(e.next, l)
}

func (e *Element) dropPrevious(l *Link) {
	e.previous = without(e.previous, l)
}

func without(links []*Link, l *Link) []*Link {
	for i, existing := range links {
		if existing == l {
			return append(links[:i:i], links[i+1:]...)
		}
	}
	return links
}

func (e *Element) String() string {
	return e.id
}
