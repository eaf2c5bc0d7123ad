package workflow

import (
	"context"

	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/module"
	"github.com/c360/flowkit/stage"
)

// Builder assembles a workflow step by step and reports the first error on
// Build.
//
//	w, err := workflow.NewBuilder(workflow.New("demo", workflow.WithInstantiator(mgr))).
//		Add("flowkit/text.lines", "lines").
//		Add("flowkit/text.upper", "upper").
//		Link("lines", "upper").
//		Root("lines").
//		Build(ctx)
type Builder struct {
	w     *Workflow
	steps []func(ctx context.Context) error
}

// NewBuilder starts a builder on w
func NewBuilder(w *Workflow) *Builder {
	return &Builder{w: w}
}

// Add queues an element resolved by module name
func (b *Builder) Add(moduleName, id string) *Builder {
	return b.AddQuery(id, module.NewQuery(moduleName))
}

// AddQuery queues an element resolved by q
func (b *Builder) AddQuery(id string, q module.Query) *Builder {
	b.steps = append(b.steps, func(ctx context.Context) error {
		return b.w.AddElement(ctx, NewElement(id, q))
	})
	return b
}

// AddProcessor queues an element around a ready processor
func (b *Builder) AddProcessor(id string, p stage.Processor) *Builder {
	b.steps = append(b.steps, func(ctx context.Context) error {
		return b.w.AddElement(ctx, NewProcessorElement(id, p))
	})
	return b
}

// Set queues a parameter value for the element id
func (b *Builder) Set(id, name, value string) *Builder {
	b.steps = append(b.steps, func(context.Context) error {
		e, err := b.element(id, "Set")
		if err != nil {
			return err
		}
		params, err := e.Parameters()
		if err != nil {
			return err
		}
		return params.Set(name, value)
	})
	return b
}

// Link queues a link between two elements
func (b *Builder) Link(from, to string) *Builder {
	b.steps = append(b.steps, func(context.Context) error {
		src, err := b.element(from, "Link")
		if err != nil {
			return err
		}
		dst, err := b.element(to, "Link")
		if err != nil {
			return err
		}
		_, err = b.w.Link(src, dst)
		return err
	})
	return b
}

// Root queues the root selection
func (b *Builder) Root(id string) *Builder {
	b.steps = append(b.steps, func(context.Context) error {
		return b.w.SetRootID(id)
	})
	return b
}

// Build runs the queued steps in order and activates the workflow
func (b *Builder) Build(ctx context.Context) (*Workflow, error) {
	for _, step := range b.steps {
		if err := step(ctx); err != nil {
			return nil, err
		}
	}
	if b.w.instantiator != nil {
		if err := b.w.Activate(ctx); err != nil {
			return nil, err
		}
	}
	return b.w, nil
}

func (b *Builder) element(id, method string) (*Element, error) {
	e, ok := b.w.Element(id)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrElementNotFound, "Builder", method, "element lookup "+id)
	}
	return e, nil
}
