// Package workflow assembles stages into a directed acyclic graph and runs it.
//
// A Workflow is configured from a single goroutine: adding, linking and
// removing elements is not synchronized. Once Start is running, Stop, Pause
// and Resume may be called from any goroutine; they are broadcast to every
// stage, which honors them at its next checkpoint.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/container"
	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/event"
	"github.com/c360/flowkit/module"
	"github.com/c360/flowkit/stage"
)

// Instantiator resolves a module query into a fresh unit
type Instantiator interface {
	Instantiate(ctx context.Context, q module.Query) (module.Descriptor, component.Unit, error)
}

// Metadata describes a workflow
type Metadata struct {
	Type         string            `json:"type,omitempty"`
	Version      string            `json:"version,omitempty"`
	Description  string            `json:"description,omitempty"`
	Generator    string            `json:"generator,omitempty"`
	Author       string            `json:"author,omitempty"`
	Organisation string            `json:"organisation,omitempty"`
	Annotations  map[string]string `json:"annotations,omitempty"`
	// Arguments are passed to the root stage by Run
	Arguments string `json:"arguments,omitempty"`
}

// Option configures a Workflow
type Option func(*Workflow)

// WithInstantiator sets how elements get their units
func WithInstantiator(inst Instantiator) Option {
	return func(w *Workflow) { w.instantiator = inst }
}

// WithSequences sets the id spaces for stages and containers
func WithSequences(seqs *component.Sequences) Option {
	return func(w *Workflow) {
		if seqs != nil {
			w.seqs = seqs
		}
	}
}

// WithStageOptions applies opts to every stage the workflow creates
func WithStageOptions(opts ...stage.Option) Option {
	return func(w *Workflow) { w.stageOpts = append(w.stageOpts, opts...) }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetadata sets the workflow metadata
func WithMetadata(meta Metadata) Option {
	return func(w *Workflow) { w.Metadata = meta }
}

// Workflow is a graph of elements with a single root
type Workflow struct {
	Metadata

	name     string
	elements map[string]*Element
	order    []*Element
	root     *Element

	listeners    event.Bus[event.WorkflowListener]
	instantiator Instantiator
	seqs         *component.Sequences
	stageOpts    []stage.Option
	logger       *slog.Logger

	running atomic.Bool
}

// New creates an empty workflow. An empty name gets a generated one.
func New(name string, opts ...Option) *Workflow {
	if name == "" {
		name = "workflow-" + uuid.NewString()
	}
	w := &Workflow{
		name:     name,
		elements: make(map[string]*Element),
		seqs:     component.NewSequences(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "workflow", "workflow", name)
	return w
}

// Name returns the workflow name
func (w *Workflow) Name() string { return w.name }

// Sequences returns the id spaces of the workflow
func (w *Workflow) Sequences() *component.Sequences { return w.seqs }

// Running reports whether Start is in progress
func (w *Workflow) Running() bool { return w.running.Load() }

// AddListener registers l. Nil and duplicate listeners are ignored.
func (w *Workflow) AddListener(l event.WorkflowListener) bool { return w.listeners.Add(l) }

// RemoveListener unregisters l
func (w *Workflow) RemoveListener(l event.WorkflowListener) bool { return w.listeners.Remove(l) }

func (w *Workflow) fire(e event.WorkflowEvent) {
	e.Workflow = w.name
	w.listeners.Each(func(l event.WorkflowListener) { l.WorkflowEvent(e) })
}

func (w *Workflow) failed(err error) {
	w.listeners.Each(func(l event.WorkflowListener) {
		if fl, ok := l.(event.FailureListener); ok {
			fl.WorkflowFailed(w.name, err)
		}
	})
}

// relay turns the stage events of e into workflow events
func (w *Workflow) relay(e *Element, se event.StageEvent) {
	w.listeners.Each(func(l event.WorkflowListener) {
		if el, ok := l.(event.ElementListener); ok {
			el.ElementEvent(e.id, se)
		}
	})

	var t event.WorkflowType
	switch se.Type {
	case event.StageStart:
		t = event.WorkflowStartAlgorithm
	case event.StageEnd:
		t = event.WorkflowEndAlgorithm
	case event.StageNoMoreStage:
		t = event.WorkflowEnd
	default:
		return
	}
	w.fire(event.WorkflowEvent{Type: t, Source: e.id, ContainerID: se.ContainerID})
}

// Element returns the element with the given id
func (w *Workflow) Element(id string) (*Element, bool) {
	e, ok := w.elements[id]
	return e, ok
}

// Contains reports whether id names an element
func (w *Workflow) Contains(id string) bool {
	_, ok := w.elements[id]
	return ok
}

// Elements returns the elements in insertion order
func (w *Workflow) Elements() []*Element {
	out := make([]*Element, len(w.order))
	copy(out, w.order)
	return out
}

// ElementIDs returns the element ids in insertion order
func (w *Workflow) ElementIDs() []string {
	ids := make([]string, len(w.order))
	for i, e := range w.order {
		ids[i] = e.id
	}
	return ids
}

// Len returns the number of elements
func (w *Workflow) Len() int { return len(w.order) }

func (w *Workflow) owns(e *Element) bool {
	return e != nil && e.workflow == w
}

func (w *Workflow) checkMember(e *Element, method string) error {
	if e == nil {
		return errors.WrapInvalid(errors.ErrNilEndpoint, "Workflow", method, "element validation")
	}
	if !w.owns(e) {
		return errors.WrapInvalid(
			fmt.Errorf("%s: %w", e.id, errors.ErrForeignElement), "Workflow", method, "membership check")
	}
	return nil
}

// AddElement adds e and instantiates its stage when it has none
func (w *Workflow) AddElement(ctx context.Context, e *Element) error {
	if e == nil {
		return errors.WrapInvalid(errors.ErrNilEndpoint, "Workflow", "AddElement", "element validation")
	}
	if e.workflow == w {
		return errors.WrapInvalid(
			fmt.Errorf("%s: %w", e.id, errors.ErrDuplicateElement), "Workflow", "AddElement", "membership check")
	}
	if e.workflow != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%s belongs to %s: %w", e.id, e.workflow.name, errors.ErrForeignElement),
			"Workflow", "AddElement", "membership check")
	}
	if _, exists := w.elements[e.id]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%s: %w", e.id, errors.ErrDuplicateElement), "Workflow", "AddElement", "id check")
	}

	if e.stage == nil && (e.processor != nil || w.instantiator != nil) {
		if err := w.instantiate(ctx, e); err != nil {
			return err
		}
	}

	w.attach(e)
	w.fire(event.WorkflowEvent{Type: event.WorkflowAdd, Source: e.id})
	return nil
}

func (w *Workflow) attach(e *Element) {
	e.workflow = w
	w.elements[e.id] = e
	w.order = append(w.order, e)
	w.subscribe(e)
}

func (w *Workflow) detach(e *Element) {
	w.unsubscribe(e)
	delete(w.elements, e.id)
	for i, existing := range w.order {
		if existing == e {
			w.order = append(w.order[:i:i], w.order[i+1:]...)
			break
		}
	}
	if w.root == e {
		w.root = nil
	}
	e.workflow = nil
}

func (w *Workflow) subscribe(e *Element) {
	if e.stage == nil {
		return
	}
	w.listeners.Add(e.stage)
	e.relay = event.StageFunc(func(se event.StageEvent) { w.relay(e, se) })
	e.stage.AddListener(e.relay)
}

func (w *Workflow) unsubscribe(e *Element) {
	if e.stage == nil {
		return
	}
	w.listeners.Remove(e.stage)
	if e.relay != nil {
		e.stage.RemoveListener(e.relay)
		e.relay = nil
	}
}

// instantiate creates the stage of e and applies its staged parameters. On
// failure e is left without a stage.
func (w *Workflow) instantiate(ctx context.Context, e *Element) error {
	p := e.processor
	desc := e.descriptor

	if p == nil {
		if w.instantiator == nil {
			return errors.WrapInvalid(
				fmt.Errorf("%s: no instantiator: %w", e.id, errors.ErrNotActivated), "Workflow", "instantiate", "instantiator check")
		}
		d, unit, err := w.instantiator.Instantiate(ctx, e.query)
		if err != nil {
			return errors.Wrap(err, "Workflow", "instantiate", "instantiate "+e.id)
		}
		if d.Kind != component.AlgorithmKind {
			return errors.WrapInvalid(
				fmt.Errorf("%s is %s: %w", d, d.Kind, errors.ErrNotAlgorithm), "Workflow", "instantiate", "kind check")
		}
		proc, ok := unit.(stage.Processor)
		if !ok {
			return errors.WrapInvalid(
				fmt.Errorf("%s does not process containers: %w", d, errors.ErrNotAModule), "Workflow", "instantiate", "processor check")
		}
		p, desc = proc, d
	}

	opts := append([]stage.Option{stage.WithLogger(w.logger.With("element", e.id))}, w.stageOpts...)
	s, err := stage.New(w.seqs.Stages, p, opts...)
	if err != nil {
		return err
	}
	params, err := s.Parameters()
	if err != nil {
		return err
	}
	if err := params.Apply(e.staged); err != nil {
		return errors.Wrap(err, "Workflow", "instantiate", "staged parameters of "+e.id)
	}

	e.stage = s
	e.processor = p
	e.descriptor = desc
	return nil
}

// RemoveElement unlinks and removes the element with the given id
func (w *Workflow) RemoveElement(id string) error {
	e, ok := w.elements[id]
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%s: %w", id, errors.ErrElementNotFound), "Workflow", "RemoveElement", "element lookup")
	}

	for _, l := range e.Previous() {
		if err := w.unlink(l); err != nil {
			return err
		}
	}
	for _, l := range e.Next() {
		if l.Pending() {
			e.dropNext(l)
			continue
		}
		if err := w.unlink(l); err != nil {
			return err
		}
	}

	w.detach(e)
	w.fire(event.WorkflowEvent{Type: event.WorkflowRemove, Source: id})
	return nil
}

// RemoveElementAndJoin removes the element and links each of its
// predecessors to each of its successors
func (w *Workflow) RemoveElementAndJoin(id string) error {
	e, ok := w.elements[id]
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%s: %w", id, errors.ErrElementNotFound), "Workflow", "RemoveElementAndJoin", "element lookup")
	}

	var froms, tos []*Element
	for _, l := range e.previous {
		froms = append(froms, l.from)
	}
	for _, l := range e.next {
		if !l.Pending() {
			tos = append(tos, l.to)
		}
	}

	if err := w.RemoveElement(id); err != nil {
		return err
	}
	for _, from := range froms {
		for _, to := range tos {
			if from.linkedTo(to) != nil {
				continue
			}
			if _, err := w.Link(from, to); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReplaceElement moves every link of old onto replacement, adding
// replacement first when it belongs to no workflow
func (w *Workflow) ReplaceElement(ctx context.Context, old, replacement *Element) error {
	if err := w.checkMember(old, "ReplaceElement"); err != nil {
		return err
	}
	if err := w.adopt(ctx, replacement, "ReplaceElement"); err != nil {
		return err
	}
	if old == replacement {
		return nil
	}

	if err := w.moveIncoming(old, replacement); err != nil {
		return err
	}
	return w.moveOutgoing(old, replacement)
}

// ReplaceAndRemove replaces old and then removes it
func (w *Workflow) ReplaceAndRemove(ctx context.Context, old, replacement *Element) error {
	if err := w.ReplaceElement(ctx, old, replacement); err != nil {
		return err
	}
	if old == replacement {
		return nil
	}
	return w.RemoveElement(old.id)
}

// InsertAfter places ins between e and every element e links to
func (w *Workflow) InsertAfter(ctx context.Context, e, ins *Element) error {
	if err := w.checkMember(e, "InsertAfter"); err != nil {
		return err
	}
	if err := w.adopt(ctx, ins, "InsertAfter"); err != nil {
		return err
	}
	if err := w.moveOutgoing(e, ins); err != nil {
		return err
	}
	_, err := w.Link(e, ins)
	return err
}

// InsertBefore places ins between every element linking to e and e
func (w *Workflow) InsertBefore(ctx context.Context, e, ins *Element) error {
	if err := w.checkMember(e, "InsertBefore"); err != nil {
		return err
	}
	if err := w.adopt(ctx, ins, "InsertBefore"); err != nil {
		return err
	}
	if err := w.moveIncoming(e, ins); err != nil {
		return err
	}
	_, err := w.Link(ins, e)
	return err
}

// adopt adds e when it is not yet part of any workflow
func (w *Workflow) adopt(ctx context.Context, e *Element, method string) error {
	if e == nil {
		return errors.WrapInvalid(errors.ErrNilEndpoint, "Workflow", method, "element validation")
	}
	if e.workflow == nil {
		return w.AddElement(ctx, e)
	}
	return w.checkMember(e, method)
}

func (w *Workflow) moveIncoming(from, to *Element) error {
	for _, l := range from.Previous() {
		src := l.from
		if err := w.unlink(l); err != nil {
			return err
		}
		if src == to || src.linkedTo(to) != nil {
			continue
		}
		if _, err := w.Link(src, to); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workflow) moveOutgoing(from, to *Element) error {
	for _, l := range from.Next() {
		if l.Pending() {
			from.dropNext(l)
			if _, err := w.LinkTo(to, l.targetName); err != nil {
				return err
			}
			continue
		}
		dst := l.to
		if err := w.unlink(l); err != nil {
			return err
		}
		if dst == to || to.linkedTo(dst) != nil {
			continue
		}
		if _, err := w.Link(to, dst); err != nil {
			return err
		}
	}
	return nil
}

// Link connects from to to. Both must belong to the workflow and the link
// must not close a cycle.
func (w *Workflow) Link(from, to *Element) (*Link, error) {
	if err := w.checkMember(from, "Link"); err != nil {
		return nil, err
	}
	if err := w.checkMember(to, "Link"); err != nil {
		return nil, err
	}
	if from.linkedTo(to) != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%s-%s: %w", from.id, to.id, errors.ErrDuplicateLink), "Workflow", "Link", "duplicate link check")
	}
	for _, l := range from.next {
		if l.Pending() && l.targetName == to.id {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%s-%s is pending: %w", from.id, to.id, errors.ErrDuplicateLink), "Workflow", "Link", "duplicate link check")
		}
	}
	if reaches(to, from) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%s-%s: %w", from.id, to.id, errors.ErrCycle), "Workflow", "Link", "cycle check")
	}

	l := &Link{from: from, to: to}
	if err := l.wire(); err != nil {
		return nil, err
	}
	from.next = append(from.next, l)
	to.previous = append(to.previous, l)

	w.fire(event.WorkflowEvent{Type: event.WorkflowLink, Source: from.id, Target: to.id})
	return l, nil
}

// LinkTo creates a pending link from from to the element that will be named
// target. ResolveLinks or Activate resolves it.
func (w *Workflow) LinkTo(from *Element, target string) (*Link, error) {
	if err := w.checkMember(from, "LinkTo"); err != nil {
		return nil, err
	}
	l, err := from.LinkTo(target)
	if err != nil {
		return nil, err
	}
	w.fire(event.WorkflowEvent{Type: event.WorkflowLink, Source: from.id, Target: target})
	return l, nil
}

// Unlink removes the link from from to to
func (w *Workflow) Unlink(from, to *Element) error {
	if err := w.checkMember(from, "Unlink"); err != nil {
		return err
	}
	if err := w.checkMember(to, "Unlink"); err != nil {
		return err
	}
	l := from.linkedTo(to)
	if l == nil {
		return errors.WrapInvalid(
			fmt.Errorf("%s-%s: %w", from.id, to.id, errors.ErrLinkNotFound), "Workflow", "Unlink", "link lookup")
	}
	return w.unlink(l)
}

// unlink disconnects the pads first, then drops both registrations
func (w *Workflow) unlink(l *Link) error {
	if err := l.unwire(); err != nil {
		return err
	}
	l.from.dropNext(l)
	if l.to != nil {
		l.to.dropPrevious(l)
	}
	w.fire(event.WorkflowEvent{Type: event.WorkflowUnlink, Source: l.from.id, Target: l.TargetID()})
	return nil
}

// ResolveLinks resolves every pending link by target id. Targets,
// duplicates and cycles are checked for the whole pass before any link
// changes, so a rejected pass leaves the graph untouched. Resolving twice is
// a no-op.
func (w *Workflow) ResolveLinks() error {
	var pending []*Link
	for _, e := range w.order {
		for _, l := range e.next {
			if !l.Pending() {
				continue
			}
			if !w.Contains(l.targetName) {
				return errors.WrapInvalid(
					fmt.Errorf("%s: %w", l.ID(), errors.ErrTargetNotFound), "Workflow", "ResolveLinks", "target lookup")
			}
			pending = append(pending, l)
		}
	}

	planned := make(map[*Element][]*Element)
	for _, l := range pending {
		target := w.elements[l.targetName]
		if l.from.linkedTo(target) != nil || contains(planned[l.from], target) {
			return errors.WrapInvalid(
				fmt.Errorf("%s: %w", l.ID(), errors.ErrDuplicateLink), "Workflow", "ResolveLinks", "duplicate link check")
		}
		if reachesVia(target, l.from, planned) {
			return errors.WrapInvalid(
				fmt.Errorf("%s: %w", l.ID(), errors.ErrCycle), "Workflow", "ResolveLinks", "cycle check")
		}
		planned[l.from] = append(planned[l.from], target)
	}

	for _, l := range pending {
		target := w.elements[l.targetName]
		l.to = target
		target.previous = append(target.previous, l)
		if err := l.wire(); err != nil {
			return err
		}
	}
	return nil
}

// Activate instantiates every missing stage, resolves pending links and
// wires every resolved link
func (w *Workflow) Activate(ctx context.Context) error {
	for _, e := range w.order {
		if e.stage != nil {
			continue
		}
		if err := w.instantiate(ctx, e); err != nil {
			return err
		}
		w.subscribe(e)
	}

	if err := w.ResolveLinks(); err != nil {
		return err
	}

	for _, e := range w.order {
		for _, l := range e.next {
			if err := l.wire(); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetRoot makes e the root, adding it first when it belongs to no workflow
func (w *Workflow) SetRoot(ctx context.Context, e *Element) error {
	if err := w.adopt(ctx, e, "SetRoot"); err != nil {
		return err
	}
	w.root = e
	return nil
}

// SetRootID makes the element with the given id the root
func (w *Workflow) SetRootID(id string) error {
	e, ok := w.elements[id]
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%s: %w", id, errors.ErrElementNotFound), "Workflow", "SetRootID", "element lookup")
	}
	w.root = e
	return nil
}

// Root returns the root element, or nil
func (w *Workflow) Root() *Element { return w.root }

// Run starts the workflow with the metadata arguments
func (w *Workflow) Run(ctx context.Context) error {
	return w.Start(ctx, w.Arguments)
}

// Start runs one container through the graph from the root. It returns once
// every stage reached by the container has finished with it, or at the first
// processing error.
func (w *Workflow) Start(ctx context.Context, args string) error {
	root := w.root
	if root == nil {
		return errors.WrapInvalid(errors.ErrNoRoot, "Workflow", "Start", "root check")
	}
	if root.stage == nil {
		return errors.WrapInvalid(
			fmt.Errorf("root %s: %w", root.id, errors.ErrNotActivated), "Workflow", "Start", "activation check")
	}
	if root.stage.Processor().Kind() != component.AlgorithmKind {
		return errors.WrapInvalid(
			fmt.Errorf("root %s: %w", root.id, errors.ErrNotAlgorithm), "Workflow", "Start", "root kind check")
	}
	if !w.running.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyRunning, "Workflow", "Start", "running check")
	}
	defer w.running.Store(false)

	for _, e := range w.order {
		if e.stage != nil {
			e.stage.Reset()
		}
	}

	c := container.New(w.seqs.Containers)
	w.logger.Debug("workflow started", "root", root.id, "container", c.ID())
	w.fire(event.WorkflowEvent{Type: event.WorkflowStart, Source: root.id, ContainerID: c.ID()})

	err := root.stage.Start(ctx, c, args)

	w.fire(event.WorkflowEvent{Type: event.WorkflowEnd, ContainerID: c.ID()})
	if err != nil {
		w.logger.Error("workflow failed", "error", err)
		w.failed(err)
		return err
	}
	w.logger.Debug("workflow finished", "container", c.ID())
	return nil
}

func (w *Workflow) broadcast(t event.WorkflowType, method string) error {
	if !w.running.Load() {
		return errors.WrapInvalid(errors.ErrNotRunning, "Workflow", method, "running check")
	}
	w.fire(event.WorkflowEvent{Type: t})
	return nil
}

// Stop asks every stage to abandon its buffer
func (w *Workflow) Stop() error {
	return w.broadcast(event.WorkflowElementsStop, "Stop")
}

// Pause asks every stage to block at its next checkpoint
func (w *Workflow) Pause() error {
	return w.broadcast(event.WorkflowElementsPause, "Pause")
}

// Resume releases every paused stage
func (w *Workflow) Resume() error {
	return w.broadcast(event.WorkflowElementsResume, "Resume")
}

// reaches reports whether target is reachable from start along resolved links
func reaches(start, target *Element) bool {
	return reachesVia(start, target, nil)
}

// reachesVia is reaches with the extra edges in planned followed as well
func reachesVia(start, target *Element, planned map[*Element][]*Element) bool {
	seen := make(map[*Element]bool)
	stack := []*Element{start}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e == target {
			return true
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		for _, l := range e.next {
			if l.to != nil {
				stack = append(stack, l.to)
			}
		}
		stack = append(stack, planned[e]...)
	}
	return false
}

func contains(elements []*Element, e *Element) bool {
	for _, x := range elements {
		if x == e {
			return true
		}
	}
	return false
}
