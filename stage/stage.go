// Package stage runs a processing unit inside a pipeline.
//
// A Stage wraps a Processor with an InPad buffer, an OutPad fan-out, a lazily
// defined parameter set and two control flags. Delivering a container to the
// InPad drains the buffer on the calling goroutine: every container is
// processed and then handed synchronously to each downstream stage before the
// next one is popped. Pause and stop are only observed at the checkpoints
// right before and right after a container is processed, never in the middle
// of Process.
package stage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/container"
	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/event"
	"github.com/c360/flowkit/parameter"
)

// ArgsParameter is the parameter Start fills with the run arguments
const ArgsParameter = "args"

// Processor is an algorithm unit
type Processor interface {
	component.Unit
	Process(ctx context.Context, c *container.Container, params *parameter.Set) error
}

// Initializer is implemented by processors that need one-time setup before
// their first container
type Initializer interface {
	Init(ctx context.Context, params *parameter.Set) error
}

// ParameterDefiner is implemented by processors exposing parameters. A nil
// set means the processor has none.
type ParameterDefiner interface {
	DefineParameters() (*parameter.Set, error)
}

// Option configures a Stage
type Option func(*Stage)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records per-container metrics
func WithMetrics(m *Metrics) Option {
	return func(s *Stage) { s.metrics = m }
}

// WithTracer sets the tracer used for process spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Stage) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// Stage hosts a Processor
type Stage struct {
	id        int64
	processor Processor
	in        *InPad
	out       *OutPad
	listeners event.Bus[event.StageListener]

	paramsMu sync.Mutex
	params   *parameter.Set

	mu          sync.Mutex
	cond        *sync.Cond
	paused      bool
	stopped     bool
	initialized bool
	state       component.State

	draining atomic.Bool

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// New wraps p in a stage whose id comes from seq
func New(seq *component.Sequence, p Processor, opts ...Option) (*Stage, error) {
	if seq == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Stage", "New", "sequence validation")
	}
	if p == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("nil processor: %w", errors.ErrNotAModule), "Stage", "New", "processor validation")
	}

	s := &Stage{
		id:        seq.Next(),
		processor: p,
		out:       &OutPad{},
		logger:    slog.Default(),
		tracer:    noop.NewTracerProvider().Tracer("flowkit/stage"),
	}
	s.cond = sync.NewCond(&s.mu)
	s.in = &InPad{stage: s, queue: newQueue()}

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "stage", "stage", s.id, "unit", p.About().Name)

	return s, nil
}

// ID returns the stage id
func (s *Stage) ID() int64 { return s.id }

// Processor returns the wrapped processor
func (s *Stage) Processor() Processor { return s.processor }

// InPad returns the input pad
func (s *Stage) InPad() *InPad { return s.in }

// OutPad returns the output pad
func (s *Stage) OutPad() *OutPad { return s.out }

// State reports the lifecycle state
func (s *Stage) State() component.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Parameters returns the parameter set, defining it on first access
func (s *Stage) Parameters() (*parameter.Set, error) {
	s.paramsMu.Lock()
	defer s.paramsMu.Unlock()

	if s.params != nil {
		return s.params, nil
	}

	var set *parameter.Set
	if definer, ok := s.processor.(ParameterDefiner); ok {
		defined, err := definer.DefineParameters()
		if err != nil {
			return nil, errors.WrapInvalid(err, "Stage", "Parameters", "parameter definition")
		}
		set = defined
	}
	if set == nil {
		set, _ = parameter.NewFixed()
	}
	s.params = set
	return s.params, nil
}

// AddListener registers a stage listener
func (s *Stage) AddListener(l event.StageListener) bool { return s.listeners.Add(l) }

// RemoveListener unregisters a stage listener
func (s *Stage) RemoveListener(l event.StageListener) bool { return s.listeners.Remove(l) }

func (s *Stage) fire(t event.StageType, containerID int64, msg string) {
	e := event.StageEvent{Type: t, StageID: s.id, ContainerID: containerID, Message: msg}
	s.listeners.Each(func(l event.StageListener) { l.StageEvent(e) })
}

// Start is the entry point of a root stage. It fills the args parameter when
// the stage defines one, enqueues c and drains.
func (s *Stage) Start(ctx context.Context, c *container.Container, args string) error {
	if c == nil {
		return errors.WrapInvalid(errors.ErrNilValue, "Stage", "Start", "container validation")
	}

	params, err := s.Parameters()
	if err != nil {
		return err
	}
	if params.Has(ArgsParameter) {
		if err := params.Set(ArgsParameter, args); err != nil {
			return errors.Wrap(err, "Stage", "Start", "args assignment")
		}
	}

	return s.in.Deliver(ctx, c)
}

// Pause asks the stage to block at its next checkpoint
func (s *Stage) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume releases a paused stage
func (s *Stage) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.cond.Broadcast()
}

// Stop asks the stage to abandon its buffer at the next checkpoint. A paused
// stage wakes up and stops.
func (s *Stage) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cond.Broadcast()
}

// Reset clears pending stop and pause requests
func (s *Stage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = false
	s.paused = false
}

// Paused reports whether a pause was requested
func (s *Stage) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// WorkflowEvent implements event.WorkflowListener
func (s *Stage) WorkflowEvent(e event.WorkflowEvent) {
	switch e.Type {
	case event.WorkflowElementsStop:
		s.Stop()
	case event.WorkflowElementsPause:
		s.Pause()
	case event.WorkflowElementsResume:
		s.Resume()
	}
}

func (s *Stage) setState(state component.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// checkpoint honors pending stop and pause requests. It reports true when the
// current drain cycle must end.
func (s *Stage) checkpoint(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.paused && !s.stopped {
		return false, nil
	}

	// wake the wait below if ctx ends while paused
	release := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cond.Broadcast()
	})
	defer release()

	for {
		if s.stopped {
			s.stopped = false
			s.state = component.StateStopped
			return true, nil
		}
		if !s.paused {
			s.state = component.StateRunning
			return false, nil
		}
		if err := ctx.Err(); err != nil {
			return true, err
		}
		s.state = component.StatePaused
		s.cond.Wait()
	}
}

func (s *Stage) initialize(ctx context.Context) error {
	s.mu.Lock()
	done := s.initialized
	s.mu.Unlock()
	if done {
		return nil
	}

	params, err := s.Parameters()
	if err != nil {
		return err
	}
	if init, ok := s.processor.(Initializer); ok {
		if err := init.Init(ctx, params); err != nil {
			return errors.Wrap(err, "Stage", "initialize", "processor init")
		}
	}

	s.mu.Lock()
	s.initialized = true
	s.state = component.StateIdle
	s.mu.Unlock()
	return nil
}

// drain runs the processing loop unless another goroutine already is
func (s *Stage) drain(ctx context.Context) error {
	for {
		if !s.draining.CompareAndSwap(false, true) {
			return nil
		}
		err := s.run(ctx)
		if err != nil {
			s.discard("error")
		}
		s.settle()
		s.draining.Store(false)
		if err != nil || s.in.queue.len() == 0 {
			return err
		}
	}
}

func (s *Stage) run(ctx context.Context) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c, ok := s.in.queue.pop()
		if !ok {
			return nil
		}

		if stop, err := s.checkpoint(ctx); stop {
			if err != nil {
				return err
			}
			s.discard("stop")
			return nil
		}

		s.setState(component.StateRunning)
		s.fire(event.StageStart, c.ID(), "")
		if err := s.process(ctx, c); err != nil {
			return err
		}
		s.fire(event.StageEnd, c.ID(), "")

		if stop, err := s.checkpoint(ctx); stop {
			if err != nil {
				return err
			}
			s.discard("stop")
			return nil
		}

		if s.out.Len() == 0 {
			s.fire(event.StageNoMoreStage, c.ID(), "")
		}
		if err := s.out.deliver(ctx, c); err != nil {
			return err
		}
	}
}

// discard drops the queued containers so none outlives the cycle that
// stopped or failed
func (s *Stage) discard(reason string) {
	if n := s.in.queue.clear(); n > 0 {
		s.logger.Debug("discarded queued containers", "reason", reason, "count", n)
	}
}

// settle marks a drained stage idle unless a stop ended the cycle
func (s *Stage) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == component.StateRunning {
		s.state = component.StateIdle
	}
}

func (s *Stage) process(ctx context.Context, c *container.Container) error {
	params, err := s.Parameters()
	if err != nil {
		return err
	}
	unit := s.processor.About().Name

	ctx, span := s.tracer.Start(ctx, "stage.process", trace.WithAttributes(
		attribute.Int64("flowkit.stage.id", s.id),
		attribute.Int64("flowkit.container.id", c.ID()),
		attribute.String("flowkit.unit", unit),
	))
	defer span.End()

	started := time.Now()
	err = s.processor.Process(withStage(ctx, s, c), c, params)
	s.metrics.record(unit, time.Since(started), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Debug("process failed", "container", c.ID(), "error", err)
		return err
	}
	return nil
}
