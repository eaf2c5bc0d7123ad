package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/flowkit/metric"
)

// Sink forwards or stores records
type Sink interface {
	// Name labels the sink in logs and metrics
	Name() string
	Write(ctx context.Context, r Record) error
}

// TapOption configures a Tap
type TapOption func(*Tap)

// WithStageEvents also forwards the raw stage events of every element
func WithStageEvents(enabled bool) TapOption {
	return func(t *Tap) { t.stages = enabled }
}

// WithClock sets the timestamp source
func WithClock(now func() time.Time) TapOption {
	return func(t *Tap) {
		if now != nil {
			t.now = now
		}
	}
}

// WithTapLogger sets the logger used for write failures
func WithTapLogger(logger *slog.Logger) TapOption {
	return func(t *Tap) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithTapMetrics counts written and dropped records
func WithTapMetrics(m *metric.Metrics) TapOption {
	return func(t *Tap) { t.metrics = m }
}

// Tap is a workflow listener that turns the events of one workflow into
// records and writes them to a sink. Listener callbacks cannot fail, so a
// write error is logged and counted as dropped.
type Tap struct {
	ctx      context.Context
	sink     Sink
	workflow string
	stages   bool
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metric.Metrics
}

// NewTap creates a tap writing the events of workflow to sink. Writes use
// ctx.
func NewTap(ctx context.Context, sink Sink, workflow string, opts ...TapOption) *Tap {
	t := &Tap{
		ctx:      ctx,
		sink:     sink,
		workflow: workflow,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "tap", "sink", sink.Name(), "workflow", workflow)
	return t
}

// WorkflowEvent implements WorkflowListener
func (t *Tap) WorkflowEvent(e WorkflowEvent) {
	t.write(FromWorkflow(e, t.now()))
}

// WorkflowFailed implements FailureListener
func (t *Tap) WorkflowFailed(workflow string, err error) {
	t.write(FromFailure(workflow, err, t.now()))
}

// ElementEvent implements ElementListener
func (t *Tap) ElementEvent(element string, e StageEvent) {
	if t.stages {
		t.write(FromStage(t.workflow, element, e, t.now()))
	}
}

func (t *Tap) write(r Record) {
	if r.Workflow == "" {
		r.Workflow = t.workflow
	}
	if err := t.sink.Write(t.ctx, r); err != nil {
		t.logger.Warn("event dropped", "type", r.Type, "error", err)
		t.metrics.RecordEventDropped(t.sink.Name())
		return
	}
	t.metrics.RecordEventPublished(t.sink.Name(), r.Type)
}
