package event

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowkit/metric"
)

type memorySink struct {
	records []Record
	fail    error
}

func (m *memorySink) Name() string { return "memory" }

func (m *memorySink) Write(_ context.Context, r Record) error {
	if m.fail != nil {
		return m.fail
	}
	m.records = append(m.records, r)
	return nil
}

func TestTap(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sink := &memorySink{}
	tap := NewTap(context.Background(), sink, "demo", WithClock(func() time.Time { return at }))

	tap.WorkflowEvent(WorkflowEvent{Type: WorkflowLink, Workflow: "demo", Source: "a", Target: "b"})
	tap.ElementEvent("a", StageEvent{Type: StageStart, ContainerID: 1})
	tap.WorkflowFailed("demo", stderrors.New("boom"))

	require.Len(t, sink.records, 2, "stage events are off by default")
	assert.Equal(t, Record{
		At: at, Scope: ScopeWorkflow, Workflow: "demo", Type: "link", TypeID: int(WorkflowLink),
		Source: "a", Target: "b",
	}, sink.records[0])
	assert.Equal(t, TypeFailed, sink.records[1].Type)
	assert.Equal(t, "boom", sink.records[1].Message)
}

func TestTap_StageEventsAndMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	core := registry.CoreMetrics()
	sink := &memorySink{}
	tap := NewTap(context.Background(), sink, "demo", WithStageEvents(true), WithTapMetrics(core))

	tap.ElementEvent("a", StageEvent{Type: StageWarning, ContainerID: 3, Message: "odd"})
	require.Len(t, sink.records, 1)
	r := sink.records[0]
	assert.Equal(t, ScopeStage, r.Scope)
	assert.Equal(t, "demo", r.Workflow)
	assert.Equal(t, "a", r.Source)
	assert.Equal(t, "warning", r.Type)
	assert.Equal(t, 1.0, testutil.ToFloat64(core.EventsPublished.WithLabelValues("memory", "warning")))

	sink.fail = stderrors.New("disk full")
	tap.WorkflowEvent(WorkflowEvent{Type: WorkflowStart})
	assert.Len(t, sink.records, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(core.EventsDropped.WithLabelValues("memory")))
}
