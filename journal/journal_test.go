package journal

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/event"
	"github.com/c360/flowkit/testutil"
	"github.com/c360/flowkit/workflow"
)

func open(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestWrite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	j := open(t)

	at := time.Date(2026, 7, 1, 9, 30, 0, 123456789, time.UTC)
	in := []event.Record{
		{At: at, Scope: event.ScopeWorkflow, Workflow: "demo", Type: "link", TypeID: 3, Source: "a", Target: "b"},
		{At: at.Add(time.Millisecond), Scope: event.ScopeStage, Workflow: "demo", Type: "warning", TypeID: 4,
			Source: "a", ContainerID: 7, Message: "odd input"},
		event.FromFailure("other", stderrors.New("boom"), at),
	}
	for _, r := range in {
		require.NoError(t, j.Write(ctx, r))
	}

	all, err := j.Entries(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, e := range all {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Equal(t, in[i], e.Record)
	}

	n, err := j.Count(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = j.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestEntries_Filter(t *testing.T) {
	ctx := context.Background()
	j := open(t)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, typ := range []string{"add", "start", "end", "add", "end"} {
		wf := "a"
		if i >= 3 {
			wf = "b"
		}
		require.NoError(t, j.Write(ctx, event.Record{At: at, Scope: event.ScopeWorkflow, Workflow: wf, Type: typ}))
	}

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"workflow", Filter{Workflow: "b"}, []int64{4, 5}},
		{"type", Filter{Type: "end"}, []int64{3, 5}},
		{"workflow and type", Filter{Workflow: "a", Type: "add"}, []int64{1}},
		{"after seq", Filter{AfterSeq: 3}, []int64{4, 5}},
		{"limit", Filter{Limit: 2}, []int64{1, 2}},
		{"stage scope", Filter{Scope: event.ScopeStage}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := j.Entries(ctx, tt.filter)
			require.NoError(t, err)
			var seqs []int64
			for _, e := range got {
				seqs = append(seqs, e.Seq)
			}
			assert.Equal(t, tt.want, seqs)
		})
	}
}

func TestJournal_ReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Write(ctx, event.Record{At: time.Now(), Scope: event.ScopeWorkflow, Workflow: "w", Type: "start"}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	n, err := j.Count(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestJournal_RecordsWorkflowRun(t *testing.T) {
	ctx := context.Background()
	j := open(t)

	w := workflow.New("journaled")
	w.AddListener(event.NewTap(ctx, j, w.Name(), event.WithStageEvents(true)))
	a := workflow.NewProcessorElement("a", testutil.NewScript("test/a"))
	b := workflow.NewProcessorElement("b", testutil.NewScript("test/b"))
	require.NoError(t, w.SetRoot(ctx, a))
	require.NoError(t, w.AddElement(ctx, b))
	_, err := w.Link(a, b)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx, ""))

	stages, err := j.Entries(ctx, Filter{Workflow: "journaled", Scope: event.ScopeStage})
	require.NoError(t, err)
	var trace []string
	for _, e := range stages {
		trace = append(trace, e.Source+":"+e.Type)
	}
	assert.Equal(t, []string{"a:start", "a:end", "b:start", "b:end", "b:no_more_stage"}, trace)

	ends, err := j.Entries(ctx, Filter{Workflow: "journaled", Type: "end"})
	require.NoError(t, err)
	require.Len(t, ends, 2)
	assert.Equal(t, "b", ends[0].Source)
	assert.Equal(t, int64(1), ends[1].ContainerID)
}
