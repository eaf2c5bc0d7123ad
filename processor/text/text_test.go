package text

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/container"
	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/module"
	"github.com/c360/flowkit/parameter"
	"github.com/c360/flowkit/payload"
	"github.com/c360/flowkit/stage"
	"github.com/c360/flowkit/workflow"
)

type fixture struct {
	seqs *component.Sequences
	mgr  *module.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	seqs := component.NewSequences()
	reg := component.NewRegistry()
	require.NoError(t, Register(reg, seqs.Payloads))
	require.NoError(t, payload.Register(reg))
	mgr := module.NewManager(module.NewLoader(reg))
	require.NoError(t, mgr.AddAllInternal())
	return &fixture{seqs: seqs, mgr: mgr}
}

func (f *fixture) workflow(name string) *workflow.Workflow {
	return workflow.New(name, workflow.WithInstantiator(f.mgr), workflow.WithSequences(f.seqs))
}

func collected(t *testing.T, w *workflow.Workflow, id string) []string {
	t.Helper()
	e, ok := w.Element(id)
	require.True(t, ok)
	c, ok := e.Stage().Processor().(*Collect)
	require.True(t, ok, "%s is not a collect unit", id)
	return c.Lines()
}

func TestRegister(t *testing.T) {
	reg := component.NewRegistry()
	require.NoError(t, Register(reg, component.NewSequence()))
	assert.Equal(t, []string{CollectID, GrepID, LinesID, LowerID, UpperID}, reg.Identifiers())

	for id, r := range reg.ListFactories() {
		assert.Equal(t, component.AlgorithmKind, r.Kind, id)
		assert.True(t, r.Exported, id)
	}

	err := Register(reg, component.NewSequence())
	assert.ErrorIs(t, err, errors.ErrDuplicateFactory)

	err = Register(component.NewRegistry(), nil)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestNamesDoNotCollideWithDataKinds(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"text.lines", "text.upper", "text.lower", "text.grep", "text.collect", "lines", "text"} {
		_, err := f.mgr.Lookup(module.NewQuery(name))
		assert.NoError(t, err, name)
	}
}

func TestPipeline_UpperCollect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	w, err := workflow.NewBuilder(f.workflow("shout")).
		Add("text.lines", "in").
		Add("text.upper", "up").
		Add("text.collect", "out").
		Link("in", "up").
		Link("up", "out").
		Root("in").
		Build(ctx)
	require.NoError(t, err)

	require.NoError(t, w.Start(ctx, "hello\n\nwörld\r\nstraße"))
	assert.Equal(t, []string{"HELLO", "WÖRLD", "STRASSE"}, collected(t, w, "out"))
}

func TestPipeline_GrepAndSeparator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	w, err := workflow.NewBuilder(f.workflow("filter")).
		Add("text.lines", "in").
		Set("in", ParamSeparator, ",").
		Add("text.grep", "keep").
		Set("keep", ParamPattern, "^b").
		Add("text.grep", "drop").
		Set("drop", ParamPattern, "z$").
		Set("drop", ParamInvert, "yes").
		Add("text.lower", "low").
		Add("text.collect", "out").
		Link("in", "keep").
		Link("keep", "drop").
		Link("drop", "low").
		Link("low", "out").
		Root("in").
		Build(ctx)
	require.NoError(t, err)

	require.NoError(t, w.Start(ctx, "apple,Banana,bar,baz,,bee"))
	assert.Equal(t, []string{"bar", "bee"}, collected(t, w, "out"))
}

func TestPipeline_FanOutCollectsTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	w, err := workflow.NewBuilder(f.workflow("fan")).
		Add("text.lines", "in").
		Add("text.upper", "up").
		Add("text.collect", "raw").
		Add("text.collect", "loud").
		Link("in", "raw").
		Link("in", "up").
		Link("up", "loud").
		Root("in").
		Build(ctx)
	require.NoError(t, err)

	require.NoError(t, w.Start(ctx, "a\nb"))
	// raw is linked first, so it sees the container before upper rewrites it
	assert.Equal(t, []string{"a", "b"}, collected(t, w, "raw"))
	assert.Equal(t, []string{"A", "B"}, collected(t, w, "loud"))
}

func TestGrep_InvalidPattern(t *testing.T) {
	g := NewGrep(component.NewSequence())
	params, err := g.DefineParameters()
	require.NoError(t, err)
	require.NoError(t, params.Set(ParamPattern, "("))

	err = g.Init(context.Background(), params)
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)
}

func TestLines_DuplicatePayloadIsAnError(t *testing.T) {
	// Two independent sequences hand out the same first id.
	l := NewLines(component.NewSequence())
	params, err := l.DefineParameters()
	require.NoError(t, err)
	require.NoError(t, params.Set(stage.ArgsParameter, "a\nb"))

	c := container.New(component.NewSequence())
	existing, err := payload.New(component.NewSequence(), payload.Lines, "other", []string{"x"})
	require.NoError(t, err)
	require.True(t, c.Add(existing))

	err = l.Process(context.Background(), c, params)
	assert.ErrorIs(t, err, errors.ErrDuplicatePayload)
	assert.Equal(t, 1, c.Len())
}

func TestCaser_InvalidLanguage(t *testing.T) {
	c := NewUpper(component.NewSequence())
	params, err := c.DefineParameters()
	require.NoError(t, err)
	require.NoError(t, params.Set(ParamLanguage, "not a tag!"))

	err = c.Init(context.Background(), params)
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)
}

func TestCaser_TurkishUpper(t *testing.T) {
	seq := component.NewSequence()
	c := NewUpper(seq)
	params, err := c.DefineParameters()
	require.NoError(t, err)
	require.NoError(t, params.Set(ParamLanguage, "tr"))
	require.NoError(t, c.Init(context.Background(), params))

	ctr := container.New(component.NewSequence())
	p, err := payload.New(seq, payload.Lines, "lines", []string{"istanbul"})
	require.NoError(t, err)
	ctr.Add(p)

	require.NoError(t, c.Process(context.Background(), ctr, params))
	require.Equal(t, 1, ctr.Len())
	out := ctr.Payloads()[0]
	assert.Equal(t, "lines", out.Name())
	assert.NotEqual(t, p.InstanceID(), out.InstanceID())
	assert.Equal(t, []string{"İSTANBUL"}, out.Value())
}

func TestCollect_IgnoresOtherShapes(t *testing.T) {
	seq := component.NewSequence()
	ctr := container.New(component.NewSequence())
	for _, p := range []struct {
		def   payload.Definition
		value any
	}{
		{payload.Text, "one"},
		{payload.Bytes, []byte("skipped")},
		{payload.Lines, []string{"two", "three"}},
	} {
		pl, err := payload.New(seq, p.def, "p", p.value)
		require.NoError(t, err)
		ctr.Add(pl)
	}

	c := NewCollect()
	require.NoError(t, c.Process(context.Background(), ctr, parameter.NewOpen()))
	assert.Equal(t, []string{"one", "two", "three"}, c.Lines())
	c.Reset()
	assert.Empty(t, c.Lines())
}
