package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/payload"
)

type fixture struct {
	seq *component.Sequence
	t   *testing.T
}

func (f fixture) text(name, value string) *payload.Payload {
	p, err := payload.New(f.seq, payload.Text, name, value)
	require.NoError(f.t, err)
	return p
}

func (f fixture) bytes(name string) *payload.Payload {
	p, err := payload.New(f.seq, payload.Bytes, name, []byte(name))
	require.NoError(f.t, err)
	return p
}

func TestNew_UniqueIDs(t *testing.T) {
	seq := component.NewSequence()
	a, b := New(seq), New(seq)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 0, a.Len())
}

func TestNew_NilSequence(t *testing.T) {
	var c *Container
	require.NotPanics(t, func() { c = New(nil) })
	assert.Equal(t, int64(0), c.ID())

	f := fixture{seq: component.NewSequence(), t: t}
	assert.True(t, c.Add(f.text("a", "x")))
	assert.Equal(t, 1, c.Len())
}

func TestAddRemove(t *testing.T) {
	f := fixture{seq: component.NewSequence(), t: t}
	c := New(component.NewSequence())

	p1, p2, p3 := f.text("a", "1"), f.text("b", "2"), f.text("c", "3")
	assert.True(t, c.Add(p1))
	assert.True(t, c.Add(p2))
	assert.True(t, c.Add(p3))
	assert.False(t, c.Add(p2), "duplicate instance id")
	assert.False(t, c.Add(nil))
	assert.Equal(t, 3, c.Len())

	assert.True(t, c.Remove(p2))
	assert.False(t, c.Remove(p2))
	assert.False(t, c.Remove(nil))
	assert.False(t, c.RemoveID(999))
	assert.Equal(t, []*payload.Payload{p1, p3}, c.Payloads())

	got, ok := c.Get(p3.InstanceID())
	require.True(t, ok)
	assert.Same(t, p3, got)
	_, ok = c.Get(p2.InstanceID())
	assert.False(t, ok)

	// re-adding a removed payload appends it at the end
	assert.True(t, c.Add(p2))
	assert.Equal(t, []*payload.Payload{p1, p3, p2}, c.Payloads())
}

func TestViews(t *testing.T) {
	f := fixture{seq: component.NewSequence(), t: t}
	c := New(component.NewSequence())

	t1 := f.text("title", "x")
	b1 := f.bytes("raw")
	t2 := f.text("body", "y")
	c.Add(t1)
	c.Add(b1)
	c.Add(t2)

	text := c.FilterFormat(payload.FormatText)
	assert.Equal(t, []*payload.Payload{t1, t2}, text.Payloads())
	assert.Equal(t, 2, text.Len())
	assert.Same(t, t1, text.First())

	composed := c.FilterFormat(payload.FormatText).FilterName("body")
	assert.Equal(t, []*payload.Payload{t2}, composed.Payloads())

	assert.Equal(t, 1, c.FilterType(payload.TypeBlob).Len())
	assert.Nil(t, c.FilterName("missing").First())

	// views are live
	t3 := f.text("tail", "z")
	c.Add(t3)
	assert.Equal(t, 3, text.Len())
	c.Remove(t1)
	assert.Same(t, t2, text.First())
}

func TestViewDerivationDoesNotAlias(t *testing.T) {
	f := fixture{seq: component.NewSequence(), t: t}
	c := New(component.NewSequence())
	c.Add(f.text("a", "1"))
	c.Add(f.text("b", "2"))

	base := c.FilterFormat(payload.FormatText)
	onlyA := base.FilterName("a")
	onlyB := base.FilterName("b")

	assert.Equal(t, "a", onlyA.First().Name())
	assert.Equal(t, "b", onlyB.First().Name())
	assert.Equal(t, 2, base.Len())
}

func TestValue(t *testing.T) {
	f := fixture{seq: component.NewSequence(), t: t}
	c := New(component.NewSequence())
	c.Add(f.text("greeting", "hello"))
	c.Add(f.text("greeting", "again"))

	v, ok := c.Value("greeting")
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	_, ok = c.Value("absent")
	assert.False(t, ok)
}

func TestEachStopsEarly(t *testing.T) {
	f := fixture{seq: component.NewSequence(), t: t}
	c := New(component.NewSequence())
	for _, n := range []string{"a", "b", "c"} {
		c.Add(f.text(n, n))
	}
	var seen []string
	c.Each(func(p *payload.Payload) bool {
		seen = append(seen, p.Name())
		return len(seen) < 2
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}
