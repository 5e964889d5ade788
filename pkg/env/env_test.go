package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pqleval/pkg/datum"
)

func TestResolveClosestScopeWins(t *testing.T) {
	outer := Root().Push(NewRow(Binding{"x", datum.Int32(1)}, Binding{"y", datum.Int32(2)}))
	inner := outer.Push(NewRow(Binding{"x", datum.Int32(10)}))

	v, ok := inner.Resolve("x")
	require.True(t, ok)
	assert.Equal(t, int64(10), v.AsInt64())

	v, ok = inner.Resolve("y")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.AsInt64())

	v, ok = outer.Resolve("x")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.AsInt64(), "ancestors never see child frames")

	_, ok = inner.Resolve("z")
	assert.False(t, ok)
	assert.Equal(t, 2, inner.Depth())
}

func TestLaterBindingWinsWithinFrame(t *testing.T) {
	e := Root().Push(NewRow(Binding{"a", datum.Int32(1)}, Binding{"a", datum.Int32(2)}))
	v, ok := e.Resolve("a")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.AsInt64())
}

func TestRowHelpers(t *testing.T) {
	l := NewRow(Binding{"a", datum.Int32(1)})
	r := NewRow(Binding{"b", datum.String("x")})

	joined := l.Concat(r)
	assert.Len(t, joined.Bindings, 2)
	assert.Len(t, l.Bindings, 1)
	assert.Equal(t, "{'a': 1, 'b': 'x'}", joined.String())
	assert.Equal(t, []datum.Datum{datum.Int32(1), datum.String("x")}, joined.Values())

	nulls := Schema{"a", "b"}.NullRow()
	assert.Equal(t, "{'a': null, 'b': null}", nulls.String())
	assert.Equal(t, "(a, b, c)", Schema{"a", "b"}.Concat(Schema{"c"}).String())
}
