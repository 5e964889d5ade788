package datum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapUsesEquality(t *testing.T) {
	m := NewMap[string]()
	m.Put(Int32(1), "one")
	m.Put(MustDecimal("1.00"), "uno")

	v, ok := m.Get(Int64(1))
	assert.True(t, ok)
	assert.Equal(t, "uno", v, "1 and 1.00 are the same key")
	assert.Equal(t, 1, m.Len())

	m.Put(Null(), "null")
	_, ok = m.Get(Null())
	assert.True(t, ok)
	_, ok = m.Get(Missing())
	assert.False(t, ok)

	m.Put(Bag(Int32(1), Int32(2)), "bag")
	v, ok = m.Get(Bag(Int32(2), Int32(1)))
	assert.True(t, ok)
	assert.Equal(t, "bag", v)
}

func TestSetCounts(t *testing.T) {
	s := NewSet()
	assert.True(t, s.Add(String("a")))
	assert.False(t, s.Add(String("a")))
	assert.True(t, s.Add(String("b")))

	assert.Equal(t, 2, s.Count(String("a")))
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Take(String("a")))
	assert.True(t, s.Take(String("a")))
	assert.False(t, s.Take(String("a")))
	assert.False(t, s.Contains(String("a")))

	s.Remove(String("b"))
	assert.False(t, s.Contains(String("b")))
	assert.False(t, s.Contains(String("zzz")))
}
