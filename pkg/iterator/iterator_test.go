package iterator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pqleval/pkg/datum"
	"pqleval/pkg/env"
)

// ============================================================================
// Mock child iterator
// ============================================================================

type mockChildIterator struct {
	rows       []*env.Row
	index      int
	isOpen     bool
	opens      int
	lastParent *env.Env
	closeErr   error
	schema     env.Schema
}

func newMockChildIterator(name string, values ...int32) *mockChildIterator {
	rows := make([]*env.Row, len(values))
	for i, v := range values {
		rows[i] = env.NewRow(env.Binding{Name: name, Value: datum.Int32(v)})
	}
	return &mockChildIterator{rows: rows, index: -1, schema: env.Schema{name}}
}

func (m *mockChildIterator) Open(parent *env.Env) error {
	m.isOpen = true
	m.index = -1
	m.opens++
	m.lastParent = parent
	return nil
}

func (m *mockChildIterator) Close() error {
	m.isOpen = false
	return m.closeErr
}

func (m *mockChildIterator) HasNext() (bool, error) {
	if !m.isOpen {
		return false, fmt.Errorf("iterator not open")
	}
	return m.index+1 < len(m.rows), nil
}

func (m *mockChildIterator) Next() (*env.Row, error) {
	if !m.isOpen {
		return nil, fmt.Errorf("iterator not open")
	}
	m.index++
	if m.index >= len(m.rows) {
		return nil, fmt.Errorf("no more rows")
	}
	return m.rows[m.index], nil
}

func (m *mockChildIterator) Schema() env.Schema { return m.schema }

func values(t *testing.T, rows []*env.Row, name string) []int64 {
	t.Helper()
	out := make([]int64, len(rows))
	for i, r := range rows {
		v, ok := r.Get(name)
		require.True(t, ok)
		out[i] = v.AsInt64()
	}
	return out
}

// ============================================================================
// BaseIterator
// ============================================================================

func TestBaseIteratorRequiresOpen(t *testing.T) {
	it := NewBaseIterator(func() (*env.Row, error) { return nil, nil })

	_, err := it.HasNext()
	assert.Error(t, err)
	_, err = it.Next()
	assert.Error(t, err)

	it.MarkOpened()
	assert.True(t, it.IsOpen())
	ok, err := it.HasNext()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = it.Next()
	assert.Error(t, err, "Next past the end")
}

func TestBaseIteratorLookaheadReadsOnce(t *testing.T) {
	reads := 0
	it := NewBaseIterator(func() (*env.Row, error) {
		reads++
		return env.NewRow(), nil
	})
	it.MarkOpened()

	for i := 0; i < 3; i++ {
		ok, err := it.HasNext()
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 1, reads)

	_, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, reads)
}

// ============================================================================
// UnaryOperator
// ============================================================================

func TestUnaryOperatorPassesParentScope(t *testing.T) {
	child := newMockChildIterator("x", 1, 2)
	var u *UnaryOperator
	u, err := NewUnaryOperator(child, func() (*env.Row, error) { return u.FetchNext() })
	require.NoError(t, err)

	outer := env.Root().Push(env.NewRow(env.Binding{Name: "o", Value: datum.Int32(9)}))
	require.NoError(t, u.Open(outer))
	assert.Same(t, outer, child.lastParent)

	rows, err := Collect(u)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, values(t, rows, "x"))

	scope := u.Scope(rows[0])
	o, ok := scope.Resolve("o")
	require.True(t, ok)
	assert.Equal(t, int64(9), o.AsInt64())

	assert.Equal(t, env.Schema{"x"}, u.Schema())
	require.NoError(t, u.Close())
	assert.False(t, child.isOpen)
}

func TestUnaryOperatorReopenRestarts(t *testing.T) {
	child := newMockChildIterator("x", 1, 2, 3)
	var u *UnaryOperator
	u, _ = NewUnaryOperator(child, func() (*env.Row, error) { return u.FetchNext() })

	rows, err := Drain(u, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = Drain(u, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, 2, child.opens)
}

func TestUnaryOperatorNilChild(t *testing.T) {
	_, err := NewUnaryOperator(nil, nil)
	assert.Error(t, err)
}

func TestUnaryOperatorCloseReportsChildError(t *testing.T) {
	child := newMockChildIterator("x")
	child.closeErr = fmt.Errorf("disk on fire")
	u, _ := NewUnaryOperator(child, func() (*env.Row, error) { return nil, nil })
	require.NoError(t, u.Open(nil))

	err := u.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

// ============================================================================
// BinaryOperator
// ============================================================================

func TestBinaryOperatorOpensRightOnDemand(t *testing.T) {
	left := newMockChildIterator("l", 1, 2)
	right := newMockChildIterator("r", 10)
	var b *BinaryOperator
	b, err := NewBinaryOperator(left, right, func() (*env.Row, error) {
		l, err := b.FetchLeft()
		if err != nil || l == nil {
			return nil, err
		}
		if err := b.OpenRight(b.Parent().Push(l)); err != nil {
			return nil, err
		}
		r, err := b.FetchRight()
		if err != nil || r == nil {
			return nil, err
		}
		return l.Concat(r), nil
	})
	require.NoError(t, err)

	rows, err := Drain(b, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, right.opens, "right side re-opened per left row")
	assert.Equal(t, []int64{2, 2}, []int64{int64(len(rows[0].Bindings)), int64(len(rows[1].Bindings))})
	assert.Equal(t, env.Schema{"l", "r"}, b.Schema())

	lv, _ := right.lastParent.Resolve("l")
	assert.Equal(t, int64(2), lv.AsInt64())
}

func TestBinaryOperatorCloseCollectsErrors(t *testing.T) {
	left := newMockChildIterator("l")
	right := newMockChildIterator("r")
	left.closeErr = fmt.Errorf("left broke")
	right.closeErr = fmt.Errorf("right broke")

	b, _ := NewBinaryOperator(left, right, func() (*env.Row, error) { return nil, nil })
	require.NoError(t, b.Open(nil))
	require.NoError(t, b.OpenRight(env.Root()))

	err := b.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "left broke")
	assert.Contains(t, err.Error(), "right broke")
}

func TestBinaryOperatorNilChildren(t *testing.T) {
	c := newMockChildIterator("x")
	_, err := NewBinaryOperator(nil, c, nil)
	assert.Error(t, err)
	_, err = NewBinaryOperator(c, nil, nil)
	assert.Error(t, err)
}

// ============================================================================
// Helpers
// ============================================================================

func TestHelpers(t *testing.T) {
	child := newMockChildIterator("x", 1, 2, 3, 4)

	require.NoError(t, child.Open(nil))
	n, err := Count(child)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, child.Open(nil))
	sum, err := Reduce(child, int64(0), func(acc int64, r *env.Row) (int64, error) {
		v, _ := r.Get("x")
		return acc + v.AsInt64(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), sum)

	require.NoError(t, child.Open(nil))
	seen := 0
	err = Iterate(child, func(*env.Row) (bool, error) {
		seen++
		return seen < 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)

	require.NoError(t, child.Open(nil))
	err = ForEach(child, func(*env.Row) error { return fmt.Errorf("stop") })
	assert.EqualError(t, err, "stop")
}

func TestSliceIterator(t *testing.T) {
	it := NewSliceIterator([]string{"a", "b"})
	assert.Equal(t, 2, it.Len())

	v, ok := it.ReadNext()
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 1, it.Remaining())

	v, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.False(t, it.HasNext())
	assert.Equal(t, 0, it.Remaining())

	_, ok = it.ReadNext()
	assert.False(t, ok)
	_, err = it.Next()
	assert.ErrorIs(t, err, ErrExhausted)
}
