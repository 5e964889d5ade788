package setops

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pqleval/pkg/datum"
	"pqleval/pkg/datum/datumtest"
	"pqleval/pkg/env"
	"pqleval/pkg/iterator"
	"pqleval/pkg/iterator/itertest"
	"pqleval/pkg/plan"
)

// ============================================================================
// Helpers
// ============================================================================

func ints(vs ...int32) []datum.Datum {
	out := make([]datum.Datum, len(vs))
	for i, v := range vs {
		out[i] = datum.Int32(v)
	}
	return out
}

// drainValues runs it and returns the bag of values bound to x.
func drainValues(t *testing.T, it iterator.RowIterator) datum.Datum {
	t.Helper()
	rows, err := iterator.Drain(it, nil)
	require.NoError(t, err)
	out := make([]datum.Datum, len(rows))
	for i, r := range rows {
		v, ok := r.Get("x")
		require.True(t, ok, "row %s has no x", r)
		out[i] = v
	}
	return datum.Bag(out...)
}

// ============================================================================
// Set operators
// ============================================================================

func TestSetOperators(t *testing.T) {
	left := ints(1, 1, 1, 2, 3)
	right := ints(1, 1, 3, 3, 4)

	tests := []struct {
		name     string
		kind     plan.SetOpKind
		all      bool
		expected []datum.Datum
	}{
		{"union", plan.Union, false, ints(1, 2, 3, 4)},
		{"union all", plan.Union, true, ints(1, 1, 1, 2, 3, 1, 1, 3, 3, 4)},
		{"intersect", plan.Intersect, false, ints(1, 3)},
		{"intersect all", plan.Intersect, true, ints(1, 1, 3)},
		{"except", plan.Except, false, ints(2)},
		{"except all", plan.Except, true, ints(1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The right side binds y; its rows are renamed to x.
			op, err := NewSetOp(tt.kind, tt.all, itertest.Single("x", left...), itertest.Single("y", right...))
			require.NoError(t, err)
			assert.Equal(t, env.Schema{"x"}, op.Schema())
			datumtest.AssertIdentical(t, datum.Bag(tt.expected...), drainValues(t, op))
		})
	}
}

func TestSetOpAbsentValues(t *testing.T) {
	left := []datum.Datum{datum.Null(), datum.Missing(), datum.Null()}
	right := []datum.Datum{datum.Null()}

	op, err := NewSetOp(plan.Union, false, itertest.Single("x", left...), itertest.Single("x", right...))
	require.NoError(t, err)
	datumtest.AssertIdentical(t, datum.Bag(datum.Null(), datum.Missing()), drainValues(t, op))

	op, err = NewSetOp(plan.Except, false, itertest.Single("x", left...), itertest.Single("x", right...))
	require.NoError(t, err)
	datumtest.AssertIdentical(t, datum.Bag(datum.Missing()), drainValues(t, op))
}

func TestSetOpComparesWholeRows(t *testing.T) {
	schema := env.Schema{"x", "y"}
	left := itertest.New(schema,
		[]datum.Datum{datum.Int32(1), datum.String("a")},
		[]datum.Datum{datum.Int32(1), datum.String("b")},
	)
	right := itertest.New(schema, []datum.Datum{datum.Int32(1), datum.String("a")})

	op, err := NewSetOp(plan.Intersect, false, left, right)
	require.NoError(t, err)
	rows, err := iterator.Drain(op, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	datumtest.AssertIdentical(t, datumtest.Row("x", datum.Int32(1), "y", datum.String("a")), rows[0].Struct())
}

func TestSetOpValidation(t *testing.T) {
	_, err := NewSetOp(plan.Union, false, nil, itertest.Single("x"))
	assert.Error(t, err)

	_, err = NewSetOp(plan.Union, false, itertest.Single("x"), itertest.New(env.Schema{"a", "b"}))
	assert.Error(t, err)
}

func TestSetOpReopen(t *testing.T) {
	left, right := itertest.Single("x", ints(1, 2)...), itertest.Single("x", ints(2)...)
	op, err := NewSetOp(plan.Except, false, left, right)
	require.NoError(t, err)

	datumtest.AssertIdentical(t, datum.Bag(ints(1)...), drainValues(t, op))
	datumtest.AssertIdentical(t, datum.Bag(ints(1)...), drainValues(t, op))
	assert.False(t, left.IsOpen())
	assert.False(t, right.IsOpen())
}

func TestSetOpRightError(t *testing.T) {
	right := itertest.Single("x", ints(1)...)
	right.NextErr = errors.New("read failed")
	op, err := NewSetOp(plan.Intersect, true, itertest.Single("x", ints(1)...), right)
	require.NoError(t, err)

	_, err = iterator.Drain(op, nil)
	assert.ErrorIs(t, err, right.NextErr)
}

// ============================================================================
// Distinct
// ============================================================================

func TestDistinct(t *testing.T) {
	child := itertest.Single("x",
		datum.Int32(1), datum.Int64(1), datum.Null(), datum.Null(),
		datum.List(datum.Int32(1)), datum.List(datum.Int32(1)), datum.String("1"),
	)
	d, err := NewDistinct(child)
	require.NoError(t, err)

	rows, err := iterator.Drain(d, nil)
	require.NoError(t, err)
	got := make([]datum.Datum, len(rows))
	for i, r := range rows {
		got[i], _ = r.Get("x")
	}
	// Int32(1) and Int64(1) are equal; the first occurrence wins and order is kept.
	datumtest.AssertIdentical(t,
		datum.List(datum.Int32(1), datum.Null(), datum.List(datum.Int32(1)), datum.String("1")),
		datum.List(got...))
}

func TestDistinctReopen(t *testing.T) {
	d, err := NewDistinct(itertest.Single("x", ints(1, 1)...))
	require.NoError(t, err)
	assert.Equal(t, 1, drainValues(t, d).Len())
	assert.Equal(t, 1, drainValues(t, d).Len())
}

func TestDistinctNilChild(t *testing.T) {
	_, err := NewDistinct(nil)
	assert.Error(t, err)
}
