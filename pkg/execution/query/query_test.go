package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pqleval/pkg/datum"
	"pqleval/pkg/datum/datumtest"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
	"pqleval/pkg/execution/expr"
	"pqleval/pkg/iterator"
	"pqleval/pkg/iterator/itertest"
	"pqleval/pkg/plan"
)

// ============================================================================
// Helpers
// ============================================================================

func newCtx(mode execution.Mode) *execution.Context {
	return execution.NewContext(context.Background(), mode, nil, nil)
}

func i32(v int32) datum.Datum { return datum.Int32(v) }

// values drains it and returns the value bound to name in every row, in order.
func values(t *testing.T, it iterator.RowIterator, name string) []datum.Datum {
	t.Helper()
	rows, err := iterator.Drain(it, nil)
	require.NoError(t, err)
	out := make([]datum.Datum, len(rows))
	for i, r := range rows {
		v, ok := r.Get(name)
		require.True(t, ok, "row %d has no %s", i, name)
		out[i] = v
	}
	return out
}

func assertValues(t *testing.T, expected []datum.Datum, actual []datum.Datum) {
	t.Helper()
	datumtest.AssertIdentical(t, datum.List(expected...), datum.List(actual...))
}

func field(ctx *execution.Context, v, name string) execution.Expr {
	return expr.NewFieldAccess(ctx, expr.NewVariable(v), name, false)
}

// ============================================================================
// Filter
// ============================================================================

func TestFilterKeepsOnlyTrue(t *testing.T) {
	ctx := newCtx(execution.Strict)
	child := itertest.Single("x", i32(1), i32(5), datum.Null(), datum.Missing(), i32(7))
	pred := expr.NewComparison(ctx, plan.OpGt, expr.NewVariable("x"), expr.NewLiteral(i32(3)))

	f, err := NewFilter(ctx, child, pred)
	require.NoError(t, err)
	assertValues(t, []datum.Datum{i32(5), i32(7)}, values(t, f, "x"))
}

func TestFilterNonBoolean(t *testing.T) {
	newFilter := func(mode execution.Mode) *Filter {
		f, err := NewFilter(newCtx(mode), itertest.Single("x", i32(1), i32(2)), expr.NewVariable("x"))
		require.NoError(t, err)
		return f
	}

	assert.Empty(t, values(t, newFilter(execution.Permissive), "x"))

	_, err := iterator.Drain(newFilter(execution.Strict), nil)
	require.Error(t, err)
	assert.True(t, evalerr.IsKind(err, evalerr.KindTypeMismatch))
}

func TestFilterSeesOuterScope(t *testing.T) {
	ctx := newCtx(execution.Strict)
	pred := expr.NewComparison(ctx, plan.OpEq, expr.NewVariable("x"), expr.NewVariable("outer"))
	f, err := NewFilter(ctx, itertest.Single("x", i32(1), i32(2), i32(1)), pred)
	require.NoError(t, err)

	outer := env.Root().Push(env.NewRow(env.Binding{Name: "outer", Value: i32(1)}))
	rows, err := iterator.Drain(f, outer)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestFilterValidation(t *testing.T) {
	_, err := NewFilter(newCtx(execution.Strict), itertest.Single("x"), nil)
	assert.Error(t, err)
	_, err = NewFilter(newCtx(execution.Strict), nil, expr.NewLiteral(datum.Bool(true)))
	assert.Error(t, err)
}

// ============================================================================
// Sort
// ============================================================================

func TestSortDirectionsAndNulls(t *testing.T) {
	input := []datum.Datum{i32(2), datum.Null(), i32(1), datum.Missing(), i32(3)}

	tests := []struct {
		name       string
		desc       bool
		nullsFirst bool
		expected   []datum.Datum
	}{
		{"asc nulls last", false, false, []datum.Datum{i32(1), i32(2), i32(3), datum.Missing(), datum.Null()}},
		{"asc nulls first", false, true, []datum.Datum{datum.Missing(), datum.Null(), i32(1), i32(2), i32(3)}},
		{"desc nulls first", true, true, []datum.Datum{datum.Missing(), datum.Null(), i32(3), i32(2), i32(1)}},
		{"desc nulls last", true, false, []datum.Datum{i32(3), i32(2), i32(1), datum.Missing(), datum.Null()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSort(itertest.Single("x", input...), []SortKey{
				{Expr: expr.NewVariable("x"), Desc: tt.desc, NullsFirst: tt.nullsFirst},
			})
			require.NoError(t, err)
			assertValues(t, tt.expected, values(t, s, "x"))
		})
	}
}

func TestSortMultiKeyStable(t *testing.T) {
	ctx := newCtx(execution.Strict)
	rows := []datum.Datum{
		datumtest.Row("a", i32(1), "b", datum.String("z"), "id", i32(0)),
		datumtest.Row("a", i32(0), "b", datum.String("y"), "id", i32(1)),
		datumtest.Row("a", i32(1), "b", datum.String("x"), "id", i32(2)),
		datumtest.Row("a", i32(1), "b", datum.String("x"), "id", i32(3)),
	}
	s, err := NewSort(itertest.Single("t", rows...), []SortKey{
		{Expr: field(ctx, "t", "a"), Desc: true, NullsFirst: true},
		{Expr: field(ctx, "t", "b")},
	})
	require.NoError(t, err)

	got := values(t, s, "t")
	ids := make([]datum.Datum, len(got))
	for i, r := range got {
		ids[i], _ = r.Get("id")
	}
	assertValues(t, []datum.Datum{i32(2), i32(3), i32(0), i32(1)}, ids)
}

func TestSortReopenResorts(t *testing.T) {
	child := itertest.Single("x", i32(2), i32(1))
	s, err := NewSort(child, []SortKey{{Expr: expr.NewVariable("x")}})
	require.NoError(t, err)

	assertValues(t, []datum.Datum{i32(1), i32(2)}, values(t, s, "x"))
	assertValues(t, []datum.Datum{i32(1), i32(2)}, values(t, s, "x"))
	assert.Equal(t, 2, child.Opens)
}

func TestSortKeyError(t *testing.T) {
	ctx := newCtx(execution.Strict)
	div, err := expr.NewArithmetic(ctx, plan.OpDiv, expr.NewLiteral(i32(1)), expr.NewVariable("x"))
	require.NoError(t, err)

	s, err := NewSort(itertest.Single("x", i32(1), i32(0)), []SortKey{{Expr: div}})
	require.NoError(t, err)
	_, err = iterator.Drain(s, nil)
	require.Error(t, err)
	assert.True(t, evalerr.IsKind(err, evalerr.KindDivisionByZero))
}

func TestSortRequiresKeys(t *testing.T) {
	_, err := NewSort(itertest.Single("x"), nil)
	assert.Error(t, err)
}

// ============================================================================
// Limit and Offset
// ============================================================================

func TestLimitOffset(t *testing.T) {
	newChild := func() *itertest.MockIterator {
		return itertest.Single("x", i32(1), i32(2), i32(3), i32(4))
	}

	tests := []struct {
		name     string
		build    func(iterator.RowIterator) (iterator.RowIterator, error)
		expected []datum.Datum
	}{
		{
			name: "limit",
			build: func(c iterator.RowIterator) (iterator.RowIterator, error) {
				return NewLimit(newCtx(execution.Strict), c, expr.NewLiteral(i32(2)))
			},
			expected: []datum.Datum{i32(1), i32(2)},
		},
		{
			name: "limit zero",
			build: func(c iterator.RowIterator) (iterator.RowIterator, error) {
				return NewLimit(newCtx(execution.Strict), c, expr.NewLiteral(datum.Int64(0)))
			},
			expected: []datum.Datum{},
		},
		{
			name: "limit beyond input",
			build: func(c iterator.RowIterator) (iterator.RowIterator, error) {
				return NewLimit(newCtx(execution.Strict), c, expr.NewLiteral(i32(10)))
			},
			expected: []datum.Datum{i32(1), i32(2), i32(3), i32(4)},
		},
		{
			name: "null limit is unbounded",
			build: func(c iterator.RowIterator) (iterator.RowIterator, error) {
				return NewLimit(newCtx(execution.Strict), c, expr.NewLiteral(datum.Null()))
			},
			expected: []datum.Datum{i32(1), i32(2), i32(3), i32(4)},
		},
		{
			name: "offset",
			build: func(c iterator.RowIterator) (iterator.RowIterator, error) {
				return NewOffset(newCtx(execution.Strict), c, expr.NewLiteral(i32(3)))
			},
			expected: []datum.Datum{i32(4)},
		},
		{
			name: "offset beyond input",
			build: func(c iterator.RowIterator) (iterator.RowIterator, error) {
				return NewOffset(newCtx(execution.Strict), c, expr.NewLiteral(i32(9)))
			},
			expected: []datum.Datum{},
		},
		{
			name: "limit over offset",
			build: func(c iterator.RowIterator) (iterator.RowIterator, error) {
				off, err := NewOffset(newCtx(execution.Strict), c, expr.NewLiteral(i32(1)))
				if err != nil {
					return nil, err
				}
				return NewLimit(newCtx(execution.Strict), off, expr.NewLiteral(i32(2)))
			},
			expected: []datum.Datum{i32(2), i32(3)},
		},
		{
			name: "permissive negative limit is unbounded",
			build: func(c iterator.RowIterator) (iterator.RowIterator, error) {
				return NewLimit(newCtx(execution.Permissive), c, expr.NewLiteral(i32(-1)))
			},
			expected: []datum.Datum{i32(1), i32(2), i32(3), i32(4)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := tt.build(newChild())
			require.NoError(t, err)
			assertValues(t, tt.expected, values(t, it, "x"))
		})
	}
}

func TestLimitStrictBadCount(t *testing.T) {
	for _, count := range []datum.Datum{i32(-1), datum.String("2")} {
		l, err := NewLimit(newCtx(execution.Strict), itertest.Single("x", i32(1)), expr.NewLiteral(count))
		require.NoError(t, err)
		_, err = iterator.Drain(l, nil)
		require.Error(t, err, "count %s", count)
		assert.True(t, evalerr.IsKind(err, evalerr.KindTypeMismatch))
	}
}

func TestLimitReopenResets(t *testing.T) {
	l, err := NewLimit(newCtx(execution.Strict), itertest.Single("x", i32(1), i32(2)), expr.NewLiteral(i32(1)))
	require.NoError(t, err)
	assert.Len(t, values(t, l, "x"), 1)
	assert.Len(t, values(t, l, "x"), 1)
}

func TestLimitChildOpenError(t *testing.T) {
	child := itertest.Single("x", i32(1))
	child.OpenErr = errors.New("boom")
	l, err := NewLimit(newCtx(execution.Strict), child, expr.NewLiteral(i32(1)))
	require.NoError(t, err)
	_, err = iterator.Drain(l, nil)
	assert.ErrorIs(t, err, child.OpenErr)
}

// ============================================================================
// Exclude
// ============================================================================

func TestExcludePaths(t *testing.T) {
	nested := datumtest.Row(
		"a", i32(1),
		"b", datumtest.Row("c", i32(2), "d", i32(3)),
		"l", datum.List(
			datumtest.Row("x", i32(1), "y", i32(2)),
			datumtest.Row("x", i32(3), "y", i32(4)),
		),
		"g", datum.Bag(datumtest.Row("x", i32(5), "y", i32(6))),
	)

	tests := []struct {
		name     string
		steps    []plan.ExcludeStep
		expected datum.Datum
	}{
		{
			name:  "top-level field",
			steps: []plan.ExcludeStep{{Kind: plan.StepField, Name: "a"}},
			expected: datumtest.Row(
				"b", datumtest.Row("c", i32(2), "d", i32(3)),
				"l", nested.Fields()[2].Value,
				"g", nested.Fields()[3].Value,
			),
		},
		{
			name:  "nested field",
			steps: []plan.ExcludeStep{{Kind: plan.StepField, Name: "b"}, {Kind: plan.StepField, Name: "c"}},
			expected: datumtest.Row(
				"a", i32(1),
				"b", datumtest.Row("d", i32(3)),
				"l", nested.Fields()[2].Value,
				"g", nested.Fields()[3].Value,
			),
		},
		{
			name:  "field wildcard",
			steps: []plan.ExcludeStep{{Kind: plan.StepField, Name: "b"}, {Kind: plan.StepFieldWildcard}},
			expected: datumtest.Row(
				"a", i32(1),
				"b", datum.Struct(),
				"l", nested.Fields()[2].Value,
				"g", nested.Fields()[3].Value,
			),
		},
		{
			name:  "list index",
			steps: []plan.ExcludeStep{{Kind: plan.StepField, Name: "l"}, {Kind: plan.StepIndex, Index: 0}},
			expected: datumtest.Row(
				"a", i32(1),
				"b", datumtest.Row("c", i32(2), "d", i32(3)),
				"l", datum.List(datumtest.Row("x", i32(3), "y", i32(4))),
				"g", nested.Fields()[3].Value,
			),
		},
		{
			name: "field under every list element",
			steps: []plan.ExcludeStep{
				{Kind: plan.StepField, Name: "l"}, {Kind: plan.StepIndexWildcard}, {Kind: plan.StepField, Name: "x"},
			},
			expected: datumtest.Row(
				"a", i32(1),
				"b", datumtest.Row("c", i32(2), "d", i32(3)),
				"l", datum.List(datumtest.Row("y", i32(2)), datumtest.Row("y", i32(4))),
				"g", nested.Fields()[3].Value,
			),
		},
		{
			name: "bag elements",
			steps: []plan.ExcludeStep{
				{Kind: plan.StepField, Name: "g"}, {Kind: plan.StepIndexWildcard}, {Kind: plan.StepField, Name: "y"},
			},
			expected: datumtest.Row(
				"a", i32(1),
				"b", datumtest.Row("c", i32(2), "d", i32(3)),
				"l", nested.Fields()[2].Value,
				"g", datum.Bag(datumtest.Row("x", i32(5))),
			),
		},
		{
			name:     "missing path is a no-op",
			steps:    []plan.ExcludeStep{{Kind: plan.StepField, Name: "zz"}, {Kind: plan.StepIndex, Index: 4}},
			expected: nested,
		},
		{
			name:     "index on a struct is a no-op",
			steps:    []plan.ExcludeStep{{Kind: plan.StepIndex, Index: 0}},
			expected: nested,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewExclude(itertest.Single("t", nested), []plan.ExcludePath{{Root: "t", Steps: tt.steps}})
			require.NoError(t, err)
			got := values(t, e, "t")
			require.Len(t, got, 1)
			datumtest.AssertIdentical(t, tt.expected, got[0])
		})
	}
}

func TestExcludeWholeBinding(t *testing.T) {
	child := itertest.New(env.Schema{"t", "s"}, []datum.Datum{i32(1), i32(2)})
	e, err := NewExclude(child, []plan.ExcludePath{{Root: "t"}, {Root: "unknown"}})
	require.NoError(t, err)

	rows, err := iterator.Drain(e, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	datumtest.AssertIdentical(t, datumtest.Row("s", i32(2)), rows[0].Struct())
}

func TestExcludeDoesNotMutateInput(t *testing.T) {
	original := datumtest.Row("a", i32(1), "b", i32(2))
	child := itertest.Single("t", original)
	e, err := NewExclude(child, []plan.ExcludePath{{Root: "t", Steps: []plan.ExcludeStep{{Kind: plan.StepField, Name: "a"}}}})
	require.NoError(t, err)

	_ = values(t, e, "t")
	datumtest.AssertIdentical(t, datumtest.Row("a", i32(1), "b", i32(2)), original)
}

func TestExcludeResolvesEveryPathAgainstTheInputRow(t *testing.T) {
	field := func(name string) plan.ExcludeStep { return plan.ExcludeStep{Kind: plan.StepField, Name: name} }
	index := func(i int64) plan.ExcludeStep { return plan.ExcludeStep{Kind: plan.StepIndex, Index: i} }

	row := datumtest.Row(
		"a", datum.List(i32(10), i32(20), i32(30)),
		"b", datum.List(datumtest.Row("x", i32(1), "y", i32(2)), datumtest.Row("x", i32(3), "y", i32(4))),
	)

	tests := []struct {
		name     string
		paths    [][]plan.ExcludeStep
		expected datum.Datum
	}{
		{
			name:     "two positions of one list",
			paths:    [][]plan.ExcludeStep{{field("a"), index(0)}, {field("a"), index(1)}},
			expected: datumtest.Row("a", datum.List(i32(30)), "b", row.Fields()[1].Value),
		},
		{
			name:     "positions in either order",
			paths:    [][]plan.ExcludeStep{{field("a"), index(2)}, {field("a"), index(0)}},
			expected: datumtest.Row("a", datum.List(i32(20)), "b", row.Fields()[1].Value),
		},
		{
			name:  "field inside an element next to a removed element",
			paths: [][]plan.ExcludeStep{{field("b"), index(0)}, {field("b"), index(1), field("x")}},
			expected: datumtest.Row(
				"a", row.Fields()[0].Value,
				"b", datum.List(datumtest.Row("y", i32(4))),
			),
		},
		{
			name:  "whole list and one of its positions",
			paths: [][]plan.ExcludeStep{{field("a"), index(1)}, {field("a")}},
			expected: datumtest.Row(
				"b", row.Fields()[1].Value,
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := make([]plan.ExcludePath, len(tt.paths))
			for i, steps := range tt.paths {
				paths[i] = plan.ExcludePath{Root: "t", Steps: steps}
			}
			e, err := NewExclude(itertest.Single("t", row), paths)
			require.NoError(t, err)

			got := values(t, e, "t")
			require.Len(t, got, 1)
			datumtest.AssertIdentical(t, tt.expected, got[0])
		})
	}
}
