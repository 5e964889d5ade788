package aggregation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pqleval/pkg/datum"
	"pqleval/pkg/datum/datumtest"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
	"pqleval/pkg/execution/aggregation"
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

func field(ctx *execution.Context, name string) execution.Expr {
	return expr.NewFieldAccess(ctx, expr.NewVariable("t"), name, false)
}

// drainBag runs it and returns its rows as a bag of structs.
func drainBag(t *testing.T, it iterator.RowIterator) datum.Datum {
	t.Helper()
	rows, err := iterator.Drain(it, nil)
	require.NoError(t, err)
	out := make([]datum.Datum, len(rows))
	for i, r := range rows {
		out[i] = r.Struct()
	}
	return datum.Bag(out...)
}

func sales() *itertest.MockIterator {
	return itertest.Single("t",
		datumtest.Row("region", datum.String("east"), "amount", datum.Int32(10)),
		datumtest.Row("region", datum.String("west"), "amount", datum.Int32(5)),
		datumtest.Row("region", datum.String("east"), "amount", datum.Int32(7)),
		datumtest.Row("amount", datum.Int32(1)),
		datumtest.Row("region", datum.Null(), "amount", datum.Null()),
	)
}

// ============================================================================
// Grouping
// ============================================================================

func TestGroupByWithCalls(t *testing.T) {
	ctx := newCtx(execution.Strict)
	agg, err := aggregation.NewAggregateOperator(ctx, sales(),
		[]aggregation.Key{{Name: "region", Expr: field(ctx, "region")}},
		[]aggregation.Call{
			{Name: "n", Fn: plan.AggCountStar},
			{Name: "total", Fn: plan.AggSum, Arg: field(ctx, "amount")},
		}, "")
	require.NoError(t, err)
	assert.Equal(t, env.Schema{"region", "n", "total"}, agg.Schema())

	want := datum.Bag(
		datumtest.Row("region", datum.String("east"), "n", datum.Int64(2), "total", datum.Int64(17)),
		datumtest.Row("region", datum.String("west"), "n", datum.Int64(1), "total", datum.Int64(5)),
		// MISSING and NULL keys share the NULL group.
		datumtest.Row("region", datum.Null(), "n", datum.Int64(2), "total", datum.Int64(1)),
	)
	datumtest.AssertIdentical(t, want, drainBag(t, agg))
}

func TestGroupsInFirstAppearanceOrder(t *testing.T) {
	ctx := newCtx(execution.Strict)
	agg, err := aggregation.NewAggregateOperator(ctx, sales(), []aggregation.Key{{Name: "r", Expr: field(ctx, "region")}}, nil, "")
	require.NoError(t, err)

	rows, err := iterator.Drain(agg, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	keys := make([]datum.Datum, len(rows))
	for i, r := range rows {
		keys[i], _ = r.Get("r")
	}
	datumtest.AssertIdentical(t, datum.List(datum.String("east"), datum.String("west"), datum.Null()), datum.List(keys...))
}

func TestGroupAs(t *testing.T) {
	ctx := newCtx(execution.Strict)
	child := itertest.New(env.Schema{"t", "u"},
		[]datum.Datum{datum.Int32(1), datum.String("a")},
		[]datum.Datum{datum.Int32(1), datum.String("b")},
	)
	agg, err := aggregation.NewAggregateOperator(ctx, child,
		[]aggregation.Key{{Name: "k", Expr: expr.NewVariable("t")}},
		[]aggregation.Call{{Name: "c", Fn: plan.AggCount, Arg: expr.NewVariable("u")}},
		"g")
	require.NoError(t, err)

	want := datum.Bag(datumtest.Row(
		"k", datum.Int32(1),
		"c", datum.Int64(2),
		"g", datum.Bag(
			datumtest.Row("t", datum.Int32(1), "u", datum.String("a")),
			datumtest.Row("t", datum.Int32(1), "u", datum.String("b")),
		),
	))
	datumtest.AssertIdentical(t, want, drainBag(t, agg))
}

// ============================================================================
// Global aggregation
// ============================================================================

func TestNoKeysEmptyInput(t *testing.T) {
	ctx := newCtx(execution.Strict)
	agg, err := aggregation.NewAggregateOperator(ctx, itertest.Single("t"), nil, []aggregation.Call{
		{Name: "n", Fn: plan.AggCountStar},
		{Name: "s", Fn: plan.AggSum, Arg: expr.NewVariable("t")},
		{Name: "e", Fn: plan.AggEvery, Arg: expr.NewVariable("t")},
	}, "g")
	require.NoError(t, err)

	want := datum.Bag(datumtest.Row(
		"n", datum.Int64(0),
		"s", datum.Null(),
		"e", datum.Null(),
		"g", datum.Bag(),
	))
	datumtest.AssertIdentical(t, want, drainBag(t, agg))
}

func TestKeysEmptyInput(t *testing.T) {
	ctx := newCtx(execution.Strict)
	agg, err := aggregation.NewAggregateOperator(ctx, itertest.Single("t"),
		[]aggregation.Key{{Name: "k", Expr: expr.NewVariable("t")}},
		[]aggregation.Call{{Name: "n", Fn: plan.AggCountStar}}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, drainBag(t, agg).Len())
}

func TestDistinctAndAvg(t *testing.T) {
	ctx := newCtx(execution.Strict)
	child := itertest.Single("t", datum.Int32(1), datum.Int32(1), datum.Int32(4))
	agg, err := aggregation.NewAggregateOperator(ctx, child, nil, []aggregation.Call{
		{Name: "cd", Fn: plan.AggCount, Distinct: true, Arg: expr.NewVariable("t")},
		{Name: "avg", Fn: plan.AggAvg, Arg: expr.NewVariable("t")},
		{Name: "max", Fn: plan.AggMax, Arg: expr.NewVariable("t")},
	}, "")
	require.NoError(t, err)

	want := datum.Bag(datumtest.Row(
		"cd", datum.Int64(2),
		"avg", datumtest.Dec("2.000000"),
		"max", datum.Int32(4),
	))
	datumtest.AssertIdentical(t, want, drainBag(t, agg))
}

// ============================================================================
// Typing modes
// ============================================================================

func TestAggregateTypeMismatch(t *testing.T) {
	newAgg := func(mode execution.Mode) *aggregation.AggregateOperator {
		agg, err := aggregation.NewAggregateOperator(newCtx(mode),
			itertest.Single("t", datum.Int32(1), datum.String("x")), nil,
			[]aggregation.Call{
				{Name: "s", Fn: plan.AggSum, Arg: expr.NewVariable("t")},
				{Name: "n", Fn: plan.AggCount, Arg: expr.NewVariable("t")},
			}, "")
		require.NoError(t, err)
		return agg
	}

	want := datum.Bag(datumtest.Row("s", datum.Missing(), "n", datum.Int64(2)))
	datumtest.AssertIdentical(t, want, drainBag(t, newAgg(execution.Permissive)))

	_, err := iterator.Drain(newAgg(execution.Strict), nil)
	require.Error(t, err)
	assert.True(t, evalerr.IsKind(err, evalerr.KindTypeMismatch))
}

// ============================================================================
// Lifecycle
// ============================================================================

func TestAggregateValidation(t *testing.T) {
	ctx := newCtx(execution.Strict)
	_, err := aggregation.NewAggregateOperator(nil, itertest.Single("t"), nil, nil, "")
	assert.Error(t, err)
	_, err = aggregation.NewAggregateOperator(ctx, nil, nil, nil, "")
	assert.Error(t, err)
	_, err = aggregation.NewAggregateOperator(ctx, itertest.Single("t"), nil, []aggregation.Call{{Name: "s", Fn: plan.AggSum}}, "")
	assert.Error(t, err)
}

func TestAggregateReopen(t *testing.T) {
	ctx := newCtx(execution.Strict)
	child := sales()
	agg, err := aggregation.NewAggregateOperator(ctx, child, nil, []aggregation.Call{{Name: "n", Fn: plan.AggCountStar}}, "")
	require.NoError(t, err)

	want := datum.Bag(datumtest.Row("n", datum.Int64(5)))
	datumtest.AssertIdentical(t, want, drainBag(t, agg))
	datumtest.AssertIdentical(t, want, drainBag(t, agg))
	assert.Equal(t, 2, child.Opens)
	assert.False(t, child.IsOpen())
}
