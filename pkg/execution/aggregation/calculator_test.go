package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pqleval/pkg/datum"
	"pqleval/pkg/datum/datumtest"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/plan"
)

// ============================================================================
// Calculators
// ============================================================================

func TestCalculators(t *testing.T) {
	absent := []datum.Datum{datum.Null(), datum.Missing()}
	ints := []datum.Datum{datum.Int32(3), datum.Null(), datum.Int32(1), datum.Missing(), datum.Int32(3)}

	tests := []struct {
		name     string
		fn       plan.AggFunc
		distinct bool
		values   []datum.Datum
		want     datum.Datum
	}{
		{"count star counts absent rows", plan.AggCountStar, false, ints, datum.Int64(5)},
		{"count skips absent", plan.AggCount, false, ints, datum.Int64(3)},
		{"count distinct", plan.AggCount, true, ints, datum.Int64(2)},
		{"count empty", plan.AggCount, false, nil, datum.Int64(0)},
		{"sum widens", plan.AggSum, false, ints, datum.Int64(7)},
		{"sum distinct", plan.AggSum, true, ints, datum.Int64(4)},
		{"sum decimal", plan.AggSum, false, []datum.Datum{datum.Int32(1), datumtest.Dec("2.50")}, datumtest.Dec("3.50")},
		{"sum all absent", plan.AggSum, false, absent, datum.Null()},
		{"avg ints", plan.AggAvg, false, []datum.Datum{datum.Int32(1), datum.Int32(2)}, datumtest.Dec("1.500000")},
		{"avg empty", plan.AggAvg, false, nil, datum.Null()},
		{"min", plan.AggMin, false, ints, datum.Int32(1)},
		{"max strings", plan.AggMax, false, []datum.Datum{datum.String("a"), datum.String("c"), datum.String("b")}, datum.String("c")},
		{"max empty", plan.AggMax, false, absent, datum.Null()},
		{"every", plan.AggEvery, false, []datum.Datum{datum.Bool(true), datum.Null(), datum.Bool(false)}, datum.Bool(false)},
		{"every all true", plan.AggEvery, false, []datum.Datum{datum.Bool(true)}, datum.Bool(true)},
		{"any", plan.AggAny, false, []datum.Datum{datum.Bool(false), datum.Bool(true)}, datum.Bool(true)},
		{"any empty", plan.AggAny, false, nil, datum.Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.fn, tt.distinct, tt.values)
			require.NoError(t, err)
			datumtest.AssertIdentical(t, tt.want, got)
		})
	}
}

func TestCalculatorTypeErrors(t *testing.T) {
	tests := []struct {
		fn     plan.AggFunc
		values []datum.Datum
	}{
		{plan.AggSum, []datum.Datum{datum.String("x")}},
		{plan.AggAvg, []datum.Datum{datum.Bool(true)}},
		{plan.AggMin, []datum.Datum{datum.Int32(1), datum.String("x")}},
		{plan.AggEvery, []datum.Datum{datum.Int32(1)}},
		{plan.AggAny, []datum.Datum{datum.String("t")}},
	}

	for _, tt := range tests {
		t.Run(tt.fn.String(), func(t *testing.T) {
			_, err := Aggregate(tt.fn, false, tt.values)
			require.Error(t, err)
			assert.True(t, evalerr.IsKind(err, evalerr.KindTypeMismatch), err.Error())
		})
	}
}

func TestSumOverflow(t *testing.T) {
	_, err := Aggregate(plan.AggSum, false, []datum.Datum{datum.Int64(1 << 62), datum.Int64(1 << 62)})
	require.Error(t, err)
	assert.True(t, evalerr.IsKind(err, evalerr.KindOverflow))
}
