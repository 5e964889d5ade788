package scan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pqleval/pkg/datum"
	"pqleval/pkg/datum/datumtest"
	"pqleval/pkg/env"
	"pqleval/pkg/execution"
	"pqleval/pkg/execution/expr"
	"pqleval/pkg/iterator"
)

// rows drains it under parent and renders every row as a struct.
func rows(t *testing.T, it iterator.RowIterator, parent *env.Env) []datum.Datum {
	t.Helper()
	out, err := iterator.Drain(it, parent)
	require.NoError(t, err)
	structs := make([]datum.Datum, len(out))
	for i, r := range out {
		structs[i] = r.Struct()
	}
	return structs
}

// ============================================================================
// Scan
// ============================================================================

func TestNewScanValidation(t *testing.T) {
	_, err := NewScan(nil, "x", "")
	assert.Error(t, err)
	_, err = NewScan(expr.NewLiteral(datum.Bag()), "", "")
	assert.Error(t, err)
}

func TestScanCoercesSource(t *testing.T) {
	tests := []struct {
		name   string
		source datum.Datum
		want   []datum.Datum
	}{
		{
			name:   "list binds positions",
			source: datum.List(datum.String("a"), datum.String("b")),
			want: []datum.Datum{
				datumtest.Row("v", datum.String("a"), "i", datum.Int64(0)),
				datumtest.Row("v", datum.String("b"), "i", datum.Int64(1)),
			},
		},
		{
			name:   "bag has no positions",
			source: datum.Bag(datum.Int32(5)),
			want:   []datum.Datum{datumtest.Row("v", datum.Int32(5), "i", datum.Missing())},
		},
		{
			name:   "scalar is one row",
			source: datum.Int32(0),
			want:   []datum.Datum{datumtest.Row("v", datum.Int32(0), "i", datum.Missing())},
		},
		{
			name:   "struct is one row",
			source: datumtest.Row("a", datum.Int32(1)),
			want:   []datum.Datum{datumtest.Row("v", datumtest.Row("a", datum.Int32(1)), "i", datum.Missing())},
		},
		{
			name:   "null is one row",
			source: datum.Null(),
			want:   []datum.Datum{datumtest.Row("v", datum.Null(), "i", datum.Missing())},
		},
		{
			name:   "missing is empty",
			source: datum.Missing(),
			want:   []datum.Datum{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScan(expr.NewLiteral(tt.source), "v", "i")
			require.NoError(t, err)
			assert.Equal(t, env.Schema{"v", "i"}, s.Schema())

			got := rows(t, s, nil)
			require.Len(t, got, len(tt.want))
			for i := range got {
				datumtest.AssertIdentical(t, tt.want[i], got[i])
			}
		})
	}
}

func TestScanIsLateral(t *testing.T) {
	s, err := NewScan(expr.NewVariable("outer"), "x", "")
	require.NoError(t, err)

	for _, n := range []int32{1, 3} {
		elems := make([]datum.Datum, n)
		for i := range elems {
			elems[i] = datum.Int32(int32(i))
		}
		parent := env.Root().Push(env.NewRow(env.Binding{Name: "outer", Value: datum.Bag(elems...)}))
		assert.Len(t, rows(t, s, parent), int(n), "re-opening re-evaluates the source")
	}
}

func TestScanSourceErrorFailsOpen(t *testing.T) {
	boom := execution.ExprFunc(func(*env.Env) (datum.Datum, error) {
		return datum.Missing(), fmt.Errorf("boom")
	})
	s, err := NewScan(boom, "x", "")
	require.NoError(t, err)
	assert.EqualError(t, s.Open(nil), "boom")

	_, err = s.HasNext()
	assert.Error(t, err, "a scan that failed to open is not readable")
}

// ============================================================================
// Unpivot
// ============================================================================

func TestUnpivot(t *testing.T) {
	u, err := NewUnpivot(expr.NewLiteral(datumtest.Row("a", datum.Int32(1), "b", datum.Null())), "v", "k")
	require.NoError(t, err)

	got := rows(t, u, nil)
	require.Len(t, got, 2)
	datumtest.AssertIdentical(t, datumtest.Row("v", datum.Int32(1), "k", datum.String("a")), got[0])
	datumtest.AssertIdentical(t, datumtest.Row("v", datum.Null(), "k", datum.String("b")), got[1])
}

func TestUnpivotNonStruct(t *testing.T) {
	u, err := NewUnpivot(expr.NewLiteral(datum.Int32(7)), "v", "k")
	require.NoError(t, err)
	got := rows(t, u, nil)
	require.Len(t, got, 1)
	datumtest.AssertIdentical(t, datumtest.Row("v", datum.Int32(7), "k", datum.String("_1")), got[0])

	u, err = NewUnpivot(expr.NewLiteral(datum.Missing()), "v", "")
	require.NoError(t, err)
	assert.Empty(t, rows(t, u, nil))
	assert.Equal(t, env.Schema{"v"}, u.Schema())
}
