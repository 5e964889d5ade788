package aggregation

import (
	"fmt"

	"pqleval/pkg/datum"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/plan"
)

// Calculator accumulates one aggregate function over the values of a single
// group. Absent values (NULL and MISSING) are skipped by every function except
// COUNT(*), which counts rows.
type Calculator interface {
	// Update folds one value into the aggregate.
	Update(v datum.Datum) error

	// Final returns the aggregate of everything seen so far.
	Final() (datum.Datum, error)
}

// NewCalculator returns a fresh calculator for fn. With distinct set, equal
// values are folded in only once.
func NewCalculator(fn plan.AggFunc, distinct bool) (Calculator, error) {
	var c Calculator
	switch fn {
	case plan.AggCountStar:
		return &countCalculator{countAbsent: true}, nil
	case plan.AggCount:
		c = &countCalculator{}
	case plan.AggSum:
		c = &sumCalculator{}
	case plan.AggAvg:
		c = &avgCalculator{}
	case plan.AggMin:
		c = &extremeCalculator{want: -1, name: "MIN"}
	case plan.AggMax:
		c = &extremeCalculator{want: 1, name: "MAX"}
	case plan.AggEvery:
		c = &booleanCalculator{every: true}
	case plan.AggAny:
		c = &booleanCalculator{}
	default:
		return nil, fmt.Errorf("unsupported aggregate function: %v", fn)
	}
	if distinct {
		return &distinctCalculator{inner: c, seen: datum.NewSet()}, nil
	}
	return c, nil
}

// countCalculator implements COUNT and COUNT(*).
type countCalculator struct {
	count       int64
	countAbsent bool
}

func (c *countCalculator) Update(v datum.Datum) error {
	if c.countAbsent || !v.IsAbsent() {
		c.count++
	}
	return nil
}

func (c *countCalculator) Final() (datum.Datum, error) {
	return datum.Int64(c.count), nil
}

// sumCalculator implements SUM. Integer sums are carried as BIGINT; a decimal
// input switches the running sum to decimal arithmetic.
type sumCalculator struct {
	sum  datum.Datum
	seen bool
}

func (c *sumCalculator) Update(v datum.Datum) error {
	if v.IsAbsent() {
		return nil
	}
	if !v.IsNumber() {
		return evalerr.TypeMismatch("SUM not defined for %s", v.Kind()).WithOperation("SUM")
	}
	if v.Kind() == datum.KindInt32 {
		v = datum.Int64(v.AsInt64())
	}
	if !c.seen {
		c.sum, c.seen = v, true
		return nil
	}
	next, err := datum.Arith(datum.OpAdd, c.sum, v)
	if err != nil {
		return evalerr.Wrap(err, evalerr.KindOverflow, "SUM", "aggregation")
	}
	c.sum = next
	return nil
}

func (c *sumCalculator) Final() (datum.Datum, error) {
	if !c.seen {
		return datum.Null(), nil
	}
	return c.sum, nil
}

// avgCalculator implements AVG as a decimal quotient of the running sum.
type avgCalculator struct {
	sum   sumCalculator
	count int64
}

func (c *avgCalculator) Update(v datum.Datum) error {
	if v.IsAbsent() {
		return nil
	}
	if err := c.sum.Update(v); err != nil {
		return evalerr.Wrap(err, evalerr.KindTypeMismatch, "AVG", "aggregation")
	}
	c.count++
	return nil
}

func (c *avgCalculator) Final() (datum.Datum, error) {
	if c.count == 0 {
		return datum.Null(), nil
	}
	total, err := datum.NewDecimal(c.sum.sum.AsDecimal(), 0)
	if err != nil {
		return datum.Missing(), err
	}
	return datum.Arith(datum.OpDiv, total, datum.Int64(c.count))
}

// extremeCalculator implements MIN (want -1) and MAX (want 1) over the total
// order. Values that cannot be ordered against the current extreme are a
// TypeMismatch.
type extremeCalculator struct {
	best datum.Datum
	seen bool
	want int
	name string
}

func (c *extremeCalculator) Update(v datum.Datum) error {
	if v.IsAbsent() {
		return nil
	}
	if !c.seen {
		c.best, c.seen = v, true
		return nil
	}
	if !datum.Comparable(c.best, v) {
		return evalerr.TypeMismatch("%s cannot compare %s with %s", c.name, c.best.Kind(), v.Kind()).WithOperation(c.name)
	}
	if datum.Compare(v, c.best)*c.want > 0 {
		c.best = v
	}
	return nil
}

func (c *extremeCalculator) Final() (datum.Datum, error) {
	if !c.seen {
		return datum.Null(), nil
	}
	return c.best, nil
}

// booleanCalculator implements EVERY (every) and ANY/SOME.
type booleanCalculator struct {
	every  bool
	result bool
	seen   bool
}

func (c *booleanCalculator) Update(v datum.Datum) error {
	if v.IsAbsent() {
		return nil
	}
	if v.Kind() != datum.KindBool {
		name := "ANY"
		if c.every {
			name = "EVERY"
		}
		return evalerr.TypeMismatch("%s not defined for %s", name, v.Kind()).WithOperation(name)
	}
	if !c.seen {
		c.result, c.seen = v.AsBool(), true
		return nil
	}
	if c.every {
		c.result = c.result && v.AsBool()
	} else {
		c.result = c.result || v.AsBool()
	}
	return nil
}

func (c *booleanCalculator) Final() (datum.Datum, error) {
	if !c.seen {
		return datum.Null(), nil
	}
	return datum.Bool(c.result), nil
}

// distinctCalculator forwards each distinct present value once.
type distinctCalculator struct {
	inner Calculator
	seen  *datum.Set
}

func (c *distinctCalculator) Update(v datum.Datum) error {
	if v.IsAbsent() || !c.seen.Add(v) {
		return nil
	}
	return c.inner.Update(v)
}

func (c *distinctCalculator) Final() (datum.Datum, error) {
	return c.inner.Final()
}

// Aggregate folds values through a fresh calculator for fn. It is the
// collection form of an aggregate (COLL_SUM and friends).
func Aggregate(fn plan.AggFunc, distinct bool, values []datum.Datum) (datum.Datum, error) {
	c, err := NewCalculator(fn, distinct)
	if err != nil {
		return datum.Missing(), err
	}
	for _, v := range values {
		if err := c.Update(v); err != nil {
			return datum.Missing(), err
		}
	}
	return c.Final()
}
