package aggregation

import (
	"fmt"

	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	"pqleval/pkg/execution"
	"pqleval/pkg/iterator"
	"pqleval/pkg/plan"
)

// Key is one GROUP BY expression and the name its value is bound to.
type Key struct {
	Name string
	Expr execution.Expr
}

// Call is one aggregate computed per group. Arg is nil for COUNT(*).
type Call struct {
	Name     string
	Fn       plan.AggFunc
	Distinct bool
	Arg      execution.Expr
}

// group is the accumulated state of one group.
type group struct {
	keys    []datum.Datum
	calcs   []Calculator
	failed  []bool
	members []datum.Datum
}

// AggregateOperator groups its input by a key tuple and emits one row per
// group: the keys, then the aggregate results, then the GROUP AS bag.
//
// Implementation:
//   - Hash-groups the whole input on the first read (blocking operator)
//   - Missing keys are grouped as NULL, and NULL keys group together
//   - Groups are emitted in order of first appearance
//   - Without keys exactly one group is emitted, even for empty input
type AggregateOperator struct {
	*iterator.UnaryOperator
	ctx     *execution.Context
	keys    []Key
	calls   []Call
	groupAs string

	groups       *iterator.SliceIterator[*group]
	materialized bool
}

// NewAggregateOperator creates an aggregation over child. groupAs may be empty.
func NewAggregateOperator(ctx *execution.Context, child iterator.RowIterator, keys []Key, calls []Call, groupAs string) (*AggregateOperator, error) {
	if ctx == nil {
		return nil, fmt.Errorf("execution context cannot be nil")
	}
	for _, c := range calls {
		if _, err := NewCalculator(c.Fn, c.Distinct); err != nil {
			return nil, err
		}
		if c.Arg == nil && c.Fn != plan.AggCountStar {
			return nil, fmt.Errorf("aggregate %s requires an argument", c.Fn)
		}
	}

	agg := &AggregateOperator{ctx: ctx, keys: keys, calls: calls, groupAs: groupAs}
	op, err := iterator.NewUnaryOperator(child, agg.readNext)
	if err != nil {
		return nil, err
	}
	agg.UnaryOperator = op
	return agg, nil
}

// Open opens the child and discards the groups of any previous run.
func (agg *AggregateOperator) Open(parent *env.Env) error {
	if err := agg.UnaryOperator.Open(parent); err != nil {
		return err
	}
	agg.groups = nil
	agg.materialized = false
	return nil
}

func (agg *AggregateOperator) Close() error {
	agg.groups = nil
	agg.materialized = false
	return agg.UnaryOperator.Close()
}

// Schema returns the key names, the call names and the GROUP AS name.
func (agg *AggregateOperator) Schema() env.Schema {
	out := make(env.Schema, 0, len(agg.keys)+len(agg.calls)+1)
	for _, k := range agg.keys {
		out = append(out, k.Name)
	}
	for _, c := range agg.calls {
		out = append(out, c.Name)
	}
	if agg.groupAs != "" {
		out = append(out, agg.groupAs)
	}
	return out
}

func (agg *AggregateOperator) readNext() (*env.Row, error) {
	if !agg.materialized {
		if err := agg.materialize(); err != nil {
			return nil, err
		}
	}

	g, ok := agg.groups.ReadNext()
	if !ok {
		return nil, nil
	}
	return agg.emit(g)
}

func (agg *AggregateOperator) newGroup(keys []datum.Datum) *group {
	g := &group{
		keys:   keys,
		calcs:  make([]Calculator, len(agg.calls)),
		failed: make([]bool, len(agg.calls)),
	}
	for i, c := range agg.calls {
		// validated in the constructor
		g.calcs[i], _ = NewCalculator(c.Fn, c.Distinct)
	}
	return g
}

// materialize reads the whole input into groups.
func (agg *AggregateOperator) materialize() error {
	index := datum.NewMap[*group]()
	var ordered []*group

	err := iterator.ForEach(agg.GetChild(), func(row *env.Row) error {
		scope := agg.Scope(row)

		keys := make([]datum.Datum, len(agg.keys))
		for i, k := range agg.keys {
			v, err := k.Expr.Eval(scope)
			if err != nil {
				return err
			}
			if v.IsMissing() {
				v = datum.Null()
			}
			keys[i] = v
		}

		tuple := datum.List(keys...)
		g, ok := index.Get(tuple)
		if !ok {
			g = agg.newGroup(keys)
			index.Put(tuple, g)
			ordered = append(ordered, g)
		}
		return agg.accumulate(g, row, scope)
	})
	if err != nil {
		return fmt.Errorf("failed to aggregate input: %w", err)
	}

	if len(agg.keys) == 0 && len(ordered) == 0 {
		ordered = append(ordered, agg.newGroup(nil))
	}
	agg.groups = iterator.NewSliceIterator(ordered)
	agg.materialized = true
	return nil
}

// accumulate folds one member row into g. A call whose argument or update
// fails under PERMISSIVE yields MISSING for the group.
func (agg *AggregateOperator) accumulate(g *group, row *env.Row, scope *env.Env) error {
	for i, c := range agg.calls {
		if g.failed[i] {
			continue
		}
		v := datum.Missing()
		if c.Arg != nil {
			var err error
			if v, err = c.Arg.Eval(scope); err != nil {
				return err
			}
		}
		if err := g.calcs[i].Update(v); err != nil {
			if _, err := agg.ctx.Fail(err); err != nil {
				return err
			}
			g.failed[i] = true
		}
	}
	if agg.groupAs != "" {
		g.members = append(g.members, row.Struct())
	}
	return nil
}

// emit renders g as an output row.
func (agg *AggregateOperator) emit(g *group) (*env.Row, error) {
	bindings := make([]env.Binding, 0, len(agg.keys)+len(agg.calls)+1)
	for i, k := range agg.keys {
		bindings = append(bindings, env.Binding{Name: k.Name, Value: g.keys[i]})
	}
	for i, c := range agg.calls {
		v := datum.Missing()
		if !g.failed[i] {
			var err error
			if v, err = agg.ctx.Check(g.calcs[i].Final()); err != nil {
				return nil, err
			}
		}
		bindings = append(bindings, env.Binding{Name: c.Name, Value: v})
	}
	if agg.groupAs != "" {
		bindings = append(bindings, env.Binding{Name: agg.groupAs, Value: datum.Collect(g.members, false)})
	}
	return env.NewRow(bindings...), nil
}
