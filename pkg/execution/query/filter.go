// Package query implements the row-at-a-time relational operators that sit
// between FROM and the projection: Filter, Sort, Limit/Offset and Exclude.
package query

import (
	"fmt"

	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
	"pqleval/pkg/iterator"
)

// Filter passes through the rows for which its predicate is TRUE. NULL and
// MISSING drop the row. A predicate that yields any other kind is a
// TypeMismatch; under PERMISSIVE the row is dropped.
type Filter struct {
	*iterator.UnaryOperator
	ctx       *execution.Context
	predicate execution.Expr
}

// NewFilter creates a new Filter over child.
func NewFilter(ctx *execution.Context, child iterator.RowIterator, predicate execution.Expr) (*Filter, error) {
	if predicate == nil {
		return nil, fmt.Errorf("predicate cannot be nil")
	}

	f := &Filter{ctx: ctx, predicate: predicate}
	op, err := iterator.NewUnaryOperator(child, f.readNext)
	if err != nil {
		return nil, err
	}
	f.UnaryOperator = op
	return f, nil
}

// readNext pulls rows from the child until one satisfies the predicate or
// the input ends.
func (f *Filter) readNext() (*env.Row, error) {
	for {
		row, err := f.FetchNext()
		if err != nil || row == nil {
			return row, err
		}

		passes, err := f.test(row)
		if err != nil {
			return nil, fmt.Errorf("predicate evaluation failed: %w", err)
		}
		if passes {
			return row, nil
		}
	}
}

func (f *Filter) test(row *env.Row) (bool, error) {
	v, err := f.predicate.Eval(f.Scope(row))
	if err != nil {
		return false, err
	}
	switch {
	case v.Kind() == datum.KindBool:
		return v.AsBool(), nil
	case v.IsAbsent():
		return false, nil
	default:
		_, err := f.ctx.Fail(evalerr.TypeMismatch("WHERE condition must be a boolean, got %s", v.Kind()).WithOperation("filter"))
		return false, err
	}
}
