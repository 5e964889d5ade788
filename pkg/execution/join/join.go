// Package join implements the nested-loop join of FROM items.
//
// INNER and LEFT joins are lateral: the right input is re-opened for every
// left row under a scope holding that row, so it may reference the left
// bindings. RIGHT and FULL joins open the right input once, under a scope in
// which the left bindings are NULL, materialise it and track which right
// rows found a partner.
package join

import (
	"fmt"

	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
	"pqleval/pkg/iterator"
	"pqleval/pkg/plan"
)

// NestedLoopJoin joins two row streams on an optional condition. A pair
// matches only when the condition is TRUE; a nil condition matches every
// pair.
type NestedLoopJoin struct {
	*iterator.BinaryOperator
	ctx  *execution.Context
	kind plan.JoinKind
	on   execution.Expr

	leftRow     *env.Row
	leftMatched bool

	// Materialised right side of RIGHT and FULL joins.
	rightRows    []*env.Row
	rightMatched []bool
	rightLoaded  bool
	rightIdx     int
	draining     bool
}

// NewNestedLoopJoin creates a join of left and right. on may be nil.
func NewNestedLoopJoin(ctx *execution.Context, kind plan.JoinKind, left, right iterator.RowIterator, on execution.Expr) (*NestedLoopJoin, error) {
	if ctx == nil {
		return nil, fmt.Errorf("execution context cannot be nil")
	}

	j := &NestedLoopJoin{ctx: ctx, kind: kind, on: on}
	readNext := j.readLateral
	if kind == plan.RightJoin || kind == plan.FullJoin {
		readNext = j.readMaterialized
	}

	op, err := iterator.NewBinaryOperator(left, right, readNext)
	if err != nil {
		return nil, err
	}
	j.BinaryOperator = op
	return j, nil
}

// Open opens the left input under parent and resets the join state.
func (j *NestedLoopJoin) Open(parent *env.Env) error {
	if err := j.BinaryOperator.Open(parent); err != nil {
		return err
	}
	j.leftRow = nil
	j.leftMatched = false
	j.rightRows = nil
	j.rightMatched = nil
	j.rightLoaded = false
	j.rightIdx = 0
	j.draining = false
	return nil
}

// Close releases both inputs and the materialised right side.
func (j *NestedLoopJoin) Close() error {
	j.leftRow = nil
	j.rightRows = nil
	j.rightMatched = nil
	return j.BinaryOperator.Close()
}

// matches evaluates the join condition for a combined row.
func (j *NestedLoopJoin) matches(row *env.Row) (bool, error) {
	if j.on == nil {
		return true, nil
	}
	v, err := j.on.Eval(j.Parent().Push(row))
	if err != nil {
		return false, err
	}
	switch {
	case v.Kind() == datum.KindBool:
		return v.AsBool(), nil
	case v.IsAbsent():
		return false, nil
	default:
		_, err := j.ctx.Fail(evalerr.TypeMismatch("join condition must be a boolean, got %s", v.Kind()).WithOperation("join"))
		return false, err
	}
}

// readLateral drives INNER and LEFT joins.
func (j *NestedLoopJoin) readLateral() (*env.Row, error) {
	for {
		if j.leftRow == nil {
			l, err := j.FetchLeft()
			if err != nil || l == nil {
				return nil, err
			}
			j.leftRow, j.leftMatched = l, false
			if err := j.OpenRight(j.Parent().Push(l)); err != nil {
				return nil, err
			}
		}

		r, err := j.FetchRight()
		if err != nil {
			return nil, err
		}
		if r == nil {
			left := j.leftRow
			j.leftRow = nil
			if j.kind == plan.LeftJoin && !j.leftMatched {
				return left.Concat(j.GetRightChild().Schema().NullRow()), nil
			}
			continue
		}

		joined := j.leftRow.Concat(r)
		ok, err := j.matches(joined)
		if err != nil {
			return nil, err
		}
		if ok {
			j.leftMatched = true
			return joined, nil
		}
	}
}

// loadRight materialises the right input under NULL left bindings.
func (j *NestedLoopJoin) loadRight() error {
	scope := j.Parent().Push(j.GetLeftChild().Schema().NullRow())
	if err := j.OpenRight(scope); err != nil {
		return err
	}
	rows, err := iterator.Collect(j.GetRightChild())
	if err != nil {
		return fmt.Errorf("failed to materialise right input: %w", err)
	}
	j.rightRows = rows
	j.rightMatched = make([]bool, len(rows))
	j.rightLoaded = true
	return nil
}

// readMaterialized drives RIGHT and FULL joins: matched pairs in left order,
// unmatched left rows padded as they finish (FULL only), then unmatched right
// rows padded.
func (j *NestedLoopJoin) readMaterialized() (*env.Row, error) {
	if !j.rightLoaded {
		if err := j.loadRight(); err != nil {
			return nil, err
		}
	}

	for {
		if j.draining {
			for j.rightIdx < len(j.rightRows) {
				i := j.rightIdx
				j.rightIdx++
				if !j.rightMatched[i] {
					return j.GetLeftChild().Schema().NullRow().Concat(j.rightRows[i]), nil
				}
			}
			return nil, nil
		}

		if j.leftRow == nil {
			l, err := j.FetchLeft()
			if err != nil {
				return nil, err
			}
			if l == nil {
				j.draining, j.rightIdx = true, 0
				continue
			}
			j.leftRow, j.leftMatched, j.rightIdx = l, false, 0
		}

		for j.rightIdx < len(j.rightRows) {
			i := j.rightIdx
			j.rightIdx++
			joined := j.leftRow.Concat(j.rightRows[i])
			ok, err := j.matches(joined)
			if err != nil {
				return nil, err
			}
			if ok {
				j.rightMatched[i] = true
				j.leftMatched = true
				return joined, nil
			}
		}

		left := j.leftRow
		j.leftRow = nil
		if j.kind == plan.FullJoin && !j.leftMatched {
			return left.Concat(j.GetRightChild().Schema().NullRow()), nil
		}
	}
}
