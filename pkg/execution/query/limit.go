package query

import (
	"fmt"

	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
	"pqleval/pkg/iterator"
)

// LimitOperator implements LIMIT and OFFSET. It skips the first offset rows
// of its input and then returns at most limit rows.
//
// Both counts are expressions evaluated once on Open under the outer scope.
// An absent LIMIT is unbounded and an absent OFFSET is zero. A count that is
// not a non-negative integer is a TypeMismatch; under PERMISSIVE it is
// treated as absent.
type LimitOperator struct {
	*iterator.UnaryOperator
	ctx        *execution.Context
	limitExpr  execution.Expr
	offsetExpr execution.Expr
	limit      int64 // -1 means unbounded
	offset     int64
	count      int64 // rows returned so far
}

// NewLimit creates a LIMIT count operator over child.
func NewLimit(ctx *execution.Context, child iterator.RowIterator, count execution.Expr) (*LimitOperator, error) {
	if count == nil {
		return nil, fmt.Errorf("limit count cannot be nil")
	}
	return newLimitOperator(ctx, child, count, nil)
}

// NewOffset creates an OFFSET count operator over child.
func NewOffset(ctx *execution.Context, child iterator.RowIterator, count execution.Expr) (*LimitOperator, error) {
	if count == nil {
		return nil, fmt.Errorf("offset count cannot be nil")
	}
	return newLimitOperator(ctx, child, nil, count)
}

func newLimitOperator(ctx *execution.Context, child iterator.RowIterator, limit, offset execution.Expr) (*LimitOperator, error) {
	lo := &LimitOperator{ctx: ctx, limitExpr: limit, offsetExpr: offset}
	op, err := iterator.NewUnaryOperator(child, lo.readNext)
	if err != nil {
		return nil, err
	}
	lo.UnaryOperator = op
	return lo, nil
}

// Open evaluates the counts, opens the child and skips the offset rows.
func (lo *LimitOperator) Open(parent *env.Env) error {
	if parent == nil {
		parent = env.Root()
	}

	var err error
	if lo.limit, err = lo.evalCount(lo.limitExpr, parent, "LIMIT", -1); err != nil {
		return err
	}
	if lo.offset, err = lo.evalCount(lo.offsetExpr, parent, "OFFSET", 0); err != nil {
		return err
	}

	if err := lo.UnaryOperator.Open(parent); err != nil {
		return err
	}
	lo.count = 0
	return lo.skipOffset()
}

// evalCount evaluates a count expression, returning absent for a nil or
// absent count.
func (lo *LimitOperator) evalCount(e execution.Expr, scope *env.Env, clause string, absent int64) (int64, error) {
	if e == nil {
		return absent, nil
	}
	v, err := e.Eval(scope)
	if err != nil {
		return 0, err
	}
	if v.IsAbsent() {
		return absent, nil
	}
	if !v.IsInteger() || v.AsInt64() < 0 {
		if _, err := lo.ctx.Fail(evalerr.TypeMismatch("%s must be a non-negative integer, got %s", clause, describe(v)).WithOperation(clause)); err != nil {
			return 0, err
		}
		return absent, nil
	}
	return v.AsInt64(), nil
}

func describe(v datum.Datum) string {
	if v.IsInteger() {
		return v.String()
	}
	return v.Kind().String()
}

// readNext returns the next row within the limit, or nil once the limit is
// reached.
func (lo *LimitOperator) readNext() (*env.Row, error) {
	if lo.limit >= 0 && lo.count >= lo.limit {
		return nil, nil
	}

	row, err := lo.FetchNext()
	if err != nil || row == nil {
		return row, err
	}

	lo.count++
	return row, nil
}

// skipOffset discards the first offset rows of the child. It stops early
// when the input is shorter.
func (lo *LimitOperator) skipOffset() error {
	for i := int64(0); i < lo.offset; i++ {
		row, err := lo.FetchNext()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
	}
	return nil
}
