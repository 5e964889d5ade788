package expr

import (
	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
	"pqleval/pkg/plan"
)

// propagate applies absent-value propagation to a binary operator: a MISSING
// operand yields MISSING, otherwise a NULL operand yields NULL.
func propagate(a, b datum.Datum) (datum.Datum, bool) {
	if a.IsMissing() || b.IsMissing() {
		return datum.Missing(), true
	}
	if a.IsNull() || b.IsNull() {
		return datum.Null(), true
	}
	return datum.Missing(), false
}

// evalPair evaluates two operands left to right.
func evalPair(scope *env.Env, left, right execution.Expr) (datum.Datum, datum.Datum, error) {
	l, err := left.Eval(scope)
	if err != nil {
		return l, l, err
	}
	r, err := right.Eval(scope)
	if err != nil {
		return l, r, err
	}
	return l, r, nil
}

// Comparison evaluates =, <>, <, <=, > and >=.
//
// Equality is structural and defined between any two present values; values
// of unrelated kinds are simply unequal. The ordering operators require
// comparable operands and raise a TypeMismatch otherwise.
type Comparison struct {
	ctx         *execution.Context
	op          plan.BinaryOp
	left, right execution.Expr
}

func NewComparison(ctx *execution.Context, op plan.BinaryOp, left, right execution.Expr) *Comparison {
	return &Comparison{ctx: ctx, op: op, left: left, right: right}
}

func (e *Comparison) Eval(scope *env.Env) (datum.Datum, error) {
	l, r, err := evalPair(scope, e.left, e.right)
	if err != nil {
		return datum.Missing(), err
	}
	if res, ok := propagate(l, r); ok {
		return res, nil
	}

	switch e.op {
	case plan.OpEq:
		return datum.Bool(datum.Equal(l, r)), nil
	case plan.OpNe:
		return datum.Bool(!datum.Equal(l, r)), nil
	}

	if !datum.Comparable(l, r) {
		return e.ctx.Fail(evalerr.TypeMismatch("%s not defined for %s and %s", e.op, l.Kind(), r.Kind()).WithOperation(e.op.String()))
	}

	c := datum.Compare(l, r)
	switch e.op {
	case plan.OpLt:
		return datum.Bool(c < 0), nil
	case plan.OpLe:
		return datum.Bool(c <= 0), nil
	case plan.OpGt:
		return datum.Bool(c > 0), nil
	default:
		return datum.Bool(c >= 0), nil
	}
}

// In evaluates arg IN collection. A match yields TRUE; with no match, an
// absent element makes the answer UNKNOWN (NULL), otherwise FALSE.
type In struct {
	ctx      *execution.Context
	arg, set execution.Expr
}

func NewIn(ctx *execution.Context, arg, set execution.Expr) *In {
	return &In{ctx: ctx, arg: arg, set: set}
}

func (e *In) Eval(scope *env.Env) (datum.Datum, error) {
	v, set, err := evalPair(scope, e.arg, e.set)
	if err != nil {
		return datum.Missing(), err
	}
	if res, ok := propagate(v, set); ok {
		return res, nil
	}
	if !set.IsCollection() {
		return e.ctx.Fail(evalerr.TypeMismatch("IN expects a collection, got %s", set.Kind()).WithOperation("IN"))
	}

	sawUnknown := false
	for _, elem := range set.Elems() {
		if elem.IsAbsent() {
			sawUnknown = true
			continue
		}
		if datum.Equal(v, elem) {
			return datum.Bool(true), nil
		}
	}
	if sawUnknown {
		return datum.Null(), nil
	}
	return datum.Bool(false), nil
}
