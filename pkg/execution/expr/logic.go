package expr

import (
	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
	"pqleval/pkg/plan"
)

// truth is the three-valued reading of a boolean operand.
type truth int8

const (
	unknown truth = iota
	falseTruth
	trueTruth
)

// truthOf reads d as a boolean. NULL and MISSING are unknown; any other
// non-boolean is a TypeMismatch.
func truthOf(d datum.Datum, op string) (truth, error) {
	switch {
	case d.Kind() == datum.KindBool:
		if d.AsBool() {
			return trueTruth, nil
		}
		return falseTruth, nil
	case d.IsAbsent():
		return unknown, nil
	default:
		return unknown, evalerr.TypeMismatch("%s expects a boolean operand, got %s", op, d.Kind()).WithOperation(op)
	}
}

func (t truth) datum() datum.Datum {
	switch t {
	case trueTruth:
		return datum.Bool(true)
	case falseTruth:
		return datum.Bool(false)
	default:
		return datum.Null()
	}
}

// Logical evaluates AND and OR with short-circuiting on the dominant value:
// FALSE for AND, TRUE for OR.
type Logical struct {
	ctx         *execution.Context
	and         bool
	left, right execution.Expr
}

// NewAnd builds left AND right.
func NewAnd(ctx *execution.Context, left, right execution.Expr) *Logical {
	return &Logical{ctx: ctx, and: true, left: left, right: right}
}

// NewOr builds left OR right.
func NewOr(ctx *execution.Context, left, right execution.Expr) *Logical {
	return &Logical{ctx: ctx, left: left, right: right}
}

func (e *Logical) Eval(scope *env.Env) (datum.Datum, error) {
	op, dominant := "OR", trueTruth
	if e.and {
		op, dominant = "AND", falseTruth
	}

	l, err := e.left.Eval(scope)
	if err != nil {
		return datum.Missing(), err
	}
	lt, err := truthOf(l, op)
	if err != nil {
		return e.ctx.Fail(err)
	}
	if lt == dominant {
		return dominant.datum(), nil
	}

	r, err := e.right.Eval(scope)
	if err != nil {
		return datum.Missing(), err
	}
	rt, err := truthOf(r, op)
	if err != nil {
		return e.ctx.Fail(err)
	}
	if rt == dominant {
		return dominant.datum(), nil
	}

	if lt == unknown || rt == unknown {
		return datum.Null(), nil
	}
	// Both operands are the non-dominant value.
	return lt.datum(), nil
}

// Not negates a boolean. UNKNOWN stays UNKNOWN (as NULL).
type Not struct {
	ctx *execution.Context
	arg execution.Expr
}

func NewNot(ctx *execution.Context, arg execution.Expr) *Not {
	return &Not{ctx: ctx, arg: arg}
}

func (e *Not) Eval(scope *env.Env) (datum.Datum, error) {
	v, err := e.arg.Eval(scope)
	if err != nil {
		return datum.Missing(), err
	}
	t, err := truthOf(v, "NOT")
	if err != nil {
		return e.ctx.Fail(err)
	}
	switch t {
	case trueTruth:
		return datum.Bool(false), nil
	case falseTruth:
		return datum.Bool(true), nil
	default:
		return datum.Null(), nil
	}
}

// Is evaluates the IS [NOT] NULL | MISSING | TRUE | FALSE | UNKNOWN family.
// The result is always a definite boolean. The TRUE, FALSE and UNKNOWN tests
// reject operands that are neither boolean nor absent.
type Is struct {
	ctx  *execution.Context
	test plan.IsTest
	not  bool
	arg  execution.Expr
}

func NewIs(ctx *execution.Context, test plan.IsTest, not bool, arg execution.Expr) *Is {
	return &Is{ctx: ctx, test: test, not: not, arg: arg}
}

func (e *Is) Eval(scope *env.Env) (datum.Datum, error) {
	v, err := e.arg.Eval(scope)
	if err != nil {
		return datum.Missing(), err
	}

	var result bool
	switch e.test {
	case plan.IsNull:
		result = v.IsAbsent()
	case plan.IsMissing:
		result = v.IsMissing()
	default:
		t, err := truthOf(v, "IS "+e.test.String())
		if err != nil {
			return e.ctx.Fail(err)
		}
		switch e.test {
		case plan.IsTrue:
			result = t == trueTruth
		case plan.IsFalse:
			result = t == falseTruth
		default:
			result = t == unknown
		}
	}

	if e.not {
		result = !result
	}
	return datum.Bool(result), nil
}
