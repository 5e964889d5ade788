package expr

import (
	"strings"
	"unicode/utf8"

	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
	"pqleval/pkg/plan"
	"pqleval/pkg/types"
)

// Cast converts its argument to a target type.
type Cast struct {
	ctx    *execution.Context
	arg    execution.Expr
	target types.Type
}

func NewCast(ctx *execution.Context, arg execution.Expr, target types.Type) *Cast {
	return &Cast{ctx: ctx, arg: arg, target: target}
}

func (e *Cast) Eval(scope *env.Env) (datum.Datum, error) {
	v, err := e.arg.Eval(scope)
	if err != nil {
		return datum.Missing(), err
	}
	return e.ctx.Check(types.Cast(v, e.target))
}

// Call invokes a unary scalar builtin. Absent arguments propagate.
type Call struct {
	ctx *execution.Context
	fn  plan.Function
	arg execution.Expr
}

func NewCall(ctx *execution.Context, fn plan.Function, arg execution.Expr) *Call {
	return &Call{ctx: ctx, fn: fn, arg: arg}
}

func (e *Call) Eval(scope *env.Env) (datum.Datum, error) {
	v, err := e.arg.Eval(scope)
	if err != nil {
		return datum.Missing(), err
	}
	if v.IsAbsent() {
		return v, nil
	}
	return e.ctx.Check(apply(e.fn, v))
}

func apply(fn plan.Function, v datum.Datum) (datum.Datum, error) {
	switch fn {
	case plan.FnAbs:
		return datum.Abs(v)
	case plan.FnUpper, plan.FnLower, plan.FnTrim, plan.FnCharLength:
		if v.Kind() != datum.KindString {
			return datum.Missing(), mismatch(fn, v)
		}
		s := v.AsString()
		switch fn {
		case plan.FnUpper:
			return datum.String(strings.ToUpper(s)), nil
		case plan.FnLower:
			return datum.String(strings.ToLower(s)), nil
		case plan.FnTrim:
			return datum.String(strings.Trim(s, " ")), nil
		default:
			return datum.Int32(int32(utf8.RuneCountInString(s))), nil
		}
	case plan.FnSize:
		if !v.IsCollection() && v.Kind() != datum.KindStruct {
			return datum.Missing(), mismatch(fn, v)
		}
		return datum.Int32(int32(v.Len())), nil
	case plan.FnExists:
		if !v.IsCollection() {
			return datum.Missing(), mismatch(fn, v)
		}
		return datum.Bool(v.Len() > 0), nil
	default:
		return datum.Missing(), evalerr.InvalidPlan("unknown function %d", int(fn))
	}
}

func mismatch(fn plan.Function, v datum.Datum) error {
	return evalerr.TypeMismatch("%s not defined for %s", fn, v.Kind()).WithOperation(fn.String())
}
