package expr

import (
	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
	"pqleval/pkg/plan"
)

var arithOps = map[plan.BinaryOp]datum.ArithOp{
	plan.OpAdd: datum.OpAdd,
	plan.OpSub: datum.OpSub,
	plan.OpMul: datum.OpMul,
	plan.OpDiv: datum.OpDiv,
	plan.OpMod: datum.OpMod,
}

// Arithmetic evaluates +, -, *, /, % and string concatenation (||).
type Arithmetic struct {
	ctx         *execution.Context
	op          plan.BinaryOp
	left, right execution.Expr
}

// NewArithmetic builds an arithmetic evaluator. op must be an arithmetic
// operator or OpConcat.
func NewArithmetic(ctx *execution.Context, op plan.BinaryOp, left, right execution.Expr) (*Arithmetic, error) {
	if _, ok := arithOps[op]; !ok && op != plan.OpConcat {
		return nil, evalerr.InvalidPlan("%s is not an arithmetic operator", op)
	}
	return &Arithmetic{ctx: ctx, op: op, left: left, right: right}, nil
}

func (e *Arithmetic) Eval(scope *env.Env) (datum.Datum, error) {
	l, r, err := evalPair(scope, e.left, e.right)
	if err != nil {
		return datum.Missing(), err
	}
	if e.op == plan.OpConcat {
		return e.ctx.Check(datum.Concat(l, r))
	}
	return e.ctx.Check(datum.Arith(arithOps[e.op], l, r))
}

// Negate evaluates unary minus.
type Negate struct {
	ctx *execution.Context
	arg execution.Expr
}

func NewNegate(ctx *execution.Context, arg execution.Expr) *Negate {
	return &Negate{ctx: ctx, arg: arg}
}

func (e *Negate) Eval(scope *env.Env) (datum.Datum, error) {
	v, err := e.arg.Eval(scope)
	if err != nil {
		return datum.Missing(), err
	}
	return e.ctx.Check(datum.Negate(v))
}

// Positive evaluates unary plus, which checks its operand is numeric.
type Positive struct {
	ctx *execution.Context
	arg execution.Expr
}

func NewPositive(ctx *execution.Context, arg execution.Expr) *Positive {
	return &Positive{ctx: ctx, arg: arg}
}

func (e *Positive) Eval(scope *env.Env) (datum.Datum, error) {
	v, err := e.arg.Eval(scope)
	if err != nil {
		return datum.Missing(), err
	}
	if v.IsAbsent() || v.IsNumber() || v.Kind() == datum.KindInterval {
		return v, nil
	}
	return e.ctx.Fail(evalerr.TypeMismatch("unary + not defined for %s", v.Kind()).WithOperation("Pos"))
}
