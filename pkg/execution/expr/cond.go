package expr

import (
	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
)

// Branch is one WHEN/THEN arm of a searched CASE.
type Branch struct {
	When execution.Expr
	Then execution.Expr
}

// Case evaluates a searched CASE. A branch is taken only when its condition
// is TRUE; NULL and MISSING conditions fall through. Without an ELSE the
// result is NULL.
type Case struct {
	ctx      *execution.Context
	branches []Branch
	orElse   execution.Expr
}

// NewCase builds a CASE. orElse may be nil.
func NewCase(ctx *execution.Context, branches []Branch, orElse execution.Expr) *Case {
	return &Case{ctx: ctx, branches: branches, orElse: orElse}
}

func (e *Case) Eval(scope *env.Env) (datum.Datum, error) {
	for _, b := range e.branches {
		cond, err := b.When.Eval(scope)
		if err != nil {
			return datum.Missing(), err
		}
		switch {
		case cond.Kind() == datum.KindBool:
			if cond.AsBool() {
				return b.Then.Eval(scope)
			}
		case cond.IsAbsent():
		default:
			if _, err := e.ctx.Fail(evalerr.TypeMismatch("CASE condition must be a boolean, got %s", cond.Kind()).WithOperation("CASE")); err != nil {
				return datum.Missing(), err
			}
		}
	}
	if e.orElse == nil {
		return datum.Null(), nil
	}
	return e.orElse.Eval(scope)
}

// Coalesce returns its first present argument. When every argument is
// absent the result is NULL if any was NULL, MISSING otherwise.
type Coalesce struct {
	args []execution.Expr
}

func NewCoalesce(args []execution.Expr) *Coalesce {
	return &Coalesce{args: args}
}

func (e *Coalesce) Eval(scope *env.Env) (datum.Datum, error) {
	result := datum.Missing()
	for _, a := range e.args {
		v, err := a.Eval(scope)
		if err != nil {
			return datum.Missing(), err
		}
		if !v.IsAbsent() {
			return v, nil
		}
		if v.IsNull() {
			result = v
		}
	}
	return result, nil
}

// NullIf returns NULL when its two arguments are equal and the first
// argument otherwise.
type NullIf struct {
	left, right execution.Expr
}

func NewNullIf(left, right execution.Expr) *NullIf {
	return &NullIf{left: left, right: right}
}

func (e *NullIf) Eval(scope *env.Env) (datum.Datum, error) {
	l, r, err := evalPair(scope, e.left, e.right)
	if err != nil {
		return datum.Missing(), err
	}
	if !l.IsAbsent() && !r.IsAbsent() && datum.Equal(l, r) {
		return datum.Null(), nil
	}
	return l, nil
}
