package expr

import (
	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
)

// Literal is a constant.
type Literal struct {
	value datum.Datum
}

func NewLiteral(value datum.Datum) *Literal {
	return &Literal{value: value}
}

func (e *Literal) Eval(*env.Env) (datum.Datum, error) {
	return e.value, nil
}

// Variable resolves a name through the environment chain, innermost scope
// first. An unbound name is fatal in both typing modes.
type Variable struct {
	name string
}

func NewVariable(name string) *Variable {
	return &Variable{name: name}
}

func (e *Variable) Eval(scope *env.Env) (datum.Datum, error) {
	if v, ok := scope.Resolve(e.name); ok {
		return v, nil
	}
	return datum.Missing(), evalerr.Unresolved(e.name).WithOperation("var")
}

// GlobalRef reads a catalog global. The value is fetched on first use and
// reused for the rest of the execution.
type GlobalRef struct {
	ctx    *execution.Context
	name   string
	value  datum.Datum
	loaded bool
}

func NewGlobalRef(ctx *execution.Context, name string) *GlobalRef {
	return &GlobalRef{ctx: ctx, name: name}
}

func (e *GlobalRef) Eval(*env.Env) (datum.Datum, error) {
	if e.loaded {
		return e.value, nil
	}
	v, err := e.ctx.Global(e.name)
	if err != nil {
		return datum.Missing(), err
	}
	e.value, e.loaded = v, true
	return v, nil
}

// FieldAccess evaluates root.name. A struct without the field yields MISSING
// and an absent root yields itself. Navigating into any other kind is a
// TypeMismatch.
type FieldAccess struct {
	ctx             *execution.Context
	root            execution.Expr
	name            string
	caseInsensitive bool
}

func NewFieldAccess(ctx *execution.Context, root execution.Expr, name string, caseInsensitive bool) *FieldAccess {
	return &FieldAccess{ctx: ctx, root: root, name: name, caseInsensitive: caseInsensitive}
}

func (e *FieldAccess) Eval(scope *env.Env) (datum.Datum, error) {
	r, err := e.root.Eval(scope)
	if err != nil {
		return datum.Missing(), err
	}
	switch {
	case r.IsAbsent():
		return r, nil
	case r.Kind() == datum.KindStruct:
		var v datum.Datum
		if e.caseInsensitive {
			v, _ = r.GetFold(e.name)
		} else {
			v, _ = r.Get(e.name)
		}
		return v, nil
	default:
		return e.ctx.Fail(evalerr.TypeMismatch("cannot read field %q of %s", e.name, r.Kind()).WithOperation("path"))
	}
}

// IndexAccess evaluates root[index]: a zero-based list position, or a field
// name when the index is a string and the root a struct. Positions outside
// the list yield MISSING. A MISSING operand yields MISSING, otherwise a NULL
// operand yields NULL.
type IndexAccess struct {
	ctx         *execution.Context
	root, index execution.Expr
}

func NewIndexAccess(ctx *execution.Context, root, index execution.Expr) *IndexAccess {
	return &IndexAccess{ctx: ctx, root: root, index: index}
}

func (e *IndexAccess) Eval(scope *env.Env) (datum.Datum, error) {
	r, idx, err := evalPair(scope, e.root, e.index)
	if err != nil {
		return datum.Missing(), err
	}
	if res, ok := propagate(r, idx); ok {
		return res, nil
	}
	switch {
	case r.Kind() == datum.KindList && idx.IsInteger():
		v, _ := r.Index(idx.AsInt64())
		return v, nil
	case r.Kind() == datum.KindStruct && idx.Kind() == datum.KindString:
		v, _ := r.Get(idx.AsString())
		return v, nil
	default:
		return e.ctx.Fail(evalerr.TypeMismatch("cannot index %s with %s", r.Kind(), idx.Kind()).WithOperation("path"))
	}
}
