package expr

import (
	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
	"pqleval/pkg/execution/aggregation"
	"pqleval/pkg/iterator"
	"pqleval/pkg/plan"
)

// Select runs a relational input under the current scope and collects the
// constructor's value for each row. The result is a list when the input is
// ordered and a bag otherwise.
//
// The input is re-opened on every evaluation, so a Select nested in another
// operator's expressions is re-run with the outer bindings of each row.
type Select struct {
	input       iterator.RowIterator
	constructor execution.Expr
	ordered     bool
}

func NewSelect(input iterator.RowIterator, constructor execution.Expr, ordered bool) *Select {
	return &Select{input: input, constructor: constructor, ordered: ordered}
}

func (e *Select) Eval(scope *env.Env) (datum.Datum, error) {
	var out []datum.Datum
	err := iterator.Run(e.input, scope, func(row *env.Row) (bool, error) {
		v, err := e.constructor.Eval(scope.Push(row))
		if err != nil {
			return false, err
		}
		out = append(out, v)
		return true, nil
	})
	if err != nil {
		return datum.Missing(), err
	}
	return datum.Collect(out, e.ordered), nil
}

// Pivot builds a single struct from its input, one field per row: the key
// expression names the field and the value expression fills it. Rows whose
// key is not a string, or whose value is MISSING, contribute nothing.
type Pivot struct {
	input      iterator.RowIterator
	key, value execution.Expr
}

func NewPivot(input iterator.RowIterator, key, value execution.Expr) *Pivot {
	return &Pivot{input: input, key: key, value: value}
}

func (e *Pivot) Eval(scope *env.Env) (datum.Datum, error) {
	var fields []datum.Field
	err := iterator.Run(e.input, scope, func(row *env.Row) (bool, error) {
		rowScope := scope.Push(row)
		k, err := e.key.Eval(rowScope)
		if err != nil {
			return false, err
		}
		if k.Kind() != datum.KindString {
			return true, nil
		}
		v, err := e.value.Eval(rowScope)
		if err != nil {
			return false, err
		}
		if !v.IsMissing() {
			fields = append(fields, datum.F(k.AsString(), v))
		}
		return true, nil
	})
	if err != nil {
		return datum.Missing(), err
	}
	return datum.StructOwned(fields), nil
}

// ScalarSubquery coerces the result of a query to a single value.
//
// No rows yield NULL. One row yields its value, unwrapped when it is a
// struct: a single field gives that field's value and an empty struct gives
// MISSING. A wider struct is a TypeMismatch and more than one row is a
// CardinalityViolation.
type ScalarSubquery struct {
	ctx   *execution.Context
	query execution.Expr
}

func NewScalarSubquery(ctx *execution.Context, query execution.Expr) *ScalarSubquery {
	return &ScalarSubquery{ctx: ctx, query: query}
}

func (e *ScalarSubquery) Eval(scope *env.Env) (datum.Datum, error) {
	result, err := e.query.Eval(scope)
	if err != nil {
		return datum.Missing(), err
	}
	if !result.IsCollection() {
		return result, nil
	}

	switch result.Len() {
	case 0:
		return datum.Null(), nil
	case 1:
	default:
		return e.ctx.Fail(evalerr.CardinalityViolation("scalar subquery returned %d rows", result.Len()).WithOperation("subquery"))
	}

	v := result.Elems()[0]
	if v.Kind() != datum.KindStruct {
		return v, nil
	}
	switch v.Len() {
	case 0:
		return datum.Missing(), nil
	case 1:
		return v.Fields()[0].Value, nil
	default:
		return e.ctx.Fail(evalerr.TypeMismatch("scalar subquery row has %d columns", v.Len()).WithOperation("subquery"))
	}
}

// CollAgg applies an aggregate function to the elements of a collection.
// An absent argument yields NULL.
type CollAgg struct {
	ctx      *execution.Context
	fn       plan.AggFunc
	distinct bool
	arg      execution.Expr
}

func NewCollAgg(ctx *execution.Context, fn plan.AggFunc, distinct bool, arg execution.Expr) *CollAgg {
	return &CollAgg{ctx: ctx, fn: fn, distinct: distinct, arg: arg}
}

func (e *CollAgg) Eval(scope *env.Env) (datum.Datum, error) {
	v, err := e.arg.Eval(scope)
	if err != nil {
		return datum.Missing(), err
	}
	if v.IsAbsent() {
		return datum.Null(), nil
	}
	if !v.IsCollection() {
		return e.ctx.Fail(evalerr.TypeMismatch("COLL_%s expects a collection, got %s", e.fn, v.Kind()).WithOperation("collagg"))
	}
	return e.ctx.Check(aggregation.Aggregate(e.fn, e.distinct, v.Elems()))
}
