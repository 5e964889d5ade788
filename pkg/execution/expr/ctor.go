package expr

import (
	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
)

// StructField is one key/value pair of a struct constructor.
type StructField struct {
	Key   execution.Expr
	Value execution.Expr
}

// StructCtor builds a struct with the listed fields in order. A field whose
// value is MISSING is left out. A non-string key is a TypeMismatch; under
// PERMISSIVE the field is left out.
type StructCtor struct {
	ctx    *execution.Context
	fields []StructField
}

func NewStructCtor(ctx *execution.Context, fields []StructField) *StructCtor {
	return &StructCtor{ctx: ctx, fields: fields}
}

func (e *StructCtor) Eval(scope *env.Env) (datum.Datum, error) {
	out := make([]datum.Field, 0, len(e.fields))
	for _, f := range e.fields {
		k, err := f.Key.Eval(scope)
		if err != nil {
			return datum.Missing(), err
		}
		if k.Kind() != datum.KindString {
			if _, err := e.ctx.Fail(evalerr.TypeMismatch("struct key must be a string, got %s", k.Kind()).WithOperation("struct")); err != nil {
				return datum.Missing(), err
			}
			continue
		}

		v, err := f.Value.Eval(scope)
		if err != nil {
			return datum.Missing(), err
		}
		if v.IsMissing() {
			continue
		}
		out = append(out, datum.F(k.AsString(), v))
	}
	return datum.StructOwned(out), nil
}

// CollectionCtor builds a list or a bag. Elements are kept as evaluated,
// MISSING included.
type CollectionCtor struct {
	ordered bool
	elems   []execution.Expr
}

func NewListCtor(elems []execution.Expr) *CollectionCtor {
	return &CollectionCtor{ordered: true, elems: elems}
}

func NewBagCtor(elems []execution.Expr) *CollectionCtor {
	return &CollectionCtor{elems: elems}
}

func (e *CollectionCtor) Eval(scope *env.Env) (datum.Datum, error) {
	out := make([]datum.Datum, len(e.elems))
	for i, el := range e.elems {
		v, err := el.Eval(scope)
		if err != nil {
			return datum.Missing(), err
		}
		out[i] = v
	}
	return datum.Collect(out, e.ordered), nil
}

// TupleUnion concatenates the fields of its struct operands left to right,
// duplicates included. Any NULL operand makes the result NULL; otherwise any
// operand that is not a struct makes it MISSING.
type TupleUnion struct {
	args []execution.Expr
}

func NewTupleUnion(args []execution.Expr) *TupleUnion {
	return &TupleUnion{args: args}
}

func (e *TupleUnion) Eval(scope *env.Env) (datum.Datum, error) {
	var fields []datum.Field
	sawNull, sawOther := false, false
	for _, a := range e.args {
		v, err := a.Eval(scope)
		if err != nil {
			return datum.Missing(), err
		}
		switch {
		case v.IsNull():
			sawNull = true
		case v.Kind() == datum.KindStruct:
			fields = append(fields, v.Fields()...)
		default:
			sawOther = true
		}
	}
	if sawNull {
		return datum.Null(), nil
	}
	if sawOther {
		return datum.Missing(), nil
	}
	return datum.StructOwned(fields), nil
}
