// Package expr implements the scalar expression evaluators.
//
// Every evaluator implements execution.Expr and is built once per execution
// by the compiler. Evaluators hold the execution.Context of their execution
// and route data errors (type mismatches, overflow, division by zero,
// cardinality violations) through Context.Fail, which applies the typing
// mode: PERMISSIVE substitutes MISSING at the point of failure, STRICT
// returns the error and aborts the statement.
//
// MISSING and NULL propagate through operators without raising errors: an
// operator with a MISSING operand yields MISSING, otherwise a NULL operand
// yields NULL. Boolean connectives follow three-valued logic where both
// MISSING and NULL act as UNKNOWN.
package expr
