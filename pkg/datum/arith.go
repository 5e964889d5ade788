package datum

import (
	"math"

	"github.com/shopspring/decimal"

	evalerr "pqleval/pkg/error"
)

// ArithOp names a binary arithmetic operator.
type ArithOp uint8

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

var arithNames = [...]string{"Add", "Sub", "Mul", "Div", "Mod"}

func (op ArithOp) String() string { return arithNames[op] }

// absentResult applies MISSING/NULL propagation: a MISSING operand yields
// MISSING, otherwise a NULL operand yields NULL.
func absentResult(a, b Datum) (Datum, bool) {
	if a.IsMissing() || b.IsMissing() {
		return Missing(), true
	}
	if a.IsNull() || b.IsNull() {
		return Null(), true
	}
	return Datum{}, false
}

// Arith applies op to two datums. Numbers promote int32 → int64 → decimal.
// Intervals of the same class support + and -.
func Arith(op ArithOp, a, b Datum) (Datum, error) {
	if r, ok := absentResult(a, b); ok {
		return r, nil
	}

	switch {
	case a.IsInteger() && b.IsInteger():
		return intArith(op, a, b)
	case a.IsNumber() && b.IsNumber():
		return decArith(op, a.AsDecimal(), b.AsDecimal())
	case a.kind == KindInterval && b.kind == KindInterval && (op == OpAdd || op == OpSub):
		rhs := *b.iv
		if op == OpSub {
			rhs = rhs.Negate()
		}
		iv, err := addIntervals(*a.iv, rhs)
		if err != nil {
			return Missing(), withOperation(err, op.String())
		}
		return IntervalOf(iv), nil
	default:
		return Missing(), evalerr.TypeMismatch("operator %s not defined for %s and %s", op, a.kind, b.kind).WithOperation(op.String())
	}
}

func intArith(op ArithOp, a, b Datum) (Datum, error) {
	wide := a.kind == KindInt64 || b.kind == KindInt64
	x, y := a.n, b.n

	var r int64
	switch op {
	case OpAdd:
		r = x + y
		if (y > 0 && r < x) || (y < 0 && r > x) {
			return Missing(), evalerr.Overflow("integer overflow in %d + %d", x, y).WithOperation("Add")
		}
	case OpSub:
		r = x - y
		if (y < 0 && r < x) || (y > 0 && r > x) {
			return Missing(), evalerr.Overflow("integer overflow in %d - %d", x, y).WithOperation("Sub")
		}
	case OpMul:
		if x != 0 && y != 0 {
			r = x * y
			if r/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
				return Missing(), evalerr.Overflow("integer overflow in %d * %d", x, y).WithOperation("Mul")
			}
		}
	case OpDiv:
		if y == 0 {
			return Missing(), evalerr.DivisionByZero("Div")
		}
		if x == math.MinInt64 && y == -1 {
			return Missing(), evalerr.Overflow("integer overflow in %d / %d", x, y).WithOperation("Div")
		}
		r = x / y
	case OpMod:
		if y == 0 {
			return Missing(), evalerr.DivisionByZero("Mod")
		}
		if y == -1 {
			r = 0
		} else {
			r = x % y
		}
	}

	if wide {
		return Int64(r), nil
	}
	if r < math.MinInt32 || r > math.MaxInt32 {
		return Missing(), evalerr.Overflow("int32 overflow: %d", r).WithOperation(op.String())
	}
	return Int32(int32(r)), nil
}

func decArith(op ArithOp, x, y decimal.Decimal) (Datum, error) {
	var (
		d   Datum
		err error
	)
	switch op {
	case OpAdd:
		d, err = decimalAdd(x, y)
	case OpSub:
		d, err = decimalSub(x, y)
	case OpMul:
		d, err = decimalMul(x, y)
	case OpDiv:
		d, err = decimalDiv(x, y)
	case OpMod:
		d, err = decimalMod(x, y)
	}
	if err != nil {
		return Missing(), withOperation(err, op.String())
	}
	return d, nil
}

func withOperation(err error, op string) error {
	if e, ok := err.(*evalerr.Error); ok {
		return e.WithOperation(op)
	}
	return err
}

// Negate returns -d for numbers and intervals.
func Negate(d Datum) (Datum, error) {
	switch d.kind {
	case KindMissing, KindNull:
		return d, nil
	case KindInt32:
		if d.n == math.MinInt32 {
			return Missing(), evalerr.Overflow("int32 overflow negating %d", d.n).WithOperation("Neg")
		}
		return Int32(int32(-d.n)), nil
	case KindInt64:
		if d.n == math.MinInt64 {
			return Missing(), evalerr.Overflow("int64 overflow negating %d", d.n).WithOperation("Neg")
		}
		return Int64(-d.n), nil
	case KindDecimal:
		return Datum{kind: KindDecimal, dec: d.dec.Neg(), n: d.n}, nil
	case KindInterval:
		return IntervalOf(d.iv.Negate()), nil
	default:
		return Missing(), evalerr.TypeMismatch("cannot negate %s", d.kind).WithOperation("Neg")
	}
}

// Abs returns the absolute value of a number. For intervals only the sign bit
// is cleared; fields and precisions are unchanged.
func Abs(d Datum) (Datum, error) {
	switch d.kind {
	case KindMissing, KindNull:
		return d, nil
	case KindInt32, KindInt64:
		if d.n >= 0 {
			return d, nil
		}
		return Negate(d)
	case KindDecimal:
		return Datum{kind: KindDecimal, dec: d.dec.Abs(), n: d.n}, nil
	case KindInterval:
		return IntervalOf(d.iv.Abs()), nil
	default:
		return Missing(), evalerr.TypeMismatch("ABS not defined for %s", d.kind).WithOperation("Abs")
	}
}

// Concat joins two strings.
func Concat(a, b Datum) (Datum, error) {
	if r, ok := absentResult(a, b); ok {
		return r, nil
	}
	if a.kind != KindString || b.kind != KindString {
		return Missing(), evalerr.TypeMismatch("|| not defined for %s and %s", a.kind, b.kind).WithOperation("Concat")
	}
	return String(a.s + b.s), nil
}
