package types

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pqleval/pkg/datum"
	evalerr "pqleval/pkg/error"
)

// Cast converts d to the target type. NULL casts to NULL and MISSING to
// MISSING. Numeric narrowing truncates toward zero and fails with Overflow
// when the value leaves the target range; DECIMAL(p,s) rounds half away from
// zero before checking the precision.
func Cast(d datum.Datum, target Type) (datum.Datum, error) {
	if d.IsAbsent() || target.Kind == DynamicKind {
		return d, nil
	}

	var (
		out datum.Datum
		err error
	)
	switch target.Kind {
	case BoolKind:
		out, err = castBool(d)
	case Int32Kind, Int64Kind:
		out, err = castInt(d, target.Kind)
	case DecimalKind:
		out, err = castDecimal(d, target)
	case StringKind, VarcharKind:
		out, err = castString(d, target)
	case IntervalKind:
		out, err = castInterval(d, target.Qualifier)
	case ListKind, BagKind:
		out, err = castCollection(d, target)
	case StructKind:
		if d.Kind() != datum.KindStruct {
			err = evalerr.TypeMismatch("cannot cast %s to STRUCT", d.Kind())
		}
		out = d
	default:
		err = evalerr.TypeMismatch("unsupported cast target %s", target)
	}
	if err != nil {
		if e, ok := err.(*evalerr.Error); ok {
			return datum.Missing(), e.WithOperation("Cast")
		}
		return datum.Missing(), err
	}
	return out, nil
}

func castBool(d datum.Datum) (datum.Datum, error) {
	switch d.Kind() {
	case datum.KindBool:
		return d, nil
	case datum.KindInt32, datum.KindInt64, datum.KindDecimal:
		return datum.Bool(!d.AsDecimal().IsZero()), nil
	case datum.KindString:
		switch strings.ToLower(strings.TrimSpace(d.AsString())) {
		case "true":
			return datum.Bool(true), nil
		case "false":
			return datum.Bool(false), nil
		}
		return datum.Missing(), evalerr.TypeMismatch("cannot cast '%s' to BOOL", d.AsString())
	default:
		return datum.Missing(), evalerr.TypeMismatch("cannot cast %s to BOOL", d.Kind())
	}
}

func castInt(d datum.Datum, kind Kind) (datum.Datum, error) {
	var v decimal.Decimal
	switch d.Kind() {
	case datum.KindBool:
		if d.AsBool() {
			v = decimal.NewFromInt(1)
		}
	case datum.KindInt32, datum.KindInt64, datum.KindDecimal:
		v = d.AsDecimal()
	case datum.KindString:
		parsed, err := decimal.NewFromString(strings.TrimSpace(d.AsString()))
		if err != nil {
			return datum.Missing(), evalerr.TypeMismatch("cannot cast '%s' to integer", d.AsString())
		}
		v = parsed
	default:
		return datum.Missing(), evalerr.TypeMismatch("cannot cast %s to integer", d.Kind())
	}

	whole := v.Truncate(0)
	lo, hi := int64(math.MinInt32), int64(math.MaxInt32)
	if kind == Int64Kind {
		lo, hi = math.MinInt64, math.MaxInt64
	}
	if whole.LessThan(decimal.NewFromInt(lo)) || whole.GreaterThan(decimal.NewFromInt(hi)) {
		return datum.Missing(), evalerr.Overflow("value %s out of range for %s", v.String(), Type{Kind: kind})
	}
	if kind == Int32Kind {
		return datum.Int32(int32(whole.IntPart())), nil
	}
	return datum.Int64(whole.IntPart()), nil
}

func castDecimal(d datum.Datum, target Type) (datum.Datum, error) {
	var v decimal.Decimal
	switch d.Kind() {
	case datum.KindBool:
		if d.AsBool() {
			v = decimal.NewFromInt(1)
		}
	case datum.KindInt32, datum.KindInt64, datum.KindDecimal:
		v = d.AsDecimal()
	case datum.KindString:
		parsed, err := decimal.NewFromString(strings.TrimSpace(d.AsString()))
		if err != nil {
			return datum.Missing(), evalerr.TypeMismatch("cannot cast '%s' to DECIMAL", d.AsString())
		}
		v = parsed
	default:
		return datum.Missing(), evalerr.TypeMismatch("cannot cast %s to DECIMAL", d.Kind())
	}

	if target.Precision == 0 {
		return datum.NewDecimal(v, datum.MaxDecimalPrecision)
	}
	return datum.RescaleDecimal(v, target.Precision, target.Scale)
}

func castString(d datum.Datum, target Type) (datum.Datum, error) {
	var s string
	switch d.Kind() {
	case datum.KindString:
		s = d.AsString()
	case datum.KindBool, datum.KindInt32, datum.KindInt64, datum.KindDecimal:
		s = d.String()
	case datum.KindInterval:
		s = d.AsInterval().String()
	default:
		return datum.Missing(), evalerr.TypeMismatch("cannot cast %s to %s", d.Kind(), target)
	}
	if target.Kind == VarcharKind {
		if r := []rune(s); int32(len(r)) > target.Length {
			s = string(r[:target.Length])
		}
	}
	return datum.String(s), nil
}

func castInterval(d datum.Datum, q datum.Qualifier) (datum.Datum, error) {
	switch d.Kind() {
	case datum.KindString:
		iv, err := datum.ParseInterval(d.AsString(), q)
		if err != nil {
			return datum.Missing(), err
		}
		return datum.IntervalOf(iv), nil
	case datum.KindInterval:
		iv := d.AsInterval()
		if iv.Qualifier.IsYearMonth() != q.IsYearMonth() {
			return datum.Missing(), evalerr.TypeMismatch("cannot cast %s to INTERVAL %s", iv.Qualifier, q)
		}
		out, err := iv.Requalify(q)
		if err != nil {
			return datum.Missing(), err
		}
		return datum.IntervalOf(out), nil
	default:
		return datum.Missing(), evalerr.TypeMismatch("cannot cast %s to INTERVAL", d.Kind())
	}
}

func castCollection(d datum.Datum, target Type) (datum.Datum, error) {
	if !d.IsCollection() {
		return datum.Missing(), evalerr.TypeMismatch("cannot cast %s to %s", d.Kind(), target)
	}
	elems := d.Elems()
	if target.Elem != nil && target.Elem.Kind != DynamicKind {
		converted := make([]datum.Datum, len(elems))
		for i, e := range elems {
			c, err := Cast(e, *target.Elem)
			if err != nil {
				return datum.Missing(), err
			}
			converted[i] = c
		}
		elems = converted
	}
	return datum.Collect(append([]datum.Datum(nil), elems...), target.Kind == ListKind), nil
}

// ParseInt parses a decimal integer literal into an int32 datum when it fits,
// else an int64.
func ParseInt(text string) (datum.Datum, error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return datum.Missing(), evalerr.TypeMismatch("invalid integer literal '%s'", text)
	}
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return datum.Int32(int32(v)), nil
	}
	return datum.Int64(v), nil
}
