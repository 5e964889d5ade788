package datum

import (
	"math/big"

	"github.com/shopspring/decimal"

	evalerr "pqleval/pkg/error"
)

// MaxDecimalPrecision is the largest number of significant digits a decimal may carry.
const MaxDecimalPrecision int32 = 38

// MinDivisionScale is the smallest scale produced by decimal division.
const MinDivisionScale int32 = 6

// Decimal builds a decimal datum from an unscaled integer and scale. The
// precision is derived from the digits. It fails with Overflow when the
// value does not fit MaxDecimalPrecision.
func Decimal(unscaled int64, scale int32) (Datum, error) {
	return DecimalFromBig(big.NewInt(unscaled), scale)
}

// DecimalFromBig builds a decimal datum from a big unscaled integer and scale.
func DecimalFromBig(unscaled *big.Int, scale int32) (Datum, error) {
	return NewDecimal(decimal.NewFromBigInt(unscaled, -scale), 0)
}

// MustDecimal parses a decimal literal such as "2.50" and panics on failure.
// The literal's scale is preserved.
func MustDecimal(literal string) Datum {
	d, err := ParseDecimal(literal)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDecimal parses a decimal literal, preserving its scale.
func ParseDecimal(literal string) (Datum, error) {
	v, err := decimal.NewFromString(literal)
	if err != nil {
		return Missing(), evalerr.TypeMismatch("invalid decimal literal '%s'", literal)
	}
	return NewDecimal(v, 0)
}

// NewDecimal wraps v with the given declared precision. A precision of zero
// means the natural precision of v. Positive exponents are normalised to
// scale 0, so the scale is never negative.
func NewDecimal(v decimal.Decimal, precision int32) (Datum, error) {
	if v.Exponent() > 0 {
		v = v.Round(0)
	}
	natural := naturalPrecision(v)
	if precision == 0 {
		precision = natural
	}
	if natural > precision || precision > MaxDecimalPrecision {
		return Missing(), evalerr.Overflow("decimal %s exceeds precision %d", v.String(), min(precision, MaxDecimalPrecision))
	}
	return Datum{kind: KindDecimal, dec: v, n: int64(precision)}, nil
}

// digits returns the number of decimal digits in the unscaled value of v.
func digits(v decimal.Decimal) int32 {
	c := v.Coefficient()
	if c.Sign() == 0 {
		return 1
	}
	return int32(len(c.Abs(c).String()))
}

// naturalPrecision is max(digits, scale): 0.05 needs precision 2.
func naturalPrecision(v decimal.Decimal) int32 {
	return max(digits(v), -v.Exponent())
}

// RescaleDecimal rounds v half away from zero to the given scale and checks
// the result fits DECIMAL(precision, scale).
func RescaleDecimal(v decimal.Decimal, precision, scale int32) (Datum, error) {
	if scale > precision {
		return Missing(), evalerr.TypeMismatch("decimal scale %d exceeds precision %d", scale, precision)
	}
	r := v.Round(scale)
	if naturalPrecision(r) > precision {
		return Missing(), evalerr.Overflow("value %s does not fit DECIMAL(%d,%d)", v.String(), precision, scale)
	}
	return Datum{kind: KindDecimal, dec: r, n: int64(precision)}, nil
}

func decimalAdd(a, b decimal.Decimal) (Datum, error) {
	return NewDecimal(a.Add(b), 0)
}

func decimalSub(a, b decimal.Decimal) (Datum, error) {
	return NewDecimal(a.Sub(b), 0)
}

func decimalMul(a, b decimal.Decimal) (Datum, error) {
	return NewDecimal(a.Mul(b), 0)
}

// decimalDiv divides with scale max(6, s1+p2+1), shrinking the scale when the
// quotient would otherwise exceed the maximum precision.
func decimalDiv(a, b decimal.Decimal) (Datum, error) {
	if b.IsZero() {
		return Missing(), evalerr.DivisionByZero("Div")
	}
	s1 := -a.Exponent()
	p2 := naturalPrecision(b)
	scale := min(max(MinDivisionScale, s1+p2+1), MaxDecimalPrecision)

	q := a.DivRound(b, scale).Round(scale)
	if naturalPrecision(q) > MaxDecimalPrecision {
		intDigits := digits(q.Truncate(0))
		if intDigits > MaxDecimalPrecision {
			return Missing(), evalerr.Overflow("decimal quotient exceeds precision %d", MaxDecimalPrecision)
		}
		scale = MaxDecimalPrecision - intDigits
		q = a.DivRound(b, scale).Round(scale)
	}
	return NewDecimal(q, 0)
}

func decimalMod(a, b decimal.Decimal) (Datum, error) {
	if b.IsZero() {
		return Missing(), evalerr.DivisionByZero("Mod")
	}
	scale := max(-a.Exponent(), -b.Exponent())
	return NewDecimal(a.Mod(b).Round(scale), 0)
}
