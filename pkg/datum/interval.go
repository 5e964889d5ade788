package datum

import (
	"fmt"
	"strconv"
	"strings"

	evalerr "pqleval/pkg/error"
)

// IntervalField is one of the datetime fields an interval qualifier spans.
type IntervalField uint8

const (
	Year IntervalField = iota
	Month
	Day
	Hour
	Minute
	Second
)

var intervalFieldNames = [...]string{"YEAR", "MONTH", "DAY", "HOUR", "MINUTE", "SECOND"}

func (f IntervalField) String() string {
	if int(f) < len(intervalFieldNames) {
		return intervalFieldNames[f]
	}
	return "?"
}

const (
	DefaultIntervalPrecision   int32 = 2
	DefaultFractionalPrecision int32 = 6
	maxIntervalPrecision       int32 = 9
)

const (
	nanosPerSecond = int64(1_000_000_000)
	secondsPerDay  = int64(86400)
)

// secondsIn is the length of one unit of each day-time field.
var secondsIn = map[IntervalField]int64{Day: secondsPerDay, Hour: 3600, Minute: 60, Second: 1}

// Qualifier describes the field range and precisions of an interval.
type Qualifier struct {
	Start     IntervalField
	End       IntervalField
	Precision int32 // digits allowed in the leading field
	// FractionalPrecision is the number of fractional-second digits; it is
	// zero unless the qualifier ends in SECOND.
	FractionalPrecision int32
}

// NewQualifier returns a qualifier with default precisions.
func NewQualifier(start, end IntervalField) Qualifier {
	q := Qualifier{Start: start, End: end, Precision: DefaultIntervalPrecision}
	if end == Second {
		q.FractionalPrecision = DefaultFractionalPrecision
	}
	return q
}

// WithPrecision returns a copy of q with the given leading and fractional precisions.
func (q Qualifier) WithPrecision(leading, fractional int32) Qualifier {
	q.Precision = leading
	if q.End == Second {
		q.FractionalPrecision = fractional
	} else {
		q.FractionalPrecision = 0
	}
	return q
}

// IsYearMonth reports whether the qualifier is in the year-month class.
func (q Qualifier) IsYearMonth() bool { return q.Start <= Month }

// Validate checks the field range and precisions.
func (q Qualifier) Validate() error {
	if q.Start > q.End || q.End > Second {
		return evalerr.TypeMismatch("invalid interval qualifier %s TO %s", q.Start, q.End)
	}
	if q.IsYearMonth() != (q.End <= Month) {
		return evalerr.TypeMismatch("interval qualifier %s TO %s mixes year-month and day-time fields", q.Start, q.End)
	}
	if q.Precision < 1 || q.Precision > maxIntervalPrecision {
		return evalerr.TypeMismatch("interval leading precision %d out of range", q.Precision)
	}
	if q.FractionalPrecision < 0 || q.FractionalPrecision > 9 {
		return evalerr.TypeMismatch("interval fractional precision %d out of range", q.FractionalPrecision)
	}
	return nil
}

func (q Qualifier) String() string {
	var b strings.Builder
	b.WriteString(q.Start.String())
	if q.Start == Second {
		fmt.Fprintf(&b, "(%d,%d)", q.Precision, q.FractionalPrecision)
		return b.String()
	}
	fmt.Fprintf(&b, "(%d)", q.Precision)
	if q.End != q.Start {
		b.WriteString(" TO ")
		b.WriteString(q.End.String())
		if q.End == Second {
			fmt.Fprintf(&b, "(%d)", q.FractionalPrecision)
		}
	}
	return b.String()
}

// Interval is a signed duration. Field magnitudes are non-negative; the sign
// is kept in Negative. Only the fields inside the qualifier are populated.
type Interval struct {
	Qualifier Qualifier
	Negative  bool
	Years     int64
	Months    int64
	Days      int64
	Hours     int64
	Minutes   int64
	Seconds   int64
	Nanos     int64
}

// YearMonth builds a YEAR TO MONTH interval with the given leading precision.
func YearMonth(years, months int64, precision int32) Interval {
	return Interval{Qualifier: NewQualifier(Year, Month).WithPrecision(precision, 0), Years: years, Months: months}
}

// DaySecond builds a DAY TO SECOND interval.
func DaySecond(days, hours, minutes, seconds, nanos int64, precision, fractional int32) Interval {
	return Interval{
		Qualifier: NewQualifier(Day, Second).WithPrecision(precision, fractional),
		Days:      days, Hours: hours, Minutes: minutes, Seconds: seconds, Nanos: nanos,
	}
}

// Abs clears the sign and keeps fields and precisions unchanged.
func (iv Interval) Abs() Interval {
	iv.Negative = false
	return iv
}

// Negate flips the sign. A zero interval stays non-negative.
func (iv Interval) Negate() Interval {
	if iv.isZero() {
		iv.Negative = false
		return iv
	}
	iv.Negative = !iv.Negative
	return iv
}

func (iv Interval) isZero() bool {
	return iv.Years == 0 && iv.Months == 0 && iv.Days == 0 && iv.Hours == 0 &&
		iv.Minutes == 0 && iv.Seconds == 0 && iv.Nanos == 0
}

// totalMonths returns the signed month count of a year-month interval.
func (iv Interval) totalMonths() int64 {
	m := iv.Years*12 + iv.Months
	if iv.Negative {
		return -m
	}
	return m
}

// totalSeconds returns the signed (seconds, nanos) pair of a day-time interval.
// Both components carry the sign.
func (iv Interval) totalSeconds() (int64, int64) {
	s := iv.Days*secondsPerDay + iv.Hours*3600 + iv.Minutes*60 + iv.Seconds
	if iv.Negative {
		return -s, -iv.Nanos
	}
	return s, iv.Nanos
}

// compareIntervals orders intervals of the same class by magnitude. Year-month
// intervals sort before day-time intervals.
func compareIntervals(a, b Interval) int {
	ay, by := a.Qualifier.IsYearMonth(), b.Qualifier.IsYearMonth()
	if ay != by {
		if ay {
			return -1
		}
		return 1
	}
	if ay {
		return cmpInt64(a.totalMonths(), b.totalMonths())
	}
	as, an := a.totalSeconds()
	bs, bn := b.totalSeconds()
	if c := cmpInt64(as, bs); c != 0 {
		return c
	}
	return cmpInt64(an, bn)
}

// spanQualifier returns the qualifier covering both operands' fields.
func spanQualifier(a, b Qualifier) Qualifier {
	q := Qualifier{Start: min(a.Start, b.Start), End: max(a.End, b.End), Precision: max(a.Precision, b.Precision)}
	if q.End == Second {
		q.FractionalPrecision = max(a.FractionalPrecision, b.FractionalPrecision)
	}
	return q
}

// addIntervals adds two intervals of the same class.
func addIntervals(a, b Interval) (Interval, error) {
	if a.Qualifier.IsYearMonth() != b.Qualifier.IsYearMonth() {
		return Interval{}, evalerr.TypeMismatch("cannot combine year-month and day-time intervals")
	}
	q := spanQualifier(a.Qualifier, b.Qualifier)
	if q.IsYearMonth() {
		return fromMonths(a.totalMonths()+b.totalMonths(), q)
	}
	as, an := a.totalSeconds()
	bs, bn := b.totalSeconds()
	return fromSeconds(as+bs, an+bn, q)
}

func fromMonths(total int64, q Qualifier) (Interval, error) {
	iv := Interval{Qualifier: q}
	if total < 0 {
		iv.Negative = true
		total = -total
	}
	switch {
	case q.Start == Year && q.End == Year:
		iv.Years = total / 12
		if total%12 != 0 {
			return Interval{}, evalerr.Overflow("interval result %d months is not a whole number of years", total)
		}
	case q.Start == Year:
		iv.Years, iv.Months = total/12, total%12
	default:
		iv.Months = total
	}
	return iv, iv.checkLeading()
}

func fromSeconds(secs, nanos int64, q Qualifier) (Interval, error) {
	secs += nanos / nanosPerSecond
	nanos %= nanosPerSecond
	if secs > 0 && nanos < 0 {
		secs--
		nanos += nanosPerSecond
	} else if secs < 0 && nanos > 0 {
		secs++
		nanos -= nanosPerSecond
	}

	iv := Interval{Qualifier: q}
	if secs < 0 || (secs == 0 && nanos < 0) {
		iv.Negative = true
		secs, nanos = -secs, -nanos
	}

	rest := secs
	for f := q.Start; f <= q.End; f++ {
		v := rest / secondsIn[f]
		rest -= v * secondsIn[f]
		switch f {
		case Day:
			iv.Days = v
		case Hour:
			iv.Hours = v
		case Minute:
			iv.Minutes = v
		case Second:
			iv.Seconds = v
		}
	}
	if q.End == Second {
		iv.Nanos = nanos
	} else if rest != 0 || nanos != 0 {
		return Interval{}, evalerr.Overflow("interval result does not fit qualifier %s", q)
	}
	return iv, iv.checkLeading()
}

// Requalify converts iv to the qualifier q of the same class. Fields below
// q's end are truncated toward zero, as are fractional seconds beyond q's
// fractional precision. A leading field wider than q's precision is an
// Overflow.
func (iv Interval) Requalify(q Qualifier) (Interval, error) {
	if err := q.Validate(); err != nil {
		return Interval{}, err
	}
	if iv.Qualifier.IsYearMonth() != q.IsYearMonth() {
		return Interval{}, evalerr.TypeMismatch("cannot convert INTERVAL %s to INTERVAL %s", iv.Qualifier, q)
	}

	if q.IsYearMonth() {
		total := iv.totalMonths()
		if q.End == Year {
			total -= total % 12
		}
		return fromMonths(total, q)
	}

	secs, nanos := iv.totalSeconds()
	if q.End == Second {
		step := int64(1)
		for range 9 - q.FractionalPrecision {
			step *= 10
		}
		nanos -= nanos % step
	} else {
		secs -= secs % secondsIn[q.End]
		nanos = 0
	}
	return fromSeconds(secs, nanos, q)
}

func (iv Interval) leading() int64 {
	switch iv.Qualifier.Start {
	case Year:
		return iv.Years
	case Month:
		return iv.Months
	case Day:
		return iv.Days
	case Hour:
		return iv.Hours
	case Minute:
		return iv.Minutes
	default:
		return iv.Seconds
	}
}

func (iv Interval) checkLeading() error {
	if int32(len(strconv.FormatInt(iv.leading(), 10))) > iv.Qualifier.Precision {
		return evalerr.Overflow("interval leading field %d exceeds precision %d", iv.leading(), iv.Qualifier.Precision)
	}
	return nil
}

// ParseInterval parses the body of an interval literal such as '-1-6' or
// '1 2:30:45.5' against the given qualifier.
func ParseInterval(text string, q Qualifier) (Interval, error) {
	if err := q.Validate(); err != nil {
		return Interval{}, err
	}

	body := strings.TrimSpace(text)
	iv := Interval{Qualifier: q}
	if strings.HasPrefix(body, "-") {
		iv.Negative = true
		body = body[1:]
	} else if strings.HasPrefix(body, "+") {
		body = body[1:]
	}

	var parts []string
	if q.IsYearMonth() {
		parts = strings.Split(body, "-")
	} else {
		parts = strings.FieldsFunc(body, func(r rune) bool { return r == ' ' || r == ':' })
	}
	want := int(q.End-q.Start) + 1
	if len(parts) != want {
		return Interval{}, evalerr.TypeMismatch("interval literal '%s' does not match qualifier %s", text, q)
	}

	limits := map[IntervalField]int64{Month: 11, Hour: 23, Minute: 59, Second: 59}
	for i, part := range parts {
		f := q.Start + IntervalField(i)
		whole := part
		if f == Second {
			if dot := strings.IndexByte(part, '.'); dot >= 0 {
				whole = part[:dot]
				frac := part[dot+1:]
				if int32(len(frac)) > q.FractionalPrecision {
					return Interval{}, evalerr.TypeMismatch("interval fractional seconds '%s' exceed precision %d", frac, q.FractionalPrecision)
				}
				n, err := strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
				if err != nil {
					return Interval{}, evalerr.TypeMismatch("invalid interval fractional seconds '%s'", frac)
				}
				iv.Nanos = n
			}
		}
		v, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || v < 0 {
			return Interval{}, evalerr.TypeMismatch("invalid interval field %s '%s'", f, part)
		}
		if i > 0 && v > limits[f] {
			return Interval{}, evalerr.TypeMismatch("interval field %s value %d out of range", f, v)
		}
		switch f {
		case Year:
			iv.Years = v
		case Month:
			iv.Months = v
		case Day:
			iv.Days = v
		case Hour:
			iv.Hours = v
		case Minute:
			iv.Minutes = v
		case Second:
			iv.Seconds = v
		}
	}

	if err := iv.checkLeading(); err != nil {
		return Interval{}, err
	}
	if iv.isZero() {
		iv.Negative = false
	}
	return iv, nil
}

// Body renders the literal body, e.g. -1-6 or 1 02:30:45.500000.
func (iv Interval) Body() string {
	var b strings.Builder
	if iv.Negative {
		b.WriteByte('-')
	}
	q := iv.Qualifier
	for f := q.Start; f <= q.End; f++ {
		if f != q.Start {
			switch {
			case f == Month:
				b.WriteByte('-')
			case f == Hour:
				b.WriteByte(' ')
			default:
				b.WriteByte(':')
			}
		}
		var v int64
		switch f {
		case Year:
			v = iv.Years
		case Month:
			v = iv.Months
		case Day:
			v = iv.Days
		case Hour:
			v = iv.Hours
		case Minute:
			v = iv.Minutes
		case Second:
			v = iv.Seconds
		}
		if f == q.Start {
			b.WriteString(strconv.FormatInt(v, 10))
		} else {
			fmt.Fprintf(&b, "%02d", v)
		}
		if f == Second && q.FractionalPrecision > 0 {
			frac := fmt.Sprintf("%09d", iv.Nanos)
			b.WriteByte('.')
			b.WriteString(frac[:q.FractionalPrecision])
		}
	}
	return b.String()
}

func (iv Interval) String() string {
	return fmt.Sprintf("INTERVAL '%s' %s", iv.Body(), iv.Qualifier)
}
