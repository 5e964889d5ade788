package datum

import (
	"math/big"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind enumerates the closed set of runtime value kinds.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNull
	KindBool
	KindInt32
	KindInt64
	KindDecimal
	KindString
	KindInterval
	KindList
	KindStruct
	KindBag
)

var kindNames = [...]string{
	KindMissing:  "missing",
	KindNull:     "null",
	KindBool:     "bool",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindDecimal:  "decimal",
	KindString:   "string",
	KindInterval: "interval",
	KindList:     "list",
	KindStruct:   "struct",
	KindBag:      "bag",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Field is one named member of a struct. Names may repeat within a struct.
type Field struct {
	Name  string
	Value Datum
}

// F is shorthand for building a Field.
func F(name string, value Datum) Field {
	return Field{Name: name, Value: value}
}

// Datum is an immutable runtime value. The zero Datum is MISSING.
//
// Scalars keep their payload inline: bools and integers in n, strings in s,
// decimals in dec with the declared precision in n. Composites own their
// children; constructors copy the slices they receive.
type Datum struct {
	kind   Kind
	n      int64
	s      string
	dec    decimal.Decimal
	iv     *Interval
	fields []Field
	elems  []Datum
}

// Missing returns the absent value.
func Missing() Datum { return Datum{} }

// Null returns the SQL null value.
func Null() Datum { return Datum{kind: KindNull} }

// Bool returns a boolean datum.
func Bool(b bool) Datum {
	d := Datum{kind: KindBool}
	if b {
		d.n = 1
	}
	return d
}

// Int32 returns a 32-bit integer datum.
func Int32(v int32) Datum { return Datum{kind: KindInt32, n: int64(v)} }

// Int64 returns a 64-bit integer datum.
func Int64(v int64) Datum { return Datum{kind: KindInt64, n: v} }

// String returns a string datum.
func String(s string) Datum { return Datum{kind: KindString, s: s} }

// Struct returns a struct datum with the given fields in order.
func Struct(fields ...Field) Datum {
	return Datum{kind: KindStruct, fields: slices.Clone(fields)}
}

// List returns an ordered collection.
func List(elems ...Datum) Datum {
	return Datum{kind: KindList, elems: slices.Clone(elems)}
}

// Bag returns an unordered collection.
func Bag(elems ...Datum) Datum {
	return Datum{kind: KindBag, elems: slices.Clone(elems)}
}

// listOwned and bagOwned take ownership of elems without copying.
func listOwned(elems []Datum) Datum { return Datum{kind: KindList, elems: elems} }
func bagOwned(elems []Datum) Datum  { return Datum{kind: KindBag, elems: elems} }

// Collect builds a List (ordered) or Bag from elems, taking ownership of the slice.
// Callers must not modify elems afterwards.
func Collect(elems []Datum, ordered bool) Datum {
	if ordered {
		return listOwned(elems)
	}
	return bagOwned(elems)
}

// StructOwned builds a struct taking ownership of fields.
// Callers must not modify fields afterwards.
func StructOwned(fields []Field) Datum {
	return Datum{kind: KindStruct, fields: fields}
}

// IntervalOf wraps an interval value.
func IntervalOf(iv Interval) Datum {
	return Datum{kind: KindInterval, iv: &iv}
}

// Kind returns the runtime kind.
func (d Datum) Kind() Kind { return d.kind }

func (d Datum) IsMissing() bool { return d.kind == KindMissing }
func (d Datum) IsNull() bool    { return d.kind == KindNull }

// IsAbsent reports whether d is NULL or MISSING.
func (d Datum) IsAbsent() bool { return d.kind == KindMissing || d.kind == KindNull }

// IsNumber reports whether d is an integer or decimal.
func (d Datum) IsNumber() bool {
	return d.kind == KindInt32 || d.kind == KindInt64 || d.kind == KindDecimal
}

// IsInteger reports whether d is an int32 or int64.
func (d Datum) IsInteger() bool { return d.kind == KindInt32 || d.kind == KindInt64 }

// IsCollection reports whether d is a List or Bag.
func (d Datum) IsCollection() bool { return d.kind == KindList || d.kind == KindBag }

// AsBool returns the boolean payload. It is false for non-boolean datums.
func (d Datum) AsBool() bool { return d.kind == KindBool && d.n != 0 }

// AsInt64 returns the integer payload widened to int64.
func (d Datum) AsInt64() int64 { return d.n }

// AsString returns the string payload.
func (d Datum) AsString() string { return d.s }

// AsDecimal returns the numeric payload as a decimal. Integers convert with scale 0.
func (d Datum) AsDecimal() decimal.Decimal {
	switch d.kind {
	case KindInt32, KindInt64:
		return decimal.NewFromInt(d.n)
	case KindDecimal:
		return d.dec
	default:
		return decimal.Zero
	}
}

// Precision returns the declared precision of a decimal, or the natural
// precision of an integer (10 for int32, 19 for int64).
func (d Datum) Precision() int32 {
	switch d.kind {
	case KindDecimal:
		return int32(d.n)
	case KindInt32:
		return 10
	case KindInt64:
		return 19
	default:
		return 0
	}
}

// Scale returns the number of fractional digits of a decimal. Integers have scale 0.
func (d Datum) Scale() int32 {
	if d.kind == KindDecimal {
		return -d.dec.Exponent()
	}
	return 0
}

// Unscaled returns the unscaled integer of a decimal.
func (d Datum) Unscaled() *big.Int {
	if d.kind == KindDecimal {
		return d.dec.Coefficient()
	}
	return big.NewInt(d.n)
}

// AsInterval returns the interval payload.
func (d Datum) AsInterval() Interval {
	if d.iv == nil {
		return Interval{}
	}
	return *d.iv
}

// Fields returns the struct fields. The slice must not be modified.
func (d Datum) Fields() []Field { return d.fields }

// Elems returns the collection elements. The slice must not be modified.
func (d Datum) Elems() []Datum { return d.elems }

// Len returns the number of elements of a collection or fields of a struct.
func (d Datum) Len() int {
	if d.kind == KindStruct {
		return len(d.fields)
	}
	return len(d.elems)
}

// Get returns the first field named name.
func (d Datum) Get(name string) (Datum, bool) {
	for _, f := range d.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Missing(), false
}

// GetFold returns the first field whose name matches name case-insensitively.
func (d Datum) GetFold(name string) (Datum, bool) {
	for _, f := range d.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return Missing(), false
}

// Index returns the element at zero-based position i of a List.
func (d Datum) Index(i int64) (Datum, bool) {
	if d.kind != KindList || i < 0 || i >= int64(len(d.elems)) {
		return Missing(), false
	}
	return d.elems[i], true
}
