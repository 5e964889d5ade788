package datum

import (
	"slices"
	"strings"
)

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// rank positions each kind in the total order. Numbers share a rank so
// int32, int64 and decimal compare by value.
func rank(k Kind) int {
	switch k {
	case KindMissing, KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt32, KindInt64, KindDecimal:
		return 2
	case KindString:
		return 3
	case KindInterval:
		return 4
	case KindList:
		return 5
	case KindStruct:
		return 6
	case KindBag:
		return 7
	default:
		return 8
	}
}

// Comparable reports whether < and > are defined between a and b: both
// numbers, both strings, both booleans or intervals of the same class.
func Comparable(a, b Datum) bool {
	switch {
	case a.IsNumber() && b.IsNumber():
		return true
	case a.kind == KindInterval && b.kind == KindInterval:
		return a.iv.Qualifier.IsYearMonth() == b.iv.Qualifier.IsYearMonth()
	case a.kind == KindString, a.kind == KindBool:
		return a.kind == b.kind
	default:
		return false
	}
}

// Compare is the total order over all datums used by ORDER BY, DISTINCT and
// grouping. Absent values sort first, MISSING before NULL. Numbers compare by
// value across int32, int64 and decimal. Structs and bags are compared in a
// canonical (sorted) order so that Compare agrees with Equal.
func Compare(a, b Datum) int {
	ra, rb := rank(a.kind), rank(b.kind)
	if ra != rb {
		return cmpInt64(int64(ra), int64(rb))
	}

	switch a.kind {
	case KindMissing, KindNull:
		return cmpInt64(int64(a.kind), int64(b.kind))
	case KindBool:
		return cmpBool(a.AsBool(), b.AsBool())
	case KindInt32, KindInt64, KindDecimal:
		return compareNumbers(a, b)
	case KindString:
		return strings.Compare(a.s, b.s)
	case KindInterval:
		return compareIntervals(*a.iv, *b.iv)
	case KindList:
		return compareSeq(a.elems, b.elems)
	case KindStruct:
		return compareFields(sortedFields(a.fields), sortedFields(b.fields))
	case KindBag:
		return compareSeq(sortedElems(a.elems), sortedElems(b.elems))
	default:
		return 0
	}
}

func compareNumbers(a, b Datum) int {
	if a.IsInteger() && b.IsInteger() {
		return cmpInt64(a.n, b.n)
	}
	return a.AsDecimal().Cmp(b.AsDecimal())
}

func compareSeq(a, b []Datum) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt64(int64(len(a)), int64(len(b)))
}

func compareFields(a, b []Field) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i].Name, b[i].Name); c != 0 {
			return c
		}
		if c := Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	return cmpInt64(int64(len(a)), int64(len(b)))
}

func sortedFields(fields []Field) []Field {
	out := slices.Clone(fields)
	slices.SortStableFunc(out, func(x, y Field) int {
		if c := strings.Compare(x.Name, y.Name); c != 0 {
			return c
		}
		return Compare(x.Value, y.Value)
	})
	return out
}

func sortedElems(elems []Datum) []Datum {
	out := slices.Clone(elems)
	slices.SortStableFunc(out, Compare)
	return out
}

// Equal is structural equivalence: NULL equals NULL, numbers are equal by
// value, struct equality ignores field order but counts duplicates, and bags
// are compared by multiset matching.
func Equal(a, b Datum) bool {
	if a.IsNumber() && b.IsNumber() {
		return compareNumbers(a, b) == 0
	}
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindMissing, KindNull:
		return true
	case KindBool:
		return a.AsBool() == b.AsBool()
	case KindString:
		return a.s == b.s
	case KindInterval:
		return Comparable(a, b) && compareIntervals(*a.iv, *b.iv) == 0
	case KindList:
		return slices.EqualFunc(a.elems, b.elems, Equal)
	case KindStruct:
		return fieldsMatch(a.fields, b.fields, Equal)
	case KindBag:
		return MultisetEqual(a.elems, b.elems, Equal)
	default:
		return false
	}
}

// MultisetEqual reports whether a and b contain the same elements with the
// same multiplicities under eq. Each element of b is matched at most once.
func MultisetEqual(a, b []Datum, eq func(x, y Datum) bool) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, x := range a {
		for j, y := range b {
			if !used[j] && eq(x, y) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}

func fieldsMatch(a, b []Field, eq func(x, y Datum) bool) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, x := range a {
		for j, y := range b {
			if !used[j] && x.Name == y.Name && eq(x.Value, y.Value) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}

// Identical is stricter than Equal: kinds must match exactly, decimals must
// agree in scale and field order in structs is significant. Bags are still
// compared as multisets. It is meant for asserting evaluator output.
func Identical(a, b Datum) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindMissing, KindNull:
		return true
	case KindBool, KindInt32, KindInt64:
		return a.n == b.n
	case KindDecimal:
		return a.dec.Exponent() == b.dec.Exponent() && a.dec.Equal(b.dec)
	case KindString:
		return a.s == b.s
	case KindInterval:
		return *a.iv == *b.iv
	case KindList:
		return slices.EqualFunc(a.elems, b.elems, Identical)
	case KindStruct:
		return slices.EqualFunc(a.fields, b.fields, func(x, y Field) bool {
			return x.Name == y.Name && Identical(x.Value, y.Value)
		})
	case KindBag:
		return MultisetEqual(a.elems, b.elems, Identical)
	default:
		return false
	}
}
