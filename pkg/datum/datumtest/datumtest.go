// Package datumtest provides assertion helpers for tests that compare datums.
package datumtest

import (
	"fmt"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"

	"pqleval/pkg/datum"
)

// AssertIdentical fails the test unless actual is datum.Identical to
// expected. Kinds and decimal scales must match; bags compare as multisets.
func AssertIdentical(t testing.TB, expected, actual datum.Datum, msgAndArgs ...any) bool {
	t.Helper()
	if datum.Identical(expected, actual) {
		return true
	}
	return assert.Fail(t, "datums are not identical\n"+Diff(expected, actual), msgAndArgs...)
}

// AssertEqual fails the test unless actual is datum.Equal to expected.
func AssertEqual(t testing.TB, expected, actual datum.Datum, msgAndArgs ...any) bool {
	t.Helper()
	if datum.Equal(expected, actual) {
		return true
	}
	return assert.Fail(t, "datums are not equal\n"+Diff(expected, actual), msgAndArgs...)
}

// Diff renders a character diff between the pretty forms of two datums.
func Diff(expected, actual datum.Datum) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(expected.Pretty(), actual.Pretty(), false)
	return fmt.Sprintf("expected: %s\nactual:   %s\ndiff:\n%s",
		expected, actual, dmp.DiffPrettyText(diffs))
}

// Dec parses a decimal literal and panics on failure.
func Dec(literal string) datum.Datum {
	return datum.MustDecimal(literal)
}

// Row builds a struct from alternating name/value pairs.
func Row(pairs ...any) datum.Datum {
	if len(pairs)%2 != 0 {
		panic("datumtest.Row needs name/value pairs")
	}
	fields := make([]datum.Field, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		fields = append(fields, datum.F(pairs[i].(string), pairs[i+1].(datum.Datum)))
	}
	return datum.Struct(fields...)
}
