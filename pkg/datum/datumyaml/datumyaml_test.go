package datumyaml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pqleval/pkg/datum"
	"pqleval/pkg/datum/datumtest"
)

func TestUnmarshalScalars(t *testing.T) {
	tests := []struct {
		name string
		text string
		want datum.Datum
	}{
		{"int", "42", datum.Int32(42)},
		{"big int", "9999999999", datum.Int64(9999999999)},
		{"tagged bigint", "!bigint 1", datum.Int64(1)},
		{"float keeps scale", "2.50", datumtest.Dec("2.50")},
		{"tagged decimal", "!decimal 20", datumtest.Dec("20")},
		{"string", "hello", datum.String("hello")},
		{"quoted number is a string", `"12"`, datum.String("12")},
		{"bool", "true", datum.Bool(true)},
		{"null", "null", datum.Null()},
		{"tilde", "~", datum.Null()},
		{"missing", "!missing", datum.Missing()},
		{"empty document", "", datum.Missing()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unmarshal([]byte(tt.text))
			require.NoError(t, err)
			datumtest.AssertIdentical(t, tt.want, got)
		})
	}
}

func TestUnmarshalComposites(t *testing.T) {
	text := `
rows: !bag
  - {id: 1, name: alice}
  - {id: 2, name: bob, name: robert}
tags: [a, b]
`
	got, err := Unmarshal([]byte(text))
	require.NoError(t, err)

	want := datumtest.Row(
		"rows", datum.Bag(
			datumtest.Row("id", datum.Int32(1), "name", datum.String("alice")),
			datumtest.Row("id", datum.Int32(2), "name", datum.String("bob"), "name", datum.String("robert")),
		),
		"tags", datum.List(datum.String("a"), datum.String("b")),
	)
	datumtest.AssertIdentical(t, want, got)
}

func TestUnmarshalInterval(t *testing.T) {
	got, err := Unmarshal([]byte(`!interval "-1-6 YEAR TO MONTH"`))
	require.NoError(t, err)
	require.Equal(t, datum.KindInterval, got.Kind())

	iv := got.AsInterval()
	assert.True(t, iv.Negative)
	assert.Equal(t, int64(1), iv.Years)
	assert.Equal(t, int64(6), iv.Months)

	_, err = Unmarshal([]byte(`!interval "YEAR"`))
	assert.Error(t, err)
}

func TestUnmarshalErrors(t *testing.T) {
	for _, text := range []string{"!bigint abc", "!decimal x", ".inf", "[1, 2"} {
		_, err := Unmarshal([]byte(text))
		assert.Error(t, err, text)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	iv, err := ParseInterval("1 02:03:04.5 DAY TO SECOND(1)")
	require.NoError(t, err)

	values := []datum.Datum{
		datum.Int32(7),
		datum.Int64(7),
		datumtest.Dec("20"),
		datumtest.Dec("-3.140"),
		datum.String("123"),
		datum.String("it's"),
		datum.Null(),
		datum.Bool(false),
		datum.IntervalOf(iv),
		datum.List(datum.Int32(1), datum.Missing(), datum.Null()),
		datum.Bag(datumtest.Row("a", datum.Int32(1)), datumtest.Row("a", datum.Int32(1))),
		datumtest.Row("k", datum.String("v"), "k", datum.Bag()),
	}

	for _, v := range values {
		t.Run(v.String(), func(t *testing.T) {
			out, err := Marshal(v)
			require.NoError(t, err)

			back, err := Unmarshal(out)
			require.NoError(t, err, string(out))
			datumtest.AssertIdentical(t, v, back, string(out))
		})
	}
}
