package datum

import (
	"strconv"
	"strings"
)

// String renders d in PartiQL literal syntax: <<...>> for bags, [...] for
// lists, {'k': v} for structs.
func (d Datum) String() string {
	var b strings.Builder
	d.format(&b)
	return b.String()
}

func (d Datum) format(b *strings.Builder) {
	switch d.kind {
	case KindMissing:
		b.WriteString("missing")
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(d.AsBool()))
	case KindInt32, KindInt64:
		b.WriteString(strconv.FormatInt(d.n, 10))
	case KindDecimal:
		b.WriteString(d.dec.StringFixed(-d.dec.Exponent()))
	case KindString:
		quote(b, d.s)
	case KindInterval:
		b.WriteString(d.iv.String())
	case KindList:
		b.WriteByte('[')
		formatElems(b, d.elems)
		b.WriteByte(']')
	case KindBag:
		b.WriteString("<<")
		formatElems(b, d.elems)
		b.WriteString(">>")
	case KindStruct:
		b.WriteByte('{')
		for i, f := range d.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			quote(b, f.Name)
			b.WriteString(": ")
			f.Value.format(b)
		}
		b.WriteByte('}')
	}
}

func formatElems(b *strings.Builder, elems []Datum) {
	for i, e := range elems {
		if i > 0 {
			b.WriteString(", ")
		}
		e.format(b)
	}
}

func quote(b *strings.Builder, s string) {
	b.WriteByte('\'')
	b.WriteString(strings.ReplaceAll(s, "'", "''"))
	b.WriteByte('\'')
}

// Pretty renders d with one collection element or struct field per line.
func (d Datum) Pretty() string {
	var b strings.Builder
	d.pretty(&b, 0)
	return b.String()
}

func (d Datum) pretty(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth+1)
	closing := strings.Repeat("  ", depth)

	switch d.kind {
	case KindList, KindBag:
		if len(d.elems) == 0 {
			d.format(b)
			return
		}
		open, end := "[", "]"
		if d.kind == KindBag {
			open, end = "<<", ">>"
		}
		b.WriteString(open)
		b.WriteByte('\n')
		for i, e := range d.elems {
			b.WriteString(indent)
			e.pretty(b, depth+1)
			if i < len(d.elems)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(closing)
		b.WriteString(end)
	case KindStruct:
		if len(d.fields) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		for i, f := range d.fields {
			b.WriteString(indent)
			quote(b, f.Name)
			b.WriteString(": ")
			f.Value.pretty(b, depth+1)
			if i < len(d.fields)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(closing)
		b.WriteByte('}')
	default:
		d.format(b)
	}
}
