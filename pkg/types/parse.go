package types

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"pqleval/pkg/datum"
)

// Parse reads a declared type written the way catalog files spell them:
//
//	INT, BIGINT, BOOL, STRING, VARCHAR(20), DECIMAL(10,2), DYNAMIC,
//	INTERVAL DAY(3) TO SECOND(6), BAG<STRUCT<id: INT, name: STRING>>
func Parse(text string) (Type, error) {
	p := &typeParser{tokens: tokenize(text)}
	t, err := p.parseType()
	if err != nil {
		return Type{}, fmt.Errorf("parse type %q: %w", text, err)
	}
	if !p.done() {
		return Type{}, fmt.Errorf("parse type %q: unexpected %q", text, p.peek())
	}
	return t, nil
}

// MustParse is Parse for static type strings; it panics on error.
func MustParse(text string) Type {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case strings.ContainsRune("(),<>:", r):
			flush()
			tokens = append(tokens, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

type typeParser struct {
	tokens []string
	pos    int
}

func (p *typeParser) done() bool { return p.pos >= len(p.tokens) }

func (p *typeParser) peek() string {
	if p.done() {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *typeParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *typeParser) accept(tok string) bool {
	if strings.EqualFold(p.peek(), tok) {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) expect(tok string) error {
	if !p.accept(tok) {
		return fmt.Errorf("expected %q, got %q", tok, p.peek())
	}
	return nil
}

func (p *typeParser) number() (int32, error) {
	n, err := strconv.ParseInt(p.next(), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("expected number: %w", err)
	}
	return int32(n), nil
}

// params parses an optional "(a[, b])" list.
func (p *typeParser) params() ([]int32, error) {
	if !p.accept("(") {
		return nil, nil
	}
	var out []int32
	for {
		n, err := p.number()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if p.accept(")") {
			return out, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func (p *typeParser) parseType() (Type, error) {
	name := strings.ToUpper(p.next())
	switch name {
	case "DYNAMIC", "ANY":
		return Dynamic(), nil
	case "BOOL", "BOOLEAN":
		return Bool(), nil
	case "INT", "INTEGER", "INT4":
		return Int(), nil
	case "BIGINT", "INT8":
		return BigInt(), nil
	case "STRING", "TEXT":
		return String(), nil
	case "VARCHAR":
		ps, err := p.params()
		if err != nil {
			return Type{}, err
		}
		if len(ps) != 1 {
			return Type{}, fmt.Errorf("VARCHAR needs a length")
		}
		return Varchar(ps[0]), nil
	case "DECIMAL", "NUMERIC":
		ps, err := p.params()
		if err != nil {
			return Type{}, err
		}
		switch len(ps) {
		case 0:
			return AnyDecimal(), nil
		case 1:
			return Decimal(ps[0], 0), nil
		default:
			return Decimal(ps[0], ps[1]), nil
		}
	case "INTERVAL":
		q, err := p.qualifier()
		if err != nil {
			return Type{}, err
		}
		return Interval(q), nil
	case "LIST", "BAG":
		elem := Dynamic()
		if p.accept("<") {
			var err error
			if elem, err = p.parseType(); err != nil {
				return Type{}, err
			}
			if err := p.expect(">"); err != nil {
				return Type{}, err
			}
		}
		if name == "LIST" {
			return List(elem), nil
		}
		return Bag(elem), nil
	case "STRUCT", "ROW":
		var fields []Field
		if p.accept("<") {
			for {
				fname := p.next()
				if err := p.expect(":"); err != nil {
					return Type{}, err
				}
				ft, err := p.parseType()
				if err != nil {
					return Type{}, err
				}
				fields = append(fields, Field{Name: fname, Type: ft})
				if p.accept(">") {
					break
				}
				if err := p.expect(","); err != nil {
					return Type{}, err
				}
			}
		}
		return Struct(fields...), nil
	case "":
		return Type{}, fmt.Errorf("unexpected end of input")
	default:
		return Type{}, fmt.Errorf("unknown type %q", name)
	}
}

var intervalFields = map[string]datum.IntervalField{
	"YEAR": datum.Year, "MONTH": datum.Month, "DAY": datum.Day,
	"HOUR": datum.Hour, "MINUTE": datum.Minute, "SECOND": datum.Second,
}

// qualifier parses "START[(p[,f])] [TO END[(f)]]".
func (p *typeParser) qualifier() (datum.Qualifier, error) {
	start, ok := intervalFields[strings.ToUpper(p.next())]
	if !ok {
		return datum.Qualifier{}, fmt.Errorf("expected interval field")
	}
	leading, err := p.params()
	if err != nil {
		return datum.Qualifier{}, err
	}

	end := start
	var trailing []int32
	if p.accept("TO") {
		if end, ok = intervalFields[strings.ToUpper(p.next())]; !ok {
			return datum.Qualifier{}, fmt.Errorf("expected interval field after TO")
		}
		if trailing, err = p.params(); err != nil {
			return datum.Qualifier{}, err
		}
	}

	q := datum.NewQualifier(start, end)
	fractional := q.FractionalPrecision
	if len(leading) > 0 {
		q.Precision = leading[0]
	}
	if start == datum.Second && len(leading) > 1 {
		fractional = leading[1]
	}
	if len(trailing) > 0 {
		fractional = trailing[0]
	}
	q = q.WithPrecision(q.Precision, fractional)
	return q, q.Validate()
}
