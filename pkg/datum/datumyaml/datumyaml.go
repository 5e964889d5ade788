// Package datumyaml maps YAML documents to datums and back.
//
// Mappings become structs (field order and duplicate keys are preserved),
// sequences become lists, and plain scalars follow YAML's own resolution:
// integers become INT when they fit 32 bits and BIGINT otherwise, floats
// become decimals keeping the written scale, null becomes NULL. Local tags
// cover what YAML cannot say natively:
//
//	!bag [1, 2]                    bag
//	!missing                       MISSING
//	!bigint 1                      BIGINT even when small
//	!decimal 20                    decimal with the written scale
//	!interval 1-6 YEAR TO MONTH    interval, body then qualifier
package datumyaml

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"pqleval/pkg/datum"
	"pqleval/pkg/types"
)

const (
	TagBag      = "!bag"
	TagMissing  = "!missing"
	TagBigInt   = "!bigint"
	TagDecimal  = "!decimal"
	TagInterval = "!interval"
)

// Decode converts a YAML node to a datum.
func Decode(n *yaml.Node) (datum.Datum, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return datum.Missing(), nil
		}
		return Decode(n.Content[0])
	case yaml.AliasNode:
		return Decode(n.Alias)
	case yaml.SequenceNode:
		elems := make([]datum.Datum, len(n.Content))
		for i, c := range n.Content {
			d, err := Decode(c)
			if err != nil {
				return datum.Missing(), err
			}
			elems[i] = d
		}
		return datum.Collect(elems, n.Tag != TagBag), nil
	case yaml.MappingNode:
		fields := make([]datum.Field, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := Decode(n.Content[i+1])
			if err != nil {
				return datum.Missing(), err
			}
			fields = append(fields, datum.F(n.Content[i].Value, v))
		}
		return datum.StructOwned(fields), nil
	case yaml.ScalarNode:
		return decodeScalar(n)
	default:
		return datum.Missing(), errors.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

func decodeScalar(n *yaml.Node) (datum.Datum, error) {
	switch n.Tag {
	case TagMissing:
		return datum.Missing(), nil
	case TagBigInt:
		v, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return datum.Missing(), errors.Wrapf(err, "line %d: bad !bigint", n.Line)
		}
		return datum.Int64(v), nil
	case TagDecimal:
		d, err := datum.ParseDecimal(n.Value)
		return d, errors.Wrapf(err, "line %d: bad !decimal", n.Line)
	case TagInterval:
		iv, err := ParseInterval(n.Value)
		if err != nil {
			return datum.Missing(), errors.Wrapf(err, "line %d", n.Line)
		}
		return datum.IntervalOf(iv), nil
	}

	switch n.ShortTag() {
	case "!!null":
		return datum.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return datum.Missing(), errors.Wrapf(err, "line %d", n.Line)
		}
		return datum.Bool(b), nil
	case "!!int":
		v, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
		if err != nil {
			return datum.Missing(), errors.Wrapf(err, "line %d: bad integer", n.Line)
		}
		return types.ParseInt(strconv.FormatInt(v, 10))
	case "!!float":
		d, err := datum.ParseDecimal(n.Value)
		return d, errors.Wrapf(err, "line %d: only finite decimal literals are supported", n.Line)
	case "!!str":
		return datum.String(n.Value), nil
	default:
		return datum.Missing(), errors.Errorf("line %d: unsupported tag %s", n.Line, n.Tag)
	}
}

// ParseInterval reads "body qualifier", e.g. "-1-6 YEAR TO MONTH" or
// "1 02:00:00.5 DAY TO SECOND(1)".
func ParseInterval(text string) (datum.Interval, error) {
	text = strings.TrimSpace(text)
	split := strings.IndexFunc(text, unicode.IsLetter)
	if split <= 0 {
		return datum.Interval{}, fmt.Errorf("interval %q needs a body and a qualifier", text)
	}
	t, err := types.Parse("INTERVAL " + text[split:])
	if err != nil {
		return datum.Interval{}, err
	}
	return datum.ParseInterval(text[:split], t.Qualifier)
}

// Encode converts a datum to a YAML node that Decode reads back as an
// identical datum.
func Encode(d datum.Datum) *yaml.Node {
	switch d.Kind() {
	case datum.KindMissing:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: TagMissing}
	case datum.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case datum.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(d.AsBool())}
	case datum.KindInt32:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(d.AsInt64(), 10)}
	case datum.KindInt64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: TagBigInt, Value: strconv.FormatInt(d.AsInt64(), 10)}
	case datum.KindDecimal:
		text := d.String()
		if d.Scale() > 0 {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: text}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: TagDecimal, Value: text}
	case datum.KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: d.AsString()}
	case datum.KindInterval:
		iv := d.AsInterval()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: TagInterval, Value: iv.Body() + " " + iv.Qualifier.String()}
	case datum.KindList, datum.KindBag:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		if d.Kind() == datum.KindBag {
			n.Tag = TagBag
		}
		for _, e := range d.Elems() {
			n.Content = append(n.Content, Encode(e))
		}
		return n
	default:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Style: yaml.FlowStyle}
		for _, f := range d.Fields() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name},
				Encode(f.Value),
			)
		}
		return n
	}
}

// Unmarshal decodes a YAML document into a datum.
func Unmarshal(data []byte) (datum.Datum, error) {
	var n yaml.Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return datum.Missing(), errors.Wrap(err, "parse yaml")
	}
	if n.Kind == 0 {
		return datum.Missing(), nil
	}
	return Decode(&n)
}

// Marshal renders d as a YAML document.
func Marshal(d datum.Datum) ([]byte, error) {
	return yaml.Marshal(Encode(d))
}
