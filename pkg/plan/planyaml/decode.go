package planyaml

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"pqleval/pkg/datum/datumyaml"
	"pqleval/pkg/plan"
	"pqleval/pkg/types"
)

func opError(d *doc, format string, args ...any) error {
	return errors.Errorf("planyaml: %s: "+format, append([]any{d.Op}, args...)...)
}

func toRexes(ds []*doc) ([]plan.Rex, error) {
	out := make([]plan.Rex, len(ds))
	for i, d := range ds {
		r, err := toRex(d)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// optRex decodes an optional child; nil stays nil.
func optRex(d *doc) (plan.Rex, error) {
	if d == nil {
		return nil, nil
	}
	return toRex(d)
}

func toRex(d *doc) (plan.Rex, error) {
	if d == nil {
		return nil, errors.New("planyaml: missing expression")
	}

	switch strings.ToLower(d.Op) {
	case "lit":
		if d.Value.Kind == 0 {
			return nil, opError(d, "missing value")
		}
		v, err := datumyaml.Decode(&d.Value)
		if err != nil {
			return nil, errors.Wrap(err, "planyaml: lit")
		}
		return plan.L(v), nil
	case "var":
		return plan.V(d.Name), nil
	case "global":
		return plan.G(d.Name), nil
	case "field":
		root, err := toRex(d.Root)
		if err != nil {
			return nil, err
		}
		return &plan.PathField{Root: root, Name: d.Name, CaseInsensitive: d.CaseInsensitive}, nil
	case "index":
		root, err := toRex(d.Root)
		if err != nil {
			return nil, err
		}
		idx, err := toRex(d.Index)
		if err != nil {
			return nil, err
		}
		return &plan.PathIndex{Root: root, Index: idx}, nil
	case "unary":
		op, ok := plan.ParseUnaryOp(d.Operator)
		if !ok {
			return nil, opError(d, "unknown operator %q", d.Operator)
		}
		arg, err := toRex(d.Arg)
		if err != nil {
			return nil, err
		}
		return &plan.Unary{Op: op, Arg: arg}, nil
	case "binary":
		op, ok := plan.ParseBinaryOp(d.Operator)
		if !ok {
			return nil, opError(d, "unknown operator %q", d.Operator)
		}
		left, err := toRex(d.Left)
		if err != nil {
			return nil, err
		}
		right, err := toRex(d.Right)
		if err != nil {
			return nil, err
		}
		return plan.Bin(op, left, right), nil
	case "is":
		test, ok := plan.ParseIsTest(d.Test)
		if !ok {
			return nil, opError(d, "unknown test %q", d.Test)
		}
		arg, err := toRex(d.Arg)
		if err != nil {
			return nil, err
		}
		return &plan.Is{Test: test, Not: d.Not, Arg: arg}, nil
	case "in":
		arg, err := toRex(d.Arg)
		if err != nil {
			return nil, err
		}
		set, err := toRex(d.Set)
		if err != nil {
			return nil, err
		}
		return &plan.In{Arg: arg, Set: set}, nil
	case "case":
		out := &plan.Case{}
		for _, b := range d.Branches {
			when, err := toRex(b.When)
			if err != nil {
				return nil, err
			}
			then, err := toRex(b.Then)
			if err != nil {
				return nil, err
			}
			out.Branches = append(out.Branches, plan.Branch{When: when, Then: then})
		}
		var err error
		if out.Else, err = optRex(d.Else); err != nil {
			return nil, err
		}
		return out, nil
	case "coalesce":
		args, err := toRexes(d.Args)
		if err != nil {
			return nil, err
		}
		return &plan.Coalesce{Args: args}, nil
	case "nullif":
		left, err := toRex(d.Left)
		if err != nil {
			return nil, err
		}
		right, err := toRex(d.Right)
		if err != nil {
			return nil, err
		}
		return &plan.NullIf{Left: left, Right: right}, nil
	case "struct":
		out := &plan.StructCtor{}
		for _, f := range d.Fields {
			var key plan.Rex = plan.Str(f.Name)
			if f.Key != nil {
				var err error
				if key, err = toRex(f.Key); err != nil {
					return nil, err
				}
			}
			value, err := toRex(f.Value)
			if err != nil {
				return nil, err
			}
			out.Fields = append(out.Fields, plan.StructField{Key: key, Value: value})
		}
		return out, nil
	case "list", "bag", "tupleunion":
		args, err := toRexes(d.Args)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(d.Op) {
		case "list":
			return &plan.ListCtor{Elems: args}, nil
		case "bag":
			return &plan.BagCtor{Elems: args}, nil
		default:
			return &plan.TupleUnion{Args: args}, nil
		}
	case "cast":
		target, err := types.Parse(d.Type)
		if err != nil {
			return nil, errors.Wrap(err, "planyaml: cast")
		}
		arg, err := toRex(d.Arg)
		if err != nil {
			return nil, err
		}
		return &plan.Cast{Arg: arg, Target: target}, nil
	case "call":
		fn, ok := plan.ParseFunction(d.Fn)
		if !ok {
			return nil, opError(d, "unknown function %q", d.Fn)
		}
		args, err := toRexes(d.Args)
		if err != nil {
			return nil, err
		}
		return &plan.Call{Fn: fn, Args: args}, nil
	case "select":
		return toSelect(d)
	case "pivot":
		input, err := toRel(d.Input)
		if err != nil {
			return nil, err
		}
		key, err := toRex(d.Key)
		if err != nil {
			return nil, err
		}
		value, err := toRex(d.Project)
		if err != nil {
			return nil, err
		}
		return &plan.Pivot{Input: input, Key: key, Value: value}, nil
	case "subquery":
		if d.Query == nil {
			return nil, opError(d, "missing query")
		}
		q, err := toSelect(d.Query)
		if err != nil {
			return nil, err
		}
		return &plan.ScalarSubquery{Query: q}, nil
	case "collagg":
		fn, ok := plan.ParseAggFunc(d.Fn)
		if !ok {
			return nil, opError(d, "unknown aggregate %q", d.Fn)
		}
		arg, err := toRex(d.Arg)
		if err != nil {
			return nil, err
		}
		return &plan.CollAgg{Fn: fn, Distinct: d.Distinct, Arg: arg}, nil
	default:
		return nil, errors.Errorf("planyaml: unknown expression op %q", d.Op)
	}
}

func toSelect(d *doc) (*plan.Select, error) {
	if !strings.EqualFold(d.Op, "select") {
		return nil, errors.Errorf("planyaml: expected select, got %q", d.Op)
	}
	input, err := toRel(d.Input)
	if err != nil {
		return nil, err
	}
	project, err := toRex(d.Project)
	if err != nil {
		return nil, err
	}
	return plan.SelectValue(input, project), nil
}

func toRel(d *doc) (plan.Rel, error) {
	if d == nil {
		return nil, errors.New("planyaml: missing relation")
	}

	switch strings.ToLower(d.Op) {
	case "scan", "unpivot":
		source, err := toRex(d.Source)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(d.Op, "scan") {
			return &plan.Scan{Source: source, As: d.As, At: d.At}, nil
		}
		return &plan.Unpivot{Source: source, As: d.As, At: d.At}, nil
	case "join":
		kind := plan.InnerJoin
		if d.Kind != "" {
			var ok bool
			if kind, ok = plan.ParseJoinKind(d.Kind); !ok {
				return nil, opError(d, "unknown join kind %q", d.Kind)
			}
		}
		left, err := toRel(d.Left)
		if err != nil {
			return nil, err
		}
		right, err := toRel(d.Right)
		if err != nil {
			return nil, err
		}
		on, err := optRex(d.On)
		if err != nil {
			return nil, err
		}
		return &plan.Join{Kind: kind, Left: left, Right: right, On: on}, nil
	case "filter":
		input, err := toRel(d.Input)
		if err != nil {
			return nil, err
		}
		pred, err := toRex(d.Predicate)
		if err != nil {
			return nil, err
		}
		return plan.Where(input, pred), nil
	case "sort":
		input, err := toRel(d.Input)
		if err != nil {
			return nil, err
		}
		out := &plan.Sort{Input: input}
		for _, s := range d.Specs {
			key, err := toRex(s.Key)
			if err != nil {
				return nil, err
			}
			nulls, err := parseNulls(s.Nulls)
			if err != nil {
				return nil, err
			}
			out.Specs = append(out.Specs, plan.SortSpec{Key: key, Desc: s.Desc, Nulls: nulls})
		}
		return out, nil
	case "limit", "offset":
		input, err := toRel(d.Input)
		if err != nil {
			return nil, err
		}
		count, err := toRex(d.Count)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(d.Op, "limit") {
			return &plan.Limit{Input: input, Count: count}, nil
		}
		return &plan.Offset{Input: input, Count: count}, nil
	case "distinct":
		input, err := toRel(d.Input)
		if err != nil {
			return nil, err
		}
		return &plan.Distinct{Input: input}, nil
	case "exclude":
		input, err := toRel(d.Input)
		if err != nil {
			return nil, err
		}
		out := &plan.Exclude{Input: input}
		for _, text := range d.Paths {
			p, err := ParseExcludePath(text)
			if err != nil {
				return nil, err
			}
			out.Paths = append(out.Paths, p)
		}
		return out, nil
	case "aggregate":
		return toAggregate(d)
	case "setop":
		kind, ok := plan.ParseSetOpKind(d.Kind)
		if !ok {
			return nil, opError(d, "unknown set operator %q", d.Kind)
		}
		left, err := toRel(d.Left)
		if err != nil {
			return nil, err
		}
		right, err := toRel(d.Right)
		if err != nil {
			return nil, err
		}
		return &plan.SetOp{Kind: kind, All: d.All, Left: left, Right: right}, nil
	default:
		return nil, errors.Errorf("planyaml: unknown relation op %q", d.Op)
	}
}

func toAggregate(d *doc) (plan.Rel, error) {
	input, err := toRel(d.Input)
	if err != nil {
		return nil, err
	}
	out := &plan.Aggregate{Input: input, GroupAs: d.GroupAs}
	for _, k := range d.Keys {
		expr, err := toRex(k.Expr)
		if err != nil {
			return nil, err
		}
		out.Keys = append(out.Keys, plan.GroupKey{Expr: expr, Name: k.Name})
	}
	for _, c := range d.Calls {
		fn, ok := plan.ParseAggFunc(c.Fn)
		if !ok {
			return nil, opError(d, "unknown aggregate %q", c.Fn)
		}
		arg, err := optRex(c.Arg)
		if err != nil {
			return nil, err
		}
		out.Calls = append(out.Calls, plan.AggCall{Fn: fn, Distinct: c.Distinct, Arg: arg, Name: c.Name})
	}
	return out, nil
}

func parseNulls(s string) (plan.NullOrder, error) {
	switch strings.ToLower(s) {
	case "":
		return plan.NullsDefault, nil
	case "first":
		return plan.NullsFirst, nil
	case "last":
		return plan.NullsLast, nil
	default:
		return 0, errors.Errorf("planyaml: nulls must be first or last, got %q", s)
	}
}

// ParseExcludePath reads an exclude path such as t.a[*][0].*; a quoted
// step like t."my field" allows any characters in the field name.
func ParseExcludePath(text string) (plan.ExcludePath, error) {
	fail := func(msg string) (plan.ExcludePath, error) {
		return plan.ExcludePath{}, errors.Errorf("planyaml: exclude path %q: %s", text, msg)
	}

	i := strings.IndexAny(text, ".[")
	if i < 0 {
		i = len(text)
	}
	p := plan.ExcludePath{Root: text[:i]}
	if p.Root == "" {
		return fail("missing root")
	}

	rest := text[i:]
	for rest != "" {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			switch {
			case strings.HasPrefix(rest, "*"):
				p.Steps = append(p.Steps, plan.ExcludeStep{Kind: plan.StepFieldWildcard})
				rest = rest[1:]
			case strings.HasPrefix(rest, `"`):
				end := strings.IndexByte(rest[1:], '"')
				if end < 0 {
					return fail("unterminated quoted field")
				}
				p.Steps = append(p.Steps, plan.ExcludeStep{Kind: plan.StepField, Name: rest[1 : end+1]})
				rest = rest[end+2:]
			default:
				end := strings.IndexAny(rest, ".[")
				if end < 0 {
					end = len(rest)
				}
				if end == 0 {
					return fail("empty field")
				}
				p.Steps = append(p.Steps, plan.ExcludeStep{Kind: plan.StepField, Name: rest[:end]})
				rest = rest[end:]
			}
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return fail("unterminated index")
			}
			inner := rest[1:end]
			rest = rest[end+1:]
			if inner == "*" {
				p.Steps = append(p.Steps, plan.ExcludeStep{Kind: plan.StepIndexWildcard})
				continue
			}
			if strings.HasPrefix(inner, "'") && strings.HasSuffix(inner, "'") && len(inner) >= 2 {
				p.Steps = append(p.Steps, plan.ExcludeStep{Kind: plan.StepField, Name: inner[1 : len(inner)-1]})
				continue
			}
			n, err := strconv.ParseInt(inner, 10, 64)
			if err != nil || n < 0 {
				return fail("bad index " + inner)
			}
			p.Steps = append(p.Steps, plan.ExcludeStep{Kind: plan.StepIndex, Index: n})
		default:
			return fail("unexpected " + rest[:1])
		}
	}
	return p, nil
}
