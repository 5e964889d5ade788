package planyaml

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"pqleval/pkg/datum"
	"pqleval/pkg/datum/datumyaml"
	"pqleval/pkg/plan"
)

func fromRexes(rs []plan.Rex) ([]*doc, error) {
	out := make([]*doc, len(rs))
	for i, r := range rs {
		d, err := fromRex(r)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func optDoc(r plan.Rex) (*doc, error) {
	if r == nil {
		return nil, nil
	}
	return fromRex(r)
}

func fromRex(r plan.Rex) (*doc, error) {
	var err error
	switch n := r.(type) {
	case *plan.Lit:
		return &doc{Op: "lit", Value: *datumyaml.Encode(n.Value)}, nil
	case *plan.Var:
		return &doc{Op: "var", Name: n.Name}, nil
	case *plan.Global:
		return &doc{Op: "global", Name: n.Name}, nil
	case *plan.PathField:
		d := &doc{Op: "field", Name: n.Name, CaseInsensitive: n.CaseInsensitive}
		d.Root, err = fromRex(n.Root)
		return d, err
	case *plan.PathIndex:
		d := &doc{Op: "index"}
		if d.Root, err = fromRex(n.Root); err != nil {
			return nil, err
		}
		d.Index, err = fromRex(n.Index)
		return d, err
	case *plan.Unary:
		d := &doc{Op: "unary", Operator: strings.ToLower(n.Op.String())}
		d.Arg, err = fromRex(n.Arg)
		return d, err
	case *plan.Binary:
		return binaryDoc("binary", n.Op.String(), n.Left, n.Right)
	case *plan.Is:
		d := &doc{Op: "is", Test: strings.ToLower(n.Test.String()), Not: n.Not}
		d.Arg, err = fromRex(n.Arg)
		return d, err
	case *plan.In:
		d := &doc{Op: "in"}
		if d.Arg, err = fromRex(n.Arg); err != nil {
			return nil, err
		}
		d.Set, err = fromRex(n.Set)
		return d, err
	case *plan.Case:
		d := &doc{Op: "case"}
		for _, b := range n.Branches {
			var out branch
			if out.When, err = fromRex(b.When); err != nil {
				return nil, err
			}
			if out.Then, err = fromRex(b.Then); err != nil {
				return nil, err
			}
			d.Branches = append(d.Branches, out)
		}
		d.Else, err = optDoc(n.Else)
		return d, err
	case *plan.Coalesce:
		d := &doc{Op: "coalesce"}
		d.Args, err = fromRexes(n.Args)
		return d, err
	case *plan.NullIf:
		return binaryDoc("nullif", "", n.Left, n.Right)
	case *plan.StructCtor:
		d := &doc{Op: "struct"}
		for _, f := range n.Fields {
			var out field
			if lit, ok := f.Key.(*plan.Lit); ok && lit.Value.Kind() == datum.KindString {
				out.Name = lit.Value.AsString()
			} else if out.Key, err = fromRex(f.Key); err != nil {
				return nil, err
			}
			if out.Value, err = fromRex(f.Value); err != nil {
				return nil, err
			}
			d.Fields = append(d.Fields, out)
		}
		return d, nil
	case *plan.ListCtor:
		d := &doc{Op: "list"}
		d.Args, err = fromRexes(n.Elems)
		return d, err
	case *plan.BagCtor:
		d := &doc{Op: "bag"}
		d.Args, err = fromRexes(n.Elems)
		return d, err
	case *plan.TupleUnion:
		d := &doc{Op: "tupleunion"}
		d.Args, err = fromRexes(n.Args)
		return d, err
	case *plan.Cast:
		d := &doc{Op: "cast", Type: n.Target.String()}
		d.Arg, err = fromRex(n.Arg)
		return d, err
	case *plan.Call:
		d := &doc{Op: "call", Fn: strings.ToLower(n.Fn.String())}
		d.Args, err = fromRexes(n.Args)
		return d, err
	case *plan.Select:
		d := &doc{Op: "select"}
		if d.Input, err = fromRel(n.Input); err != nil {
			return nil, err
		}
		d.Project, err = fromRex(n.Constructor)
		return d, err
	case *plan.Pivot:
		d := &doc{Op: "pivot"}
		if d.Input, err = fromRel(n.Input); err != nil {
			return nil, err
		}
		if d.Key, err = fromRex(n.Key); err != nil {
			return nil, err
		}
		d.Project, err = fromRex(n.Value)
		return d, err
	case *plan.ScalarSubquery:
		d := &doc{Op: "subquery"}
		d.Query, err = fromRex(n.Query)
		return d, err
	case *plan.CollAgg:
		d := &doc{Op: "collagg", Fn: strings.ToLower(n.Fn.String()), Distinct: n.Distinct}
		d.Arg, err = fromRex(n.Arg)
		return d, err
	default:
		return nil, errors.Errorf("planyaml: cannot encode expression %T", r)
	}
}

func binaryDoc(op, operator string, left, right plan.Rex) (*doc, error) {
	d := &doc{Op: op, Operator: operator}
	var err error
	if d.Left, err = fromRex(left); err != nil {
		return nil, err
	}
	d.Right, err = fromRex(right)
	return d, err
}

func fromRel(r plan.Rel) (*doc, error) {
	var err error
	switch n := r.(type) {
	case *plan.Scan:
		d := &doc{Op: "scan", As: n.As, At: n.At}
		d.Source, err = fromRex(n.Source)
		return d, err
	case *plan.Unpivot:
		d := &doc{Op: "unpivot", As: n.As, At: n.At}
		d.Source, err = fromRex(n.Source)
		return d, err
	case *plan.Join:
		d := &doc{Op: "join", Kind: strings.ToLower(n.Kind.String())}
		if d.Left, err = fromRel(n.Left); err != nil {
			return nil, err
		}
		if d.Right, err = fromRel(n.Right); err != nil {
			return nil, err
		}
		d.On, err = optDoc(n.On)
		return d, err
	case *plan.Filter:
		d := &doc{Op: "filter"}
		if d.Input, err = fromRel(n.Input); err != nil {
			return nil, err
		}
		d.Predicate, err = fromRex(n.Predicate)
		return d, err
	case *plan.Sort:
		d := &doc{Op: "sort"}
		if d.Input, err = fromRel(n.Input); err != nil {
			return nil, err
		}
		for _, s := range n.Specs {
			out := sortSpec{Desc: s.Desc}
			switch s.Nulls {
			case plan.NullsFirst:
				out.Nulls = "first"
			case plan.NullsLast:
				out.Nulls = "last"
			}
			if out.Key, err = fromRex(s.Key); err != nil {
				return nil, err
			}
			d.Specs = append(d.Specs, out)
		}
		return d, nil
	case *plan.Limit:
		return countDoc("limit", n.Input, n.Count)
	case *plan.Offset:
		return countDoc("offset", n.Input, n.Count)
	case *plan.Distinct:
		d := &doc{Op: "distinct"}
		d.Input, err = fromRel(n.Input)
		return d, err
	case *plan.Exclude:
		d := &doc{Op: "exclude"}
		if d.Input, err = fromRel(n.Input); err != nil {
			return nil, err
		}
		for _, p := range n.Paths {
			d.Paths = append(d.Paths, formatExcludePath(p))
		}
		return d, nil
	case *plan.Aggregate:
		d := &doc{Op: "aggregate", GroupAs: n.GroupAs}
		if d.Input, err = fromRel(n.Input); err != nil {
			return nil, err
		}
		for _, k := range n.Keys {
			out := groupKey{Name: k.Name}
			if out.Expr, err = fromRex(k.Expr); err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, out)
		}
		for _, c := range n.Calls {
			out := aggCall{Fn: strings.ToLower(c.Fn.String()), Distinct: c.Distinct, Name: c.Name}
			if out.Arg, err = optDoc(c.Arg); err != nil {
				return nil, err
			}
			d.Calls = append(d.Calls, out)
		}
		return d, nil
	case *plan.SetOp:
		d := &doc{Op: "setop", Kind: strings.ToLower(n.Kind.String()), All: n.All}
		if d.Left, err = fromRel(n.Left); err != nil {
			return nil, err
		}
		d.Right, err = fromRel(n.Right)
		return d, err
	default:
		return nil, errors.Errorf("planyaml: cannot encode relation %T", r)
	}
}

func countDoc(op string, input plan.Rel, count plan.Rex) (*doc, error) {
	d := &doc{Op: op}
	var err error
	if d.Input, err = fromRel(input); err != nil {
		return nil, err
	}
	d.Count, err = fromRex(count)
	return d, err
}

func formatExcludePath(p plan.ExcludePath) string {
	var sb strings.Builder
	sb.WriteString(p.Root)
	for _, s := range p.Steps {
		switch s.Kind {
		case plan.StepField:
			if s.Name == "" || strings.ContainsAny(s.Name, `.[]*"`) {
				sb.WriteString("['" + s.Name + "']")
			} else {
				sb.WriteString("." + s.Name)
			}
		case plan.StepFieldWildcard:
			sb.WriteString(".*")
		case plan.StepIndex:
			sb.WriteString("[" + strconv.FormatInt(s.Index, 10) + "]")
		default:
			sb.WriteString("[*]")
		}
	}
	return sb.String()
}
