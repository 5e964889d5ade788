package plan

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"pqleval/pkg/utils"
)

// Validate checks the structure of a plan and reports every defect it finds,
// not just the first. It does not type-check expressions.
func Validate(root Rex) error {
	v := &validator{}
	v.rex(root, "root")
	return v.errs.ErrorOrNil()
}

type validator struct {
	errs *multierror.Error
}

func (v *validator) fail(path, format string, args ...any) {
	v.errs = multierror.Append(v.errs, fmt.Errorf("%s: %s", path, fmt.Sprintf(format, args...)))
}

// present reports whether n is set, recording a defect when it is not.
func (v *validator) present(n Node, path string) bool {
	if utils.IsNil(n) {
		v.fail(path, "missing child")
		return false
	}
	return true
}

func (v *validator) rexes(rs []Rex, path string) {
	for i, r := range rs {
		v.rex(r, fmt.Sprintf("%s[%d]", path, i))
	}
}

func (v *validator) rex(r Rex, path string) {
	if !v.present(r, path) {
		return
	}
	path = path + "/" + r.NodeType()

	switch n := r.(type) {
	case *Lit, *Global:
	case *Var:
		if n.Name == "" {
			v.fail(path, "empty variable name")
		}
	case *PathField:
		v.rex(n.Root, path+".Root")
	case *PathIndex:
		v.rex(n.Root, path+".Root")
		v.rex(n.Index, path+".Index")
	case *Unary:
		v.rex(n.Arg, path+".Arg")
	case *Binary:
		v.rex(n.Left, path+".Left")
		v.rex(n.Right, path+".Right")
	case *Is:
		v.rex(n.Arg, path+".Arg")
	case *In:
		v.rex(n.Arg, path+".Arg")
		v.rex(n.Set, path+".Set")
	case *Case:
		if len(n.Branches) == 0 {
			v.fail(path, "CASE without WHEN")
		}
		for i, b := range n.Branches {
			v.rex(b.When, fmt.Sprintf("%s.When[%d]", path, i))
			v.rex(b.Then, fmt.Sprintf("%s.Then[%d]", path, i))
		}
		if !utils.IsNil(n.Else) {
			v.rex(n.Else, path+".Else")
		}
	case *Coalesce:
		if len(n.Args) == 0 {
			v.fail(path, "COALESCE needs arguments")
		}
		v.rexes(n.Args, path+".Args")
	case *NullIf:
		v.rex(n.Left, path+".Left")
		v.rex(n.Right, path+".Right")
	case *StructCtor:
		for i, f := range n.Fields {
			v.rex(f.Key, fmt.Sprintf("%s.Key[%d]", path, i))
			v.rex(f.Value, fmt.Sprintf("%s.Value[%d]", path, i))
		}
	case *ListCtor:
		v.rexes(n.Elems, path+".Elems")
	case *BagCtor:
		v.rexes(n.Elems, path+".Elems")
	case *TupleUnion:
		v.rexes(n.Args, path+".Args")
	case *Cast:
		v.rex(n.Arg, path+".Arg")
	case *Call:
		if len(n.Args) != 1 {
			v.fail(path, "%s takes 1 argument, got %d", n.Fn, len(n.Args))
		}
		v.rexes(n.Args, path+".Args")
	case *Select:
		v.rel(n.Input, path+".Input")
		v.rex(n.Constructor, path+".Constructor")
	case *Pivot:
		v.rel(n.Input, path+".Input")
		v.rex(n.Key, path+".Key")
		v.rex(n.Value, path+".Value")
	case *ScalarSubquery:
		v.rex(n.Query, path+".Query")
	case *CollAgg:
		if n.Fn == AggCountStar {
			v.fail(path, "COUNT(*) is not a collection aggregate")
		}
		v.rex(n.Arg, path+".Arg")
	default:
		v.fail(path, "unknown expression node %T", r)
	}
}

func (v *validator) rel(r Rel, path string) {
	if !v.present(r, path) {
		return
	}
	path = path + "/" + r.NodeType()

	switch n := r.(type) {
	case *Scan:
		v.alias(n.As, n.At, path)
		v.rex(n.Source, path+".Source")
	case *Unpivot:
		v.alias(n.As, n.At, path)
		v.rex(n.Source, path+".Source")
	case *Join:
		v.rel(n.Left, path+".Left")
		v.rel(n.Right, path+".Right")
		if !utils.IsNil(n.On) {
			v.rex(n.On, path+".On")
		}
	case *Filter:
		v.rel(n.Input, path+".Input")
		v.rex(n.Predicate, path+".Predicate")
	case *Sort:
		if len(n.Specs) == 0 {
			v.fail(path, "sort without keys")
		}
		v.rel(n.Input, path+".Input")
		for i, s := range n.Specs {
			v.rex(s.Key, fmt.Sprintf("%s.Key[%d]", path, i))
		}
	case *Limit:
		v.rel(n.Input, path+".Input")
		v.rex(n.Count, path+".Count")
	case *Offset:
		v.rel(n.Input, path+".Input")
		v.rex(n.Count, path+".Count")
	case *Distinct:
		v.rel(n.Input, path+".Input")
	case *Exclude:
		v.rel(n.Input, path+".Input")
		for i, p := range n.Paths {
			if p.Root == "" {
				v.fail(path, "exclude path %d has no root", i)
			}
		}
	case *Aggregate:
		v.aggregate(n, path)
	case *SetOp:
		v.rel(n.Left, path+".Left")
		v.rel(n.Right, path+".Right")
	default:
		v.fail(path, "unknown relational node %T", r)
	}
}

func (v *validator) alias(as, at, path string) {
	if as == "" {
		v.fail(path, "empty alias")
	}
	if at != "" && at == as {
		v.fail(path, "AT variable %q shadows its AS variable", at)
	}
}

func (v *validator) aggregate(n *Aggregate, path string) {
	v.rel(n.Input, path+".Input")

	seen := make(map[string]bool)
	bind := func(name string) {
		if name == "" {
			v.fail(path, "unnamed aggregate output")
			return
		}
		if seen[name] {
			v.fail(path, "duplicate output name %q", name)
		}
		seen[name] = true
	}

	for i, name := range n.KeyNames() {
		v.rex(n.Keys[i].Expr, fmt.Sprintf("%s.Key[%d]", path, i))
		bind(name)
	}
	for i, c := range n.Calls {
		if c.Fn == AggCountStar {
			if !utils.IsNil(c.Arg) {
				v.fail(path, "COUNT(*) takes no argument")
			}
		} else {
			v.rex(c.Arg, fmt.Sprintf("%s.Call[%d]", path, i))
		}
		bind(c.Name)
	}
	if n.GroupAs != "" {
		bind(n.GroupAs)
	}
}
