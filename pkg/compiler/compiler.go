// Package compiler instantiates a validated plan into an executable tree of
// expression evaluators and row iterators.
//
// Compilation happens once per execution: the resulting tree holds runtime
// state (open iterators, materialised inputs, cached globals) and must not
// be shared between executions. The plan itself is never modified.
package compiler

import (
	"log/slog"

	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
	"pqleval/pkg/execution/aggregation"
	"pqleval/pkg/execution/expr"
	"pqleval/pkg/execution/join"
	"pqleval/pkg/execution/query"
	"pqleval/pkg/execution/scan"
	"pqleval/pkg/execution/setops"
	"pqleval/pkg/iterator"
	"pqleval/pkg/logging"
	"pqleval/pkg/plan"
	"pqleval/pkg/utils/functools"
)

// Compiler turns plan nodes into evaluators bound to one execution context.
type Compiler struct {
	ctx    *execution.Context
	logger *slog.Logger
	nodes  int
}

// New creates a compiler for one execution.
func New(ctx *execution.Context) *Compiler {
	return &Compiler{ctx: ctx, logger: ctx.Logger}
}

// Compile instantiates the root expression of a plan.
func Compile(ctx *execution.Context, root plan.Rex) (execution.Expr, error) {
	return New(ctx).Rex(root)
}

// Nodes returns the number of plan nodes instantiated so far.
func (c *Compiler) Nodes() int {
	return c.nodes
}

func (c *Compiler) trace(n plan.Node) {
	c.nodes++
	logging.WithOperator(c.logger, n.NodeType()).Debug("instantiating operator", "node", plan.Describe(n))
}

func invalid(n plan.Node, format string, args ...any) error {
	return evalerr.Newf(evalerr.KindInvalidPlan, format, args...).WithOperation(n.NodeType())
}

// Rex compiles a scalar expression.
func (c *Compiler) Rex(r plan.Rex) (execution.Expr, error) {
	c.trace(r)

	switch n := r.(type) {
	case *plan.Lit:
		return expr.NewLiteral(n.Value), nil
	case *plan.Var:
		return expr.NewVariable(n.Name), nil
	case *plan.Global:
		return expr.NewGlobalRef(c.ctx, n.Name), nil

	case *plan.PathField:
		root, err := c.Rex(n.Root)
		if err != nil {
			return nil, err
		}
		return expr.NewFieldAccess(c.ctx, root, n.Name, n.CaseInsensitive), nil

	case *plan.PathIndex:
		root, index, err := c.pair(n.Root, n.Index)
		if err != nil {
			return nil, err
		}
		return expr.NewIndexAccess(c.ctx, root, index), nil

	case *plan.Unary:
		arg, err := c.Rex(n.Arg)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case plan.OpNeg:
			return expr.NewNegate(c.ctx, arg), nil
		case plan.OpPos:
			return expr.NewPositive(c.ctx, arg), nil
		case plan.OpNot:
			return expr.NewNot(c.ctx, arg), nil
		}
		return nil, invalid(n, "unknown unary operator %d", n.Op)

	case *plan.Binary:
		return c.binary(n)

	case *plan.Is:
		arg, err := c.Rex(n.Arg)
		if err != nil {
			return nil, err
		}
		return expr.NewIs(c.ctx, n.Test, n.Not, arg), nil

	case *plan.In:
		arg, set, err := c.pair(n.Arg, n.Set)
		if err != nil {
			return nil, err
		}
		return expr.NewIn(c.ctx, arg, set), nil

	case *plan.Case:
		branches := make([]expr.Branch, len(n.Branches))
		for i, b := range n.Branches {
			when, then, err := c.pair(b.When, b.Then)
			if err != nil {
				return nil, err
			}
			branches[i] = expr.Branch{When: when, Then: then}
		}
		var orElse execution.Expr
		if n.Else != nil {
			var err error
			if orElse, err = c.Rex(n.Else); err != nil {
				return nil, err
			}
		}
		return expr.NewCase(c.ctx, branches, orElse), nil

	case *plan.Coalesce:
		args, err := c.rexes(n.Args)
		if err != nil {
			return nil, err
		}
		return expr.NewCoalesce(args), nil

	case *plan.NullIf:
		l, r, err := c.pair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return expr.NewNullIf(l, r), nil

	case *plan.StructCtor:
		fields := make([]expr.StructField, len(n.Fields))
		for i, f := range n.Fields {
			k, v, err := c.pair(f.Key, f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = expr.StructField{Key: k, Value: v}
		}
		return expr.NewStructCtor(c.ctx, fields), nil

	case *plan.ListCtor:
		elems, err := c.rexes(n.Elems)
		if err != nil {
			return nil, err
		}
		return expr.NewListCtor(elems), nil

	case *plan.BagCtor:
		elems, err := c.rexes(n.Elems)
		if err != nil {
			return nil, err
		}
		return expr.NewBagCtor(elems), nil

	case *plan.TupleUnion:
		args, err := c.rexes(n.Args)
		if err != nil {
			return nil, err
		}
		return expr.NewTupleUnion(args), nil

	case *plan.Cast:
		arg, err := c.Rex(n.Arg)
		if err != nil {
			return nil, err
		}
		return expr.NewCast(c.ctx, arg, n.Target), nil

	case *plan.Call:
		if len(n.Args) != 1 {
			return nil, invalid(n, "%s takes one argument, got %d", n.Fn, len(n.Args))
		}
		arg, err := c.Rex(n.Args[0])
		if err != nil {
			return nil, err
		}
		return expr.NewCall(c.ctx, n.Fn, arg), nil

	case *plan.Select:
		return c.selectExpr(n)

	case *plan.Pivot:
		input, err := c.Rel(n.Input)
		if err != nil {
			return nil, err
		}
		key, value, err := c.pair(n.Key, n.Value)
		if err != nil {
			return nil, err
		}
		return expr.NewPivot(input, key, value), nil

	case *plan.ScalarSubquery:
		if n.Query == nil {
			return nil, invalid(n, "scalar subquery has no query")
		}
		q, err := c.selectExpr(n.Query)
		if err != nil {
			return nil, err
		}
		return expr.NewScalarSubquery(c.ctx, q), nil

	case *plan.CollAgg:
		arg, err := c.Rex(n.Arg)
		if err != nil {
			return nil, err
		}
		return expr.NewCollAgg(c.ctx, n.Fn, n.Distinct, arg), nil
	}

	return nil, invalid(r, "unsupported expression node %T", r)
}

func (c *Compiler) selectExpr(n *plan.Select) (*expr.Select, error) {
	input, err := c.Rel(n.Input)
	if err != nil {
		return nil, err
	}
	ctor, err := c.Rex(n.Constructor)
	if err != nil {
		return nil, err
	}
	return expr.NewSelect(input, ctor, plan.IsOrdered(n.Input)), nil
}

func (c *Compiler) binary(n *plan.Binary) (execution.Expr, error) {
	l, r, err := c.pair(n.Left, n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case plan.OpAnd:
		return expr.NewAnd(c.ctx, l, r), nil
	case plan.OpOr:
		return expr.NewOr(c.ctx, l, r), nil
	case plan.OpEq, plan.OpNe, plan.OpLt, plan.OpLe, plan.OpGt, plan.OpGe:
		return expr.NewComparison(c.ctx, n.Op, l, r), nil
	default:
		a, err := expr.NewArithmetic(c.ctx, n.Op, l, r)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

func (c *Compiler) pair(a, b plan.Rex) (execution.Expr, execution.Expr, error) {
	x, err := c.Rex(a)
	if err != nil {
		return nil, nil, err
	}
	y, err := c.Rex(b)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func (c *Compiler) rexes(rs []plan.Rex) ([]execution.Expr, error) {
	return functools.MapWithError(rs, c.Rex)
}

// Rel compiles a relational operator.
func (c *Compiler) Rel(r plan.Rel) (iterator.RowIterator, error) {
	c.trace(r)

	switch n := r.(type) {
	case *plan.Scan:
		source, err := c.Rex(n.Source)
		if err != nil {
			return nil, err
		}
		return scan.NewScan(source, n.As, n.At)

	case *plan.Unpivot:
		source, err := c.Rex(n.Source)
		if err != nil {
			return nil, err
		}
		return scan.NewUnpivot(source, n.As, n.At)

	case *plan.Join:
		left, err := c.Rel(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.Rel(n.Right)
		if err != nil {
			return nil, err
		}
		var on execution.Expr
		if n.On != nil {
			if on, err = c.Rex(n.On); err != nil {
				return nil, err
			}
		}
		return join.NewNestedLoopJoin(c.ctx, n.Kind, left, right, on)

	case *plan.Filter:
		input, err := c.Rel(n.Input)
		if err != nil {
			return nil, err
		}
		pred, err := c.Rex(n.Predicate)
		if err != nil {
			return nil, err
		}
		return query.NewFilter(c.ctx, input, pred)

	case *plan.Sort:
		input, err := c.Rel(n.Input)
		if err != nil {
			return nil, err
		}
		keys := make([]query.SortKey, len(n.Specs))
		for i, s := range n.Specs {
			k, err := c.Rex(s.Key)
			if err != nil {
				return nil, err
			}
			keys[i] = query.SortKey{Expr: k, Desc: s.Desc, NullsFirst: s.NullsFirst()}
		}
		return query.NewSort(input, keys)

	case *plan.Limit:
		input, count, err := c.counted(n.Input, n.Count)
		if err != nil {
			return nil, err
		}
		return query.NewLimit(c.ctx, input, count)

	case *plan.Offset:
		input, count, err := c.counted(n.Input, n.Count)
		if err != nil {
			return nil, err
		}
		return query.NewOffset(c.ctx, input, count)

	case *plan.Distinct:
		input, err := c.Rel(n.Input)
		if err != nil {
			return nil, err
		}
		return setops.NewDistinct(input)

	case *plan.Exclude:
		input, err := c.Rel(n.Input)
		if err != nil {
			return nil, err
		}
		return query.NewExclude(input, n.Paths)

	case *plan.Aggregate:
		return c.aggregate(n)

	case *plan.SetOp:
		left, err := c.Rel(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.Rel(n.Right)
		if err != nil {
			return nil, err
		}
		return setops.NewSetOp(n.Kind, n.All, left, right)
	}

	return nil, invalid(r, "unsupported relational node %T", r)
}

func (c *Compiler) counted(input plan.Rel, count plan.Rex) (iterator.RowIterator, execution.Expr, error) {
	in, err := c.Rel(input)
	if err != nil {
		return nil, nil, err
	}
	e, err := c.Rex(count)
	if err != nil {
		return nil, nil, err
	}
	return in, e, nil
}

func (c *Compiler) aggregate(n *plan.Aggregate) (iterator.RowIterator, error) {
	input, err := c.Rel(n.Input)
	if err != nil {
		return nil, err
	}

	names := n.KeyNames()
	keys := make([]aggregation.Key, len(n.Keys))
	for i, k := range n.Keys {
		e, err := c.Rex(k.Expr)
		if err != nil {
			return nil, err
		}
		keys[i] = aggregation.Key{Name: names[i], Expr: e}
	}

	calls := make([]aggregation.Call, len(n.Calls))
	for i, call := range n.Calls {
		var arg execution.Expr
		if call.Arg != nil {
			if arg, err = c.Rex(call.Arg); err != nil {
				return nil, err
			}
		}
		calls[i] = aggregation.Call{Name: call.Name, Fn: call.Fn, Distinct: call.Distinct, Arg: arg}
	}

	agg, err := aggregation.NewAggregateOperator(c.ctx, input, keys, calls, n.GroupAs)
	if err != nil {
		return nil, evalerr.Wrap(err, evalerr.KindInvalidPlan, "Aggregate", "compiler")
	}
	return agg, nil
}
