package plan

import (
	"fmt"
	"strings"

	"pqleval/pkg/utils/functools"
)

// Scan binds each element of Source to As, and its zero-based position to At
// when Source is a list. At may be empty.
type Scan struct {
	relNode
	Source Rex
	As     string
	At     string
}

func (n *Scan) NodeType() string { return "Scan" }
func (n *Scan) Children() []Node { return nodes(n.Source) }
func (n *Scan) describe() string { return aliases(n.As, n.At) }

// Unpivot binds each field value of the Source struct to As and its name to At.
type Unpivot struct {
	relNode
	Source Rex
	As     string
	At     string
}

func (n *Unpivot) NodeType() string { return "Unpivot" }
func (n *Unpivot) Children() []Node { return nodes(n.Source) }
func (n *Unpivot) describe() string { return aliases(n.As, n.At) }

func aliases(as, at string) string {
	if at == "" {
		return "AS " + as
	}
	return fmt.Sprintf("AS %s AT %s", as, at)
}

// JoinKind enumerates join types.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	FullJoin
)

var joinNames = [...]string{"INNER", "LEFT", "RIGHT", "FULL"}

func (k JoinKind) String() string { return joinNames[k] }

// ParseJoinKind maps INNER, LEFT, RIGHT or FULL to its JoinKind.
func ParseJoinKind(s string) (JoinKind, bool) {
	for i, name := range joinNames {
		if strings.EqualFold(name, s) {
			return JoinKind(i), true
		}
	}
	return 0, false
}

// Join combines two inputs. A nil On matches every pair.
type Join struct {
	relNode
	Kind        JoinKind
	Left, Right Rel
	On          Rex
}

func (n *Join) NodeType() string { return "Join" }
func (n *Join) Children() []Node { return nodes[Node](n.Left, n.Right, n.On) }
func (n *Join) describe() string { return n.Kind.String() }

// Filter keeps the rows for which Predicate is TRUE.
type Filter struct {
	relNode
	Input     Rel
	Predicate Rex
}

func (n *Filter) NodeType() string { return "Filter" }
func (n *Filter) Children() []Node { return nodes[Node](n.Input, n.Predicate) }
func (n *Filter) describe() string { return "" }

// NullOrder places NULL and MISSING sort keys.
type NullOrder int

const (
	// NullsDefault is NULLS LAST for ascending keys and NULLS FIRST for descending ones.
	NullsDefault NullOrder = iota
	NullsFirst
	NullsLast
)

// SortSpec is one ORDER BY key.
type SortSpec struct {
	Key   Rex
	Desc  bool
	Nulls NullOrder
}

// NullsFirst resolves where absent values sort for this key.
func (s SortSpec) NullsFirst() bool {
	switch s.Nulls {
	case NullsFirst:
		return true
	case NullsLast:
		return false
	default:
		return s.Desc
	}
}

func (s SortSpec) String() string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	if s.NullsFirst() {
		return dir + " NULLS FIRST"
	}
	return dir + " NULLS LAST"
}

// Sort orders its input. The output is ordered.
type Sort struct {
	relNode
	Input Rel
	Specs []SortSpec
}

func (n *Sort) NodeType() string { return "Sort" }
func (n *Sort) Children() []Node {
	out := nodes(n.Input)
	for _, s := range n.Specs {
		out = append(out, nodes(s.Key)...)
	}
	return out
}
func (n *Sort) describe() string {
	parts := make([]string, len(n.Specs))
	for i, s := range n.Specs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

// Limit passes at most Count rows.
type Limit struct {
	relNode
	Input Rel
	Count Rex
}

func (n *Limit) NodeType() string { return "Limit" }
func (n *Limit) Children() []Node { return nodes[Node](n.Input, n.Count) }
func (n *Limit) describe() string { return "" }

// Offset skips the first Count rows.
type Offset struct {
	relNode
	Input Rel
	Count Rex
}

func (n *Offset) NodeType() string { return "Offset" }
func (n *Offset) Children() []Node { return nodes[Node](n.Input, n.Count) }
func (n *Offset) describe() string { return "" }

// Distinct drops rows equal to an earlier row.
type Distinct struct {
	relNode
	Input Rel
}

func (n *Distinct) NodeType() string { return "Distinct" }
func (n *Distinct) Children() []Node { return nodes(n.Input) }
func (n *Distinct) describe() string { return "" }

// ExcludeStepKind enumerates the steps of an EXCLUDE path.
type ExcludeStepKind int

const (
	StepField ExcludeStepKind = iota
	StepFieldWildcard
	StepIndex
	StepIndexWildcard
)

// ExcludeStep is one step of an EXCLUDE path below its root binding.
type ExcludeStep struct {
	Kind  ExcludeStepKind
	Name  string
	Index int64
}

func (s ExcludeStep) String() string {
	switch s.Kind {
	case StepField:
		return "." + s.Name
	case StepFieldWildcard:
		return ".*"
	case StepIndex:
		return fmt.Sprintf("[%d]", s.Index)
	default:
		return "[*]"
	}
}

// ExcludePath removes the values it reaches from the binding named Root.
type ExcludePath struct {
	Root  string
	Steps []ExcludeStep
}

func (p ExcludePath) String() string {
	var sb strings.Builder
	sb.WriteString(p.Root)
	for _, s := range p.Steps {
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Exclude rewrites each row, removing the values reached by Paths.
type Exclude struct {
	relNode
	Input Rel
	Paths []ExcludePath
}

func (n *Exclude) NodeType() string { return "Exclude" }
func (n *Exclude) Children() []Node { return nodes(n.Input) }
func (n *Exclude) describe() string {
	return strings.Join(functools.Map(n.Paths, ExcludePath.String), ", ")
}

// GroupKey is one GROUP BY expression. An empty Name is derived by KeyNames.
type GroupKey struct {
	Expr Rex
	Name string
}

// AggCall is one aggregate computed per group and bound to Name.
// Arg is nil for COUNT(*).
type AggCall struct {
	Fn       AggFunc
	Distinct bool
	Arg      Rex
	Name     string
}

// Aggregate groups its input by Keys. Each output row binds the keys, then
// the aggregate results, then GroupAs (when set) to the bag of member rows.
type Aggregate struct {
	relNode
	Input   Rel
	Keys    []GroupKey
	Calls   []AggCall
	GroupAs string
}

func (n *Aggregate) NodeType() string { return "Aggregate" }
func (n *Aggregate) Children() []Node {
	out := nodes(n.Input)
	for _, k := range n.Keys {
		out = append(out, nodes(k.Expr)...)
	}
	for _, c := range n.Calls {
		out = append(out, nodes(c.Arg)...)
	}
	return out
}
func (n *Aggregate) describe() string {
	parts := make([]string, 0, len(n.Calls)+1)
	names := n.KeyNames()
	if len(names) > 0 {
		parts = append(parts, "BY "+strings.Join(names, ", "))
	}
	for _, c := range n.Calls {
		fn := c.Fn.String()
		if c.Distinct {
			fn += " DISTINCT"
		}
		parts = append(parts, fn+" AS "+c.Name)
	}
	if n.GroupAs != "" {
		parts = append(parts, "GROUP AS "+n.GroupAs)
	}
	return strings.Join(parts, "; ")
}

// KeyNames returns the binding name of every group key: the explicit name,
// else the name of a Var or PathField key, else _n for the n-th key.
func (n *Aggregate) KeyNames() []string {
	names := make([]string, len(n.Keys))
	for i, k := range n.Keys {
		if k.Name != "" {
			names[i] = k.Name
			continue
		}
		names[i] = derivedName(k.Expr, i+1)
	}
	return names
}

func derivedName(r Rex, pos int) string {
	switch e := r.(type) {
	case *Var:
		return e.Name
	case *PathField:
		return e.Name
	default:
		return fmt.Sprintf("_%d", pos)
	}
}

// SetOpKind enumerates bag set operators.
type SetOpKind int

const (
	Union SetOpKind = iota
	Intersect
	Except
)

var setOpNames = [...]string{"UNION", "INTERSECT", "EXCEPT"}

func (k SetOpKind) String() string { return setOpNames[k] }

// ParseSetOpKind maps UNION, INTERSECT or EXCEPT to its SetOpKind.
func ParseSetOpKind(s string) (SetOpKind, bool) {
	for i, name := range setOpNames {
		if strings.EqualFold(name, s) {
			return SetOpKind(i), true
		}
	}
	return 0, false
}

// SetOp combines two inputs with bag semantics. Without All the result is
// deduplicated. Rows compare by their binding values, position by position.
type SetOp struct {
	relNode
	Kind        SetOpKind
	All         bool
	Left, Right Rel
}

func (n *SetOp) NodeType() string { return "SetOp" }
func (n *SetOp) Children() []Node { return nodes(n.Left, n.Right) }
func (n *SetOp) describe() string {
	if n.All {
		return n.Kind.String() + " ALL"
	}
	return n.Kind.String()
}

// IsOrdered reports whether rel produces an ordered stream, which makes an
// enclosing Select return a list instead of a bag.
func IsOrdered(rel Rel) bool {
	switch r := rel.(type) {
	case *Sort:
		return true
	case *Limit:
		return IsOrdered(r.Input)
	case *Offset:
		return IsOrdered(r.Input)
	case *Filter:
		return IsOrdered(r.Input)
	case *Exclude:
		return IsOrdered(r.Input)
	case *Distinct:
		return IsOrdered(r.Input)
	default:
		return false
	}
}
