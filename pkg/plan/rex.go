package plan

import (
	"fmt"
	"strings"

	"pqleval/pkg/datum"
	"pqleval/pkg/types"
)

// Lit is a constant.
type Lit struct {
	rexNode
	Value datum.Datum
}

func (n *Lit) NodeType() string { return "Lit" }
func (n *Lit) Children() []Node { return nil }
func (n *Lit) describe() string { return n.Value.String() }

// Var references a binding of the environment chain by name.
type Var struct {
	rexNode
	Name string
}

func (n *Var) NodeType() string { return "Var" }
func (n *Var) Children() []Node { return nil }
func (n *Var) describe() string { return n.Name }

// Global references a named value of the catalog.
type Global struct {
	rexNode
	Name string
}

func (n *Global) NodeType() string { return "Global" }
func (n *Global) Children() []Node { return nil }
func (n *Global) describe() string { return n.Name }

// PathField is root.name. Absent fields evaluate to MISSING.
type PathField struct {
	rexNode
	Root            Rex
	Name            string
	CaseInsensitive bool
}

func (n *PathField) NodeType() string { return "PathField" }
func (n *PathField) Children() []Node { return nodes(n.Root) }
func (n *PathField) describe() string {
	if n.CaseInsensitive {
		return n.Name + " ci"
	}
	return n.Name
}

// PathIndex is root[index] over lists (zero-based) and, with a string index,
// struct field access.
type PathIndex struct {
	rexNode
	Root  Rex
	Index Rex
}

func (n *PathIndex) NodeType() string { return "PathIndex" }
func (n *PathIndex) Children() []Node { return nodes(n.Root, n.Index) }
func (n *PathIndex) describe() string { return "" }

// UnaryOp enumerates prefix operators.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpPos
	OpNot
)

var unaryNames = [...]string{"NEG", "POS", "NOT"}

func (op UnaryOp) String() string { return unaryNames[op] }

// ParseUnaryOp maps NEG, POS or NOT to its UnaryOp.
func ParseUnaryOp(s string) (UnaryOp, bool) {
	for i, name := range unaryNames {
		if strings.EqualFold(name, s) {
			return UnaryOp(i), true
		}
	}
	return 0, false
}

// Unary applies a prefix operator.
type Unary struct {
	rexNode
	Op  UnaryOp
	Arg Rex
}

func (n *Unary) NodeType() string { return "Unary" }
func (n *Unary) Children() []Node { return nodes(n.Arg) }
func (n *Unary) describe() string { return n.Op.String() }

// BinaryOp enumerates infix operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpConcat
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var binaryNames = [...]string{"+", "-", "*", "/", "%", "||", "=", "<>", "<", "<=", ">", ">=", "AND", "OR"}

func (op BinaryOp) String() string { return binaryNames[op] }

// ParseBinaryOp maps an operator spelling back to its BinaryOp.
func ParseBinaryOp(s string) (BinaryOp, bool) {
	for i, name := range binaryNames {
		if strings.EqualFold(name, s) {
			return BinaryOp(i), true
		}
	}
	if s == "!=" {
		return OpNe, true
	}
	return 0, false
}

// Binary applies an infix operator.
type Binary struct {
	rexNode
	Op          BinaryOp
	Left, Right Rex
}

func (n *Binary) NodeType() string { return "Binary" }
func (n *Binary) Children() []Node { return nodes(n.Left, n.Right) }
func (n *Binary) describe() string { return n.Op.String() }

// IsTest enumerates the IS predicates.
type IsTest int

const (
	IsNull IsTest = iota
	IsMissing
	IsTrue
	IsFalse
	IsUnknown
)

var isNames = [...]string{"NULL", "MISSING", "TRUE", "FALSE", "UNKNOWN"}

func (t IsTest) String() string { return isNames[t] }

// ParseIsTest maps NULL, MISSING, TRUE, FALSE or UNKNOWN to its IsTest.
func ParseIsTest(s string) (IsTest, bool) {
	for i, name := range isNames {
		if strings.EqualFold(name, s) {
			return IsTest(i), true
		}
	}
	return 0, false
}

// Is is arg IS [NOT] test.
type Is struct {
	rexNode
	Test IsTest
	Not  bool
	Arg  Rex
}

func (n *Is) NodeType() string { return "Is" }
func (n *Is) Children() []Node { return nodes(n.Arg) }
func (n *Is) describe() string {
	if n.Not {
		return "NOT " + n.Test.String()
	}
	return n.Test.String()
}

// In is arg IN collection.
type In struct {
	rexNode
	Arg Rex
	Set Rex
}

func (n *In) NodeType() string { return "In" }
func (n *In) Children() []Node { return nodes(n.Arg, n.Set) }
func (n *In) describe() string { return "" }

// Branch is one WHEN ... THEN ... arm of a searched CASE.
type Branch struct {
	When Rex
	Then Rex
}

// Case is a searched CASE. A nil Else yields NULL.
type Case struct {
	rexNode
	Branches []Branch
	Else     Rex
}

func (n *Case) NodeType() string { return "Case" }
func (n *Case) Children() []Node {
	var out []Node
	for _, b := range n.Branches {
		out = append(out, nodes(b.When, b.Then)...)
	}
	return append(out, nodes(n.Else)...)
}
func (n *Case) describe() string { return fmt.Sprintf("%d branches", len(n.Branches)) }

// Coalesce returns its first non-absent argument.
type Coalesce struct {
	rexNode
	Args []Rex
}

func (n *Coalesce) NodeType() string { return "Coalesce" }
func (n *Coalesce) Children() []Node { return nodes(n.Args...) }
func (n *Coalesce) describe() string { return "" }

// NullIf returns NULL when both arguments are equal, else the first.
type NullIf struct {
	rexNode
	Left, Right Rex
}

func (n *NullIf) NodeType() string { return "NullIf" }
func (n *NullIf) Children() []Node { return nodes(n.Left, n.Right) }
func (n *NullIf) describe() string { return "" }

// StructField is one key/value pair of a struct constructor.
type StructField struct {
	Key   Rex
	Value Rex
}

// StructCtor builds a struct with exactly the listed fields in order.
type StructCtor struct {
	rexNode
	Fields []StructField
}

func (n *StructCtor) NodeType() string { return "Struct" }
func (n *StructCtor) Children() []Node {
	var out []Node
	for _, f := range n.Fields {
		out = append(out, nodes(f.Key, f.Value)...)
	}
	return out
}
func (n *StructCtor) describe() string { return fmt.Sprintf("%d fields", len(n.Fields)) }

// ListCtor builds a list.
type ListCtor struct {
	rexNode
	Elems []Rex
}

func (n *ListCtor) NodeType() string { return "List" }
func (n *ListCtor) Children() []Node { return nodes(n.Elems...) }
func (n *ListCtor) describe() string { return "" }

// BagCtor builds a bag.
type BagCtor struct {
	rexNode
	Elems []Rex
}

func (n *BagCtor) NodeType() string { return "Bag" }
func (n *BagCtor) Children() []Node { return nodes(n.Elems...) }
func (n *BagCtor) describe() string { return "" }

// TupleUnion concatenates struct fields left to right, keeping duplicates.
type TupleUnion struct {
	rexNode
	Args []Rex
}

func (n *TupleUnion) NodeType() string { return "TupleUnion" }
func (n *TupleUnion) Children() []Node { return nodes(n.Args...) }
func (n *TupleUnion) describe() string { return "" }

// Cast converts its argument to a declared type.
type Cast struct {
	rexNode
	Arg    Rex
	Target types.Type
}

func (n *Cast) NodeType() string { return "Cast" }
func (n *Cast) Children() []Node { return nodes(n.Arg) }
func (n *Cast) describe() string { return n.Target.String() }

// Function enumerates the scalar builtins.
type Function int

const (
	FnAbs Function = iota
	FnUpper
	FnLower
	FnCharLength
	FnSize
	FnExists
	FnTrim
)

var functionNames = [...]string{"ABS", "UPPER", "LOWER", "CHAR_LENGTH", "SIZE", "EXISTS", "TRIM"}

func (f Function) String() string { return functionNames[f] }

// ParseFunction maps a builtin name to its Function.
func ParseFunction(s string) (Function, bool) {
	for i, name := range functionNames {
		if strings.EqualFold(name, s) {
			return Function(i), true
		}
	}
	return 0, false
}

// Call invokes a scalar builtin.
type Call struct {
	rexNode
	Fn   Function
	Args []Rex
}

func (n *Call) NodeType() string { return "Call" }
func (n *Call) Children() []Node { return nodes(n.Args...) }
func (n *Call) describe() string { return n.Fn.String() }

// Select evaluates Constructor once per row of Input and collects the results
// into a bag, or a list when Input is ordered.
type Select struct {
	rexNode
	Input       Rel
	Constructor Rex
}

func (n *Select) NodeType() string { return "Select" }
func (n *Select) Children() []Node { return nodes[Node](n.Input, n.Constructor) }
func (n *Select) describe() string { return "" }

// Pivot builds one struct from Input, a field per row named by Key.
// Rows whose key is not a string are skipped.
type Pivot struct {
	rexNode
	Input Rel
	Key   Rex
	Value Rex
}

func (n *Pivot) NodeType() string { return "Pivot" }
func (n *Pivot) Children() []Node { return nodes[Node](n.Input, n.Key, n.Value) }
func (n *Pivot) describe() string { return "" }

// ScalarSubquery coerces a single-row, single-column query result to a scalar.
type ScalarSubquery struct {
	rexNode
	Query *Select
}

func (n *ScalarSubquery) NodeType() string { return "ScalarSubquery" }
func (n *ScalarSubquery) Children() []Node { return nodes(n.Query) }
func (n *ScalarSubquery) describe() string { return "" }

// AggFunc enumerates the aggregate functions.
type AggFunc int

const (
	AggCountStar AggFunc = iota
	AggCount
	AggSum
	AggAvg
	AggMin
	AggMax
	AggEvery
	AggAny
)

var aggNames = [...]string{"COUNT(*)", "COUNT", "SUM", "AVG", "MIN", "MAX", "EVERY", "ANY"}

func (f AggFunc) String() string { return aggNames[f] }

// ParseAggFunc maps an aggregate name to its AggFunc. SOME is an alias of ANY.
func ParseAggFunc(s string) (AggFunc, bool) {
	if strings.EqualFold(s, "SOME") {
		return AggAny, true
	}
	for i, name := range aggNames {
		if strings.EqualFold(name, s) {
			return AggFunc(i), true
		}
	}
	return 0, false
}

// CollAgg aggregates the elements of a collection value, e.g. COLL_SUM(x).
type CollAgg struct {
	rexNode
	Fn       AggFunc
	Distinct bool
	Arg      Rex
}

func (n *CollAgg) NodeType() string { return "CollAgg" }
func (n *CollAgg) Children() []Node { return nodes(n.Arg) }
func (n *CollAgg) describe() string {
	if n.Distinct {
		return n.Fn.String() + " DISTINCT"
	}
	return n.Fn.String()
}
