package plan

import (
	"pqleval/pkg/datum"
	"pqleval/pkg/types"
)

// Builders for hand-written plans. They are shorthand only; every node can be
// built as a struct literal as well.

func L(v datum.Datum) *Lit { return &Lit{Value: v} }
func V(name string) *Var { return &Var{Name: name} }
func G(name string) *Global { return &Global{Name: name} }
func Int(v int32) *Lit { return L(datum.Int32(v)) }
func Str(s string) *Lit { return L(datum.String(s)) }
func Bool(b bool) *Lit { return L(datum.Bool(b)) }
func Null() *Lit { return L(datum.Null()) }
func Missing() *Lit { return L(datum.Missing()) }
func Dec(literal string) *Lit { return L(datum.MustDecimal(literal)) }
func Not(arg Rex) *Unary { return &Unary{Op: OpNot, Arg: arg} }
func Neg(arg Rex) *Unary { return &Unary{Op: OpNeg, Arg: arg} }
func List(elems ...Rex) *ListCtor { return &ListCtor{Elems: elems} }
func Bag(elems ...Rex) *BagCtor { return &BagCtor{Elems: elems} }

// Path builds root.f1.f2... with case-sensitive field steps.
func Path(root Rex, fields ...string) Rex {
	for _, f := range fields {
		root = &PathField{Root: root, Name: f}
	}
	return root
}

// Bin builds left op right.
func Bin(op BinaryOp, left, right Rex) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

func Eq(left, right Rex) *Binary { return Bin(OpEq, left, right) }
func And(left, right Rex) *Binary { return Bin(OpAnd, left, right) }
func Or(left, right Rex) *Binary { return Bin(OpOr, left, right) }

// CastTo builds CAST(arg AS target) from a type string such as "DECIMAL(10,2)".
func CastTo(arg Rex, target string) *Cast {
	return &Cast{Arg: arg, Target: types.MustParse(target)}
}

// Fields builds a struct constructor from alternating string keys and values.
func Fields(pairs ...any) *StructCtor {
	if len(pairs)%2 != 0 {
		panic("plan.Fields: odd number of arguments")
	}
	out := &StructCtor{}
	for i := 0; i < len(pairs); i += 2 {
		out.Fields = append(out.Fields, StructField{Key: Str(pairs[i].(string)), Value: pairs[i+1].(Rex)})
	}
	return out
}

// SimpleCase desugars CASE operand WHEN v1 THEN r1 ... ELSE e into a searched
// CASE comparing operand = vi.
func SimpleCase(operand Rex, elseRex Rex, whenThen ...Rex) *Case {
	if len(whenThen)%2 != 0 {
		panic("plan.SimpleCase: odd number of WHEN/THEN arguments")
	}
	out := &Case{Else: elseRex}
	for i := 0; i < len(whenThen); i += 2 {
		out.Branches = append(out.Branches, Branch{When: Eq(operand, whenThen[i]), Then: whenThen[i+1]})
	}
	return out
}

// From scans source as alias.
func From(source Rex, as string) *Scan { return &Scan{Source: source, As: as} }

// SelectValue builds SELECT VALUE constructor FROM input.
func SelectValue(input Rel, constructor Rex) *Select {
	return &Select{Input: input, Constructor: constructor}
}

// Where filters input by predicate.
func Where(input Rel, predicate Rex) *Filter {
	return &Filter{Input: input, Predicate: predicate}
}

// Cross builds an INNER join with no condition, i.e. a lateral comma join.
func Cross(left, right Rel) *Join { return &Join{Kind: InnerJoin, Left: left, Right: right} }

// OrderBy sorts input ascending by the keys.
func OrderBy(input Rel, keys ...Rex) *Sort {
	out := &Sort{Input: input}
	for _, k := range keys {
		out.Specs = append(out.Specs, SortSpec{Key: k})
	}
	return out
}
