package types

import (
	"fmt"
	"strings"

	"pqleval/pkg/datum"
)

// Kind enumerates declared types: cast targets and catalog column types.
type Kind int

const (
	DynamicKind Kind = iota
	BoolKind
	Int32Kind
	Int64Kind
	DecimalKind
	StringKind
	VarcharKind
	IntervalKind
	ListKind
	BagKind
	StructKind
)

// Type is a declared type. Parameters are only meaningful for the kinds that
// use them: Precision/Scale for DECIMAL, Length for VARCHAR, Qualifier for
// INTERVAL, Elem for LIST/BAG and Fields for STRUCT.
type Type struct {
	Kind      Kind
	Precision int32 // 0 means unconstrained DECIMAL
	Scale     int32
	Length    int32
	Qualifier datum.Qualifier
	Elem      *Type
	Fields    []Field
}

// Field is one column of a declared STRUCT (row) type.
type Field struct {
	Name string
	Type Type
}

func Dynamic() Type { return Type{Kind: DynamicKind} }
func Bool() Type { return Type{Kind: BoolKind} }
func Int() Type { return Type{Kind: Int32Kind} }
func BigInt() Type { return Type{Kind: Int64Kind} }
func String() Type { return Type{Kind: StringKind} }
func AnyDecimal() Type { return Type{Kind: DecimalKind} }
func Varchar(n int32) Type { return Type{Kind: VarcharKind, Length: n} }

// Decimal returns DECIMAL(precision, scale).
func Decimal(precision, scale int32) Type {
	return Type{Kind: DecimalKind, Precision: precision, Scale: scale}
}

// Interval returns an INTERVAL type with the given qualifier.
func Interval(q datum.Qualifier) Type {
	return Type{Kind: IntervalKind, Qualifier: q}
}

// List returns LIST<elem>. A Dynamic elem means any element type.
func List(elem Type) Type { return Type{Kind: ListKind, Elem: &elem} }

// Bag returns BAG<elem>.
func Bag(elem Type) Type { return Type{Kind: BagKind, Elem: &elem} }

// Struct returns a row type with the given fields. With no fields any struct conforms.
func Struct(fields ...Field) Type { return Type{Kind: StructKind, Fields: fields} }

// Conforms reports whether d is a value of type t. NULL and MISSING conform
// to every type. The check is shallow for collections (elements are checked
// against Elem one level down) and recurses into declared struct fields.
func (t Type) Conforms(d datum.Datum) bool {
	if d.IsAbsent() || t.Kind == DynamicKind {
		return true
	}

	switch t.Kind {
	case BoolKind:
		return d.Kind() == datum.KindBool
	case Int32Kind:
		return d.Kind() == datum.KindInt32
	case Int64Kind:
		return d.IsInteger()
	case DecimalKind:
		if !d.IsNumber() {
			return false
		}
		if t.Precision == 0 || d.IsInteger() {
			return true
		}
		return d.Scale() <= t.Scale && d.Precision()-d.Scale() <= t.Precision-t.Scale
	case StringKind:
		return d.Kind() == datum.KindString
	case VarcharKind:
		return d.Kind() == datum.KindString && int32(len([]rune(d.AsString()))) <= t.Length
	case IntervalKind:
		return d.Kind() == datum.KindInterval && d.AsInterval().Qualifier.IsYearMonth() == t.Qualifier.IsYearMonth()
	case ListKind, BagKind:
		want := datum.KindList
		if t.Kind == BagKind {
			want = datum.KindBag
		}
		if d.Kind() != want {
			return false
		}
		if t.Elem == nil || t.Elem.Kind == DynamicKind {
			return true
		}
		for _, e := range d.Elems() {
			if !t.Elem.shallow(e) {
				return false
			}
		}
		return true
	case StructKind:
		if d.Kind() != datum.KindStruct {
			return false
		}
		for _, f := range t.Fields {
			v, ok := d.Get(f.Name)
			if ok && !f.Type.Conforms(v) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// shallow checks the kind of d without descending into its children.
func (t Type) shallow(d datum.Datum) bool {
	if t.Kind == ListKind || t.Kind == BagKind || t.Kind == StructKind {
		return Type{Kind: t.Kind}.Conforms(d)
	}
	return t.Conforms(d)
}

func (t Type) String() string {
	switch t.Kind {
	case DynamicKind:
		return "DYNAMIC"
	case BoolKind:
		return "BOOL"
	case Int32Kind:
		return "INT"
	case Int64Kind:
		return "BIGINT"
	case DecimalKind:
		if t.Precision == 0 {
			return "DECIMAL"
		}
		return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
	case StringKind:
		return "STRING"
	case VarcharKind:
		return fmt.Sprintf("VARCHAR(%d)", t.Length)
	case IntervalKind:
		return "INTERVAL " + t.Qualifier.String()
	case ListKind, BagKind:
		name := "LIST"
		if t.Kind == BagKind {
			name = "BAG"
		}
		if t.Elem == nil || t.Elem.Kind == DynamicKind {
			return name
		}
		return fmt.Sprintf("%s<%s>", name, t.Elem)
	case StructKind:
		if len(t.Fields) == 0 {
			return "STRUCT"
		}
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.Name + ": " + f.Type.String()
		}
		return "STRUCT<" + strings.Join(parts, ", ") + ">"
	default:
		return "UNKNOWN"
	}
}
