// Package env holds the binding environment that expression evaluation
// resolves variables against.
//
// Each relational operator produces Rows: ordered name/value bindings. An
// Env is an immutable frame holding one Row and a pointer to its parent
// frame. Pushing a row creates a child scope; lookups walk from the innermost
// frame outward so the closest binding wins. This chain is the only
// mechanism by which correlated and lateral subqueries see outer variables.
package env

import (
	"strings"

	"pqleval/pkg/datum"
)

// Binding is one named value of a row.
type Binding struct {
	Name  string
	Value datum.Datum
}

// Row is the ordered set of bindings produced by a relational operator for
// one input element.
type Row struct {
	Bindings []Binding
}

// NewRow builds a row from bindings. The slice is not copied.
func NewRow(bindings ...Binding) *Row {
	return &Row{Bindings: bindings}
}

// Get returns the last binding named name in the row.
func (r *Row) Get(name string) (datum.Datum, bool) {
	if r == nil {
		return datum.Missing(), false
	}
	for i := len(r.Bindings) - 1; i >= 0; i-- {
		if r.Bindings[i].Name == name {
			return r.Bindings[i].Value, true
		}
	}
	return datum.Missing(), false
}

// Values returns the binding values in order.
func (r *Row) Values() []datum.Datum {
	out := make([]datum.Datum, len(r.Bindings))
	for i, b := range r.Bindings {
		out[i] = b.Value
	}
	return out
}

// Concat returns a new row with r's bindings followed by other's.
func (r *Row) Concat(other *Row) *Row {
	out := make([]Binding, 0, len(r.Bindings)+len(other.Bindings))
	out = append(out, r.Bindings...)
	out = append(out, other.Bindings...)
	return &Row{Bindings: out}
}

// Struct renders the row as a struct keyed by binding name.
func (r *Row) Struct() datum.Datum {
	fields := make([]datum.Field, len(r.Bindings))
	for i, b := range r.Bindings {
		fields[i] = datum.F(b.Name, b.Value)
	}
	return datum.StructOwned(fields)
}

func (r *Row) String() string {
	if r == nil {
		return "<nil>"
	}
	return r.Struct().String()
}

// Schema is the ordered list of binding names an operator produces.
type Schema []string

// NullRow returns a row binding every name of the schema to NULL.
func (s Schema) NullRow() *Row {
	out := make([]Binding, len(s))
	for i, name := range s {
		out[i] = Binding{Name: name, Value: datum.Null()}
	}
	return &Row{Bindings: out}
}

// Concat appends other to s.
func (s Schema) Concat(other Schema) Schema {
	out := make(Schema, 0, len(s)+len(other))
	out = append(out, s...)
	return append(out, other...)
}

func (s Schema) String() string {
	return "(" + strings.Join(s, ", ") + ")"
}

// Env is one immutable frame of the binding chain.
type Env struct {
	parent *Env
	row    *Row
}

// Root returns an empty environment.
func Root() *Env {
	return &Env{}
}

// Push returns a child environment whose innermost scope is row.
func (e *Env) Push(row *Row) *Env {
	return &Env{parent: e, row: row}
}

// Parent returns the enclosing frame, or nil at the root.
func (e *Env) Parent() *Env {
	return e.parent
}

// Resolve looks name up from the innermost frame outward.
func (e *Env) Resolve(name string) (datum.Datum, bool) {
	for frame := e; frame != nil; frame = frame.parent {
		if v, ok := frame.row.Get(name); ok {
			return v, true
		}
	}
	return datum.Missing(), false
}

// Depth returns the number of frames above the root.
func (e *Env) Depth() int {
	n := 0
	for frame := e; frame != nil && frame.parent != nil; frame = frame.parent {
		n++
	}
	return n
}
