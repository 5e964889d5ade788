package scan

import (
	"fmt"

	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	"pqleval/pkg/execution"
	"pqleval/pkg/iterator"
)

// Unpivot binds each field of a struct: the value to the AS alias and the
// field name to the AT alias. A non-struct value v is treated as {'_1': v};
// MISSING yields no rows.
type Unpivot struct {
	base   *iterator.BaseIterator
	source execution.Expr
	as, at string
	fields *iterator.SliceIterator[datum.Field]
}

// NewUnpivot creates an unpivot of source. at may be empty.
func NewUnpivot(source execution.Expr, as, at string) (*Unpivot, error) {
	if source == nil {
		return nil, fmt.Errorf("unpivot source cannot be nil")
	}
	if as == "" {
		return nil, fmt.Errorf("unpivot alias cannot be empty")
	}

	u := &Unpivot{source: source, as: as, at: at}
	u.base = iterator.NewBaseIterator(u.readNext)
	return u, nil
}

func (u *Unpivot) Open(parent *env.Env) error {
	if parent == nil {
		parent = env.Root()
	}
	v, err := u.source.Eval(parent)
	if err != nil {
		return err
	}

	var fields []datum.Field
	switch v.Kind() {
	case datum.KindMissing:
	case datum.KindStruct:
		fields = v.Fields()
	default:
		fields = []datum.Field{datum.F("_1", v)}
	}
	u.fields = iterator.NewSliceIterator(fields)
	u.base.MarkOpened()
	return nil
}

func (u *Unpivot) readNext() (*env.Row, error) {
	f, ok := u.fields.ReadNext()
	if !ok {
		return nil, nil
	}
	if u.at == "" {
		return env.NewRow(env.Binding{Name: u.as, Value: f.Value}), nil
	}
	return env.NewRow(env.Binding{Name: u.as, Value: f.Value}, env.Binding{Name: u.at, Value: datum.String(f.Name)}), nil
}

func (u *Unpivot) HasNext() (bool, error) { return u.base.HasNext() }

func (u *Unpivot) Next() (*env.Row, error) { return u.base.Next() }

func (u *Unpivot) Close() error {
	u.fields = nil
	return u.base.Close()
}

func (u *Unpivot) Schema() env.Schema {
	if u.at == "" {
		return env.Schema{u.as}
	}
	return env.Schema{u.as, u.at}
}
