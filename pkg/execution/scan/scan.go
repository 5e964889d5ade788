// Package scan implements the leaf operators of a FROM clause: Scan, which
// iterates the elements of a collection value, and Unpivot, which iterates
// the fields of a struct.
//
// Both evaluate their source expression on Open, under the scope they are
// opened with. That scope holds the bindings of every FROM item to the left,
// which makes FROM items lateral.
package scan

import (
	"fmt"

	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	"pqleval/pkg/execution"
	"pqleval/pkg/iterator"
)

// Scan binds each element of a collection to an alias.
//
// Lists and bags yield their elements. A list also binds the zero-based
// position to the AT alias; for anything else AT is MISSING. MISSING yields
// no rows, and any other value (NULL included) yields one row holding it.
type Scan struct {
	base       *iterator.BaseIterator
	source     execution.Expr
	as, at     string
	elems      *iterator.SliceIterator[datum.Datum]
	positional bool
	pos        int64
}

// NewScan creates a scan of source bound to as. at may be empty.
func NewScan(source execution.Expr, as, at string) (*Scan, error) {
	if source == nil {
		return nil, fmt.Errorf("scan source cannot be nil")
	}
	if as == "" {
		return nil, fmt.Errorf("scan alias cannot be empty")
	}

	s := &Scan{source: source, as: as, at: at}
	s.base = iterator.NewBaseIterator(s.readNext)
	return s, nil
}

// Open evaluates the source under parent and positions the scan before the
// first element.
func (s *Scan) Open(parent *env.Env) error {
	if parent == nil {
		parent = env.Root()
	}
	v, err := s.source.Eval(parent)
	if err != nil {
		return err
	}

	var elems []datum.Datum
	elems, s.positional = coerce(v)
	s.elems = iterator.NewSliceIterator(elems)
	s.pos = 0
	s.base.MarkOpened()
	return nil
}

// coerce turns a FROM source into the elements to iterate.
func coerce(v datum.Datum) ([]datum.Datum, bool) {
	switch v.Kind() {
	case datum.KindMissing:
		return nil, false
	case datum.KindList:
		return v.Elems(), true
	case datum.KindBag:
		return v.Elems(), false
	default:
		return []datum.Datum{v}, false
	}
}

func (s *Scan) readNext() (*env.Row, error) {
	v, ok := s.elems.ReadNext()
	if !ok {
		return nil, nil
	}

	if s.at == "" {
		return env.NewRow(env.Binding{Name: s.as, Value: v}), nil
	}
	at := datum.Missing()
	if s.positional {
		at = datum.Int64(s.pos)
	}
	s.pos++
	return env.NewRow(env.Binding{Name: s.as, Value: v}, env.Binding{Name: s.at, Value: at}), nil
}

func (s *Scan) HasNext() (bool, error) { return s.base.HasNext() }

func (s *Scan) Next() (*env.Row, error) { return s.base.Next() }

func (s *Scan) Close() error {
	s.elems = nil
	return s.base.Close()
}

// Schema returns the alias, followed by the AT alias when one is set.
func (s *Scan) Schema() env.Schema {
	if s.at == "" {
		return env.Schema{s.as}
	}
	return env.Schema{s.as, s.at}
}
