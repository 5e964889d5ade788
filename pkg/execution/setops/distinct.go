package setops

import (
	"pqleval/pkg/env"
	"pqleval/pkg/iterator"
)

// Distinct removes duplicate rows from its input stream.
//
// Implementation:
//   - Uses a RowSet to remember every row already emitted
//   - Streaming operator: emits a row as soon as it is known to be new
//   - Input order is preserved, so an ordered input stays ordered
type Distinct struct {
	*iterator.UnaryOperator
	seen *RowSet
}

// NewDistinct creates a new Distinct operator over child.
func NewDistinct(child iterator.RowIterator) (*Distinct, error) {
	d := &Distinct{}
	op, err := iterator.NewUnaryOperator(child, d.readNext)
	if err != nil {
		return nil, err
	}
	d.UnaryOperator = op
	return d, nil
}

// Open opens the child and forgets previously emitted rows.
func (d *Distinct) Open(parent *env.Env) error {
	if err := d.UnaryOperator.Open(parent); err != nil {
		return err
	}
	d.seen = NewRowSet()
	return nil
}

func (d *Distinct) Close() error {
	d.seen = nil
	return d.UnaryOperator.Close()
}

func (d *Distinct) readNext() (*env.Row, error) {
	for {
		r, err := d.FetchNext()
		if err != nil || r == nil {
			return r, err
		}
		if d.seen.Add(r) {
			return r, nil
		}
	}
}
