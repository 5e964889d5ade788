package query

import (
	"fmt"
	"sort"

	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	"pqleval/pkg/execution"
	"pqleval/pkg/iterator"
)

// SortKey is one ORDER BY key.
type SortKey struct {
	Expr execution.Expr
	Desc bool
	// NullsFirst places NULL and MISSING keys before all other values,
	// whatever the direction.
	NullsFirst bool
}

// keyedRow pairs a row with its evaluated sort keys.
type keyedRow struct {
	row  *env.Row
	keys []datum.Datum
}

// Sort orders rows by a list of keys.
//
// Implementation:
//   - Materializes all rows from input on the first read (blocking operator)
//   - Evaluates every key once per row, under the row's scope
//   - Sorts stably, so rows with equal keys keep their input order
//   - Streams sorted rows in order
type Sort struct {
	*iterator.UnaryOperator
	keys         []SortKey
	sorted       *iterator.SliceIterator[keyedRow]
	materialized bool
}

// NewSort creates a Sort over child.
func NewSort(child iterator.RowIterator, keys []SortKey) (*Sort, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("sort requires at least one key")
	}

	s := &Sort{keys: keys}
	op, err := iterator.NewUnaryOperator(child, s.readNext)
	if err != nil {
		return nil, err
	}
	s.UnaryOperator = op
	return s, nil
}

// Open opens the child and discards any previously sorted rows.
func (s *Sort) Open(parent *env.Env) error {
	if err := s.UnaryOperator.Open(parent); err != nil {
		return err
	}
	s.sorted = nil
	s.materialized = false
	return nil
}

func (s *Sort) Close() error {
	s.sorted = nil
	s.materialized = false
	return s.UnaryOperator.Close()
}

func (s *Sort) readNext() (*env.Row, error) {
	if !s.materialized {
		if err := s.materialize(); err != nil {
			return nil, err
		}
	}
	kr, ok := s.sorted.ReadNext()
	if !ok {
		return nil, nil
	}
	return kr.row, nil
}

// materialize reads the whole input, evaluates the keys and sorts.
func (s *Sort) materialize() error {
	var rows []keyedRow
	err := iterator.ForEach(s.GetChild(), func(row *env.Row) error {
		scope := s.Scope(row)
		keys := make([]datum.Datum, len(s.keys))
		for i, k := range s.keys {
			v, err := k.Expr.Eval(scope)
			if err != nil {
				return err
			}
			keys[i] = v
		}
		rows = append(rows, keyedRow{row: row, keys: keys})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to materialize sort input: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return s.compare(rows[i].keys, rows[j].keys) < 0
	})
	s.sorted = iterator.NewSliceIterator(rows)
	s.materialized = true
	return nil
}

// compare orders two key tuples. Absent keys are placed by NullsFirst and,
// among themselves, MISSING comes before NULL; DESC reverses only the order
// of present values.
func (s *Sort) compare(a, b []datum.Datum) int {
	for i, k := range s.keys {
		x, y := a[i], b[i]
		var c int
		switch xa, ya := x.IsAbsent(), y.IsAbsent(); {
		case xa && ya:
			c = datum.Compare(x, y)
		case xa:
			c = 1
			if k.NullsFirst {
				c = -1
			}
		case ya:
			c = -1
			if k.NullsFirst {
				c = 1
			}
		default:
			c = datum.Compare(x, y)
			if k.Desc {
				c = -c
			}
		}
		if c != 0 {
			return c
		}
	}
	return 0
}
