// Package setops implements the bag set operators UNION, INTERSECT and
// EXCEPT, with and without ALL, and DISTINCT.
//
// Rows compare by their binding values, position by position. Without ALL
// the result holds each distinct row once; with ALL, multiplicities follow
// bag semantics (INTERSECT ALL keeps min(m, n) copies, EXCEPT ALL keeps
// max(m-n, 0)).
package setops

import (
	"fmt"

	"pqleval/pkg/env"
	"pqleval/pkg/iterator"
	"pqleval/pkg/plan"
)

// SetOp provides common functionality for UNION, INTERSECT and EXCEPT.
type SetOp struct {
	*iterator.BinaryOperator
	kind        plan.SetOpKind
	preserveAll bool // true for the ALL variants

	right       *RowSet // materialised right input (INTERSECT, EXCEPT)
	seen        *RowSet // rows already emitted (distinct variants)
	leftDone    bool
	initialized bool
}

// NewSetOp creates the set operator of the given kind over left and right.
// Both inputs must produce the same number of bindings.
func NewSetOp(kind plan.SetOpKind, all bool, left, right iterator.RowIterator) (*SetOp, error) {
	if left == nil || right == nil {
		return nil, fmt.Errorf("set operation children cannot be nil")
	}
	if l, r := len(left.Schema()), len(right.Schema()); l != r {
		return nil, fmt.Errorf("schema mismatch: left has %d bindings, right has %d", l, r)
	}

	s := &SetOp{kind: kind, preserveAll: all}
	var readNext iterator.ReadNextFunc
	switch kind {
	case plan.Union:
		readNext = s.readUnion
	case plan.Intersect:
		readNext = s.readIntersect
	case plan.Except:
		readNext = s.readExcept
	default:
		return nil, fmt.Errorf("unsupported set operation: %v", kind)
	}

	op, err := iterator.NewBinaryOperator(left, right, readNext)
	if err != nil {
		return nil, err
	}
	s.BinaryOperator = op
	return s, nil
}

// Open opens the left input and resets the tracking sets.
func (s *SetOp) Open(parent *env.Env) error {
	if err := s.BinaryOperator.Open(parent); err != nil {
		return err
	}
	s.right = NewRowSet()
	s.seen = NewRowSet()
	s.leftDone = false
	s.initialized = false
	return nil
}

// Close releases both inputs and the tracking sets.
func (s *SetOp) Close() error {
	s.right = nil
	s.seen = nil
	return s.BinaryOperator.Close()
}

// Schema returns the left input's binding names; right rows are renamed to
// them.
func (s *SetOp) Schema() env.Schema {
	return s.GetLeftChild().Schema()
}

// rename rebinds a right row under the left schema.
func (s *SetOp) rename(r *env.Row) *env.Row {
	names := s.Schema()
	out := make([]env.Binding, len(r.Bindings))
	for i, b := range r.Bindings {
		out[i] = env.Binding{Name: names[i], Value: b.Value}
	}
	return env.NewRow(out...)
}

// buildRightSet materialises the right input into s.right. The right input
// is opened under the same outer scope as the left one.
func (s *SetOp) buildRightSet() error {
	if s.initialized {
		return nil
	}
	if err := s.OpenRight(s.Parent()); err != nil {
		return err
	}
	err := iterator.ForEach(s.GetRightChild(), func(r *env.Row) error {
		s.right.Add(r)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to materialise right input: %w", err)
	}
	s.initialized = true
	return nil
}

// emitOnce reports whether r should be emitted under the distinct variants.
func (s *SetOp) emitOnce(r *env.Row) bool {
	return s.preserveAll || s.seen.Add(r)
}

func (s *SetOp) readUnion() (*env.Row, error) {
	for !s.leftDone {
		r, err := s.FetchLeft()
		if err != nil {
			return nil, err
		}
		if r == nil {
			s.leftDone = true
			if err := s.OpenRight(s.Parent()); err != nil {
				return nil, err
			}
			break
		}
		if s.emitOnce(r) {
			return r, nil
		}
	}

	for {
		r, err := s.FetchRight()
		if err != nil || r == nil {
			return r, err
		}
		r = s.rename(r)
		if s.emitOnce(r) {
			return r, nil
		}
	}
}

func (s *SetOp) readIntersect() (*env.Row, error) {
	if err := s.buildRightSet(); err != nil {
		return nil, err
	}

	for {
		r, err := s.FetchLeft()
		if err != nil || r == nil {
			return r, err
		}
		if s.preserveAll {
			if s.right.Take(r) {
				return r, nil
			}
			continue
		}
		if s.right.Contains(r) && s.seen.Add(r) {
			return r, nil
		}
	}
}

func (s *SetOp) readExcept() (*env.Row, error) {
	if err := s.buildRightSet(); err != nil {
		return nil, err
	}

	for {
		r, err := s.FetchLeft()
		if err != nil || r == nil {
			return r, err
		}
		if s.preserveAll {
			if s.right.Take(r) {
				continue
			}
			return r, nil
		}
		if !s.right.Contains(r) && s.seen.Add(r) {
			return r, nil
		}
	}
}
