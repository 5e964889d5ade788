package iterator

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"pqleval/pkg/env"
)

// UnaryOperator provides a base implementation for operators with a single
// child. It combines BaseIterator's caching with child management, so Filter,
// Sort, Limit and similar operators only implement their readNext logic.
//
// UnaryOperator handles:
//   - opening the child under the same outer scope and closing it
//   - remembering the outer scope so readNext can build row scopes
//   - the HasNext/Next ceremony of reading from the child (FetchNext)
//   - forwarding the child's schema
type UnaryOperator struct {
	base   *BaseIterator
	child  RowIterator
	parent *env.Env
}

// NewUnaryOperator creates a unary operator base with the given child and
// read function.
func NewUnaryOperator(child RowIterator, readNextFunc ReadNextFunc) (*UnaryOperator, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}

	u := &UnaryOperator{
		child: child,
	}
	u.base = NewBaseIterator(readNextFunc)
	return u, nil
}

// FetchNext retrieves the next row from the child. It returns nil once the
// child is exhausted.
func (u *UnaryOperator) FetchNext() (*env.Row, error) {
	return fetch(u.child)
}

// Scope returns the environment an expression over row evaluates in: the
// outer scope the operator was opened with, extended by row.
func (u *UnaryOperator) Scope(row *env.Row) *env.Env {
	return u.parent.Push(row)
}

// Parent returns the outer scope passed to Open.
func (u *UnaryOperator) Parent() *env.Env {
	return u.parent
}

// Open opens the child under parent and marks this operator ready.
func (u *UnaryOperator) Open(parent *env.Env) error {
	if parent == nil {
		parent = env.Root()
	}
	u.parent = parent
	if err := u.child.Open(parent); err != nil {
		return fmt.Errorf("failed to open child operator: %w", err)
	}
	u.base.MarkOpened()
	return nil
}

// Close closes the child and releases resources. Errors from the child and
// the base are both reported.
func (u *UnaryOperator) Close() error {
	var errs *multierror.Error
	if err := u.child.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("child close: %w", err))
	}
	if err := u.base.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// Schema returns the child's schema. Operators that change the bindings
// override it.
func (u *UnaryOperator) Schema() env.Schema {
	return u.child.Schema()
}

// HasNext checks if there are more rows available.
func (u *UnaryOperator) HasNext() (bool, error) {
	return u.base.HasNext()
}

// Next returns the next row from the operator.
func (u *UnaryOperator) Next() (*env.Row, error) {
	return u.base.Next()
}

// GetChild returns the child operator.
func (u *UnaryOperator) GetChild() RowIterator {
	return u.child
}

// fetch performs the HasNext/Next ceremony on src. A nil row means the
// source is exhausted.
func fetch(src RowSource) (*env.Row, error) {
	hasNext, err := src.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, nil
	}

	row, err := src.Next()
	if err != nil {
		return nil, fmt.Errorf("error getting next row from child: %w", err)
	}
	return row, nil
}
