package iterator

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"pqleval/pkg/env"
)

// BinaryOperator provides a base implementation for operators with two
// children, such as joins and set operators.
//
// Open opens the left child under the outer scope. Whether the right child
// is opened once (set operators, outer joins) or once per left row (lateral
// joins) is the operator's decision: it calls OpenRight with the scope the
// right side should see.
type BinaryOperator struct {
	base       *BaseIterator
	leftChild  RowIterator
	rightChild RowIterator
	parent     *env.Env
	rightOpen  bool
}

// NewBinaryOperator creates a binary operator base with the given children
// and read function.
func NewBinaryOperator(leftChild, rightChild RowIterator, readNextFunc ReadNextFunc) (*BinaryOperator, error) {
	if leftChild == nil {
		return nil, fmt.Errorf("left child operator cannot be nil")
	}
	if rightChild == nil {
		return nil, fmt.Errorf("right child operator cannot be nil")
	}

	b := &BinaryOperator{
		leftChild:  leftChild,
		rightChild: rightChild,
	}
	b.base = NewBaseIterator(readNextFunc)
	return b, nil
}

// FetchLeft retrieves the next row from the left child, or nil at the end.
func (b *BinaryOperator) FetchLeft() (*env.Row, error) {
	row, err := fetch(b.leftChild)
	if err != nil {
		return nil, fmt.Errorf("error fetching left child row: %w", err)
	}
	return row, nil
}

// FetchRight retrieves the next row from the right child, or nil at the end.
func (b *BinaryOperator) FetchRight() (*env.Row, error) {
	row, err := fetch(b.rightChild)
	if err != nil {
		return nil, fmt.Errorf("error fetching right child row: %w", err)
	}
	return row, nil
}

// OpenRight (re)opens the right child under scope.
func (b *BinaryOperator) OpenRight(scope *env.Env) error {
	if err := b.rightChild.Open(scope); err != nil {
		return fmt.Errorf("failed to open right child: %w", err)
	}
	b.rightOpen = true
	return nil
}

// Parent returns the outer scope passed to Open.
func (b *BinaryOperator) Parent() *env.Env {
	return b.parent
}

// Open opens the left child under parent and marks this operator ready.
func (b *BinaryOperator) Open(parent *env.Env) error {
	if parent == nil {
		parent = env.Root()
	}
	b.parent = parent
	if err := b.leftChild.Open(parent); err != nil {
		return fmt.Errorf("failed to open left child: %w", err)
	}
	b.base.MarkOpened()
	return nil
}

// Close closes both children, collecting every failure.
func (b *BinaryOperator) Close() error {
	var errs *multierror.Error

	if err := b.leftChild.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("left child close: %w", err))
	}

	if b.rightOpen {
		if err := b.rightChild.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("right child close: %w", err))
		}
		b.rightOpen = false
	}

	if err := b.base.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("base iterator close: %w", err))
	}

	return errs.ErrorOrNil()
}

// HasNext checks if there are more rows available.
func (b *BinaryOperator) HasNext() (bool, error) {
	return b.base.HasNext()
}

// Next returns the next row from the operator.
func (b *BinaryOperator) Next() (*env.Row, error) {
	return b.base.Next()
}

// Schema returns the left schema followed by the right schema.
func (b *BinaryOperator) Schema() env.Schema {
	return b.leftChild.Schema().Concat(b.rightChild.Schema())
}

// GetLeftChild returns the left child operator.
func (b *BinaryOperator) GetLeftChild() RowIterator {
	return b.leftChild
}

// GetRightChild returns the right child operator.
func (b *BinaryOperator) GetRightChild() RowIterator {
	return b.rightChild
}
