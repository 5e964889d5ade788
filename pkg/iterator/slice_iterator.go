package iterator

import "errors"

// ErrExhausted is returned by SliceIterator.Next past the last element.
var ErrExhausted = errors.New("slice iterator exhausted")

// SliceIterator walks a materialized slice. Operators that must see all of
// their input before emitting anything (Sort, Aggregate, Scan over a
// collection) fill a slice on Open and stream it out through one of these.
//
// It has no lifecycle and is not safe for concurrent use.
//
//	iter := NewSliceIterator(rows)
//	for row, ok := iter.ReadNext(); ok; row, ok = iter.ReadNext() {
//	    process(row)
//	}
type SliceIterator[T any] struct {
	items []T
	pos   int
}

// NewSliceIterator creates an iterator positioned at the start of items.
func NewSliceIterator[T any](items []T) *SliceIterator[T] {
	return &SliceIterator[T]{items: items}
}

func (it *SliceIterator[T]) HasNext() bool { return it.pos < len(it.items) }

// Next returns the next element and advances.
func (it *SliceIterator[T]) Next() (T, error) {
	v, ok := it.ReadNext()
	if !ok {
		return v, ErrExhausted
	}
	return v, nil
}

// ReadNext returns the next element, or the zero value and false once the
// slice is exhausted. It is the form ReadNextFuncs use.
func (it *SliceIterator[T]) ReadNext() (T, bool) {
	if it.pos >= len(it.items) {
		var zero T
		return zero, false
	}
	v := it.items[it.pos]
	it.pos++
	return v, true
}

func (it *SliceIterator[T]) Len() int { return len(it.items) }

// Remaining returns the number of elements not yet read.
func (it *SliceIterator[T]) Remaining() int { return len(it.items) - it.pos }
