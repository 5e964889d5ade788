package iterator

import (
	"fmt"

	"pqleval/pkg/env"
)

// ReadNextFunc reads the next row from an operator's underlying source.
// It returns a nil row, and a nil error, once the source is exhausted.
type ReadNextFunc func() (*env.Row, error)

// BaseIterator implements the lookahead caching and open/closed state shared
// by every operator, delegating the actual reading to a ReadNextFunc.
type BaseIterator struct {
	nextRow      *env.Row     // Cached next row for lookahead
	opened       bool         // Whether Open has been called since the last Close
	readNextFunc ReadNextFunc // Reads the next row from the underlying source
}

// NewBaseIterator creates a base iterator around readNextFunc. The iterator
// starts closed and must be marked opened before use.
func NewBaseIterator(readNextFunc ReadNextFunc) *BaseIterator {
	return &BaseIterator{
		readNextFunc: readNextFunc,
	}
}

// HasNext checks if a next row is available without consuming it, reading
// ahead into the cache when necessary.
func (it *BaseIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, fmt.Errorf("iterator not opened")
	}

	if it.nextRow == nil {
		var err error
		it.nextRow, err = it.readNextFunc()
		if err != nil {
			return false, err
		}
	}
	return it.nextRow != nil, nil
}

// Next returns the next row and advances the iterator. If HasNext cached a
// row, that row is returned and the cache cleared.
func (it *BaseIterator) Next() (*env.Row, error) {
	if !it.opened {
		return nil, fmt.Errorf("iterator not opened")
	}

	if it.nextRow == nil {
		var err error
		it.nextRow, err = it.readNextFunc()
		if err != nil {
			return nil, err
		}
		if it.nextRow == nil {
			return nil, fmt.Errorf("no more rows")
		}
	}

	result := it.nextRow
	it.nextRow = nil
	return result, nil
}

// Close clears the cache and marks the iterator closed.
func (it *BaseIterator) Close() error {
	it.nextRow = nil
	it.opened = false
	return nil
}

// MarkOpened marks the iterator ready for use and drops any cached row, so a
// re-opened operator starts from the beginning.
func (it *BaseIterator) MarkOpened() {
	it.opened = true
	it.nextRow = nil
}

// IsOpen reports whether the iterator has been opened and not yet closed.
func (it *BaseIterator) IsOpen() bool {
	return it.opened
}
