// Package iterator defines the pull-based row iterator contract shared by all
// relational operators, plus the building blocks operators are assembled from.
package iterator

import "pqleval/pkg/env"

// RowIterator is the contract for every relational operator in the execution
// engine. Operators form a tree; the root is drained by the Select evaluator
// and each node pulls rows from its children on demand.
type RowIterator interface {
	RowSource

	// Open prepares the iterator to produce rows under the given outer scope.
	// Every expression the operator evaluates sees parent's bindings behind the
	// operator's own row. Opening an iterator that is already open restarts it
	// from the first row; this is how lateral joins and correlated subqueries
	// re-run their inner side.
	Open(parent *env.Env) error

	// Close releases all resources associated with the iterator. Closing a
	// closed iterator is a no-op.
	Close() error

	// Schema returns the binding names of the rows produced by Next. It can be
	// called regardless of iterator state.
	Schema() env.Schema
}

// RowSource is the minimal iteration surface shared by operators and
// materialized row buffers. It allows writing generic helpers that work with
// either.
type RowSource interface {
	// HasNext checks if there are more rows available without consuming them.
	HasNext() (bool, error)

	// Next retrieves the next row, advancing the position.
	Next() (*env.Row, error)
}
