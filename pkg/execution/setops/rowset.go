package setops

import (
	"pqleval/pkg/datum"
	"pqleval/pkg/env"
)

// RowSet is a hash-based multiset of rows. Rows are keyed by their binding
// values, position by position, so binding names do not take part in the
// comparison. Equality is datum.Equal; NULL equals NULL and MISSING equals
// MISSING here.
type RowSet struct {
	set *datum.Set
}

// NewRowSet creates an empty row set.
func NewRowSet() *RowSet {
	return &RowSet{set: datum.NewSet()}
}

// rowKey turns a row into the datum the set is keyed by.
func rowKey(r *env.Row) datum.Datum {
	return datum.Collect(r.Values(), true)
}

// Add adds one copy of r and reports whether r was not present before.
func (rs *RowSet) Add(r *env.Row) bool {
	return rs.set.Add(rowKey(r))
}

// Contains reports whether at least one copy of r remains.
func (rs *RowSet) Contains(r *env.Row) bool {
	return rs.set.Contains(rowKey(r))
}

// Count returns the number of remaining copies of r.
func (rs *RowSet) Count(r *env.Row) int {
	return rs.set.Count(rowKey(r))
}

// Take removes one copy of r and reports whether there was one.
func (rs *RowSet) Take(r *env.Row) bool {
	return rs.set.Take(rowKey(r))
}

// Remove drops every copy of r.
func (rs *RowSet) Remove(r *env.Row) {
	rs.set.Remove(rowKey(r))
}
