// Package itertest provides an in-memory RowIterator for operator tests.
package itertest

import (
	"fmt"

	"pqleval/pkg/datum"
	"pqleval/pkg/env"
)

// MockIterator replays a fixed list of rows and records how it was driven.
type MockIterator struct {
	rows   []*env.Row
	schema env.Schema
	index  int
	isOpen bool

	// Opens counts calls to Open.
	Opens int
	// LastParent is the scope passed to the latest Open.
	LastParent *env.Env
	// OpenErr, NextErr and CloseErr are returned by the matching method when set.
	OpenErr  error
	NextErr  error
	CloseErr error
}

// New builds a mock producing one row per values slice, binding the values
// to schema positionally.
func New(schema env.Schema, values ...[]datum.Datum) *MockIterator {
	rows := make([]*env.Row, len(values))
	for i, vs := range values {
		if len(vs) != len(schema) {
			panic(fmt.Sprintf("itertest.New: row %d has %d values for %d names", i, len(vs), len(schema)))
		}
		bindings := make([]env.Binding, len(vs))
		for j, v := range vs {
			bindings[j] = env.Binding{Name: schema[j], Value: v}
		}
		rows[i] = env.NewRow(bindings...)
	}
	return &MockIterator{rows: rows, schema: schema, index: -1}
}

// Single builds a mock with one binding name and one row per value.
func Single(name string, values ...datum.Datum) *MockIterator {
	rows := make([][]datum.Datum, len(values))
	for i, v := range values {
		rows[i] = []datum.Datum{v}
	}
	return New(env.Schema{name}, rows...)
}

func (m *MockIterator) Open(parent *env.Env) error {
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.isOpen = true
	m.index = -1
	m.Opens++
	m.LastParent = parent
	return nil
}

func (m *MockIterator) HasNext() (bool, error) {
	if !m.isOpen {
		return false, fmt.Errorf("iterator not open")
	}
	if m.NextErr != nil {
		return false, m.NextErr
	}
	return m.index+1 < len(m.rows), nil
}

func (m *MockIterator) Next() (*env.Row, error) {
	if !m.isOpen {
		return nil, fmt.Errorf("iterator not open")
	}
	if m.NextErr != nil {
		return nil, m.NextErr
	}
	m.index++
	if m.index >= len(m.rows) {
		return nil, fmt.Errorf("no more rows")
	}
	return m.rows[m.index], nil
}

func (m *MockIterator) Close() error {
	m.isOpen = false
	return m.CloseErr
}

func (m *MockIterator) Schema() env.Schema { return m.schema }

// IsOpen reports whether the mock is between Open and Close.
func (m *MockIterator) IsOpen() bool { return m.isOpen }
