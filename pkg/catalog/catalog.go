// Package catalog resolves the named globals a statement reads.
//
// A Catalog is consulted once per Global node evaluation. Implementations
// must be safe for concurrent use: several executions of the same or
// different statements may look up globals at the same time.
package catalog

import (
	"context"
	"sort"
	"sync"

	"pqleval/pkg/datum"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/types"
)

// Global is a named value together with its declared type. A Dynamic type
// means the value is not checked.
type Global struct {
	Name  string
	Type  types.Type
	Value datum.Datum
}

// Catalog looks up globals by name. A missing global is reported with
// found == false and a nil error; err is reserved for lookup failures.
type Catalog interface {
	Lookup(ctx context.Context, name string) (g Global, found bool, err error)
}

// Memory is a read-mostly in-memory catalog.
type Memory struct {
	globals map[string]Global
	mutex   sync.RWMutex
}

// NewMemory returns a catalog holding the given globals.
func NewMemory(globals ...Global) *Memory {
	m := &Memory{globals: make(map[string]Global, len(globals))}
	for _, g := range globals {
		m.globals[g.Name] = g
	}
	return m
}

// Define adds or replaces a global.
func (m *Memory) Define(g Global) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.globals[g.Name] = g
}

// Set defines an untyped global.
func (m *Memory) Set(name string, value datum.Datum) {
	m.Define(Global{Name: name, Type: types.Dynamic(), Value: value})
}

// Lookup implements Catalog.
func (m *Memory) Lookup(ctx context.Context, name string) (Global, bool, error) {
	if err := ctx.Err(); err != nil {
		return Global{}, false, evalerr.Wrap(err, evalerr.KindCatalogFailure, "Lookup", "catalog")
	}
	return m.lookup(name)
}

func (m *Memory) lookup(name string) (Global, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	g, ok := m.globals[name]
	return g, ok, nil
}

// Names returns the defined global names in sorted order.
func (m *Memory) Names() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	names := make([]string, 0, len(m.globals))
	for name := range m.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain consults each catalog in order and returns the first hit.
type Chain []Catalog

// Lookup implements Catalog.
func (c Chain) Lookup(ctx context.Context, name string) (Global, bool, error) {
	for _, cat := range c {
		g, ok, err := cat.Lookup(ctx, name)
		if err != nil || ok {
			return g, ok, err
		}
	}
	return Global{}, false, nil
}
