// Package locking implements the coarse per-(entityType, entityId) lock
// table: write tools serialize on this key for the duration of an
// operation; read tools take no locks. Entries are evicted once
// unreferenced so the table does not grow unbounded.
package locking

import "sync"

// Table is a table of mutexes keyed by (entityType, entityID), guarded by
// a single mutex.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	refCount int
}

// NewTable constructs an empty lock Table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*entry)}
}

// Lock acquires the lock for (entityType, id), blocking until available.
// The returned func must be called to release it; failing to call it
// leaks both the hold and the table entry, which is refcounted and
// evicted only by that func.
func (t *Table) Lock(entityType, id string) func() {
	key := entityType + ":" + id

	t.mu.Lock()
	e, ok := t.entries[key]
	if !ok {
		e = &entry{}
		t.entries[key] = e
	}
	e.refCount++
	t.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		t.mu.Lock()
		e.refCount--
		if e.refCount == 0 {
			delete(t.entries, key)
		}
		t.mu.Unlock()
	}
}
