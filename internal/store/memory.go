package store

import (
	"context"
	"sort"
	"sync"

	"github.com/roach88/parlor/internal/document"
)

// Memory is the volatile in-process backend. State is lost on restart;
// suitable for ephemeral deployments and tests.
//
// Each logical table is its own map behind its own RWMutex, so readers of
// one table never contend with writers of another. Values are deep-copied
// on both write and read: a caller mutating a document it put or got can
// never corrupt the stored copy.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

type memTable struct {
	mu      sync.RWMutex
	entries map[string]document.Document
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*memTable)}
}

// table returns the named table, creating it on first reference.
func (m *Memory) table(name string) *memTable {
	m.mu.RLock()
	t := m.tables[name]
	m.mu.RUnlock()
	if t != nil {
		return t
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t = m.tables[name]; t == nil {
		t = &memTable{entries: make(map[string]document.Document)}
		m.tables[name] = t
	}
	return t
}

// Put upserts the value for a key.
func (m *Memory) Put(_ context.Context, table, key string, value document.Document) error {
	t := m.table(table)
	clone := value.Clone()

	t.mu.Lock()
	t.entries[key] = clone
	t.mu.Unlock()
	return nil
}

// Get returns the value for a key, or absent.
func (m *Memory) Get(_ context.Context, table, key string) (document.Document, bool, error) {
	t := m.table(table)

	t.mu.RLock()
	v, ok := t.entries[key]
	t.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return v.Clone(), true, nil
}

// Delete removes a key. Deleting an absent key succeeds silently.
func (m *Memory) Delete(_ context.Context, table, key string) error {
	t := m.table(table)

	t.mu.Lock()
	delete(t.entries, key)
	t.mu.Unlock()
	return nil
}

// List returns all entries of a table in ascending key order.
func (m *Memory) List(_ context.Context, table string) ([]Entry, error) {
	t := m.table(table)

	t.mu.RLock()
	entries := make([]Entry, 0, len(t.entries))
	for k, v := range t.entries {
		entries = append(entries, Entry{Key: k, Value: v.Clone()})
	}
	t.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}
