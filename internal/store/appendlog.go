package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/parlor/internal/document"
)

// AppendLog is the file-backed backend: each table maps to one append-only
// file of JSON-lines records under the store directory. The files are the
// source of truth and stay human-inspectable; current state is a compacted
// in-memory index rebuilt from the files at open (last write per key wins)
// and maintained on every write.
//
// Records are written with os.File.Sync after each append: a Put that
// returned nil is on disk. Write failures propagate to the caller.
type AppendLog struct {
	dir string

	mu     sync.RWMutex
	tables map[string]*logTable
}

type logTable struct {
	mu      sync.RWMutex
	file    *os.File
	entries map[string]document.Document
}

// logRecord is one line of a table file.
type logRecord struct {
	Op    string          `json:"op"` // "put" | "delete"
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
}

const logSuffix = ".log"

// OpenAppendLog opens (or creates) an append-log store rooted at dir and
// rebuilds the index of every table file already present.
func OpenAppendLog(dir string) (*AppendLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("appendlog: create directory %s: %w", dir, err)
	}

	a := &AppendLog{dir: dir, tables: make(map[string]*logTable)}

	names, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("appendlog: read directory %s: %w", dir, err)
	}
	for _, ent := range names {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), logSuffix) {
			continue
		}
		table := strings.TrimSuffix(ent.Name(), logSuffix)
		if _, err := a.openTable(table); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// openTable opens a table file, replaying existing records into the index.
// Creates the file on first reference.
func (a *AppendLog) openTable(name string) (*logTable, error) {
	a.mu.RLock()
	t := a.tables[name]
	a.mu.RUnlock()
	if t != nil {
		return t, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if t = a.tables[name]; t != nil {
		return t, nil
	}

	path := filepath.Join(a.dir, name+logSuffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("appendlog: open table %s: %w", name, err)
	}

	entries, err := replayLog(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("appendlog: replay table %s: %w", name, err)
	}
	if _, err := f.Seek(0, 2); err != nil {
		f.Close()
		return nil, fmt.Errorf("appendlog: seek table %s: %w", name, err)
	}

	t = &logTable{file: f, entries: entries}
	a.tables[name] = t
	return t, nil
}

// replayLog folds a table file into its current state, last write wins.
func replayLog(f *os.File) (map[string]document.Document, error) {
	entries := make(map[string]document.Document)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec logRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		switch rec.Op {
		case "put":
			doc, err := document.Unmarshal(rec.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			entries[rec.Key] = doc
		case "delete":
			delete(entries, rec.Key)
		default:
			return nil, fmt.Errorf("line %d: unknown op %q", line, rec.Op)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// append writes one record and syncs before updating the index, so the
// index never claims a write the file does not hold.
func (t *logTable) append(rec logRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("appendlog: marshal record: %w", err)
	}
	data = append(data, '\n')
	if _, err := t.file.Write(data); err != nil {
		return fmt.Errorf("appendlog: append: %w", err)
	}
	if err := t.file.Sync(); err != nil {
		return fmt.Errorf("appendlog: sync: %w", err)
	}
	return nil
}

// Put upserts the value for a key.
func (a *AppendLog) Put(_ context.Context, table, key string, value document.Document) error {
	t, err := a.openTable(table)
	if err != nil {
		return err
	}

	canonical, err := document.MarshalCanonical(value)
	if err != nil {
		return fmt.Errorf("appendlog: encode value: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.append(logRecord{Op: "put", Key: key, Value: canonical}); err != nil {
		return err
	}
	t.entries[key] = value.Clone()
	return nil
}

// Get returns the value for a key, or absent.
func (a *AppendLog) Get(_ context.Context, table, key string) (document.Document, bool, error) {
	t, err := a.openTable(table)
	if err != nil {
		return nil, false, err
	}

	t.mu.RLock()
	v, ok := t.entries[key]
	t.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return v.Clone(), true, nil
}

// Delete removes a key. A delete record is appended even for absent keys so
// the operation stays idempotent without a read-before-write.
func (a *AppendLog) Delete(_ context.Context, table, key string) error {
	t, err := a.openTable(table)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.append(logRecord{Op: "delete", Key: key}); err != nil {
		return err
	}
	delete(t.entries, key)
	return nil
}

// List returns all entries of a table in ascending key order.
func (a *AppendLog) List(_ context.Context, table string) ([]Entry, error) {
	t, err := a.openTable(table)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	entries := make([]Entry, 0, len(t.entries))
	for k, v := range t.entries {
		entries = append(entries, Entry{Key: k, Value: v.Clone()})
	}
	t.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Close closes every table file. The store must not be used afterwards.
func (a *AppendLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for name, t := range a.tables {
		t.mu.Lock()
		if err := t.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("appendlog: close table %s: %w", name, err)
		}
		t.mu.Unlock()
	}
	a.tables = make(map[string]*logTable)
	return firstErr
}
