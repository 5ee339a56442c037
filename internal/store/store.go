package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/parlor/internal/document"
)

// Kind selects a backend implementation. Backend selection is a
// deployment-time configuration choice, made once at Open.
type Kind string

const (
	// KindMemory is the volatile in-process backend (the default).
	KindMemory Kind = "memory"
	// KindAppendLog is the file-backed append-only backend.
	KindAppendLog Kind = "appendlog"
	// KindSQLite is the embedded relational backend.
	KindSQLite Kind = "sqlite"
)

// Entry is one (key, value) pair of a table.
type Entry struct {
	Key   string
	Value document.Document
}

// Store is the uniform table-store contract implemented by every backend.
//
// Tables are created transparently on first Put; Get and List on a table
// that was never written behave as an empty table. Delete of an absent key
// succeeds silently. List returns entries in ascending key order.
type Store interface {
	Put(ctx context.Context, table, key string, value document.Document) error
	Get(ctx context.Context, table, key string) (document.Document, bool, error)
	Delete(ctx context.Context, table, key string) error
	List(ctx context.Context, table string) ([]Entry, error)
}

// Options configures Open.
type Options struct {
	// Kind selects the backend. Empty defaults to KindMemory.
	Kind Kind
	// Path is the database file (sqlite) or log directory (appendlog).
	// Ignored by the memory backend.
	Path string
}

// ErrBadConfig reports an Options combination no backend can satisfy.
var ErrBadConfig = errors.New("store: invalid configuration")

// Open allocates the configured backend. Failure here is fatal to the
// caller: there is no partially-opened store to fall back to.
func Open(opts Options) (Store, error) {
	kind := opts.Kind
	if kind == "" {
		kind = KindMemory
	}

	switch kind {
	case KindMemory:
		return NewMemory(), nil
	case KindAppendLog:
		if opts.Path == "" {
			return nil, fmt.Errorf("%w: appendlog backend requires a directory path", ErrBadConfig)
		}
		return OpenAppendLog(opts.Path)
	case KindSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("%w: sqlite backend requires a file path", ErrBadConfig)
		}
		return OpenSQLite(opts.Path)
	default:
		return nil, fmt.Errorf("%w: unknown backend kind %q", ErrBadConfig, opts.Kind)
	}
}
