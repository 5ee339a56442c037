package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/parlor/internal/document"
)

// SQLite is the embedded relational backend. Each logical table maps to a
// relation with a key column and an opaque value column holding canonical
// JSON; Put is an upsert, List is a key-ordered scan. Durable, and open to
// ad hoc querying with the sqlite3 shell.
//
// The database is configured with WAL mode for concurrent reads during
// writes, NORMAL synchronous mode, a 5-second busy timeout, and a single
// writer connection to avoid SQLITE_BUSY errors.
type SQLite struct {
	db *sql.DB

	mu      sync.Mutex
	created map[string]bool // logical tables whose relation exists
}

// tablePrefix namespaces store relations away from sqlite internals.
const tablePrefix = "t_"

// OpenSQLite creates or opens a SQLite database at the given path.
// Safe to call on an existing database; relations are created lazily as
// tables are first touched.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: connect: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: execute %q: %w", pragma, err)
		}
	}

	return &SQLite{db: db, created: make(map[string]bool)}, nil
}

// relation maps a logical table name to a quoted SQL identifier, rejecting
// names that cannot be embedded safely.
func relation(table string) (string, error) {
	if table == "" || strings.ContainsAny(table, "\"`'[]") {
		return "", fmt.Errorf("sqlite: invalid table name %q", table)
	}
	return `"` + tablePrefix + table + `"`, nil
}

// ensureTable creates the relation for a logical table on first touch.
func (s *SQLite) ensureTable(ctx context.Context, table string) (string, error) {
	rel, err := relation(table)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[table] {
		return rel, nil
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`, rel)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return "", fmt.Errorf("sqlite: create table %s: %w", table, err)
	}
	s.created[table] = true
	return rel, nil
}

// Put upserts the value for a key.
func (s *SQLite) Put(ctx context.Context, table, key string, value document.Document) error {
	rel, err := s.ensureTable(ctx, table)
	if err != nil {
		return err
	}

	canonical, err := document.MarshalCanonical(value)
	if err != nil {
		return fmt.Errorf("sqlite: encode value: %w", err)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, rel)
	if _, err := s.db.ExecContext(ctx, stmt, key, string(canonical)); err != nil {
		return fmt.Errorf("sqlite: put %s/%s: %w", table, key, err)
	}
	return nil
}

// Get returns the value for a key, or absent.
func (s *SQLite) Get(ctx context.Context, table, key string) (document.Document, bool, error) {
	rel, err := s.ensureTable(ctx, table)
	if err != nil {
		return nil, false, err
	}

	var raw string
	stmt := fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, rel)
	err = s.db.QueryRowContext(ctx, stmt, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: get %s/%s: %w", table, key, err)
	}

	doc, err := document.Unmarshal([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: decode %s/%s: %w", table, key, err)
	}
	return doc, true, nil
}

// Delete removes a key. Deleting an absent key succeeds silently.
func (s *SQLite) Delete(ctx context.Context, table, key string) error {
	rel, err := s.ensureTable(ctx, table)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, rel)
	if _, err := s.db.ExecContext(ctx, stmt, key); err != nil {
		return fmt.Errorf("sqlite: delete %s/%s: %w", table, key, err)
	}
	return nil
}

// List returns all entries of a table in ascending key order.
func (s *SQLite) List(ctx context.Context, table string) ([]Entry, error) {
	rel, err := s.ensureTable(ctx, table)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf(`SELECT key, value FROM %s ORDER BY key ASC`, rel)
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list %s: %w", table, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("sqlite: scan %s: %w", table, err)
		}
		doc, err := document.Unmarshal([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("sqlite: decode %s/%s: %w", table, key, err)
		}
		entries = append(entries, Entry{Key: key, Value: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate %s: %w", table, err)
	}
	return entries, nil
}

// ListTables returns the logical tables present in the database, in
// ascending name order. Administrative surface, not part of the minimal
// store contract.
func (s *SQLite) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name LIKE ?
	`, tablePrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scan table name: %w", err)
		}
		tables = append(tables, strings.TrimPrefix(name, tablePrefix))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate tables: %w", err)
	}

	sort.Strings(tables)
	return tables, nil
}

// Close closes the database connection. Administrative surface.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
