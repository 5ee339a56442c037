package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/roach88/parlor/internal/document"
)

// backends enumerates the three implementations under their contract tests.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	appendLog, err := OpenAppendLog(filepath.Join(t.TempDir(), "tables"))
	if err != nil {
		t.Fatalf("OpenAppendLog() failed: %v", err)
	}
	t.Cleanup(func() { appendLog.Close() })

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "parlor.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory":    NewMemory(),
		"appendlog": appendLog,
		"sqlite":    sqlite,
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	value := document.Document{
		"id":     "m-1",
		"status": "active",
		"players": map[string]any{
			"a": map[string]any{"id": "alice"},
		},
		"turn_number": 3,
	}

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, "game_matches", "m-1", value); err != nil {
				t.Fatalf("Put() failed: %v", err)
			}

			got, ok, err := s.Get(ctx, "game_matches", "m-1")
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			if !ok {
				t.Fatal("Get() reported absent after Put()")
			}
			if !document.Equal(got, value) {
				t.Errorf("round trip mismatch: got %v, want %v", got, value)
			}
		})
	}
}

func TestGet_AbsentIsNotAnError(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, ok, err := s.Get(ctx, "game_matches", "missing")
			if err != nil {
				t.Fatalf("Get() on absent key errored: %v", err)
			}
			if ok {
				t.Errorf("Get() on absent key reported present: %v", got)
			}
		})
	}
}

func TestPut_OverwriteLastWins(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v1 := document.Document{"status": "pending_accept"}
			v2 := document.Document{"status": "active"}

			if err := s.Put(ctx, "game_matches", "m-1", v1); err != nil {
				t.Fatalf("first Put() failed: %v", err)
			}
			if err := s.Put(ctx, "game_matches", "m-1", v2); err != nil {
				t.Fatalf("second Put() failed: %v", err)
			}

			got, ok, err := s.Get(ctx, "game_matches", "m-1")
			if err != nil || !ok {
				t.Fatalf("Get() failed: ok=%v err=%v", ok, err)
			}
			if got.String("status") != "active" {
				t.Errorf("status = %q, want %q", got.String("status"), "active")
			}
		})
	}
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Delete of a key that was never put.
			if err := s.Delete(ctx, "game_matches", "ghost"); err != nil {
				t.Fatalf("Delete() of absent key failed: %v", err)
			}

			if err := s.Put(ctx, "game_matches", "m-1", document.Document{"status": "active"}); err != nil {
				t.Fatalf("Put() failed: %v", err)
			}
			if err := s.Delete(ctx, "game_matches", "m-1"); err != nil {
				t.Fatalf("Delete() failed: %v", err)
			}
			if err := s.Delete(ctx, "game_matches", "m-1"); err != nil {
				t.Fatalf("repeated Delete() failed: %v", err)
			}

			_, ok, err := s.Get(ctx, "game_matches", "m-1")
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			if ok {
				t.Error("key still present after Delete()")
			}
		})
	}
}

func TestList_CompletenessAndOrder(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			const n = 12
			for i := 0; i < n; i++ {
				key := fmt.Sprintf("m-1:%020d", i)
				err := s.Put(ctx, "game_match_events", key, document.Document{"seq": i})
				if err != nil {
					t.Fatalf("Put(%d) failed: %v", i, err)
				}
			}
			// Overwriting an existing key must not grow the table.
			if err := s.Put(ctx, "game_match_events", fmt.Sprintf("m-1:%020d", 0), document.Document{"seq": 0}); err != nil {
				t.Fatalf("overwrite Put() failed: %v", err)
			}

			entries, err := s.List(ctx, "game_match_events")
			if err != nil {
				t.Fatalf("List() failed: %v", err)
			}
			if len(entries) != n {
				t.Fatalf("List() returned %d entries, want %d", len(entries), n)
			}
			for i := 1; i < len(entries); i++ {
				if entries[i-1].Key >= entries[i].Key {
					t.Fatalf("List() not in ascending key order at %d: %q >= %q",
						i, entries[i-1].Key, entries[i].Key)
				}
			}
			// Ascending key order equals append order for zero-padded keys.
			for i, e := range entries {
				if e.Value.Int64("seq") != int64(i) {
					t.Errorf("entry %d has seq %d", i, e.Value.Int64("seq"))
				}
			}
		})
	}
}

func TestList_EmptyTable(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			entries, err := s.List(ctx, "never_written")
			if err != nil {
				t.Fatalf("List() on fresh table failed: %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("List() on fresh table returned %d entries", len(entries))
			}
		})
	}
}

func TestTables_AreIndependentNamespaces(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, "game_matches", "k", document.Document{"from": "matches"}); err != nil {
				t.Fatalf("Put() failed: %v", err)
			}
			if err := s.Put(ctx, "game_match_events", "k", document.Document{"from": "events"}); err != nil {
				t.Fatalf("Put() failed: %v", err)
			}

			got, ok, err := s.Get(ctx, "game_matches", "k")
			if err != nil || !ok {
				t.Fatalf("Get() failed: ok=%v err=%v", ok, err)
			}
			if got.String("from") != "matches" {
				t.Errorf("tables share a namespace: got %v", got)
			}
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for w := 0; w < 4; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < 25; i++ {
						key := fmt.Sprintf("w%d-%d", w, i)
						if err := s.Put(ctx, "stress", key, document.Document{"n": i}); err != nil {
							t.Errorf("Put() failed: %v", err)
							return
						}
						if _, _, err := s.Get(ctx, "stress", key); err != nil {
							t.Errorf("Get() failed: %v", err)
							return
						}
					}
				}(w)
			}
			wg.Wait()

			entries, err := s.List(ctx, "stress")
			if err != nil {
				t.Fatalf("List() failed: %v", err)
			}
			if len(entries) != 100 {
				t.Errorf("List() returned %d entries, want 100", len(entries))
			}
		})
	}
}

func TestOpen_SelectsBackend(t *testing.T) {
	s, err := Open(Options{})
	if err != nil {
		t.Fatalf("Open() with defaults failed: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("default backend is %T, want *Memory", s)
	}

	s, err = Open(Options{Kind: KindSQLite, Path: filepath.Join(t.TempDir(), "p.db")})
	if err != nil {
		t.Fatalf("Open(sqlite) failed: %v", err)
	}
	if sq, ok := s.(*SQLite); !ok {
		t.Errorf("backend is %T, want *SQLite", s)
	} else {
		sq.Close()
	}
}

func TestOpen_ConfigErrors(t *testing.T) {
	cases := []Options{
		{Kind: "bolt"},
		{Kind: KindAppendLog},
		{Kind: KindSQLite},
	}
	for _, opts := range cases {
		if _, err := Open(opts); err == nil {
			t.Errorf("Open(%+v) succeeded, want error", opts)
		}
	}
}

func TestOpen_InvalidMedium(t *testing.T) {
	// A directory path that cannot be created must fail at open, not later.
	if _, err := OpenAppendLog("/dev/null/tables"); err == nil {
		t.Error("OpenAppendLog() under /dev/null succeeded, want error")
	}
	if _, err := OpenSQLite("/nonexistent/dir/p.db"); err == nil {
		t.Error("OpenSQLite() in missing directory succeeded, want error")
	}
}
