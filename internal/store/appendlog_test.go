package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/parlor/internal/document"
)

func TestAppendLog_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a1, err := OpenAppendLog(dir)
	if err != nil {
		t.Fatalf("OpenAppendLog() failed: %v", err)
	}
	if err := a1.Put(ctx, "game_matches", "m-1", document.Document{"status": "active"}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := a1.Put(ctx, "game_matches", "m-1", document.Document{"status": "expired"}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := a1.Put(ctx, "game_matches", "m-2", document.Document{"status": "active"}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := a1.Delete(ctx, "game_matches", "m-2"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := a1.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Reopen replays the file: last write per key wins.
	a2, err := OpenAppendLog(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer a2.Close()

	got, ok, err := a2.Get(ctx, "game_matches", "m-1")
	if err != nil || !ok {
		t.Fatalf("Get() after reopen failed: ok=%v err=%v", ok, err)
	}
	if got.String("status") != "expired" {
		t.Errorf("status = %q, want %q", got.String("status"), "expired")
	}

	_, ok, err = a2.Get(ctx, "game_matches", "m-2")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if ok {
		t.Error("deleted key resurrected by reopen")
	}
}

func TestAppendLog_FilesAreHumanInspectable(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, err := OpenAppendLog(dir)
	if err != nil {
		t.Fatalf("OpenAppendLog() failed: %v", err)
	}
	defer a.Close()

	if err := a.Put(ctx, "game_matches", "m-1", document.Document{"status": "active"}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "game_matches.log"))
	if err != nil {
		t.Fatalf("table file missing: %v", err)
	}
	line := strings.TrimSpace(string(raw))
	if !strings.Contains(line, `"op":"put"`) || !strings.Contains(line, `"m-1"`) {
		t.Errorf("table file is not one readable JSON record per line: %q", line)
	}
}

func TestAppendLog_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game_matches.log")
	if err := os.WriteFile(path, []byte("{not json\n"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if _, err := OpenAppendLog(dir); err == nil {
		t.Error("OpenAppendLog() with corrupt table file succeeded, want error")
	}
}
