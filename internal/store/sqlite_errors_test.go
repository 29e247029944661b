package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NiloCK/model-identity-eval/internal/runner"
)

func TestNewSQLiteStore_Errors(t *testing.T) {
	if _, err := NewSQLiteStore("   "); err == nil {
		t.Fatalf("NewSQLiteStore(empty): expected error")
	}

	dir := t.TempDir()
	notADir := filepath.Join(dir, "notadir")
	if err := os.WriteFile(notADir, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := NewSQLiteStore(filepath.Join(notADir, "db.sqlite")); err == nil {
		t.Fatalf("NewSQLiteStore(mkdir): expected error")
	}
}

func TestNewSQLiteStore_OpenError(t *testing.T) {
	orig := sqliteOpen
	t.Cleanup(func() { sqliteOpen = orig })

	sqliteOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
		return nil, errors.New("open failed")
	}

	if _, err := NewSQLiteStore(":memory:"); err == nil {
		t.Fatalf("NewSQLiteStore: expected injected open error")
	}
}

func TestSQLiteStore_NilReceiver(t *testing.T) {
	ctx := context.Background()

	if err := (*SQLiteStore)(nil).Close(); err != nil {
		t.Fatalf("Close(nil): %v", err)
	}
	if err := (&SQLiteStore{}).Close(); err != nil {
		t.Fatalf("Close(nil db): %v", err)
	}
	if err := (*SQLiteStore)(nil).prepareStatements(); err == nil {
		t.Fatalf("prepareStatements(nil): expected error")
	}

	if _, err := (*SQLiteStore)(nil).SaveReport(ctx, &runner.Report{}); err == nil {
		t.Fatalf("SaveReport(nil store): expected error")
	}
	if _, err := (*SQLiteStore)(nil).GetRun(ctx, "x"); err == nil {
		t.Fatalf("GetRun(nil store): expected error")
	}
	if _, err := (*SQLiteStore)(nil).ListRuns(ctx, RunFilter{}); err == nil {
		t.Fatalf("ListRuns(nil store): expected error")
	}
	if _, err := (*SQLiteStore)(nil).GetCaseResults(ctx, "x"); err == nil {
		t.Fatalf("GetCaseResults(nil store): expected error")
	}
	if _, err := (*SQLiteStore)(nil).Leaderboard(ctx, "e", 1); err == nil {
		t.Fatalf("Leaderboard(nil store): expected error")
	}
	if _, err := (*SQLiteStore)(nil).CompareRuns(ctx, "a", "b"); err == nil {
		t.Fatalf("CompareRuns(nil store): expected error")
	}
}

func TestSQLiteStore_SaveReport_Validation(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := st.SaveReport(nil, &runner.Report{}); err == nil {
		t.Fatalf("SaveReport(nil ctx): expected error")
	}
	if _, err := st.SaveReport(ctx, nil); err == nil {
		t.Fatalf("SaveReport(nil report): expected error")
	}
	if _, err := st.SaveReport(ctx, &runner.Report{ModelID: "m"}); err == nil {
		t.Fatalf("SaveReport(zero timestamps): expected error")
	}
}

func TestSQLiteStore_GetRun_Validation(t *testing.T) {
	st := newTestSQLiteStore(t)

	if _, err := st.GetRun(nil, "x"); err == nil {
		t.Fatalf("GetRun(nil ctx): expected error")
	}
	if _, err := st.GetRun(context.Background(), "  "); err == nil {
		t.Fatalf("GetRun(empty id): expected error")
	}
}

func TestSQLiteStore_Leaderboard_Validation(t *testing.T) {
	st := newTestSQLiteStore(t)

	if _, err := st.Leaderboard(context.Background(), "  ", 5); err == nil {
		t.Fatalf("Leaderboard(empty eval): expected error")
	}
}

func TestNewRunID_Unique(t *testing.T) {
	t.Parallel()

	a, err := newRunID()
	if err != nil {
		t.Fatalf("newRunID: %v", err)
	}
	b, err := newRunID()
	if err != nil {
		t.Fatalf("newRunID: %v", err)
	}
	if a == b {
		t.Fatalf("newRunID: duplicate id %q", a)
	}

	start := time.Now().UTC().Format("20060102")
	if want := "run_" + start; len(a) < len(want) || a[:len(want)] != want {
		t.Fatalf("newRunID: got %q want %q prefix", a, want)
	}
}
