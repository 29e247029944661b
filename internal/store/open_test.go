package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NiloCK/model-identity-eval/internal/config"
)

func TestOpen(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Fatalf("Open(nil): expected error")
	}

	st, err := Open(&config.Config{Storage: config.StorageConfig{Path: ":memory:"}})
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	_ = st.Close()
}

func TestOpen_DefaultSQLitePath(t *testing.T) {
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}

	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWd)
	})

	st, err := Open(&config.Config{Storage: config.StorageConfig{Path: "  "}})
	if err != nil {
		t.Fatalf("Open(default path): %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if _, err := os.Stat(filepath.Join(tmp, DefaultSQLitePath)); err != nil {
		t.Fatalf("default db path: %v", err)
	}
}
