package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLocalStore(t *testing.T) {
	t.Run("creates directory if not exists", func(t *testing.T) {
		dir := filepath.Join(os.TempDir(), "jobfeed_test_"+randomSuffix())
		defer func() { _ = os.RemoveAll(dir) }()

		store, err := NewLocalStore(dir)
		if err != nil {
			t.Fatalf("NewLocalStore() error = %v", err)
		}

		if store.Dir() != dir {
			t.Errorf("Dir() = %v, want %v", store.Dir(), dir)
		}

		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected directory, got file")
		}
	})

	t.Run("uses default directory when empty", func(t *testing.T) {
		store, err := NewLocalStore("")
		if err != nil {
			t.Fatalf("NewLocalStore() error = %v", err)
		}

		expected := filepath.Join(os.TempDir(), "jobfeed")
		if store.Dir() != expected {
			t.Errorf("Dir() = %v, want %v", store.Dir(), expected)
		}
	})
}

func TestLocalStore(t *testing.T) {
	runStoreContract(t, setupTestStore(t))
}

func TestLocalStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	if err := first.Set(ctx, "@lokalapp_bookmarks", "[]"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	second, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	got, err := second.Get(ctx, "@lokalapp_bookmarks")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "[]" {
		t.Errorf("Get() = %q, want %q", got, "[]")
	}
}

func TestLocalStore_EscapesKeys(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "../outside/key", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file in store dir, got %d", len(entries))
	}
	if strings.Contains(entries[0].Name(), "/") {
		t.Errorf("file name %q should not contain a separator", entries[0].Name())
	}
}

func TestLocalStore_LeavesNoTempFiles(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Set(ctx, "k", "v"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp_") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestLocalStore_RespectsContextCancellation(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Set(ctx, "k", "v"); !errors.Is(err, context.Canceled) {
		t.Errorf("Set() error = %v, want context.Canceled", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
}

func setupTestStore(t *testing.T) *LocalStore {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "jobfeed_test_"+randomSuffix())
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}
