package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/teamboard/internal/persistence"
	"github.com/example/teamboard/internal/persistence/memory"
	"github.com/example/teamboard/internal/persistence/sqlite"
)

// StoreHarness names a store implementation under test. Open returns a fresh,
// empty store that is closed when the test finishes.
type StoreHarness struct {
	Name string
	Open func(tb testing.TB) persistence.Store
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(tb testing.TB) persistence.Store {
	tb.Helper()
	store := memory.New()
	tb.Cleanup(func() { _ = store.Close() })
	return store
}

// NewSQLiteStore returns a migrated store backed by a temporary database file.
func NewSQLiteStore(tb testing.TB) persistence.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "teamboard.db")
	store, err := sqlite.OpenFile(context.Background(), path, nil)
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })
	return store
}

// StoreHarnesses lists every backend so contract tests can run the same
// cases against each.
func StoreHarnesses() []StoreHarness {
	return []StoreHarness{
		{Name: "memory", Open: NewMemoryStore},
		{Name: "sqlite", Open: NewSQLiteStore},
	}
}
