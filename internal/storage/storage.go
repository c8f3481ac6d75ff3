package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/teamboard/internal/persistence"
	"github.com/example/teamboard/internal/persistence/memory"
	"github.com/example/teamboard/internal/persistence/sqlite"
)

// Backend names a persistence implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
)

// ParseBackend validates a backend name.
func ParseBackend(value string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(value))) {
	case BackendMemory, "":
		return BackendMemory, nil
	case BackendSQLite:
		return BackendSQLite, nil
	}
	return "", fmt.Errorf("unknown storage backend %q", value)
}

// Options selects and configures the backend opened by Open.
type Options struct {
	Backend   Backend
	SQLiteDSN string
	Logger    *slog.Logger
}

// Open returns the configured store. SQLite stores are migrated before use.
func Open(ctx context.Context, opts Options) (persistence.Store, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return memory.New(), nil
	case BackendSQLite:
		if strings.TrimSpace(opts.SQLiteDSN) == "" {
			return nil, fmt.Errorf("sqlite backend requires a DSN")
		}
		store, err := sqlite.OpenFile(ctx, opts.SQLiteDSN, opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks store connectivity when the backend supports it.
func Ping(ctx context.Context, store persistence.Store) error {
	if pinger, ok := store.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
