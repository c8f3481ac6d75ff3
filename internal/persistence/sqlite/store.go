// Package sqlite implements persistence.Store on top of modernc.org/sqlite.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/teamboard/internal/persistence"
	"github.com/example/teamboard/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var _ persistence.Store = (*Store)(nil)

// Store is a SQLite backed persistence.Store.
type Store struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	logger *slog.Logger
}

// Open connects to the database described by config and applies any pending
// migrations.
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}

	manager := migration.NewManager(pool.DB(), migration.NewScanner(migrationFiles, "migrations"), logger)
	if _, err := manager.RunMigrations(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Store{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		logger: logger.With("component", "sqlite"),
	}, nil
}

// OpenFile is a shorthand for Open with DefaultSQLiteConfig.
func OpenFile(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	return Open(ctx, migration.DefaultSQLiteConfig(path), logger)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
