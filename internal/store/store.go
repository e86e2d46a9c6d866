// Package store opens the configured storage engine as a core.Store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/JonMunkholm/ingest/internal/config"
	"github.com/JonMunkholm/ingest/internal/core"
	"github.com/JonMunkholm/ingest/internal/store/migrate"
	"github.com/JonMunkholm/ingest/internal/store/postgres"
	"github.com/JonMunkholm/ingest/internal/store/sqlite"
	"github.com/jackc/pgx/v5/stdlib"
)

// Backend is an open store plus the handles needed to migrate and close it.
type Backend struct {
	core.Store

	// Driver is "postgres" or "sqlite".
	Driver string

	db      *sql.DB
	dialect string
	close   func()
}

// Open connects to the database named by cfg.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "postgresql", "pgx":
		pool, err := postgres.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		db := stdlib.OpenDBFromPool(pool)
		return &Backend{
			Store:   postgres.New(pool),
			Driver:  "postgres",
			db:      db,
			dialect: migrate.DialectPostgres,
			close: func() {
				db.Close()
				pool.Close()
			},
		}, nil

	case "sqlite", "sqlite3":
		db, err := sqlite.Open(strings.TrimPrefix(cfg.URL, "sqlite://"))
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping sqlite: %w", err)
		}
		return &Backend{
			Store:   sqlite.New(db),
			Driver:  "sqlite",
			db:      db,
			dialect: migrate.DialectSQLite,
			close:   func() { db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate applies pending bookkeeping migrations.
func (b *Backend) Migrate(ctx context.Context) error {
	return migrate.Up(ctx, b.db, b.dialect)
}

// SchemaVersion reports the applied migration version.
func (b *Backend) SchemaVersion(ctx context.Context) (int64, error) {
	return migrate.Version(ctx, b.db, b.dialect)
}

// Ping checks that the database is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close releases every connection.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}
