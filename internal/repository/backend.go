// Package repository selects and opens the configured storage backend.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"tabnest/internal/config"
	"tabnest/internal/domain/repositories"
	tabrepo "tabnest/internal/domain/repositories/tabs"
	"tabnest/internal/repository/postgres"
	"tabnest/internal/repository/sqlite"
)

// SchemaManager creates and resets the storage tables. Used by cmd/seed.
type SchemaManager interface {
	EnsureSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error
	ClearData(ctx context.Context) error
}

// Backend bundles the repositories of one storage driver.
type Backend struct {
	Driver    string
	Tabs      tabrepo.TabRepository
	Groups    tabrepo.GroupRepository
	TxManager repositories.TransactionManager
	Schema    SchemaManager
	Ping      func(ctx context.Context) error
	close     func()
}

// Close releases the underlying connections
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open connects to the driver named in cfg. The Postgres schema is managed
// by cmd/seed through Backend.Schema; the SQLite schema is created on open.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		return &Backend{
			Driver:    cfg.DBDriver,
			Tabs:      postgres.NewTabRepository(repoConfig),
			Groups:    postgres.NewGroupRepository(repoConfig),
			TxManager: postgres.NewTransactionManager(repoConfig),
			Schema:    postgres.NewSchemaManager(pool, cfg.TablePrefix),
			Ping:      pool.Ping,
			close:     pool.Close,
		}, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver:    cfg.DBDriver,
			Tabs:      store.Tabs(),
			Groups:    store.Groups(),
			TxManager: store.TxManager(),
			Schema:    store,
			Ping:      store.Ping,
			close: func() {
				if err := store.Close(); err != nil {
					logger.Error("close sqlite store", "error", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
