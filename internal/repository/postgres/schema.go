package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// SchemaSQL returns the DDL with every table name carrying prefix
func SchemaSQL(prefix string) string {
	return strings.ReplaceAll(schemaSQL, "{{prefix}}", prefix)
}

// SchemaManager creates, drops and clears the tabnest tables for one prefix
type SchemaManager struct {
	pool   *pgxpool.Pool
	tables *TableNames
	prefix string
}

// NewSchemaManager creates a schema manager for the configured table prefix
func NewSchemaManager(pool *pgxpool.Pool, prefix string) *SchemaManager {
	return &SchemaManager{pool: pool, tables: NewTableNames(prefix), prefix: prefix}
}

// EnsureSchema creates the tables and indexes if they don't exist
func (m *SchemaManager) EnsureSchema(ctx context.Context) error {
	if _, err := m.pool.Exec(ctx, SchemaSQL(m.prefix)); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// DropSchema drops all tabnest tables for the prefix (DESTRUCTIVE)
func (m *SchemaManager) DropSchema(ctx context.Context) error {
	query := fmt.Sprintf(`DROP TABLE IF EXISTS %s, %s, %s CASCADE`, m.tables.Paths, m.tables.Tabs, m.tables.Groups)
	if _, err := m.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

// ClearData deletes all rows but keeps the tables
func (m *SchemaManager) ClearData(ctx context.Context) error {
	query := fmt.Sprintf(`TRUNCATE %s, %s, %s RESTART IDENTITY`, m.tables.Paths, m.tables.Tabs, m.tables.Groups)
	if _, err := m.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("clear data: %w", err)
	}
	return nil
}
