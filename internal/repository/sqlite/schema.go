package sqlite

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables and indexes if they don't exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	return nil
}

// DropSchema drops all tables (DESTRUCTIVE)
func (s *Store) DropSchema(ctx context.Context) error {
	for _, table := range []string{"tab_tree_paths", "tabs", "tab_groups"} {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// ClearData deletes all rows and resets the id sequences
func (s *Store) ClearData(ctx context.Context) error {
	return s.TxManager().ExecTx(ctx, func(ctx context.Context) error {
		conn := s.conn(ctx)
		for _, table := range []string{"tab_tree_paths", "tabs", "tab_groups"} {
			if _, err := conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if _, err := conn.ExecContext(ctx, "DELETE FROM sqlite_sequence"); err != nil {
			return fmt.Errorf("reset sequences: %w", err)
		}
		return nil
	})
}
