package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"tabnest/internal/domain"
	"tabnest/internal/domain/models/tabs"
)

// GroupRepository implements the group repository on SQLite
type GroupRepository struct {
	store *Store
}

func scanGroup(scanner interface{ Scan(dest ...any) error }) (*tabs.TabGroup, error) {
	var (
		g                    tabs.TabGroup
		ownerID              string
		createdAt, updatedAt string
	)
	if err := scanner.Scan(&g.ID, &ownerID, &g.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if g.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return nil, fmt.Errorf("parse owner_id: %w", err)
	}
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if g.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &g, nil
}

// Create creates a new tab group
func (r *GroupRepository) Create(ctx context.Context, group *tabs.TabGroup) error {
	result, err := r.store.conn(ctx).ExecContext(ctx, `
		INSERT INTO tab_groups (owner_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		group.OwnerID.String(), group.Name, formatTime(group.CreatedAt), formatTime(group.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create tab group: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create tab group: %w", err)
	}
	group.ID = tabs.GroupID(id)
	return nil
}

// GetByID retrieves a tab group by ID
func (r *GroupRepository) GetByID(ctx context.Context, id tabs.GroupID) (*tabs.TabGroup, error) {
	row := r.store.conn(ctx).QueryRowContext(ctx, `
		SELECT id, owner_id, name, created_at, updated_at
		FROM tab_groups WHERE id = ?`, int64(id))
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tab group %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tab group: %w", err)
	}
	return g, nil
}

// ListByOwner lists an owner's groups, oldest first
func (r *GroupRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]tabs.TabGroup, error) {
	rows, err := r.store.conn(ctx).QueryContext(ctx, `
		SELECT id, owner_id, name, created_at, updated_at
		FROM tab_groups WHERE owner_id = ?
		ORDER BY created_at ASC, id ASC`, ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("list tab groups: %w", err)
	}
	defer rows.Close()

	groups := []tabs.TabGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tab group: %w", err)
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tab groups: %w", err)
	}
	return groups, nil
}

// LockGroup touches the group row so the transaction takes SQLite's write
// lock up front, before the tree is read.
func (r *GroupRepository) LockGroup(ctx context.Context, id tabs.GroupID) error {
	result, err := r.store.conn(ctx).ExecContext(ctx,
		`UPDATE tab_groups SET updated_at = updated_at WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("lock tab group: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("lock tab group: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("tab group %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
