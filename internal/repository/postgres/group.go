package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"tabnest/internal/domain"
	"tabnest/internal/domain/models/tabs"
	"tabnest/internal/domain/repositories"
	tabrepo "tabnest/internal/domain/repositories/tabs"
)

// PostgresGroupRepository implements the GroupRepository interface
type PostgresGroupRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(config *RepositoryConfig) tabrepo.GroupRepository {
	return &PostgresGroupRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new tab group
func (r *PostgresGroupRepository) Create(ctx context.Context, group *tabs.TabGroup) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, r.tables.Groups)

	executor := GetExecutor(ctx, r.pool)
	var id int64
	err := executor.QueryRow(ctx, query,
		group.OwnerID,
		group.Name,
		group.CreatedAt,
		group.UpdatedAt,
	).Scan(&id, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create tab group: %w", err)
	}
	group.ID = tabs.GroupID(id)
	return nil
}

// GetByID retrieves a tab group by ID
func (r *PostgresGroupRepository) GetByID(ctx context.Context, id tabs.GroupID) (*tabs.TabGroup, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Groups)

	executor := GetExecutor(ctx, r.pool)
	var group tabs.TabGroup
	var gid int64
	err := executor.QueryRow(ctx, query, int64(id)).Scan(
		&gid,
		&group.OwnerID,
		&group.Name,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("tab group %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tab group: %w", err)
	}
	group.ID = tabs.GroupID(gid)
	return &group, nil
}

// ListByOwner lists an owner's groups, oldest first
func (r *PostgresGroupRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]tabs.TabGroup, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, created_at, updated_at
		FROM %s
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC
	`, r.tables.Groups)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tab groups: %w", err)
	}
	defer rows.Close()

	groups := []tabs.TabGroup{}
	for rows.Next() {
		var group tabs.TabGroup
		var gid int64
		if err := rows.Scan(&gid, &group.OwnerID, &group.Name, &group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tab group: %w", err)
		}
		group.ID = tabs.GroupID(gid)
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tab groups: %w", err)
	}
	return groups, nil
}

// LockGroup takes a row lock on the group for the rest of the transaction,
// serializing structural edits to its tree.
func (r *PostgresGroupRepository) LockGroup(ctx context.Context, id tabs.GroupID) error {
	if repositories.GetTx(ctx) == nil {
		r.logger.Warn("LockGroup called outside a transaction; lock is released immediately", "group_id", id)
	}
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, r.tables.Groups)

	executor := GetExecutor(ctx, r.pool)
	var locked int64
	if err := executor.QueryRow(ctx, query, int64(id)).Scan(&locked); err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("tab group %d: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("lock tab group: %w", err)
	}
	return nil
}
