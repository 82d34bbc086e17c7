package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"tabnest/internal/domain"
	"tabnest/internal/domain/models/tabs"
	"tabnest/internal/domain/repositories"
	tabrepo "tabnest/internal/domain/repositories/tabs"
	"tabnest/internal/repository/closure"
)

const tabColumns = `id, group_id, parent_id, title, url, position, created_at, updated_at`

// PostgresTabRepository implements the TabRepository interface. Structural
// writes go through the closure Writer; this type adds the reads.
type PostgresTabRepository struct {
	*closure.Writer
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewTabRepository creates a new tab repository
func NewTabRepository(config *RepositoryConfig) tabrepo.TabRepository {
	return &PostgresTabRepository{
		Writer: closure.NewWriter(&pathStore{pool: config.Pool, tables: config.Tables}),
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// LoadTree loads every tab of the group with its closure depth and assembles the tree
func (r *PostgresTabRepository) LoadTree(ctx context.Context, groupID tabs.GroupID) (*tabs.TabTree, error) {
	query := fmt.Sprintf(`
		SELECT t.id, t.group_id, t.parent_id, t.title, t.url, t.position, t.created_at, t.updated_at,
		       MAX(p.depth) AS depth
		FROM %s t
		JOIN %s p ON p.descendant_id = t.id
		WHERE t.group_id = $1
		GROUP BY t.id
		ORDER BY depth, t.position
	`, r.tables.Tabs, r.tables.Paths)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, int64(groupID))
	if err != nil {
		return nil, fmt.Errorf("load tab tree: %w", err)
	}
	defer rows.Close()

	var tabRows []tabs.TabRow
	for rows.Next() {
		var row tabs.TabRow
		if err := scanTab(rows, &row.Tab, &row.Depth); err != nil {
			return nil, fmt.Errorf("scan tab: %w", err)
		}
		tabRows = append(tabRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tabs: %w", err)
	}

	tree, err := tabs.Assemble(groupID, tabRows)
	if err != nil {
		r.logger.Error("stored tab tree is inconsistent", "group_id", groupID, "error", err)
		return nil, err
	}
	return tree, nil
}

// GetByID retrieves a tab by ID
func (r *PostgresTabRepository) GetByID(ctx context.Context, id tabs.TabID) (*tabs.Tab, error) {
	return getTab(ctx, GetExecutor(ctx, r.pool), r.tables, id)
}

// UpdateContent updates a tab's title and url
func (r *PostgresTabRepository) UpdateContent(ctx context.Context, tab *tabs.Tab) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, url = $2, updated_at = $3
		WHERE id = $4
	`, r.tables.Tabs)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, string(tab.Title), string(tab.URL), tab.UpdatedAt, int64(tab.ID))
	if err != nil {
		return fmt.Errorf("update tab: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tab %d: %w", tab.ID, domain.ErrNotFound)
	}
	return nil
}

// pathStore is the closure.PathStore over pgx. Set-valued arguments are sent
// as arrays so each primitive is one round trip.
type pathStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

func (s *pathStore) GetTab(ctx context.Context, id tabs.TabID) (*tabs.Tab, error) {
	return getTab(ctx, GetExecutor(ctx, s.pool), s.tables, id)
}

func (s *pathStore) InsertTab(ctx context.Context, tab *tabs.Tab) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (group_id, parent_id, title, url, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, s.tables.Tabs)

	executor := GetExecutor(ctx, s.pool)
	var id int64
	err := executor.QueryRow(ctx, query,
		int64(tab.GroupID),
		nullableID(tab.ParentID),
		string(tab.Title),
		string(tab.URL),
		int(tab.Position),
		tab.CreatedAt,
		tab.UpdatedAt,
	).Scan(&id, &tab.CreatedAt, &tab.UpdatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("insert tab: group or parent: %w", domain.ErrNotFound)
		}
		if IsPgCheckError(err) {
			return fmt.Errorf("insert tab: %w: %v", domain.ErrValidation, err)
		}
		return fmt.Errorf("insert tab: %w", err)
	}
	tab.ID = tabs.TabID(id)
	return nil
}

func (s *pathStore) DeleteTabs(ctx context.Context, ids []tabs.TabID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, s.tables.Tabs)

	executor := GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, int64s(ids)); err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("delete tabs: children still attached: %w", domain.ErrConflict)
		}
		return fmt.Errorf("delete tabs: %w", err)
	}
	return nil
}

func (s *pathStore) Relink(ctx context.Context, links []closure.Link, at time.Time) error {
	if len(links) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, position = $2, updated_at = $3
		WHERE id = $4
	`, s.tables.Tabs)

	batch := &pgx.Batch{}
	for _, l := range links {
		batch.Queue(query, nullableID(l.ParentID), int(l.Position), at, int64(l.ID))
	}
	return sendBatch(ctx, GetExecutor(ctx, s.pool), batch, "relink tabs")
}

func (s *pathStore) Positions(ctx context.Context, ids []tabs.TabID) (map[tabs.TabID]tabs.Position, error) {
	query := fmt.Sprintf(`SELECT id, position FROM %s WHERE id = ANY($1)`, s.tables.Tabs)

	executor := GetExecutor(ctx, s.pool)
	rows, err := executor.Query(ctx, query, int64s(ids))
	if err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	defer rows.Close()

	out := make(map[tabs.TabID]tabs.Position, len(ids))
	for rows.Next() {
		var id int64
		var pos int
		if err := rows.Scan(&id, &pos); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out[tabs.TabID(id)] = tabs.Position(pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return out, nil
}

func (s *pathStore) UpdatePositions(ctx context.Context, positions map[tabs.TabID]tabs.Position, at time.Time) error {
	ids := make([]int64, 0, len(positions))
	values := make([]int32, 0, len(positions))
	for id, pos := range positions {
		ids = append(ids, int64(id))
		values = append(values, int32(pos))
	}

	query := fmt.Sprintf(`
		UPDATE %s AS t
		SET position = v.position, updated_at = $3
		FROM unnest($1::bigint[], $2::int[]) AS v(id, position)
		WHERE t.id = v.id
	`, s.tables.Tabs)

	executor := GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, ids, values, at); err != nil {
		return fmt.Errorf("update positions: %w", err)
	}
	return nil
}

func (s *pathStore) NextPosition(ctx context.Context, groupID tabs.GroupID, parentID *tabs.TabID) (tabs.Position, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(position) + 1, 0)
		FROM %s
		WHERE group_id = $1 AND parent_id IS NOT DISTINCT FROM $2::bigint
	`, s.tables.Tabs)

	executor := GetExecutor(ctx, s.pool)
	var next int
	if err := executor.QueryRow(ctx, query, int64(groupID), nullableID(parentID)).Scan(&next); err != nil {
		return 0, fmt.Errorf("next position: %w", err)
	}
	return tabs.Position(next), nil
}

func (s *pathStore) AncestorPaths(ctx context.Context, id tabs.TabID) ([]closure.Path, error) {
	query := fmt.Sprintf(`
		SELECT ancestor_id, descendant_id, depth
		FROM %s
		WHERE descendant_id = $1
		ORDER BY depth
	`, s.tables.Paths)
	return s.queryPaths(ctx, query, id)
}

func (s *pathStore) DescendantPaths(ctx context.Context, id tabs.TabID) ([]closure.Path, error) {
	query := fmt.Sprintf(`
		SELECT ancestor_id, descendant_id, depth
		FROM %s
		WHERE ancestor_id = $1
		ORDER BY depth
	`, s.tables.Paths)
	return s.queryPaths(ctx, query, id)
}

func (s *pathStore) queryPaths(ctx context.Context, query string, id tabs.TabID) ([]closure.Path, error) {
	executor := GetExecutor(ctx, s.pool)
	rows, err := executor.Query(ctx, query, int64(id))
	if err != nil {
		return nil, fmt.Errorf("query paths: %w", err)
	}
	defer rows.Close()

	var paths []closure.Path
	for rows.Next() {
		var anc, desc int64
		var p closure.Path
		if err := rows.Scan(&anc, &desc, &p.Depth); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		p.AncestorID, p.DescendantID = tabs.TabID(anc), tabs.TabID(desc)
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paths: %w", err)
	}
	return paths, nil
}

func (s *pathStore) InsertPaths(ctx context.Context, paths []closure.Path) error {
	if len(paths) == 0 {
		return nil
	}
	ancestors := make([]int64, len(paths))
	descendants := make([]int64, len(paths))
	depths := make([]int32, len(paths))
	for i, p := range paths {
		ancestors[i] = int64(p.AncestorID)
		descendants[i] = int64(p.DescendantID)
		depths[i] = int32(p.Depth)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (ancestor_id, descendant_id, depth)
		SELECT * FROM unnest($1::bigint[], $2::bigint[], $3::int[])
	`, s.tables.Paths)

	executor := GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, ancestors, descendants, depths); err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("insert paths: %w", domain.ErrConflict)
		}
		return fmt.Errorf("insert paths: %w", err)
	}
	return nil
}

func (s *pathStore) DeletePaths(ctx context.Context, ancestorIDs, descendantIDs []tabs.TabID) error {
	if len(ancestorIDs) == 0 || len(descendantIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE ancestor_id = ANY($1) AND descendant_id = ANY($2)
	`, s.tables.Paths)

	executor := GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, int64s(ancestorIDs), int64s(descendantIDs)); err != nil {
		return fmt.Errorf("delete paths: %w", err)
	}
	return nil
}

func getTab(ctx context.Context, executor repositories.DBTX, tables *TableNames, id tabs.TabID) (*tabs.Tab, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, tabColumns, tables.Tabs)

	var tab tabs.Tab
	if err := scanTab(executor.QueryRow(ctx, query, int64(id)), &tab); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("tab %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tab: %w", err)
	}
	return &tab, nil
}

// scanTab reads tabColumns (plus any trailing extra columns) into tab
func scanTab(row pgx.Row, tab *tabs.Tab, extra ...any) error {
	var (
		id, groupID int64
		parentID    *int64
		title, url  string
		position    int
	)
	dest := append([]any{&id, &groupID, &parentID, &title, &url, &position, &tab.CreatedAt, &tab.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	tab.ID = tabs.TabID(id)
	tab.GroupID = tabs.GroupID(groupID)
	tab.ParentID = nil
	if parentID != nil {
		tab.ParentID = tabs.TabID(*parentID).Ptr()
	}
	tab.Title = tabs.Title(title)
	tab.URL = tabs.URL(url)
	tab.Position = tabs.Position(position)
	return nil
}

func sendBatch(ctx context.Context, executor repositories.DBTX, batch *pgx.Batch, op string) error {
	results := executor.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func nullableID(id *tabs.TabID) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}

func int64s(ids []tabs.TabID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
