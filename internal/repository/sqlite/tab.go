package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tabnest/internal/domain"
	"tabnest/internal/domain/models/tabs"
	"tabnest/internal/repository/closure"
)

const tabColumns = `id, group_id, parent_id, title, url, position, created_at, updated_at`

// TabRepository implements the tab repository on SQLite. Structural writes
// go through the closure Writer.
type TabRepository struct {
	*closure.Writer
	store *Store
}

func newTabRepository(s *Store) *TabRepository {
	return &TabRepository{
		Writer: closure.NewWriter(&pathStore{store: s}),
		store:  s,
	}
}

// scanTab reads tabColumns (plus trailing extra columns) into a Tab.
func scanTab(scanner interface{ Scan(dest ...any) error }, extra ...any) (*tabs.Tab, error) {
	var (
		t                    tabs.Tab
		parentID             sql.NullInt64
		createdAt, updatedAt string
	)
	dest := append([]any{&t.ID, &t.GroupID, &parentID, &t.Title, &t.URL, &t.Position, &createdAt, &updatedAt}, extra...)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	if parentID.Valid {
		t.ParentID = tabs.TabID(parentID.Int64).Ptr()
	}

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &t, nil
}

// LoadTree loads every tab of the group with its closure depth and assembles the tree
func (r *TabRepository) LoadTree(ctx context.Context, groupID tabs.GroupID) (*tabs.TabTree, error) {
	rows, err := r.store.conn(ctx).QueryContext(ctx, `
		SELECT t.id, t.group_id, t.parent_id, t.title, t.url, t.position, t.created_at, t.updated_at,
		       (SELECT MAX(p.depth) FROM tab_tree_paths p WHERE p.descendant_id = t.id) AS depth
		FROM tabs t
		WHERE t.group_id = ?
		ORDER BY depth, t.position`, int64(groupID))
	if err != nil {
		return nil, fmt.Errorf("load tab tree: %w", err)
	}
	defer rows.Close()

	var tabRows []tabs.TabRow
	for rows.Next() {
		var depth sql.NullInt64
		t, err := scanTab(rows, &depth)
		if err != nil {
			return nil, fmt.Errorf("scan tab: %w", err)
		}
		if !depth.Valid {
			return nil, fmt.Errorf("%w: tab %d has no closure rows", tabs.ErrCorruptTree, t.ID)
		}
		tabRows = append(tabRows, tabs.TabRow{Tab: *t, Depth: int(depth.Int64)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tabs: %w", err)
	}

	tree, err := tabs.Assemble(groupID, tabRows)
	if err != nil {
		r.store.logger.Error("stored tab tree is inconsistent", "group_id", groupID, "error", err)
		return nil, err
	}
	return tree, nil
}

// GetByID retrieves a tab by ID
func (r *TabRepository) GetByID(ctx context.Context, id tabs.TabID) (*tabs.Tab, error) {
	return getTab(ctx, r.store.conn(ctx), id)
}

// UpdateContent updates a tab's title and url
func (r *TabRepository) UpdateContent(ctx context.Context, tab *tabs.Tab) error {
	result, err := r.store.conn(ctx).ExecContext(ctx,
		`UPDATE tabs SET title = ?, url = ?, updated_at = ? WHERE id = ?`,
		string(tab.Title), string(tab.URL), formatTime(tab.UpdatedAt), int64(tab.ID))
	if err != nil {
		return fmt.Errorf("update tab: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tab: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("tab %d: %w", tab.ID, domain.ErrNotFound)
	}
	return nil
}

func getTab(ctx context.Context, conn execer, id tabs.TabID) (*tabs.Tab, error) {
	row := conn.QueryRowContext(ctx, `SELECT `+tabColumns+` FROM tabs WHERE id = ?`, int64(id))
	t, err := scanTab(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tab %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tab: %w", err)
	}
	return t, nil
}

// pathStore is the closure.PathStore over database/sql. Set arguments are
// expanded into IN lists; batch writes reuse one prepared statement.
type pathStore struct {
	store *Store
}

func (p *pathStore) GetTab(ctx context.Context, id tabs.TabID) (*tabs.Tab, error) {
	return getTab(ctx, p.store.conn(ctx), id)
}

func (p *pathStore) InsertTab(ctx context.Context, tab *tabs.Tab) error {
	var parentID sql.NullInt64
	if tab.ParentID != nil {
		parentID = sql.NullInt64{Int64: int64(*tab.ParentID), Valid: true}
	}
	result, err := p.store.conn(ctx).ExecContext(ctx, `
		INSERT INTO tabs (group_id, parent_id, title, url, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int64(tab.GroupID), parentID, string(tab.Title), string(tab.URL), int(tab.Position),
		formatTime(tab.CreatedAt), formatTime(tab.UpdatedAt))
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("insert tab: group or parent: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert tab: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert tab: %w", err)
	}
	tab.ID = tabs.TabID(id)
	return nil
}

func (p *pathStore) DeleteTabs(ctx context.Context, ids []tabs.TabID) error {
	if len(ids) == 0 {
		return nil
	}
	in, args := inClause(ids)
	if _, err := p.store.conn(ctx).ExecContext(ctx, `DELETE FROM tabs WHERE id IN (`+in+`)`, args...); err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("delete tabs: children still attached: %w", domain.ErrConflict)
		}
		return fmt.Errorf("delete tabs: %w", err)
	}
	return nil
}

func (p *pathStore) Relink(ctx context.Context, links []closure.Link, at time.Time) error {
	if len(links) == 0 {
		return nil
	}
	return p.prepared(ctx, `UPDATE tabs SET parent_id = ?, position = ?, updated_at = ? WHERE id = ?`,
		func(stmt *sql.Stmt) error {
			for _, l := range links {
				var parentID sql.NullInt64
				if l.ParentID != nil {
					parentID = sql.NullInt64{Int64: int64(*l.ParentID), Valid: true}
				}
				if _, err := stmt.ExecContext(ctx, parentID, int(l.Position), formatTime(at), int64(l.ID)); err != nil {
					return fmt.Errorf("relink tab %d: %w", l.ID, err)
				}
			}
			return nil
		})
}

func (p *pathStore) Positions(ctx context.Context, ids []tabs.TabID) (map[tabs.TabID]tabs.Position, error) {
	out := make(map[tabs.TabID]tabs.Position, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	in, args := inClause(ids)
	rows, err := p.store.conn(ctx).QueryContext(ctx, `SELECT id, position FROM tabs WHERE id IN (`+in+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id tabs.TabID
		var pos tabs.Position
		if err := rows.Scan(&id, &pos); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out[id] = pos
	}
	return out, rows.Err()
}

func (p *pathStore) UpdatePositions(ctx context.Context, positions map[tabs.TabID]tabs.Position, at time.Time) error {
	return p.prepared(ctx, `UPDATE tabs SET position = ?, updated_at = ? WHERE id = ?`,
		func(stmt *sql.Stmt) error {
			for id, pos := range positions {
				if _, err := stmt.ExecContext(ctx, int(pos), formatTime(at), int64(id)); err != nil {
					return fmt.Errorf("update position of tab %d: %w", id, err)
				}
			}
			return nil
		})
}

func (p *pathStore) NextPosition(ctx context.Context, groupID tabs.GroupID, parentID *tabs.TabID) (tabs.Position, error) {
	var parent sql.NullInt64
	if parentID != nil {
		parent = sql.NullInt64{Int64: int64(*parentID), Valid: true}
	}
	var next int
	err := p.store.conn(ctx).QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position) + 1, 0)
		FROM tabs
		WHERE group_id = ? AND parent_id IS ?`, int64(groupID), parent).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next position: %w", err)
	}
	return tabs.Position(next), nil
}

func (p *pathStore) AncestorPaths(ctx context.Context, id tabs.TabID) ([]closure.Path, error) {
	return p.queryPaths(ctx, `
		SELECT ancestor_id, descendant_id, depth FROM tab_tree_paths
		WHERE descendant_id = ? ORDER BY depth`, id)
}

func (p *pathStore) DescendantPaths(ctx context.Context, id tabs.TabID) ([]closure.Path, error) {
	return p.queryPaths(ctx, `
		SELECT ancestor_id, descendant_id, depth FROM tab_tree_paths
		WHERE ancestor_id = ? ORDER BY depth`, id)
}

func (p *pathStore) queryPaths(ctx context.Context, query string, id tabs.TabID) ([]closure.Path, error) {
	rows, err := p.store.conn(ctx).QueryContext(ctx, query, int64(id))
	if err != nil {
		return nil, fmt.Errorf("query paths: %w", err)
	}
	defer rows.Close()

	var paths []closure.Path
	for rows.Next() {
		var path closure.Path
		if err := rows.Scan(&path.AncestorID, &path.DescendantID, &path.Depth); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paths: %w", err)
	}
	return paths, nil
}

func (p *pathStore) InsertPaths(ctx context.Context, paths []closure.Path) error {
	if len(paths) == 0 {
		return nil
	}
	return p.prepared(ctx, `INSERT INTO tab_tree_paths (ancestor_id, descendant_id, depth) VALUES (?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			for _, path := range paths {
				if _, err := stmt.ExecContext(ctx, int64(path.AncestorID), int64(path.DescendantID), path.Depth); err != nil {
					if isUniqueError(err) {
						return fmt.Errorf("insert path (%d, %d): %w", path.AncestorID, path.DescendantID, domain.ErrConflict)
					}
					return fmt.Errorf("insert path (%d, %d): %w", path.AncestorID, path.DescendantID, err)
				}
			}
			return nil
		})
}

func (p *pathStore) DeletePaths(ctx context.Context, ancestorIDs, descendantIDs []tabs.TabID) error {
	if len(ancestorIDs) == 0 || len(descendantIDs) == 0 {
		return nil
	}
	ancIn, ancArgs := inClause(ancestorIDs)
	descIn, descArgs := inClause(descendantIDs)
	query := `DELETE FROM tab_tree_paths WHERE ancestor_id IN (` + ancIn + `) AND descendant_id IN (` + descIn + `)`
	if _, err := p.store.conn(ctx).ExecContext(ctx, query, append(ancArgs, descArgs...)...); err != nil {
		return fmt.Errorf("delete paths: %w", err)
	}
	return nil
}

// prepared runs fn with query prepared on the current transaction. Outside a
// transaction it opens one, so batch writes are never half applied.
func (p *pathStore) prepared(ctx context.Context, query string, fn func(*sql.Stmt) error) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return p.store.TxManager().ExecTx(ctx, func(ctx context.Context) error {
			return p.prepared(ctx, query, fn)
		})
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	return fn(stmt)
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isUniqueError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
