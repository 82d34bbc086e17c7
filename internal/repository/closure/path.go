// Package closure maintains the tab_tree_paths closure table. The protocol
// is written once as set algebra over a small PathStore, so the Postgres and
// SQLite backends only supply primitive reads and batch writes.
package closure

import (
	"context"
	"sort"
	"time"

	"tabnest/internal/domain/models/tabs"
)

// Path is one closure row: DescendantID sits Depth levels below AncestorID.
// Every tab has a self path with Depth 0.
type Path struct {
	AncestorID   tabs.TabID
	DescendantID tabs.TabID
	Depth        int
}

// Link repoints a tab's parent_id and position.
type Link struct {
	ID       tabs.TabID
	ParentID *tabs.TabID
	Position tabs.Position
}

// PathStore is the storage surface the protocol runs on. Implementations
// execute against the transaction carried by ctx.
type PathStore interface {
	GetTab(ctx context.Context, id tabs.TabID) (*tabs.Tab, error)
	// InsertTab stores the tabs row and assigns tab.ID.
	InsertTab(ctx context.Context, tab *tabs.Tab) error
	DeleteTabs(ctx context.Context, ids []tabs.TabID) error
	Relink(ctx context.Context, links []Link, at time.Time) error
	Positions(ctx context.Context, ids []tabs.TabID) (map[tabs.TabID]tabs.Position, error)
	UpdatePositions(ctx context.Context, positions map[tabs.TabID]tabs.Position, at time.Time) error
	// NextPosition returns 1 + the highest position among parentID's children
	// (roots of groupID when parentID is nil), or 0 when there are none.
	NextPosition(ctx context.Context, groupID tabs.GroupID, parentID *tabs.TabID) (tabs.Position, error)

	// AncestorPaths returns every row whose descendant is id, self row included.
	AncestorPaths(ctx context.Context, id tabs.TabID) ([]Path, error)
	// DescendantPaths returns every row whose ancestor is id, self row included.
	DescendantPaths(ctx context.Context, id tabs.TabID) ([]Path, error)
	InsertPaths(ctx context.Context, paths []Path) error
	// DeletePaths removes every row pairing an id in ancestorIDs with an id in descendantIDs.
	DeletePaths(ctx context.Context, ancestorIDs, descendantIDs []tabs.TabID) error
}

// selfPath is the depth 0 row every tab owns
func selfPath(id tabs.TabID) Path {
	return Path{AncestorID: id, DescendantID: id}
}

// ancestorIDs projects the ancestor column
func ancestorIDs(paths []Path) []tabs.TabID {
	ids := make([]tabs.TabID, 0, len(paths))
	for _, p := range paths {
		ids = append(ids, p.AncestorID)
	}
	return ids
}

// descendantIDs projects the descendant column
func descendantIDs(paths []Path) []tabs.TabID {
	ids := make([]tabs.TabID, 0, len(paths))
	for _, p := range paths {
		ids = append(ids, p.DescendantID)
	}
	return ids
}

// withoutSelf drops the depth 0 row
func withoutSelf(paths []Path) []Path {
	out := make([]Path, 0, len(paths))
	for _, p := range paths {
		if p.Depth > 0 {
			out = append(out, p)
		}
	}
	return out
}

// atDepth keeps rows at exactly depth
func atDepth(paths []Path, depth int) []Path {
	var out []Path
	for _, p := range paths {
		if p.Depth == depth {
			out = append(out, p)
		}
	}
	return out
}

// parentOf returns the direct parent recorded in a tab's ancestor rows, nil for a root.
func parentOf(ancestors []Path) *tabs.TabID {
	for _, p := range ancestors {
		if p.Depth == 1 {
			return p.AncestorID.Ptr()
		}
	}
	return nil
}

// graft pairs every ancestor row with every descendant row, adding offset to
// the summed depth. Ancestor rows are (a, anchor, da) and descendant rows
// (root, d, dd); the result is (a, d, da+dd+offset).
func graft(ancestors, descendants []Path, offset int) []Path {
	out := make([]Path, 0, len(ancestors)*len(descendants))
	for _, a := range ancestors {
		for _, d := range descendants {
			out = append(out, Path{
				AncestorID:   a.AncestorID,
				DescendantID: d.DescendantID,
				Depth:        a.Depth + d.Depth + offset,
			})
		}
	}
	return out
}

// liftOneLevel rewrites a tab's ancestor rows as its parent's ancestor rows:
// (a, id, d) with d >= 1 becomes (a, parent, d-1).
func liftOneLevel(ancestors []Path, parentID tabs.TabID) []Path {
	out := make([]Path, 0, len(ancestors))
	for _, p := range ancestors {
		if p.Depth == 0 {
			continue
		}
		out = append(out, Path{AncestorID: p.AncestorID, DescendantID: parentID, Depth: p.Depth - 1})
	}
	return out
}

// sortByPosition orders ids by their stored position, ties broken by id.
func sortByPosition(ids []tabs.TabID, positions map[tabs.TabID]tabs.Position) {
	sort.SliceStable(ids, func(i, j int) bool {
		pi, pj := positions[ids[i]], positions[ids[j]]
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})
}
