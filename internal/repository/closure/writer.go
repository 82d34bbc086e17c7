package closure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tabnest/internal/domain"
	"tabnest/internal/domain/models/tabs"
)

// Writer applies structural tab commands to the tabs table and the closure
// table together. It assumes the caller already validated the command
// against a fresh TabTree and runs it inside one transaction.
type Writer struct {
	store PathStore
	now   func() time.Time
}

// NewWriter creates a Writer over store
func NewWriter(store PathStore) *Writer {
	return &Writer{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// InsertRoot stores a parentless tab and its self path.
func (w *Writer) InsertRoot(ctx context.Context, tab *tabs.Tab) error {
	if !tab.IsRoot() {
		return fmt.Errorf("%w: root tab cannot have a parent", domain.ErrValidation)
	}
	if err := w.store.InsertTab(ctx, tab); err != nil {
		return err
	}
	return w.store.InsertPaths(ctx, []Path{selfPath(tab.ID)})
}

// InsertChild stores a tab under tab.ParentID: the parent's ancestor chain is
// copied one level deeper, then the self path is added.
func (w *Writer) InsertChild(ctx context.Context, tab *tabs.Tab) error {
	if tab.IsRoot() {
		return fmt.Errorf("%w: child tab requires a parent", domain.ErrValidation)
	}
	parentAncestors, err := w.ancestors(ctx, *tab.ParentID)
	if err != nil {
		return err
	}
	if err := w.store.InsertTab(ctx, tab); err != nil {
		return err
	}

	self := selfPath(tab.ID)
	paths := append(graft(parentAncestors, []Path{self}, 1), self)
	return w.store.InsertPaths(ctx, paths)
}

// DeleteNode removes one tab. Its direct children move up to its former
// parent (or become roots) and keep their own subtrees.
func (w *Writer) DeleteNode(ctx context.Context, id tabs.TabID) error {
	tab, anc, err := w.locate(ctx, id)
	if err != nil {
		return err
	}
	if err := w.splice(ctx, tab, anc); err != nil {
		return err
	}
	if err := w.store.DeletePaths(ctx, ancestorIDs(anc), []tabs.TabID{id}); err != nil {
		return err
	}
	return w.store.DeleteTabs(ctx, []tabs.TabID{id})
}

// DeleteSubtree removes a tab and every descendant along with all of their paths.
func (w *Writer) DeleteSubtree(ctx context.Context, id tabs.TabID) error {
	_, anc, err := w.locate(ctx, id)
	if err != nil {
		return err
	}
	desc, err := w.store.DescendantPaths(ctx, id)
	if err != nil {
		return err
	}

	subtree := descendantIDs(desc)
	owners := append(ancestorIDs(withoutSelf(anc)), subtree...)
	if err := w.store.DeletePaths(ctx, owners, subtree); err != nil {
		return err
	}
	return w.store.DeleteTabs(ctx, subtree)
}

// MoveNode moves one tab under parentID (nil = root). Its children stay
// behind under the tab's old parent.
func (w *Writer) MoveNode(ctx context.Context, id tabs.TabID, parentID *tabs.TabID) error {
	tab, anc, err := w.locate(ctx, id)
	if err != nil {
		return err
	}
	if err := w.splice(ctx, tab, anc); err != nil {
		return err
	}
	if err := w.store.DeletePaths(ctx, ancestorIDs(withoutSelf(anc)), []tabs.TabID{id}); err != nil {
		return err
	}
	if err := w.attach(ctx, parentID, []Path{selfPath(id)}); err != nil {
		return err
	}
	return w.relinkLast(ctx, tab, parentID)
}

// MoveSubtree re-anchors a tab and its descendants under parentID (nil = root).
// Paths inside the subtree are kept; only the links to the old ancestor chain
// are replaced.
func (w *Writer) MoveSubtree(ctx context.Context, id tabs.TabID, parentID *tabs.TabID) error {
	tab, anc, err := w.locate(ctx, id)
	if err != nil {
		return err
	}
	desc, err := w.store.DescendantPaths(ctx, id)
	if err != nil {
		return err
	}
	if err := w.store.DeletePaths(ctx, ancestorIDs(withoutSelf(anc)), descendantIDs(desc)); err != nil {
		return err
	}
	if err := w.attach(ctx, parentID, desc); err != nil {
		return err
	}
	return w.relinkLast(ctx, tab, parentID)
}

// Reorder writes positions 0..n-1 for order, touching only rows whose
// position changes. The closure table is not involved.
func (w *Writer) Reorder(ctx context.Context, order []tabs.TabID) error {
	if len(order) == 0 {
		return nil
	}
	seen := make(map[tabs.TabID]struct{}, len(order))
	for _, id := range order {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: tab %d listed twice in reorder", domain.ErrValidation, id)
		}
		seen[id] = struct{}{}
	}

	current, err := w.store.Positions(ctx, order)
	if err != nil {
		return err
	}
	changed := make(map[tabs.TabID]tabs.Position)
	for i, id := range order {
		pos, ok := current[id]
		if !ok {
			return domain.NewTreeError(domain.CodeNodeNotFound, "tab %d not found", id)
		}
		if pos != tabs.Position(i) {
			changed[id] = tabs.Position(i)
		}
	}
	if len(changed) == 0 {
		return nil
	}
	return w.store.UpdatePositions(ctx, changed, w.now())
}

// splice detaches everything below tab from tab and its ancestors, then
// hangs tab's direct children off tab's parent, appended after the existing
// siblings in their current order.
func (w *Writer) splice(ctx context.Context, tab *tabs.Tab, anc []Path) error {
	desc, err := w.store.DescendantPaths(ctx, tab.ID)
	if err != nil {
		return err
	}
	below := withoutSelf(desc)
	if len(below) == 0 {
		return nil
	}

	if err := w.store.DeletePaths(ctx, ancestorIDs(anc), descendantIDs(below)); err != nil {
		return err
	}

	parentID := parentOf(anc)
	if parentID != nil {
		// (a, parent, d) x (tab, x, dx) => (a, x, d+dx)
		if err := w.store.InsertPaths(ctx, graft(liftOneLevel(anc, *parentID), below, 0)); err != nil {
			return err
		}
	}

	children := descendantIDs(atDepth(below, 1))
	positions, err := w.store.Positions(ctx, children)
	if err != nil {
		return err
	}
	sortByPosition(children, positions)

	next, err := w.store.NextPosition(ctx, tab.GroupID, parentID)
	if err != nil {
		return err
	}
	links := make([]Link, 0, len(children))
	for i, child := range children {
		links = append(links, Link{ID: child, ParentID: parentID, Position: next + tabs.Position(i)})
	}
	return w.store.Relink(ctx, links, w.now())
}

// attach pairs every ancestor of parentID with the given subtree rows one level down.
func (w *Writer) attach(ctx context.Context, parentID *tabs.TabID, subtree []Path) error {
	if parentID == nil {
		return nil
	}
	parentAncestors, err := w.ancestors(ctx, *parentID)
	if err != nil {
		return err
	}
	return w.store.InsertPaths(ctx, graft(parentAncestors, subtree, 1))
}

// relinkLast points tab at parentID and places it after its new siblings.
func (w *Writer) relinkLast(ctx context.Context, tab *tabs.Tab, parentID *tabs.TabID) error {
	next, err := w.store.NextPosition(ctx, tab.GroupID, parentID)
	if err != nil {
		return err
	}
	return w.store.Relink(ctx, []Link{{ID: tab.ID, ParentID: parentID, Position: next}}, w.now())
}

func (w *Writer) locate(ctx context.Context, id tabs.TabID) (*tabs.Tab, []Path, error) {
	tab, err := w.store.GetTab(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.NewTreeError(domain.CodeNodeNotFound, "tab %d not found", id)
	}
	if err != nil {
		return nil, nil, err
	}
	anc, err := w.ancestors(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return tab, anc, nil
}

// ancestors returns id's ancestor rows; a tab without a self row does not exist.
func (w *Writer) ancestors(ctx context.Context, id tabs.TabID) ([]Path, error) {
	anc, err := w.store.AncestorPaths(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(anc) == 0 {
		return nil, domain.NewTreeError(domain.CodeNodeNotFound, "tab %d not found", id)
	}
	return anc, nil
}
