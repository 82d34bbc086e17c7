package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tabnest/internal/domain"
	"tabnest/internal/domain/models/tabs"
	tabrepo "tabnest/internal/domain/repositories/tabs"
)

type pathRow struct {
	ancestor, descendant tabs.TabID
}

type harness struct {
	t     *testing.T
	ctx   context.Context
	s     *Store
	repo  tabrepo.TabRepository
	group tabs.GroupID
}

func newHarness(t *testing.T) *harness {
	s := newTestStore(t)
	return &harness{t: t, ctx: context.Background(), s: s, repo: s.Tabs(), group: newTestGroup(t, s).ID}
}

// tx runs fn in one transaction, the way the services do.
func (h *harness) tx(fn func(ctx context.Context) error) error {
	return h.s.TxManager().ExecTx(h.ctx, fn)
}

// add inserts a tab under parent (0 = root) at the next position.
func (h *harness) add(parent tabs.TabID) tabs.TabID {
	h.t.Helper()
	var id tabs.TabID
	err := h.tx(func(ctx context.Context) error {
		tree, err := h.repo.LoadTree(ctx, h.group)
		if err != nil {
			return err
		}
		var parentID *tabs.TabID
		pos := tree.NextRootPosition()
		if parent != 0 {
			parentID = parent.Ptr()
			if pos, err = tree.NextChildPosition(parent); err != nil {
				return err
			}
		}
		tab, err := tabs.NewTab(h.group, parentID, "tab", "https://example.com", int(pos), time.Now())
		if err != nil {
			return err
		}
		if parentID == nil {
			err = h.repo.InsertRoot(ctx, tab)
		} else {
			err = h.repo.InsertChild(ctx, tab)
		}
		id = tab.ID
		return err
	})
	require.NoError(h.t, err)
	return id
}

// tree loads the tree and checks closure completeness against parent_id.
func (h *harness) tree() *tabs.TabTree {
	h.t.Helper()
	parents := map[tabs.TabID]*tabs.TabID{}
	rows, err := h.s.db.Query(`SELECT id, parent_id FROM tabs`)
	require.NoError(h.t, err)
	for rows.Next() {
		var id tabs.TabID
		var parent *int64
		require.NoError(h.t, rows.Scan(&id, &parent))
		if parent != nil {
			parents[id] = tabs.TabID(*parent).Ptr()
		} else {
			parents[id] = nil
		}
	}
	require.NoError(h.t, rows.Err())
	rows.Close()

	want := map[pathRow]int{}
	for id := range parents {
		want[pathRow{id, id}] = 0
		depth := 0
		for p := parents[id]; p != nil; p = parents[*p] {
			depth++
			want[pathRow{*p, id}] = depth
		}
	}

	got := map[pathRow]int{}
	rows, err = h.s.db.Query(`SELECT ancestor_id, descendant_id, depth FROM tab_tree_paths`)
	require.NoError(h.t, err)
	for rows.Next() {
		var r pathRow
		var d int
		require.NoError(h.t, rows.Scan(&r.ancestor, &r.descendant, &d))
		got[r] = d
	}
	require.NoError(h.t, rows.Err())
	rows.Close()
	require.Equal(h.t, want, got, "closure table matches parent pointers")

	tree, err := h.repo.LoadTree(h.ctx, h.group)
	require.NoError(h.t, err)
	return tree
}

func (h *harness) parentOf(id tabs.TabID) *tabs.TabID {
	h.t.Helper()
	tab, err := h.repo.GetByID(h.ctx, id)
	require.NoError(h.t, err)
	return tab.ParentID
}

func depthOf(t *testing.T, tree *tabs.TabTree, id tabs.TabID) int {
	t.Helper()
	n, ok := tree.Node(id)
	require.True(t, ok, "tab %d missing", id)
	return n.Depth()
}

func TestLoadTree_Empty(t *testing.T) {
	h := newHarness(t)
	tree := h.tree()
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, tabs.Position(0), tree.NextRootPosition())
}

func TestInsertAndLoad(t *testing.T) {
	h := newHarness(t)
	r := h.add(0)
	a := h.add(r)
	b := h.add(r)
	c := h.add(a)

	tree := h.tree()
	assert.Equal(t, 4, tree.Len())
	assert.Equal(t, 0, depthOf(t, tree, r))
	assert.Equal(t, 1, depthOf(t, tree, b))
	assert.Equal(t, 2, depthOf(t, tree, c))

	rn, _ := tree.Node(r)
	children := rn.Children()
	require.Len(t, children, 2)
	assert.Equal(t, a, children[0].ID())
	assert.Equal(t, tabs.Position(1), children[1].Tab().Position)
}

// A chain of 9 tabs (depths 0..8) accepts one more level; a 10th level
// (parent at depth 9) is rejected before anything is written.
func TestDepthLimitAgainstStoredChain(t *testing.T) {
	h := newHarness(t)
	var chain []tabs.TabID
	parent := tabs.TabID(0)
	for i := 0; i < 9; i++ {
		parent = h.add(parent)
		chain = append(chain, parent)
	}

	tree := h.tree()
	assert.Equal(t, 8, depthOf(t, tree, chain[8]))
	assert.NoError(t, tree.ValidateAddChildDepth(chain[7]), "child of depth 7 lands at 8")
	assert.NoError(t, tree.ValidateAddChildDepth(chain[8]), "child of depth 8 lands at 9")

	last := h.add(chain[8])
	tree = h.tree()
	assert.Equal(t, tabs.MaxDepth-1, depthOf(t, tree, last))
	assert.ErrorIs(t, tree.ValidateAddChildDepth(last), domain.ErrDepthExceeded)
}

// Interior node with two children and one grandchild under the first child.
func TestDeleteNode_Scenario(t *testing.T) {
	h := newHarness(t)
	p := h.add(0)
	x := h.add(p)
	c1 := h.add(x)
	c2 := h.add(x)
	g := h.add(c1)

	require.NoError(t, h.tx(func(ctx context.Context) error { return h.repo.DeleteNode(ctx, x) }))

	tree := h.tree()
	_, err := h.repo.GetByID(h.ctx, x)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, p, *h.parentOf(c1))
	assert.Equal(t, p, *h.parentOf(c2))
	assert.Equal(t, c1, *h.parentOf(g))
	assert.Equal(t, 2, depthOf(t, tree, g))
}

func TestDeleteSubtree(t *testing.T) {
	h := newHarness(t)
	r := h.add(0)
	a := h.add(r)
	b := h.add(r)
	a1 := h.add(a)
	h.add(a1)

	before, err := h.repo.GetByID(h.ctx, b)
	require.NoError(t, err)

	require.NoError(t, h.tx(func(ctx context.Context) error { return h.repo.DeleteSubtree(ctx, a) }))

	tree := h.tree()
	assert.Equal(t, 2, tree.Len())
	after, err := h.repo.GetByID(h.ctx, b)
	require.NoError(t, err)
	assert.Equal(t, before, after, "sibling row untouched")
}

// Root R with children A, B; A has child A1. Moving A's subtree to the root
// level lifts A and A1 by one.
func TestMoveSubtree_ToRootScenario(t *testing.T) {
	h := newHarness(t)
	r := h.add(0)
	a := h.add(r)
	h.add(r)
	a1 := h.add(a)

	require.NoError(t, h.tx(func(ctx context.Context) error { return h.repo.MoveSubtree(ctx, a, nil) }))

	tree := h.tree()
	assert.Nil(t, h.parentOf(a))
	assert.Equal(t, 0, depthOf(t, tree, a))
	assert.Equal(t, 1, depthOf(t, tree, a1))
	rn, _ := tree.Node(r)
	assert.Len(t, rn.Children(), 1)
	assert.Len(t, tree.Roots(), 2)
}

func TestMoveSubtree_UnderOtherBranch(t *testing.T) {
	h := newHarness(t)
	r1 := h.add(0)
	x := h.add(r1)
	x1 := h.add(x)
	x11 := h.add(x1)
	r2 := h.add(0)

	require.NoError(t, h.tx(func(ctx context.Context) error { return h.repo.MoveSubtree(ctx, x, r2.Ptr()) }))

	tree := h.tree()
	assert.Equal(t, r2, *h.parentOf(x))
	assert.Equal(t, x, *h.parentOf(x1))
	assert.Equal(t, x1, *h.parentOf(x11))
	assert.Equal(t, 3, depthOf(t, tree, x11))
}

func TestMoveNode_LeavesChildren(t *testing.T) {
	h := newHarness(t)
	p := h.add(0)
	x := h.add(p)
	c := h.add(x)
	dest := h.add(0)

	require.NoError(t, h.tx(func(ctx context.Context) error { return h.repo.MoveNode(ctx, x, dest.Ptr()) }))

	tree := h.tree()
	assert.Equal(t, dest, *h.parentOf(x))
	assert.Equal(t, p, *h.parentOf(c))
	xn, _ := tree.Node(x)
	assert.True(t, xn.IsLeaf())
}

func TestReorder_IsPermutation(t *testing.T) {
	h := newHarness(t)
	r := h.add(0)
	a := h.add(r)
	b := h.add(r)
	c := h.add(r)

	var order []tabs.TabID
	require.NoError(t, h.tx(func(ctx context.Context) error {
		tree, err := h.repo.LoadTree(ctx, h.group)
		if err != nil {
			return err
		}
		order, err = tree.ReorderSiblings(c, a, tabs.PlaceBefore)
		if err != nil {
			return err
		}
		return h.repo.Reorder(ctx, order)
	}))
	assert.Equal(t, []tabs.TabID{c, a, b}, order)

	tree := h.tree()
	rn, _ := tree.Node(r)
	var got []tabs.TabID
	var positions []tabs.Position
	for _, n := range rn.Children() {
		got = append(got, n.ID())
		positions = append(positions, n.Tab().Position)
	}
	assert.Equal(t, []tabs.TabID{c, a, b}, got)
	assert.Equal(t, []tabs.Position{0, 1, 2}, positions)
}

func TestUpdateContent(t *testing.T) {
	h := newHarness(t)
	id := h.add(0)

	tab, err := h.repo.GetByID(h.ctx, id)
	require.NoError(t, err)
	later := tab.UpdatedAt.Add(time.Minute)
	updated := tab.WithContent("Renamed", "https://go.dev/blog", later)
	require.NoError(t, h.repo.UpdateContent(h.ctx, &updated))

	got, err := h.repo.GetByID(h.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tabs.Title("Renamed"), got.Title)
	assert.Equal(t, tabs.URL("https://go.dev/blog"), got.URL)
	assert.True(t, got.UpdatedAt.Equal(later))
	assert.True(t, got.CreatedAt.Equal(tab.CreatedAt), "created_at is immutable")

	missing := tabs.Tab{ID: 999, Title: "x", URL: "https://x.y"}
	assert.ErrorIs(t, h.repo.UpdateContent(h.ctx, &missing), domain.ErrNotFound)
}

func TestLoadTree_DetectsCorruptDepth(t *testing.T) {
	h := newHarness(t)
	r := h.add(0)
	a := h.add(r)
	h.tree()

	// Claim a sits three levels below r while parent_id says one.
	_, err := h.s.db.Exec(`UPDATE tab_tree_paths SET depth = 3 WHERE ancestor_id = ? AND descendant_id = ?`, int64(r), int64(a))
	require.NoError(t, err)

	_, err = h.repo.LoadTree(h.ctx, h.group)
	assert.ErrorIs(t, err, tabs.ErrCorruptTree)
}

func TestInsertChild_UnknownParentWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.add(0)

	err := h.tx(func(ctx context.Context) error {
		tab, err := tabs.NewTab(h.group, tabs.TabID(404).Ptr(), "x", "https://x.y", 0, time.Now())
		require.NoError(t, err)
		return h.repo.InsertChild(ctx, tab)
	})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	assert.Equal(t, 1, h.tree().Len())
}
