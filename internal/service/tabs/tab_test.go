package tabs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tabnest/internal/domain"
	"tabnest/internal/domain/models/tabs"
	tabsvc "tabnest/internal/domain/services/tabs"
)

func TestCreateTab_AppendsAfterSiblings(t *testing.T) {
	e := newTestEnv(t)

	a := e.create(t, nil, "a")
	b := e.create(t, nil, "b")
	c1 := e.create(t, a.Ptr(), "c1")
	c2 := e.create(t, a.Ptr(), "c2")

	view := e.tree(t)
	assert.Equal(t, 4, view.Count)
	assert.Equal(t, []tabs.TabID{a, b}, ids(view.Tabs))
	assert.Equal(t, []tabs.TabID{c1, c2}, ids(view.Tabs[0].Children))
	assert.Equal(t, tabs.Position(0), view.Tabs[0].Children[0].Position)
	assert.Equal(t, tabs.Position(1), view.Tabs[0].Children[1].Position)
	assert.Equal(t, 1, view.Tabs[0].Children[1].Depth)
}

func TestCreateTab_Validation(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name string
		req  tabsvc.CreateTabRequest
	}{
		{name: "empty title", req: tabsvc.CreateTabRequest{Title: " ", URL: "https://x.io"}},
		{name: "bad url", req: tabsvc.CreateTabRequest{Title: "x", URL: "ftp://x.io"}},
		{name: "no user", req: tabsvc.CreateTabRequest{Title: "x", URL: "https://x.io"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.GroupID = e.group.ID
			if tt.name != "no user" {
				req.UserID = e.owner
			}
			_, err := e.tabSvc.CreateTab(e.ctx, &req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Equal(t, 0, e.tree(t).Count)
}

func TestCreateTab_UnknownParent(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.tabSvc.CreateTab(e.ctx, &tabsvc.CreateTabRequest{
		UserID: e.owner, GroupID: e.group.ID, ParentID: tabs.TabID(42).Ptr(), Title: "x", URL: "https://x.io",
	})
	requireCode(t, err, domain.CodeNodeNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateTab_ParentInOtherGroup(t *testing.T) {
	e := newTestEnv(t)
	other, err := e.groupSvc.CreateGroup(e.ctx, &tabsvc.CreateGroupRequest{UserID: e.owner, Name: "Other"})
	require.NoError(t, err)
	foreign, err := e.tabSvc.CreateTab(e.ctx, &tabsvc.CreateTabRequest{
		UserID: e.owner, GroupID: other.ID, Title: "f", URL: "https://f.io",
	})
	require.NoError(t, err)

	_, err = e.tabSvc.CreateTab(e.ctx, &tabsvc.CreateTabRequest{
		UserID: e.owner, GroupID: e.group.ID, ParentID: foreign.ID.Ptr(), Title: "x", URL: "https://x.io",
	})
	requireCode(t, err, domain.CodeNodeNotFound)
}

func TestCreateTab_DepthLimit(t *testing.T) {
	e := newTestEnv(t)
	chain := e.chain(t, 10) // depths 0..9

	// A child of the depth-8 tab lands at depth 9, the deepest allowed level.
	e.create(t, chain[8].Ptr(), "deepest")

	_, err := e.tabSvc.CreateTab(e.ctx, &tabsvc.CreateTabRequest{
		UserID: e.owner, GroupID: e.group.ID, ParentID: chain[9].Ptr(), Title: "too deep", URL: "https://x.io",
	})
	requireCode(t, err, domain.CodeDepthExceeded)
	assert.Equal(t, 11, e.tree(t).Count)
}

func TestCreateTab_Forbidden(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.tabSvc.CreateTab(e.ctx, &tabsvc.CreateTabRequest{
		UserID: uuid.New(), GroupID: e.group.ID, Title: "x", URL: "https://x.io",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func nested(levels int) []tabsvc.TabSpec {
	spec := tabsvc.TabSpec{Title: "leaf", URL: "https://x.io/leaf"}
	for i := 1; i < levels; i++ {
		spec = tabsvc.TabSpec{Title: "level", URL: "https://x.io/level", Children: []tabsvc.TabSpec{spec}}
	}
	return []tabsvc.TabSpec{spec}
}

func TestCreateTabs_PreOrder(t *testing.T) {
	e := newTestEnv(t)
	existing := e.create(t, nil, "existing")

	created, err := e.tabSvc.CreateTabs(e.ctx, &tabsvc.CreateTabsRequest{
		UserID:  e.owner,
		GroupID: e.group.ID,
		Tabs: []tabsvc.TabSpec{
			{Title: "a", URL: "https://a.io", Children: []tabsvc.TabSpec{
				{Title: "a1", URL: "https://a.io/1"},
				{Title: "a2", URL: "https://a.io/2"},
			}},
			{Title: "b", URL: "https://b.io"},
		},
	})
	require.NoError(t, err)
	require.Len(t, created, 4)

	titles := make([]tabs.Title, len(created))
	for i, c := range created {
		titles[i] = c.Title
	}
	assert.Equal(t, []tabs.Title{"a", "a1", "a2", "b"}, titles)

	view := e.tree(t)
	assert.Equal(t, []tabs.TabID{existing, created[0].ID, created[3].ID}, ids(view.Tabs))
	assert.Equal(t, []tabs.TabID{created[1].ID, created[2].ID}, ids(view.Tabs[1].Children))
	assert.Equal(t, tabs.Position(1), view.Tabs[1].Position)
	assert.Equal(t, tabs.Position(2), view.Tabs[2].Position)
}

func TestCreateTabs_Depth(t *testing.T) {
	t.Run("ten levels at the root", func(t *testing.T) {
		e := newTestEnv(t)
		created, err := e.tabSvc.CreateTabs(e.ctx, &tabsvc.CreateTabsRequest{
			UserID: e.owner, GroupID: e.group.ID, Tabs: nested(10),
		})
		require.NoError(t, err)
		assert.Len(t, created, 10)
	})

	t.Run("eleven levels at the root", func(t *testing.T) {
		e := newTestEnv(t)
		_, err := e.tabSvc.CreateTabs(e.ctx, &tabsvc.CreateTabsRequest{
			UserID: e.owner, GroupID: e.group.ID, Tabs: nested(11),
		})
		requireCode(t, err, domain.CodeDepthExceeded)
		assert.Equal(t, 0, e.tree(t).Count, "nothing is written")
	})

	t.Run("under a deep parent", func(t *testing.T) {
		e := newTestEnv(t)
		chain := e.chain(t, 9) // deepest at depth 8

		_, err := e.tabSvc.CreateTabs(e.ctx, &tabsvc.CreateTabsRequest{
			UserID: e.owner, GroupID: e.group.ID, ParentID: chain[8].Ptr(), Tabs: nested(2),
		})
		requireCode(t, err, domain.CodeDepthExceeded)

		created, err := e.tabSvc.CreateTabs(e.ctx, &tabsvc.CreateTabsRequest{
			UserID: e.owner, GroupID: e.group.ID, ParentID: chain[8].Ptr(), Tabs: nested(1),
		})
		require.NoError(t, err)
		require.Len(t, created, 1)
		assert.Equal(t, chain[8], *created[0].ParentID)
	})
}

func TestCreateTabs_InvalidSpecRollsBack(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.tabSvc.CreateTabs(e.ctx, &tabsvc.CreateTabsRequest{
		UserID:  e.owner,
		GroupID: e.group.ID,
		Tabs: []tabsvc.TabSpec{
			{Title: "ok", URL: "https://ok.io"},
			{Title: "bad", URL: "not a url"},
		},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, e.tree(t).Count)
}

func TestUpdateTab(t *testing.T) {
	e := newTestEnv(t)
	id := e.create(t, nil, "old")

	title := "new"
	updated, err := e.tabSvc.UpdateTab(e.ctx, &tabsvc.UpdateTabRequest{UserID: e.owner, TabID: id, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, tabs.Title("new"), updated.Title)
	assert.Equal(t, tabs.URL("https://example.com/old"), updated.URL, "url unchanged")

	bad := "javascript:alert(1)"
	_, err = e.tabSvc.UpdateTab(e.ctx, &tabsvc.UpdateTabRequest{UserID: e.owner, TabID: id, URL: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.tabSvc.UpdateTab(e.ctx, &tabsvc.UpdateTabRequest{UserID: e.owner, TabID: id})
	assert.ErrorIs(t, err, domain.ErrValidation, "nothing to change")

	_, err = e.tabSvc.UpdateTab(e.ctx, &tabsvc.UpdateTabRequest{UserID: uuid.New(), TabID: id, Title: &title})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDeleteTab_PromotesChildren(t *testing.T) {
	e := newTestEnv(t)
	root := e.create(t, nil, "root")
	sib := e.create(t, root.Ptr(), "sib")
	mid := e.create(t, root.Ptr(), "mid")
	c1 := e.create(t, mid.Ptr(), "c1")
	c2 := e.create(t, mid.Ptr(), "c2")

	require.NoError(t, e.tabSvc.DeleteTab(e.ctx, e.owner, mid, false))

	view := e.tree(t)
	assert.Equal(t, 4, view.Count)
	assert.Equal(t, []tabs.TabID{sib, c1, c2}, ids(view.Tabs[0].Children))
	for _, child := range view.Tabs[0].Children {
		assert.Equal(t, 1, child.Depth)
		assert.Equal(t, root, *child.ParentID)
	}
}

func TestDeleteTab_Subtree(t *testing.T) {
	e := newTestEnv(t)
	keep := e.create(t, nil, "keep")
	gone := e.create(t, nil, "gone")
	child := e.create(t, gone.Ptr(), "child")
	e.create(t, child.Ptr(), "grandchild")

	require.NoError(t, e.tabSvc.DeleteTab(e.ctx, e.owner, gone, true))

	view := e.tree(t)
	assert.Equal(t, 1, view.Count)
	assert.Equal(t, []tabs.TabID{keep}, ids(view.Tabs))

	err := e.tabSvc.DeleteTab(e.ctx, e.owner, child, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMoveTab_RejectsCycle(t *testing.T) {
	e := newTestEnv(t)
	chain := e.chain(t, 3)

	_, err := e.tabSvc.MoveTab(e.ctx, &tabsvc.MoveTabRequest{UserID: e.owner, TabID: chain[0], ParentID: chain[2].Ptr(), WithSubtree: true})
	requireCode(t, err, domain.CodeCycleDetected)

	_, err = e.tabSvc.MoveTab(e.ctx, &tabsvc.MoveTabRequest{UserID: e.owner, TabID: chain[1], ParentID: chain[1].Ptr()})
	requireCode(t, err, domain.CodeSelfParent)

	view := e.tree(t)
	require.Len(t, view.Tabs, 1)
	assert.Equal(t, chain[0], view.Tabs[0].ID, "tree unchanged")
}

func TestMoveTab_Subtree(t *testing.T) {
	e := newTestEnv(t)
	a := e.create(t, nil, "a")
	b := e.create(t, nil, "b")
	a1 := e.create(t, a.Ptr(), "a1")
	a11 := e.create(t, a1.Ptr(), "a11")

	moved, err := e.tabSvc.MoveTab(e.ctx, &tabsvc.MoveTabRequest{UserID: e.owner, TabID: a1, ParentID: b.Ptr(), WithSubtree: true})
	require.NoError(t, err)
	assert.Equal(t, b, *moved.ParentID)

	view := e.tree(t)
	assert.Empty(t, view.Tabs[0].Children)
	require.Len(t, view.Tabs[1].Children, 1)
	assert.Equal(t, a1, view.Tabs[1].Children[0].ID)
	assert.Equal(t, []tabs.TabID{a11}, ids(view.Tabs[1].Children[0].Children))
	assert.Equal(t, 2, view.Tabs[1].Children[0].Children[0].Depth)
}

func TestMoveTab_NodeOnly(t *testing.T) {
	e := newTestEnv(t)
	a := e.create(t, nil, "a")
	a1 := e.create(t, a.Ptr(), "a1")
	a11 := e.create(t, a1.Ptr(), "a11")

	moved, err := e.tabSvc.MoveTab(e.ctx, &tabsvc.MoveTabRequest{UserID: e.owner, TabID: a1, ParentID: nil})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)

	view := e.tree(t)
	assert.Equal(t, []tabs.TabID{a, a1}, ids(view.Tabs))
	assert.Equal(t, []tabs.TabID{a11}, ids(view.Tabs[0].Children), "child stays with the old parent")
	assert.Empty(t, view.Tabs[1].Children)
}

func TestMoveTab_DepthLimit(t *testing.T) {
	e := newTestEnv(t)
	deep := e.chain(t, 8) // depths 0..7
	sub := e.chain(t, 3)  // a separate root with height 2

	_, err := e.tabSvc.MoveTab(e.ctx, &tabsvc.MoveTabRequest{UserID: e.owner, TabID: sub[0], ParentID: deep[7].Ptr(), WithSubtree: true})
	requireCode(t, err, domain.CodeDepthExceeded)

	// Alone, the same tab fits at depth 8.
	_, err = e.tabSvc.MoveTab(e.ctx, &tabsvc.MoveTabRequest{UserID: e.owner, TabID: sub[0], ParentID: deep[7].Ptr()})
	require.NoError(t, err)
}

func TestReorderTab(t *testing.T) {
	e := newTestEnv(t)
	a := e.create(t, nil, "a")
	b := e.create(t, nil, "b")
	c := e.create(t, nil, "c")
	child := e.create(t, a.Ptr(), "child")

	order, err := e.tabSvc.ReorderTab(e.ctx, &tabsvc.ReorderTabRequest{UserID: e.owner, TabID: c, TargetID: a, Placement: tabs.PlaceBefore})
	require.NoError(t, err)
	assert.Equal(t, []tabs.TabID{c, a, b}, order)

	view := e.tree(t)
	assert.Equal(t, []tabs.TabID{c, a, b}, ids(view.Tabs))
	for i, n := range view.Tabs {
		assert.Equal(t, tabs.Position(i), n.Position)
	}

	_, err = e.tabSvc.ReorderTab(e.ctx, &tabsvc.ReorderTabRequest{UserID: e.owner, TabID: child, TargetID: b, Placement: tabs.PlaceAfter})
	requireCode(t, err, domain.CodeSiblingLevelMismatch)

	_, err = e.tabSvc.ReorderTab(e.ctx, &tabsvc.ReorderTabRequest{UserID: e.owner, TabID: a, TargetID: b, Placement: "middle"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
