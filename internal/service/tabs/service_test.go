package tabs

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tabnest/internal/domain"
	"tabnest/internal/domain/models/tabs"
	tabsvc "tabnest/internal/domain/services/tabs"
	"tabnest/internal/repository/sqlite"
	"tabnest/internal/service/auth"
)

type testEnv struct {
	ctx      context.Context
	store    *sqlite.Store
	groupSvc tabsvc.GroupService
	tabSvc   tabsvc.TabService
	owner    uuid.UUID
	group    *tabs.TabGroup
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "tabs.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tabRepo, groupRepo := store.Tabs(), store.Groups()
	authorizer := auth.NewOwnerBasedAuthorizer(groupRepo, tabRepo)

	e := &testEnv{
		ctx:      context.Background(),
		store:    store,
		groupSvc: NewGroupService(groupRepo, authorizer, logger),
		tabSvc:   NewTabService(tabRepo, groupRepo, store.TxManager(), authorizer, logger),
		owner:    uuid.New(),
	}
	e.group, err = e.groupSvc.CreateGroup(e.ctx, &tabsvc.CreateGroupRequest{UserID: e.owner, Name: "Research"})
	require.NoError(t, err)
	return e
}

// create adds one tab under parent (nil = root) and returns its id
func (e *testEnv) create(t *testing.T, parent *tabs.TabID, title string) tabs.TabID {
	t.Helper()
	tab, err := e.tabSvc.CreateTab(e.ctx, &tabsvc.CreateTabRequest{
		UserID:   e.owner,
		GroupID:  e.group.ID,
		ParentID: parent,
		Title:    title,
		URL:      "https://example.com/" + title,
	})
	require.NoError(t, err)
	return tab.ID
}

// chain creates n tabs, each a child of the previous one
func (e *testEnv) chain(t *testing.T, n int) []tabs.TabID {
	t.Helper()
	ids := make([]tabs.TabID, 0, n)
	var parent *tabs.TabID
	for i := 0; i < n; i++ {
		id := e.create(t, parent, "level")
		ids = append(ids, id)
		parent = id.Ptr()
	}
	return ids
}

func (e *testEnv) tree(t *testing.T) *tabs.TreeView {
	t.Helper()
	view, err := e.tabSvc.GetTree(e.ctx, e.owner, e.group.ID)
	require.NoError(t, err)
	return view
}

func ids(nodes []*tabs.TabNodeView) []tabs.TabID {
	out := make([]tabs.TabID, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func requireCode(t *testing.T, err error, code domain.TreeErrorCode) {
	t.Helper()
	var te *domain.TreeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, code, te.Code, te.Message)
}

func TestGroupService(t *testing.T) {
	e := newTestEnv(t)

	t.Run("name is trimmed", func(t *testing.T) {
		g, err := e.groupSvc.CreateGroup(e.ctx, &tabsvc.CreateGroupRequest{UserID: e.owner, Name: "  Later  "})
		require.NoError(t, err)
		assert.Equal(t, "Later", g.Name)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		_, err := e.groupSvc.CreateGroup(e.ctx, &tabsvc.CreateGroupRequest{UserID: e.owner, Name: "   "})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("missing user rejected", func(t *testing.T) {
		_, err := e.groupSvc.CreateGroup(e.ctx, &tabsvc.CreateGroupRequest{Name: "x"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("list only returns own groups", func(t *testing.T) {
		other := uuid.New()
		_, err := e.groupSvc.CreateGroup(e.ctx, &tabsvc.CreateGroupRequest{UserID: other, Name: "Theirs"})
		require.NoError(t, err)

		groups, err := e.groupSvc.ListGroups(e.ctx, e.owner)
		require.NoError(t, err)
		for _, g := range groups {
			assert.Equal(t, e.owner, g.OwnerID)
		}
		assert.Len(t, groups, 2)
	})

	t.Run("get checks ownership", func(t *testing.T) {
		_, err := e.groupSvc.GetGroup(e.ctx, uuid.New(), e.group.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = e.groupSvc.GetGroup(e.ctx, e.owner, 9999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
