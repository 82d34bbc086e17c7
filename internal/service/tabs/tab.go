package tabs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"tabnest/internal/domain"
	"tabnest/internal/domain/models/tabs"
	"tabnest/internal/domain/repositories"
	tabrepo "tabnest/internal/domain/repositories/tabs"
	"tabnest/internal/domain/services"
	tabsvc "tabnest/internal/domain/services/tabs"
)

type tabService struct {
	tabRepo    tabrepo.TabRepository
	locker     tabrepo.TreeLocker
	txManager  repositories.TransactionManager
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
	now        func() time.Time
}

// NewTabService creates a new tab service
func NewTabService(
	tabRepo tabrepo.TabRepository,
	locker tabrepo.TreeLocker,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) tabsvc.TabService {
	return &tabService{
		tabRepo:    tabRepo,
		locker:     locker,
		txManager:  txManager,
		authorizer: authorizer,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// withTree runs fn in one transaction, after locking the group and loading
// its tree from the closure table. The tree is never reused across calls.
func (s *tabService) withTree(ctx context.Context, groupID tabs.GroupID, fn func(ctx context.Context, tree *tabs.TabTree) error) error {
	return s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.locker.LockGroup(ctx, groupID); err != nil {
			return err
		}
		tree, err := s.tabRepo.LoadTree(ctx, groupID)
		if err != nil {
			return err
		}
		return fn(ctx, tree)
	})
}

// authorizedTab checks access to a tab and returns it
func (s *tabService) authorizedTab(ctx context.Context, userID uuid.UUID, tabID tabs.TabID) (*tabs.Tab, error) {
	if err := s.authorizer.CanAccessTab(ctx, userID, tabID); err != nil {
		return nil, err
	}
	return s.tabRepo.GetByID(ctx, tabID)
}

// GetTree returns the group's nested tree
func (s *tabService) GetTree(ctx context.Context, userID uuid.UUID, groupID tabs.GroupID) (*tabs.TreeView, error) {
	if err := s.authorizer.CanAccessGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}
	tree, err := s.tabRepo.LoadTree(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return tree.View(), nil
}

// CreateTab appends a tab after its future siblings
func (s *tabService) CreateTab(ctx context.Context, req *tabsvc.CreateTabRequest) (*tabs.Tab, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccessGroup(ctx, req.UserID, req.GroupID); err != nil {
		return nil, err
	}
	tab, err := tabs.NewTab(req.GroupID, req.ParentID, req.Title, req.URL, 0, s.now())
	if err != nil {
		return nil, err
	}

	err = s.withTree(ctx, req.GroupID, func(ctx context.Context, tree *tabs.TabTree) error {
		if tab.IsRoot() {
			tab.Position = tree.NextRootPosition()
			return s.tabRepo.InsertRoot(ctx, tab)
		}
		if err := tree.ValidateAddChildDepth(*tab.ParentID); err != nil {
			return err
		}
		pos, err := tree.NextChildPosition(*tab.ParentID)
		if err != nil {
			return err
		}
		tab.Position = pos
		return s.tabRepo.InsertChild(ctx, tab)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tab created",
		"id", tab.ID,
		"group_id", tab.GroupID,
		"parent_id", tab.ParentID,
		"position", tab.Position,
	)
	return tab, nil
}

// CreateTabs inserts a nested batch in pre-order inside one transaction
func (s *tabService) CreateTabs(ctx context.Context, req *tabsvc.CreateTabsRequest) ([]tabs.Tab, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccessGroup(ctx, req.UserID, req.GroupID); err != nil {
		return nil, err
	}

	type pending struct {
		spec     tabsvc.TabSpec
		parentID *tabs.TabID
		position tabs.Position
	}

	var created []tabs.Tab
	err := s.withTree(ctx, req.GroupID, func(ctx context.Context, tree *tabs.TabTree) error {
		currentDepth := 0
		start := tree.NextRootPosition()
		if req.ParentID != nil {
			parent, ok := tree.Node(*req.ParentID)
			if !ok {
				return domain.NewTreeError(domain.CodeNodeNotFound, "tab %d not found in group %d", *req.ParentID, req.GroupID)
			}
			currentDepth = parent.Depth() + 1
			start, _ = tree.NextChildPosition(*req.ParentID)
		}
		if err := tree.ValidateCreateDepth(tabsvc.SpecLevels(req.Tabs), currentDepth); err != nil {
			return err
		}

		now := s.now()
		stack := make([]pending, 0, len(req.Tabs))
		for i := len(req.Tabs) - 1; i >= 0; i-- {
			stack = append(stack, pending{spec: req.Tabs[i], parentID: req.ParentID, position: start + tabs.Position(i)})
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			tab, err := tabs.NewTab(req.GroupID, p.parentID, p.spec.Title, p.spec.URL, int(p.position), now)
			if err != nil {
				return err
			}
			if tab.IsRoot() {
				err = s.tabRepo.InsertRoot(ctx, tab)
			} else {
				err = s.tabRepo.InsertChild(ctx, tab)
			}
			if err != nil {
				return err
			}
			created = append(created, *tab)

			for i := len(p.spec.Children) - 1; i >= 0; i-- {
				stack = append(stack, pending{spec: p.spec.Children[i], parentID: tab.ID.Ptr(), position: tabs.Position(i)})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tabs created",
		"group_id", req.GroupID,
		"parent_id", req.ParentID,
		"count", len(created),
	)
	return created, nil
}

// UpdateTab changes a tab's title and/or url
func (s *tabService) UpdateTab(ctx context.Context, req *tabsvc.UpdateTabRequest) (*tabs.Tab, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccessTab(ctx, req.UserID, req.TabID); err != nil {
		return nil, err
	}

	var updated tabs.Tab
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		tab, err := s.tabRepo.GetByID(ctx, req.TabID)
		if err != nil {
			return err
		}
		title, url := tab.Title, tab.URL
		if req.Title != nil {
			if title, err = tabs.NewTitle(*req.Title); err != nil {
				return err
			}
		}
		if req.URL != nil {
			if url, err = tabs.NewURL(*req.URL); err != nil {
				return err
			}
		}
		updated = tab.WithContent(title, url, s.now())
		return s.tabRepo.UpdateContent(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tab updated", "id", updated.ID, "group_id", updated.GroupID)
	return &updated, nil
}

// DeleteTab removes a tab, alone or with its subtree
func (s *tabService) DeleteTab(ctx context.Context, userID uuid.UUID, tabID tabs.TabID, withSubtree bool) error {
	tab, err := s.authorizedTab(ctx, userID, tabID)
	if err != nil {
		return err
	}

	removed := 1
	err = s.withTree(ctx, tab.GroupID, func(ctx context.Context, tree *tabs.TabTree) error {
		ids, err := tree.SubtreeIDs(tabID)
		if err != nil {
			return err
		}
		if withSubtree {
			removed = len(ids)
			return s.tabRepo.DeleteSubtree(ctx, tabID)
		}
		return s.tabRepo.DeleteNode(ctx, tabID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("tab deleted",
		"id", tabID,
		"group_id", tab.GroupID,
		"with_subtree", withSubtree,
		"removed", removed,
	)
	return nil
}

// MoveTab reparents a tab after cycle and depth checks
func (s *tabService) MoveTab(ctx context.Context, req *tabsvc.MoveTabRequest) (*tabs.Tab, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	tab, err := s.authorizedTab(ctx, req.UserID, req.TabID)
	if err != nil {
		return nil, err
	}

	var moved *tabs.Tab
	err = s.withTree(ctx, tab.GroupID, func(ctx context.Context, tree *tabs.TabTree) error {
		if err := tree.ValidateMove(req.TabID, req.ParentID); err != nil {
			return err
		}
		if req.WithSubtree {
			if err := tree.ValidateMoveDepthWithSubtree(req.TabID, req.ParentID); err != nil {
				return err
			}
			if err := s.tabRepo.MoveSubtree(ctx, req.TabID, req.ParentID); err != nil {
				return err
			}
		} else {
			if err := tree.ValidateMoveDepth(req.ParentID); err != nil {
				return err
			}
			if err := s.tabRepo.MoveNode(ctx, req.TabID, req.ParentID); err != nil {
				return err
			}
		}
		var err error
		moved, err = s.tabRepo.GetByID(ctx, req.TabID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tab moved",
		"id", req.TabID,
		"group_id", tab.GroupID,
		"from_parent_id", tab.ParentID,
		"to_parent_id", req.ParentID,
		"with_subtree", req.WithSubtree,
	)
	return moved, nil
}

// ReorderTab places a tab next to a sibling
func (s *tabService) ReorderTab(ctx context.Context, req *tabsvc.ReorderTabRequest) ([]tabs.TabID, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	tab, err := s.authorizedTab(ctx, req.UserID, req.TabID)
	if err != nil {
		return nil, err
	}

	var order []tabs.TabID
	err = s.withTree(ctx, tab.GroupID, func(ctx context.Context, tree *tabs.TabTree) error {
		var err error
		order, err = tree.ReorderSiblings(req.TabID, req.TargetID, req.Placement)
		if err != nil {
			return err
		}
		return s.tabRepo.Reorder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tab reordered",
		"id", req.TabID,
		"group_id", tab.GroupID,
		"target_id", req.TargetID,
		"placement", req.Placement,
	)
	return order, nil
}
