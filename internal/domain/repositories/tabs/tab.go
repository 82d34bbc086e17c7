package tabs

import (
	"context"

	"tabnest/internal/domain/models/tabs"
)

// TabRepository persists tabs and maintains the closure table.
// Every structural method must run inside a TransactionManager.ExecTx so
// the tabs rows and the path rows change atomically.
type TabRepository interface {
	// LoadTree rebuilds the group's tree from the closure table.
	LoadTree(ctx context.Context, groupID tabs.GroupID) (*tabs.TabTree, error)
	GetByID(ctx context.Context, id tabs.TabID) (*tabs.Tab, error)

	// InsertRoot stores a tab without a parent and assigns tab.ID.
	InsertRoot(ctx context.Context, tab *tabs.Tab) error
	// InsertChild stores a tab under tab.ParentID and assigns tab.ID.
	InsertChild(ctx context.Context, tab *tabs.Tab) error
	UpdateContent(ctx context.Context, tab *tabs.Tab) error

	// DeleteNode removes one tab; its children move up to its parent.
	DeleteNode(ctx context.Context, id tabs.TabID) error
	// DeleteSubtree removes a tab and all of its descendants.
	DeleteSubtree(ctx context.Context, id tabs.TabID) error

	// MoveNode moves one tab under parentID (nil = root); its children
	// stay behind under the tab's old parent.
	MoveNode(ctx context.Context, id tabs.TabID, parentID *tabs.TabID) error
	// MoveSubtree moves a tab together with its descendants.
	MoveSubtree(ctx context.Context, id tabs.TabID, parentID *tabs.TabID) error

	// Reorder assigns positions 0..n-1 to order, which must be one sibling set.
	Reorder(ctx context.Context, order []tabs.TabID) error
}
