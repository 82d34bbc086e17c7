package tabs

import (
	"context"

	"tabnest/internal/domain/models/tabs"

	"github.com/google/uuid"
)

// GroupRepository defines data access for tab groups
type GroupRepository interface {
	Create(ctx context.Context, group *tabs.TabGroup) error
	GetByID(ctx context.Context, id tabs.GroupID) (*tabs.TabGroup, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]tabs.TabGroup, error)
	TreeLocker
}

// TreeLocker serializes structural edits to one group's tree for the rest
// of the current transaction. Returns domain.ErrNotFound for unknown groups.
type TreeLocker interface {
	LockGroup(ctx context.Context, id tabs.GroupID) error
}
