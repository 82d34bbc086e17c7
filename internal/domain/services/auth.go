package services

import (
	"context"

	"github.com/google/uuid"
	"tabnest/internal/domain/models/tabs"
)

// ResourceAuthorizer checks if a user can access resources.
// Current implementation: ownership-based (user owns the tab group).
//
// Services call the authorizer before operating on resources, keeping
// authorization (who can access) apart from identification (which resource).
type ResourceAuthorizer interface {
	// CanAccessGroup checks if user can access a tab group
	CanAccessGroup(ctx context.Context, userID uuid.UUID, groupID tabs.GroupID) error

	// CanAccessTab checks if user can access a tab (via its group)
	CanAccessTab(ctx context.Context, userID uuid.UUID, tabID tabs.TabID) error
}
