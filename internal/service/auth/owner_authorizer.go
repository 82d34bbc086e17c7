package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"tabnest/internal/domain"
	"tabnest/internal/domain/models/tabs"
	tabrepo "tabnest/internal/domain/repositories/tabs"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can access a tab if they own the group that contains it.
type OwnerBasedAuthorizer struct {
	groupRepo tabrepo.GroupRepository
	tabRepo   tabrepo.TabRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(groupRepo tabrepo.GroupRepository, tabRepo tabrepo.TabRepository) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{
		groupRepo: groupRepo,
		tabRepo:   tabRepo,
	}
}

// CanAccessGroup checks if user owns the group
func (a *OwnerBasedAuthorizer) CanAccessGroup(ctx context.Context, userID uuid.UUID, groupID tabs.GroupID) error {
	group, err := a.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != userID {
		return fmt.Errorf("access denied to tab group %d: %w", groupID, domain.ErrForbidden)
	}
	return nil
}

// CanAccessTab checks if user can access a tab (via its group)
func (a *OwnerBasedAuthorizer) CanAccessTab(ctx context.Context, userID uuid.UUID, tabID tabs.TabID) error {
	tab, err := a.tabRepo.GetByID(ctx, tabID)
	if err != nil {
		return fmt.Errorf("get tab for auth: %w", err)
	}
	return a.CanAccessGroup(ctx, userID, tab.GroupID)
}
