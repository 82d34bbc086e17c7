package tabs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"tabnest/internal/domain/models/tabs"
	tabrepo "tabnest/internal/domain/repositories/tabs"
	"tabnest/internal/domain/services"
	tabsvc "tabnest/internal/domain/services/tabs"
)

type groupService struct {
	groupRepo  tabrepo.GroupRepository
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
}

// NewGroupService creates a new group service
func NewGroupService(
	groupRepo tabrepo.GroupRepository,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) tabsvc.GroupService {
	return &groupService{
		groupRepo:  groupRepo,
		authorizer: authorizer,
		logger:     logger,
	}
}

// CreateGroup creates a new tab group owned by the caller
func (s *groupService) CreateGroup(ctx context.Context, req *tabsvc.CreateGroupRequest) (*tabs.TabGroup, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	group := &tabs.TabGroup{
		OwnerID:   req.UserID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	s.logger.Info("tab group created",
		"group_id", group.ID,
		"owner_id", group.OwnerID,
		"name", group.Name,
	)
	return group, nil
}

// GetGroup retrieves a group the caller owns
func (s *groupService) GetGroup(ctx context.Context, userID uuid.UUID, groupID tabs.GroupID) (*tabs.TabGroup, error) {
	if err := s.authorizer.CanAccessGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.groupRepo.GetByID(ctx, groupID)
}

// ListGroups lists the caller's groups
func (s *groupService) ListGroups(ctx context.Context, userID uuid.UUID) ([]tabs.TabGroup, error) {
	return s.groupRepo.ListByOwner(ctx, userID)
}
