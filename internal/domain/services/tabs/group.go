package tabs

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"tabnest/internal/config"
	"tabnest/internal/domain/models/tabs"
)

// GroupService handles tab group business logic
type GroupService interface {
	CreateGroup(ctx context.Context, req *CreateGroupRequest) (*tabs.TabGroup, error)
	GetGroup(ctx context.Context, userID uuid.UUID, groupID tabs.GroupID) (*tabs.TabGroup, error)
	ListGroups(ctx context.Context, userID uuid.UUID) ([]tabs.TabGroup, error)
}

// CreateGroupRequest represents a group creation request
type CreateGroupRequest struct {
	UserID uuid.UUID `json:"-"` // From auth context
	Name   string    `json:"name"`
}

// Validate normalizes and checks the request
func (r *CreateGroupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, requiredUser),
		validation.Field(&r.Name,
			validation.Required.Error("name cannot be blank"),
			validation.RuneLength(1, config.MaxGroupNameLength),
		),
	)
}
