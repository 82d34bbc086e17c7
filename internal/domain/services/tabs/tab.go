package tabs

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"tabnest/internal/config"
	"tabnest/internal/domain/models/tabs"
)

// TabService handles structural and content edits to a group's tab tree.
// Every structural command validates against a freshly loaded tree and
// writes inside one transaction.
type TabService interface {
	// GetTree returns the group's nested tree
	GetTree(ctx context.Context, userID uuid.UUID, groupID tabs.GroupID) (*tabs.TreeView, error)

	// CreateTab appends a tab at the root level or under ParentID
	CreateTab(ctx context.Context, req *CreateTabRequest) (*tabs.Tab, error)

	// CreateTabs creates a nested batch of tabs in one transaction
	CreateTabs(ctx context.Context, req *CreateTabsRequest) ([]tabs.Tab, error)

	// UpdateTab renames a tab or changes its url
	UpdateTab(ctx context.Context, req *UpdateTabRequest) (*tabs.Tab, error)

	// DeleteTab removes a tab; without subtree its children move up to its parent
	DeleteTab(ctx context.Context, userID uuid.UUID, tabID tabs.TabID, withSubtree bool) error

	// MoveTab reparents a tab, alone or with its subtree
	MoveTab(ctx context.Context, req *MoveTabRequest) (*tabs.Tab, error)

	// ReorderTab places a tab before or after one of its siblings and
	// returns the new sibling order
	ReorderTab(ctx context.Context, req *ReorderTabRequest) ([]tabs.TabID, error)
}

// CreateTabRequest represents a single tab creation request
type CreateTabRequest struct {
	UserID   uuid.UUID    `json:"-"`
	GroupID  tabs.GroupID `json:"-"`
	ParentID *tabs.TabID  `json:"parent_id,omitempty"` // null for root
	Title    string       `json:"title"`
	URL      string       `json:"url"`
}

// Validate checks the request; title and url rules live on the value objects
func (r *CreateTabRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, requiredUser),
		validation.Field(&r.GroupID, validation.Required),
		validation.Field(&r.ParentID, validation.NilOrNotEmpty),
	)
}

// TabSpec is one node of a bulk creation request
type TabSpec struct {
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Children []TabSpec `json:"children,omitempty"`
}

// CreateTabsRequest represents a nested bulk creation request
type CreateTabsRequest struct {
	UserID   uuid.UUID    `json:"-"`
	GroupID  tabs.GroupID `json:"-"`
	ParentID *tabs.TabID  `json:"parent_id,omitempty"`
	Tabs     []TabSpec    `json:"tabs"`
}

// Validate checks the request shape; depth is checked against the tree later
func (r *CreateTabsRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.UserID, requiredUser),
		validation.Field(&r.GroupID, validation.Required),
		validation.Field(&r.ParentID, validation.NilOrNotEmpty),
		validation.Field(&r.Tabs, validation.Required.Error("at least one tab is required")),
	)
	if err != nil {
		return err
	}
	if n := CountSpecs(r.Tabs); n > config.MaxBulkTabs {
		return validation.Errors{"tabs": fmt.Errorf("at most %d tabs per request, got %d", config.MaxBulkTabs, n)}
	}
	return nil
}

// CountSpecs counts every node in a spec forest
func CountSpecs(specs []TabSpec) int {
	n := 0
	stack := append([]TabSpec(nil), specs...)
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		stack = append(stack, s.Children...)
	}
	return n
}

// SpecLevels returns the number of levels in a spec forest (1 for a flat list)
func SpecLevels(specs []TabSpec) int {
	levels := 0
	for level := specs; len(level) > 0; levels++ {
		var next []TabSpec
		for _, s := range level {
			next = append(next, s.Children...)
		}
		level = next
	}
	return levels
}

// UpdateTabRequest represents a content update; nil fields are left unchanged
type UpdateTabRequest struct {
	UserID uuid.UUID  `json:"-"`
	TabID  tabs.TabID `json:"-"`
	Title  *string    `json:"title,omitempty"`
	URL    *string    `json:"url,omitempty"`
}

// Validate requires at least one field to change
func (r *UpdateTabRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, requiredUser),
		validation.Field(&r.TabID, validation.Required),
		validation.Field(&r.Title, validation.Required.When(r.URL == nil).Error("title or url is required")),
	)
}

// MoveTabRequest represents a reparent request
type MoveTabRequest struct {
	UserID      uuid.UUID   `json:"-"`
	TabID       tabs.TabID  `json:"-"`
	ParentID    *tabs.TabID `json:"parent_id"` // null moves to the root level
	WithSubtree bool        `json:"with_subtree"`
}

// Validate checks the request
func (r *MoveTabRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, requiredUser),
		validation.Field(&r.TabID, validation.Required),
		validation.Field(&r.ParentID, validation.NilOrNotEmpty),
	)
}

// ReorderTabRequest places TabID next to its sibling TargetID
type ReorderTabRequest struct {
	UserID    uuid.UUID      `json:"-"`
	TabID     tabs.TabID     `json:"-"`
	TargetID  tabs.TabID     `json:"target_id"`
	Placement tabs.Placement `json:"placement"`
}

// Validate checks the request
func (r *ReorderTabRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, requiredUser),
		validation.Field(&r.TabID, validation.Required),
		validation.Field(&r.TargetID, validation.Required),
		validation.Field(&r.Placement,
			validation.Required,
			validation.In(tabs.PlaceBefore, tabs.PlaceAfter).Error("must be before or after"),
		),
	)
}
