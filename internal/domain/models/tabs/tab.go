package tabs

import (
	"fmt"
	"time"

	"tabnest/internal/domain"

	"github.com/google/uuid"
)

// Tab is a bookmarked link placed in a group's tree.
type Tab struct {
	ID        TabID     `json:"id"`
	GroupID   GroupID   `json:"group_id"`
	ParentID  *TabID    `json:"parent_id"` // NULL = root level
	Title     Title     `json:"title"`
	URL       URL       `json:"url"`
	Position  Position  `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTab validates raw input and builds an unpersisted tab
func NewTab(groupID GroupID, parentID *TabID, title, url string, position int, now time.Time) (*Tab, error) {
	t, err := NewTitle(title)
	if err != nil {
		return nil, err
	}
	u, err := NewURL(url)
	if err != nil {
		return nil, err
	}
	p, err := NewPosition(position)
	if err != nil {
		return nil, err
	}

	tab := &Tab{
		GroupID:   groupID,
		ParentID:  copyID(parentID),
		Title:     t,
		URL:       u,
		Position:  p,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tab.Validate(); err != nil {
		return nil, err
	}
	return tab, nil
}

// Validate checks the parent invariant: a non-root tab points at a valid, distinct parent.
func (t *Tab) Validate() error {
	if t.ParentID == nil {
		return nil
	}
	if *t.ParentID <= 0 {
		return fmt.Errorf("%w: invalid parent id %d", domain.ErrValidation, *t.ParentID)
	}
	if !t.ID.IsZero() && *t.ParentID == t.ID {
		return domain.NewTreeError(domain.CodeSelfParent, "tab %d cannot be its own parent", t.ID)
	}
	return nil
}

// IsRoot reports whether the tab sits at the top level of its group
func (t *Tab) IsRoot() bool { return t.ParentID == nil }

// WithContent returns a copy carrying a new title and url
func (t Tab) WithContent(title Title, url URL, now time.Time) Tab {
	t.Title = title
	t.URL = url
	t.UpdatedAt = now
	return t
}

// TabGroup owns one forest of tabs.
type TabGroup struct {
	ID        GroupID   `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func copyID(id *TabID) *TabID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
