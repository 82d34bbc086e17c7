package tabs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"tabnest/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// MaxDepth bounds tree nesting: every node depth is strictly below it.
	MaxDepth = 10

	// MaxTitleLength is the maximum number of characters in a tab title.
	MaxTitleLength = 50
)

var urlPattern = regexp.MustCompile(`^https?://.+`)

// TabID identifies a persisted tab. The zero value means "not persisted yet".
type TabID int64

// ParseTabID parses a decimal tab id from a path segment or query value
func ParseTabID(s string) (TabID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: invalid tab id %q", domain.ErrValidation, s)
	}
	return TabID(v), nil
}

func (id TabID) String() string { return strconv.FormatInt(int64(id), 10) }

// IsZero reports whether the id has not been assigned by storage
func (id TabID) IsZero() bool { return id == 0 }

// Ptr returns a pointer to a copy of id, for optional parent references
func (id TabID) Ptr() *TabID { return &id }

// GroupID identifies a tab group.
type GroupID int64

// ParseGroupID parses a decimal group id
func ParseGroupID(s string) (GroupID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: invalid group id %q", domain.ErrValidation, s)
	}
	return GroupID(v), nil
}

func (id GroupID) String() string { return strconv.FormatInt(int64(id), 10) }

// Position orders a tab among its siblings.
type Position int

// NewPosition validates a sibling position
func NewPosition(v int) (Position, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: position must be non-negative, got %d", domain.ErrValidation, v)
	}
	return Position(v), nil
}

// Title is a tab's display title: non-blank, at most MaxTitleLength characters.
type Title string

// NewTitle trims and validates a title
func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)
	err := validation.Validate(s,
		validation.Required.Error("title cannot be blank"),
		validation.RuneLength(1, MaxTitleLength).Error(fmt.Sprintf("title must be at most %d characters", MaxTitleLength)),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return Title(s), nil
}

func (t Title) String() string { return string(t) }

// Len returns the title length in characters
func (t Title) Len() int { return utf8.RuneCountInString(string(t)) }

// URL is a tab's link target, restricted to http and https.
type URL string

// NewURL trims and validates a link
func NewURL(s string) (URL, error) {
	s = strings.TrimSpace(s)
	err := validation.Validate(s,
		validation.Required.Error("url cannot be blank"),
		validation.Match(urlPattern).Error("url must start with http:// or https://"),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return URL(s), nil
}

func (u URL) String() string { return string(u) }
