// Package seed loads sample tab groups through the services, so seeded
// trees go through the same validation and closure maintenance as the API.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	tabsvc "tabnest/internal/domain/services/tabs"
)

//go:embed fixture.yaml
var defaultFixture []byte

// Fixture is the YAML shape of a seed file
type Fixture struct {
	Groups []GroupFixture `yaml:"groups"`
}

// GroupFixture is one tab group and its tree
type GroupFixture struct {
	Name string       `yaml:"name"`
	Tabs []TabFixture `yaml:"tabs"`
}

// TabFixture is one tab with its children
type TabFixture struct {
	Title    string       `yaml:"title"`
	URL      string       `yaml:"url"`
	Children []TabFixture `yaml:"children"`
}

// ParseFixture decodes a YAML seed file
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal fixture: %w", err)
	}
	if len(f.Groups) == 0 {
		return nil, fmt.Errorf("fixture has no groups")
	}
	return &f, nil
}

// DefaultFixture returns the embedded sample fixture
func DefaultFixture() (*Fixture, error) {
	return ParseFixture(defaultFixture)
}

// Result summarizes one seeded group
type Result struct {
	GroupID string
	Name    string
	Tabs    int
}

// Seeder creates fixture groups through the services
type Seeder struct {
	groups tabsvc.GroupService
	tabs   tabsvc.TabService
	logger *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(groups tabsvc.GroupService, tabs tabsvc.TabService, logger *slog.Logger) *Seeder {
	return &Seeder{groups: groups, tabs: tabs, logger: logger}
}

// Seed creates every fixture group owned by ownerID. Each group's tree is
// written by one bulk create, so a group is either fully seeded or absent.
func (s *Seeder) Seed(ctx context.Context, ownerID uuid.UUID, fixture *Fixture) ([]Result, error) {
	results := make([]Result, 0, len(fixture.Groups))
	for _, g := range fixture.Groups {
		group, err := s.groups.CreateGroup(ctx, &tabsvc.CreateGroupRequest{UserID: ownerID, Name: g.Name})
		if err != nil {
			return results, fmt.Errorf("create group %q: %w", g.Name, err)
		}

		created := 0
		if len(g.Tabs) > 0 {
			tabs, err := s.tabs.CreateTabs(ctx, &tabsvc.CreateTabsRequest{
				UserID:  ownerID,
				GroupID: group.ID,
				Tabs:    toSpecs(g.Tabs),
			})
			if err != nil {
				return results, fmt.Errorf("seed tabs for group %q: %w", g.Name, err)
			}
			created = len(tabs)
		}

		s.logger.Info("seeded group", "group_id", group.ID, "name", group.Name, "tabs", created)
		results = append(results, Result{GroupID: group.ID.String(), Name: group.Name, Tabs: created})
	}
	return results, nil
}

func toSpecs(in []TabFixture) []tabsvc.TabSpec {
	out := make([]tabsvc.TabSpec, len(in))
	for i, t := range in {
		out[i] = tabsvc.TabSpec{Title: t.Title, URL: t.URL, Children: toSpecs(t.Children)}
	}
	return out
}
