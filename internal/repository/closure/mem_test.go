package closure

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tabnest/internal/domain"
	"tabnest/internal/domain/models/tabs"
)

type pathKey struct{ ancestor, descendant tabs.TabID }

// memStore is an in-memory PathStore that enforces the same keys the SQL
// schemas do: unique paths, and no tab deleted while it still has children
// or paths.
type memStore struct {
	lastID  tabs.TabID
	tabs    map[tabs.TabID]*tabs.Tab
	paths   map[pathKey]int
	updates []map[tabs.TabID]tabs.Position
}

func newMemStore() *memStore {
	return &memStore{
		tabs:  make(map[tabs.TabID]*tabs.Tab),
		paths: make(map[pathKey]int),
	}
}

func (s *memStore) GetTab(_ context.Context, id tabs.TabID) (*tabs.Tab, error) {
	t, ok := s.tabs[id]
	if !ok {
		return nil, fmt.Errorf("tab %d: %w", id, domain.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) InsertTab(_ context.Context, tab *tabs.Tab) error {
	if tab.ParentID != nil {
		if _, ok := s.tabs[*tab.ParentID]; !ok {
			return fmt.Errorf("parent %d missing", *tab.ParentID)
		}
	}
	s.lastID++
	tab.ID = s.lastID
	cp := *tab
	s.tabs[tab.ID] = &cp
	return nil
}

func (s *memStore) DeleteTabs(_ context.Context, ids []tabs.TabID) error {
	gone := make(map[tabs.TabID]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	for id, t := range s.tabs {
		if !gone[id] && t.ParentID != nil && gone[*t.ParentID] {
			return fmt.Errorf("tab %d still references deleted parent %d", id, *t.ParentID)
		}
	}
	for k := range s.paths {
		if gone[k.ancestor] || gone[k.descendant] {
			return fmt.Errorf("path (%d,%d) still references a deleted tab", k.ancestor, k.descendant)
		}
	}
	for id := range gone {
		delete(s.tabs, id)
	}
	return nil
}

func (s *memStore) Relink(_ context.Context, links []Link, at time.Time) error {
	for _, l := range links {
		t, ok := s.tabs[l.ID]
		if !ok {
			return fmt.Errorf("relink missing tab %d", l.ID)
		}
		t.ParentID = l.ParentID
		t.Position = l.Position
		t.UpdatedAt = at
	}
	return nil
}

func (s *memStore) Positions(_ context.Context, ids []tabs.TabID) (map[tabs.TabID]tabs.Position, error) {
	out := make(map[tabs.TabID]tabs.Position, len(ids))
	for _, id := range ids {
		if t, ok := s.tabs[id]; ok {
			out[id] = t.Position
		}
	}
	return out, nil
}

func (s *memStore) UpdatePositions(_ context.Context, positions map[tabs.TabID]tabs.Position, at time.Time) error {
	s.updates = append(s.updates, positions)
	for id, pos := range positions {
		s.tabs[id].Position = pos
		s.tabs[id].UpdatedAt = at
	}
	return nil
}

func (s *memStore) NextPosition(_ context.Context, groupID tabs.GroupID, parentID *tabs.TabID) (tabs.Position, error) {
	next := tabs.Position(0)
	for _, t := range s.tabs {
		if t.GroupID == groupID && sameParent(t.ParentID, parentID) && t.Position >= next {
			next = t.Position + 1
		}
	}
	return next, nil
}

func sameParent(a, b *tabs.TabID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *memStore) AncestorPaths(_ context.Context, id tabs.TabID) ([]Path, error) {
	var out []Path
	for k, d := range s.paths {
		if k.descendant == id {
			out = append(out, Path{AncestorID: k.ancestor, DescendantID: id, Depth: d})
		}
	}
	sortPaths(out)
	return out, nil
}

func (s *memStore) DescendantPaths(_ context.Context, id tabs.TabID) ([]Path, error) {
	var out []Path
	for k, d := range s.paths {
		if k.ancestor == id {
			out = append(out, Path{AncestorID: id, DescendantID: k.descendant, Depth: d})
		}
	}
	sortPaths(out)
	return out, nil
}

func (s *memStore) InsertPaths(_ context.Context, paths []Path) error {
	for _, p := range paths {
		k := pathKey{p.AncestorID, p.DescendantID}
		if _, dup := s.paths[k]; dup {
			return fmt.Errorf("duplicate path (%d,%d)", p.AncestorID, p.DescendantID)
		}
		s.paths[k] = p.Depth
	}
	return nil
}

func (s *memStore) DeletePaths(_ context.Context, ancestorIDs, descendantIDs []tabs.TabID) error {
	for _, a := range ancestorIDs {
		for _, d := range descendantIDs {
			delete(s.paths, pathKey{a, d})
		}
	}
	return nil
}

func sortPaths(paths []Path) {
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Depth != paths[j].Depth {
			return paths[i].Depth < paths[j].Depth
		}
		if paths[i].AncestorID != paths[j].AncestorID {
			return paths[i].AncestorID < paths[j].AncestorID
		}
		return paths[i].DescendantID < paths[j].DescendantID
	})
}

// expectedPaths derives the closure table from parent pointers alone.
func (s *memStore) expectedPaths() (map[pathKey]int, error) {
	want := make(map[pathKey]int)
	for id := range s.tabs {
		depth := 0
		cur := id
		want[pathKey{id, id}] = 0
		for s.tabs[cur].ParentID != nil {
			cur = *s.tabs[cur].ParentID
			depth++
			if _, ok := s.tabs[cur]; !ok {
				return nil, fmt.Errorf("tab %d has a missing ancestor %d", id, cur)
			}
			if depth > len(s.tabs) {
				return nil, fmt.Errorf("cycle through tab %d", id)
			}
			want[pathKey{cur, id}] = depth
		}
	}
	return want, nil
}

// tree assembles the stored rows the same way the SQL read path does:
// depth is the deepest closure row pointing at the tab.
func (s *memStore) tree(groupID tabs.GroupID) (*tabs.TabTree, error) {
	depths := make(map[tabs.TabID]int)
	for k, d := range s.paths {
		if d > depths[k.descendant] {
			depths[k.descendant] = d
		}
	}
	var rows []tabs.TabRow
	for id, t := range s.tabs {
		if t.GroupID == groupID {
			rows = append(rows, tabs.TabRow{Tab: *t, Depth: depths[id]})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Tab.ID < rows[j].Tab.ID })
	return tabs.Assemble(groupID, rows)
}
