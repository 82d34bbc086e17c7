package tabs

import "time"

// TreeView is the JSON shape of a group's tree
type TreeView struct {
	GroupID GroupID        `json:"group_id"`
	Count   int            `json:"count"`
	Tabs    []*TabNodeView `json:"tabs"`
}

// TabNodeView represents a tab in the tree with nested children
type TabNodeView struct {
	ID        TabID          `json:"id"`
	ParentID  *TabID         `json:"parent_id"`
	Title     Title          `json:"title"`
	URL       URL            `json:"url"`
	Position  Position       `json:"position"`
	Depth     int            `json:"depth"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Children  []*TabNodeView `json:"children"` // Pointers for proper nesting
}

// View projects the tree into its JSON shape
func (t *TabTree) View() *TreeView {
	views := make(map[TabID]*TabNodeView, len(t.index))
	out := &TreeView{
		GroupID: t.groupID,
		Count:   len(t.index),
		Tabs:    make([]*TabNodeView, 0, len(t.roots)),
	}
	for _, root := range t.roots {
		root.walk(func(n *TabNode) bool {
			v := newNodeView(n)
			views[n.ID()] = v
			if n.parent == nil {
				out.Tabs = append(out.Tabs, v)
			} else {
				parent := views[n.parent.ID()]
				parent.Children = append(parent.Children, v)
			}
			return true
		})
	}
	return out
}

func newNodeView(n *TabNode) *TabNodeView {
	return &TabNodeView{
		ID:        n.tab.ID,
		ParentID:  n.tab.ParentID,
		Title:     n.tab.Title,
		URL:       n.tab.URL,
		Position:  n.tab.Position,
		Depth:     n.depth,
		CreatedAt: n.tab.CreatedAt,
		UpdatedAt: n.tab.UpdatedAt,
		Children:  []*TabNodeView{},
	}
}
