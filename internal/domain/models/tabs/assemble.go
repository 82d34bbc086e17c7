package tabs

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCorruptTree reports stored rows that do not form a valid forest, for
// example a closure depth that disagrees with the parent chain.
var ErrCorruptTree = errors.New("tab tree is inconsistent")

// TabRow is a stored tab together with its depth as recorded in the closure table.
type TabRow struct {
	Tab   Tab
	Depth int
}

// Assemble rebuilds a group's tree from flat rows. Rows are processed by
// (depth, position) so every parent is linked before its children.
func Assemble(groupID GroupID, rows []TabRow) (*TabTree, error) {
	sorted := make([]TabRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Depth != sorted[j].Depth {
			return sorted[i].Depth < sorted[j].Depth
		}
		return sorted[i].Tab.Position < sorted[j].Tab.Position
	})

	// First pass: create all nodes
	nodes := make(map[TabID]*TabNode, len(sorted))
	for _, row := range sorted {
		if row.Tab.GroupID != groupID {
			return nil, fmt.Errorf("%w: tab %d belongs to group %d, not %d", ErrCorruptTree, row.Tab.ID, row.Tab.GroupID, groupID)
		}
		if _, dup := nodes[row.Tab.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate tab %d", ErrCorruptTree, row.Tab.ID)
		}
		nodes[row.Tab.ID] = NewTabNode(row.Tab)
	}

	// Second pass: link children to parents
	var roots []*TabNode
	for _, row := range sorted {
		node := nodes[row.Tab.ID]
		if row.Tab.IsRoot() {
			roots = append(roots, node)
		} else {
			parent, ok := nodes[*row.Tab.ParentID]
			if !ok {
				return nil, fmt.Errorf("%w: tab %d references missing parent %d", ErrCorruptTree, row.Tab.ID, *row.Tab.ParentID)
			}
			if err := parent.AddChild(node); err != nil {
				return nil, fmt.Errorf("%w: link tab %d: %v", ErrCorruptTree, row.Tab.ID, err)
			}
		}
		if node.Depth() != row.Depth {
			return nil, fmt.Errorf("%w: tab %d has closure depth %d but parent chain depth %d",
				ErrCorruptTree, row.Tab.ID, row.Depth, node.Depth())
		}
	}

	tree, err := NewTabTree(groupID, roots)
	if err != nil {
		return nil, err
	}
	if tree.Len() != len(nodes) {
		return nil, fmt.Errorf("%w: %d of %d tabs unreachable from a root", ErrCorruptTree, len(nodes)-tree.Len(), len(nodes))
	}
	return tree, nil
}
