package tabs

import (
	"fmt"

	"tabnest/internal/domain"
)

// Placement selects which side of a target sibling a reordered tab lands on.
type Placement string

const (
	PlaceBefore Placement = "before"
	PlaceAfter  Placement = "after"
)

// TabTree is a read-only snapshot of one group's forest. It is rebuilt from
// storage after every write; nothing patches it in place.
type TabTree struct {
	groupID GroupID
	roots   []*TabNode
	index   map[TabID]*TabNode
}

// NewTabTree indexes every node reachable from roots. It fails when a node
// is reachable twice or sits at or beyond MaxDepth.
func NewTabTree(groupID GroupID, roots []*TabNode) (*TabTree, error) {
	t := &TabTree{
		groupID: groupID,
		roots:   make([]*TabNode, len(roots)),
		index:   make(map[TabID]*TabNode),
	}
	copy(t.roots, roots)

	var err error
	for _, root := range t.roots {
		root.walk(func(n *TabNode) bool {
			if _, seen := t.index[n.ID()]; seen {
				err = fmt.Errorf("%w: tab %d reachable more than once", ErrCorruptTree, n.ID())
				return false
			}
			if n.Depth() >= MaxDepth {
				err = fmt.Errorf("%w: tab %d at depth %d", ErrCorruptTree, n.ID(), n.Depth())
				return false
			}
			t.index[n.ID()] = n
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

// GroupID returns the owning group
func (t *TabTree) GroupID() GroupID { return t.groupID }

// Roots returns the top-level nodes in position order
func (t *TabTree) Roots() []*TabNode {
	out := make([]*TabNode, len(t.roots))
	copy(out, t.roots)
	return out
}

// Len returns the number of tabs in the tree
func (t *TabTree) Len() int { return len(t.index) }

// Node looks up a tab by id
func (t *TabTree) Node(id TabID) (*TabNode, bool) {
	n, ok := t.index[id]
	return n, ok
}

func (t *TabTree) mustNode(id TabID) (*TabNode, error) {
	n, ok := t.index[id]
	if !ok {
		return nil, domain.NewTreeError(domain.CodeNodeNotFound, "tab %d not found in group %d", id, t.groupID)
	}
	return n, nil
}

// ValidateAddChildDepth checks that a new child of parentID stays below MaxDepth.
func (t *TabTree) ValidateAddChildDepth(parentID TabID) error {
	parent, err := t.mustNode(parentID)
	if err != nil {
		return err
	}
	if parent.Depth()+1 >= MaxDepth {
		return domain.NewTreeError(domain.CodeDepthExceeded,
			"cannot add a child under tab %d: depth %d reaches the limit of %d", parentID, parent.Depth()+1, MaxDepth)
	}
	return nil
}

// ValidateMove rejects moving a tab under itself or under one of its descendants.
// A nil newParentID moves the tab to the root level.
func (t *TabTree) ValidateMove(tabID TabID, newParentID *TabID) error {
	if _, err := t.mustNode(tabID); err != nil {
		return err
	}
	if newParentID == nil {
		return nil
	}
	if tabID == *newParentID {
		return domain.NewTreeError(domain.CodeSelfParent, "tab %d cannot be its own parent", tabID)
	}
	if _, err := t.mustNode(*newParentID); err != nil {
		return err
	}
	if t.IsDescendant(tabID, *newParentID) {
		return domain.NewTreeError(domain.CodeCycleDetected,
			"cannot move tab %d under its descendant %d", tabID, *newParentID)
	}
	return nil
}

// ValidateMoveDepth applies the add-child bound to a move destination.
func (t *TabTree) ValidateMoveDepth(newParentID *TabID) error {
	if newParentID == nil {
		return nil
	}
	return t.ValidateAddChildDepth(*newParentID)
}

// ValidateMoveDepthWithSubtree checks that the deepest node of tabID's subtree
// stays below MaxDepth once re-anchored under newParentID.
func (t *TabTree) ValidateMoveDepthWithSubtree(tabID TabID, newParentID *TabID) error {
	node, err := t.mustNode(tabID)
	if err != nil {
		return err
	}
	newDepth := 0
	if newParentID != nil {
		parent, err := t.mustNode(*newParentID)
		if err != nil {
			return err
		}
		newDepth = parent.Depth() + 1
	}
	if deepest := newDepth + node.height(); deepest >= MaxDepth {
		return domain.NewTreeError(domain.CodeDepthExceeded,
			"moving tab %d would place a descendant at depth %d, limit is %d", tabID, deepest, MaxDepth)
	}
	return nil
}

// ValidateCreateDepth guards bulk inserts: requestMaxDepth is the number of
// levels in the request, currentDepth the number of levels above the
// insertion point. Unlike the single-node checks this compares with >.
func (t *TabTree) ValidateCreateDepth(requestMaxDepth, currentDepth int) error {
	if requestMaxDepth+currentDepth > MaxDepth {
		return domain.NewTreeError(domain.CodeDepthExceeded,
			"request is %d levels deep starting at level %d, limit is %d", requestMaxDepth, currentDepth, MaxDepth)
	}
	return nil
}

// NextRootPosition returns the position after the last root
func (t *TabTree) NextRootPosition() Position {
	return nextPosition(t.roots)
}

// NextChildPosition returns the position after parentID's last child
func (t *TabTree) NextChildPosition(parentID TabID) (Position, error) {
	parent, err := t.mustNode(parentID)
	if err != nil {
		return 0, err
	}
	return nextPosition(parent.children), nil
}

// FindSiblings returns the sibling set of tabID, the tab itself included.
func (t *TabTree) FindSiblings(tabID TabID) ([]*TabNode, error) {
	node, err := t.mustNode(tabID)
	if err != nil {
		return nil, err
	}
	if node.parent == nil {
		return t.Roots(), nil
	}
	return node.parent.Children(), nil
}

// IsDescendant reports whether candidateID lies in the subtree of ancestorID
// (the ancestor itself included). Unknown ancestors yield false.
func (t *TabTree) IsDescendant(ancestorID, candidateID TabID) bool {
	ancestor, ok := t.index[ancestorID]
	if !ok {
		return false
	}
	found := false
	ancestor.walk(func(n *TabNode) bool {
		if n.ID() == candidateID {
			found = true
			return false
		}
		return true
	})
	return found
}

// SubtreeHeight returns the longest child chain below tabID
func (t *TabTree) SubtreeHeight(tabID TabID) (int, error) {
	node, err := t.mustNode(tabID)
	if err != nil {
		return 0, err
	}
	return node.height(), nil
}

// SubtreeIDs lists tabID and its descendants in pre-order
func (t *TabTree) SubtreeIDs(tabID TabID) ([]TabID, error) {
	node, err := t.mustNode(tabID)
	if err != nil {
		return nil, err
	}
	var ids []TabID
	node.walk(func(n *TabNode) bool {
		ids = append(ids, n.ID())
		return true
	})
	return ids, nil
}

// ReorderSiblings computes the sibling order after placing tabID next to targetID.
func (t *TabTree) ReorderSiblings(tabID, targetID TabID, placement Placement) ([]TabID, error) {
	node, err := t.mustNode(tabID)
	if err != nil {
		return nil, err
	}
	target, err := t.mustNode(targetID)
	if err != nil {
		return nil, err
	}
	if !sameLevel(node, target) {
		return nil, domain.NewTreeError(domain.CodeSiblingLevelMismatch,
			"tabs %d and %d do not share a parent", tabID, targetID)
	}

	siblings, err := t.FindSiblings(tabID)
	if err != nil {
		return nil, err
	}
	order := make([]TabID, 0, len(siblings))
	for _, s := range siblings {
		if s.ID() != tabID {
			order = append(order, s.ID())
		}
	}

	idx := -1
	for i, id := range order {
		if id == targetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.NewTreeError(domain.CodeTargetNotFoundInSiblingSet,
			"target tab %d is not a sibling of tab %d", targetID, tabID)
	}
	if placement == PlaceAfter {
		idx++
	}

	order = append(order, 0)
	copy(order[idx+1:], order[idx:])
	order[idx] = tabID
	return order, nil
}

func sameLevel(a, b *TabNode) bool {
	if a.parent == nil || b.parent == nil {
		return a.parent == nil && b.parent == nil
	}
	return a.parent.Equal(b.parent)
}

func nextPosition(siblings []*TabNode) Position {
	if len(siblings) == 0 {
		return 0
	}
	last := siblings[0].tab.Position
	for _, s := range siblings[1:] {
		if s.tab.Position > last {
			last = s.tab.Position
		}
	}
	return last + 1
}
