package tabs

import (
	"errors"

	"tabnest/internal/domain"
)

var errNilChild = errors.New("child node is nil")

// errAlreadyAttached is returned when a node that already has a parent is added again.
var errAlreadyAttached = errors.New("node already has a parent")

// TabNode is one vertex of a group's tree. Its depth is derived from the
// parent chain and kept current when the node is attached.
type TabNode struct {
	tab      Tab
	depth    int
	parent   *TabNode
	children []*TabNode
}

// NewTabNode wraps a tab in a detached node at depth 0
func NewTabNode(tab Tab) *TabNode {
	return &TabNode{tab: tab}
}

// Tab returns a copy of the wrapped tab
func (n *TabNode) Tab() Tab { return n.tab }

// ID returns the wrapped tab's id
func (n *TabNode) ID() TabID { return n.tab.ID }

// Depth is 0 for a root and parent depth + 1 otherwise
func (n *TabNode) Depth() int { return n.depth }

// Parent returns the attached parent, or nil for a root
func (n *TabNode) Parent() *TabNode { return n.parent }

// Children returns the child nodes in sibling order
func (n *TabNode) Children() []*TabNode {
	out := make([]*TabNode, len(n.children))
	copy(out, n.children)
	return out
}

// IsLeaf reports whether the node has no children
func (n *TabNode) IsLeaf() bool { return len(n.children) == 0 }

// Equal compares nodes by tab id only.
func (n *TabNode) Equal(other *TabNode) bool {
	return other != nil && n.tab.ID == other.tab.ID
}

// AddChild attaches child under n and recomputes the depth of child's subtree.
// Adding n itself, or any ancestor of n, is rejected.
func (n *TabNode) AddChild(child *TabNode) error {
	if child == nil {
		return errNilChild
	}
	if n.Equal(child) {
		return domain.NewTreeError(domain.CodeSelfParent, "tab %d cannot contain itself", n.tab.ID)
	}
	for p := n.parent; p != nil; p = p.parent {
		if p.Equal(child) {
			return domain.NewTreeError(domain.CodeCycleDetected, "tab %d is an ancestor of tab %d", child.tab.ID, n.tab.ID)
		}
	}
	if child.parent != nil {
		return errAlreadyAttached
	}

	child.parent = n
	n.children = append(n.children, child)
	child.shiftDepth(n.depth + 1)
	return nil
}

// shiftDepth sets n's depth and propagates to the subtree below it.
func (n *TabNode) shiftDepth(depth int) {
	type item struct {
		node  *TabNode
		depth int
	}
	stack := []item{{n, depth}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		it.node.depth = it.depth
		for _, c := range it.node.children {
			stack = append(stack, item{c, it.depth + 1})
		}
	}
}

// height returns the length of the longest child chain below n (0 for a leaf).
func (n *TabNode) height() int {
	h := 0
	level := []*TabNode{n}
	for {
		var next []*TabNode
		for _, node := range level {
			next = append(next, node.children...)
		}
		if len(next) == 0 {
			return h
		}
		h++
		level = next
	}
}

// walk visits n and its descendants in pre-order until visit returns false.
func (n *TabNode) walk(visit func(*TabNode) bool) {
	stack := []*TabNode{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(node) {
			return
		}
		for i := len(node.children) - 1; i >= 0; i-- {
			stack = append(stack, node.children[i])
		}
	}
}
