package calc

import "github.com/matzehuels/factoryflow/pkg/item"

const noParent = -1

// Node is one demand step of an expansion: the gross amount of an item
// requested by its parent (or by the user, for roots).
type Node struct {
	Amount   item.Amount
	Depth    int
	Parent   int   // index into Tree.Nodes, -1 for roots
	Children []int // indices into Tree.Nodes, in ingredient order
}

// Tree is an arena of expansion nodes built during [Engine.Expand].
// Nodes are appended in depth-first pre-order, so iterating Nodes visits a
// parent before its children.
type Tree struct {
	Nodes []Node
	Roots []int
}

func (t *Tree) addRoot(a item.Amount) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Amount: a, Parent: noParent})
	t.Roots = append(t.Roots, idx)
	return idx
}

func (t *Tree) addChild(parent int, a item.Amount, depth int) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Amount: a, Depth: depth, Parent: parent})
	t.Nodes[parent].Children = append(t.Nodes[parent].Children, idx)
	return idx
}

// Walk visits the subtree under each root in pre-order. fn returns false to
// skip a node's children.
func (t *Tree) Walk(fn func(idx int, n Node) bool) {
	var visit func(idx int)
	visit = func(idx int) {
		n := t.Nodes[idx]
		if !fn(idx, n) {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, r := range t.Roots {
		visit(r)
	}
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Nodes)
}
