package wbtree

import (
	"cmp"
	"sort"

	"SamplingDB/types"
)

func newLeaf[K cmp.Ordered, V any](capacity int) *Node[K, V] {
	return &Node[K, V]{
		nodeType: NodeLeaf,
		values:   make([]V, 0, capacity),
	}
}

func newInner[K cmp.Ordered, V any]() *Node[K, V] {
	return &Node[K, V]{nodeType: NodeInner}
}

func (n *Node[K, V]) ID() int64 { return n.id }

func (n *Node[K, V]) IsLeaf() bool { return n.nodeType == NodeLeaf }

// totalWeight is the number of values in the subtree below n.
func (n *Node[K, V]) totalWeight() uint64 {
	if n.nodeType == NodeLeaf {
		return uint64(len(n.values))
	}
	var w uint64
	for _, cw := range n.childWeights {
		w += cw
	}
	return w
}

// findChild returns the index of the child whose range contains key, or -1.
func (n *Node[K, V]) findChild(key K) int {
	i := sort.Search(len(n.ranges), func(i int) bool {
		return n.ranges[i].Locate(key) <= 0
	})
	if i == len(n.ranges) || !n.ranges[i].Contains(key) {
		return -1
	}
	return i
}

// coveredRange is the union of all child ranges.
func (n *Node[K, V]) coveredRange() types.Interval[K] {
	r := n.ranges[0]
	for _, cr := range n.ranges[1:] {
		r = r.Union(cr)
	}
	return r
}

// dropBuffer switches n to the unbuffered state.
func (n *Node[K, V]) dropBuffer() {
	n.samples = nil
	n.buffered = false
}
