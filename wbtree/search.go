package wbtree

import (
	"slices"

	"SamplingDB/types"
)

// Get returns every value stored under key, in insertion order.
func (t *Tree[K, V]) Get(key K) ([]V, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == 0 || !t.universe.Contains(key) {
		return nil, nil
	}

	leaf, err := t.findLeaf(key)
	if err != nil {
		return nil, err
	}
	lo := lowerBound(leaf.values, key, t.keyOf)
	hi := upperBound(leaf.values, key, t.keyOf)
	if lo == hi {
		return nil, nil
	}
	return slices.Clone(leaf.values[lo:hi]), nil
}

// findLeaf descends from the root to the leaf whose range holds key.
func (t *Tree[K, V]) findLeaf(key K) (*Node[K, V], error) {
	id := t.root
	for level := t.height; ; level-- {
		node, err := t.pool.Get(id, false)
		if err != nil {
			return nil, err
		}
		if node.nodeType == NodeLeaf {
			if level != 0 {
				invariantf("leaf %d found at level %d", id, level)
			}
			return node, nil
		}
		pos := node.findChild(key)
		if pos < 0 {
			invariantf("no child of node %d covers key %v", node.id, key)
		}
		id = node.children[pos]
	}
}

// CountRange returns the exact number of values whose key lies in q.
// Children whose range lies inside q are counted from their stored weight
// without being read.
func (t *Tree[K, V]) CountRange(q types.Interval[K]) (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == 0 || q.IsEmpty() {
		return 0, nil
	}
	return t.countRange(t.root, q)
}

func (t *Tree[K, V]) countRange(id int64, q types.Interval[K]) (uint64, error) {
	node, err := t.pool.Get(id, false)
	if err != nil {
		return 0, err
	}
	if node.nodeType == NodeLeaf {
		var n uint64
		for _, v := range node.values {
			if q.Contains(t.keyOf(v)) {
				n++
			}
		}
		return n, nil
	}

	var total uint64
	for i, r := range node.ranges {
		switch {
		case q.ContainsInterval(r):
			total += node.childWeights[i]
		case q.Intersects(r):
			n, err := t.countRange(node.children[i], q)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}
