package wbtree

import (
	"cmp"
	"errors"

	"SamplingDB/types"
)

// Iterator is an exact range cursor. It yields every value whose key lies
// in the query, in key order. The nodes on its current root-to-leaf path
// stay pinned until the iterator is exhausted or closed.
type Iterator[K cmp.Ordered, V any] struct {
	tree    *Tree[K, V]
	query   types.Interval[K]
	stack   []frame[K, V]
	cur     V
	opened  bool
	done    bool
	err     error
	profile *Profile
}

// frame is one pinned node on the path. For inner nodes index is the child
// currently descended into, for leaves it is the next value to look at.
type frame[K cmp.Ordered, V any] struct {
	node  *Node[K, V]
	level int
	index int
}

// RangeQuery returns an iterator over all values with keys in q. Nothing is
// read until the first call to Next.
func (t *Tree[K, V]) RangeQuery(q types.Interval[K]) *Iterator[K, V] {
	return &Iterator[K, V]{tree: t, query: q, profile: newProfile()}
}

// Next advances the iterator. Returns false when exhausted or on error.
func (it *Iterator[K, V]) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	it.tree.mu.RLock()
	defer it.tree.mu.RUnlock()

	if !it.opened {
		it.opened = true
		if it.tree.root == 0 || it.query.IsEmpty() {
			it.finish()
			return false
		}
		ok, err := it.descend(it.tree.root, it.tree.height)
		if err != nil || !ok {
			it.stop(err)
			return false
		}
	}

	for {
		leaf := &it.stack[len(it.stack)-1]
		if leaf.index < len(leaf.node.values) {
			v := leaf.node.values[leaf.index]
			leaf.index++
			switch it.query.Locate(it.tree.keyOf(v)) {
			case 0:
				it.cur = v
				return true
			case 1:
				it.finish()
				return false
			}
			continue
		}
		ok, err := it.nextLeaf()
		if err != nil || !ok {
			it.stop(err)
			return false
		}
	}
}

// descend pins the path from id down to a leaf, always taking the first
// child that intersects the query. It reports false if no child does.
func (it *Iterator[K, V]) descend(id int64, level int) (bool, error) {
	for {
		node, err := it.tree.pool.Get(id, true)
		if err != nil {
			return false, err
		}
		it.stack = append(it.stack, frame[K, V]{node: node, level: level})
		it.profile.touch(level, id)

		top := &it.stack[len(it.stack)-1]
		if node.nodeType == NodeLeaf {
			if it.query.LoIn {
				top.index = lowerBound(node.values, it.query.Lo, it.tree.keyOf)
			} else {
				top.index = upperBound(node.values, it.query.Lo, it.tree.keyOf)
			}
			return true, nil
		}

		pos := -1
		for i, r := range node.ranges {
			if r.Intersects(it.query) {
				pos = i
				break
			}
		}
		if pos < 0 {
			return false, nil
		}
		top.index = pos
		id, level = node.children[pos], level-1
	}
}

// nextLeaf pops finished nodes and descends into the nearest right sibling
// that still intersects the query.
func (it *Iterator[K, V]) nextLeaf() (bool, error) {
	if err := it.pop(); err != nil {
		return false, err
	}
	for len(it.stack) > 0 {
		parent := &it.stack[len(it.stack)-1]
		parent.index++
		if parent.index < len(parent.node.children) {
			if !parent.node.ranges[parent.index].Intersects(it.query) {
				return false, nil
			}
			return it.descend(parent.node.children[parent.index], parent.level-1)
		}
		if err := it.pop(); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (it *Iterator[K, V]) pop() error {
	top := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	return it.tree.pool.Unpin(top.node.id)
}

func (it *Iterator[K, V]) finish() { it.stop(nil) }

func (it *Iterator[K, V]) stop(err error) {
	if cerr := it.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	it.err = err
}

// Value returns the current value.
func (it *Iterator[K, V]) Value() V { return it.cur }

func (it *Iterator[K, V]) Err() error { return it.err }

func (it *Iterator[K, V]) Profile() *Profile { return it.profile }

// Close unpins every node the iterator still holds. It is safe to call more
// than once.
func (it *Iterator[K, V]) Close() error {
	it.done = true
	ids := make([]int64, 0, len(it.stack))
	for _, f := range it.stack {
		ids = append(ids, f.node.id)
	}
	it.stack = nil
	return it.tree.pool.UnpinAll(ids)
}
