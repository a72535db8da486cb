package wbtree

import (
	"fmt"
	"slices"

	"SamplingDB/types"
)

// insertionInfo is what a subtree reports to its parent after an insert:
// either its new weight, or the two halves it split into.
type insertionInfo[K any] struct {
	split     bool
	newWeight uint64

	newID       int64 // right half; the left half keeps the old id
	separator   K     // largest key of the left half
	weightLeft  uint64
	weightRight uint64
}

// Insert adds value under its key. Duplicate keys are kept.
func (t *Tree[K, V]) Insert(value V) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg.ReadOnly {
		return ErrReadOnly
	}
	key := t.keyOf(value)
	if !t.universe.Contains(key) {
		return fmt.Errorf("%w: %v not in %s", ErrKeyOutsideUniverse, key, t.universe)
	}

	if t.root == 0 {
		root := newLeaf[K, V](t.leafHi + 1)
		root.values = append(root.values, value)
		id, err := t.pool.Insert(root)
		if err != nil {
			return fmt.Errorf("failed to store root leaf: %w", err)
		}
		t.root, t.height, t.weight = id, 0, 1
		return t.saveMeta()
	}

	info, err := t.insertAt(t.root, value, t.height)
	if err != nil {
		return err
	}
	t.weight++
	if info.split {
		return t.growRoot(info)
	}
	return nil
}

func (t *Tree[K, V]) insertAt(id int64, value V, level int) (insertionInfo[K], error) {
	node, err := t.pool.Get(id, true)
	if err != nil {
		return insertionInfo[K]{}, err
	}
	defer t.pool.Unpin(id)

	if node.nodeType == NodeLeaf {
		return t.insertLeaf(node, value)
	}
	return t.insertInner(node, value, level)
}

func (t *Tree[K, V]) insertLeaf(leaf *Node[K, V], value V) (insertionInfo[K], error) {
	key := t.keyOf(value)
	lo := lowerBound(leaf.values, key, t.keyOf)
	hi := upperBound(leaf.values, key, t.keyOf)
	if hi-lo >= t.cfg.MaxDuplicates {
		return insertionInfo[K]{}, fmt.Errorf("%w: key %v already has %d values", ErrDuplicateOverflow, key, hi-lo)
	}

	// after the existing duplicates
	leaf.values = slices.Insert(leaf.values, hi, value)

	info, err := t.storeLeaf(leaf)
	if err != nil {
		// leaf is the cached node, it must not keep a value the tree
		// does not count
		leaf.values = slices.Delete(leaf.values, hi, hi+1)
		return insertionInfo[K]{}, err
	}
	return info, nil
}

// storeLeaf writes a grown leaf back, splitting it first if it overflows.
// On error the leaf holds the same values as before the call.
func (t *Tree[K, V]) storeLeaf(leaf *Node[K, V]) (insertionInfo[K], error) {
	if len(leaf.values) > t.leafHi {
		info, ok, err := t.splitLeaf(leaf)
		if err != nil || ok {
			return info, err
		}
	}
	if err := t.pool.Update(leaf.id, leaf); err != nil {
		return insertionInfo[K]{}, err
	}
	return insertionInfo[K]{newWeight: uint64(len(leaf.values))}, nil
}

func (t *Tree[K, V]) insertInner(node *Node[K, V], value V, level int) (insertionInfo[K], error) {
	key := t.keyOf(value)
	pos := node.findChild(key)
	if pos < 0 {
		invariantf("no child of node %d covers key %v", node.id, key)
	}
	oldWeight := node.totalWeight()

	child, err := t.insertAt(node.children[pos], value, level-1)
	if err != nil {
		return insertionInfo[K]{}, err
	}

	if child.split {
		left, right := node.ranges[pos].Split(child.separator, true)
		node.ranges[pos] = left
		node.ranges = slices.Insert(node.ranges, pos+1, right)
		node.children = slices.Insert(node.children, pos+1, child.newID)
		node.childWeights[pos] = child.weightLeft
		node.childWeights = slices.Insert(node.childWeights, pos+1, child.weightRight)
	} else {
		node.childWeights[pos] = child.newWeight
	}

	weight := node.totalWeight()
	if weight > oldWeight {
		if err := t.sampleInserted(node, value, weight); err != nil {
			return insertionInfo[K]{}, err
		}
	}

	// a single oversized child (a long duplicate run) cannot be split off
	if weight > t.weightHi(level) && len(node.children) > 1 {
		return t.splitInner(node, level)
	}
	if err := t.pool.Update(node.id, node); err != nil {
		return insertionInfo[K]{}, err
	}
	return insertionInfo[K]{newWeight: weight}, nil
}

// growRoot puts a new root above the two halves of the old one.
func (t *Tree[K, V]) growRoot(info insertionInfo[K]) error {
	left, right := t.universe.Split(info.separator, true)
	root := newInner[K, V]()
	root.ranges = []types.Interval[K]{left, right}
	root.children = []int64{t.root, info.newID}
	root.childWeights = []uint64{info.weightLeft, info.weightRight}

	if root.totalWeight() > uint64(t.cfg.SamplesPerNodeHi) {
		root.buffered = true
		if err := t.repairSamples(root); err != nil {
			return err
		}
	}

	id, err := t.pool.Insert(root)
	if err != nil {
		return fmt.Errorf("failed to store new root: %w", err)
	}
	t.root = id
	t.height++
	t.log.Debug().Int64("root", id).Int("height", t.height).Msg("root grew")
	return t.saveMeta()
}
