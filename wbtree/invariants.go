package wbtree

import (
	"cmp"
	"errors"
	"fmt"

	"SamplingDB/types"
)

// CheckInvariants walks the whole tree and reports every structural
// violation it finds, joined into one error wrapping ErrInvariant:
//   - child ranges are non-empty, ascending, contiguous, and cover the
//     range the parent assigned
//   - stored child weights match the real subtree weights
//   - inner weights respect the level window (the root only the upper bound)
//   - a node is buffered exactly while its weight exceeds SamplesPerNodeHi,
//     and a buffer holds between SamplesPerNodeLo and SamplesPerNodeHi
//     samples, all from its own range
//   - leaves are sorted and all leaves sit at level 0
func (t *Tree[K, V]) CheckInvariants() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == 0 {
		if t.weight != 0 || t.height != 0 {
			return fmt.Errorf("%w: empty tree with weight %d height %d", ErrInvariant, t.weight, t.height)
		}
		return nil
	}

	c := &checker[K, V]{tree: t}
	weight, err := c.check(t.root, t.height, t.universe, true)
	if err != nil {
		return err
	}
	if weight != t.weight {
		c.failf(t.root, t.height, "tree weight %d, subtree holds %d", t.weight, weight)
	}
	return errors.Join(c.violations...)
}

type checker[K cmp.Ordered, V any] struct {
	tree       *Tree[K, V]
	violations []error
}

func (c *checker[K, V]) failf(id int64, level int, format string, args ...any) {
	c.violations = append(c.violations,
		fmt.Errorf("%w: node %d level %d: %s", ErrInvariant, id, level, fmt.Sprintf(format, args...)))
}

// check verifies the subtree below id, which its parent assigned to bounds,
// and returns its real weight. Only read errors abort the walk.
func (c *checker[K, V]) check(id int64, level int, bounds types.Interval[K], isRoot bool) (uint64, error) {
	t := c.tree
	node, err := t.pool.Get(id, false)
	if err != nil {
		return 0, err
	}

	if node.nodeType == NodeLeaf {
		if level != 0 {
			c.failf(id, level, "leaf above level 0")
		}
		for i, v := range node.values {
			k := t.keyOf(v)
			if !bounds.Contains(k) {
				c.failf(id, level, "key %v outside %s", k, bounds)
			}
			if i > 0 && k < t.keyOf(node.values[i-1]) {
				c.failf(id, level, "values out of order at %d", i)
			}
		}
		if len(node.values) > t.leafHi && t.keyOf(node.values[0]) != t.keyOf(node.values[len(node.values)-1]) {
			c.failf(id, level, "%d values exceed leaf capacity %d", len(node.values), t.leafHi)
		}
		return uint64(len(node.values)), nil
	}

	if level == 0 {
		c.failf(id, level, "inner node at leaf level")
		return node.totalWeight(), nil
	}
	if len(node.ranges) == 0 || len(node.ranges) != len(node.children) || len(node.children) != len(node.childWeights) {
		c.failf(id, level, "directory sizes %d/%d/%d", len(node.ranges), len(node.children), len(node.childWeights))
		return node.totalWeight(), nil
	}

	c.checkRanges(node, level, bounds)

	var weight uint64
	for i, child := range node.children {
		w, err := c.check(child, level-1, node.ranges[i], false)
		if err != nil {
			return 0, err
		}
		if w != node.childWeights[i] {
			c.failf(id, level, "child %d stored weight %d, real weight %d", child, node.childWeights[i], w)
		}
		weight += w
	}

	stored := node.totalWeight()
	if stored > t.weightHi(level) {
		c.failf(id, level, "weight %d above %d", stored, t.weightHi(level))
	}
	if !isRoot && float64(stored) <= t.weightLo(level) {
		c.failf(id, level, "weight %d not above %.1f", stored, t.weightLo(level))
	}

	wantBuffer := stored > uint64(t.cfg.SamplesPerNodeHi)
	switch {
	case wantBuffer != node.buffered:
		c.failf(id, level, "buffered=%v with weight %d", node.buffered, stored)
	case node.buffered && (len(node.samples) < t.cfg.SamplesPerNodeLo || len(node.samples) > t.cfg.SamplesPerNodeHi):
		c.failf(id, level, "%d samples outside [%d, %d]", len(node.samples), t.cfg.SamplesPerNodeLo, t.cfg.SamplesPerNodeHi)
	}
	for _, s := range node.samples {
		if k := t.keyOf(s); !bounds.Contains(k) {
			c.failf(id, level, "sample key %v outside %s", k, bounds)
		}
	}
	return weight, nil
}

func (c *checker[K, V]) checkRanges(node *Node[K, V], level int, bounds types.Interval[K]) {
	first, last := node.ranges[0], node.ranges[len(node.ranges)-1]
	if first.Lo != bounds.Lo || first.LoIn != bounds.LoIn || last.Hi != bounds.Hi || last.HiIn != bounds.HiIn {
		c.failf(node.id, level, "ranges span %s, parent assigned %s", node.coveredRange(), bounds)
	}
	for i, r := range node.ranges {
		if r.IsEmpty() {
			c.failf(node.id, level, "empty range %s at %d", r, i)
		}
		if i == 0 {
			continue
		}
		prev := node.ranges[i-1]
		if prev.Hi != r.Lo || prev.HiIn == r.LoIn {
			c.failf(node.id, level, "ranges %s and %s do not meet", prev, r)
		}
	}
}
