package wbtree

import (
	"errors"
	"slices"
)

// splitLeaf splits an overfull leaf at the key-change boundary nearest to
// its midpoint, so all values of one key stay in one leaf. It reports
// ok=false when the leaf holds a single key and cannot be split.
func (t *Tree[K, V]) splitLeaf(leaf *Node[K, V]) (info insertionInfo[K], ok bool, err error) {
	pos, found := t.leafSplitPosition(leaf.values)
	if !found {
		t.log.Debug().Int64("node", leaf.id).Int("values", len(leaf.values)).Msg("leaf holds one key, not splitting")
		return info, false, nil
	}

	right := newLeaf[K, V](t.leafHi + 1)
	right.values = append(right.values, leaf.values[pos:]...)
	leaf.values = slices.Clip(leaf.values[:pos])

	undo := func(err error) (insertionInfo[K], bool, error) {
		leaf.values = append(leaf.values, right.values...)
		return info, false, err
	}

	rightID, err := t.pool.Reserve()
	if err != nil {
		return undo(err)
	}
	if err := t.pool.Update(rightID, right); err != nil {
		return undo(errors.Join(err, t.pool.Remove(rightID)))
	}
	if err := t.pool.Update(leaf.id, leaf); err != nil {
		return undo(errors.Join(err, t.pool.Remove(rightID)))
	}

	t.log.Debug().Int64("left", leaf.id).Int64("right", rightID).
		Int("left_values", len(leaf.values)).Int("right_values", len(right.values)).Msg("leaf split")

	return insertionInfo[K]{
		split:       true,
		newID:       rightID,
		separator:   t.keyOf(leaf.values[len(leaf.values)-1]),
		weightLeft:  uint64(len(leaf.values)),
		weightRight: uint64(len(right.values)),
	}, true, nil
}

// leafSplitPosition picks the first index of the right half. Candidates are
// the two ends of the duplicate run around the midpoint; the nearer one
// wins, ties go left.
func (t *Tree[K, V]) leafSplitPosition(values []V) (int, bool) {
	mid := len(values) / 2
	midKey := t.keyOf(values[mid])

	left := mid
	for left > 0 && t.keyOf(values[left-1]) == midKey {
		left--
	}
	right := mid
	for right < len(values) && t.keyOf(values[right]) == midKey {
		right++
	}

	leftOK, rightOK := left > 0, right < len(values)
	switch {
	case leftOK && rightOK:
		if mid-left <= right-mid {
			return left, true
		}
		return right, true
	case leftOK:
		return left, true
	case rightOK:
		return right, true
	}
	return 0, false
}
