package wbtree

import (
	"math"
	"slices"
)

// splitInner cuts an overweight inner node into two siblings whose weights
// are as close as the children allow to b^level*L on the left. The sample
// buffer is partitioned by range; each side keeps its part only while it
// still qualifies for a buffer.
func (t *Tree[K, V]) splitInner(node *Node[K, V], level int) (insertionInfo[K], error) {
	target := ipow(t.cfg.BranchingParam, level) * uint64(t.cfg.LeafParam)
	at := splitPosition(node.childWeights, target)

	right := newInner[K, V]()
	right.ranges = slices.Clone(node.ranges[at:])
	right.children = slices.Clone(node.children[at:])
	right.childWeights = slices.Clone(node.childWeights[at:])
	node.ranges = slices.Clip(node.ranges[:at])
	node.children = slices.Clip(node.children[:at])
	node.childWeights = slices.Clip(node.childWeights[:at])

	rangeLeft, rangeRight := node.coveredRange(), right.coveredRange()
	if !rangeLeft.HiIn {
		invariantf("left half of node %d ends with an open border %s", node.id, rangeLeft)
	}

	if node.buffered {
		var samplesLeft, samplesRight []V
		for _, s := range node.samples {
			switch k := t.keyOf(s); {
			case rangeLeft.Contains(k):
				samplesLeft = append(samplesLeft, s)
			case rangeRight.Contains(k):
				samplesRight = append(samplesRight, s)
			default:
				invariantf("sample key %v of node %d outside %s and %s", k, node.id, rangeLeft, rangeRight)
			}
		}
		if err := t.keepSamples(node, samplesLeft); err != nil {
			return insertionInfo[K]{}, err
		}
		if err := t.keepSamples(right, samplesRight); err != nil {
			return insertionInfo[K]{}, err
		}
	}

	rightID, err := t.pool.Reserve()
	if err != nil {
		return insertionInfo[K]{}, err
	}
	if err := t.pool.Update(rightID, right); err != nil {
		return insertionInfo[K]{}, err
	}
	if err := t.pool.Update(node.id, node); err != nil {
		return insertionInfo[K]{}, err
	}

	info := insertionInfo[K]{
		split:       true,
		newID:       rightID,
		separator:   rangeLeft.Hi,
		weightLeft:  node.totalWeight(),
		weightRight: right.totalWeight(),
	}
	t.log.Debug().Int64("left", node.id).Int64("right", rightID).Int("level", level).
		Uint64("left_weight", info.weightLeft).Uint64("right_weight", info.weightRight).Msg("inner split")
	return info, nil
}

// splitPosition returns the index of the first child of the right half.
// It scans the prefix sums and keeps the one closest to target; both halves
// always get at least one child.
func splitPosition(weights []uint64, target uint64) int {
	var sum uint64
	best, bestMiss := 0, float64(target)
	for i, w := range weights {
		sum += w
		if miss := math.Abs(float64(target) - float64(sum)); miss < bestMiss {
			best, bestMiss = i+1, miss
		}
	}
	return min(max(best, 1), len(weights)-1)
}
