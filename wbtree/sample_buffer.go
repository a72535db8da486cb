package wbtree

import (
	"fmt"
	"slices"

	"SamplingDB/randoms"
)

// sampleInserted keeps n's buffer a uniform sample after value was added
// below n, raising n's weight to weight. Each slot is replaced with
// probability 1/weight. A node crossing SamplesPerNodeHi gets a buffer.
func (t *Tree[K, V]) sampleInserted(n *Node[K, V], value V, weight uint64) error {
	if n.buffered {
		p := 1 / float64(weight)
		for i := range n.samples {
			if t.rng.Float64() < p {
				n.samples[i] = value
			}
		}
		return nil
	}
	if weight > uint64(t.cfg.SamplesPerNodeHi) {
		n.buffered = true
		n.samples = make([]V, 0, t.cfg.SamplesPerNodeHi)
		t.log.Debug().Int64("node", n.id).Uint64("weight", weight).Msg("sample buffer created")
		return t.repairSamples(n)
	}
	return nil
}

// keepSamples hands a split half its share of the old buffer. Halves too
// light for a buffer drop it, the others are refilled if the share is
// below SamplesPerNodeLo.
func (t *Tree[K, V]) keepSamples(n *Node[K, V], samples []V) error {
	if n.totalWeight() <= uint64(t.cfg.SamplesPerNodeHi) {
		n.dropBuffer()
		return nil
	}
	n.buffered = true
	n.samples = samples
	return t.repairSamples(n)
}

// repairSamples refills a buffer that fell below SamplesPerNodeLo up to
// ReplenishTarget.
func (t *Tree[K, V]) repairSamples(n *Node[K, V]) error {
	if len(n.samples) < t.cfg.SamplesPerNodeLo {
		return t.refillFromChildren(n, t.cfg.ReplenishTarget-len(n.samples))
	}
	return nil
}

// refillFromChildren appends amount fresh samples drawn from the children in
// proportion to their weights and shuffles the buffer.
func (t *Tree[K, V]) refillFromChildren(n *Node[K, V], amount int) error {
	shares := t.rng.Multinomial(n.childWeights, amount)
	for i, share := range shares {
		if share == 0 {
			continue
		}
		child, err := t.pool.Get(n.children[i], false)
		if err != nil {
			return fmt.Errorf("refill node %d: %w", n.id, err)
		}
		drawn, err := t.drainSamples(child, share)
		if err != nil {
			return err
		}
		n.samples = append(n.samples, drawn...)
	}
	randoms.Permute(t.rng, n.samples)
	return nil
}

// drainSamples removes amount samples from n. A buffered node tops itself up
// first if the drain would leave it below SamplesPerNodeLo and is written
// back. Leaves and unbuffered nodes draw with replacement from all values
// below them.
func (t *Tree[K, V]) drainSamples(n *Node[K, V], amount int) ([]V, error) {
	switch {
	case n.nodeType == NodeLeaf:
		return randoms.SampleWR(t.rng, n.values, amount), nil
	case n.buffered:
		if len(n.samples)-amount < t.cfg.SamplesPerNodeLo {
			if err := t.refillFromChildren(n, amount+t.cfg.ReplenishTarget-len(n.samples)); err != nil {
				return nil, err
			}
		}
		out := slices.Clone(n.samples[:amount])
		n.samples = slices.Delete(n.samples, 0, amount)
		if err := t.pool.Update(n.id, n); err != nil {
			return nil, err
		}
		return out, nil
	default:
		all, err := t.subtreeValues(n, 0, nil)
		if err != nil {
			return nil, err
		}
		return randoms.SampleWR(t.rng, all, amount), nil
	}
}

// subtreeValues collects every value below n in key order. visit, if set,
// sees every node read along the way together with its level.
func (t *Tree[K, V]) subtreeValues(n *Node[K, V], level int, visit func(*Node[K, V], int)) ([]V, error) {
	if visit != nil {
		visit(n, level)
	}
	if n.nodeType == NodeLeaf {
		return slices.Clone(n.values), nil
	}
	var out []V
	for _, id := range n.children {
		child, err := t.pool.Get(id, false)
		if err != nil {
			return nil, err
		}
		vals, err := t.subtreeValues(child, level-1, visit)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}
