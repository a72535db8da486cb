package wbtree

import (
	"cmp"
	"fmt"

	"SamplingDB/randoms"
	"SamplingDB/types"
)

// SamplingCursor yields an unbounded stream of values drawn uniformly with
// replacement from all values whose key lies in the query. It starts from
// a single entry for the root and only reads a node once a draw actually
// lands in its subtree. Subtrees whose range misses the query are dropped
// as soon as a draw hits them, without being read.
//
// A cursor is not safe for concurrent use and must not outlive inserts into
// the tree that happen while it is open.
type SamplingCursor[K cmp.Ordered, V any] struct {
	tree        *Tree[K, V]
	query       types.Interval[K]
	batchSize   int
	frontier    []*sampler[K, V]
	precomputed []V
	cur         V
	rng         *randoms.Rand
	profile     *Profile
	err         error
	closed      bool
}

// SamplingRangeQuery opens a sampling cursor over q. Each refill of the
// cursor asks the frontier for batchSize draws. The cursor gets its own
// generator, seeded from the tree's.
func (t *Tree[K, V]) SamplingRangeQuery(q types.Interval[K], batchSize int) *SamplingCursor[K, V] {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := &SamplingCursor[K, V]{
		tree:      t,
		query:     q,
		batchSize: max(batchSize, 1),
		rng:       randoms.New(t.rng.Uint64()),
		profile:   newProfile(),
	}
	if t.root != 0 && !q.IsEmpty() {
		c.frontier = []*sampler[K, V]{newProtoSampler[K, V](t.root, t.height, t.universe, t.weight)}
	}
	return c
}

// spawn creates a cursor over the given samplers that shares query,
// generator and profile with c.
func (c *SamplingCursor[K, V]) spawn(frontier []*sampler[K, V]) *SamplingCursor[K, V] {
	return &SamplingCursor[K, V]{
		tree:      c.tree,
		query:     c.query,
		batchSize: c.batchSize,
		frontier:  frontier,
		rng:       c.rng,
		profile:   c.profile,
	}
}

// Next moves to the next sample. It returns false once the query range is
// known to hold no values, or on error.
func (c *SamplingCursor[K, V]) Next() bool {
	if c.closed || c.err != nil {
		return false
	}
	for len(c.precomputed) == 0 {
		if len(c.frontier) == 0 {
			c.Close()
			return false
		}
		values, err := c.TryToSample(c.batchSize)
		if err != nil {
			return false
		}
		c.precomputed = append(c.precomputed, values...)
	}
	c.cur = c.precomputed[0]
	c.precomputed = c.precomputed[1:]
	return true
}

// TryToSample runs one batch of n draws over the frontier and returns the
// draws that landed inside the query. The result may hold fewer than n
// values, or none.
func (c *SamplingCursor[K, V]) TryToSample(n int) ([]V, error) {
	if c.closed {
		return nil, fmt.Errorf("sampling cursor is closed")
	}
	if c.err != nil {
		return nil, c.err
	}
	c.tree.mu.RLock()
	defer c.tree.mu.RUnlock()

	values, err := c.tryToSample(n)
	if err != nil {
		c.err = err
	}
	return values, err
}

// tryToSample allocates n draws over the frontier by weight, lets every
// entry serve its share, and only then applies the replacements the
// entries asked for.
func (c *SamplingCursor[K, V]) tryToSample(n int) ([]V, error) {
	weights := make([]uint64, len(c.frontier))
	var total uint64
	for i, s := range c.frontier {
		weights[i] = s.weight()
		total += weights[i]
	}
	if total == 0 {
		c.frontier = nil
		return nil, nil
	}

	draws := c.rng.Multinomial(weights, n)
	results := make([]samplingResult[K, V], len(c.frontier))
	var out []V
	for i, s := range c.frontier {
		if draws[i] > 0 && !c.query.Intersects(s.bounds) {
			c.profile.prune(s.level, s.id)
			results[i] = samplingResult[K, V]{action: actionRemove}
			continue
		}
		res, err := s.tryToSample(c, draws[i])
		if err != nil {
			return out, err
		}
		results[i] = res
		out = append(out, res.values...)
	}

	next := make([]*sampler[K, V], 0, len(c.frontier))
	for i, res := range results {
		switch res.action {
		case actionKeep:
			next = append(next, c.frontier[i])
		case actionReplace:
			next = append(next, res.replacement...)
		}
	}
	c.frontier = next
	return out, nil
}

// Value returns the current sample.
func (c *SamplingCursor[K, V]) Value() V { return c.cur }

func (c *SamplingCursor[K, V]) Err() error { return c.err }

func (c *SamplingCursor[K, V]) Profile() *Profile { return c.profile }

// Close drops the frontier. Samplers hold no pins, so there is nothing
// else to release.
func (c *SamplingCursor[K, V]) Close() error {
	c.closed = true
	c.frontier = nil
	c.precomputed = nil
	return nil
}
