package wbtree

import (
	"cmp"
	"slices"

	"SamplingDB/types"
)

type samplerKind uint8

const (
	// samplerProto stands for a subtree that has not been read yet. It
	// only knows the id, range and weight its parent stored.
	samplerProto samplerKind = iota
	// samplerInner draws from a snapshot of an inner node's buffer.
	samplerInner
	// samplerUnbuffered draws from the materialized values of a leaf or of
	// an inner node without buffer.
	samplerUnbuffered
)

type replaceAction uint8

const (
	actionKeep replaceAction = iota
	actionRemove
	actionReplace
)

type samplingResult[K cmp.Ordered, V any] struct {
	values      []V
	action      replaceAction
	replacement []*sampler[K, V]
}

// sampler is one frontier entry of a sampling cursor.
type sampler[K cmp.Ordered, V any] struct {
	kind   samplerKind
	id     int64
	level  int
	bounds types.Interval[K]
	// savedWeight is the weight the parent reported for proto samplers and
	// the node weight for inner samplers.
	savedWeight uint64

	// samplerInner
	buffer       []V
	next         int
	childIDs     []int64
	childRanges  []types.Interval[K]
	childWeights []uint64

	// samplerUnbuffered
	uncategorized []V
	keepers       []V
}

func newProtoSampler[K cmp.Ordered, V any](id int64, level int, bounds types.Interval[K], weight uint64) *sampler[K, V] {
	return &sampler[K, V]{kind: samplerProto, id: id, level: level, bounds: bounds, savedWeight: weight}
}

func (s *sampler[K, V]) weight() uint64 {
	if s.kind == samplerUnbuffered {
		return uint64(len(s.uncategorized) + len(s.keepers))
	}
	return s.savedWeight
}

func (s *sampler[K, V]) tryToSample(c *SamplingCursor[K, V], n int) (samplingResult[K, V], error) {
	switch s.kind {
	case samplerProto:
		if n == 0 {
			return samplingResult[K, V]{}, nil
		}
		if err := s.promote(c); err != nil {
			return samplingResult[K, V]{}, err
		}
		return s.tryToSample(c, n)
	case samplerInner:
		return s.sampleBuffer(c, n)
	default:
		return s.sampleValues(c, n), nil
	}
}

// promote reads the node and turns the proto sampler into the kind that
// fits it.
func (s *sampler[K, V]) promote(c *SamplingCursor[K, V]) error {
	t := c.tree
	node, err := t.pool.Get(s.id, false)
	if err != nil {
		return err
	}

	if node.nodeType == NodeInner && node.buffered {
		c.profile.touch(s.level, s.id)
		s.kind = samplerInner
		s.savedWeight = node.totalWeight()
		s.buffer = slices.Clone(node.samples)
		s.childIDs = slices.Clone(node.children)
		s.childRanges = slices.Clone(node.ranges)
		s.childWeights = slices.Clone(node.childWeights)
		return nil
	}

	values, err := t.subtreeValues(node, s.level, func(n *Node[K, V], level int) {
		c.profile.touch(level, n.id)
	})
	if err != nil {
		return err
	}
	s.kind = samplerUnbuffered
	s.uncategorized = values
	return nil
}

// sampleBuffer hands out buffer entries that fall into the query. Once the
// buffer runs dry, the rest of the request goes to a sub-cursor over the
// node's children, which then takes this sampler's place.
func (s *sampler[K, V]) sampleBuffer(c *SamplingCursor[K, V], n int) (samplingResult[K, V], error) {
	var out []V
	taken := 0
	for ; taken < n && s.next < len(s.buffer); taken++ {
		v := s.buffer[s.next]
		s.next++
		if c.query.Contains(c.tree.keyOf(v)) {
			out = append(out, v)
		}
	}
	if taken == n {
		return samplingResult[K, V]{values: out}, nil
	}

	protos := make([]*sampler[K, V], len(s.childIDs))
	for i := range s.childIDs {
		protos[i] = newProtoSampler[K, V](s.childIDs[i], s.level-1, s.childRanges[i], s.childWeights[i])
	}
	c.tree.log.Debug().Int64("node", s.id).Int("level", s.level).Int("remaining", n-taken).Msg("buffer exhausted, expanding")

	sub := c.spawn(protos)
	more, err := sub.tryToSample(n - taken)
	if err != nil {
		return samplingResult[K, V]{}, err
	}
	return samplingResult[K, V]{
		values:      append(out, more...),
		action:      actionReplace,
		replacement: sub.frontier,
	}, nil
}

// sampleValues draws uniformly with replacement from the materialized
// values. A value drawn for the first time is checked against the query
// and either kept for good or dropped for good. The index range is fixed
// for the whole batch; indexes that fall past the shrunken pool are
// skipped.
func (s *sampler[K, V]) sampleValues(c *SamplingCursor[K, V], n int) samplingResult[K, V] {
	available := len(s.uncategorized) + len(s.keepers)
	if available == 0 {
		return samplingResult[K, V]{action: actionRemove}
	}

	var out []V
	for range n {
		x := c.rng.IntN(available)
		if x >= len(s.uncategorized)+len(s.keepers) {
			continue
		}
		if x < len(s.uncategorized) {
			v := s.uncategorized[x]
			last := len(s.uncategorized) - 1
			s.uncategorized[x] = s.uncategorized[last]
			s.uncategorized = s.uncategorized[:last]
			if c.query.Contains(c.tree.keyOf(v)) {
				s.keepers = append(s.keepers, v)
				out = append(out, v)
			}
			continue
		}
		out = append(out, s.keepers[x-len(s.uncategorized)])
	}

	if s.weight() == 0 {
		return samplingResult[K, V]{action: actionRemove}
	}
	return samplingResult[K, V]{values: out}
}
