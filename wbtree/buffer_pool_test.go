package wbtree

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SamplingDB/types"
)

func newTestPool(t *testing.T, capacity int) (*BufferPool[int64, int64], *InMemoryPager) {
	t.Helper()
	pager := NewInMemoryPager()
	pool, err := NewBufferPool(capacity, pager, Int64Schema(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool, pager
}

// TestBufferPoolInsertGet tests that stored nodes come back intact, both
// from the cache and from the pager
func TestBufferPoolInsertGet(t *testing.T) {
	pool, pager := newTestPool(t, 4)

	leaf := newLeaf[int64, int64](4)
	leaf.values = []int64{1, 2, 2, 9}
	id, err := pool.Insert(leaf)
	require.NoError(t, err)
	assert.Equal(t, id, leaf.ID())

	got, err := pool.Get(id, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 2, 9}, got.values)

	// a second pool over the same pager has to decode the page
	other, err := NewBufferPool(4, pager, Int64Schema(), zerolog.Nop())
	require.NoError(t, err)
	defer other.Close()

	got, err = other.Get(id, false)
	require.NoError(t, err)
	assert.True(t, got.IsLeaf())
	assert.Equal(t, []int64{1, 2, 2, 9}, got.values)
	assert.Equal(t, uint64(1), other.Stats().Misses)
}

// TestBufferPoolPinning tests pin counts and Unpin errors
func TestBufferPoolPinning(t *testing.T) {
	pool, _ := newTestPool(t, 2)

	id, err := pool.Insert(newLeaf[int64, int64](1))
	require.NoError(t, err)

	_, err = pool.Get(id, true)
	require.NoError(t, err)
	_, err = pool.Get(id, true)
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Pinned())

	assert.ErrorIs(t, pool.Remove(id), ErrPinned)

	require.NoError(t, pool.UnpinAll([]int64{id, id}))
	assert.Equal(t, 0, pool.Pinned())
	assert.Error(t, pool.Unpin(id))

	require.NoError(t, pool.Remove(id))
	_, err = pool.Get(id, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestBufferPoolUpdateVisible tests that an update replaces the cached and
// the pinned copy
func TestBufferPoolUpdateVisible(t *testing.T) {
	pool, _ := newTestPool(t, 8)

	leaf := newLeaf[int64, int64](2)
	leaf.values = []int64{5}
	id, err := pool.Insert(leaf)
	require.NoError(t, err)

	pinned, err := pool.Get(id, true)
	require.NoError(t, err)

	replacement := newLeaf[int64, int64](2)
	replacement.values = []int64{5, 6}
	require.NoError(t, pool.Update(id, replacement))

	got, err := pool.Get(id, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, got.values)
	assert.NotSame(t, pinned, got)

	require.NoError(t, pool.Unpin(id))
	got, err = pool.Get(id, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, got.values)
}

// TestBufferPoolEvictionRereads tests that more nodes than capacity can be
// stored and read back
func TestBufferPoolEvictionRereads(t *testing.T) {
	pool, _ := newTestPool(t, 2)

	ids := make([]int64, 20)
	for i := range ids {
		leaf := newLeaf[int64, int64](1)
		leaf.values = []int64{int64(i)}
		id, err := pool.Insert(leaf)
		require.NoError(t, err)
		ids[i] = id
	}
	for i, id := range ids {
		got, err := pool.Get(id, false)
		require.NoError(t, err)
		assert.Equal(t, []int64{int64(i)}, got.values)
	}
}

func TestBufferPoolRejectsBadCapacity(t *testing.T) {
	_, err := NewBufferPool(0, NewInMemoryPager(), Int64Schema(), zerolog.Nop())
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

// TestNodeCodecInner tests the inner node wire format, with and without a
// sample buffer
func TestNodeCodecInner(t *testing.T) {
	codec := newNodeCodec(Int64Schema(), types.PageSize)

	n := newInner[int64, int64]()
	n.id = 3
	left, right := types.Closed[int64](0, 100).Split(40, true)
	n.ranges = []types.Interval[int64]{left, right}
	n.children = []int64{7, 8}
	n.childWeights = []uint64{12, 30}

	page, err := codec.encode(n)
	require.NoError(t, err)
	require.Len(t, page, types.PageSize)
	assert.Equal(t, tagInner, page[0])

	got, err := codec.decode(page, 3)
	require.NoError(t, err)
	assert.Equal(t, n.ranges, got.ranges)
	assert.Equal(t, n.children, got.children)
	assert.Equal(t, n.childWeights, got.childWeights)
	assert.False(t, got.buffered)

	n.buffered = true
	n.samples = []int64{3, 77, 41}
	page, err = codec.encode(n)
	require.NoError(t, err)
	got, err = codec.decode(page, 3)
	require.NoError(t, err)
	assert.True(t, got.buffered)
	assert.Equal(t, []int64{3, 77, 41}, got.samples)

	// an empty buffer is still a buffer
	n.samples = nil
	page, err = codec.encode(n)
	require.NoError(t, err)
	got, err = codec.decode(page, 3)
	require.NoError(t, err)
	assert.True(t, got.buffered)
	assert.Empty(t, got.samples)
}

func TestNodeCodecErrors(t *testing.T) {
	codec := newNodeCodec(Int64Schema(), 64)

	big := newLeaf[int64, int64](16)
	for i := range 16 {
		big.values = append(big.values, int64(i))
	}
	_, err := codec.encode(big)
	assert.ErrorIs(t, err, ErrNodeTooLarge)

	_, err = codec.decode(make([]byte, 64), 5)
	assert.ErrorIs(t, err, ErrNotFound)

	bad := make([]byte, 64)
	bad[0] = 42
	_, err = codec.decode(bad, 5)
	assert.ErrorIs(t, err, ErrCorruptPage)

	truncated := make([]byte, 64)
	truncated[0] = tagLeaf
	truncated[1] = 200 // 200 values cannot fit
	_, err = codec.decode(truncated, 5)
	assert.ErrorIs(t, err, ErrCorruptPage)
}
