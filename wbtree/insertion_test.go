package wbtree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SamplingDB/types"
)

// TestConfigMustFitPage tests that configs whose full nodes cannot be
// encoded into one page are rejected up front
func TestConfigMustFitPage(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"leaf too wide", Config{LeafParam: 300}},
		{"duplicate run too long", Config{MaxDuplicates: 600}},
		{"sample buffer too large", Config{SamplesPerNodeHi: 600}},
		{"too many children", Config{BranchingParam: 40}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New(NewInMemoryPager(), Int64Schema(), testUniverse, c.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	// the same leaf fits into bigger pages
	tree, err := New(NewInMemoryPagerSize(8*1024), Int64Schema(), testUniverse, Config{LeafParam: 300})
	require.NoError(t, err)
	insertAll(t, tree, seq(1, 2000))
	require.NoError(t, tree.CheckInvariants())
	require.NoError(t, tree.Close())
}

// TestDefaultMaxDuplicatesFillsPage tests that the duplicate cap defaults
// to a full leaf page for fixed-width values
func TestDefaultMaxDuplicatesFillsPage(t *testing.T) {
	tree := newTestTree(t, Config{LeafParam: 8})
	assert.Equal(t, (types.PageSize-leafHeader)/8, tree.Config().MaxDuplicates)

	big, err := New(NewInMemoryPagerSize(8*1024), Int64Schema(), testUniverse, Config{})
	require.NoError(t, err)
	defer big.Close()
	assert.Equal(t, 1023, big.Config().MaxDuplicates)
}

var stringSchema = Schema[string, string]{
	KeyOf:      func(s string) string { return s },
	KeyCodec:   types.StringCodec{},
	ValueCodec: types.StringCodec{},
}

func newStringTree(t *testing.T, leafParam int) *Tree[string, string] {
	t.Helper()
	tree, err := New(NewInMemoryPager(), stringSchema, types.Closed("a", "z"), Config{LeafParam: leafParam})
	require.NoError(t, err)
	t.Cleanup(func() { tree.Close() })
	return tree
}

// TestFailedInsertLeavesTreeUnchanged stores values of variable width, so
// the page limit cannot be checked up front, and overflows a leaf page
func TestFailedInsertLeavesTreeUnchanged(t *testing.T) {
	tree := newStringTree(t, 4)
	long := func(c string) string { return c + strings.Repeat("x", 1000) }

	for _, c := range []string{"b", "c", "d", "e"} {
		require.NoError(t, tree.Insert(long(c)))
	}
	assert.ErrorIs(t, tree.Insert(long("f")), ErrNodeTooLarge)

	got, err := tree.Get(long("f"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, uint64(4), tree.TotalWeight())
	assert.Zero(t, tree.Pool().Pinned())
	require.NoError(t, tree.CheckInvariants())

	n, err := tree.CountRange(types.Closed("a", "z"))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)

	// a value that fits still goes in
	require.NoError(t, tree.Insert("c0"))
	assert.Equal(t, uint64(5), tree.TotalWeight())
	require.NoError(t, tree.CheckInvariants())
}

// TestFailedLeafSplitLeavesTreeUnchanged overflows the right half of a leaf
// split
func TestFailedLeafSplitLeavesTreeUnchanged(t *testing.T) {
	tree := newStringTree(t, 2) // leaves split above 3 values
	long := func(c string) string { return c + strings.Repeat("x", 2100) }

	require.NoError(t, tree.Insert("b"))
	require.NoError(t, tree.Insert("c"))
	require.NoError(t, tree.Insert(long("d")))
	pager := tree.pager.(*InMemoryPager)
	rightID := pager.TotalPages() // the id the split reserves

	// the split puts both long values into the right leaf
	assert.ErrorIs(t, tree.Insert(long("e")), ErrNodeTooLarge)

	assert.Equal(t, 0, tree.Height())
	assert.Equal(t, uint64(3), tree.TotalWeight())
	_, err := pager.ReadPage(rightID)
	assert.ErrorIs(t, err, ErrNotFound, "reserved page of the failed split is freed")
	require.NoError(t, tree.CheckInvariants())

	it := tree.RangeQuery(types.Closed("a", "z"))
	var keys []string
	for it.Next() {
		keys = append(keys, it.Value()[:1])
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"b", "c", "d"}, keys)

	require.NoError(t, tree.Insert("f"))
	assert.Equal(t, 1, tree.Height())
	require.NoError(t, tree.CheckInvariants())
}
