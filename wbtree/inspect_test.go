package wbtree

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectIndexFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inspect.idx")
	pager, err := NewOnDiskPager(path, 0)
	require.NoError(t, err)
	tree, err := New(pager, Int64Schema(), testUniverse,
		Config{BranchingParam: 4, LeafParam: 8, SamplesPerNodeLo: 4, SamplesPerNodeHi: 16})
	require.NoError(t, err)
	insertAll(t, tree, seq(1, 500))
	height := tree.Height()
	require.NoError(t, tree.Close())

	var buf bytes.Buffer
	require.NoError(t, InspectIndexFileTo(&buf, path, 0, Int64Schema(), false))
	out := buf.String()

	assert.Contains(t, out, "weight=500")
	assert.Contains(t, out, "INNER")
	assert.Contains(t, out, "LEAF")
	assert.Contains(t, out, "samples")
	assert.Equal(t, height+1, strings.Count(out, "  Level "))
}

func TestInspectMissingFile(t *testing.T) {
	err := InspectIndexFileTo(&bytes.Buffer{}, filepath.Join(t.TempDir(), "none.idx"), 0, Int64Schema(), false)
	assert.Error(t, err)
}
