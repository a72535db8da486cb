package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SamplingDB/types"
	"SamplingDB/wbtree"
)

func buildIndex(t *testing.T, n int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys.idx")
	pager, err := wbtree.NewOnDiskPager(path, 0)
	require.NoError(t, err)
	tree, err := wbtree.New(pager, wbtree.Int64Schema(), types.Closed[int64](0, 1<<20),
		wbtree.Config{BranchingParam: 4, LeafParam: 8, SamplesPerNodeLo: 4, SamplesPerNodeHi: 16, Seed: 3})
	require.NoError(t, err)
	for k := int64(1); k <= n; k++ {
		require.NoError(t, tree.Insert(k))
	}
	require.NoError(t, tree.Close())
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDumpExact(t *testing.T) {
	path := buildIndex(t, 1000)
	out, err := execute(t, path, "--exact", "--lo", "10", "--hi", "19", "--n", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "10 values in [10, 19]")
	assert.Contains(t, out, "\n19\n")
	assert.Contains(t, out, "level  touched  pruned")
}

func TestDumpSamples(t *testing.T) {
	path := buildIndex(t, 1000)
	out, err := execute(t, path, "--lo", "100", "--hi", "199", "--n", "25")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	for _, line := range lines[:25] {
		assert.Len(t, line, 3, "sample %q should be a key in [100, 199]", line)
		assert.True(t, line >= "100" && line <= "199", line)
	}
}

func TestDumpSamplesEmptyRange(t *testing.T) {
	path := buildIndex(t, 100)
	out, err := execute(t, path, "--lo", "5000", "--hi", "6000")
	require.NoError(t, err)
	assert.Contains(t, out, "holds no values")
}

func TestEstimate(t *testing.T) {
	path := buildIndex(t, 1000)
	out, err := execute(t, path, "--lo", "1", "--hi", "1000", "--precision", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "count: 1,000 (exact)")
	assert.Contains(t, out, "avg:")
	assert.Contains(t, out, "sum:")
}

func TestMissingIndex(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "none.idx"), "--exact")
	assert.Error(t, err)
}
