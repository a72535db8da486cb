package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SamplingDB/types"
	"SamplingDB/wbtree"
)

func TestInspectWithCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.idx")
	pager, err := wbtree.NewOnDiskPager(path, 0)
	require.NoError(t, err)
	tree, err := wbtree.New(pager, wbtree.Int64Schema(), types.Closed[int64](0, 10_000), wbtree.Config{LeafParam: 4})
	require.NoError(t, err)
	for k := int64(0); k < 300; k++ {
		require.NoError(t, tree.Insert(k*7%300))
	}
	require.NoError(t, tree.Close())

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path, "--check"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "invariants hold")

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path, "--values"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "LEAF")
	assert.NotContains(t, out.String(), "invariants")
}
