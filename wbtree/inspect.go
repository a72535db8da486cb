// Index inspection for debugging.
// Use InspectIndexFileTo(w, path, pageSize, schema, values) to print a
// level-by-level dump of an index file written by the tree.

package wbtree

import (
	"cmp"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

var (
	innerLabel  = color.New(color.FgCyan, color.Bold).SprintFunc()
	leafLabel   = color.New(color.FgGreen).SprintFunc()
	bufferLabel = color.New(color.FgYellow).SprintFunc()
)

// InspectIndexFileTo writes a human-readable dump of the index file to w.
func InspectIndexFileTo[K cmp.Ordered, V any](w io.Writer, indexPath string, pageSize int, schema Schema[K, V], values bool) error {
	if _, err := os.Stat(indexPath); err != nil {
		return err
	}
	pager, err := NewOnDiskPager(indexPath, pageSize)
	if err != nil {
		return err
	}
	t, err := Open(pager, schema, Config{CacheCapacity: 64, ReadOnly: true})
	if err != nil {
		pager.Close()
		return err
	}
	defer t.Close()

	fmt.Fprintf(w, "Index file: %s (%s pages of %s)\n", indexPath,
		humanize.Comma(pager.TotalPages()), humanize.IBytes(uint64(pager.PageSize())))
	return t.Inspect(w, values)
}

// Inspect prints the tree level by level. With values set, leaves list
// their values.
func (t *Tree[K, V]) Inspect(w io.Writer, values bool) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p := func(format string, args ...any) { fmt.Fprintf(w, format, args...) }

	p("  Page 0 (meta): root=%d height=%d weight=%s universe=%s\n",
		t.root, t.height, humanize.Comma(int64(t.weight)), t.universe)
	p("  b=%d L=%d samples=[%d, %d] target=%d\n",
		t.cfg.BranchingParam, t.cfg.LeafParam, t.cfg.SamplesPerNodeLo, t.cfg.SamplesPerNodeHi, t.cfg.ReplenishTarget)
	if t.root == 0 {
		p("  (empty tree)\n")
		return nil
	}

	queue := []int64{t.root}
	for level := t.height; len(queue) > 0; level-- {
		p("  Level %d (%d nodes):\n", level, len(queue))
		var next []int64
		for _, id := range queue {
			node, err := t.pool.Get(id, false)
			if err != nil {
				p("    [page %d] read error: %v\n", id, err)
				continue
			}
			if node.nodeType == NodeLeaf {
				p("    [page %d] %s values=%d\n", id, leafLabel("LEAF"), len(node.values))
				if values {
					p("      %v\n", node.values)
				}
				continue
			}

			buf := "-"
			if node.buffered {
				buf = bufferLabel(fmt.Sprintf("%d samples", len(node.samples)))
			}
			p("    [page %d] %s weight=%s buffer=%s\n", id, innerLabel("INNER"),
				humanize.Comma(int64(node.totalWeight())), buf)
			for i, r := range node.ranges {
				p("      %s -> page %d (weight %d)\n", r, node.children[i], node.childWeights[i])
			}
			next = append(next, node.children...)
		}
		queue = next
	}
	return nil
}
