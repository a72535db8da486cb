// inspect_idx prints an index file level by level.
// Usage: go run ./cmd/inspect_idx keys.idx [--check] [--values]
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"SamplingDB/types"
	"SamplingDB/wbtree"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		pageSize int
		check    bool
		values   bool
	)
	cmd := &cobra.Command{
		Use:          "inspect_idx <index.idx>",
		Short:        "Dump the structure of a sampling index file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd, args[0], pageSize, check, values)
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", types.PageSize, "page size the index was written with")
	cmd.Flags().BoolVar(&check, "check", false, "verify the tree invariants after the dump")
	cmd.Flags().BoolVar(&values, "values", false, "list the values of every leaf")
	return cmd
}

func inspect(cmd *cobra.Command, path string, pageSize int, check, values bool) error {
	out := cmd.OutOrStdout()
	if !check {
		return wbtree.InspectIndexFileTo(out, path, pageSize, wbtree.Int64Schema(), values)
	}

	if _, err := os.Stat(path); err != nil {
		return err
	}
	pager, err := wbtree.NewOnDiskPager(path, pageSize)
	if err != nil {
		return err
	}
	tree, err := wbtree.Open(pager, wbtree.Int64Schema(), wbtree.Config{CacheCapacity: 64, ReadOnly: true})
	if err != nil {
		pager.Close()
		return err
	}
	defer tree.Close()

	fmt.Fprintf(out, "Index file: %s\n", path)
	if err := tree.Inspect(out, values); err != nil {
		return err
	}
	if err := tree.CheckInvariants(); err != nil {
		fmt.Fprintln(out, color.RedString("invariant check failed:"))
		fmt.Fprintln(out, err)
		return fmt.Errorf("%s is inconsistent", path)
	}
	fmt.Fprintln(out, color.GreenString("invariants hold"))
	return nil
}
