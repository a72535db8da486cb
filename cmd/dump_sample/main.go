// dump_sample runs a range query against an index file.
// Usage: go run ./cmd/dump_sample keys.idx --lo 100 --hi 5000 --n 20
//
// Without --exact it draws uniform samples from the range. With --precision
// it instead estimates the average and sum of the keys in the range.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"SamplingDB/aggregate"
	"SamplingDB/logging"
	"SamplingDB/types"
	"SamplingDB/wbtree"
)

type dumpOptions struct {
	lo, hi     int64
	n          int
	batch      int
	exact      bool
	confidence float64
	precision  float64
	pageSize   int
	log        logging.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := dumpOptions{}
	cmd := &cobra.Command{
		Use:          "dump_sample <index.idx>",
		Short:        "Sample or scan a key range of a sampling index",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.Int64Var(&opts.lo, "lo", 0, "lower bound of the query, inclusive")
	f.Int64Var(&opts.hi, "hi", 1<<20, "upper bound of the query, inclusive")
	f.IntVar(&opts.n, "n", 10, "values to print, 0 prints all")
	f.IntVar(&opts.batch, "batch", 64, "samples fetched per batch")
	f.BoolVar(&opts.exact, "exact", false, "scan the range instead of sampling")
	f.Float64Var(&opts.confidence, "confidence", 0.95, "confidence of the aggregate bound")
	f.Float64Var(&opts.precision, "precision", 0, "estimate avg and sum until the bound on the average is below this")
	f.IntVar(&opts.pageSize, "page-size", types.PageSize, "page size the index was written with")
	f.StringVar(&opts.log.Level, "log-level", "warn", "log level")
	return cmd
}

func run(cmd *cobra.Command, path string, opts dumpOptions) error {
	log, closer, err := logging.New(opts.log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	if _, err := os.Stat(path); err != nil {
		return err
	}
	pager, err := wbtree.NewOnDiskPager(path, opts.pageSize)
	if err != nil {
		return err
	}
	tree, err := wbtree.Open(pager, wbtree.Int64Schema(), wbtree.Config{Logger: &log, ReadOnly: true})
	if err != nil {
		pager.Close()
		return err
	}
	defer tree.Close()

	q := types.Closed(opts.lo, opts.hi)
	out := cmd.OutOrStdout()
	switch {
	case opts.exact:
		return dumpExact(out, tree, q, opts.n)
	case opts.precision > 0:
		return estimate(out, tree, q, opts)
	default:
		return dumpSamples(out, tree, q, opts)
	}
}

func dumpExact(w io.Writer, tree *wbtree.Tree[int64, int64], q types.Interval[int64], n int) error {
	it := tree.RangeQuery(q)
	defer it.Close()

	count := 0
	for it.Next() {
		if n == 0 || count < n {
			fmt.Fprintln(w, it.Value())
		}
		count++
	}
	if err := it.Err(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s values in %s\n", humanize.Comma(int64(count)), q)
	printProfile(w, it.Profile())
	return nil
}

func dumpSamples(w io.Writer, tree *wbtree.Tree[int64, int64], q types.Interval[int64], opts dumpOptions) error {
	if opts.n <= 0 {
		return fmt.Errorf("sampling needs --n > 0")
	}
	c := tree.SamplingRangeQuery(q, opts.batch)
	defer c.Close()

	drawn := 0
	for drawn < opts.n && c.Next() {
		fmt.Fprintln(w, c.Value())
		drawn++
	}
	if err := c.Err(); err != nil {
		return err
	}
	if drawn < opts.n {
		fmt.Fprintf(w, "range %s holds no values\n", q)
	}
	printProfile(w, c.Profile())
	return nil
}

func estimate(w io.Writer, tree *wbtree.Tree[int64, int64], q types.Interval[int64], opts dumpOptions) error {
	avg, err := aggregate.NewAverage(opts.confidence, float64(opts.lo), float64(opts.hi))
	if err != nil {
		return err
	}
	count, err := tree.CountRange(q)
	if err != nil {
		return err
	}

	c := tree.SamplingRangeQuery(q, opts.batch)
	defer c.Close()

	key := func(v int64) float64 { return float64(v) }
	mean, err := aggregate.FixedPrecision[int64](c, key, avg, opts.precision, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "count: %s (exact)\n", humanize.Comma(int64(count)))
	fmt.Fprintf(w, "avg:   %s at %.0f%% confidence\n", mean, opts.confidence*100)
	fmt.Fprintf(w, "sum:   %s\n", aggregate.Scale(mean, count))
	printProfile(w, c.Profile())
	return nil
}

func printProfile(w io.Writer, p *wbtree.Profile) {
	touched, pruned := p.TouchedByLevel(), p.PrunedByLevel()
	fmt.Fprintln(w, "level  touched  pruned")
	for _, l := range p.Levels() {
		fmt.Fprintf(w, "%5d  %7d  %6d\n", l, touched[l], pruned[l])
	}
}
