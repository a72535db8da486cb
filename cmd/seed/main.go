// seed builds an index file from generated int64 keys.
// Usage: go run ./cmd/seed --index data/keys.idx --n 100000 --dist gauss
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"SamplingDB/logging"
	"SamplingDB/randoms"
	"SamplingDB/types"
	"SamplingDB/wbtree"
)

type seedOptions struct {
	index    string
	n        int
	dist     string
	keyMax   int64
	seed     uint64
	pageSize int
	cfg      wbtree.Config
	log      logging.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Build a sampling index from generated keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts)
		},
		SilenceUsage: true,
	}

	f := cmd.Flags()
	f.StringVar(&opts.index, "index", "keys.idx", "index file to create")
	f.IntVar(&opts.n, "n", 100_000, "number of keys to insert")
	f.StringVar(&opts.dist, "dist", "uniform", "key distribution: uniform, gauss or zipf")
	f.Int64Var(&opts.keyMax, "key-max", 1<<20, "largest key, the universe is [0, key-max]")
	f.Uint64Var(&opts.seed, "seed", 1, "seed for both the key generator and the tree")
	f.IntVar(&opts.pageSize, "page-size", types.PageSize, "page size in bytes")
	f.IntVar(&opts.cfg.BranchingParam, "branching", wbtree.DefaultBranchingParam, "branching parameter b")
	f.IntVar(&opts.cfg.LeafParam, "leaf", wbtree.DefaultLeafParam, "leaf parameter L")
	f.IntVar(&opts.cfg.SamplesPerNodeLo, "samples-lo", wbtree.DefaultSamplesPerNodeLo, "lower sample buffer bound")
	f.IntVar(&opts.cfg.SamplesPerNodeHi, "samples-hi", wbtree.DefaultSamplesPerNodeHi, "upper sample buffer bound")
	f.IntVar(&opts.cfg.MaxDuplicates, "max-dup", 0, "copies allowed per key, 0 fills a page")
	f.StringVar(&opts.log.Level, "log-level", "info", "log level")
	f.StringVar(&opts.log.File, "log-file", "", "also log to this rotating file")
	return cmd
}

func runSeed(cmd *cobra.Command, opts seedOptions) error {
	log, closer, err := logging.New(opts.log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	gen, err := distribution(opts.dist)
	if err != nil {
		return err
	}
	if opts.n < 0 || opts.keyMax <= 0 {
		return fmt.Errorf("need n >= 0 and key-max > 0, got %d and %d", opts.n, opts.keyMax)
	}
	if _, err := os.Stat(opts.index); err == nil {
		return fmt.Errorf("index %s already exists", opts.index)
	}

	pager, err := wbtree.NewOnDiskPager(opts.index, opts.pageSize)
	if err != nil {
		return err
	}
	cfg := opts.cfg
	cfg.Seed = opts.seed
	cfg.Logger = &log
	tree, err := wbtree.New(pager, wbtree.Int64Schema(), types.Closed[int64](0, opts.keyMax), cfg)
	if err != nil {
		pager.Close()
		return err
	}

	log.Info().Str("index", opts.index).Str("dist", opts.dist).Int("n", opts.n).Msg("seeding")
	start := time.Now()
	next := gen(randoms.New(opts.seed^0x5eed), opts.keyMax)
	skipped := 0
	for i := 0; i < opts.n; i++ {
		err := tree.Insert(next())
		if errors.Is(err, wbtree.ErrDuplicateOverflow) {
			skipped++
			continue
		}
		if err != nil {
			tree.Close()
			return fmt.Errorf("insert #%d: %w", i, err)
		}
		if (i+1)%100_000 == 0 {
			log.Debug().Int("inserted", i+1).Msg("progress")
		}
	}
	elapsed := time.Since(start)
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("keys dropped at the duplicate limit")
	}

	height, weight := tree.Height(), tree.TotalWeight()
	stats := tree.Pool().Stats()
	if err := tree.Close(); err != nil {
		return err
	}

	info, err := os.Stat(opts.index)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Inserted %s keys in %s (height %d)\n",
		humanize.Comma(int64(weight)), elapsed.Round(time.Millisecond), height)
	if skipped > 0 {
		fmt.Fprintf(out, "Skipped %s keys at the duplicate limit\n", humanize.Comma(int64(skipped)))
	}
	fmt.Fprintf(out, "Index %s: %s, %s page writes, %s cache misses\n", opts.index,
		humanize.IBytes(uint64(info.Size())), humanize.Comma(int64(stats.Writes)), humanize.Comma(int64(stats.Misses)))
	return nil
}
