package wbtree

import (
	"fmt"

	"github.com/rs/zerolog"
)

const (
	DefaultBranchingParam   = 8
	DefaultLeafParam        = 32
	DefaultSamplesPerNodeLo = 16
	DefaultSamplesPerNodeHi = 64
	DefaultCacheCapacity    = 1024
)

// Config holds the tuning parameters of a tree. Zero fields take their
// defaults.
type Config struct {
	// BranchingParam is b. An inner node at level l splits once its weight
	// exceeds 2*b^l*LeafParam.
	BranchingParam int
	// LeafParam is L. Leaves hold at most 2L-1 values.
	LeafParam int
	// SamplesPerNodeLo and SamplesPerNodeHi bound a sample buffer. A node
	// carries a buffer exactly while its weight exceeds SamplesPerNodeHi.
	SamplesPerNodeLo int
	SamplesPerNodeHi int
	// ReplenishTarget is the buffer size a repair refills to.
	ReplenishTarget int
	// MaxDuplicates caps the values stored under one key. Zero means as
	// many as fit into one leaf page.
	MaxDuplicates int
	// CacheCapacity is the number of decoded unpinned nodes kept in memory.
	CacheCapacity int
	// Seed initializes the generator of a new tree.
	Seed uint64
	// Logger receives debug events. Nil disables logging.
	Logger *zerolog.Logger
	// ReadOnly rejects inserts and leaves the meta page untouched on Close,
	// so opening an index does not advance its stored generator.
	ReadOnly bool
}

func DefaultConfig() Config {
	return Config{}.normalized()
}

func (cfg Config) normalized() Config {
	if cfg.BranchingParam == 0 {
		cfg.BranchingParam = DefaultBranchingParam
	}
	if cfg.LeafParam == 0 {
		cfg.LeafParam = DefaultLeafParam
	}
	if cfg.SamplesPerNodeLo == 0 {
		cfg.SamplesPerNodeLo = DefaultSamplesPerNodeLo
	}
	if cfg.SamplesPerNodeHi == 0 {
		cfg.SamplesPerNodeHi = DefaultSamplesPerNodeHi
	}
	if cfg.ReplenishTarget == 0 {
		cfg.ReplenishTarget = cfg.SamplesPerNodeHi
	}
	if cfg.CacheCapacity == 0 {
		cfg.CacheCapacity = DefaultCacheCapacity
	}
	return cfg
}

func (cfg Config) validate() error {
	cfg = cfg.normalized()
	switch {
	case cfg.BranchingParam < 2:
		return fmt.Errorf("%w: branching param %d < 2", ErrInvalidConfig, cfg.BranchingParam)
	case cfg.LeafParam < 2:
		return fmt.Errorf("%w: leaf param %d < 2", ErrInvalidConfig, cfg.LeafParam)
	case cfg.SamplesPerNodeLo < 1:
		return fmt.Errorf("%w: samples lo %d < 1", ErrInvalidConfig, cfg.SamplesPerNodeLo)
	case cfg.SamplesPerNodeHi < cfg.SamplesPerNodeLo:
		return fmt.Errorf("%w: samples hi %d < lo %d", ErrInvalidConfig, cfg.SamplesPerNodeHi, cfg.SamplesPerNodeLo)
	case cfg.ReplenishTarget < cfg.SamplesPerNodeLo || cfg.ReplenishTarget > cfg.SamplesPerNodeHi:
		return fmt.Errorf("%w: replenish target %d outside [%d, %d]", ErrInvalidConfig,
			cfg.ReplenishTarget, cfg.SamplesPerNodeLo, cfg.SamplesPerNodeHi)
	case cfg.MaxDuplicates < 0:
		return fmt.Errorf("%w: max duplicates %d < 0", ErrInvalidConfig, cfg.MaxDuplicates)
	case cfg.CacheCapacity < 1:
		return fmt.Errorf("%w: cache capacity %d < 1", ErrInvalidConfig, cfg.CacheCapacity)
	}
	return nil
}

// Encoded node overhead, see nodeCodec.
const (
	leafHeader  = 1 + 4     // tag, value count
	innerHeader = 1 + 4 + 4 // tag, child count, sample count
	childEntry  = 8 + 8     // child id, child weight
)

// withPageLimits sets MaxDuplicates if unset and rejects configs whose
// largest nodes cannot be stored in one page. Node sizes are only known for
// fixed-width codecs; a width of 0 skips the matching check, and then
// MaxDuplicates defaults to twice the leaf capacity.
//
// A leaf holds at most max(leafHi+1, MaxDuplicates) values. Children of an
// inner node weigh more than half their level's nominal weight, so an
// inner node has at most 4b+1 children.
func (cfg Config) withPageLimits(pageSize, rangeWidth, valueWidth int) (Config, error) {
	leafHi := 2*cfg.LeafParam - 1
	if cfg.MaxDuplicates == 0 {
		cfg.MaxDuplicates = 2 * leafHi
		if valueWidth > 0 {
			cfg.MaxDuplicates = max(1, (pageSize-leafHeader)/valueWidth)
		}
	}
	if valueWidth == 0 {
		return cfg, nil
	}

	leaf := leafHeader + max(leafHi+1, cfg.MaxDuplicates)*valueWidth
	if leaf > pageSize {
		return cfg, fmt.Errorf("%w: a full leaf needs %d bytes, page holds %d (leaf param %d, max duplicates %d)",
			ErrInvalidConfig, leaf, pageSize, cfg.LeafParam, cfg.MaxDuplicates)
	}
	if rangeWidth == 0 {
		return cfg, nil
	}
	children := 4*cfg.BranchingParam + 1
	inner := innerHeader + children*(rangeWidth+childEntry) + cfg.SamplesPerNodeHi*valueWidth
	if inner > pageSize {
		return cfg, fmt.Errorf("%w: a full inner node needs %d bytes, page holds %d (branching %d, samples hi %d)",
			ErrInvalidConfig, inner, pageSize, cfg.BranchingParam, cfg.SamplesPerNodeHi)
	}
	return cfg, nil
}

func (cfg Config) logger() zerolog.Logger {
	if cfg.Logger == nil {
		return zerolog.Nop()
	}
	return *cfg.Logger
}
