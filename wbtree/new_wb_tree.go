package wbtree

import (
	"cmp"
	"errors"
	"fmt"

	"SamplingDB/randoms"
	"SamplingDB/types"
)

// New creates an empty tree over universe that stores its nodes through
// pager. Any tree previously stored in the pager is overwritten.
func New[K cmp.Ordered, V any](pager Pager, schema Schema[K, V], universe types.Interval[K], cfg Config) (*Tree[K, V], error) {
	if universe.IsEmpty() {
		return nil, fmt.Errorf("%w: empty universe %s", ErrInvalidConfig, universe)
	}
	if cfg.ReadOnly {
		return nil, fmt.Errorf("%w: a new tree cannot be read-only", ErrInvalidConfig)
	}
	t, err := newTree(pager, schema, cfg)
	if err != nil {
		return nil, err
	}
	t.universe = universe
	t.rng = randoms.New(t.cfg.Seed)

	if err := t.saveMeta(); err != nil {
		t.pool.Close()
		return nil, err
	}
	t.log.Debug().Str("universe", universe.String()).
		Int("b", t.cfg.BranchingParam).Int("L", t.cfg.LeafParam).Msg("new tree")
	return t, nil
}

// Open loads the tree stored in pager. Tuning parameters, universe and the
// generator state come from the meta page; cfg only supplies CacheCapacity
// and Logger.
func Open[K cmp.Ordered, V any](pager Pager, schema Schema[K, V], cfg Config) (*Tree[K, V], error) {
	if err := validateSchema(schema); err != nil {
		return nil, err
	}
	m, err := loadMeta(pager, schema.KeyCodec)
	if err != nil {
		return nil, err
	}

	stored := m.cfg
	stored.CacheCapacity = cfg.CacheCapacity
	stored.Logger = cfg.Logger
	stored.ReadOnly = cfg.ReadOnly
	t, err := newTree(pager, schema, stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMeta, err)
	}

	t.root, t.height, t.weight, t.universe = m.root, m.height, m.weight, m.universe
	t.rng = randoms.New(0)
	if err := t.rng.UnmarshalBinary(m.rngState); err != nil {
		t.pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrBadMeta, err)
	}
	t.log.Debug().Int64("root", t.root).Int("height", t.height).Uint64("weight", t.weight).Msg("opened tree")
	return t, nil
}

func newTree[K cmp.Ordered, V any](pager Pager, schema Schema[K, V], cfg Config) (*Tree[K, V], error) {
	if err := validateSchema(schema); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rangeWidth, _ := types.WidthOf(types.IntervalCodec[K]{Key: schema.KeyCodec})
	valueWidth, _ := types.WidthOf(schema.ValueCodec)
	cfg, err := cfg.normalized().withPageLimits(pager.PageSize(), rangeWidth, valueWidth)
	if err != nil {
		return nil, err
	}
	log := cfg.logger().With().Str("component", "wbtree").Logger()

	pool, err := NewBufferPool(cfg.CacheCapacity, pager, schema, cfg.logger())
	if err != nil {
		return nil, err
	}
	return &Tree[K, V]{
		cfg:    cfg,
		leafLo: cfg.LeafParam / 2,
		leafHi: 2*cfg.LeafParam - 1,
		schema: schema,
		pager:  pager,
		pool:   pool,
		log:    log,
	}, nil
}

func validateSchema[K cmp.Ordered, V any](schema Schema[K, V]) error {
	switch {
	case schema.KeyOf == nil:
		return fmt.Errorf("%w: schema has no key function", ErrInvalidConfig)
	case schema.KeyCodec == nil || schema.ValueCodec == nil:
		return fmt.Errorf("%w: schema needs key and value codecs", ErrInvalidConfig)
	}
	return nil
}

func (t *Tree[K, V]) Height() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.height
}

// TotalWeight is the number of values stored in the tree.
func (t *Tree[K, V]) TotalWeight() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.weight
}

func (t *Tree[K, V]) Universe() types.Interval[K] { return t.universe }

func (t *Tree[K, V]) Config() Config { return t.cfg }

func (t *Tree[K, V]) Pool() *BufferPool[K, V] { return t.pool }

// Rand returns a copy of the tree's generator at its current state.
func (t *Tree[K, V]) Rand() *randoms.Rand {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rng.Clone()
}

// SetRand replaces the tree's generator. Cursors opened afterwards and all
// later inserts draw from r.
func (t *Tree[K, V]) SetRand(r *randoms.Rand) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rng = r
}

// Sync persists the meta page and flushes the pager.
func (t *Tree[K, V]) Sync() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg.ReadOnly {
		return ErrReadOnly
	}
	if err := t.saveMeta(); err != nil {
		return err
	}
	return t.pool.Flush()
}

// Close syncs the tree, releases the node cache and closes the pager. A
// read-only tree writes nothing.
func (t *Tree[K, V]) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	if !t.cfg.ReadOnly {
		err = t.saveMeta()
		if err == nil {
			err = t.pool.Flush()
		}
	}
	t.pool.Close()
	if cerr := t.pager.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}

// ipow returns b^l.
func ipow(b, l int) uint64 {
	r := uint64(1)
	for range l {
		r *= uint64(b)
	}
	return r
}

// weightHi is the largest weight an inner node at level may carry.
func (t *Tree[K, V]) weightHi(level int) uint64 {
	return 2 * ipow(t.cfg.BranchingParam, level) * uint64(t.cfg.LeafParam)
}

// weightLo is the exclusive lower weight bound of a non-root inner node.
func (t *Tree[K, V]) weightLo(level int) float64 {
	return 0.5 * float64(ipow(t.cfg.BranchingParam, level)) * float64(t.cfg.LeafParam)
}

func (t *Tree[K, V]) keyOf(v V) K { return t.schema.KeyOf(v) }
