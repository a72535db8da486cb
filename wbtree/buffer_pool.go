package wbtree

import (
	"cmp"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog"
)

// BufferPool is the node store of the tree. It decodes pages through the
// pager and keeps decoded nodes in memory:
//   - pinned nodes live in a pin table with a pin count and are never evicted
//   - unpinned nodes live in a ristretto cache bounded by capacity
//
// Writes go straight through to the pager, so the pool never holds dirty
// state and eviction needs no write-back.
type BufferPool[K cmp.Ordered, V any] struct {
	mu       sync.Mutex
	pinned   map[int64]*pinnedNode[K, V]
	cache    *ristretto.Cache[int64, *Node[K, V]]
	capacity int
	pager    Pager
	codec    nodeCodec[K, V]
	log      zerolog.Logger
	stats    PoolStats
}

type pinnedNode[K cmp.Ordered, V any] struct {
	node   *Node[K, V]
	pincnt int
}

// PoolStats counts node store traffic.
type PoolStats struct {
	Hits   uint64
	Misses uint64
	Writes uint64
}

func NewBufferPool[K cmp.Ordered, V any](capacity int, pager Pager, schema Schema[K, V], log zerolog.Logger) (*BufferPool[K, V], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: buffer pool capacity %d", ErrInvalidConfig, capacity)
	}
	log = log.With().Str("component", "bufferpool").Logger()

	cache, err := ristretto.NewCache(&ristretto.Config[int64, *Node[K, V]]{
		NumCounters:        int64(capacity) * 10,
		MaxCost:            int64(capacity),
		BufferItems:        64,
		IgnoreInternalCost: true,
		OnEvict: func(item *ristretto.Item[*Node[K, V]]) {
			log.Debug().Int64("node", item.Value.id).Msg("evicted")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create node cache: %w", err)
	}

	return &BufferPool[K, V]{
		pinned:   make(map[int64]*pinnedNode[K, V]),
		cache:    cache,
		capacity: capacity,
		pager:    pager,
		codec:    newNodeCodec(schema, pager.PageSize()),
		log:      log,
	}, nil
}

// Get returns the node stored under id, reading and decoding its page on a
// miss. With pin set the node is pinned and must be released with Unpin.
func (bp *BufferPool[K, V]) Get(id int64, pin bool) (*Node[K, V], error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if id <= 0 {
		return nil, fmt.Errorf("node %d: %w", id, ErrNotFound)
	}

	if p, ok := bp.pinned[id]; ok {
		bp.stats.Hits++
		if pin {
			p.pincnt++
		}
		return p.node, nil
	}

	node, ok := bp.cache.Get(id)
	if ok {
		bp.stats.Hits++
	} else {
		bp.stats.Misses++
		bp.log.Debug().Int64("node", id).Msg("miss")

		page, err := bp.pager.ReadPage(id)
		if err != nil {
			return nil, fmt.Errorf("failed to read node %d: %w", id, err)
		}
		node, err = bp.codec.decode(page, id)
		if err != nil {
			return nil, fmt.Errorf("failed to decode node %d: %w", id, err)
		}
		bp.cacheNode(node)
	}

	if pin {
		bp.pinned[id] = &pinnedNode[K, V]{node: node, pincnt: 1}
	}
	return node, nil
}

// Reserve allocates an id for a node whose content is written later with
// Update.
func (bp *BufferPool[K, V]) Reserve() (int64, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	id, err := bp.pager.AllocatePage()
	if err != nil {
		return 0, fmt.Errorf("failed to reserve node id: %w", err)
	}
	return id, nil
}

// Insert stores a new node and returns its id.
func (bp *BufferPool[K, V]) Insert(node *Node[K, V]) (int64, error) {
	id, err := bp.Reserve()
	if err != nil {
		return 0, err
	}
	if err := bp.Update(id, node); err != nil {
		return 0, err
	}
	return id, nil
}

// Update writes node under id.
func (bp *BufferPool[K, V]) Update(id int64, node *Node[K, V]) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	node.id = id
	page, err := bp.codec.encode(node)
	if err != nil {
		return err
	}
	if err := bp.pager.WritePage(id, page); err != nil {
		return fmt.Errorf("failed to write node %d: %w", id, err)
	}
	bp.stats.Writes++

	if p, ok := bp.pinned[id]; ok {
		p.node = node
		return nil
	}
	bp.cacheNode(node)
	return nil
}

// Remove deletes the node stored under id. Pinned nodes cannot be removed.
func (bp *BufferPool[K, V]) Remove(id int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if _, ok := bp.pinned[id]; ok {
		return fmt.Errorf("cannot remove node %d: %w", id, ErrPinned)
	}
	bp.cache.Del(id)
	if err := bp.pager.DeallocatePage(id); err != nil {
		return fmt.Errorf("failed to free node %d: %w", id, err)
	}
	return nil
}

// Unpin releases one pin on id. The node moves back to the cache once its
// pin count drops to zero.
func (bp *BufferPool[K, V]) Unpin(id int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	p, ok := bp.pinned[id]
	if !ok {
		return fmt.Errorf("node %d is not pinned", id)
	}
	p.pincnt--
	if p.pincnt == 0 {
		delete(bp.pinned, id)
		bp.cacheNode(p.node)
	}
	return nil
}

func (bp *BufferPool[K, V]) UnpinAll(ids []int64) error {
	var errs []error
	for _, id := range ids {
		if err := bp.Unpin(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pinned returns the number of outstanding pins.
func (bp *BufferPool[K, V]) Pinned() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	total := 0
	for _, p := range bp.pinned {
		total += p.pincnt
	}
	return total
}

// Flush forces written pages to stable storage.
func (bp *BufferPool[K, V]) Flush() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.pager.Sync()
}

func (bp *BufferPool[K, V]) Stats() PoolStats {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.stats
}

func (bp *BufferPool[K, V]) Capacity() int { return bp.capacity }

func (bp *BufferPool[K, V]) PageSize() int { return bp.codec.pageSize }

// Close drops every cached node. The pager stays open.
func (bp *BufferPool[K, V]) Close() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.pinned = make(map[int64]*pinnedNode[K, V])
	bp.cache.Close()
}

// cacheNode assumes bp.mu is held. Wait makes the set visible to the next
// Get so a stale page image is never served after an Update.
func (bp *BufferPool[K, V]) cacheNode(node *Node[K, V]) {
	bp.cache.Set(node.id, node, 1)
	bp.cache.Wait()
}
