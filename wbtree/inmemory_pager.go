package wbtree

import (
	"fmt"
	"sync"

	"SamplingDB/types"
)

type InMemoryPager struct {
	pages    map[int64][]byte
	nextPage int64
	pageSize int
	mu       sync.RWMutex
	closed   bool
}

func NewInMemoryPager() *InMemoryPager {
	return NewInMemoryPagerSize(types.PageSize)
}

// NewInMemoryPagerSize creates an in-memory pager with pages of the given
// size. Non-positive sizes fall back to types.PageSize.
func NewInMemoryPagerSize(pageSize int) *InMemoryPager {
	if pageSize <= 0 {
		pageSize = types.PageSize
	}
	return &InMemoryPager{
		pages:    make(map[int64][]byte),
		nextPage: 1,
		pageSize: pageSize,
	}
}

func (p *InMemoryPager) ReadPage(pageID int64) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPagerClosed
	}

	data, ok := p.pages[pageID]
	if !ok {
		return nil, fmt.Errorf("page %d: %w", pageID, ErrNotFound)
	}

	// callers must go through WritePage to change a page
	out := make([]byte, p.pageSize)
	copy(out, data)
	return out, nil
}

func (p *InMemoryPager) WritePage(pageID int64, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPagerClosed
	}
	if len(data) != p.pageSize {
		return fmt.Errorf("data size %d does not match page size %d", len(data), p.pageSize)
	}

	dest := make([]byte, p.pageSize)
	copy(dest, data)
	p.pages[pageID] = dest
	return nil
}

func (p *InMemoryPager) AllocatePage() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPagerClosed
	}

	id := p.nextPage
	p.nextPage++
	p.pages[id] = make([]byte, p.pageSize)
	return id, nil
}

func (p *InMemoryPager) DeallocatePage(pageID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPagerClosed
	}
	delete(p.pages, pageID)
	return nil
}

func (p *InMemoryPager) PageSize() int { return p.pageSize }

func (p *InMemoryPager) Sync() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPagerClosed
	}
	return nil
}

func (p *InMemoryPager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.pages = nil
	p.closed = true
	return nil
}

func (p *InMemoryPager) TotalPages() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nextPage
}
