package wbtree

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"SamplingDB/types"
)

// OnDiskPager stores pages in a single index file at offset pageID*pageSize.
type OnDiskPager struct {
	file     *os.File
	filePath string
	pageSize int
	nextPage int64
	mu       sync.RWMutex
}

// NewOnDiskPager opens or creates the index file at indexPath. A
// non-positive pageSize selects types.PageSize. Reopening a file must use
// the page size it was written with.
func NewOnDiskPager(indexPath string, pageSize int) (*OnDiskPager, error) {
	if pageSize <= 0 {
		pageSize = types.PageSize
	}

	file, err := os.OpenFile(indexPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file %s: %w", indexPath, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat index file: %w", err)
	}
	if stat.Size()%int64(pageSize) != 0 {
		file.Close()
		return nil, fmt.Errorf("%w: file size %d is not a multiple of page size %d", ErrCorruptPage, stat.Size(), pageSize)
	}

	nextPage := stat.Size() / int64(pageSize)
	if nextPage == 0 {
		nextPage = 1 // page 0 is the meta page
	}

	return &OnDiskPager{
		file:     file,
		filePath: indexPath,
		pageSize: pageSize,
		nextPage: nextPage,
	}, nil
}

// ReadPage reads one page. Reading past the end of the file fails with
// ErrNotFound.
func (p *OnDiskPager) ReadPage(pageID int64) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.file == nil {
		return nil, ErrPagerClosed
	}

	page := make([]byte, p.pageSize)
	n, err := p.file.ReadAt(page, pageID*int64(p.pageSize))
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("page %d: %w", pageID, ErrNotFound)
		}
		if n == 0 {
			return nil, fmt.Errorf("failed to read page %d: %w", pageID, err)
		}
		// short tail page, the rest stays zero
	}
	return page, nil
}

func (p *OnDiskPager) WritePage(pageID int64, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrPagerClosed
	}
	if len(data) != p.pageSize {
		return fmt.Errorf("data size %d does not match page size %d", len(data), p.pageSize)
	}

	if _, err := p.file.WriteAt(data, pageID*int64(p.pageSize)); err != nil {
		return fmt.Errorf("failed to write page %d: %w", pageID, err)
	}
	if pageID >= p.nextPage {
		p.nextPage = pageID + 1
	}
	return nil
}

// AllocatePage extends the file by one zeroed page and returns its id.
func (p *OnDiskPager) AllocatePage() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return 0, ErrPagerClosed
	}

	pageID := p.nextPage
	if _, err := p.file.WriteAt(make([]byte, p.pageSize), pageID*int64(p.pageSize)); err != nil {
		return 0, fmt.Errorf("failed to allocate page %d: %w", pageID, err)
	}
	p.nextPage++
	return pageID, nil
}

// DeallocatePage zeroes the page. Freed pages are not reused.
func (p *OnDiskPager) DeallocatePage(pageID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrPagerClosed
	}
	if pageID >= p.nextPage {
		return fmt.Errorf("page %d: %w", pageID, ErrNotFound)
	}
	if _, err := p.file.WriteAt(make([]byte, p.pageSize), pageID*int64(p.pageSize)); err != nil {
		return fmt.Errorf("failed to free page %d: %w", pageID, err)
	}
	return nil
}

func (p *OnDiskPager) PageSize() int { return p.pageSize }

func (p *OnDiskPager) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrPagerClosed
	}
	return p.file.Sync()
}

func (p *OnDiskPager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return nil
	}

	if err := p.file.Sync(); err != nil {
		p.file.Close()
		p.file = nil
		return fmt.Errorf("failed to sync before close: %w", err)
	}
	err := p.file.Close()
	p.file = nil
	return err
}

func (p *OnDiskPager) TotalPages() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nextPage
}
