package wbtree

// Pager is the persistence abstraction underneath the buffer pool. It hands
// out fixed-size pages addressed by id. Page 0 is reserved for the tree's
// meta data and is never returned by AllocatePage.
type Pager interface {
	ReadPage(pageID int64) ([]byte, error)
	WritePage(pageID int64, data []byte) error
	AllocatePage() (int64, error)
	DeallocatePage(pageID int64) error
	PageSize() int
	Sync() error
	Close() error
}
