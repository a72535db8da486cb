package types

const (
	PageSize   = 4096 // 4KB page
	MetaPageID = 0    // page 0 holds tree metadata, never a node
)
