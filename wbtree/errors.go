package wbtree

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("node not found")
	ErrPagerClosed        = errors.New("pager is closed")
	ErrNodeTooLarge       = errors.New("node does not fit into a page")
	ErrKeyOutsideUniverse = errors.New("key outside the tree universe")
	ErrDuplicateOverflow  = errors.New("too many values with the same key")
	ErrInvalidConfig      = errors.New("invalid tree configuration")
	ErrCorruptPage        = errors.New("corrupt page")
	ErrBadMeta            = errors.New("bad meta page")
	ErrPinned             = errors.New("node is pinned")
	ErrInvariant          = errors.New("tree invariant violated")
	ErrReadOnly           = errors.New("tree is opened read-only")
)

// invariantf reports a broken structural invariant. These are defects in
// the tree code, not conditions callers can recover from.
func invariantf(format string, args ...any) {
	panic(fmt.Sprintf("wbtree: invariant violated: "+format, args...))
}
