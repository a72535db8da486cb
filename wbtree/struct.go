// Structure of the weight-balanced sampling tree
/*
Tree
 ├── Inner Node (ranges + child ids + child weights + optional sample buffer)
 │      └── Child Inner Nodes ...
 │             └── Leaf Nodes (values sorted by key)

- ranges of an inner node are disjoint, ascending, and cover the node's range
- childWeights[i] is the number of values below children[i]
- leaves are level 0; every leaf has the same depth
- an inner node keeps a sample buffer exactly while its weight exceeds
  SamplesPerNodeHi
*/
package wbtree

import (
	"cmp"
	"sync"

	"github.com/rs/zerolog"

	"SamplingDB/randoms"
	"SamplingDB/types"
)

type NodeType uint8

const (
	NodeInner NodeType = iota
	NodeLeaf
)

func (t NodeType) String() string {
	if t == NodeLeaf {
		return "LEAF"
	}
	return "INNER"
}

type Node[K cmp.Ordered, V any] struct {
	id       int64
	nodeType NodeType

	// inner nodes
	ranges       []types.Interval[K]
	children     []int64
	childWeights []uint64
	samples      []V
	buffered     bool

	// leaf nodes
	values []V
}

// Schema tells the tree how to key and serialize its values.
type Schema[K cmp.Ordered, V any] struct {
	KeyOf      func(V) K
	KeyCodec   types.Codec[K]
	ValueCodec types.Codec[V]
}

// Int64Schema stores bare int64 keys.
func Int64Schema() Schema[int64, int64] {
	return Schema[int64, int64]{
		KeyOf:      func(v int64) int64 { return v },
		KeyCodec:   types.Int64Codec{},
		ValueCodec: types.Int64Codec{},
	}
}

type Tree[K cmp.Ordered, V any] struct {
	root     int64 // 0 while the tree is empty
	height   int   // level of the root, leaves are level 0
	weight   uint64
	universe types.Interval[K]

	cfg    Config
	leafLo int
	leafHi int

	schema Schema[K, V]
	pager  Pager
	pool   *BufferPool[K, V]
	rng    *randoms.Rand
	log    zerolog.Logger
	mu     sync.RWMutex
}
