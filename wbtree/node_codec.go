package wbtree

import (
	"cmp"
	"encoding/binary"
	"fmt"

	"SamplingDB/types"
)

// Page tags. A zeroed page carries tagFree.
const (
	tagFree  byte = 0
	tagLeaf  byte = 1
	tagInner byte = 2
)

// nodeCodec serializes nodes into fixed-size pages.
// Format:
//   - tag (1 byte)
//   - leaf:  count(4), values
//   - inner: count(4), ranges, child ids (8 each), child weights (8 each),
//     sample count(4), samples
//
// A sample count of 0xFFFFFFFF marks an inner node without a buffer.
type nodeCodec[K cmp.Ordered, V any] struct {
	ranges   types.IntervalCodec[K]
	values   types.Codec[V]
	pageSize int
}

const noBuffer = ^uint32(0)

func newNodeCodec[K cmp.Ordered, V any](schema Schema[K, V], pageSize int) nodeCodec[K, V] {
	return nodeCodec[K, V]{
		ranges:   types.IntervalCodec[K]{Key: schema.KeyCodec},
		values:   schema.ValueCodec,
		pageSize: pageSize,
	}
}

func (c nodeCodec[K, V]) encode(n *Node[K, V]) ([]byte, error) {
	buf := make([]byte, 0, c.pageSize)

	if n.nodeType == NodeLeaf {
		buf = append(buf, tagLeaf)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(n.values)))
		for _, v := range n.values {
			buf = c.values.Append(buf, v)
		}
	} else {
		buf = append(buf, tagInner)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(n.children)))
		for _, r := range n.ranges {
			buf = c.ranges.Append(buf, r)
		}
		for _, id := range n.children {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(id))
		}
		for _, w := range n.childWeights {
			buf = binary.LittleEndian.AppendUint64(buf, w)
		}
		if !n.buffered {
			buf = binary.LittleEndian.AppendUint32(buf, noBuffer)
		} else {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(n.samples)))
			for _, s := range n.samples {
				buf = c.values.Append(buf, s)
			}
		}
	}

	if len(buf) > c.pageSize {
		return nil, fmt.Errorf("%w: node %d needs %d bytes, page holds %d", ErrNodeTooLarge, n.id, len(buf), c.pageSize)
	}
	return buf[:c.pageSize], nil
}

func (c nodeCodec[K, V]) decode(page []byte, pageID int64) (*Node[K, V], error) {
	if len(page) != c.pageSize {
		return nil, fmt.Errorf("page size mismatch: expected %d, got %d", c.pageSize, len(page))
	}

	r := pageReader{buf: page, off: 1, pageID: pageID}
	switch page[0] {
	case tagFree:
		return nil, fmt.Errorf("page %d is free: %w", pageID, ErrNotFound)
	case tagLeaf:
		count := r.uint32()
		n := newLeaf[K, V](min(int(count), c.pageSize))
		n.id = pageID
		for i := uint32(0); i < count && r.err == nil; i++ {
			n.values = append(n.values, readValue(&r, c.values))
		}
		return n, r.err
	case tagInner:
		count := int(r.uint32())
		if r.err == nil && count > c.pageSize/16 {
			return nil, fmt.Errorf("%w: page %d claims %d children", ErrCorruptPage, pageID, count)
		}
		n := newInner[K, V]()
		n.id = pageID
		n.ranges = make([]types.Interval[K], 0, count)
		n.children = make([]int64, 0, count)
		n.childWeights = make([]uint64, 0, count)
		for i := 0; i < count && r.err == nil; i++ {
			n.ranges = append(n.ranges, readValue(&r, types.Codec[types.Interval[K]](c.ranges)))
		}
		for i := 0; i < count && r.err == nil; i++ {
			n.children = append(n.children, int64(r.uint64()))
		}
		for i := 0; i < count && r.err == nil; i++ {
			n.childWeights = append(n.childWeights, r.uint64())
		}
		if samples := r.uint32(); r.err == nil && samples != noBuffer {
			n.buffered = true
			n.samples = make([]V, 0, min(int(samples), c.pageSize))
			for i := uint32(0); i < samples && r.err == nil; i++ {
				n.samples = append(n.samples, readValue(&r, c.values))
			}
		}
		return n, r.err
	default:
		return nil, fmt.Errorf("%w: page %d has unknown tag %d", ErrCorruptPage, pageID, page[0])
	}
}

// pageReader walks a page and keeps the first error.
type pageReader struct {
	buf    []byte
	off    int
	pageID int64
	err    error
}

func (r *pageReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.off+n > len(r.buf) {
		r.err = fmt.Errorf("%w: page %d truncated at offset %d", ErrCorruptPage, r.pageID, r.off)
		return false
	}
	return true
}

func (r *pageReader) uint16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *pageReader) uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *pageReader) uint64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func readValue[T any](r *pageReader, c types.Codec[T]) T {
	var zero T
	if r.err != nil {
		return zero
	}
	v, n, err := c.Decode(r.buf[r.off:])
	if err != nil {
		r.err = fmt.Errorf("%w: page %d offset %d: %v", ErrCorruptPage, r.pageID, r.off, err)
		return zero
	}
	r.off += n
	return v
}
