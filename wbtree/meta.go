package wbtree

import (
	"cmp"
	"encoding/binary"
	"fmt"

	"SamplingDB/types"
)

// Meta page layout (page 0):
//   - magic "WBST", version(2)
//   - b, L, samples lo, samples hi, replenish target, max duplicates (4 each)
//   - root id(8), height(4), weight(8)
//   - universe interval
//   - generator state length(2) + state
const (
	metaMagic   = "WBST"
	metaVersion = 1
)

type meta[K cmp.Ordered] struct {
	cfg      Config
	root     int64
	height   int
	weight   uint64
	universe types.Interval[K]
	rngState []byte
}

// saveMeta persists the root, the parameters and the generator state.
// Called after every change of the root and on Sync/Close.
func (t *Tree[K, V]) saveMeta() error {
	state, err := t.rng.MarshalBinary()
	if err != nil {
		return fmt.Errorf("saveMeta: %w", err)
	}

	buf := make([]byte, 0, t.pager.PageSize())
	buf = append(buf, metaMagic...)
	buf = binary.LittleEndian.AppendUint16(buf, metaVersion)
	for _, p := range []int{
		t.cfg.BranchingParam, t.cfg.LeafParam,
		t.cfg.SamplesPerNodeLo, t.cfg.SamplesPerNodeHi,
		t.cfg.ReplenishTarget, t.cfg.MaxDuplicates,
	} {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(p))
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(t.root))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(t.height))
	buf = binary.LittleEndian.AppendUint64(buf, t.weight)
	buf = types.IntervalCodec[K]{Key: t.schema.KeyCodec}.Append(buf, t.universe)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(state)))
	buf = append(buf, state...)

	if len(buf) > t.pager.PageSize() {
		return fmt.Errorf("saveMeta: %w: meta needs %d bytes", ErrNodeTooLarge, len(buf))
	}
	if err := t.pager.WritePage(types.MetaPageID, buf[:t.pager.PageSize()]); err != nil {
		return fmt.Errorf("saveMeta: failed to persist meta page: %w", err)
	}
	return nil
}

func loadMeta[K cmp.Ordered](pager Pager, keys types.Codec[K]) (meta[K], error) {
	var m meta[K]

	page, err := pager.ReadPage(types.MetaPageID)
	if err != nil {
		return m, fmt.Errorf("%w: %v", ErrBadMeta, err)
	}
	if len(page) < len(metaMagic)+2 || string(page[:len(metaMagic)]) != metaMagic {
		return m, fmt.Errorf("%w: missing magic", ErrBadMeta)
	}

	r := pageReader{buf: page, off: len(metaMagic), pageID: types.MetaPageID}
	if v := r.uint16(); v != metaVersion {
		return m, fmt.Errorf("%w: unsupported version %d", ErrBadMeta, v)
	}
	params := make([]int, 6)
	for i := range params {
		params[i] = int(r.uint32())
	}
	m.cfg = Config{
		BranchingParam:   params[0],
		LeafParam:        params[1],
		SamplesPerNodeLo: params[2],
		SamplesPerNodeHi: params[3],
		ReplenishTarget:  params[4],
		MaxDuplicates:    params[5],
	}
	m.root = int64(r.uint64())
	m.height = int(r.uint32())
	m.weight = r.uint64()
	m.universe = readValue(&r, types.Codec[types.Interval[K]](types.IntervalCodec[K]{Key: keys}))
	if n := int(r.uint16()); r.need(n) {
		m.rngState = append([]byte(nil), page[r.off:r.off+n]...)
		r.off += n
	}
	if r.err != nil {
		return m, fmt.Errorf("%w: %v", ErrBadMeta, r.err)
	}
	return m, nil
}
