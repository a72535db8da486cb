package types

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var ErrShortBuffer = errors.New("short buffer")

// Codec converts values of one type to and from their on-page form.
type Codec[T any] interface {
	// Append writes the encoding of v to the end of buf.
	Append(buf []byte, v T) []byte
	// Decode reads one value from the front of buf and returns the number
	// of bytes it consumed.
	Decode(buf []byte) (T, int, error)
}

// FixedWidth is implemented by codecs whose encodings all have the same
// length. Width returns 0 when the length depends on the value.
type FixedWidth interface {
	Width() int
}

// WidthOf returns the encoded length of every value of c, if it is fixed.
func WidthOf(c any) (int, bool) {
	fw, ok := c.(FixedWidth)
	if !ok || fw.Width() <= 0 {
		return 0, false
	}
	return fw.Width(), true
}

type Int64Codec struct{}

func (Int64Codec) Width() int { return 8 }

func (Int64Codec) Append(buf []byte, v int64) []byte {
	return binary.LittleEndian.AppendUint64(buf, uint64(v))
}

func (Int64Codec) Decode(buf []byte) (int64, int, error) {
	if len(buf) < 8 {
		return 0, 0, fmt.Errorf("int64: %w", ErrShortBuffer)
	}
	return int64(binary.LittleEndian.Uint64(buf)), 8, nil
}

type Uint64Codec struct{}

func (Uint64Codec) Width() int { return 8 }

func (Uint64Codec) Append(buf []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(buf, v)
}

func (Uint64Codec) Decode(buf []byte) (uint64, int, error) {
	if len(buf) < 8 {
		return 0, 0, fmt.Errorf("uint64: %w", ErrShortBuffer)
	}
	return binary.LittleEndian.Uint64(buf), 8, nil
}

type Float64Codec struct{}

func (Float64Codec) Width() int { return 8 }

func (Float64Codec) Append(buf []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
}

func (Float64Codec) Decode(buf []byte) (float64, int, error) {
	if len(buf) < 8 {
		return 0, 0, fmt.Errorf("float64: %w", ErrShortBuffer)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), 8, nil
}

// StringCodec stores a uint16 length followed by the raw bytes.
type StringCodec struct{}

func (StringCodec) Append(buf []byte, v string) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(v)))
	return append(buf, v...)
}

func (StringCodec) Decode(buf []byte) (string, int, error) {
	if len(buf) < 2 {
		return "", 0, fmt.Errorf("string length: %w", ErrShortBuffer)
	}
	n := int(binary.LittleEndian.Uint16(buf))
	if len(buf) < 2+n {
		return "", 0, fmt.Errorf("string of %d bytes: %w", n, ErrShortBuffer)
	}
	return string(buf[2 : 2+n]), 2 + n, nil
}

// IntervalCodec encodes lo, hi and one flag byte per border.
type IntervalCodec[K cmp.Ordered] struct {
	Key Codec[K]
}

// Width is fixed when the key codec is.
func (c IntervalCodec[K]) Width() int {
	if w, ok := WidthOf(c.Key); ok {
		return 2*w + 2
	}
	return 0
}

func (c IntervalCodec[K]) Append(buf []byte, iv Interval[K]) []byte {
	buf = c.Key.Append(buf, iv.Lo)
	buf = append(buf, boolByte(iv.LoIn))
	buf = c.Key.Append(buf, iv.Hi)
	return append(buf, boolByte(iv.HiIn))
}

func (c IntervalCodec[K]) Decode(buf []byte) (Interval[K], int, error) {
	var iv Interval[K]
	off := 0

	lo, n, err := c.Key.Decode(buf)
	if err != nil {
		return iv, 0, fmt.Errorf("interval lo: %w", err)
	}
	off += n
	if len(buf) <= off {
		return iv, 0, fmt.Errorf("interval lo flag: %w", ErrShortBuffer)
	}
	iv.Lo, iv.LoIn = lo, buf[off] == 1
	off++

	hi, n, err := c.Key.Decode(buf[off:])
	if err != nil {
		return iv, 0, fmt.Errorf("interval hi: %w", err)
	}
	off += n
	if len(buf) <= off {
		return iv, 0, fmt.Errorf("interval hi flag: %w", ErrShortBuffer)
	}
	iv.Hi, iv.HiIn = hi, buf[off] == 1
	off++

	return iv, off, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
