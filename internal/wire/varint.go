// Package wire implements the transport layer shared by client streams and
// the backend link: VarInt length-prefixed framing, threshold compression,
// whole-stream encryption and the field primitives packets are built from.
// It knows nothing about what a packet means.
package wire

import (
	"errors"
	"math"
)

// MaxVarIntLen is the longest VarInt accepted on the wire.
const MaxVarIntLen = 5

// MaxVarLongLen is the longest VarLong accepted on the wire.
const MaxVarLongLen = 10

var (
	// ErrVarIntTooBig is returned for a VarInt longer than five bytes or
	// carrying a value of 2^32 or more.
	ErrVarIntTooBig = errors.New("wire: varint exceeds 5 bytes")
	// ErrVarLongTooBig is returned for a VarLong longer than ten bytes.
	ErrVarLongTooBig = errors.New("wire: varlong exceeds 10 bytes")
	// ErrNeedMore signals an incomplete value or frame. It is not a
	// failure: the caller must buffer more input and retry.
	ErrNeedMore = errors.New("wire: need more data")
)

// AppendVarInt appends v as a VarInt. Negative values use their two's
// complement and always take five bytes.
func AppendVarInt(b []byte, v int32) []byte {
	u := uint32(v)
	for u >= 0x80 {
		b = append(b, byte(u)|0x80)
		u >>= 7
	}
	return append(b, byte(u))
}

// AppendUvarint32 appends v as a VarInt, rejecting values that do not fit
// in five bytes.
func AppendUvarint32(b []byte, v uint64) ([]byte, error) {
	if v > math.MaxUint32 {
		return b, ErrVarIntTooBig
	}
	return AppendVarInt(b, int32(uint32(v))), nil
}

// VarIntSize returns the encoded length of v.
func VarIntSize(v int32) int {
	u := uint32(v)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}
	return n
}

// DecodeVarInt reads a VarInt from the front of b. It returns the value
// and the number of bytes consumed, ErrNeedMore when b ends mid-value, or
// ErrVarIntTooBig.
func DecodeVarInt(b []byte) (int32, int, error) {
	var v uint32
	for i := 0; i < MaxVarIntLen; i++ {
		if i >= len(b) {
			return 0, 0, ErrNeedMore
		}
		c := b[i]
		if i == MaxVarIntLen-1 && c > 0x0f {
			// Fifth byte may only carry the top four bits.
			return 0, 0, ErrVarIntTooBig
		}
		v |= uint32(c&0x7f) << (7 * i)
		if c&0x80 == 0 {
			return int32(v), i + 1, nil
		}
	}
	return 0, 0, ErrVarIntTooBig
}

// AppendVarLong appends v as a VarLong.
func AppendVarLong(b []byte, v int64) []byte {
	u := uint64(v)
	for u >= 0x80 {
		b = append(b, byte(u)|0x80)
		u >>= 7
	}
	return append(b, byte(u))
}

// DecodeVarLong reads a VarLong from the front of b.
func DecodeVarLong(b []byte) (int64, int, error) {
	var v uint64
	for i := 0; i < MaxVarLongLen; i++ {
		if i >= len(b) {
			return 0, 0, ErrNeedMore
		}
		c := b[i]
		if i == MaxVarLongLen-1 && c > 0x01 {
			return 0, 0, ErrVarLongTooBig
		}
		v |= uint64(c&0x7f) << (7 * i)
		if c&0x80 == 0 {
			return int64(v), i + 1, nil
		}
	}
	return 0, 0, ErrVarLongTooBig
}
