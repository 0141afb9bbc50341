package wire

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"
)

// Encoder builds a packet body by appending to a byte slice. It never
// fails; range checks belong to the codec that chooses the field types.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder with room for size bytes.
func NewEncoder(size int) *Encoder {
	return &Encoder{buf: make([]byte, 0, size)}
}

// Bytes returns the encoded body. The slice aliases the encoder.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.buf) }

// Reset empties the encoder and keeps its capacity.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

func (e *Encoder) WriteVarInt(v int32)  { e.buf = AppendVarInt(e.buf, v) }
func (e *Encoder) WriteVarLong(v int64) { e.buf = AppendVarLong(e.buf, v) }
func (e *Encoder) WriteUint8(v uint8)   { e.buf = append(e.buf, v) }
func (e *Encoder) WriteInt8(v int8)     { e.buf = append(e.buf, byte(v)) }

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

func (e *Encoder) WriteUint16(v uint16) { e.buf = binary.BigEndian.AppendUint16(e.buf, v) }
func (e *Encoder) WriteInt16(v int16)   { e.WriteUint16(uint16(v)) }
func (e *Encoder) WriteInt32(v int32)   { e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(v)) }
func (e *Encoder) WriteInt64(v int64)   { e.buf = binary.BigEndian.AppendUint64(e.buf, uint64(v)) }

func (e *Encoder) WriteFloat32(v float32) {
	e.buf = binary.BigEndian.AppendUint32(e.buf, math.Float32bits(v))
}
func (e *Encoder) WriteFloat64(v float64) {
	e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(v))
}

// WriteString writes a VarInt byte length followed by UTF-8 bytes.
func (e *Encoder) WriteString(s string) {
	e.WriteVarInt(int32(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteUUID writes the 16 raw bytes of id.
func (e *Encoder) WriteUUID(id uuid.UUID) { e.buf = append(e.buf, id[:]...) }

// WriteByteArray writes a VarInt length followed by b.
func (e *Encoder) WriteByteArray(b []byte) {
	e.WriteVarInt(int32(len(b)))
	e.buf = append(e.buf, b...)
}

// WriteRaw appends b with no length prefix.
func (e *Encoder) WriteRaw(b []byte) { e.buf = append(e.buf, b...) }

// WriteLongs writes each value as a big-endian int64 with no prefix.
func (e *Encoder) WriteLongs(v []int64) {
	for _, l := range v {
		e.WriteInt64(l)
	}
}
