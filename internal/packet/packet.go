package packet

import (
	"errors"
	"fmt"

	"mcproxy/internal/wire"
)

// Packet is a canonical packet. The method set is sealed to this package.
type Packet interface {
	Kind() Kind
	marshal(e *wire.Encoder)
	unmarshal(f *wire.Fields)
}

var (
	ErrUnknownKind   = errors.New("packet: unknown kind")
	ErrTrailingBytes = errors.New("packet: trailing bytes after body")
)

// Marshal appends the canonical body of p to e. The body is independent
// of any client protocol version.
func Marshal(e *wire.Encoder, p Packet) {
	p.marshal(e)
}

// Unmarshal decodes a canonical body of kind k.
func Unmarshal(k Kind, body []byte) (Packet, error) {
	p, ok := New(k)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}
	f := wire.NewFields(body)
	p.unmarshal(f)
	if err := f.Err(); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", k, err)
	}
	if f.Remaining() != 0 {
		return nil, fmt.Errorf("decoding %s: %w (%d)", k, ErrTrailingBytes, f.Remaining())
	}
	return p, nil
}

// ── shared canonical field encodings ──────────────────────────────────

func writePosition(e *wire.Encoder, p Position) {
	e.WriteInt32(p.X)
	e.WriteInt32(p.Y)
	e.WriteInt32(p.Z)
}

func readPosition(f *wire.Fields) Position {
	return Position{X: f.I32(), Y: f.I32(), Z: f.I32()}
}

func writeSlot(e *wire.Encoder, s Slot) {
	e.WriteBool(s.Present)
	if s.Present {
		e.WriteVarInt(int32(s.Item))
		e.WriteInt8(s.Count)
	}
}

func readSlot(f *wire.Fields) Slot {
	var s Slot
	if s.Present = f.Bool(); s.Present {
		s.Item = uint32(f.VarInt())
		s.Count = f.I8()
	}
	return s
}

func writeMetadata(e *wire.Encoder, entries []MetadataEntry) {
	e.WriteVarInt(int32(len(entries)))
	for _, m := range entries {
		e.WriteUint8(m.Index)
		e.WriteUint8(uint8(m.Type))
		switch m.Type {
		case MetaByte:
			e.WriteInt8(m.Byte)
		case MetaVarInt:
			e.WriteVarInt(m.Int)
		case MetaFloat:
			e.WriteFloat32(m.Float)
		case MetaString:
			e.WriteString(m.String)
		case MetaBool:
			e.WriteBool(m.Bool)
		}
	}
}

func readMetadata(f *wire.Fields) []MetadataEntry {
	n := f.Len(256)
	if n == 0 || !f.OK() {
		return nil
	}
	out := make([]MetadataEntry, 0, n)
	for i := 0; i < n && f.OK(); i++ {
		m := MetadataEntry{Index: f.U8(), Type: MetadataType(f.U8())}
		switch m.Type {
		case MetaByte:
			m.Byte = f.I8()
		case MetaVarInt:
			m.Int = f.VarInt()
		case MetaFloat:
			m.Float = f.F32()
		case MetaString:
			m.String = f.String(0)
		case MetaBool:
			m.Bool = f.Bool()
		default:
			f.Fail(fmt.Errorf("unknown metadata type %d", m.Type))
		}
		out = append(out, m)
	}
	return out
}

// Optional slices keep nil and empty apart: a count of -1 means nil.
func writeOptBytes(e *wire.Encoder, b []byte) {
	if b == nil {
		e.WriteVarInt(-1)
		return
	}
	e.WriteByteArray(b)
}

func readOptBytes(f *wire.Fields) []byte {
	n := f.VarInt()
	if n < 0 || !f.OK() {
		return nil
	}
	return f.Raw(int(n))
}

func writeOptInt32s(e *wire.Encoder, v []int32) {
	if v == nil {
		e.WriteVarInt(-1)
		return
	}
	e.WriteVarInt(int32(len(v)))
	for _, x := range v {
		e.WriteVarInt(x)
	}
}

func readOptInt32s(f *wire.Fields) []int32 {
	n := f.VarInt()
	if n < 0 || !f.OK() {
		return nil
	}
	if n > wire.MaxArrayLen {
		f.Fail(wire.ErrArrayTooLong)
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = f.VarInt()
	}
	return out
}

func writeOptInt64s(e *wire.Encoder, v []int64) {
	if v == nil {
		e.WriteVarInt(-1)
		return
	}
	e.WriteVarInt(int32(len(v)))
	e.WriteLongs(v)
}

func readOptInt64s(f *wire.Fields) []int64 {
	n := f.VarInt()
	if n < 0 || !f.OK() {
		return nil
	}
	return f.Longs(int(n))
}
