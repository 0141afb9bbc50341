package codec

import (
	"fmt"
	"math"
	"unicode/utf8"

	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/packet"
	"mcproxy/internal/registry"
	"mcproxy/internal/state"
	"mcproxy/internal/wire"
)

// reader decodes one packet body. Malformed input fails the embedded
// Fields; gap and bad hold the first translation gap and violation.
type reader struct {
	*wire.Fields
	c    *Codec
	st   state.State
	kind packet.Kind
	diag *Diagnostics
	gap  error
	bad  error
}

func (r *reader) drop(field, reason string) {
	r.diag.record(Drop{Version: r.c.version.Name, Packet: r.kind.String(), Field: field, Reason: reason})
}

func (r *reader) gapf(field, format string, args ...any) {
	if r.gap == nil {
		r.gap = &ncerr.TranslationGap{
			Version: r.c.version.Name,
			Packet:  r.kind.String(),
			Field:   field,
			Reason:  fmt.Sprintf(format, args...),
		}
	}
}

func (r *reader) violate(reason string) {
	if r.bad == nil {
		r.bad = ncerr.Violation(r.st.String(), r.kind.String(), reason)
	}
}

// writer encodes one packet body for the codec's version.
type writer struct {
	*wire.Encoder
	c    *Codec
	kind packet.Kind
	gap  error
}

func (w *writer) gapf(field, format string, args ...any) {
	if w.gap == nil {
		w.gap = &ncerr.TranslationGap{
			Version: w.c.version.Name,
			Packet:  w.kind.String(),
			Field:   field,
			Reason:  fmt.Sprintf(format, args...),
		}
	}
}

// ── version switches ────────────────────────────────────────────────

func (c *Codec) is1_8() bool  { return c.version.Blocks == registry.Blocks1_8 }
func (c *Codec) is1_14() bool { return c.version.Blocks == registry.Blocks1_14 }

// Plugin channel names before 1.13 were not namespaced.
func (c *Codec) legacyChannels() bool { return c.version.Blocks != registry.Blocks1_14 }

func (c *Codec) chatLimit() int {
	if c.is1_8() {
		return 100
	}
	return 256
}

// ── positions ───────────────────────────────────────────────────────

func (r *reader) position() packet.Position {
	v := r.I64()
	if r.c.is1_14() {
		return packet.Position{X: int32(v >> 38), Y: int32(v << 52 >> 52), Z: int32(v << 26 >> 38)}
	}
	return packet.Position{X: int32(v >> 38), Y: int32(v << 26 >> 52), Z: int32(v << 38 >> 38)}
}

func (w *writer) position(field string, p packet.Position) {
	const horiz = 1 << 25
	if p.X < -horiz || p.X >= horiz || p.Z < -horiz || p.Z >= horiz || p.Y < -2048 || p.Y >= 2048 {
		w.gapf(field, "position %d,%d,%d out of range", p.X, p.Y, p.Z)
	}
	x, y, z := int64(p.X)&0x3FFFFFF, int64(p.Y)&0xFFF, int64(p.Z)&0x3FFFFFF
	if w.c.is1_14() {
		w.WriteInt64(x<<38 | z<<12 | y)
		return
	}
	w.WriteInt64(x<<38 | y<<26 | z)
}

// ── entity coordinates ──────────────────────────────────────────────

// fixed converts a coordinate to 1.8 fixed point (1/32 block).
func (w *writer) fixed(field string, v float64) int32 {
	f := math.Floor(v * 32)
	if f < math.MinInt32 || f > math.MaxInt32 || math.IsNaN(f) {
		w.gapf(field, "coordinate %g out of range", v)
		return 0
	}
	return int32(f)
}

func (r *reader) fixed() float64 { return float64(r.I32()) / 32 }

// delta converts a relative move to the version's unit and checks that
// it fits the field width.
func (w *writer) delta(field string, v float64) int32 {
	scale, limit := 4096.0, float64(math.MaxInt16)
	if w.c.is1_8() {
		scale, limit = 32, math.MaxInt8
	}
	d := math.Round(v * scale)
	if d < -limit-1 || d > limit || math.IsNaN(d) {
		w.gapf(field, "relative move %g too large", v)
		return 0
	}
	return int32(d)
}

// ── registry lookups ────────────────────────────────────────────────

func (r *reader) block(field string, id uint32) uint32 {
	c, ok := r.c.blocks().ToCanonical(id)
	if !ok {
		r.gapf(field, "unknown block state %d", id)
	}
	return c
}

func (w *writer) block(field string, canonical uint32) uint32 {
	id, _, ok := w.c.fallback.Resolve(w.c.blocks(), canonical)
	if !ok {
		w.gapf(field, "no block state for %s", w.c.reg.BlockName(canonical))
	}
	return id
}

func (r *reader) item(id uint32) uint32 {
	c, ok := r.c.items().ToCanonical(id)
	if !ok {
		r.gapf("Item", "unknown item %d", id)
	}
	return c
}

func (r *reader) entityType(id uint32) uint32 {
	c, ok := r.c.entities().ToCanonical(id)
	if !ok {
		r.gapf("Type", "unknown entity type %d", id)
	}
	return c
}

// Entity types never fall back: a wrong mob is worse than no mob.
func (w *writer) entityType(canonical uint32) uint32 {
	id, ok := w.c.entities().FromCanonical(canonical)
	if !ok {
		w.gapf("Type", "no entity type %s", w.c.reg.EntityName(canonical))
	}
	return id
}

// ── NBT ─────────────────────────────────────────────────────────────

// skipNBT consumes an optional NBT value and reports a drop if one was
// present.
func (r *reader) skipNBT(field string) {
	if !r.OK() {
		return
	}
	present, err := wire.SkipNBT(r.Decoder)
	if err != nil {
		r.Fail(err)
		return
	}
	if present {
		r.drop(field, "nbt data dropped")
	}
}

// ── slots ───────────────────────────────────────────────────────────

func (r *reader) slot() packet.Slot {
	if r.c.is1_14() {
		if !r.Bool() {
			return packet.Slot{}
		}
		id, count := r.VarInt(), r.I8()
		r.skipNBT("Slot")
		return packet.Slot{Present: true, Item: r.item(uint32(id)), Count: count}
	}
	id := r.I16()
	if id < 0 || !r.OK() {
		return packet.Slot{}
	}
	count, damage := r.I8(), r.U16()
	r.skipNBT("Slot")
	return packet.Slot{Present: true, Item: r.legacyItem(uint16(id), damage), Count: count}
}

// legacyItem resolves id:damage, then the undamaged id. Tools carry wear
// in the damage field, so only variant items are keyed by it.
func (r *reader) legacyItem(id, damage uint16) uint32 {
	key := uint32(id)<<16 | uint32(damage)
	if c, ok := r.c.items().ToCanonical(key); ok {
		return c
	}
	if damage != 0 {
		r.drop("Item", fmt.Sprintf("damage %d of item %d dropped", damage, id))
	}
	return r.item(uint32(id) << 16)
}

// skipSlot consumes a slot without resolving its item and reports whether
// one was present.
func (r *reader) skipSlot() bool {
	if r.c.is1_14() {
		if !r.Bool() {
			return false
		}
		r.VarInt()
		r.I8()
		r.skipNBT("Slot")
		return r.OK()
	}
	if id := r.I16(); id < 0 || !r.OK() {
		return false
	}
	r.I8()
	r.U16()
	r.skipNBT("Slot")
	return r.OK()
}

func (w *writer) slot(s packet.Slot) {
	var id uint32
	if s.Present {
		var ok bool
		if id, _, ok = w.c.fallback.Resolve(w.c.items(), s.Item); !ok {
			w.gapf("Item", "no item for %s", w.c.reg.ItemName(s.Item))
		}
	}
	empty := !s.Present || id == 0
	if w.c.is1_14() {
		w.WriteBool(!empty)
		if !empty {
			w.WriteVarInt(int32(id))
			w.WriteInt8(s.Count)
			w.WriteUint8(wire.TagEnd)
		}
		return
	}
	if empty {
		w.WriteInt16(-1)
		return
	}
	w.WriteInt16(int16(id >> 16))
	w.WriteInt8(s.Count)
	w.WriteUint16(uint16(id))
	w.WriteUint8(wire.TagEnd)
}

// ── entity metadata ─────────────────────────────────────────────────

const (
	metaEnd1_8 = 0x7F
	metaEnd    = 0xFF
)

// Metadata type ids from 1.9 on. Bool moved from 6 to 7 in 1.13.
const (
	metaTypeByte   = 0
	metaTypeVarInt = 1
	metaTypeFloat  = 2
	metaTypeString = 3
)

func (c *Codec) metaBoolType() int32 {
	if c.is1_14() {
		return 7
	}
	return 6
}

func (r *reader) metadata() []packet.MetadataEntry {
	if r.c.is1_8() {
		return r.metadata1_8()
	}
	var out []packet.MetadataEntry
	boolType := r.c.metaBoolType()
	for r.OK() {
		idx := r.U8()
		if idx == metaEnd || !r.OK() {
			break
		}
		m := packet.MetadataEntry{Index: idx}
		switch typ := r.VarInt(); typ {
		case metaTypeByte:
			m.Type, m.Byte = packet.MetaByte, r.I8()
		case metaTypeVarInt:
			m.Type, m.Int = packet.MetaVarInt, r.VarInt()
		case metaTypeFloat:
			m.Type, m.Float = packet.MetaFloat, r.F32()
		case metaTypeString:
			m.Type, m.String = packet.MetaString, r.String(0)
		case boolType:
			m.Type, m.Bool = packet.MetaBool, r.Bool()
		default:
			// Values of unknown types cannot be sized, so nothing after
			// this entry can be read.
			r.drop("Metadata", fmt.Sprintf("unknown type %d at index %d, rest dropped", typ, idx))
			r.Rest()
			return out
		}
		out = append(out, m)
	}
	return out
}

func (r *reader) metadata1_8() []packet.MetadataEntry {
	var out []packet.MetadataEntry
	for r.OK() {
		h := r.U8()
		if h == metaEnd1_8 || !r.OK() {
			break
		}
		idx := h & 0x1F
		switch h >> 5 {
		case 0:
			out = append(out, packet.MetadataEntry{Index: idx, Type: packet.MetaByte, Byte: r.I8()})
		case 1:
			r.I16()
			r.drop("Metadata", fmt.Sprintf("short at index %d", idx))
		case 2:
			out = append(out, packet.MetadataEntry{Index: idx, Type: packet.MetaVarInt, Int: r.I32()})
		case 3:
			out = append(out, packet.MetadataEntry{Index: idx, Type: packet.MetaFloat, Float: r.F32()})
		case 4:
			out = append(out, packet.MetadataEntry{Index: idx, Type: packet.MetaString, String: r.String(0)})
		case 5:
			r.slot()
			r.drop("Metadata", fmt.Sprintf("slot at index %d", idx))
		default: // 6 block position, 7 rotation: three 4-byte values each
			if err := r.Skip(12); err != nil {
				r.Fail(err)
			}
			r.drop("Metadata", fmt.Sprintf("vector at index %d", idx))
		}
	}
	return out
}

func (w *writer) metadata(entries []packet.MetadataEntry) {
	if w.c.is1_8() {
		w.metadata1_8(entries)
		return
	}
	for _, m := range entries {
		if m.Index == metaEnd {
			w.gapf("Metadata", "index %d is reserved", m.Index)
			return
		}
		w.WriteUint8(m.Index)
		switch m.Type {
		case packet.MetaByte:
			w.WriteVarInt(metaTypeByte)
			w.WriteInt8(m.Byte)
		case packet.MetaVarInt:
			w.WriteVarInt(metaTypeVarInt)
			w.WriteVarInt(m.Int)
		case packet.MetaFloat:
			w.WriteVarInt(metaTypeFloat)
			w.WriteFloat32(m.Float)
		case packet.MetaString:
			w.WriteVarInt(metaTypeString)
			w.WriteString(m.String)
		case packet.MetaBool:
			w.WriteVarInt(w.c.metaBoolType())
			w.WriteBool(m.Bool)
		default:
			w.gapf("Metadata", "unknown type %d", m.Type)
			return
		}
	}
	w.WriteUint8(metaEnd)
}

func (w *writer) metadata1_8(entries []packet.MetadataEntry) {
	for _, m := range entries {
		if m.Index > 0x1F {
			w.gapf("Metadata", "index %d above 31", m.Index)
			return
		}
		switch m.Type {
		case packet.MetaByte:
			w.WriteUint8(0<<5 | m.Index)
			w.WriteInt8(m.Byte)
		case packet.MetaBool:
			w.WriteUint8(0<<5 | m.Index)
			if m.Bool {
				w.WriteInt8(1)
			} else {
				w.WriteInt8(0)
			}
		case packet.MetaVarInt:
			w.WriteUint8(2<<5 | m.Index)
			w.WriteInt32(m.Int)
		case packet.MetaFloat:
			w.WriteUint8(3<<5 | m.Index)
			w.WriteFloat32(m.Float)
		case packet.MetaString:
			w.WriteUint8(4<<5 | m.Index)
			w.WriteString(m.String)
		default:
			w.gapf("Metadata", "unknown type %d", m.Type)
			return
		}
	}
	w.WriteUint8(metaEnd1_8)
}

// ── plugin channels ─────────────────────────────────────────────────

var namespaced = map[string]string{
	"MC|Brand":   "minecraft:brand",
	"REGISTER":   "minecraft:register",
	"UNREGISTER": "minecraft:unregister",
	"BungeeCord": "bungeecord:main",
}

var legacyNames = func() map[string]string {
	m := make(map[string]string, len(namespaced))
	for k, v := range namespaced {
		m[v] = k
	}
	return m
}()

// channelIn maps a wire channel name to its canonical name. Unmapped
// names pass through.
func (c *Codec) channelIn(name string) string {
	if c.legacyChannels() {
		if n, ok := namespaced[name]; ok {
			return n
		}
	}
	return name
}

func (c *Codec) channelOut(name string) string {
	if c.legacyChannels() {
		if n, ok := legacyNames[name]; ok {
			return n
		}
	}
	return name
}

// ── chat ────────────────────────────────────────────────────────────

func (r *reader) chat() string {
	msg := r.String(0)
	if utf8.RuneCountInString(msg) > r.c.chatLimit() {
		r.violate(fmt.Sprintf("chat message too long (limit %d)", r.c.chatLimit()))
	}
	return msg
}

func (w *writer) chat(msg string) {
	if utf8.RuneCountInString(msg) > w.c.chatLimit() {
		w.gapf("Message", "longer than %d characters", w.c.chatLimit())
	}
	w.WriteString(msg)
}
