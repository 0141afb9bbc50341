package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	mbits "math/bits"

	"mcproxy/internal/packet"
	"mcproxy/internal/wire"
)

const (
	minPaletteBits = 4
	maxPaletteBits = 8
	globalBits1_12 = 13
	globalBits1_14 = 14
	heightmapBits  = 9
	plainsBiome    = 1

	motionBlocking = "MOTION_BLOCKING"
)

var (
	errChunkSize   = errors.New("codec: chunk data size does not match section mask")
	errPaletteBits = errors.New("codec: invalid bits per block")
	errPaletteIdx  = errors.New("codec: palette index out of range")

	noLight    = make([]byte, packet.LightArrayLen)
	fullBright = bytes.Repeat([]byte{0xFF}, packet.LightArrayLen)
)

// packSpanning packs values of the given width into longs, letting a
// value straddle two longs.
func packSpanning(values []uint32, bits int) []int64 {
	out := make([]uint64, (len(values)*bits+63)/64)
	mask := uint64(1)<<bits - 1
	for i, v := range values {
		bit := i * bits
		idx, off := bit/64, bit%64
		out[idx] |= (uint64(v) & mask) << off
		if off+bits > 64 {
			out[idx+1] |= (uint64(v) & mask) >> (64 - off)
		}
	}
	longs := make([]int64, len(out))
	for i, l := range out {
		longs[i] = int64(l)
	}
	return longs
}

func unpackSpanning(longs []int64, bits, count int) ([]uint32, error) {
	if bits <= 0 || bits > 32 {
		return nil, fmt.Errorf("%w: %d", errPaletteBits, bits)
	}
	if len(longs)*64 < count*bits {
		return nil, fmt.Errorf("%w: %d longs for %d bits", errChunkSize, len(longs), bits)
	}
	out := make([]uint32, count)
	mask := uint64(1)<<bits - 1
	for i := range out {
		bit := i * bits
		idx, off := bit/64, bit%64
		v := uint64(longs[idx]) >> off
		if off+bits > 64 {
			v |= uint64(longs[idx+1]) << (64 - off)
		}
		out[i] = uint32(v & mask)
	}
	return out, nil
}

// bitsFor returns the width needed to index n palette entries.
func bitsFor(n int) int {
	if n <= 1 {
		return 0
	}
	return mbits.Len(uint(n - 1))
}

// sectionIDs maps a section's canonical states to the version's ids.
func (w *writer) sectionIDs(s *packet.ChunkSection) []uint32 {
	out := make([]uint32, packet.BlocksPerSection)
	cache := make(map[uint32]uint32)
	for i, b := range s.Blocks {
		id, ok := cache[b]
		if !ok {
			id = w.block("Sections", b)
			cache[b] = id
		}
		out[i] = id
	}
	return out
}

// paletted writes one section's block array. Sections with more than
// 2^8 distinct states use the global palette of globalBits. A 1.12
// client always reads a palette length, even for the global palette.
func (w *writer) paletted(dst *wire.Encoder, ids []uint32, globalBits int, alwaysPalette bool) {
	index := make(map[uint32]uint32)
	var palette []uint32
	for _, id := range ids {
		if _, ok := index[id]; !ok {
			index[id] = uint32(len(palette))
			palette = append(palette, id)
		}
	}
	bits := max(minPaletteBits, bitsFor(len(palette)))
	values := ids
	if bits > maxPaletteBits {
		bits, palette = globalBits, nil
		for _, id := range ids {
			if id >= 1<<globalBits {
				w.gapf("Sections", "block state %d exceeds the global palette", id)
				return
			}
		}
	} else {
		values = make([]uint32, len(ids))
		for i, id := range ids {
			values[i] = index[id]
		}
	}
	dst.WriteUint8(uint8(bits))
	if palette != nil || alwaysPalette {
		dst.WriteVarInt(int32(len(palette)))
		for _, id := range palette {
			dst.WriteVarInt(int32(id))
		}
	}
	longs := packSpanning(values, bits)
	dst.WriteVarInt(int32(len(longs)))
	dst.WriteLongs(longs)
}

func readPaletted(f *wire.Fields, alwaysPalette bool) []uint32 {
	bits := int(f.U8())
	var palette []uint32
	if bits <= maxPaletteBits || alwaysPalette {
		n := f.Len(packet.BlocksPerSection)
		for i := 0; i < n && f.OK(); i++ {
			palette = append(palette, uint32(f.VarInt()))
		}
	}
	longs := f.Longs(f.Len(packet.BlocksPerSection))
	if !f.OK() {
		return nil
	}
	values, err := unpackSpanning(longs, bits, packet.BlocksPerSection)
	if err != nil {
		f.Fail(err)
		return nil
	}
	if bits > maxPaletteBits {
		return values
	}
	for i, v := range values {
		if int(v) >= len(palette) {
			f.Fail(fmt.Errorf("%w: %d of %d", errPaletteIdx, v, len(palette)))
			return nil
		}
		values[i] = palette[v]
	}
	return values
}

// toCanonical maps a section's version ids to canonical states. Unknown
// states become air and are reported once per chunk.
func (r *reader) toCanonical(ids []uint32, unknown *int) *packet.ChunkSection {
	s := new(packet.ChunkSection)
	t := r.c.blocks()
	for i, id := range ids {
		c, ok := t.ToCanonical(id)
		if !ok {
			*unknown++
		}
		s.Blocks[i] = c
	}
	return s
}

func (r *reader) reportUnknown(unknown int) {
	if unknown > 0 {
		r.drop("Sections", fmt.Sprintf("%d unknown block states shown as air", unknown))
	}
}

func (r *reader) skipBlockEntities() {
	n := r.Len(1 << 16)
	for i := 0; i < n && r.OK(); i++ {
		r.skipNBT("BlockEntities")
	}
}

func biomeAt(biomes []int32, i int) int32 {
	if len(biomes) != packet.BiomesPerChunk {
		return plainsBiome
	}
	return biomes[i]
}

// heightmap computes MOTION_BLOCKING as one past the highest non-air
// block of each column, packed at 9 bits.
func heightmap(p *packet.ChunkData) []int64 {
	heights := make([]uint32, 16*16)
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
		column:
			for sec := packet.SectionsPerChunk - 1; sec >= 0; sec-- {
				s := p.Sections[sec]
				if s == nil {
					continue
				}
				for y := 15; y >= 0; y-- {
					if s.Blocks[packet.SectionIndex(x, y, z)] != 0 {
						heights[z*16+x] = uint32(sec*16 + y + 1)
						break column
					}
				}
			}
		}
	}
	return packSpanning(heights, heightmapBits)
}

// ── 1.8: raw little-endian block arrays, light and biomes appended ───

func decodeChunk1_8(r *reader) packet.Packet {
	x, z := r.I32(), r.I32()
	full := r.Bool()
	mask := r.U16()
	data := r.ByteArray()
	if !r.OK() {
		return nil
	}
	if full && mask == 0 {
		return &packet.UnloadChunk{X: x, Z: z}
	}
	n := mbits.OnesCount16(mask)
	biomes := 0
	if full {
		biomes = packet.BiomesPerChunk
	}
	if len(data) < n*packet.BlocksPerSection*2+biomes {
		r.Fail(errChunkSize)
		return nil
	}
	p := &packet.ChunkData{X: x, Z: z, FullChunk: full}
	var unknown int
	off := 0
	ids := make([]uint32, packet.BlocksPerSection)
	for i := range p.Sections {
		if mask&(1<<i) == 0 {
			continue
		}
		for j := range ids {
			ids[j] = uint32(binary.LittleEndian.Uint16(data[off:]))
			off += 2
		}
		p.Sections[i] = r.toCanonical(ids, &unknown)
	}
	r.reportUnknown(unknown)
	if full {
		tail := data[len(data)-packet.BiomesPerChunk:]
		p.Biomes = make([]int32, packet.BiomesPerChunk)
		for i, b := range tail {
			p.Biomes[i] = int32(b)
		}
	}
	return p
}

// The proxy does not track dimensions, so chunks always carry sky light
// and are sent full-bright.
func encodeChunk1_8(w *writer, p *packet.ChunkData) {
	mask := p.Mask()
	w.WriteInt32(p.X)
	w.WriteInt32(p.Z)
	w.WriteBool(p.FullChunk)
	w.WriteUint16(mask)

	n := mbits.OnesCount16(mask)
	data := make([]byte, 0, n*(packet.BlocksPerSection*2+2*packet.LightArrayLen)+packet.BiomesPerChunk)
	for _, s := range p.Sections {
		if s == nil {
			continue
		}
		for _, id := range w.sectionIDs(s) {
			if id > 0xFFFF {
				w.gapf("Sections", "block state %d does not fit 16 bits", id)
				return
			}
			data = binary.LittleEndian.AppendUint16(data, uint16(id))
		}
	}
	for i := 0; i < n; i++ {
		data = append(data, noLight...)
	}
	for i := 0; i < n; i++ {
		data = append(data, fullBright...)
	}
	if p.FullChunk {
		for i := 0; i < packet.BiomesPerChunk; i++ {
			data = append(data, byte(biomeAt(p.Biomes, i)))
		}
	}
	w.WriteByteArray(data)
}

// 1.8 unloads a column with an empty ground-up chunk.
func encodeUnloadChunk1_8(w *writer, p *packet.UnloadChunk) {
	w.WriteInt32(p.X)
	w.WriteInt32(p.Z)
	w.WriteBool(true)
	w.WriteUint16(0)
	w.WriteVarInt(0)
}

// ── 1.12: paletted sections with light, byte biomes ─────────────────

func decodeChunk1_12(r *reader) packet.Packet {
	p := &packet.ChunkData{}
	p.X, p.Z = r.I32(), r.I32()
	p.FullChunk = r.Bool()
	mask := uint16(r.VarInt())
	data := r.ByteArray()
	r.skipBlockEntities()
	if !r.OK() {
		return p
	}
	// Sky light is present only in dimensions that have a sky, which
	// the packet does not say; the data size decides.
	sections, biomes, err := parseSections1_12(data, mask, p.FullChunk, true)
	if err != nil {
		sections, biomes, err = parseSections1_12(data, mask, p.FullChunk, false)
	}
	if err != nil {
		r.Fail(err)
		return p
	}
	var unknown int
	for i, ids := range sections {
		if ids != nil {
			p.Sections[i] = r.toCanonical(ids, &unknown)
		}
	}
	r.reportUnknown(unknown)
	if p.FullChunk {
		p.Biomes = make([]int32, packet.BiomesPerChunk)
		for i, b := range biomes {
			p.Biomes[i] = int32(b)
		}
	}
	return p
}

func parseSections1_12(data []byte, mask uint16, full, sky bool) ([packet.SectionsPerChunk][]uint32, []byte, error) {
	var sections [packet.SectionsPerChunk][]uint32
	f := wire.NewFields(data)
	for i := range sections {
		if mask&(1<<i) == 0 {
			continue
		}
		sections[i] = readPaletted(f, true)
		light := packet.LightArrayLen
		if sky {
			light *= 2
		}
		if f.OK() {
			if err := f.Skip(light); err != nil {
				f.Fail(err)
			}
		}
	}
	var biomes []byte
	if full {
		biomes = f.Raw(packet.BiomesPerChunk)
	}
	if err := f.Err(); err != nil {
		return sections, nil, err
	}
	if f.Remaining() != 0 {
		return sections, nil, errChunkSize
	}
	return sections, biomes, nil
}

func encodeChunk1_12(w *writer, p *packet.ChunkData) {
	w.WriteInt32(p.X)
	w.WriteInt32(p.Z)
	w.WriteBool(p.FullChunk)
	w.WriteVarInt(int32(p.Mask()))

	data := wire.NewEncoder(4096)
	for _, s := range p.Sections {
		if s == nil {
			continue
		}
		w.paletted(data, w.sectionIDs(s), globalBits1_12, true)
		data.WriteRaw(noLight)
		data.WriteRaw(fullBright)
	}
	if p.FullChunk {
		for i := 0; i < packet.BiomesPerChunk; i++ {
			data.WriteUint8(uint8(biomeAt(p.Biomes, i)))
		}
	}
	w.WriteByteArray(data.Bytes())
	w.WriteVarInt(0) // block entities
}

// ── 1.14: heightmap, block counts, int biomes, no light ─────────────

func decodeChunk1_14(r *reader) packet.Packet {
	p := &packet.ChunkData{}
	p.X, p.Z = r.I32(), r.I32()
	p.FullChunk = r.Bool()
	mask := uint16(r.VarInt())
	if r.OK() {
		maps, err := wire.ReadLongArrays(r.Decoder)
		if err != nil {
			r.Fail(err)
		}
		p.Heightmap = maps[motionBlocking]
	}
	data := r.ByteArray()
	r.skipBlockEntities()
	if !r.OK() {
		return p
	}

	f := wire.NewFields(data)
	var unknown int
	for i := range p.Sections {
		if mask&(1<<i) == 0 {
			continue
		}
		f.I16() // non-air count, recomputed on encode
		ids := readPaletted(f, false)
		if !f.OK() {
			break
		}
		p.Sections[i] = r.toCanonical(ids, &unknown)
	}
	if p.FullChunk {
		p.Biomes = make([]int32, packet.BiomesPerChunk)
		for i := range p.Biomes {
			p.Biomes[i] = f.I32()
		}
	}
	if err := f.Err(); err != nil {
		r.Fail(err)
		return p
	}
	if n := f.Remaining(); n > 0 {
		r.drop("Data", fmt.Sprintf("%d trailing bytes", n))
	}
	r.reportUnknown(unknown)
	return p
}

func encodeChunk1_14(w *writer, p *packet.ChunkData) {
	w.WriteInt32(p.X)
	w.WriteInt32(p.Z)
	w.WriteBool(p.FullChunk)
	w.WriteVarInt(int32(p.Mask()))

	hm := p.Heightmap
	if hm == nil {
		hm = heightmap(p)
	}
	wire.AppendLongArrays(w.Encoder, map[string][]int64{motionBlocking: hm})

	data := wire.NewEncoder(4096)
	for _, s := range p.Sections {
		if s == nil {
			continue
		}
		ids := w.sectionIDs(s)
		var count int16
		for _, id := range ids {
			if id != 0 {
				count++
			}
		}
		data.WriteInt16(count)
		w.paletted(data, ids, globalBits1_14, false)
	}
	if p.FullChunk {
		for i := 0; i < packet.BiomesPerChunk; i++ {
			data.WriteInt32(biomeAt(p.Biomes, i))
		}
	}
	w.WriteByteArray(data.Bytes())
	w.WriteVarInt(0) // block entities
}

// ── 1.14 UpdateLight ────────────────────────────────────────────────

func decodeUpdateLight(r *reader) packet.Packet {
	p := &packet.UpdateLight{}
	p.X, p.Z = r.VarInt(), r.VarInt()
	skyMask, blockMask := r.VarInt(), r.VarInt()
	emptySky, emptyBlock := r.VarInt(), r.VarInt()
	read := func(mask, empty int32, dst *[packet.LightSections][]byte) {
		for i := range dst {
			switch {
			case mask&(1<<i) != 0:
				a := r.ByteArray()
				if r.OK() && len(a) != packet.LightArrayLen {
					r.Fail(fmt.Errorf("codec: light array of %d bytes", len(a)))
				}
				dst[i] = a
			case empty&(1<<i) != 0:
				dst[i] = make([]byte, packet.LightArrayLen)
			}
		}
	}
	read(skyMask, emptySky, &p.SkyLight)
	read(blockMask, emptyBlock, &p.BlockLight)
	return p
}

func encodeUpdateLight(w *writer, p *packet.UpdateLight) {
	w.WriteVarInt(p.X)
	w.WriteVarInt(p.Z)
	maskOf := func(arrays *[packet.LightSections][]byte) int32 {
		var m int32
		for i, a := range arrays {
			if a == nil {
				continue
			}
			if len(a) != packet.LightArrayLen {
				w.gapf("Light", "light array of %d bytes", len(a))
			}
			m |= 1 << i
		}
		return m
	}
	w.WriteVarInt(maskOf(&p.SkyLight))
	w.WriteVarInt(maskOf(&p.BlockLight))
	w.WriteVarInt(0)
	w.WriteVarInt(0)
	for _, a := range p.SkyLight {
		if a != nil {
			w.WriteByteArray(a)
		}
	}
	for _, a := range p.BlockLight {
		if a != nil {
			w.WriteByteArray(a)
		}
	}
}
