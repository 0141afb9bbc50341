package packet

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// Chunk geometry shared by every supported version.
const (
	SectionsPerChunk = 16
	BlocksPerSection = 16 * 16 * 16
	BiomesPerChunk   = 16 * 16
	// LightSections covers one section below and one above the world.
	LightSections = SectionsPerChunk + 2
	// LightArrayLen is the size of one section's nibble light array.
	LightArrayLen = BlocksPerSection / 2
)

// Position is an absolute block location.
type Position struct {
	X, Y, Z int32
}

// ChunkPos identifies a chunk column.
type ChunkPos struct {
	X, Z int32
}

// NextState is the phase requested by a Handshake.
type NextState int32

const (
	NextStatus NextState = 1
	NextLogin  NextState = 2
)

// ChatPosition is where a clientbound chat message is shown.
type ChatPosition uint8

const (
	ChatPositionChat ChatPosition = iota
	ChatPositionSystem
	ChatPositionActionBar
)

// Slot is an inventory stack. Item is a canonical item id.
type Slot struct {
	Present bool
	Item    uint32
	Count   int8
}

// MetadataType names the value held by a MetadataEntry.
type MetadataType uint8

const (
	MetaByte MetadataType = iota + 1
	MetaVarInt
	MetaFloat
	MetaString
	MetaBool
)

// MetadataEntry is one entity metadata value. Only the field matching
// Type is meaningful.
type MetadataEntry struct {
	Index  uint8
	Type   MetadataType
	Byte   int8
	Int    int32
	Float  float32
	String string
	Bool   bool
}

// ChunkSection is a 16×16×16 cube of canonical block-state ids indexed
// y<<8 | z<<4 | x.
type ChunkSection struct {
	Blocks [BlocksPerSection]uint32
}

// NonAir counts the blocks that are not air.
func (s *ChunkSection) NonAir() int {
	n := 0
	for _, b := range s.Blocks {
		if b != 0 {
			n++
		}
	}
	return n
}

// SectionIndex returns the index of the block at local coordinates.
func SectionIndex(x, y, z int) int { return y<<8 | z<<4 | x }

// OfflineUUID derives the UUID an offline-mode server assigns username.
func OfflineUUID(username string) uuid.UUID {
	id := uuid.UUID(md5.Sum([]byte("OfflinePlayer:" + username)))
	id[6] = id[6]&0x0f | 0x30
	id[8] = id[8]&0x3f | 0x80
	return id
}
