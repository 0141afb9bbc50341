package packet

import (
	"github.com/google/uuid"

	"mcproxy/internal/wire"
)

// JoinGame starts Play. Sent to the backend, it is the join notification
// and only the zero value is meaningful.
type JoinGame struct {
	EntityID         int32
	Gamemode         uint8
	Hardcore         bool
	Dimension        int32
	Difficulty       uint8
	MaxPlayers       uint8
	LevelType        string
	ViewDistance     int32
	ReducedDebugInfo bool
}

func (*JoinGame) Kind() Kind { return KindJoinGame }

func (p *JoinGame) marshal(e *wire.Encoder) {
	e.WriteInt32(p.EntityID)
	e.WriteUint8(p.Gamemode)
	e.WriteBool(p.Hardcore)
	e.WriteInt32(p.Dimension)
	e.WriteUint8(p.Difficulty)
	e.WriteUint8(p.MaxPlayers)
	e.WriteString(p.LevelType)
	e.WriteVarInt(p.ViewDistance)
	e.WriteBool(p.ReducedDebugInfo)
}

func (p *JoinGame) unmarshal(f *wire.Fields) {
	p.EntityID = f.I32()
	p.Gamemode = f.U8()
	p.Hardcore = f.Bool()
	p.Dimension = f.I32()
	p.Difficulty = f.U8()
	p.MaxPlayers = f.U8()
	p.LevelType = f.String(16)
	p.ViewDistance = f.VarInt()
	p.ReducedDebugInfo = f.Bool()
}

type KeepAliveRequest struct {
	ID int64
}

func (*KeepAliveRequest) Kind() Kind                 { return KindKeepAliveRequest }
func (p *KeepAliveRequest) marshal(e *wire.Encoder)  { e.WriteInt64(p.ID) }
func (p *KeepAliveRequest) unmarshal(f *wire.Fields) { p.ID = f.I64() }

// ChatMessage is a chat line shown to the player. JSON is a chat
// component.
type ChatMessage struct {
	JSON     string
	Position ChatPosition
}

func (*ChatMessage) Kind() Kind { return KindChatMessage }

func (p *ChatMessage) marshal(e *wire.Encoder) {
	e.WriteString(p.JSON)
	e.WriteUint8(uint8(p.Position))
}

func (p *ChatMessage) unmarshal(f *wire.Fields) {
	p.JSON = f.String(0)
	p.Position = ChatPosition(f.U8())
}

type TimeUpdate struct {
	WorldAge  int64
	TimeOfDay int64
}

func (*TimeUpdate) Kind() Kind { return KindTimeUpdate }

func (p *TimeUpdate) marshal(e *wire.Encoder) {
	e.WriteInt64(p.WorldAge)
	e.WriteInt64(p.TimeOfDay)
}

func (p *TimeUpdate) unmarshal(f *wire.Fields) {
	p.WorldAge = f.I64()
	p.TimeOfDay = f.I64()
}

// SetHeldItem selects the player's hotbar slot from the server side.
type SetHeldItem struct {
	Slot int8
}

func (*SetHeldItem) Kind() Kind                 { return KindSetHeldItem }
func (p *SetHeldItem) marshal(e *wire.Encoder)  { e.WriteInt8(p.Slot) }
func (p *SetHeldItem) unmarshal(f *wire.Fields) { p.Slot = f.I8() }

// PlayerTeleport moves the player. Flags mark relative axes.
type PlayerTeleport struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	Flags      uint8
	TeleportID int32
}

func (*PlayerTeleport) Kind() Kind { return KindPlayerTeleport }

func (p *PlayerTeleport) marshal(e *wire.Encoder) {
	e.WriteFloat64(p.X)
	e.WriteFloat64(p.Y)
	e.WriteFloat64(p.Z)
	e.WriteFloat32(p.Yaw)
	e.WriteFloat32(p.Pitch)
	e.WriteUint8(p.Flags)
	e.WriteVarInt(p.TeleportID)
}

func (p *PlayerTeleport) unmarshal(f *wire.Fields) {
	p.X, p.Y, p.Z = f.F64(), f.F64(), f.F64()
	p.Yaw, p.Pitch = f.F32(), f.F32()
	p.Flags = f.U8()
	p.TeleportID = f.VarInt()
}

// Disconnect ends Play. Reason is a JSON chat component.
type Disconnect struct {
	Reason string
}

func (*Disconnect) Kind() Kind                 { return KindDisconnect }
func (p *Disconnect) marshal(e *wire.Encoder)  { e.WriteString(p.Reason) }
func (p *Disconnect) unmarshal(f *wire.Fields) { p.Reason = f.String(0) }

// BlockChange sets one block to a canonical block state.
type BlockChange struct {
	Location Position
	Block    uint32
}

func (*BlockChange) Kind() Kind { return KindBlockChange }

func (p *BlockChange) marshal(e *wire.Encoder) {
	writePosition(e, p.Location)
	e.WriteVarInt(int32(p.Block))
}

func (p *BlockChange) unmarshal(f *wire.Fields) {
	p.Location = readPosition(f)
	p.Block = uint32(f.VarInt())
}

// ChunkData carries block states for a chunk column. A nil section is
// empty. Biomes holds one id per column when FullChunk is set. Heightmap
// is the packed MOTION_BLOCKING map when the source supplied one.
type ChunkData struct {
	X, Z      int32
	FullChunk bool
	Sections  [SectionsPerChunk]*ChunkSection
	Biomes    []int32
	Heightmap []int64
}

func (*ChunkData) Kind() Kind { return KindChunkData }

// Mask returns the bitmask of non-nil sections.
func (p *ChunkData) Mask() uint16 {
	var m uint16
	for i, s := range p.Sections {
		if s != nil {
			m |= 1 << i
		}
	}
	return m
}

func (p *ChunkData) marshal(e *wire.Encoder) {
	e.WriteInt32(p.X)
	e.WriteInt32(p.Z)
	e.WriteBool(p.FullChunk)
	e.WriteUint16(p.Mask())
	for _, s := range p.Sections {
		if s == nil {
			continue
		}
		for _, b := range s.Blocks {
			e.WriteVarInt(int32(b))
		}
	}
	writeOptInt32s(e, p.Biomes)
	writeOptInt64s(e, p.Heightmap)
}

func (p *ChunkData) unmarshal(f *wire.Fields) {
	p.X = f.I32()
	p.Z = f.I32()
	p.FullChunk = f.Bool()
	mask := f.U16()
	for i := range p.Sections {
		if mask&(1<<i) == 0 || !f.OK() {
			continue
		}
		s := new(ChunkSection)
		for j := range s.Blocks {
			s.Blocks[j] = uint32(f.VarInt())
		}
		p.Sections[i] = s
	}
	p.Biomes = readOptInt32s(f)
	p.Heightmap = readOptInt64s(f)
}

type UnloadChunk struct {
	X, Z int32
}

func (*UnloadChunk) Kind() Kind { return KindUnloadChunk }

func (p *UnloadChunk) marshal(e *wire.Encoder) {
	e.WriteInt32(p.X)
	e.WriteInt32(p.Z)
}

func (p *UnloadChunk) unmarshal(f *wire.Fields) {
	p.X = f.I32()
	p.Z = f.I32()
}

// UpdateLight carries nibble light arrays for the sections of a column,
// index 0 being the section below the world. A nil entry is not sent.
type UpdateLight struct {
	X, Z       int32
	SkyLight   [LightSections][]byte
	BlockLight [LightSections][]byte
}

func (*UpdateLight) Kind() Kind { return KindUpdateLight }

func (p *UpdateLight) marshal(e *wire.Encoder) {
	e.WriteInt32(p.X)
	e.WriteInt32(p.Z)
	for i := range p.SkyLight {
		writeOptBytes(e, p.SkyLight[i])
	}
	for i := range p.BlockLight {
		writeOptBytes(e, p.BlockLight[i])
	}
}

func (p *UpdateLight) unmarshal(f *wire.Fields) {
	p.X = f.I32()
	p.Z = f.I32()
	for i := range p.SkyLight {
		p.SkyLight[i] = readOptBytes(f)
	}
	for i := range p.BlockLight {
		p.BlockLight[i] = readOptBytes(f)
	}
}

// SpawnMob spawns a living entity. Type is a canonical entity type,
// coordinates are in blocks and velocity in 1/8000 block per tick.
type SpawnMob struct {
	EntityID                        int32
	UUID                            uuid.UUID
	Type                            uint32
	X, Y, Z                         float64
	Yaw, Pitch, HeadPitch           uint8
	VelocityX, VelocityY, VelocityZ int16
	Metadata                        []MetadataEntry
}

func (*SpawnMob) Kind() Kind { return KindSpawnMob }

func (p *SpawnMob) marshal(e *wire.Encoder) {
	e.WriteVarInt(p.EntityID)
	e.WriteUUID(p.UUID)
	e.WriteVarInt(int32(p.Type))
	e.WriteFloat64(p.X)
	e.WriteFloat64(p.Y)
	e.WriteFloat64(p.Z)
	e.WriteUint8(p.Yaw)
	e.WriteUint8(p.Pitch)
	e.WriteUint8(p.HeadPitch)
	e.WriteInt16(p.VelocityX)
	e.WriteInt16(p.VelocityY)
	e.WriteInt16(p.VelocityZ)
	writeMetadata(e, p.Metadata)
}

func (p *SpawnMob) unmarshal(f *wire.Fields) {
	p.EntityID = f.VarInt()
	p.UUID = f.UUID()
	p.Type = uint32(f.VarInt())
	p.X, p.Y, p.Z = f.F64(), f.F64(), f.F64()
	p.Yaw, p.Pitch, p.HeadPitch = f.U8(), f.U8(), f.U8()
	p.VelocityX, p.VelocityY, p.VelocityZ = f.I16(), f.I16(), f.I16()
	p.Metadata = readMetadata(f)
}

type DestroyEntities struct {
	EntityIDs []int32
}

func (*DestroyEntities) Kind() Kind { return KindDestroyEntities }

func (p *DestroyEntities) marshal(e *wire.Encoder) {
	e.WriteVarInt(int32(len(p.EntityIDs)))
	for _, id := range p.EntityIDs {
		e.WriteVarInt(id)
	}
}

func (p *DestroyEntities) unmarshal(f *wire.Fields) {
	n := f.Len(wire.MaxArrayLen)
	if !f.OK() {
		return
	}
	p.EntityIDs = make([]int32, n)
	for i := range p.EntityIDs {
		p.EntityIDs[i] = f.VarInt()
	}
}

// EntityRelativeMove shifts an entity by a delta in blocks.
type EntityRelativeMove struct {
	EntityID               int32
	DeltaX, DeltaY, DeltaZ float64
	OnGround               bool
}

func (*EntityRelativeMove) Kind() Kind { return KindEntityRelativeMove }

func (p *EntityRelativeMove) marshal(e *wire.Encoder) {
	e.WriteVarInt(p.EntityID)
	e.WriteFloat64(p.DeltaX)
	e.WriteFloat64(p.DeltaY)
	e.WriteFloat64(p.DeltaZ)
	e.WriteBool(p.OnGround)
}

func (p *EntityRelativeMove) unmarshal(f *wire.Fields) {
	p.EntityID = f.VarInt()
	p.DeltaX, p.DeltaY, p.DeltaZ = f.F64(), f.F64(), f.F64()
	p.OnGround = f.Bool()
}

type EntityTeleport struct {
	EntityID   int32
	X, Y, Z    float64
	Yaw, Pitch uint8
	OnGround   bool
}

func (*EntityTeleport) Kind() Kind { return KindEntityTeleport }

func (p *EntityTeleport) marshal(e *wire.Encoder) {
	e.WriteVarInt(p.EntityID)
	e.WriteFloat64(p.X)
	e.WriteFloat64(p.Y)
	e.WriteFloat64(p.Z)
	e.WriteUint8(p.Yaw)
	e.WriteUint8(p.Pitch)
	e.WriteBool(p.OnGround)
}

func (p *EntityTeleport) unmarshal(f *wire.Fields) {
	p.EntityID = f.VarInt()
	p.X, p.Y, p.Z = f.F64(), f.F64(), f.F64()
	p.Yaw, p.Pitch = f.U8(), f.U8()
	p.OnGround = f.Bool()
}

type EntityMetadata struct {
	EntityID int32
	Metadata []MetadataEntry
}

func (*EntityMetadata) Kind() Kind { return KindEntityMetadata }

func (p *EntityMetadata) marshal(e *wire.Encoder) {
	e.WriteVarInt(p.EntityID)
	writeMetadata(e, p.Metadata)
}

func (p *EntityMetadata) unmarshal(f *wire.Fields) {
	p.EntityID = f.VarInt()
	p.Metadata = readMetadata(f)
}

type SetSlot struct {
	WindowID int8
	Slot     int16
	Item     Slot
}

func (*SetSlot) Kind() Kind { return KindSetSlot }

func (p *SetSlot) marshal(e *wire.Encoder) {
	e.WriteInt8(p.WindowID)
	e.WriteInt16(p.Slot)
	writeSlot(e, p.Item)
}

func (p *SetSlot) unmarshal(f *wire.Fields) {
	p.WindowID = f.I8()
	p.Slot = f.I16()
	p.Item = readSlot(f)
}

// ServerPluginMessage is a custom payload from the server. Channel is
// always namespaced ("minecraft:brand").
type ServerPluginMessage struct {
	Channel string
	Data    []byte
}

func (*ServerPluginMessage) Kind() Kind { return KindServerPluginMessage }

func (p *ServerPluginMessage) marshal(e *wire.Encoder) {
	e.WriteString(p.Channel)
	e.WriteByteArray(p.Data)
}

func (p *ServerPluginMessage) unmarshal(f *wire.Fields) {
	p.Channel = f.String(0)
	p.Data = f.ByteArray()
}
