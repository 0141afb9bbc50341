package packet

import "mcproxy/internal/wire"

type KeepAliveResponse struct {
	ID int64
}

func (*KeepAliveResponse) Kind() Kind                 { return KindKeepAliveResponse }
func (p *KeepAliveResponse) marshal(e *wire.Encoder)  { e.WriteInt64(p.ID) }
func (p *KeepAliveResponse) unmarshal(f *wire.Fields) { p.ID = f.I64() }

// ClientChat is a line typed by the player. The backend learns who sent
// it from the link, not from the packet.
type ClientChat struct {
	Message string
}

func (*ClientChat) Kind() Kind                 { return KindClientChat }
func (p *ClientChat) marshal(e *wire.Encoder)  { e.WriteString(p.Message) }
func (p *ClientChat) unmarshal(f *wire.Fields) { p.Message = f.String(256) }

type PlayerOnGround struct {
	OnGround bool
}

func (*PlayerOnGround) Kind() Kind                 { return KindPlayerOnGround }
func (p *PlayerOnGround) marshal(e *wire.Encoder)  { e.WriteBool(p.OnGround) }
func (p *PlayerOnGround) unmarshal(f *wire.Fields) { p.OnGround = f.Bool() }

// PlayerPosition reports the player's feet position.
type PlayerPosition struct {
	X, Y, Z  float64
	OnGround bool
}

func (*PlayerPosition) Kind() Kind { return KindPlayerPosition }

func (p *PlayerPosition) marshal(e *wire.Encoder) {
	e.WriteFloat64(p.X)
	e.WriteFloat64(p.Y)
	e.WriteFloat64(p.Z)
	e.WriteBool(p.OnGround)
}

func (p *PlayerPosition) unmarshal(f *wire.Fields) {
	p.X, p.Y, p.Z = f.F64(), f.F64(), f.F64()
	p.OnGround = f.Bool()
}

type PlayerLook struct {
	Yaw, Pitch float32
	OnGround   bool
}

func (*PlayerLook) Kind() Kind { return KindPlayerLook }

func (p *PlayerLook) marshal(e *wire.Encoder) {
	e.WriteFloat32(p.Yaw)
	e.WriteFloat32(p.Pitch)
	e.WriteBool(p.OnGround)
}

func (p *PlayerLook) unmarshal(f *wire.Fields) {
	p.Yaw, p.Pitch = f.F32(), f.F32()
	p.OnGround = f.Bool()
}

type PlayerPositionLook struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	OnGround   bool
}

func (*PlayerPositionLook) Kind() Kind { return KindPlayerPositionLook }

func (p *PlayerPositionLook) marshal(e *wire.Encoder) {
	e.WriteFloat64(p.X)
	e.WriteFloat64(p.Y)
	e.WriteFloat64(p.Z)
	e.WriteFloat32(p.Yaw)
	e.WriteFloat32(p.Pitch)
	e.WriteBool(p.OnGround)
}

func (p *PlayerPositionLook) unmarshal(f *wire.Fields) {
	p.X, p.Y, p.Z = f.F64(), f.F64(), f.F64()
	p.Yaw, p.Pitch = f.F32(), f.F32()
	p.OnGround = f.Bool()
}

type TeleportConfirm struct {
	TeleportID int32
}

func (*TeleportConfirm) Kind() Kind                 { return KindTeleportConfirm }
func (p *TeleportConfirm) marshal(e *wire.Encoder)  { e.WriteVarInt(p.TeleportID) }
func (p *TeleportConfirm) unmarshal(f *wire.Fields) { p.TeleportID = f.VarInt() }

type BlockDig struct {
	Status   int32
	Location Position
	Face     int8
}

func (*BlockDig) Kind() Kind { return KindBlockDig }

func (p *BlockDig) marshal(e *wire.Encoder) {
	e.WriteVarInt(p.Status)
	writePosition(e, p.Location)
	e.WriteInt8(p.Face)
}

func (p *BlockDig) unmarshal(f *wire.Fields) {
	p.Status = f.VarInt()
	p.Location = readPosition(f)
	p.Face = f.I8()
}

// BlockPlace is a right click on a block face. Cursor values are in
// [0, 1). Face -1 means "use held item" on clients that still send it.
type BlockPlace struct {
	Location                  Position
	Face                      int32
	Hand                      int32
	CursorX, CursorY, CursorZ float32
	InsideBlock               bool
}

func (*BlockPlace) Kind() Kind { return KindBlockPlace }

func (p *BlockPlace) marshal(e *wire.Encoder) {
	writePosition(e, p.Location)
	e.WriteVarInt(p.Face)
	e.WriteVarInt(p.Hand)
	e.WriteFloat32(p.CursorX)
	e.WriteFloat32(p.CursorY)
	e.WriteFloat32(p.CursorZ)
	e.WriteBool(p.InsideBlock)
}

func (p *BlockPlace) unmarshal(f *wire.Fields) {
	p.Location = readPosition(f)
	p.Face = f.VarInt()
	p.Hand = f.VarInt()
	p.CursorX, p.CursorY, p.CursorZ = f.F32(), f.F32(), f.F32()
	p.InsideBlock = f.Bool()
}

type HeldItemChange struct {
	Slot int16
}

func (*HeldItemChange) Kind() Kind                 { return KindHeldItemChange }
func (p *HeldItemChange) marshal(e *wire.Encoder)  { e.WriteInt16(p.Slot) }
func (p *HeldItemChange) unmarshal(f *wire.Fields) { p.Slot = f.I16() }

// Animation is an arm swing.
type Animation struct {
	Hand int32
}

func (*Animation) Kind() Kind                 { return KindAnimation }
func (p *Animation) marshal(e *wire.Encoder)  { e.WriteVarInt(p.Hand) }
func (p *Animation) unmarshal(f *wire.Fields) { p.Hand = f.VarInt() }

// ClientSettings carries the client's locale and display options.
// MainHand is 1 (right) for clients that predate the field.
type ClientSettings struct {
	Locale       string
	ViewDistance int8
	ChatMode     int32
	ChatColors   bool
	SkinParts    uint8
	MainHand     int32
}

func (*ClientSettings) Kind() Kind { return KindClientSettings }

func (p *ClientSettings) marshal(e *wire.Encoder) {
	e.WriteString(p.Locale)
	e.WriteInt8(p.ViewDistance)
	e.WriteVarInt(p.ChatMode)
	e.WriteBool(p.ChatColors)
	e.WriteUint8(p.SkinParts)
	e.WriteVarInt(p.MainHand)
}

func (p *ClientSettings) unmarshal(f *wire.Fields) {
	p.Locale = f.String(16)
	p.ViewDistance = f.I8()
	p.ChatMode = f.VarInt()
	p.ChatColors = f.Bool()
	p.SkinParts = f.U8()
	p.MainHand = f.VarInt()
}

type ClientPluginMessage struct {
	Channel string
	Data    []byte
}

func (*ClientPluginMessage) Kind() Kind { return KindClientPluginMessage }

func (p *ClientPluginMessage) marshal(e *wire.Encoder) {
	e.WriteString(p.Channel)
	e.WriteByteArray(p.Data)
}

func (p *ClientPluginMessage) unmarshal(f *wire.Fields) {
	p.Channel = f.String(0)
	p.Data = f.ByteArray()
}
