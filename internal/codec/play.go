package codec

import (
	"math"

	"mcproxy/internal/packet"
)

// Play packets whose layout differs between versions only in ways the
// reader and writer helpers already switch on.

// ── clientbound ─────────────────────────────────────────────────────

func (r *reader) keepAliveID() int64 {
	if r.c.is1_8() {
		return int64(r.VarInt())
	}
	return r.I64()
}

func (w *writer) keepAliveID(id int64) {
	if !w.c.is1_8() {
		w.WriteInt64(id)
		return
	}
	if id < math.MinInt32 || id > math.MaxInt32 {
		w.gapf("ID", "keep-alive id %d does not fit a varint", id)
		return
	}
	w.WriteVarInt(int32(id))
}

func decodeKeepAliveRequest(r *reader) packet.Packet {
	return &packet.KeepAliveRequest{ID: r.keepAliveID()}
}

func encodeKeepAliveRequest(w *writer, p *packet.KeepAliveRequest) { w.keepAliveID(p.ID) }

func decodeChatMessage(r *reader) packet.Packet {
	p := &packet.ChatMessage{}
	p.JSON = r.String(0)
	p.Position = packet.ChatPosition(r.U8())
	return p
}

func encodeChatMessage(w *writer, p *packet.ChatMessage) {
	w.WriteString(p.JSON)
	w.WriteUint8(uint8(p.Position))
}

func decodeTimeUpdate(r *reader) packet.Packet {
	p := &packet.TimeUpdate{}
	p.WorldAge = r.I64()
	p.TimeOfDay = r.I64()
	return p
}

func encodeTimeUpdate(w *writer, p *packet.TimeUpdate) {
	w.WriteInt64(p.WorldAge)
	w.WriteInt64(p.TimeOfDay)
}

func decodeSetHeldItem(r *reader) packet.Packet          { return &packet.SetHeldItem{Slot: r.I8()} }
func encodeSetHeldItem(w *writer, p *packet.SetHeldItem) { w.WriteInt8(p.Slot) }

func decodePlayerTeleport(r *reader) packet.Packet {
	p := &packet.PlayerTeleport{}
	p.X, p.Y, p.Z = r.F64(), r.F64(), r.F64()
	p.Yaw, p.Pitch = r.F32(), r.F32()
	p.Flags = r.U8()
	if !r.c.is1_8() {
		p.TeleportID = r.VarInt()
	}
	return p
}

func encodePlayerTeleport(w *writer, p *packet.PlayerTeleport) {
	w.WriteFloat64(p.X)
	w.WriteFloat64(p.Y)
	w.WriteFloat64(p.Z)
	w.WriteFloat32(p.Yaw)
	w.WriteFloat32(p.Pitch)
	w.WriteUint8(p.Flags)
	if !w.c.is1_8() {
		w.WriteVarInt(p.TeleportID)
	}
}

func decodeDisconnect(r *reader) packet.Packet         { return &packet.Disconnect{Reason: r.String(0)} }
func encodeDisconnect(w *writer, p *packet.Disconnect) { w.WriteString(p.Reason) }

func decodeBlockChange(r *reader) packet.Packet {
	p := &packet.BlockChange{}
	p.Location = r.position()
	p.Block = r.block("Block", uint32(r.VarInt()))
	return p
}

func encodeBlockChange(w *writer, p *packet.BlockChange) {
	w.position("Location", p.Location)
	w.WriteVarInt(int32(w.block("Block", p.Block)))
}

func decodeUnloadChunk(r *reader) packet.Packet {
	p := &packet.UnloadChunk{}
	p.X, p.Z = r.I32(), r.I32()
	return p
}

func encodeUnloadChunk(w *writer, p *packet.UnloadChunk) {
	w.WriteInt32(p.X)
	w.WriteInt32(p.Z)
}

func decodeSpawnMob(r *reader) packet.Packet {
	p := &packet.SpawnMob{EntityID: r.VarInt()}
	if r.c.is1_8() {
		p.Type = r.entityType(uint32(r.U8()))
		p.X, p.Y, p.Z = r.fixed(), r.fixed(), r.fixed()
	} else {
		p.UUID = r.UUID()
		p.Type = r.entityType(uint32(r.VarInt()))
		p.X, p.Y, p.Z = r.F64(), r.F64(), r.F64()
	}
	p.Yaw, p.Pitch, p.HeadPitch = r.U8(), r.U8(), r.U8()
	p.VelocityX, p.VelocityY, p.VelocityZ = r.I16(), r.I16(), r.I16()
	p.Metadata = r.metadata()
	return p
}

func encodeSpawnMob(w *writer, p *packet.SpawnMob) {
	w.WriteVarInt(p.EntityID)
	typ := w.entityType(p.Type)
	if w.c.is1_8() {
		if typ > math.MaxUint8 {
			w.gapf("Type", "entity type %d does not fit a byte", typ)
		}
		w.WriteUint8(uint8(typ))
		w.WriteInt32(w.fixed("X", p.X))
		w.WriteInt32(w.fixed("Y", p.Y))
		w.WriteInt32(w.fixed("Z", p.Z))
	} else {
		w.WriteUUID(p.UUID)
		w.WriteVarInt(int32(typ))
		w.WriteFloat64(p.X)
		w.WriteFloat64(p.Y)
		w.WriteFloat64(p.Z)
	}
	w.WriteUint8(p.Yaw)
	w.WriteUint8(p.Pitch)
	w.WriteUint8(p.HeadPitch)
	w.WriteInt16(p.VelocityX)
	w.WriteInt16(p.VelocityY)
	w.WriteInt16(p.VelocityZ)
	w.metadata(p.Metadata)
}

func decodeDestroyEntities(r *reader) packet.Packet {
	p := &packet.DestroyEntities{}
	n := r.Len(1 << 16)
	if !r.OK() {
		return p
	}
	p.EntityIDs = make([]int32, n)
	for i := range p.EntityIDs {
		p.EntityIDs[i] = r.VarInt()
	}
	return p
}

func encodeDestroyEntities(w *writer, p *packet.DestroyEntities) {
	w.WriteVarInt(int32(len(p.EntityIDs)))
	for _, id := range p.EntityIDs {
		w.WriteVarInt(id)
	}
}

func decodeEntityRelativeMove(r *reader) packet.Packet {
	p := &packet.EntityRelativeMove{EntityID: r.VarInt()}
	if r.c.is1_8() {
		p.DeltaX = float64(r.I8()) / 32
		p.DeltaY = float64(r.I8()) / 32
		p.DeltaZ = float64(r.I8()) / 32
	} else {
		p.DeltaX = float64(r.I16()) / 4096
		p.DeltaY = float64(r.I16()) / 4096
		p.DeltaZ = float64(r.I16()) / 4096
	}
	p.OnGround = r.Bool()
	return p
}

func encodeEntityRelativeMove(w *writer, p *packet.EntityRelativeMove) {
	w.WriteVarInt(p.EntityID)
	dx, dy, dz := w.delta("DeltaX", p.DeltaX), w.delta("DeltaY", p.DeltaY), w.delta("DeltaZ", p.DeltaZ)
	if w.c.is1_8() {
		w.WriteInt8(int8(dx))
		w.WriteInt8(int8(dy))
		w.WriteInt8(int8(dz))
	} else {
		w.WriteInt16(int16(dx))
		w.WriteInt16(int16(dy))
		w.WriteInt16(int16(dz))
	}
	w.WriteBool(p.OnGround)
}

func decodeEntityTeleport(r *reader) packet.Packet {
	p := &packet.EntityTeleport{EntityID: r.VarInt()}
	if r.c.is1_8() {
		p.X, p.Y, p.Z = r.fixed(), r.fixed(), r.fixed()
	} else {
		p.X, p.Y, p.Z = r.F64(), r.F64(), r.F64()
	}
	p.Yaw, p.Pitch = r.U8(), r.U8()
	p.OnGround = r.Bool()
	return p
}

func encodeEntityTeleport(w *writer, p *packet.EntityTeleport) {
	w.WriteVarInt(p.EntityID)
	if w.c.is1_8() {
		w.WriteInt32(w.fixed("X", p.X))
		w.WriteInt32(w.fixed("Y", p.Y))
		w.WriteInt32(w.fixed("Z", p.Z))
	} else {
		w.WriteFloat64(p.X)
		w.WriteFloat64(p.Y)
		w.WriteFloat64(p.Z)
	}
	w.WriteUint8(p.Yaw)
	w.WriteUint8(p.Pitch)
	w.WriteBool(p.OnGround)
}

func decodeEntityMetadata(r *reader) packet.Packet {
	p := &packet.EntityMetadata{EntityID: r.VarInt()}
	p.Metadata = r.metadata()
	return p
}

func encodeEntityMetadata(w *writer, p *packet.EntityMetadata) {
	w.WriteVarInt(p.EntityID)
	w.metadata(p.Metadata)
}

func decodeSetSlot(r *reader) packet.Packet {
	p := &packet.SetSlot{}
	p.WindowID = r.I8()
	p.Slot = r.I16()
	p.Item = r.slot()
	return p
}

func encodeSetSlot(w *writer, p *packet.SetSlot) {
	w.WriteInt8(p.WindowID)
	w.WriteInt16(p.Slot)
	w.slot(p.Item)
}

// Plugin message data runs to the end of the packet.
func decodeServerPluginMessage(r *reader) packet.Packet {
	p := &packet.ServerPluginMessage{}
	p.Channel = r.c.channelIn(r.String(0))
	p.Data = r.RestCopy()
	return p
}

func encodeServerPluginMessage(w *writer, p *packet.ServerPluginMessage) {
	w.WriteString(w.c.channelOut(p.Channel))
	w.WriteRaw(p.Data)
}

// ── serverbound ─────────────────────────────────────────────────────

func decodeKeepAliveResponse(r *reader) packet.Packet {
	return &packet.KeepAliveResponse{ID: r.keepAliveID()}
}

func encodeKeepAliveResponse(w *writer, p *packet.KeepAliveResponse) { w.keepAliveID(p.ID) }

func decodeClientChat(r *reader) packet.Packet         { return &packet.ClientChat{Message: r.chat()} }
func encodeClientChat(w *writer, p *packet.ClientChat) { w.chat(p.Message) }

func decodePlayerOnGround(r *reader) packet.Packet             { return &packet.PlayerOnGround{OnGround: r.Bool()} }
func encodePlayerOnGround(w *writer, p *packet.PlayerOnGround) { w.WriteBool(p.OnGround) }

func decodePlayerPosition(r *reader) packet.Packet {
	p := &packet.PlayerPosition{}
	p.X, p.Y, p.Z = r.F64(), r.F64(), r.F64()
	p.OnGround = r.Bool()
	return p
}

func encodePlayerPosition(w *writer, p *packet.PlayerPosition) {
	w.WriteFloat64(p.X)
	w.WriteFloat64(p.Y)
	w.WriteFloat64(p.Z)
	w.WriteBool(p.OnGround)
}

func decodePlayerLook(r *reader) packet.Packet {
	p := &packet.PlayerLook{}
	p.Yaw, p.Pitch = r.F32(), r.F32()
	p.OnGround = r.Bool()
	return p
}

func encodePlayerLook(w *writer, p *packet.PlayerLook) {
	w.WriteFloat32(p.Yaw)
	w.WriteFloat32(p.Pitch)
	w.WriteBool(p.OnGround)
}

func decodePlayerPositionLook(r *reader) packet.Packet {
	p := &packet.PlayerPositionLook{}
	p.X, p.Y, p.Z = r.F64(), r.F64(), r.F64()
	p.Yaw, p.Pitch = r.F32(), r.F32()
	p.OnGround = r.Bool()
	return p
}

func encodePlayerPositionLook(w *writer, p *packet.PlayerPositionLook) {
	w.WriteFloat64(p.X)
	w.WriteFloat64(p.Y)
	w.WriteFloat64(p.Z)
	w.WriteFloat32(p.Yaw)
	w.WriteFloat32(p.Pitch)
	w.WriteBool(p.OnGround)
}

func decodeTeleportConfirm(r *reader) packet.Packet {
	return &packet.TeleportConfirm{TeleportID: r.VarInt()}
}
func encodeTeleportConfirm(w *writer, p *packet.TeleportConfirm) { w.WriteVarInt(p.TeleportID) }

func decodeBlockDig(r *reader) packet.Packet {
	p := &packet.BlockDig{}
	if r.c.is1_8() {
		p.Status = int32(r.I8())
	} else {
		p.Status = r.VarInt()
	}
	p.Location = r.position()
	p.Face = r.I8()
	return p
}

func encodeBlockDig(w *writer, p *packet.BlockDig) {
	if w.c.is1_8() {
		if p.Status < math.MinInt8 || p.Status > math.MaxInt8 {
			w.gapf("Status", "status %d does not fit a byte", p.Status)
		}
		w.WriteInt8(int8(p.Status))
	} else {
		w.WriteVarInt(p.Status)
	}
	w.position("Location", p.Location)
	w.WriteInt8(p.Face)
}

func decodeHeldItemChange(r *reader) packet.Packet             { return &packet.HeldItemChange{Slot: r.I16()} }
func encodeHeldItemChange(w *writer, p *packet.HeldItemChange) { w.WriteInt16(p.Slot) }

// 1.8 has no off hand, so its swing carries no fields.
func decodeAnimation(r *reader) packet.Packet {
	p := &packet.Animation{}
	if !r.c.is1_8() {
		p.Hand = r.VarInt()
	}
	return p
}

func encodeAnimation(w *writer, p *packet.Animation) {
	if w.c.is1_8() {
		if p.Hand != 0 {
			w.gapf("Hand", "no off hand")
		}
		return
	}
	w.WriteVarInt(p.Hand)
}

func decodeClientSettings(r *reader) packet.Packet {
	p := &packet.ClientSettings{MainHand: 1}
	p.Locale = r.String(16)
	p.ViewDistance = r.I8()
	if r.c.is1_8() {
		p.ChatMode = int32(r.I8())
	} else {
		p.ChatMode = r.VarInt()
	}
	p.ChatColors = r.Bool()
	p.SkinParts = r.U8()
	if !r.c.is1_8() {
		p.MainHand = r.VarInt()
	}
	return p
}

func encodeClientSettings(w *writer, p *packet.ClientSettings) {
	w.WriteString(p.Locale)
	w.WriteInt8(p.ViewDistance)
	if w.c.is1_8() {
		w.WriteInt8(int8(p.ChatMode))
	} else {
		w.WriteVarInt(p.ChatMode)
	}
	w.WriteBool(p.ChatColors)
	w.WriteUint8(p.SkinParts)
	if !w.c.is1_8() {
		w.WriteVarInt(p.MainHand)
	}
}

func decodeClientPluginMessage(r *reader) packet.Packet {
	p := &packet.ClientPluginMessage{}
	p.Channel = r.c.channelIn(r.String(0))
	p.Data = r.RestCopy()
	return p
}

func encodeClientPluginMessage(w *writer, p *packet.ClientPluginMessage) {
	w.WriteString(w.c.channelOut(p.Channel))
	w.WriteRaw(p.Data)
}
