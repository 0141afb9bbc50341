package codec

import (
	"mcproxy/internal/packet"
	"mcproxy/internal/state"
)

var table1_14 = append(loginEntries(),
	def(state.Play, 0x03, decodeSpawnMob, encodeSpawnMob),
	def(state.Play, 0x0B, decodeBlockChange, encodeBlockChange),
	def(state.Play, 0x0E, decodeChatMessage, encodeChatMessage),
	def(state.Play, 0x16, decodeSetSlot, encodeSetSlot),
	def(state.Play, 0x18, decodeServerPluginMessage, encodeServerPluginMessage),
	def(state.Play, 0x1A, decodeDisconnect, encodeDisconnect),
	def(state.Play, 0x1D, decodeUnloadChunk, encodeUnloadChunk),
	def(state.Play, 0x20, decodeKeepAliveRequest, encodeKeepAliveRequest),
	def(state.Play, 0x21, decodeChunk1_14, encodeChunk1_14),
	def(state.Play, 0x24, decodeUpdateLight, encodeUpdateLight),
	def(state.Play, 0x25, decodeJoinGame1_14, encodeJoinGame1_14),
	def(state.Play, 0x28, decodeEntityRelativeMove, encodeEntityRelativeMove),
	def(state.Play, 0x35, decodePlayerTeleport, encodePlayerTeleport),
	def(state.Play, 0x37, decodeDestroyEntities, encodeDestroyEntities),
	def(state.Play, 0x3F, decodeSetHeldItem, encodeSetHeldItem),
	def(state.Play, 0x43, decodeEntityMetadata, encodeEntityMetadata),
	def(state.Play, 0x4E, decodeTimeUpdate, encodeTimeUpdate),
	def(state.Play, 0x56, decodeEntityTeleport, encodeEntityTeleport),

	def(state.Play, 0x00, decodeTeleportConfirm, encodeTeleportConfirm),
	def(state.Play, 0x03, decodeClientChat, encodeClientChat),
	def(state.Play, 0x05, decodeClientSettings, encodeClientSettings),
	def(state.Play, 0x0B, decodeClientPluginMessage, encodeClientPluginMessage),
	def(state.Play, 0x0F, decodeKeepAliveResponse, encodeKeepAliveResponse),
	def(state.Play, 0x11, decodePlayerPosition, encodePlayerPosition),
	def(state.Play, 0x12, decodePlayerPositionLook, encodePlayerPositionLook),
	def(state.Play, 0x13, decodePlayerLook, encodePlayerLook),
	def(state.Play, 0x14, decodePlayerOnGround, encodePlayerOnGround),
	def(state.Play, 0x1A, decodeBlockDig, encodeBlockDig),
	def(state.Play, 0x23, decodeHeldItemChange, encodeHeldItemChange),
	def(state.Play, 0x2A, decodeAnimation, encodeAnimation),
	def(state.Play, 0x2C, decodeBlockPlace1_14, encodeBlockPlace1_14),
)

// 1.14 dropped difficulty from JoinGame and added the view distance.
func decodeJoinGame1_14(r *reader) packet.Packet {
	p := &packet.JoinGame{}
	p.EntityID = r.I32()
	mode := r.U8()
	p.Gamemode, p.Hardcore = mode&^hardcoreBit, mode&hardcoreBit != 0
	p.Dimension = r.I32()
	p.MaxPlayers = r.U8()
	p.LevelType = r.String(16)
	p.ViewDistance = r.VarInt()
	p.ReducedDebugInfo = r.Bool()
	return p
}

func encodeJoinGame1_14(w *writer, p *packet.JoinGame) {
	w.WriteInt32(p.EntityID)
	w.WriteUint8(gamemode(p))
	w.WriteInt32(p.Dimension)
	w.WriteUint8(p.MaxPlayers)
	w.WriteString(p.LevelType)
	w.WriteVarInt(p.ViewDistance)
	w.WriteBool(p.ReducedDebugInfo)
}

func decodeBlockPlace1_14(r *reader) packet.Packet {
	p := &packet.BlockPlace{}
	p.Hand = r.VarInt()
	p.Location = r.position()
	p.Face = r.VarInt()
	p.CursorX, p.CursorY, p.CursorZ = r.F32(), r.F32(), r.F32()
	p.InsideBlock = r.Bool()
	return p
}

func encodeBlockPlace1_14(w *writer, p *packet.BlockPlace) {
	if p.Face < 0 {
		w.gapf("Face", "use-item without a block has its own packet")
	}
	w.WriteVarInt(p.Hand)
	w.position("Location", p.Location)
	w.WriteVarInt(p.Face)
	w.WriteFloat32(p.CursorX)
	w.WriteFloat32(p.CursorY)
	w.WriteFloat32(p.CursorZ)
	w.WriteBool(p.InsideBlock)
}
