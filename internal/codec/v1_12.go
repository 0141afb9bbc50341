package codec

import (
	"mcproxy/internal/packet"
	"mcproxy/internal/state"
)

var table1_12 = append(loginEntries(),
	def(state.Play, 0x03, decodeSpawnMob, encodeSpawnMob),
	def(state.Play, 0x0B, decodeBlockChange, encodeBlockChange),
	def(state.Play, 0x0F, decodeChatMessage, encodeChatMessage),
	def(state.Play, 0x16, decodeSetSlot, encodeSetSlot),
	def(state.Play, 0x18, decodeServerPluginMessage, encodeServerPluginMessage),
	def(state.Play, 0x1A, decodeDisconnect, encodeDisconnect),
	def(state.Play, 0x1D, decodeUnloadChunk, encodeUnloadChunk),
	def(state.Play, 0x1F, decodeKeepAliveRequest, encodeKeepAliveRequest),
	def(state.Play, 0x20, decodeChunk1_12, encodeChunk1_12),
	def(state.Play, 0x23, decodeJoinGame1_12, encodeJoinGame1_12),
	def(state.Play, 0x26, decodeEntityRelativeMove, encodeEntityRelativeMove),
	def(state.Play, 0x2F, decodePlayerTeleport, encodePlayerTeleport),
	def(state.Play, 0x32, decodeDestroyEntities, encodeDestroyEntities),
	def(state.Play, 0x3A, decodeSetHeldItem, encodeSetHeldItem),
	def(state.Play, 0x3C, decodeEntityMetadata, encodeEntityMetadata),
	def(state.Play, 0x47, decodeTimeUpdate, encodeTimeUpdate),
	def(state.Play, 0x4C, decodeEntityTeleport, encodeEntityTeleport),

	def(state.Play, 0x00, decodeTeleportConfirm, encodeTeleportConfirm),
	def(state.Play, 0x02, decodeClientChat, encodeClientChat),
	def(state.Play, 0x04, decodeClientSettings, encodeClientSettings),
	def(state.Play, 0x09, decodeClientPluginMessage, encodeClientPluginMessage),
	def(state.Play, 0x0B, decodeKeepAliveResponse, encodeKeepAliveResponse),
	def(state.Play, 0x0C, decodePlayerOnGround, encodePlayerOnGround),
	def(state.Play, 0x0D, decodePlayerPosition, encodePlayerPosition),
	def(state.Play, 0x0E, decodePlayerPositionLook, encodePlayerPositionLook),
	def(state.Play, 0x0F, decodePlayerLook, encodePlayerLook),
	def(state.Play, 0x14, decodeBlockDig, encodeBlockDig),
	def(state.Play, 0x1A, decodeHeldItemChange, encodeHeldItemChange),
	def(state.Play, 0x1D, decodeAnimation, encodeAnimation),
	def(state.Play, 0x1F, decodeBlockPlace1_12, encodeBlockPlace1_12),
)

func decodeJoinGame1_12(r *reader) packet.Packet {
	p := &packet.JoinGame{}
	p.EntityID = r.I32()
	mode := r.U8()
	p.Gamemode, p.Hardcore = mode&^hardcoreBit, mode&hardcoreBit != 0
	p.Dimension = r.I32()
	p.Difficulty = r.U8()
	p.MaxPlayers = r.U8()
	p.LevelType = r.String(16)
	p.ReducedDebugInfo = r.Bool()
	return p
}

func encodeJoinGame1_12(w *writer, p *packet.JoinGame) {
	w.WriteInt32(p.EntityID)
	w.WriteUint8(gamemode(p))
	w.WriteInt32(p.Dimension)
	w.WriteUint8(p.Difficulty)
	w.WriteUint8(p.MaxPlayers)
	w.WriteString(p.LevelType)
	w.WriteBool(p.ReducedDebugInfo)
}

func decodeBlockPlace1_12(r *reader) packet.Packet {
	p := &packet.BlockPlace{}
	p.Location = r.position()
	p.Face = r.VarInt()
	p.Hand = r.VarInt()
	p.CursorX, p.CursorY, p.CursorZ = r.F32(), r.F32(), r.F32()
	return p
}

// From 1.9 on, using the held item without a target is a separate
// packet, so face -1 has no encoding here.
func encodeBlockPlace1_12(w *writer, p *packet.BlockPlace) {
	if p.Face < 0 {
		w.gapf("Face", "use-item without a block has its own packet")
	}
	w.position("Location", p.Location)
	w.WriteVarInt(p.Face)
	w.WriteVarInt(p.Hand)
	w.WriteFloat32(p.CursorX)
	w.WriteFloat32(p.CursorY)
	w.WriteFloat32(p.CursorZ)
}
