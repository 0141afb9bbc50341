package codec

import (
	"math"

	"mcproxy/internal/packet"
	"mcproxy/internal/state"
)

const hardcoreBit = 0x8

var table1_8 = append(loginEntries(),
	def(state.Play, 0x00, decodeKeepAliveRequest, encodeKeepAliveRequest),
	def(state.Play, 0x01, decodeJoinGame1_8, encodeJoinGame1_8),
	def(state.Play, 0x02, decodeChatMessage, encodeChatMessage),
	def(state.Play, 0x03, decodeTimeUpdate, encodeTimeUpdate),
	def(state.Play, 0x08, decodePlayerTeleport, encodePlayerTeleport),
	def(state.Play, 0x09, decodeSetHeldItem, encodeSetHeldItem),
	def(state.Play, 0x0F, decodeSpawnMob, encodeSpawnMob),
	def(state.Play, 0x13, decodeDestroyEntities, encodeDestroyEntities),
	def(state.Play, 0x15, decodeEntityRelativeMove, encodeEntityRelativeMove),
	def(state.Play, 0x18, decodeEntityTeleport, encodeEntityTeleport),
	def(state.Play, 0x1C, decodeEntityMetadata, encodeEntityMetadata),
	def(state.Play, 0x21, decodeChunk1_8, encodeChunk1_8),
	def[*packet.UnloadChunk](state.Play, 0x21, nil, encodeUnloadChunk1_8),
	def(state.Play, 0x23, decodeBlockChange, encodeBlockChange),
	def(state.Play, 0x2F, decodeSetSlot, encodeSetSlot),
	def(state.Play, 0x3F, decodeServerPluginMessage, encodeServerPluginMessage),
	def(state.Play, 0x40, decodeDisconnect, encodeDisconnect),

	def(state.Play, 0x00, decodeKeepAliveResponse, encodeKeepAliveResponse),
	def(state.Play, 0x01, decodeClientChat, encodeClientChat),
	def(state.Play, 0x03, decodePlayerOnGround, encodePlayerOnGround),
	def(state.Play, 0x04, decodePlayerPosition, encodePlayerPosition),
	def(state.Play, 0x05, decodePlayerLook, encodePlayerLook),
	def(state.Play, 0x06, decodePlayerPositionLook, encodePlayerPositionLook),
	def(state.Play, 0x07, decodeBlockDig, encodeBlockDig),
	def(state.Play, 0x08, decodeBlockPlace1_8, encodeBlockPlace1_8),
	def(state.Play, 0x09, decodeHeldItemChange, encodeHeldItemChange),
	def(state.Play, 0x0A, decodeAnimation, encodeAnimation),
	def(state.Play, 0x15, decodeClientSettings, encodeClientSettings),
	def(state.Play, 0x17, decodeClientPluginMessage, encodeClientPluginMessage),
)

func decodeJoinGame1_8(r *reader) packet.Packet {
	p := &packet.JoinGame{}
	p.EntityID = r.I32()
	mode := r.U8()
	p.Gamemode, p.Hardcore = mode&^hardcoreBit, mode&hardcoreBit != 0
	p.Dimension = int32(r.I8())
	p.Difficulty = r.U8()
	p.MaxPlayers = r.U8()
	p.LevelType = r.String(16)
	p.ReducedDebugInfo = r.Bool()
	return p
}

func encodeJoinGame1_8(w *writer, p *packet.JoinGame) {
	w.WriteInt32(p.EntityID)
	w.WriteUint8(gamemode(p))
	if p.Dimension < math.MinInt8 || p.Dimension > math.MaxInt8 {
		w.gapf("Dimension", "dimension %d does not fit a byte", p.Dimension)
	}
	w.WriteInt8(int8(p.Dimension))
	w.WriteUint8(p.Difficulty)
	w.WriteUint8(p.MaxPlayers)
	w.WriteString(p.LevelType)
	w.WriteBool(p.ReducedDebugInfo)
}

func gamemode(p *packet.JoinGame) uint8 {
	if p.Hardcore {
		return p.Gamemode | hardcoreBit
	}
	return p.Gamemode
}

// 1.8 sends the held item and byte cursor offsets in sixteenths, and
// face 255 for "use the held item".
func decodeBlockPlace1_8(r *reader) packet.Packet {
	p := &packet.BlockPlace{}
	p.Location = r.position()
	p.Face = int32(r.U8())
	if p.Face == 255 {
		p.Face = -1
	}
	if r.skipSlot() {
		r.drop("HeldItem", "held item is tracked by the server")
	}
	p.CursorX = float32(r.U8()) / 16
	p.CursorY = float32(r.U8()) / 16
	p.CursorZ = float32(r.U8()) / 16
	return p
}

func encodeBlockPlace1_8(w *writer, p *packet.BlockPlace) {
	if p.Hand != 0 {
		w.gapf("Hand", "no off hand")
	}
	if p.Face < -1 || p.Face > 5 {
		w.gapf("Face", "face %d out of range", p.Face)
	}
	w.position("Location", p.Location)
	w.WriteUint8(uint8(p.Face))
	w.slot(packet.Slot{})
	w.WriteUint8(cursorByte(p.CursorX))
	w.WriteUint8(cursorByte(p.CursorY))
	w.WriteUint8(cursorByte(p.CursorZ))
}

func cursorByte(v float32) uint8 {
	b := math.Round(float64(v) * 16)
	if b < 0 {
		return 0
	}
	if b > 16 {
		return 16
	}
	return uint8(b)
}
