// Package packet defines the canonical, version-agnostic packet model.
//
// Every logical packet kind is one struct implementing Packet. The set is
// closed: Packet has unexported methods, so variants can only be added
// here, together with a Kind constant and an entry in the kinds table.
// Fields carry semantic values (canonical block-state ids, UUIDs, block
// coordinates as float64) and never a version-specific byte layout.
package packet

import "fmt"

// Direction is the way a packet travels relative to the game server.
type Direction uint8

const (
	Serverbound Direction = iota + 1
	Clientbound
)

func (d Direction) String() string {
	switch d {
	case Serverbound:
		return "serverbound"
	case Clientbound:
		return "clientbound"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Kind identifies a canonical packet variant. Values are stable: the
// backend link carries them on the wire.
type Kind uint16

const (
	KindHandshake Kind = iota + 1

	KindStatusRequest
	KindStatusResponse
	KindStatusPing
	KindStatusPong

	KindLoginStart
	KindEncryptionRequest
	KindEncryptionResponse
	KindSetCompression
	KindLoginSuccess
	KindLoginDisconnect

	KindJoinGame
	KindKeepAliveRequest
	KindChatMessage
	KindTimeUpdate
	KindSetHeldItem
	KindPlayerTeleport
	KindDisconnect
	KindBlockChange
	KindChunkData
	KindUnloadChunk
	KindUpdateLight
	KindSpawnMob
	KindDestroyEntities
	KindEntityRelativeMove
	KindEntityTeleport
	KindEntityMetadata
	KindSetSlot
	KindServerPluginMessage

	KindKeepAliveResponse
	KindClientChat
	KindPlayerOnGround
	KindPlayerPosition
	KindPlayerLook
	KindPlayerPositionLook
	KindTeleportConfirm
	KindBlockDig
	KindBlockPlace
	KindHeldItemChange
	KindAnimation
	KindClientSettings
	KindClientPluginMessage

	kindCount
)

type kindInfo struct {
	name string
	dir  Direction
	new  func() Packet
}

var kinds = [kindCount]kindInfo{
	KindHandshake: {"Handshake", Serverbound, func() Packet { return new(Handshake) }},

	KindStatusRequest:  {"StatusRequest", Serverbound, func() Packet { return new(StatusRequest) }},
	KindStatusResponse: {"StatusResponse", Clientbound, func() Packet { return new(StatusResponse) }},
	KindStatusPing:     {"StatusPing", Serverbound, func() Packet { return new(StatusPing) }},
	KindStatusPong:     {"StatusPong", Clientbound, func() Packet { return new(StatusPong) }},

	KindLoginStart:         {"LoginStart", Serverbound, func() Packet { return new(LoginStart) }},
	KindEncryptionRequest:  {"EncryptionRequest", Clientbound, func() Packet { return new(EncryptionRequest) }},
	KindEncryptionResponse: {"EncryptionResponse", Serverbound, func() Packet { return new(EncryptionResponse) }},
	KindSetCompression:     {"SetCompression", Clientbound, func() Packet { return new(SetCompression) }},
	KindLoginSuccess:       {"LoginSuccess", Clientbound, func() Packet { return new(LoginSuccess) }},
	KindLoginDisconnect:    {"LoginDisconnect", Clientbound, func() Packet { return new(LoginDisconnect) }},

	KindJoinGame:            {"JoinGame", Clientbound, func() Packet { return new(JoinGame) }},
	KindKeepAliveRequest:    {"KeepAliveRequest", Clientbound, func() Packet { return new(KeepAliveRequest) }},
	KindChatMessage:         {"ChatMessage", Clientbound, func() Packet { return new(ChatMessage) }},
	KindTimeUpdate:          {"TimeUpdate", Clientbound, func() Packet { return new(TimeUpdate) }},
	KindSetHeldItem:         {"SetHeldItem", Clientbound, func() Packet { return new(SetHeldItem) }},
	KindPlayerTeleport:      {"PlayerTeleport", Clientbound, func() Packet { return new(PlayerTeleport) }},
	KindDisconnect:          {"Disconnect", Clientbound, func() Packet { return new(Disconnect) }},
	KindBlockChange:         {"BlockChange", Clientbound, func() Packet { return new(BlockChange) }},
	KindChunkData:           {"ChunkData", Clientbound, func() Packet { return new(ChunkData) }},
	KindUnloadChunk:         {"UnloadChunk", Clientbound, func() Packet { return new(UnloadChunk) }},
	KindUpdateLight:         {"UpdateLight", Clientbound, func() Packet { return new(UpdateLight) }},
	KindSpawnMob:            {"SpawnMob", Clientbound, func() Packet { return new(SpawnMob) }},
	KindDestroyEntities:     {"DestroyEntities", Clientbound, func() Packet { return new(DestroyEntities) }},
	KindEntityRelativeMove:  {"EntityRelativeMove", Clientbound, func() Packet { return new(EntityRelativeMove) }},
	KindEntityTeleport:      {"EntityTeleport", Clientbound, func() Packet { return new(EntityTeleport) }},
	KindEntityMetadata:      {"EntityMetadata", Clientbound, func() Packet { return new(EntityMetadata) }},
	KindSetSlot:             {"SetSlot", Clientbound, func() Packet { return new(SetSlot) }},
	KindServerPluginMessage: {"ServerPluginMessage", Clientbound, func() Packet { return new(ServerPluginMessage) }},

	KindKeepAliveResponse:   {"KeepAliveResponse", Serverbound, func() Packet { return new(KeepAliveResponse) }},
	KindClientChat:          {"ClientChat", Serverbound, func() Packet { return new(ClientChat) }},
	KindPlayerOnGround:      {"PlayerOnGround", Serverbound, func() Packet { return new(PlayerOnGround) }},
	KindPlayerPosition:      {"PlayerPosition", Serverbound, func() Packet { return new(PlayerPosition) }},
	KindPlayerLook:          {"PlayerLook", Serverbound, func() Packet { return new(PlayerLook) }},
	KindPlayerPositionLook:  {"PlayerPositionLook", Serverbound, func() Packet { return new(PlayerPositionLook) }},
	KindTeleportConfirm:     {"TeleportConfirm", Serverbound, func() Packet { return new(TeleportConfirm) }},
	KindBlockDig:            {"BlockDig", Serverbound, func() Packet { return new(BlockDig) }},
	KindBlockPlace:          {"BlockPlace", Serverbound, func() Packet { return new(BlockPlace) }},
	KindHeldItemChange:      {"HeldItemChange", Serverbound, func() Packet { return new(HeldItemChange) }},
	KindAnimation:           {"Animation", Serverbound, func() Packet { return new(Animation) }},
	KindClientSettings:      {"ClientSettings", Serverbound, func() Packet { return new(ClientSettings) }},
	KindClientPluginMessage: {"ClientPluginMessage", Serverbound, func() Packet { return new(ClientPluginMessage) }},
}

func (k Kind) valid() bool { return k > 0 && k < kindCount }

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", uint16(k))
	}
	return kinds[k].name
}

// Direction returns the direction the kind travels.
func (k Kind) Direction() Direction {
	if !k.valid() {
		return 0
	}
	return kinds[k].dir
}

// New returns a zero packet of kind k.
func New(k Kind) (Packet, bool) {
	if !k.valid() {
		return nil, false
	}
	return kinds[k].new(), true
}

// Kinds returns every defined kind in numeric order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := Kind(1); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}
