// Package state holds the connection phase machine: which packet kinds
// are legal in each phase and which phase may follow which.
package state

import (
	"fmt"

	"mcproxy/internal/packet"
)

// State is a connection phase.
type State uint8

const (
	Handshake State = iota
	Status
	Login
	Play
	Closed
)

func (s State) String() string {
	switch s {
	case Handshake:
		return "handshake"
	case Status:
		return "status"
	case Login:
		return "login"
	case Play:
		return "play"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// next lists the phases reachable from each phase. Closed is reachable
// from everywhere and is not listed.
var next = map[State][]State{
	Handshake: {Status, Login},
	Login:     {Play},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to State) bool {
	if from == Closed {
		return false
	}
	if to == Closed {
		return true
	}
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}

type kindSet map[packet.Kind]struct{}

func setOf(kinds ...packet.Kind) kindSet {
	s := make(kindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

type legalKey struct {
	state State
	dir   packet.Direction
}

var legal = map[legalKey]kindSet{
	{Handshake, packet.Serverbound}: setOf(packet.KindHandshake),

	{Status, packet.Serverbound}: setOf(packet.KindStatusRequest, packet.KindStatusPing),
	{Status, packet.Clientbound}: setOf(packet.KindStatusResponse, packet.KindStatusPong),

	{Login, packet.Serverbound}: setOf(packet.KindLoginStart, packet.KindEncryptionResponse),
	{Login, packet.Clientbound}: setOf(
		packet.KindEncryptionRequest,
		packet.KindSetCompression,
		packet.KindLoginSuccess,
		packet.KindLoginDisconnect,
	),

	{Play, packet.Serverbound}: setOf(
		packet.KindKeepAliveResponse,
		packet.KindClientChat,
		packet.KindPlayerOnGround,
		packet.KindPlayerPosition,
		packet.KindPlayerLook,
		packet.KindPlayerPositionLook,
		packet.KindTeleportConfirm,
		packet.KindBlockDig,
		packet.KindBlockPlace,
		packet.KindHeldItemChange,
		packet.KindAnimation,
		packet.KindClientSettings,
		packet.KindClientPluginMessage,
	),
	{Play, packet.Clientbound}: setOf(
		packet.KindJoinGame,
		packet.KindKeepAliveRequest,
		packet.KindChatMessage,
		packet.KindTimeUpdate,
		packet.KindSetHeldItem,
		packet.KindPlayerTeleport,
		packet.KindDisconnect,
		packet.KindBlockChange,
		packet.KindChunkData,
		packet.KindUnloadChunk,
		packet.KindUpdateLight,
		packet.KindSpawnMob,
		packet.KindDestroyEntities,
		packet.KindEntityRelativeMove,
		packet.KindEntityTeleport,
		packet.KindEntityMetadata,
		packet.KindSetSlot,
		packet.KindServerPluginMessage,
	),
}

// Legal reports whether kind may travel in dir while in state s.
func Legal(s State, dir packet.Direction, kind packet.Kind) bool {
	_, ok := legal[legalKey{s, dir}][kind]
	return ok
}

// Kinds returns the kinds legal in s for dir, in numeric order.
func Kinds(s State, dir packet.Direction) []packet.Kind {
	var out []packet.Kind
	for _, k := range packet.Kinds() {
		if Legal(s, dir, k) {
			out = append(out, k)
		}
	}
	return out
}
