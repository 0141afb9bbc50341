package codec

import (
	"github.com/google/uuid"

	"mcproxy/internal/packet"
	"mcproxy/internal/state"
)

// Handshake, Status and Login share one layout across every supported
// version.
func loginEntries() []entry {
	return []entry{
		def(state.Handshake, 0x00, decodeHandshake, encodeHandshake),

		def(state.Status, 0x00, decodeStatusRequest, encodeStatusRequest),
		def(state.Status, 0x01, decodeStatusPing, encodeStatusPing),
		def(state.Status, 0x00, decodeStatusResponse, encodeStatusResponse),
		def(state.Status, 0x01, decodeStatusPong, encodeStatusPong),

		def(state.Login, 0x00, decodeLoginStart, encodeLoginStart),
		def(state.Login, 0x01, decodeEncryptionResponse, encodeEncryptionResponse),
		def(state.Login, 0x00, decodeLoginDisconnect, encodeLoginDisconnect),
		def(state.Login, 0x01, decodeEncryptionRequest, encodeEncryptionRequest),
		def(state.Login, 0x02, decodeLoginSuccess, encodeLoginSuccess),
		def(state.Login, 0x03, decodeSetCompression, encodeSetCompression),
	}
}

func decodeHandshake(r *reader) packet.Packet {
	p := &packet.Handshake{}
	p.ProtocolVersion = r.VarInt()
	p.ServerAddress = r.String(255)
	p.ServerPort = r.U16()
	p.NextState = packet.NextState(r.VarInt())
	return p
}

func encodeHandshake(w *writer, p *packet.Handshake) {
	w.WriteVarInt(p.ProtocolVersion)
	w.WriteString(p.ServerAddress)
	w.WriteUint16(p.ServerPort)
	w.WriteVarInt(int32(p.NextState))
}

func decodeStatusRequest(*reader) packet.Packet                { return &packet.StatusRequest{} }
func encodeStatusRequest(*writer, *packet.StatusRequest)       {}
func decodeStatusResponse(r *reader) packet.Packet             { return &packet.StatusResponse{JSON: r.String(0)} }
func encodeStatusResponse(w *writer, p *packet.StatusResponse) { w.WriteString(p.JSON) }
func decodeStatusPing(r *reader) packet.Packet                 { return &packet.StatusPing{Payload: r.I64()} }
func encodeStatusPing(w *writer, p *packet.StatusPing)         { w.WriteInt64(p.Payload) }
func decodeStatusPong(r *reader) packet.Packet                 { return &packet.StatusPong{Payload: r.I64()} }
func encodeStatusPong(w *writer, p *packet.StatusPong)         { w.WriteInt64(p.Payload) }

func decodeLoginStart(r *reader) packet.Packet         { return &packet.LoginStart{Username: r.String(16)} }
func encodeLoginStart(w *writer, p *packet.LoginStart) { w.WriteString(p.Username) }

func decodeEncryptionRequest(r *reader) packet.Packet {
	p := &packet.EncryptionRequest{}
	p.ServerID = r.String(20)
	p.PublicKey = r.ByteArray()
	p.VerifyToken = r.ByteArray()
	return p
}

func encodeEncryptionRequest(w *writer, p *packet.EncryptionRequest) {
	w.WriteString(p.ServerID)
	w.WriteByteArray(p.PublicKey)
	w.WriteByteArray(p.VerifyToken)
}

func decodeEncryptionResponse(r *reader) packet.Packet {
	p := &packet.EncryptionResponse{}
	p.SharedSecret = r.ByteArray()
	p.VerifyToken = r.ByteArray()
	return p
}

func encodeEncryptionResponse(w *writer, p *packet.EncryptionResponse) {
	w.WriteByteArray(p.SharedSecret)
	w.WriteByteArray(p.VerifyToken)
}

// Every supported version sends the UUID as hyphenated text.
func decodeLoginSuccess(r *reader) packet.Packet {
	p := &packet.LoginSuccess{}
	text := r.String(36)
	p.Username = r.String(16)
	if !r.OK() {
		return p
	}
	id, err := uuid.Parse(text)
	if err != nil {
		r.Fail(err)
		return p
	}
	p.UUID = id
	return p
}

func encodeLoginSuccess(w *writer, p *packet.LoginSuccess) {
	w.WriteString(p.UUID.String())
	w.WriteString(p.Username)
}

func decodeSetCompression(r *reader) packet.Packet {
	return &packet.SetCompression{Threshold: r.VarInt()}
}
func encodeSetCompression(w *writer, p *packet.SetCompression) { w.WriteVarInt(p.Threshold) }

func decodeLoginDisconnect(r *reader) packet.Packet {
	return &packet.LoginDisconnect{Reason: r.String(0)}
}
func encodeLoginDisconnect(w *writer, p *packet.LoginDisconnect) { w.WriteString(p.Reason) }
