package packet

import (
	"github.com/google/uuid"

	"mcproxy/internal/wire"
)

// Handshake opens every connection and selects the next phase.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       NextState
}

func (*Handshake) Kind() Kind { return KindHandshake }

func (p *Handshake) marshal(e *wire.Encoder) {
	e.WriteVarInt(p.ProtocolVersion)
	e.WriteString(p.ServerAddress)
	e.WriteUint16(p.ServerPort)
	e.WriteVarInt(int32(p.NextState))
}

func (p *Handshake) unmarshal(f *wire.Fields) {
	p.ProtocolVersion = f.VarInt()
	p.ServerAddress = f.String(255)
	p.ServerPort = f.U16()
	p.NextState = NextState(f.VarInt())
}

type StatusRequest struct{}

func (*StatusRequest) Kind() Kind               { return KindStatusRequest }
func (*StatusRequest) marshal(e *wire.Encoder)  {}
func (*StatusRequest) unmarshal(f *wire.Fields) {}

// StatusResponse carries the server list JSON document.
type StatusResponse struct {
	JSON string
}

func (*StatusResponse) Kind() Kind                 { return KindStatusResponse }
func (p *StatusResponse) marshal(e *wire.Encoder)  { e.WriteString(p.JSON) }
func (p *StatusResponse) unmarshal(f *wire.Fields) { p.JSON = f.String(0) }

type StatusPing struct {
	Payload int64
}

func (*StatusPing) Kind() Kind                 { return KindStatusPing }
func (p *StatusPing) marshal(e *wire.Encoder)  { e.WriteInt64(p.Payload) }
func (p *StatusPing) unmarshal(f *wire.Fields) { p.Payload = f.I64() }

type StatusPong struct {
	Payload int64
}

func (*StatusPong) Kind() Kind                 { return KindStatusPong }
func (p *StatusPong) marshal(e *wire.Encoder)  { e.WriteInt64(p.Payload) }
func (p *StatusPong) unmarshal(f *wire.Fields) { p.Payload = f.I64() }

type LoginStart struct {
	Username string
}

func (*LoginStart) Kind() Kind                 { return KindLoginStart }
func (p *LoginStart) marshal(e *wire.Encoder)  { e.WriteString(p.Username) }
func (p *LoginStart) unmarshal(f *wire.Fields) { p.Username = f.String(16) }

type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte
	VerifyToken []byte
}

func (*EncryptionRequest) Kind() Kind { return KindEncryptionRequest }

func (p *EncryptionRequest) marshal(e *wire.Encoder) {
	e.WriteString(p.ServerID)
	e.WriteByteArray(p.PublicKey)
	e.WriteByteArray(p.VerifyToken)
}

func (p *EncryptionRequest) unmarshal(f *wire.Fields) {
	p.ServerID = f.String(20)
	p.PublicKey = f.ByteArray()
	p.VerifyToken = f.ByteArray()
}

type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

func (*EncryptionResponse) Kind() Kind { return KindEncryptionResponse }

func (p *EncryptionResponse) marshal(e *wire.Encoder) {
	e.WriteByteArray(p.SharedSecret)
	e.WriteByteArray(p.VerifyToken)
}

func (p *EncryptionResponse) unmarshal(f *wire.Fields) {
	p.SharedSecret = f.ByteArray()
	p.VerifyToken = f.ByteArray()
}

type SetCompression struct {
	Threshold int32
}

func (*SetCompression) Kind() Kind                 { return KindSetCompression }
func (p *SetCompression) marshal(e *wire.Encoder)  { e.WriteVarInt(p.Threshold) }
func (p *SetCompression) unmarshal(f *wire.Fields) { p.Threshold = f.VarInt() }

type LoginSuccess struct {
	UUID     uuid.UUID
	Username string
}

func (*LoginSuccess) Kind() Kind { return KindLoginSuccess }

func (p *LoginSuccess) marshal(e *wire.Encoder) {
	e.WriteUUID(p.UUID)
	e.WriteString(p.Username)
}

func (p *LoginSuccess) unmarshal(f *wire.Fields) {
	p.UUID = f.UUID()
	p.Username = f.String(16)
}

// LoginDisconnect rejects a client before Play. Reason is a JSON chat
// component.
type LoginDisconnect struct {
	Reason string
}

func (*LoginDisconnect) Kind() Kind                 { return KindLoginDisconnect }
func (p *LoginDisconnect) marshal(e *wire.Encoder)  { e.WriteString(p.Reason) }
func (p *LoginDisconnect) unmarshal(f *wire.Fields) { p.Reason = f.String(0) }
