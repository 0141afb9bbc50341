package backend

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"

	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/packet"
	"mcproxy/internal/wire"
)

// controlID frames the hello and the ack. Canonical kinds start at 1.
const controlID = 0

// DefaultHandshakeTimeout bounds the hello/ack exchange.
const DefaultHandshakeTimeout = 5 * time.Second

const (
	infoProxyToBackend = "mcproxy proxy->backend"
	infoBackendToProxy = "mcproxy backend->proxy"
	infoSecretCheck    = "mcproxy secret check"
)

var magic = []byte("MCPX")

var (
	// ErrRejected is wrapped by the error returned when the backend
	// answered the hello with anything other than AckOK.
	ErrRejected = errors.New("backend rejected link")

	errBadMagic = errors.New("bad link magic")
)

// AckStatus is the backend's answer to a hello.
type AckStatus uint8

const (
	AckOK AckStatus = iota
	AckRejected
	AckSchemaMismatch
	AckSecretMismatch
)

func (s AckStatus) String() string {
	switch s {
	case AckOK:
		return "ok"
	case AckRejected:
		return "rejected"
	case AckSchemaMismatch:
		return "schema mismatch"
	case AckSecretMismatch:
		return "secret mismatch"
	default:
		return fmt.Sprintf("AckStatus(%d)", uint8(s))
	}
}

// Identity is the player a link is opened for.
type Identity struct {
	Username string
	UUID     uuid.UUID
	Protocol int32
}

// Hello opens every link. It names the player, so the backend never has
// to trust sender fields inside canonical packets.
type Hello struct {
	Identity
	Schema      int32
	Fingerprint uint64
	Salt        [16]byte
	Threshold   int32
	Sealed      bool
	check       [8]byte
}

func (h *Hello) marshal(e *wire.Encoder) {
	e.WriteRaw(magic)
	e.WriteVarInt(h.Schema)
	e.WriteInt64(int64(h.Fingerprint))
	e.WriteRaw(h.Salt[:])
	e.WriteVarInt(h.Threshold)
	e.WriteString(h.Username)
	e.WriteUUID(h.UUID)
	e.WriteVarInt(h.Protocol)
	e.WriteBool(h.Sealed)
	if h.Sealed {
		e.WriteRaw(h.check[:])
	}
}

func (h *Hello) unmarshal(b []byte) error {
	f := wire.NewFields(b)
	if !bytes.Equal(f.Raw(len(magic)), magic) {
		return errBadMagic
	}
	h.Schema = f.VarInt()
	h.Fingerprint = uint64(f.I64())
	copy(h.Salt[:], f.Raw(len(h.Salt)))
	h.Threshold = f.VarInt()
	h.Username = f.String(16)
	h.UUID = f.UUID()
	h.Protocol = f.VarInt()
	h.Sealed = f.Bool()
	if h.Sealed {
		copy(h.check[:], f.Raw(len(h.check)))
	}
	if err := f.Err(); err != nil {
		return err
	}
	if f.Remaining() != 0 {
		return fmt.Errorf("hello: %d trailing bytes", f.Remaining())
	}
	return nil
}

// LinkConfig is the proxy side's link policy.
type LinkConfig struct {
	// Threshold is the snappy compression threshold; -1 disables.
	Threshold int
	// Secret enables ChaCha20 on the link when non-empty. Both ends must
	// hold the same value.
	Secret []byte
	// MaxPacketSize bounds inbound frames. Zero uses the wire default.
	MaxPacketSize    int
	HandshakeTimeout time.Duration
}

// AcceptOptions is the backend side's link policy.
type AcceptOptions struct {
	Secret           []byte
	MaxPacketSize    int
	HandshakeTimeout time.Duration
	// Admit may refuse a player; its error text becomes the ack reason.
	Admit func(Hello) error
}

// Open performs the proxy side of the link handshake on conn. On failure
// conn is closed.
func Open(conn net.Conn, cfg LinkConfig, id Identity) (*Link, error) {
	l := newLink(conn, cfg.MaxPacketSize)
	if err := l.open(cfg, id); err != nil {
		l.Close() //nolint:errcheck
		l.Release()
		return nil, err
	}
	return l, nil
}

func (l *Link) open(cfg LinkConfig, id Identity) error {
	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	l.conn.SetDeadline(time.Now().Add(timeout)) //nolint:errcheck

	h := Hello{
		Identity:    id,
		Schema:      packet.SchemaVersion,
		Fingerprint: packet.SchemaFingerprint,
		Threshold:   int32(cfg.Threshold),
		Sealed:      len(cfg.Secret) > 0,
	}
	if _, err := rand.Read(h.Salt[:]); err != nil {
		return ncerr.Link("handshake", l.addr, err)
	}
	if h.Sealed {
		check, err := secretCheck(cfg.Secret, h.Salt[:])
		if err != nil {
			return ncerr.Link("handshake", l.addr, err)
		}
		h.check = check
	}

	l.enc.Reset()
	h.marshal(l.enc)
	if err := l.w.WritePacket(wire.RawPacket{ID: controlID, Data: l.enc.Bytes()}); err != nil {
		return ncerr.Link("handshake", l.addr, err)
	}

	raw, err := l.r.ReadPacket()
	if err != nil {
		return ncerr.Link("handshake", l.addr, err)
	}
	if raw.ID != controlID {
		return ncerr.Link("handshake", l.addr, fmt.Errorf("expected ack, got frame %d", raw.ID))
	}
	f := wire.NewFields(raw.Data)
	status := AckStatus(f.U8())
	reason := f.String(0)
	if err := f.Err(); err != nil {
		return ncerr.Link("handshake", l.addr, fmt.Errorf("malformed ack: %w", err))
	}
	if status != AckOK {
		return ncerr.Link("handshake", l.addr, fmt.Errorf("%w (%s): %s", ErrRejected, status, reason))
	}

	if err := l.seal(cfg.Secret, h.Salt[:], int(h.Threshold), infoProxyToBackend, infoBackendToProxy); err != nil {
		return ncerr.Link("handshake", l.addr, err)
	}
	l.hello = h
	l.conn.SetDeadline(time.Time{}) //nolint:errcheck
	return nil
}

// AcceptLink performs the backend side of the link handshake on conn. A
// refused hello is answered with a non-ok ack before the error returns.
// On failure conn is closed.
func AcceptLink(conn net.Conn, opts AcceptOptions) (*Link, error) {
	l := newLink(conn, opts.MaxPacketSize)
	if err := l.accept(opts); err != nil {
		l.Close() //nolint:errcheck
		l.Release()
		return nil, err
	}
	return l, nil
}

func (l *Link) accept(opts AcceptOptions) error {
	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	l.conn.SetDeadline(time.Now().Add(timeout)) //nolint:errcheck

	raw, err := l.r.ReadPacket()
	if err != nil {
		return ncerr.Link("handshake", l.addr, err)
	}
	if raw.ID != controlID {
		return ncerr.Link("handshake", l.addr, fmt.Errorf("expected hello, got frame %d", raw.ID))
	}
	var h Hello
	if err := h.unmarshal(raw.Data); err != nil {
		return ncerr.Link("handshake", l.addr, fmt.Errorf("malformed hello: %w", err))
	}

	status, reason := AckOK, ""
	switch {
	case h.Schema != packet.SchemaVersion || h.Fingerprint != packet.SchemaFingerprint:
		status = AckSchemaMismatch
		reason = fmt.Sprintf("schema v%d/%016x, want v%d/%016x",
			h.Schema, h.Fingerprint, packet.SchemaVersion, packet.SchemaFingerprint)
	case h.Sealed != (len(opts.Secret) > 0):
		status, reason = AckSecretMismatch, "link encryption configured on one side only"
	case h.Sealed:
		want, err := secretCheck(opts.Secret, h.Salt[:])
		if err != nil {
			return ncerr.Link("handshake", l.addr, err)
		}
		if subtle.ConstantTimeCompare(want[:], h.check[:]) != 1 {
			status, reason = AckSecretMismatch, "link secret differs"
		}
	}
	if status == AckOK && opts.Admit != nil {
		if err := opts.Admit(h); err != nil {
			status, reason = AckRejected, err.Error()
		}
	}

	l.enc.Reset()
	l.enc.WriteUint8(uint8(status))
	l.enc.WriteString(reason)
	if err := l.w.WritePacket(wire.RawPacket{ID: controlID, Data: l.enc.Bytes()}); err != nil {
		return ncerr.Link("handshake", l.addr, err)
	}
	if status != AckOK {
		return ncerr.Link("handshake", l.addr, fmt.Errorf("%w (%s): %s", ErrRejected, status, reason))
	}

	if err := l.seal(opts.Secret, h.Salt[:], int(h.Threshold), infoBackendToProxy, infoProxyToBackend); err != nil {
		return ncerr.Link("handshake", l.addr, err)
	}
	l.hello = h
	l.conn.SetDeadline(time.Time{}) //nolint:errcheck
	return nil
}

// seal switches both halves to the negotiated compression and, with a
// secret, to ChaCha20 keyed per direction.
func (l *Link) seal(secret, salt []byte, threshold int, sendInfo, recvInfo string) error {
	l.r.SetCompression(threshold)
	l.w.SetCompression(threshold)
	if len(secret) == 0 {
		return nil
	}
	enc, err := streamCipher(secret, salt, sendInfo)
	if err != nil {
		return err
	}
	dec, err := streamCipher(secret, salt, recvInfo)
	if err != nil {
		return err
	}
	if err := l.w.EnableEncryption(enc); err != nil {
		return err
	}
	return l.r.EnableEncryption(dec)
}

func streamCipher(secret, salt []byte, info string) (cipher.Stream, error) {
	material := make([]byte, chacha20.KeySize+chacha20.NonceSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, []byte(info)), material); err != nil {
		return nil, err
	}
	return chacha20.NewUnauthenticatedCipher(material[:chacha20.KeySize], material[chacha20.KeySize:])
}

func secretCheck(secret, salt []byte) ([8]byte, error) {
	var check [8]byte
	_, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, []byte(infoSecretCheck)), check[:])
	return check, err
}
