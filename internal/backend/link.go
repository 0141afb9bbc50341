// Package backend speaks the proxy's internal link protocol: the canonical
// packet stream relayed between one client session and the backend
// simulation.
//
// Frames reuse the client transport framing (VarInt length, VarInt id,
// body) with the canonical kind as id and the canonical body as payload.
// Compression is snappy above a per-link threshold. When a shared secret
// is configured the stream is enciphered with ChaCha20 after the
// plaintext hello/ack exchange.
package backend

import (
	"net"
	"sync"
	"time"

	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/packet"
	"mcproxy/internal/wire"
)

// DefaultThreshold is the link compression threshold used when none is
// configured.
const DefaultThreshold = 256

// Link is one established proxy↔backend connection. Send may be called
// from one goroutine and Recv from another; neither is safe for
// concurrent use with itself.
type Link struct {
	conn  net.Conn
	addr  string
	r     *wire.StreamReader
	w     *wire.StreamWriter
	enc   *wire.Encoder
	hello Hello

	writeTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

func newLink(conn net.Conn, maxPacketSize int) *Link {
	if maxPacketSize <= 0 {
		maxPacketSize = wire.DefaultMaxPacketSize
	}
	r, w := wire.NewStream(conn, wire.SnappyCompressor{}, maxPacketSize)
	return &Link{
		conn: conn,
		addr: conn.RemoteAddr().String(),
		r:    r,
		w:    w,
		enc:  wire.NewEncoder(256),
	}
}

// Hello returns the hello exchanged when the link was opened.
func (l *Link) Hello() Hello { return l.hello }

// Addr returns the peer address.
func (l *Link) Addr() string { return l.addr }

// Encrypted reports whether the link stream is enciphered.
func (l *Link) Encrypted() bool { return l.w.Encrypted() }

// SetWriteTimeout bounds every following Send. Zero means no bound.
func (l *Link) SetWriteTimeout(d time.Duration) { l.writeTimeout = d }

// Send encodes p in canonical form and writes it as one frame.
func (l *Link) Send(p packet.Packet) error {
	l.enc.Reset()
	packet.Marshal(l.enc, p)
	if l.writeTimeout > 0 {
		l.conn.SetWriteDeadline(time.Now().Add(l.writeTimeout)) //nolint:errcheck
	}
	if err := l.w.WritePacket(wire.RawPacket{ID: int32(p.Kind()), Data: l.enc.Bytes()}); err != nil {
		return ncerr.Link("send", l.addr, err)
	}
	return nil
}

// Recv blocks until the next canonical packet arrives.
func (l *Link) Recv() (packet.Packet, error) {
	raw, err := l.r.ReadPacket()
	if err != nil {
		return nil, ncerr.Link("recv", l.addr, err)
	}
	p, err := packet.Unmarshal(packet.Kind(raw.ID), raw.Data)
	if err != nil {
		return nil, ncerr.Link("recv", l.addr, err)
	}
	return p, nil
}

// Close tears the link down. It is safe to call more than once and from
// any goroutine; only the first call closes the socket.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}

// Release returns the pooled read buffer. Call it after Close, from the
// goroutine that called Recv, once that goroutine has stopped receiving.
func (l *Link) Release() { l.r.Release() }
