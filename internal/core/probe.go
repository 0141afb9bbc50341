package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"mcproxy/internal/codec"
	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/packet"
	"mcproxy/internal/state"
	"mcproxy/internal/transport"
	"mcproxy/internal/wire"
	"mcproxy/util"
)

// ProbeMode queries a server's status the way a client's server list
// does: handshake, status request, then a timed ping.
type ProbeMode struct {
	Dialer  transport.Dialer
	Address string // host[:port], port defaults to 25565
	Codec   *codec.Codec
	Timeout time.Duration
	Out     io.Writer
	Logger  *util.Logger
}

// Run dials the server, prints its status document and the ping
// latency, and closes the connection.
func (m *ProbeMode) Run(ctx context.Context) error {
	defer m.Dialer.Close() //nolint:errcheck

	host, port, err := util.SplitAddr(m.Address, 25565)
	if err != nil {
		return err
	}
	addr := util.FormatAddr(host, port)
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	m.Logger.Verbose("probing %s as %s", addr, m.Codec.Version())
	conn, err := m.Dialer.Dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline) //nolint:errcheck
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	r, w := wire.NewStream(conn, wire.NewZlibCompressor(-1), 0)
	defer r.Release()

	send := func(p packet.Packet) error {
		raw, err := m.Codec.Encode(p)
		if err != nil {
			return err
		}
		return w.WritePacket(raw)
	}
	recv := func() (packet.Packet, error) {
		raw, err := r.ReadPacket()
		if err != nil {
			return nil, ncerr.Wrap("read", addr, err)
		}
		return m.Codec.Decode(state.Status, packet.Clientbound, raw, nil)
	}

	hs := &packet.Handshake{
		ProtocolVersion: m.Codec.Version().Protocol,
		ServerAddress:   host,
		ServerPort:      uint16(port),
		NextState:       packet.NextStatus,
	}
	if err := send(hs); err != nil {
		return ncerr.Wrap("write", addr, err)
	}
	if err := send(&packet.StatusRequest{}); err != nil {
		return ncerr.Wrap("write", addr, err)
	}
	p, err := recv()
	if err != nil {
		return err
	}
	resp, ok := p.(*packet.StatusResponse)
	if !ok {
		return ncerr.Violation(state.Status.String(), p.Kind().String(), "expected status response")
	}

	sent := time.Now()
	if err := send(&packet.StatusPing{Payload: sent.UnixMilli()}); err != nil {
		return ncerr.Wrap("write", addr, err)
	}
	p, err = recv()
	if err != nil {
		return err
	}
	pong, ok := p.(*packet.StatusPong)
	if !ok {
		return ncerr.Violation(state.Status.String(), p.Kind().String(), "expected pong")
	}
	if pong.Payload != sent.UnixMilli() {
		return ncerr.Violation(state.Status.String(), pong.Kind().String(), "pong payload mismatch")
	}
	latency := time.Since(sent)

	fmt.Fprintln(m.Out, resp.JSON)
	fmt.Fprintf(m.Out, "latency: %s\n", latency.Round(time.Microsecond))
	return nil
}
