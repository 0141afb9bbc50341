package proxy

import (
	"context"
	"fmt"
	"sync"
	"time"

	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/packet"
	"mcproxy/internal/wire"
)

type clientFrame struct {
	raw wire.RawPacket
	err error
}

type linkPacket struct {
	p   packet.Packet
	err error
}

// play relays until one side ends. The helper goroutines only read; they
// are unblocked by closing the socket and the link, and joined before
// play returns so the session can release their buffers.
func (r *run) play(ctx context.Context) error {
	s, link := r.s, r.s.Link()
	s.Conn.SetReadDeadline(time.Time{}) //nolint:errcheck

	done := make(chan struct{})
	frames := make(chan clientFrame)
	inbound := make(chan linkPacket)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for {
			raw, err := s.Reader.ReadPacket()
			select {
			case frames <- clientFrame{raw, err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for {
			p, err := link.Recv()
			select {
			case inbound <- linkPacket{p, err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	err := r.relay(ctx, frames, inbound)
	r.goodbye(err)
	close(done)
	s.Interrupt()
	wg.Wait()
	return err
}

func (r *run) relay(ctx context.Context, frames <-chan clientFrame, inbound <-chan linkPacket) error {
	ka := newKeepAlive(r.m.cfg.KeepAliveInterval, r.m.cfg.KeepAliveTimeout)
	defer ka.stop()

	for {
		select {
		case <-ctx.Done():
			return errShutdown

		case f := <-frames:
			if f.err != nil {
				return r.clientErr("read", f.err)
			}
			r.m.metrics.BytesReceived(int64(len(f.raw.Data)))
			if err := r.fromClient(f.raw, ka); err != nil {
				return err
			}

		case in := <-inbound:
			if in.err != nil {
				return in.err
			}
			if err := r.fromBackend(in.p); err != nil {
				return err
			}

		case <-ka.tick.C:
			if ka.pending {
				continue
			}
			if err := r.send(&packet.KeepAliveRequest{ID: ka.next()}); err != nil {
				return err
			}

		case <-ka.deadline.C:
			return &ncerr.TimeoutError{Op: "keep-alive", After: ka.timeout}
		}
	}
}

// fromClient translates one client packet and relays it. Keep-alive
// responses stop at the proxy.
func (r *run) fromClient(raw wire.RawPacket, ka *keepAlive) error {
	p, err := r.decode(raw)
	if ncerr.IsGap(err) {
		r.dropGap(err)
		return nil
	}
	if err != nil {
		return err
	}
	if resp, ok := p.(*packet.KeepAliveResponse); ok {
		if !ka.answer(resp.ID) {
			r.s.Logger.Debug("ignoring keep-alive %d", resp.ID)
		}
		return nil
	}
	return r.s.Link().Send(p)
}

// fromBackend relays one backend packet to the client. Keep-alives are
// answered on the link; a Disconnect ends the session after delivery.
func (r *run) fromBackend(p packet.Packet) error {
	link := r.s.Link()
	if p.Kind().Direction() != packet.Clientbound {
		return ncerr.Link("recv", link.Addr(), fmt.Errorf("backend sent serverbound %s", p.Kind()))
	}
	if err := r.s.Machine.Accept(packet.Clientbound, p.Kind()); err != nil {
		return ncerr.Link("recv", link.Addr(), err)
	}

	switch p := p.(type) {
	case *packet.KeepAliveRequest:
		return link.Send(&packet.KeepAliveResponse{ID: p.ID})
	case *packet.Disconnect:
		r.s.Logger.Verbose("backend disconnected player: %s", p.Reason)
		if err := r.send(p); err != nil && !ncerr.IsGap(err) {
			return err
		}
		return errKicked
	}

	err := r.send(p)
	if ncerr.IsGap(err) {
		r.dropGap(err)
		return nil
	}
	if err != nil {
		return err
	}
	r.s.Track(p)
	return nil
}

// keepAlive is the proxy's half of the client keep-alive exchange. One
// request is outstanding at a time.
type keepAlive struct {
	tick     *time.Ticker
	deadline *time.Timer
	timeout  time.Duration
	pending  bool
	id       int64
}

func newKeepAlive(interval, timeout time.Duration) *keepAlive {
	ka := &keepAlive{
		tick:     time.NewTicker(interval),
		deadline: time.NewTimer(timeout),
		timeout:  timeout,
	}
	ka.deadline.Stop()
	return ka
}

// next arms the deadline and returns the id to send.
func (ka *keepAlive) next() int64 {
	ka.id++
	ka.pending = true
	ka.deadline.Reset(ka.timeout)
	return ka.id
}

// answer clears the outstanding request if id matches it.
func (ka *keepAlive) answer(id int64) bool {
	if !ka.pending || id != ka.id {
		return false
	}
	ka.pending = false
	if !ka.deadline.Stop() {
		select {
		case <-ka.deadline.C:
		default:
		}
	}
	return true
}

func (ka *keepAlive) stop() {
	ka.tick.Stop()
	ka.deadline.Stop()
}
