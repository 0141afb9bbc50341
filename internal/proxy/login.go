package proxy

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mcproxy/internal/backend"
	"mcproxy/internal/codec"
	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/packet"
	"mcproxy/internal/session"
	"mcproxy/internal/state"
)

// handshake reads the first packet, binds the codec and moves to the
// requested phase. A client declaring an unsupported version is bound to
// the newest codec so it can still be answered.
func (r *run) handshake() (state.State, error) {
	r.s.Conn.SetReadDeadline(time.Now().Add(r.m.cfg.LoginTimeout)) //nolint:errcheck

	raw, err := r.readRaw()
	if err != nil {
		return state.Closed, err
	}
	hs, err := codec.DecodeHandshake(raw)
	if err != nil {
		r.s.Machine.Close()
		return state.Closed, err
	}
	if err := r.s.Machine.Accept(packet.Serverbound, hs.Kind()); err != nil {
		return state.Closed, err
	}

	c, ok := r.m.codecs.ForProtocol(hs.ProtocolVersion)
	if !ok {
		c = r.m.codecs.Latest()
	}
	r.declared, r.supported = hs.ProtocolVersion, ok
	if err := r.s.BindVersion(c); err != nil {
		return state.Closed, err
	}

	next := state.Status
	if hs.NextState == packet.NextLogin {
		next = state.Login
	}
	if err := r.s.Machine.Transition(next); err != nil {
		return state.Closed, err
	}
	r.phase = next
	r.s.Logger.Debug("handshake: protocol %d (%s), next %s", hs.ProtocolVersion, c.Version(), next)

	if next == state.Login && !ok {
		return next, ncerr.Violation(next.String(), hs.Kind().String(),
			fmt.Sprintf("unsupported client version %d, use %s", hs.ProtocolVersion, r.m.codecs.Range()))
	}
	return next, nil
}

// status answers one server list request and one ping from local state.
func (r *run) status() error {
	answered := false
	for {
		p, err := r.recv()
		if err != nil {
			return err
		}
		switch p := p.(type) {
		case *packet.StatusRequest:
			if answered {
				return ncerr.Violation(r.phase.String(), p.Kind().String(), "duplicate status request")
			}
			answered = true
			if err := r.send(&packet.StatusResponse{JSON: r.statusJSON()}); err != nil {
				return err
			}
		case *packet.StatusPing:
			return r.send(&packet.StatusPong{Payload: p.Payload})
		}
	}
}

type statusDoc struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int32  `json:"protocol"`
	} `json:"version"`
	Players struct {
		Max    int   `json:"max"`
		Online int64 `json:"online"`
	} `json:"players"`
	Description struct {
		Text string `json:"text"`
	} `json:"description"`
}

func (r *run) statusJSON() string {
	var doc statusDoc
	doc.Version.Name = r.m.codecs.Range()
	doc.Version.Protocol = r.declared
	if !r.supported {
		doc.Version.Protocol = r.m.codecs.Latest().Version().Protocol
	}
	doc.Players.Max = r.m.cfg.MaxPlayers
	doc.Players.Online = r.m.metrics.ActiveSessions()
	doc.Description.Text = r.m.cfg.MOTD
	b, _ := json.Marshal(doc)
	return string(b)
}

// login runs login start, optional encryption, the backend connect,
// optional compression and login success, then enters Play and sends the
// join notification to the backend.
func (r *run) login(ctx context.Context) error {
	p, err := r.recv()
	if err != nil {
		return err
	}
	start, ok := p.(*packet.LoginStart)
	if !ok {
		return ncerr.Violation(r.phase.String(), p.Kind().String(), "expected login start")
	}
	if !validUsername(start.Username) {
		return ncerr.Violation(r.phase.String(), start.Kind().String(), "invalid username")
	}
	id := packet.OfflineUUID(start.Username)
	if err := r.s.SetIdentity(start.Username, id); err != nil {
		return err
	}
	r.s.Logger = r.s.Logger.Named(start.Username)

	if r.m.cfg.Encryption {
		if err := r.encrypt(); err != nil {
			return err
		}
	}

	link, err := r.m.backend.Connect(ctx, backend.Identity{
		Username: start.Username,
		UUID:     id,
		Protocol: r.declared,
	})
	if err != nil {
		var ble *ncerr.BackendLinkError
		if !errors.As(err, &ble) {
			err = ncerr.Link("connect", "backend", err)
		}
		return err
	}
	link.SetWriteTimeout(r.m.cfg.WriteTimeout)
	if err := r.s.AttachLink(link); err != nil {
		link.Close() //nolint:errcheck
		if errors.Is(err, session.ErrInterrupted) {
			return errShutdown
		}
		return err
	}

	if t := r.m.cfg.Threshold; t >= 0 {
		if err := r.sendLogin(&packet.SetCompression{Threshold: int32(t)}); err != nil {
			return err
		}
		r.s.EnableCompression(t)
	}
	if err := r.sendLogin(&packet.LoginSuccess{UUID: id, Username: start.Username}); err != nil {
		return err
	}
	if err := r.s.Machine.Transition(state.Play); err != nil {
		return err
	}
	r.phase = state.Play
	r.s.Logger.Info("logged in (%s, %s)", r.s.Codec().Version(), id)

	return link.Send(&packet.JoinGame{LevelType: "default"})
}

// sendLogin writes a login packet; the login cannot proceed without it.
func (r *run) sendLogin(p packet.Packet) error {
	return ncerr.Escalate(r.phase.String(), r.send(p))
}

// encrypt runs the offline-mode key exchange and enciphers both halves.
func (r *run) encrypt() error {
	token := make([]byte, 4)
	if _, err := rand.Read(token); err != nil {
		return err
	}
	if err := r.sendLogin(&packet.EncryptionRequest{PublicKey: r.m.pubDER, VerifyToken: token}); err != nil {
		return err
	}

	p, err := r.recv()
	if err != nil {
		return err
	}
	resp, ok := p.(*packet.EncryptionResponse)
	if !ok {
		return ncerr.Violation(r.phase.String(), p.Kind().String(), "expected encryption response")
	}
	got, err := rsa.DecryptPKCS1v15(rand.Reader, r.m.key, resp.VerifyToken)
	if err != nil || !bytes.Equal(got, token) {
		return ncerr.Violation(r.phase.String(), resp.Kind().String(), "verify token mismatch")
	}
	secret, err := rsa.DecryptPKCS1v15(rand.Reader, r.m.key, resp.SharedSecret)
	if err != nil || len(secret) != 16 {
		return ncerr.Violation(r.phase.String(), resp.Kind().String(), "bad shared secret")
	}
	return r.s.EnableEncryption(secret)
}

// validUsername accepts 1-16 characters from [A-Za-z0-9_].
func validUsername(name string) bool {
	if len(name) == 0 || len(name) > 16 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}
