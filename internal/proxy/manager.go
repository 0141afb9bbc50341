// Package proxy pairs each client connection with a backend link and
// relays canonical packets between them.
//
// Handshake, Status and Login run sequentially on the session goroutine.
// In Play two helper goroutines own the read halves (client socket and
// backend link) and hand frames to the session goroutine, which does
// everything else: decode, legality, relay, writes and keep-alive.
package proxy

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"mcproxy/internal/backend"
	"mcproxy/internal/codec"
	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/metrics"
	"mcproxy/internal/packet"
	"mcproxy/internal/session"
	"mcproxy/internal/state"
	"mcproxy/internal/wire"
	"mcproxy/util"
)

// Defaults applied to zero Config fields.
const (
	// DefaultKeepAliveInterval is how often a playing client is pinged.
	DefaultKeepAliveInterval = 10 * time.Second
	// DefaultKeepAliveTimeout is how long a ping may go unanswered.
	DefaultKeepAliveTimeout = 30 * time.Second
	// DefaultLoginTimeout bounds the handshake and login phases.
	DefaultLoginTimeout = 30 * time.Second
	// DefaultWriteTimeout bounds one write to a client or the backend.
	DefaultWriteTimeout = 10 * time.Second
	// DefaultMaxPlayers is the player limit shown in the server list.
	DefaultMaxPlayers = 20
	// DefaultMOTD is the server list description.
	DefaultMOTD = "A multi-version proxy"
)

var (
	errClientGone = errors.New("client disconnected")
	errKicked     = errors.New("disconnected by backend")
	errShutdown   = errors.New("proxy shutting down")
)

// Connector opens the backend link for a player.
type Connector interface {
	Connect(ctx context.Context, id backend.Identity) (*backend.Link, error)
}

// Config is the per-session policy shared by all sessions.
type Config struct {
	// Threshold is the client compression threshold; -1 disables.
	Threshold     int
	MaxPacketSize int
	// Encryption enables the offline-mode encryption exchange at login.
	Encryption        bool
	KeepAliveInterval time.Duration
	KeepAliveTimeout  time.Duration
	LoginTimeout      time.Duration
	WriteTimeout      time.Duration
	MOTD              string
	MaxPlayers        int
}

func (c *Config) applyDefaults() {
	if c.MaxPacketSize <= 0 {
		c.MaxPacketSize = wire.DefaultMaxPacketSize
	}
	if c.KeepAliveInterval <= 0 {
		c.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if c.KeepAliveTimeout <= 0 {
		c.KeepAliveTimeout = DefaultKeepAliveTimeout
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = DefaultLoginTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = DefaultMaxPlayers
	}
	if c.MOTD == "" {
		c.MOTD = DefaultMOTD
	}
}

// Manager runs sessions. Everything it holds is read-only or atomic, so
// one Manager serves every connection.
type Manager struct {
	cfg     Config
	codecs  *codec.Set
	backend Connector
	logger  *util.Logger
	metrics *metrics.Collector
	zlib    *wire.ZlibCompressor

	key    *rsa.PrivateKey
	pubDER []byte

	nextID atomic.Uint64
}

// NewManager prepares a manager. With encryption enabled it generates
// the server key pair used for every login.
func NewManager(cfg Config, codecs *codec.Set, conn Connector, logger *util.Logger, m *metrics.Collector) (*Manager, error) {
	cfg.applyDefaults()
	mgr := &Manager{
		cfg:     cfg,
		codecs:  codecs,
		backend: conn,
		logger:  logger,
		metrics: m,
		zlib:    wire.NewZlibCompressor(-1),
	}
	if cfg.Encryption {
		key, err := rsa.GenerateKey(rand.Reader, 1024)
		if err != nil {
			return nil, fmt.Errorf("generating server key: %w", err)
		}
		der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("encoding server key: %w", err)
		}
		mgr.key, mgr.pubDER = key, der
	}
	return mgr, nil
}

// run is the state of one Run call. It never leaves the session goroutine.
type run struct {
	m     *Manager
	s     *session.Session
	diag  *codec.Diagnostics
	phase state.State

	declared  int32
	supported bool
	farewell  bool // a disconnect packet was sent
}

// Run services conn until the client leaves, the backend link fails, a
// fatal error occurs or ctx is cancelled. The session and its link are
// torn down before Run returns. The returned error is nil for a normal
// end.
func (m *Manager) Run(ctx context.Context, conn net.Conn) error {
	id := m.nextID.Add(1)
	s := session.New(id, conn, session.Config{
		Compressor:    m.zlib,
		MaxPacketSize: m.cfg.MaxPacketSize,
		Logger:        m.logger.Named(fmt.Sprintf("s%d", id)),
		Metrics:       m.metrics,
	})
	r := &run{m: m, s: s}
	r.diag = &codec.Diagnostics{OnDrop: func(d codec.Drop) {
		s.Logger.Verbose("dropped %s", d)
		m.metrics.Gap()
	}}

	m.metrics.SessionOpened()
	s.Logger.Verbose("connection from %s", conn.RemoteAddr())

	err := r.serve(ctx)
	if ctx.Err() != nil && (err == nil || errors.Is(err, errClientGone)) {
		err = errShutdown
	}
	return r.finish(err)
}

func (r *run) serve(ctx context.Context) error {
	// Until Play, blocking reads are interrupted by closing the socket.
	stop := context.AfterFunc(ctx, r.s.Interrupt)
	defer stop()

	next, err := r.handshake()
	if err != nil {
		return err
	}
	if next == state.Status {
		return r.status()
	}
	if err := r.login(ctx); err != nil {
		return err
	}
	if !stop() {
		return errShutdown
	}
	return r.play(ctx)
}

// finish sends a disconnect when the stream allows it, tears the
// session down and records the outcome.
func (r *run) finish(err error) error {
	s := r.s
	outcome := classify(err)
	r.goodbye(err)
	switch {
	case err == nil, errors.Is(err, errClientGone), errors.Is(err, errKicked):
		s.Logger.Verbose("closed: %v", endReason(err))
		err = nil
	case errors.Is(err, errShutdown):
		s.Logger.Verbose("closed for shutdown")
		err = nil
	default:
		switch outcome {
		case metrics.OutcomeViolation:
			r.m.metrics.Violation()
		case metrics.OutcomeTimeout:
			r.m.metrics.Timeout()
		}
		r.m.metrics.RecordError(err.Error())
		s.Logger.Info("closed: %v", err)
	}
	s.Close()
	r.m.metrics.SessionClosed(outcome)
	return err
}

// goodbye tells the client why the session is ending, if anyone is
// listening and the stream is still aligned.
func (r *run) goodbye(err error) {
	switch {
	case err == nil, errors.Is(err, errClientGone), errors.Is(err, errKicked):
	case errors.Is(err, errShutdown):
		r.disconnect("Proxy shutting down")
	case ncerr.Speakable(err):
		r.disconnect(ncerr.DisconnectReason(err))
	}
}

func classify(err error) metrics.Outcome {
	var (
		ble *ncerr.BackendLinkError
		pv  *ncerr.ProtocolViolation
		te  *ncerr.TimeoutError
		fe  *ncerr.FramingError
	)
	switch {
	case err == nil, errors.Is(err, errClientGone), errors.Is(err, errKicked), errors.Is(err, errShutdown):
		return metrics.OutcomeNormal
	case errors.As(err, &ble):
		return metrics.OutcomeBackend
	case errors.As(err, &te):
		return metrics.OutcomeTimeout
	case errors.As(err, &pv):
		return metrics.OutcomeViolation
	case errors.As(err, &fe):
		return metrics.OutcomeFraming
	default:
		return metrics.OutcomeError
	}
}

func endReason(err error) error {
	if err == nil {
		return errClientGone
	}
	return err
}

// disconnect tells the client why it is being dropped, in the packet the
// current phase allows. Errors are ignored: the socket closes next.
func (r *run) disconnect(reason string) {
	if r.farewell || r.s.Codec() == nil {
		return
	}
	var p packet.Packet
	switch r.phase {
	case state.Login:
		p = &packet.LoginDisconnect{Reason: chatText(reason)}
	case state.Play:
		p = &packet.Disconnect{Reason: chatText(reason)}
	default:
		return
	}
	r.farewell = true
	r.send(p) //nolint:errcheck
}

// readRaw deframes the next client packet.
func (r *run) readRaw() (wire.RawPacket, error) {
	raw, err := r.s.Reader.ReadPacket()
	if err != nil {
		return raw, r.clientErr("read", err)
	}
	r.m.metrics.BytesReceived(int64(len(raw.Data)))
	return raw, nil
}

// decode translates a client packet and checks it is legal now.
func (r *run) decode(raw wire.RawPacket) (packet.Packet, error) {
	p, err := r.s.Codec().Decode(r.s.State(), packet.Serverbound, raw, r.diag)
	if err != nil {
		return nil, err
	}
	if err := r.s.Machine.Accept(packet.Serverbound, p.Kind()); err != nil {
		return nil, err
	}
	return p, nil
}

// recv reads and decodes one client packet outside Play, where nothing
// may be dropped.
func (r *run) recv() (packet.Packet, error) {
	raw, err := r.readRaw()
	if err != nil {
		return nil, err
	}
	p, err := r.decode(raw)
	if err != nil {
		return nil, ncerr.Escalate(r.phase.String(), err)
	}
	return p, nil
}

// send encodes p for the client's version and writes it. A gap is
// returned untouched for the caller to drop or escalate.
func (r *run) send(p packet.Packet) error {
	raw, err := r.s.Codec().Encode(p)
	if err != nil {
		return err
	}
	r.s.Conn.SetWriteDeadline(time.Now().Add(r.m.cfg.WriteTimeout)) //nolint:errcheck
	if err := r.s.Writer.WritePacket(raw); err != nil {
		return r.clientErr("write", err)
	}
	r.m.metrics.BytesSent(int64(len(raw.Data)))
	return nil
}

// clientErr maps a client socket error onto the session taxonomy.
func (r *run) clientErr(op string, err error) error {
	var (
		fe *ncerr.FramingError
		pv *ncerr.ProtocolViolation
	)
	switch {
	case errors.As(err, &fe), errors.As(err, &pv):
		return err
	case util.IsClosed(err):
		return errClientGone
	case util.IsDeadline(err) && op == "read":
		return &ncerr.TimeoutError{Op: r.phase.String(), After: r.m.cfg.LoginTimeout}
	default:
		return ncerr.Wrap(op, r.s.Conn.RemoteAddr().String(), err)
	}
}

// dropGap logs and counts a packet that has no form on the other side.
func (r *run) dropGap(err error) {
	r.s.Logger.Verbose("dropped: %v", err)
	r.m.metrics.Gap()
}

func chatText(s string) string {
	b, _ := json.Marshal(struct {
		Text string `json:"text"`
	}{s})
	return string(b)
}
