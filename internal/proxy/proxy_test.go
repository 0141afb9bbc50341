package proxy

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcproxy/internal/backend"
	"mcproxy/internal/codec"
	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/metrics"
	"mcproxy/internal/packet"
	"mcproxy/internal/registry"
	"mcproxy/internal/state"
	"mcproxy/internal/transport"
	"mcproxy/internal/wire"
	"mcproxy/util"
)

const waitFor = 5 * time.Second

// fakeBackend accepts links and hands them to the test.
type fakeBackend struct {
	ln       net.Listener
	accepted atomic.Int32
	links    chan *backend.Link
}

func startBackend(t *testing.T) *fakeBackend {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	b := &fakeBackend{ln: ln, links: make(chan *backend.Link, 16)}
	t.Cleanup(func() {
		ln.Close()
		for {
			select {
			case l := <-b.links:
				l.Close()
			default:
				return
			}
		}
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			b.accepted.Add(1)
			go func() {
				link, err := backend.AcceptLink(conn, backend.AcceptOptions{})
				if err != nil {
					conn.Close()
					return
				}
				b.links <- link
			}()
		}
	}()
	return b
}

// next returns the next link opened by the proxy.
func (b *fakeBackend) next(t *testing.T) *backend.Link {
	t.Helper()
	select {
	case l := <-b.links:
		t.Cleanup(func() { l.Close() })
		return l
	case <-time.After(waitFor):
		t.Fatal("no backend link")
		return nil
	}
}

func recvLink(t *testing.T, l *backend.Link) packet.Packet {
	t.Helper()
	ch := make(chan linkPacket, 1)
	go func() {
		p, err := l.Recv()
		ch <- linkPacket{p, err}
	}()
	select {
	case in := <-ch:
		require.NoError(t, in.err)
		return in.p
	case <-time.After(waitFor):
		t.Fatal("no packet from proxy")
		return nil
	}
}

type harness struct {
	t       *testing.T
	ctx     context.Context
	cancel  context.CancelFunc
	ln      net.Listener
	mgr     *Manager
	codecs  *codec.Set
	metrics *metrics.Collector
	backend *fakeBackend
	client  *backend.Client
	logger  *util.Logger
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	logger := util.NewLogger(0)
	logger.SetOutput(io.Discard)

	b := startBackend(t)
	client, err := backend.NewClient(backend.Config{
		Addr:     b.ln.Addr().String(),
		Link:     backend.LinkConfig{Threshold: backend.DefaultThreshold},
		Attempts: 1,
	}, &transport.TCPDialer{Timeout: time.Second}, logger)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	codecs := codec.NewSet(registry.Default(), codec.Options{Fallback: registry.FallbackNearest})
	m := metrics.New()
	mgr, err := NewManager(cfg, codecs, client, logger, m)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		ln.Close()
	})
	return &harness{t: t, ctx: ctx, cancel: cancel, ln: ln, mgr: mgr, codecs: codecs, metrics: m,
		backend: b, client: client, logger: logger}
}

// connect opens a client connection served by Manager.Run. The channel
// receives Run's result.
func (h *harness) connect(v registry.Version) (*testClient, <-chan error) {
	h.t.Helper()
	conn, err := net.Dial("tcp", h.ln.Addr().String())
	require.NoError(h.t, err)
	srv, err := h.ln.Accept()
	require.NoError(h.t, err)

	done := make(chan error, 1)
	go func() { done <- h.mgr.Run(h.ctx, srv) }()

	c, ok := h.codecs.ForProtocol(v.Protocol)
	if !ok {
		c = h.codecs.Latest()
	}
	comp := &countingCompressor{ZlibCompressor: wire.NewZlibCompressor(-1)}
	r, w := wire.NewStream(conn, comp, 0)
	tc := &testClient{t: h.t, conn: conn, codec: c, r: r, w: w, comp: comp, state: state.Handshake}
	h.t.Cleanup(func() { conn.Close() })
	return tc, done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(waitFor):
		t.Fatal("session did not end")
		return nil
	}
}

type countingCompressor struct {
	*wire.ZlibCompressor
	inflated atomic.Int32
}

func (c *countingCompressor) Decompress(src []byte, size int) ([]byte, error) {
	c.inflated.Add(1)
	return c.ZlibCompressor.Decompress(src, size)
}

// testClient speaks the client side of one version.
type testClient struct {
	t     *testing.T
	conn  net.Conn
	codec *codec.Codec
	r     *wire.StreamReader
	w     *wire.StreamWriter
	comp  *countingCompressor
	state state.State
}

func (c *testClient) send(p packet.Packet) {
	c.t.Helper()
	raw, err := c.codec.Encode(p)
	require.NoError(c.t, err)
	require.NoError(c.t, c.w.WritePacket(raw))
}

func (c *testClient) recv() packet.Packet {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(waitFor))
	raw, err := c.r.ReadPacket()
	require.NoError(c.t, err)
	p, err := c.codec.Decode(c.state, packet.Clientbound, raw, nil)
	require.NoError(c.t, err)
	return p
}

// closed reports whether the proxy has closed the connection.
func (c *testClient) closed() bool {
	c.conn.SetReadDeadline(time.Now().Add(waitFor))
	_, err := c.r.ReadPacket()
	return util.IsClosed(err)
}

func (c *testClient) handshake(protocol int32, next packet.NextState) {
	c.t.Helper()
	c.send(&packet.Handshake{ProtocolVersion: protocol, ServerAddress: "localhost", ServerPort: 25565, NextState: next})
	c.state = state.Status
	if next == packet.NextLogin {
		c.state = state.Login
	}
}

// login runs the whole login exchange and returns the assigned UUID.
func (c *testClient) login(name string) uuid.UUID {
	c.t.Helper()
	c.handshake(c.codec.Version().Protocol, packet.NextLogin)
	c.send(&packet.LoginStart{Username: name})
	for {
		switch p := c.recv().(type) {
		case *packet.EncryptionRequest:
			c.encrypt(p)
		case *packet.SetCompression:
			c.r.SetCompression(int(p.Threshold))
			c.w.SetCompression(int(p.Threshold))
		case *packet.LoginSuccess:
			assert.Equal(c.t, name, p.Username)
			c.state = state.Play
			return p.UUID
		default:
			c.t.Fatalf("unexpected %s during login", p.Kind())
		}
	}
}

func (c *testClient) encrypt(req *packet.EncryptionRequest) {
	c.t.Helper()
	key, err := x509.ParsePKIXPublicKey(req.PublicKey)
	require.NoError(c.t, err)
	pub := key.(*rsa.PublicKey)

	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(c.t, err)
	encSecret, err := rsa.EncryptPKCS1v15(rand.Reader, pub, secret)
	require.NoError(c.t, err)
	encToken, err := rsa.EncryptPKCS1v15(rand.Reader, pub, req.VerifyToken)
	require.NoError(c.t, err)
	c.send(&packet.EncryptionResponse{SharedSecret: encSecret, VerifyToken: encToken})

	enc, dec, err := wire.NewCFB8Pair(secret)
	require.NoError(c.t, err)
	require.NoError(c.t, c.w.EnableEncryption(enc))
	require.NoError(c.t, c.r.EnableEncryption(dec))
}

func defaults() Config { return Config{Threshold: 256} }

func TestLogin_ReachesPlay(t *testing.T) {
	h := newHarness(t, defaults())
	c, done := h.connect(registry.V1_8)

	id := c.login("Alice")
	assert.Equal(t, packet.OfflineUUID("Alice"), id)

	link := h.backend.next(t)
	assert.Equal(t, backend.Identity{Username: "Alice", UUID: id, Protocol: 47}, link.Hello().Identity)
	_, ok := recvLink(t, link).(*packet.JoinGame)
	require.True(t, ok, "first backend packet must be the join notification")

	c.send(&packet.ClientChat{Message: "hello"})
	got, ok := recvLink(t, link).(*packet.ClientChat)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Message)

	require.NoError(t, link.Send(&packet.ChatMessage{JSON: chatText("welcome")}))
	msg, ok := c.recv().(*packet.ChatMessage)
	require.True(t, ok)
	assert.Equal(t, chatText("welcome"), msg.JSON)
	assert.EqualValues(t, 1, h.metrics.ActiveSessions())

	c.conn.Close()
	assert.NoError(t, wait(t, done))
	assert.EqualValues(t, 1, h.metrics.Closed(metrics.OutcomeNormal))
	assert.EqualValues(t, 0, h.metrics.ActiveSessions())
	assert.EqualValues(t, 1, h.backend.accepted.Load())
}

func TestLogin_TranslatesPerVersion(t *testing.T) {
	h := newHarness(t, defaults())
	stone, ok := registry.Default().BlockByName("minecraft:stone")
	require.True(t, ok)

	for _, v := range []registry.Version{registry.V1_8, registry.V1_12, registry.V1_14} {
		t.Run(v.Name, func(t *testing.T) {
			c, done := h.connect(v)
			c.login("Steve")
			link := h.backend.next(t)
			recvLink(t, link)
			assert.EqualValues(t, v.Protocol, link.Hello().Protocol)

			at := packet.Position{X: 10, Y: 64, Z: -3}
			require.NoError(t, link.Send(&packet.BlockChange{Location: at, Block: stone}))
			bc, ok := c.recv().(*packet.BlockChange)
			require.True(t, ok)
			assert.Equal(t, at, bc.Location)
			assert.Equal(t, stone, bc.Block)

			c.conn.Close()
			assert.NoError(t, wait(t, done))
		})
	}
}

func TestLogin_Encryption(t *testing.T) {
	cfg := defaults()
	cfg.Encryption = true
	h := newHarness(t, cfg)
	c, done := h.connect(registry.V1_12)

	c.login("Alice")
	assert.True(t, c.w.Encrypted())

	link := h.backend.next(t)
	recvLink(t, link)
	c.send(&packet.ClientChat{Message: "secret"})
	got, ok := recvLink(t, link).(*packet.ClientChat)
	require.True(t, ok)
	assert.Equal(t, "secret", got.Message)

	c.conn.Close()
	assert.NoError(t, wait(t, done))
}

func TestLogin_UnsupportedVersion(t *testing.T) {
	h := newHarness(t, defaults())
	c, done := h.connect(registry.Version{Protocol: 5})

	c.handshake(5, packet.NextLogin)
	d, ok := c.recv().(*packet.LoginDisconnect)
	require.True(t, ok)
	assert.Contains(t, d.Reason, "unsupported client version 5")
	assert.Contains(t, d.Reason, h.codecs.Range())

	var pv *ncerr.ProtocolViolation
	assert.ErrorAs(t, wait(t, done), &pv)
	assert.EqualValues(t, 0, h.backend.accepted.Load())
}

func TestLogin_InvalidUsername(t *testing.T) {
	h := newHarness(t, defaults())
	c, done := h.connect(registry.V1_14)

	c.handshake(registry.V1_14.Protocol, packet.NextLogin)
	c.send(&packet.LoginStart{Username: "no spaces!"})
	d, ok := c.recv().(*packet.LoginDisconnect)
	require.True(t, ok)
	assert.Equal(t, chatText("Protocol error: invalid username"), d.Reason)

	var pv *ncerr.ProtocolViolation
	assert.ErrorAs(t, wait(t, done), &pv)
	assert.EqualValues(t, 1, h.metrics.Violations())
}

func TestLogin_BackendDown(t *testing.T) {
	h := newHarness(t, defaults())
	h.backend.ln.Close()
	c, done := h.connect(registry.V1_8)

	c.handshake(registry.V1_8.Protocol, packet.NextLogin)
	c.send(&packet.LoginStart{Username: "Alice"})
	d, ok := c.recv().(*packet.LoginDisconnect)
	require.True(t, ok)
	assert.Equal(t, chatText("Backend unavailable"), d.Reason)

	var ble *ncerr.BackendLinkError
	assert.ErrorAs(t, wait(t, done), &ble)
	assert.EqualValues(t, 1, h.metrics.Closed(metrics.OutcomeBackend))
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name     string
		declared int32
		want     int32
	}{
		{"supported", registry.V1_12.Protocol, registry.V1_12.Protocol},
		{"alias", 485, 485},
		{"unsupported", 5, registry.V1_14.Protocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			cfg.MOTD = "hello there"
			h := newHarness(t, cfg)
			c, done := h.connect(registry.Version{Protocol: tt.declared})

			c.handshake(tt.declared, packet.NextStatus)
			c.send(&packet.StatusRequest{})
			resp, ok := c.recv().(*packet.StatusResponse)
			require.True(t, ok)

			var doc statusDoc
			require.NoError(t, json.Unmarshal([]byte(resp.JSON), &doc))
			assert.Equal(t, tt.want, doc.Version.Protocol)
			assert.Equal(t, h.codecs.Range(), doc.Version.Name)
			assert.Equal(t, DefaultMaxPlayers, doc.Players.Max)
			assert.EqualValues(t, 1, doc.Players.Online)
			assert.Equal(t, "hello there", doc.Description.Text)

			c.send(&packet.StatusPing{Payload: 42})
			pong, ok := c.recv().(*packet.StatusPong)
			require.True(t, ok)
			assert.EqualValues(t, 42, pong.Payload)

			assert.NoError(t, wait(t, done))
			assert.EqualValues(t, 0, h.backend.accepted.Load())
		})
	}
}

func TestStatus_PlayPacketIsViolation(t *testing.T) {
	h := newHarness(t, defaults())
	c, done := h.connect(registry.V1_12)

	c.handshake(registry.V1_12.Protocol, packet.NextStatus)
	c.send(&packet.PlayerPosition{X: 1, Y: 2, Z: 3})

	var pv *ncerr.ProtocolViolation
	assert.ErrorAs(t, wait(t, done), &pv)
	assert.True(t, c.closed())
	assert.EqualValues(t, 1, h.metrics.Closed(metrics.OutcomeViolation))
	assert.EqualValues(t, 0, h.backend.accepted.Load())
}

func TestStatus_DuplicateRequest(t *testing.T) {
	h := newHarness(t, defaults())
	c, done := h.connect(registry.V1_8)

	c.handshake(registry.V1_8.Protocol, packet.NextStatus)
	c.send(&packet.StatusRequest{})
	c.recv()
	c.send(&packet.StatusRequest{})

	var pv *ncerr.ProtocolViolation
	require.ErrorAs(t, wait(t, done), &pv)
	assert.Contains(t, pv.Reason, "duplicate")
}

func TestCompressionThreshold(t *testing.T) {
	h := newHarness(t, Config{Threshold: 64})
	c, done := h.connect(registry.V1_8)
	c.login("Alice")
	assert.Equal(t, 64, c.r.Threshold())

	link := h.backend.next(t)
	recvLink(t, link)
	before := c.comp.inflated.Load()

	require.NoError(t, link.Send(&packet.ChatMessage{JSON: strings.Repeat("a", 40)}))
	c.recv()
	assert.Equal(t, before, c.comp.inflated.Load(), "small packet must not be compressed")

	require.NoError(t, link.Send(&packet.ChatMessage{JSON: strings.Repeat("a", 190)}))
	c.recv()
	assert.Equal(t, before+1, c.comp.inflated.Load(), "large packet must be compressed")

	c.conn.Close()
	assert.NoError(t, wait(t, done))
}

func TestCompressionDisabled(t *testing.T) {
	h := newHarness(t, Config{Threshold: -1})
	c, done := h.connect(registry.V1_14)

	c.handshake(registry.V1_14.Protocol, packet.NextLogin)
	c.send(&packet.LoginStart{Username: "Alice"})
	_, ok := c.recv().(*packet.LoginSuccess)
	require.True(t, ok, "no SetCompression when disabled")
	c.state = state.Play

	c.conn.Close()
	assert.NoError(t, wait(t, done))
}

func TestBackendLoss(t *testing.T) {
	h := newHarness(t, defaults())
	c, done := h.connect(registry.V1_8)
	c.login("Alice")
	link := h.backend.next(t)
	recvLink(t, link)

	zombie, ok := registry.Default().EntityByName("minecraft:zombie")
	require.True(t, ok)
	require.NoError(t, link.Send(&packet.ChunkData{X: 1, Z: 2, FullChunk: true}))
	require.NoError(t, link.Send(&packet.SpawnMob{EntityID: 7, Type: zombie, Y: 64}))
	_, ok = c.recv().(*packet.ChunkData)
	require.True(t, ok)
	_, ok = c.recv().(*packet.SpawnMob)
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		return h.metrics.TrackedChunks() == 1 && h.metrics.TrackedEntities() == 1
	}, waitFor, 10*time.Millisecond)

	link.Close()
	d, ok := c.recv().(*packet.Disconnect)
	require.True(t, ok)
	assert.Equal(t, chatText("Backend unavailable"), d.Reason)

	var ble *ncerr.BackendLinkError
	assert.ErrorAs(t, wait(t, done), &ble)
	assert.EqualValues(t, 1, h.metrics.Closed(metrics.OutcomeBackend))
	assert.EqualValues(t, 0, h.metrics.TrackedChunks())
	assert.EqualValues(t, 0, h.metrics.TrackedEntities())
}

func TestBackendKick(t *testing.T) {
	h := newHarness(t, defaults())
	c, done := h.connect(registry.V1_12)
	c.login("Alice")
	link := h.backend.next(t)
	recvLink(t, link)

	require.NoError(t, link.Send(&packet.Disconnect{Reason: chatText("banned")}))
	d, ok := c.recv().(*packet.Disconnect)
	require.True(t, ok)
	assert.Equal(t, chatText("banned"), d.Reason)

	assert.NoError(t, wait(t, done))
	assert.True(t, c.closed())
	assert.EqualValues(t, 1, h.metrics.Closed(metrics.OutcomeNormal))
}

func TestBackendKeepAliveStaysOnLink(t *testing.T) {
	h := newHarness(t, defaults())
	c, done := h.connect(registry.V1_14)
	c.login("Alice")
	link := h.backend.next(t)
	recvLink(t, link)

	require.NoError(t, link.Send(&packet.KeepAliveRequest{ID: 99}))
	resp, ok := recvLink(t, link).(*packet.KeepAliveResponse)
	require.True(t, ok)
	assert.EqualValues(t, 99, resp.ID)

	require.NoError(t, link.Send(&packet.ChatMessage{JSON: chatText("after")}))
	msg, ok := c.recv().(*packet.ChatMessage)
	require.True(t, ok, "backend keep-alive must not reach the client")
	assert.Equal(t, chatText("after"), msg.JSON)

	c.conn.Close()
	assert.NoError(t, wait(t, done))
}

func TestGapIsDropped(t *testing.T) {
	h := newHarness(t, defaults())
	c, done := h.connect(registry.V1_8)
	c.login("Alice")
	link := h.backend.next(t)
	recvLink(t, link)

	require.NoError(t, link.Send(&packet.UpdateLight{X: 1, Z: 1}))
	require.NoError(t, link.Send(&packet.ChatMessage{JSON: chatText("still here")}))
	msg, ok := c.recv().(*packet.ChatMessage)
	require.True(t, ok)
	assert.Equal(t, chatText("still here"), msg.JSON)
	assert.EqualValues(t, 1, h.metrics.Gaps())

	c.conn.Close()
	assert.NoError(t, wait(t, done))
	assert.EqualValues(t, 1, h.metrics.Closed(metrics.OutcomeNormal))
}

func TestKeepAlive_Timeout(t *testing.T) {
	cfg := defaults()
	cfg.KeepAliveInterval = 20 * time.Millisecond
	cfg.KeepAliveTimeout = 100 * time.Millisecond
	h := newHarness(t, cfg)
	c, done := h.connect(registry.V1_12)
	c.login("Alice")

	_, ok := c.recv().(*packet.KeepAliveRequest)
	require.True(t, ok)
	d, ok := c.recv().(*packet.Disconnect)
	require.True(t, ok)
	assert.Equal(t, chatText("Timed out"), d.Reason)

	var te *ncerr.TimeoutError
	assert.ErrorAs(t, wait(t, done), &te)
	assert.EqualValues(t, 1, h.metrics.Timeouts())
	assert.EqualValues(t, 1, h.metrics.Closed(metrics.OutcomeTimeout))
}

func TestKeepAlive_Answered(t *testing.T) {
	cfg := defaults()
	cfg.KeepAliveInterval = 20 * time.Millisecond
	cfg.KeepAliveTimeout = 100 * time.Millisecond
	h := newHarness(t, cfg)
	c, done := h.connect(registry.V1_8)
	c.login("Alice")
	link := h.backend.next(t)
	recvLink(t, link)

	answered := 0
	for end := time.Now().Add(300 * time.Millisecond); time.Now().Before(end); {
		if ka, ok := c.recv().(*packet.KeepAliveRequest); ok {
			c.send(&packet.KeepAliveResponse{ID: ka.ID})
			answered++
		}
	}
	assert.Greater(t, answered, 1)

	c.send(&packet.ClientChat{Message: "alive"})
	got, ok := recvLink(t, link).(*packet.ClientChat)
	require.True(t, ok, "keep-alive responses must not reach the backend")
	assert.Equal(t, "alive", got.Message)

	select {
	case err := <-done:
		t.Fatalf("session ended early: %v", err)
	default:
	}
	c.conn.Close()
	assert.NoError(t, wait(t, done))
}

func TestShutdown(t *testing.T) {
	h := newHarness(t, defaults())
	c, done := h.connect(registry.V1_14)
	c.login("Alice")
	h.backend.next(t)

	h.cancel()
	d, ok := c.recv().(*packet.Disconnect)
	require.True(t, ok)
	assert.Equal(t, chatText("Proxy shutting down"), d.Reason)
	assert.NoError(t, wait(t, done))
}

func TestShutdown_BeforePlay(t *testing.T) {
	h := newHarness(t, defaults())
	c, done := h.connect(registry.V1_8)
	c.handshake(registry.V1_8.Protocol, packet.NextLogin)

	h.cancel()
	assert.NoError(t, wait(t, done))
	assert.True(t, c.closed())
}

// cancellingConnector opens a real link and cancels the serving context
// before handing it over, so shutdown lands between connect and Play.
type cancellingConnector struct {
	client *backend.Client
	cancel context.CancelFunc
}

func (c *cancellingConnector) Connect(ctx context.Context, id backend.Identity) (*backend.Link, error) {
	link, err := c.client.Connect(ctx, id)
	c.cancel()
	return link, err
}

func TestShutdown_DuringLogin(t *testing.T) {
	h := newHarness(t, defaults())
	mgr, err := NewManager(defaults(), h.codecs, &cancellingConnector{client: h.client, cancel: h.cancel}, h.logger, h.metrics)
	require.NoError(t, err)
	h.mgr = mgr

	c, done := h.connect(registry.V1_14)
	c.handshake(registry.V1_14.Protocol, packet.NextLogin)
	c.send(&packet.LoginStart{Username: "Alice"})
	peer := h.backend.next(t)

	wait(t, done)
	closed := make(chan error, 1)
	go func() {
		for {
			if _, err := peer.Recv(); err != nil {
				closed <- err
				return
			}
		}
	}()
	select {
	case <-closed:
	case <-time.After(waitFor):
		t.Fatal("backend link still open after Run returned")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	h := newHarness(t, defaults())
	a, doneA := h.connect(registry.V1_12)
	b, doneB := h.connect(registry.V1_14)
	b.login("Bob")
	link := h.backend.next(t)
	recvLink(t, link)

	_, err := a.conn.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x0F})
	require.NoError(t, err)
	var fe *ncerr.FramingError
	assert.ErrorAs(t, wait(t, doneA), &fe)
	assert.EqualValues(t, 1, h.metrics.Closed(metrics.OutcomeFraming))

	b.send(&packet.ClientChat{Message: "unaffected"})
	got, ok := recvLink(t, link).(*packet.ClientChat)
	require.True(t, ok)
	assert.Equal(t, "unaffected", got.Message)
	assert.EqualValues(t, 1, h.metrics.ActiveSessions())

	b.conn.Close()
	assert.NoError(t, wait(t, doneB))
}

func TestKeepAliveState(t *testing.T) {
	ka := newKeepAlive(time.Hour, time.Hour)
	defer ka.stop()

	assert.False(t, ka.answer(0), "nothing outstanding")
	id := ka.next()
	assert.True(t, ka.pending)
	assert.False(t, ka.answer(id+1))
	assert.True(t, ka.answer(id))
	assert.False(t, ka.pending)
	assert.Equal(t, id+1, ka.next())
}

func TestValidUsername(t *testing.T) {
	tests := map[string]bool{
		"Alice":             true,
		"a_b_9":             true,
		"":                  false,
		"seventeen_chars_x": false,
		"bad name":          false,
		"ünicode":           false,
	}
	for name, want := range tests {
		assert.Equal(t, want, validUsername(name), name)
	}
}
