// Package session holds the state of one client connection: the bound
// protocol version, the stream halves with their negotiated compression
// and cipher, the player identity and the paired backend link.
//
// A Session is owned by the goroutine servicing its socket. Only
// Interrupt may be called from elsewhere.
package session

import (
	"errors"
	"net"
	"sync"

	"github.com/google/uuid"

	"mcproxy/internal/backend"
	"mcproxy/internal/codec"
	"mcproxy/internal/metrics"
	"mcproxy/internal/packet"
	"mcproxy/internal/registry"
	"mcproxy/internal/state"
	"mcproxy/internal/wire"
	"mcproxy/util"
)

var (
	ErrVersionBound    = errors.New("session: protocol version already bound")
	ErrIdentitySet     = errors.New("session: player identity already set")
	ErrLinkAttached    = errors.New("session: backend link already attached")
	ErrVersionNotBound = errors.New("session: protocol version not bound")
	ErrInterrupted     = errors.New("session: interrupted")
)

// ChunkPos is a chunk column coordinate.
type ChunkPos struct {
	X, Z int32
}

// Session is one client connection.
type Session struct {
	ID      uint64
	Conn    net.Conn
	Logger  *util.Logger
	Machine *state.Machine
	Reader  *wire.StreamReader
	Writer  *wire.StreamWriter

	codec    *codec.Codec
	username string
	uuid     uuid.UUID
	metrics  *metrics.Collector

	chunks   map[ChunkPos]struct{}
	entities map[int32]struct{}

	// mu guards link and interrupted, which Interrupt touches from
	// outside the owning goroutine.
	mu          sync.Mutex
	link        *backend.Link
	interrupted bool

	closed bool
}

// Config carries what sessions share: the stream compressor, frame
// limits, logging and metrics.
type Config struct {
	Compressor    wire.Compressor
	MaxPacketSize int
	Logger        *util.Logger
	Metrics       *metrics.Collector
}

// New wraps an accepted client socket. Both stream halves start without
// compression or encryption.
func New(id uint64, conn net.Conn, cfg Config) *Session {
	r, w := wire.NewStream(conn, cfg.Compressor, cfg.MaxPacketSize)
	return &Session{
		ID:       id,
		Conn:     conn,
		Logger:   cfg.Logger,
		Machine:  state.NewMachine(),
		Reader:   r,
		Writer:   w,
		metrics:  cfg.Metrics,
		chunks:   make(map[ChunkPos]struct{}),
		entities: make(map[int32]struct{}),
	}
}

// State returns the current phase.
func (s *Session) State() state.State { return s.Machine.State() }

// BindVersion fixes the session's protocol version. It succeeds once.
func (s *Session) BindVersion(c *codec.Codec) error {
	if s.codec != nil {
		return ErrVersionBound
	}
	s.codec = c
	return nil
}

// Codec returns the bound codec, or nil before the handshake.
func (s *Session) Codec() *codec.Codec { return s.codec }

// Version returns the bound protocol version.
func (s *Session) Version() (registry.Version, error) {
	if s.codec == nil {
		return registry.Version{}, ErrVersionNotBound
	}
	return s.codec.Version(), nil
}

// SetIdentity records the logged-in player. It succeeds once.
func (s *Session) SetIdentity(username string, id uuid.UUID) error {
	if s.username != "" {
		return ErrIdentitySet
	}
	s.username, s.uuid = username, id
	return nil
}

// Username returns the player name, or "" before login.
func (s *Session) Username() string { return s.username }

// UUID returns the player UUID.
func (s *Session) UUID() uuid.UUID { return s.uuid }

// AttachLink pairs the session with its backend link. It succeeds once.
// A session already interrupted closes l and returns ErrInterrupted, so
// a link that arrives during shutdown is never left open.
func (s *Session) AttachLink(l *backend.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interrupted {
		l.Close() //nolint:errcheck
		return ErrInterrupted
	}
	if s.link != nil {
		return ErrLinkAttached
	}
	s.link = l
	return nil
}

// Link returns the paired backend link, or nil.
func (s *Session) Link() *backend.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.link
}

// EnableCompression sets the threshold on both halves. The writer must
// switch right after SetCompression is sent and the reader before the
// next client frame, which is the same moment for a sequential login.
func (s *Session) EnableCompression(threshold int) {
	s.Writer.SetCompression(threshold)
	s.Reader.SetCompression(threshold)
}

// Threshold returns the negotiated compression threshold; -1 when
// disabled.
func (s *Session) Threshold() int { return s.Writer.Threshold() }

// EnableEncryption keys AES/CFB8 on both halves from the shared secret.
func (s *Session) EnableEncryption(secret []byte) error {
	enc, dec, err := wire.NewCFB8Pair(secret)
	if err != nil {
		return err
	}
	if err := s.Writer.EnableEncryption(enc); err != nil {
		return err
	}
	return s.Reader.EnableEncryption(dec)
}

// Encrypted reports whether the client stream is enciphered.
func (s *Session) Encrypted() bool { return s.Writer.Encrypted() }

// Track updates the chunk and entity sets from a packet on its way to
// the client.
func (s *Session) Track(p packet.Packet) {
	if s.closed {
		return
	}
	switch p := p.(type) {
	case *packet.ChunkData:
		if !p.FullChunk {
			return
		}
		pos := ChunkPos{p.X, p.Z}
		if _, ok := s.chunks[pos]; !ok {
			s.chunks[pos] = struct{}{}
			s.metrics.TrackChunks(1)
		}
	case *packet.UnloadChunk:
		pos := ChunkPos{p.X, p.Z}
		if _, ok := s.chunks[pos]; ok {
			delete(s.chunks, pos)
			s.metrics.TrackChunks(-1)
		}
	case *packet.SpawnMob:
		if _, ok := s.entities[p.EntityID]; !ok {
			s.entities[p.EntityID] = struct{}{}
			s.metrics.TrackEntities(1)
		}
	case *packet.DestroyEntities:
		for _, id := range p.EntityIDs {
			if _, ok := s.entities[id]; ok {
				delete(s.entities, id)
				s.metrics.TrackEntities(-1)
			}
		}
	}
}

// Chunks returns the number of chunks the client has loaded.
func (s *Session) Chunks() int { return len(s.chunks) }

// Entities returns the number of entities the client knows about.
func (s *Session) Entities() int { return len(s.entities) }

// Interrupt closes the socket and the backend link, unblocking any
// reader. It is safe from any goroutine and may be called repeatedly.
func (s *Session) Interrupt() {
	s.mu.Lock()
	s.interrupted = true
	l := s.link
	s.mu.Unlock()

	s.Conn.Close() //nolint:errcheck
	if l != nil {
		l.Close() //nolint:errcheck
	}
}

// Close tears the session down: socket, link, cipher state, pooled
// buffers and tracked sets. Call it from the owning goroutine once no
// reader is running. Only the first call has an effect.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.Machine.Close()
	s.Interrupt()

	s.Reader.Release()
	if l := s.Link(); l != nil {
		l.Release()
	}
	s.metrics.TrackChunks(-int64(len(s.chunks)))
	s.metrics.TrackEntities(-int64(len(s.entities)))
	s.chunks = nil
	s.entities = nil
}
