package wire

import (
	"crypto/cipher"
	"errors"
	"io"

	"mcproxy/util"
)

// ErrAlreadyEncrypted is returned by a second EnableEncryption call.
var ErrAlreadyEncrypted = errors.New("wire: encryption already enabled")

// StreamReader deframes packets from the read half of a connection. It owns
// its framing state and cipher; only one goroutine may use it.
type StreamReader struct {
	r       io.Reader
	framing *Framing
	cipher  cipher.Stream

	chunk *[]byte
	buf   []byte
	start int
}

// StreamWriter frames packets onto the write half of a connection. Only
// one goroutine may use it.
type StreamWriter struct {
	w       io.Writer
	framing *Framing
	cipher  cipher.Stream
	buf     []byte
}

// NewStream splits rw into independently owned halves. Both halves start
// uncompressed and unencrypted and share c as their compressor.
func NewStream(rw io.ReadWriter, c Compressor, maxPacketSize int) (*StreamReader, *StreamWriter) {
	rf, wf := NewFraming(c), NewFraming(c)
	rf.MaxPacketSize, wf.MaxPacketSize = maxPacketSize, maxPacketSize
	return &StreamReader{r: rw, framing: rf, chunk: util.GetBuf()},
		&StreamWriter{w: rw, framing: wf}
}

// ReadPacket blocks until a whole packet has arrived.
func (s *StreamReader) ReadPacket() (RawPacket, error) {
	for {
		if s.start < len(s.buf) {
			p, n, err := s.framing.Decode(s.buf[s.start:])
			if err == nil {
				s.start += n
				if s.start == len(s.buf) {
					s.buf, s.start = s.buf[:0], 0
				}
				return p, nil
			}
			if !errors.Is(err, ErrNeedMore) {
				return RawPacket{}, err
			}
		}
		if s.start > 0 {
			n := copy(s.buf, s.buf[s.start:])
			s.buf, s.start = s.buf[:n], 0
		}
		if s.chunk == nil {
			return RawPacket{}, io.ErrClosedPipe
		}

		chunk := *s.chunk
		n, err := s.r.Read(chunk)
		if n > 0 {
			data := chunk[:n]
			if s.cipher != nil {
				s.cipher.XORKeyStream(data, data)
			}
			s.buf = append(s.buf, data...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(s.buf) > 0 {
				return RawPacket{}, io.ErrUnexpectedEOF
			}
			return RawPacket{}, err
		}
	}
}

// SetCompression changes the threshold for the following frames.
func (s *StreamReader) SetCompression(threshold int) { s.framing.Threshold = threshold }

// Threshold returns the current compression threshold.
func (s *StreamReader) Threshold() int { return s.framing.Threshold }

// EnableEncryption routes every following byte through dec. Bytes already
// buffered but not yet deframed are decrypted in place, since the peer
// switched ciphers at the packet boundary we just passed.
func (s *StreamReader) EnableEncryption(dec cipher.Stream) error {
	if s.cipher != nil {
		return ErrAlreadyEncrypted
	}
	s.cipher = dec
	pending := s.buf[s.start:]
	dec.XORKeyStream(pending, pending)
	return nil
}

// Encrypted reports whether a cipher is active.
func (s *StreamReader) Encrypted() bool { return s.cipher != nil }

// Release returns the read buffer to the pool. The reader is unusable
// afterwards.
func (s *StreamReader) Release() {
	util.PutBuf(s.chunk)
	s.chunk = nil
}

// WritePacket frames, optionally compresses and encrypts p and writes it
// in one call.
func (s *StreamWriter) WritePacket(p RawPacket) error {
	buf, err := s.framing.Encode(s.buf[:0], p)
	if err != nil {
		return err
	}
	if s.cipher != nil {
		s.cipher.XORKeyStream(buf, buf)
	}
	_, err = s.w.Write(buf)
	s.buf = buf[:0]
	return err
}

// SetCompression changes the threshold for the following frames.
func (s *StreamWriter) SetCompression(threshold int) { s.framing.Threshold = threshold }

// Threshold returns the current compression threshold.
func (s *StreamWriter) Threshold() int { return s.framing.Threshold }

// EnableEncryption routes every following byte through enc.
func (s *StreamWriter) EnableEncryption(enc cipher.Stream) error {
	if s.cipher != nil {
		return ErrAlreadyEncrypted
	}
	s.cipher = enc
	return nil
}

// Encrypted reports whether a cipher is active.
func (s *StreamWriter) Encrypted() bool { return s.cipher != nil }
