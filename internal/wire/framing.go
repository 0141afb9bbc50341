package wire

import (
	"errors"
	"fmt"

	ncerr "mcproxy/internal/errors"
)

// DefaultMaxPacketSize is the largest frame accepted from a client: the
// biggest length a three-byte VarInt can carry.
const DefaultMaxPacketSize = 1<<21 - 1

// CompressionDisabled is the threshold value that turns compression off.
const CompressionDisabled = -1

var (
	errEmptyFrame     = errors.New("empty frame")
	errNegativeLength = errors.New("negative frame length")
	errBelowThreshold = errors.New("compressed packet below threshold")
)

// RawPacket is one deframed packet: its numeric id in the sender's id
// space and the undecoded field bytes.
type RawPacket struct {
	ID   int32
	Data []byte
}

// Compressor is the algorithm behind threshold compression.
type Compressor interface {
	// Compress appends the compressed form of src to dst.
	Compress(dst, src []byte) ([]byte, error)
	// Decompress inflates src, which must expand to exactly size bytes.
	Decompress(src []byte, size int) ([]byte, error)
}

// Framing is the per-direction framing state of a stream: the negotiated
// compression threshold and the limits applied to incoming frames. It is
// owned by exactly one stream half and is not safe for concurrent use.
type Framing struct {
	// Threshold is the minimum uncompressed size that gets compressed.
	// CompressionDisabled turns compression off.
	Threshold int
	// MaxPacketSize bounds both frame length and inflated size.
	MaxPacketSize int
	// Compressor is used once Threshold >= 0.
	Compressor Compressor

	scratch []byte
}

// NewFraming returns framing state with compression disabled.
func NewFraming(c Compressor) *Framing {
	return &Framing{
		Threshold:     CompressionDisabled,
		MaxPacketSize: DefaultMaxPacketSize,
		Compressor:    c,
	}
}

func (f *Framing) maxSize() int {
	if f.MaxPacketSize <= 0 {
		return DefaultMaxPacketSize
	}
	return f.MaxPacketSize
}

func tooLarge(n int) error {
	return ncerr.Violation("transport", "", fmt.Sprintf("packet too large (%d bytes)", n))
}

// Decode splits one packet off the front of buf. It returns the packet and
// the number of bytes consumed, or ErrNeedMore when buf holds only part
// of a frame. Any other error is fatal to the stream.
func (f *Framing) Decode(buf []byte) (RawPacket, int, error) {
	length, n, err := DecodeVarInt(buf)
	if err != nil {
		if errors.Is(err, ErrNeedMore) {
			return RawPacket{}, 0, err
		}
		return RawPacket{}, 0, ncerr.Framing("length", err)
	}
	switch {
	case length < 0:
		return RawPacket{}, 0, ncerr.Framing("length", errNegativeLength)
	case length == 0:
		return RawPacket{}, 0, ncerr.Framing("length", errEmptyFrame)
	case int(length) > f.maxSize():
		return RawPacket{}, 0, tooLarge(int(length))
	}
	end := n + int(length)
	if len(buf) < end {
		return RawPacket{}, 0, ErrNeedMore
	}
	frame := buf[n:end]

	var payload []byte
	if f.Threshold < 0 {
		payload = append([]byte(nil), frame...)
	} else {
		dataLen, m, err := DecodeVarInt(frame)
		if err != nil {
			return RawPacket{}, 0, ncerr.Framing("length", err)
		}
		rest := frame[m:]
		switch {
		case dataLen == 0:
			payload = append([]byte(nil), rest...)
		case dataLen < 0:
			return RawPacket{}, 0, ncerr.Framing("decompress", errNegativeLength)
		case int(dataLen) < f.Threshold:
			return RawPacket{}, 0, ncerr.Framing("decompress", errBelowThreshold)
		case int(dataLen) > f.maxSize():
			return RawPacket{}, 0, tooLarge(int(dataLen))
		default:
			payload, err = f.Compressor.Decompress(rest, int(dataLen))
			if err != nil {
				return RawPacket{}, 0, ncerr.Framing("decompress", err)
			}
		}
	}

	id, m, err := DecodeVarInt(payload)
	if err != nil {
		return RawPacket{}, 0, ncerr.Framing("packet id", err)
	}
	return RawPacket{ID: id, Data: payload[m:]}, end, nil
}

// Encode appends the framed form of p to dst.
func (f *Framing) Encode(dst []byte, p RawPacket) ([]byte, error) {
	size := VarIntSize(p.ID) + len(p.Data)
	if size > f.maxSize() {
		return dst, tooLarge(size)
	}

	if f.Threshold < 0 {
		dst = AppendVarInt(dst, int32(size))
		dst = AppendVarInt(dst, p.ID)
		return append(dst, p.Data...), nil
	}

	if size < f.Threshold {
		// A zero data length marks the payload as uncompressed.
		dst = AppendVarInt(dst, int32(size+1))
		dst = append(dst, 0)
		dst = AppendVarInt(dst, p.ID)
		return append(dst, p.Data...), nil
	}

	f.scratch = AppendVarInt(f.scratch[:0], p.ID)
	f.scratch = append(f.scratch, p.Data...)
	compressed, err := f.Compressor.Compress(nil, f.scratch)
	if err != nil {
		return dst, ncerr.Framing("compress", err)
	}
	dst = AppendVarInt(dst, int32(VarIntSize(int32(size))+len(compressed)))
	dst = AppendVarInt(dst, int32(size))
	return append(dst, compressed...), nil
}
