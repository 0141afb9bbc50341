package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Limits applied while decoding untrusted input.
const (
	// MaxStringRunes bounds any string field.
	MaxStringRunes = 32767
	// MaxArrayLen bounds any length-prefixed array.
	MaxArrayLen = 1 << 21
)

var (
	ErrStringTooLong = errors.New("wire: string exceeds limit")
	ErrInvalidBool   = errors.New("wire: invalid boolean value")
	ErrNegativeLen   = errors.New("wire: negative length")
	ErrArrayTooLong  = errors.New("wire: array exceeds limit")
)

// Decoder reads packet fields from a body. Each method fails with
// io.ErrUnexpectedEOF when the body is too short.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a Decoder over b.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// Rest consumes and returns everything left in the body.
func (d *Decoder) Rest() []byte {
	b := d.buf[d.pos:]
	d.pos = len(d.buf)
	return b
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeLen
	}
	if d.pos+n > len(d.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Skip advances n bytes.
func (d *Decoder) Skip(n int) error {
	_, err := d.take(n)
	return err
}

func (d *Decoder) ReadVarInt() (int32, error) {
	v, n, err := DecodeVarInt(d.buf[d.pos:])
	if errors.Is(err, ErrNeedMore) {
		return 0, io.ErrUnexpectedEOF
	}
	if err != nil {
		return 0, err
	}
	d.pos += n
	return v, nil
}

func (d *Decoder) ReadVarLong() (int64, error) {
	v, n, err := DecodeVarLong(d.buf[d.pos:])
	if errors.Is(err, ErrNeedMore) {
		return 0, io.ErrUnexpectedEOF
	}
	if err != nil {
		return 0, err
	}
	d.pos += n
	return v, nil
}

func (d *Decoder) ReadUint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadInt8() (int8, error) {
	v, err := d.ReadUint8()
	return int8(v), err
}

func (d *Decoder) ReadBool() (bool, error) {
	v, err := d.ReadUint8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}

func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *Decoder) ReadInt16() (int16, error) {
	v, err := d.ReadUint16()
	return int16(v), err
}

func (d *Decoder) ReadInt32() (int32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (d *Decoder) ReadInt64() (int64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (d *Decoder) ReadFloat32() (float32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func (d *Decoder) ReadFloat64() (float64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// ReadString reads a length-prefixed string of at most maxRunes
// characters. A maxRunes of 0 means MaxStringRunes.
func (d *Decoder) ReadString(maxRunes int) (string, error) {
	if maxRunes <= 0 {
		maxRunes = MaxStringRunes
	}
	n, err := d.ReadVarInt()
	if err != nil {
		return "", err
	}
	// UTF-8 needs at most four bytes per rune.
	if int(n) > maxRunes*4 {
		return "", fmt.Errorf("%w: %d bytes", ErrStringTooLong, n)
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	if utf8.RuneCount(b) > maxRunes {
		return "", fmt.Errorf("%w: more than %d characters", ErrStringTooLong, maxRunes)
	}
	return string(b), nil
}

func (d *Decoder) ReadUUID() (uuid.UUID, error) {
	var id uuid.UUID
	b, err := d.take(16)
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

// ReadByteArray reads a VarInt length followed by that many bytes. The
// result is a copy.
func (d *Decoder) ReadByteArray() ([]byte, error) {
	n, err := d.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if n > MaxArrayLen {
		return nil, ErrArrayTooLong
	}
	b, err := d.take(int(n))
	if err != nil {
		return nil, err
	}
	return append([]byte{}, b...), nil
}

// ReadRaw reads exactly n bytes without a prefix. The result aliases the
// body.
func (d *Decoder) ReadRaw(n int) ([]byte, error) {
	return d.take(n)
}

// ReadLongs reads n big-endian int64 values.
func (d *Decoder) ReadLongs(n int) ([]int64, error) {
	if n < 0 || n > MaxArrayLen {
		return nil, ErrArrayTooLong
	}
	b, err := d.take(n * 8)
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(binary.BigEndian.Uint64(b[i*8:]))
	}
	return out, nil
}

// ReadLen reads a VarInt count and checks it against limit.
func (d *Decoder) ReadLen(limit int) (int, error) {
	n, err := d.ReadVarInt()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrNegativeLen
	}
	if int(n) > limit {
		return 0, fmt.Errorf("%w: %d > %d", ErrArrayTooLong, n, limit)
	}
	return int(n), nil
}
