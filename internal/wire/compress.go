package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"
)

// ErrSizeMismatch is returned when inflated data does not match the
// length declared in its frame.
var ErrSizeMismatch = errors.New("decompressed size does not match declared length")

// ZlibCompressor is the client stream compressor. Writers are pooled so a
// busy session does not allocate a deflate state per packet.
type ZlibCompressor struct {
	level   int
	writers sync.Pool
}

// NewZlibCompressor returns a zlib compressor at the given level.
func NewZlibCompressor(level int) *ZlibCompressor {
	z := &ZlibCompressor{level: level}
	z.writers.New = func() interface{} {
		w, err := zlib.NewWriterLevel(nil, level)
		if err != nil {
			return nil
		}
		return w
	}
	return z
}

func (z *ZlibCompressor) Compress(dst, src []byte) ([]byte, error) {
	w, _ := z.writers.Get().(*zlib.Writer)
	if w == nil {
		return dst, fmt.Errorf("zlib: invalid level %d", z.level)
	}
	defer z.writers.Put(w)

	buf := bytes.NewBuffer(dst)
	w.Reset(buf)
	if _, err := w.Write(src); err != nil {
		return dst, err
	}
	if err := w.Close(); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}

func (z *ZlibCompressor) Decompress(src []byte, size int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ErrSizeMismatch
		}
		return nil, err
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n > 0 {
		return nil, ErrSizeMismatch
	}
	return out, nil
}

// SnappyCompressor is the backend link compressor.
type SnappyCompressor struct{}

func (SnappyCompressor) Compress(dst, src []byte) ([]byte, error) {
	return append(dst, snappy.Encode(nil, src)...), nil
}

func (SnappyCompressor) Decompress(src []byte, size int) ([]byte, error) {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, ErrSizeMismatch
	}
	return snappy.Decode(nil, src)
}
