package wire

import "github.com/google/uuid"

// Fields wraps a Decoder with a sticky error so that a packet's field list
// can be read straight through and checked once at the end. After the
// first failure every read returns the zero value.
type Fields struct {
	*Decoder
	err error
}

// NewFields returns a Fields reader over b.
func NewFields(b []byte) *Fields {
	return &Fields{Decoder: NewDecoder(b)}
}

// Err returns the first error encountered.
func (f *Fields) Err() error { return f.err }

// Fail records err unless an earlier error is already recorded.
func (f *Fields) Fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

// OK reports whether no error has been recorded.
func (f *Fields) OK() bool { return f.err == nil }

func read[T any](f *Fields, fn func() (T, error)) T {
	var zero T
	if f.err != nil {
		return zero
	}
	v, err := fn()
	if err != nil {
		f.err = err
		return zero
	}
	return v
}

func (f *Fields) VarInt() int32     { return read(f, f.ReadVarInt) }
func (f *Fields) VarLong() int64    { return read(f, f.ReadVarLong) }
func (f *Fields) U8() uint8         { return read(f, f.ReadUint8) }
func (f *Fields) I8() int8          { return read(f, f.ReadInt8) }
func (f *Fields) Bool() bool        { return read(f, f.ReadBool) }
func (f *Fields) U16() uint16       { return read(f, f.ReadUint16) }
func (f *Fields) I16() int16        { return read(f, f.ReadInt16) }
func (f *Fields) I32() int32        { return read(f, f.ReadInt32) }
func (f *Fields) I64() int64        { return read(f, f.ReadInt64) }
func (f *Fields) F32() float32      { return read(f, f.ReadFloat32) }
func (f *Fields) F64() float64      { return read(f, f.ReadFloat64) }
func (f *Fields) UUID() uuid.UUID   { return read(f, f.ReadUUID) }
func (f *Fields) ByteArray() []byte { return read(f, f.ReadByteArray) }

func (f *Fields) String(maxRunes int) string {
	return read(f, func() (string, error) { return f.ReadString(maxRunes) })
}

// Raw reads n bytes and copies them.
func (f *Fields) Raw(n int) []byte {
	return read(f, func() ([]byte, error) {
		b, err := f.ReadRaw(n)
		if err != nil {
			return nil, err
		}
		return append([]byte{}, b...), nil
	})
}

func (f *Fields) Longs(n int) []int64 {
	return read(f, func() ([]int64, error) { return f.ReadLongs(n) })
}

func (f *Fields) Len(limit int) int {
	return read(f, func() (int, error) { return f.ReadLen(limit) })
}

// RestCopy consumes everything left and returns a copy.
func (f *Fields) RestCopy() []byte {
	if f.err != nil {
		return nil
	}
	return append([]byte{}, f.Rest()...)
}
