package wire

import (
	"errors"
	"fmt"
	"sort"
)

// NBT tag types that the codecs touch directly.
const (
	TagEnd       = 0
	TagByte      = 1
	TagShort     = 2
	TagInt       = 3
	TagLong      = 4
	TagFloat     = 5
	TagDouble    = 6
	TagByteArray = 7
	TagString    = 8
	TagList      = 9
	TagCompound  = 10
	TagIntArray  = 11
	TagLongArray = 12
)

const maxNBTDepth = 512

var errNBTDepth = errors.New("wire: nbt nested too deeply")

func (d *Decoder) readNBTName() (string, error) {
	n, err := d.ReadUint16()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (e *Encoder) writeNBTName(s string) {
	e.WriteUint16(uint16(len(s)))
	e.buf = append(e.buf, s...)
}

// SkipNBT consumes one root tag. A lone TAG_End byte stands for "no
// value" and reports false.
func SkipNBT(d *Decoder) (bool, error) {
	tag, err := d.ReadUint8()
	if err != nil {
		return false, err
	}
	if tag == TagEnd {
		return false, nil
	}
	if _, err := d.readNBTName(); err != nil {
		return false, err
	}
	return true, skipNBTPayload(d, tag, 0)
}

func skipNBTPayload(d *Decoder, tag byte, depth int) error {
	if depth > maxNBTDepth {
		return errNBTDepth
	}
	switch tag {
	case TagByte:
		return d.Skip(1)
	case TagShort:
		return d.Skip(2)
	case TagInt, TagFloat:
		return d.Skip(4)
	case TagLong, TagDouble:
		return d.Skip(8)
	case TagByteArray, TagIntArray, TagLongArray:
		n, err := d.ReadInt32()
		if err != nil {
			return err
		}
		if n < 0 || n > MaxArrayLen {
			return ErrArrayTooLong
		}
		width := map[byte]int{TagByteArray: 1, TagIntArray: 4, TagLongArray: 8}[tag]
		return d.Skip(int(n) * width)
	case TagString:
		n, err := d.ReadUint16()
		if err != nil {
			return err
		}
		return d.Skip(int(n))
	case TagList:
		elem, err := d.ReadUint8()
		if err != nil {
			return err
		}
		n, err := d.ReadInt32()
		if err != nil {
			return err
		}
		if n < 0 || n > MaxArrayLen {
			return ErrArrayTooLong
		}
		for i := int32(0); i < n; i++ {
			if err := skipNBTPayload(d, elem, depth+1); err != nil {
				return err
			}
		}
		return nil
	case TagCompound:
		for {
			child, err := d.ReadUint8()
			if err != nil {
				return err
			}
			if child == TagEnd {
				return nil
			}
			if _, err := d.readNBTName(); err != nil {
				return err
			}
			if err := skipNBTPayload(d, child, depth+1); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("wire: unknown nbt tag %d", tag)
	}
}

// ReadLongArrays reads a root compound and returns its long-array
// children by name. Children of any other type are skipped.
func ReadLongArrays(d *Decoder) (map[string][]int64, error) {
	tag, err := d.ReadUint8()
	if err != nil {
		return nil, err
	}
	if tag == TagEnd {
		return nil, nil
	}
	if tag != TagCompound {
		return nil, fmt.Errorf("wire: expected nbt compound, got tag %d", tag)
	}
	if _, err := d.readNBTName(); err != nil {
		return nil, err
	}
	out := make(map[string][]int64)
	for {
		child, err := d.ReadUint8()
		if err != nil {
			return nil, err
		}
		if child == TagEnd {
			return out, nil
		}
		name, err := d.readNBTName()
		if err != nil {
			return nil, err
		}
		if child != TagLongArray {
			if err := skipNBTPayload(d, child, 1); err != nil {
				return nil, err
			}
			continue
		}
		n, err := d.ReadInt32()
		if err != nil {
			return nil, err
		}
		longs, err := d.ReadLongs(int(n))
		if err != nil {
			return nil, err
		}
		out[name] = longs
	}
}

// AppendLongArrays writes a root compound holding one long array per
// entry, in name order.
func AppendLongArrays(e *Encoder, arrays map[string][]int64) {
	e.WriteUint8(TagCompound)
	e.writeNBTName("")
	names := make([]string, 0, len(arrays))
	for name := range arrays {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e.WriteUint8(TagLongArray)
		e.writeNBTName(name)
		e.WriteInt32(int32(len(arrays[name])))
		e.WriteLongs(arrays[name])
	}
	e.WriteUint8(TagEnd)
}
