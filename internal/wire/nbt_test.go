package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLongArrays_RoundTrip(t *testing.T) {
	in := map[string][]int64{
		"MOTION_BLOCKING": {1, 2, 3, -4},
		"WORLD_SURFACE":   {5},
	}
	e := NewEncoder(0)
	AppendLongArrays(e, in)
	e.WriteVarInt(99) // trailing field

	d := NewDecoder(e.Bytes())
	out, err := ReadLongArrays(d)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	next, err := d.ReadVarInt()
	require.NoError(t, err)
	assert.Equal(t, int32(99), next)
}

func TestSkipNBT(t *testing.T) {
	e := NewEncoder(0)
	// compound "display" { string "Name": "x", list "Lore": [string "a"], int "n": 1 }
	e.WriteUint8(TagCompound)
	e.writeNBTName("")
	e.WriteUint8(TagCompound)
	e.writeNBTName("display")
	e.WriteUint8(TagString)
	e.writeNBTName("Name")
	e.writeNBTName("x")
	e.WriteUint8(TagList)
	e.writeNBTName("Lore")
	e.WriteUint8(TagString)
	e.WriteInt32(1)
	e.writeNBTName("a")
	e.WriteUint8(TagEnd)
	e.WriteUint8(TagInt)
	e.writeNBTName("n")
	e.WriteInt32(1)
	e.WriteUint8(TagEnd)
	e.WriteUint8(0x7f) // sentinel after the tag

	d := NewDecoder(e.Bytes())
	present, err := SkipNBT(d)
	require.NoError(t, err)
	assert.True(t, present)
	b, err := d.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x7f), b)
}

func TestSkipNBT_Empty(t *testing.T) {
	present, err := SkipNBT(NewDecoder([]byte{TagEnd}))
	require.NoError(t, err)
	assert.False(t, present)
}

func TestSkipNBT_Truncated(t *testing.T) {
	_, err := SkipNBT(NewDecoder([]byte{TagCompound, 0, 0, TagInt, 0, 1, 'n'}))
	assert.Error(t, err)
}
