// Package registry holds the protocol versions the proxy speaks and the
// read-only tables that map each version's block, item and entity ids to
// canonical ids. Tables are built once at startup and never mutated.
package registry

import "fmt"

// BlockVersion names a block/item id layout shared by a range of
// protocol versions.
type BlockVersion uint8

const (
	Blocks1_8 BlockVersion = iota + 1
	Blocks1_12
	Blocks1_14
)

func (b BlockVersion) String() string {
	switch b {
	case Blocks1_8:
		return "1.8"
	case Blocks1_12:
		return "1.12"
	case Blocks1_14:
		return "1.14"
	default:
		return fmt.Sprintf("BlockVersion(%d)", uint8(b))
	}
}

// Version is a client protocol revision.
type Version struct {
	Protocol int32
	Name     string
	Blocks   BlockVersion
}

func (v Version) String() string { return v.Name }

// AtLeast reports whether v is o or newer.
func (v Version) AtLeast(o Version) bool { return v.Protocol >= o.Protocol }

var (
	V1_8   = Version{Protocol: 47, Name: "1.8.9", Blocks: Blocks1_8}
	V1_12  = Version{Protocol: 340, Name: "1.12.2", Blocks: Blocks1_12}
	V1_14  = Version{Protocol: 498, Name: "1.14.4", Blocks: Blocks1_14}
	oldest = V1_8
	newest = V1_14
)

var supported = []Version{V1_8, V1_12, V1_14}

// Earlier 1.14 patch releases share the 1.14.4 packet and id layout.
var aliases = map[int32]Version{
	477: V1_14,
	480: V1_14,
	485: V1_14,
	490: V1_14,
}

// Lookup returns the version a client protocol number binds to.
func Lookup(protocol int32) (Version, bool) {
	for _, v := range supported {
		if v.Protocol == protocol {
			return v, true
		}
	}
	v, ok := aliases[protocol]
	return v, ok
}

// Supported returns every version with its own codec, oldest first.
func Supported() []Version {
	return append([]Version(nil), supported...)
}

// Oldest returns the oldest supported version.
func Oldest() Version { return oldest }

// Latest returns the newest supported version.
func Latest() Version { return newest }
