package codec

import (
	"fmt"

	"mcproxy/internal/registry"
)

// Options configures a Set.
type Options struct {
	Fallback registry.Fallback
	// MinProtocol and MaxProtocol bound the accepted client protocols.
	// Zero means unbounded.
	MinProtocol int32
	MaxProtocol int32
}

// Set is the static table of codecs, one per supported version. It is
// built before the listener starts and read without locks afterwards.
type Set struct {
	opts   Options
	codecs map[int32]*Codec
	order  []*Codec
}

// NewSet builds a codec for every supported version inside the
// configured range.
func NewSet(reg *registry.Registry, opts Options) *Set {
	s := &Set{opts: opts, codecs: make(map[int32]*Codec)}
	tables := map[registry.BlockVersion][]entry{
		registry.Blocks1_8:  table1_8,
		registry.Blocks1_12: table1_12,
		registry.Blocks1_14: table1_14,
	}
	for _, v := range registry.Supported() {
		if !s.inRange(v.Protocol) {
			continue
		}
		c := newCodec(v, reg, opts.Fallback, tables[v.Blocks])
		s.codecs[v.Protocol] = c
		s.order = append(s.order, c)
	}
	return s
}

func (s *Set) inRange(protocol int32) bool {
	if s.opts.MinProtocol > 0 && protocol < s.opts.MinProtocol {
		return false
	}
	if s.opts.MaxProtocol > 0 && protocol > s.opts.MaxProtocol {
		return false
	}
	return true
}

// ForProtocol returns the codec a client declaring protocol binds to.
func (s *Set) ForProtocol(protocol int32) (*Codec, bool) {
	if !s.inRange(protocol) {
		return nil, false
	}
	v, ok := registry.Lookup(protocol)
	if !ok {
		return nil, false
	}
	c, ok := s.codecs[v.Protocol]
	return c, ok
}

// Latest returns the newest enabled codec, or nil if the range excludes
// every version.
func (s *Set) Latest() *Codec {
	if len(s.order) == 0 {
		return nil
	}
	return s.order[len(s.order)-1]
}

// Versions returns the enabled versions, oldest first.
func (s *Set) Versions() []registry.Version {
	out := make([]registry.Version, len(s.order))
	for i, c := range s.order {
		out[i] = c.version
	}
	return out
}

// Range describes the enabled versions for disconnect messages.
func (s *Set) Range() string {
	switch len(s.order) {
	case 0:
		return "none"
	case 1:
		return s.order[0].version.Name
	default:
		return fmt.Sprintf("%s-%s", s.order[0].version.Name, s.Latest().version.Name)
	}
}
