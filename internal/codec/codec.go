// Package codec translates between the wire format of each supported
// client revision and the canonical packet model.
//
// A Codec is selected once per session from a Set and never changes. Each
// codec is built from a closed per-version table that binds a (state,
// direction, packet id) triple to a canonical kind together with the
// functions that read and write that kind's fields for the version.
package codec

import (
	"fmt"

	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/packet"
	"mcproxy/internal/registry"
	"mcproxy/internal/state"
	"mcproxy/internal/wire"
)

type (
	decodeFunc func(r *reader) packet.Packet
	encodeFunc func(w *writer, p packet.Packet)
)

type entry struct {
	state  state.State
	id     int32
	kind   packet.Kind
	decode decodeFunc
	encode encodeFunc
}

// def builds a table entry for packets of type P. Either function may be
// nil for kinds the version only sends or only receives.
func def[P packet.Packet](st state.State, id int32, dec decodeFunc, enc func(*writer, P)) entry {
	var zero P
	e := entry{state: st, id: id, kind: zero.Kind(), decode: dec}
	if enc != nil {
		e.encode = func(w *writer, p packet.Packet) { enc(w, p.(P)) }
	}
	return e
}

type inKey struct {
	state state.State
	dir   packet.Direction
	id    int32
}

// Codec translates one protocol version. It is immutable and shared by
// every session bound to the version.
type Codec struct {
	version  registry.Version
	reg      *registry.Registry
	fallback registry.Fallback
	in       map[inKey]*entry
	out      map[packet.Kind]*entry
}

func newCodec(v registry.Version, reg *registry.Registry, fb registry.Fallback, table []entry) *Codec {
	c := &Codec{
		version:  v,
		reg:      reg,
		fallback: fb,
		in:       make(map[inKey]*entry, len(table)),
		out:      make(map[packet.Kind]*entry, len(table)),
	}
	for i := range table {
		e := &table[i]
		if e.decode != nil {
			c.in[inKey{e.state, e.kind.Direction(), e.id}] = e
		}
		if e.encode != nil {
			c.out[e.kind] = e
		}
	}
	return c
}

// Version returns the protocol version the codec speaks.
func (c *Codec) Version() registry.Version { return c.version }

// Fallback returns the policy applied to unknown blocks and items.
func (c *Codec) Fallback() registry.Fallback { return c.fallback }

// Supports reports whether kind has a representation in the version.
func (c *Codec) Supports(kind packet.Kind) bool {
	_, ok := c.out[kind]
	return ok
}

// Decode translates a raw packet received in st travelling in dir.
//
// An id the version does not define is a ProtocolViolation outside Play
// and a TranslationGap inside it. Fields the canonical model cannot hold
// are dropped and reported to diag, which may be nil.
func (c *Codec) Decode(st state.State, dir packet.Direction, raw wire.RawPacket, diag *Diagnostics) (packet.Packet, error) {
	e, ok := c.in[inKey{st, dir, raw.ID}]
	if !ok {
		name := fmt.Sprintf("0x%02X", raw.ID)
		if st == state.Play {
			return nil, &ncerr.TranslationGap{Version: c.version.Name, Packet: name, Reason: "no canonical " + dir.String() + " packet"}
		}
		return nil, ncerr.Violation(st.String(), name, "unknown "+dir.String()+" packet")
	}
	r := &reader{Fields: wire.NewFields(raw.Data), c: c, st: st, kind: e.kind, diag: diag}
	p := e.decode(r)
	switch {
	case r.bad != nil:
		return nil, r.bad
	case !r.OK():
		return nil, ncerr.Violation(st.String(), e.kind.String(), "malformed packet: "+r.Err().Error())
	case r.gap != nil:
		return nil, r.gap
	}
	if n := r.Remaining(); n > 0 {
		r.drop("", fmt.Sprintf("%d trailing bytes", n))
	}
	return p, nil
}

// Encode translates p for the version. A kind or field value the version
// cannot express yields a TranslationGap and no packet.
func (c *Codec) Encode(p packet.Packet) (wire.RawPacket, error) {
	e, ok := c.out[p.Kind()]
	if !ok {
		return wire.RawPacket{}, &ncerr.TranslationGap{
			Version: c.version.Name,
			Packet:  p.Kind().String(),
			Reason:  "packet does not exist in this version",
		}
	}
	w := &writer{Encoder: wire.NewEncoder(64), c: c, kind: e.kind}
	e.encode(w, p)
	if w.gap != nil {
		return wire.RawPacket{}, w.gap
	}
	return wire.RawPacket{ID: e.id, Data: w.Bytes()}, nil
}

// DecodeHandshake reads the first packet of a connection. Its layout is
// the same in every version, which is what lets the proxy pick a codec.
func DecodeHandshake(raw wire.RawPacket) (*packet.Handshake, error) {
	if raw.ID != 0x00 {
		return nil, ncerr.Violation(state.Handshake.String(), fmt.Sprintf("0x%02X", raw.ID), "expected handshake")
	}
	r := &reader{Fields: wire.NewFields(raw.Data), st: state.Handshake, kind: packet.KindHandshake}
	p := decodeHandshake(r).(*packet.Handshake)
	if !r.OK() {
		return nil, ncerr.Violation(state.Handshake.String(), "Handshake", "malformed packet: "+r.Err().Error())
	}
	if p.NextState != packet.NextStatus && p.NextState != packet.NextLogin {
		return nil, ncerr.Violation(state.Handshake.String(), "Handshake", fmt.Sprintf("invalid next state %d", p.NextState))
	}
	return p, nil
}

func (c *Codec) blocks() *registry.Table   { return c.reg.Blocks(c.version.Blocks) }
func (c *Codec) items() *registry.Table    { return c.reg.Items(c.version.Blocks) }
func (c *Codec) entities() *registry.Table { return c.reg.Entities(c.version.Blocks) }
