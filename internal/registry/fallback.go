package registry

import "fmt"

// Fallback decides what an older client sees for a canonical id its
// version does not know.
type Fallback uint8

const (
	// FallbackNearest substitutes the closest lower canonical id the
	// version knows.
	FallbackNearest Fallback = iota
	// FallbackAir substitutes air (or an empty slot).
	FallbackAir
	// FallbackReject refuses to translate; the packet is dropped.
	FallbackReject
)

func (f Fallback) String() string {
	switch f {
	case FallbackNearest:
		return "nearest"
	case FallbackAir:
		return "air"
	case FallbackReject:
		return "reject"
	default:
		return fmt.Sprintf("Fallback(%d)", uint8(f))
	}
}

// ParseFallback parses a policy name.
func ParseFallback(s string) (Fallback, error) {
	switch s {
	case "nearest", "":
		return FallbackNearest, nil
	case "air":
		return FallbackAir, nil
	case "reject":
		return FallbackReject, nil
	default:
		return 0, fmt.Errorf("unknown fallback policy %q (want nearest, air or reject)", s)
	}
}

// Resolve maps canonical into t's id space. exact is false when the
// policy substituted a different id; ok is false when it refused.
func (f Fallback) Resolve(t *Table, canonical uint32) (id uint32, exact, ok bool) {
	if id, ok := t.FromCanonical(canonical); ok {
		return id, true, true
	}
	switch f {
	case FallbackAir:
		return 0, false, true
	case FallbackNearest:
		id, ok := t.FromCanonical(t.NearestKnown(canonical))
		if !ok {
			return 0, false, true
		}
		return id, false, true
	default:
		return 0, false, false
	}
}
