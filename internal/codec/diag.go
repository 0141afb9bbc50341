package codec

import "fmt"

// Drop describes a field or packet left out of a translation.
type Drop struct {
	Version string
	Packet  string
	Field   string
	Reason  string
}

func (d Drop) String() string {
	what := d.Packet
	if d.Field != "" {
		what += "." + d.Field
	}
	return fmt.Sprintf("%s (%s): %s", what, d.Version, d.Reason)
}

// Diagnostics counts drops and hands each one to OnDrop. A nil
// *Diagnostics discards everything.
type Diagnostics struct {
	OnDrop func(Drop)
	count  int
}

func (d *Diagnostics) record(x Drop) {
	if d == nil {
		return
	}
	d.count++
	if d.OnDrop != nil {
		d.OnDrop(x)
	}
}

// Count returns the number of drops recorded.
func (d *Diagnostics) Count() int {
	if d == nil {
		return 0
	}
	return d.count
}
