package packet

import (
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// SchemaVersion is bumped whenever a canonical body changes shape.
const SchemaVersion = 1

// SchemaFingerprint hashes the kind table so both ends of the backend
// link can tell they were built from the same packet model.
var SchemaFingerprint = fingerprint()

func fingerprint() uint64 {
	var b strings.Builder
	b.WriteString("v")
	b.WriteString(strconv.Itoa(SchemaVersion))
	for _, k := range Kinds() {
		b.WriteByte(';')
		b.WriteString(strconv.Itoa(int(k)))
		b.WriteByte('=')
		b.WriteString(k.String())
		b.WriteByte('/')
		b.WriteString(k.Direction().String())
	}
	return xxh3.HashString(b.String())
}
