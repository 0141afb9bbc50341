package util

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// DefaultBufSize is the standard read buffer size for network I/O (32 KiB).
const DefaultBufSize = 32 * 1024

// IsClosed reports whether err is what a read or write returns once the
// peer has gone away or the connection was closed locally. Session
// teardown treats these as a normal end rather than a failure.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

// IsDeadline reports whether err is an expired read or write deadline.
func IsDeadline(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}
