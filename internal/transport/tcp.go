package transport

import (
	"context"
	"net"
	"time"
)

// TCPDialer establishes plain TCP connections with Nagle disabled, since
// the link carries many small frames that should not wait for each
// other.
type TCPDialer struct {
	Timeout time.Duration
	// KeepAlive is the TCP keep-alive period. Zero uses the system
	// default; negative disables it.
	KeepAlive time.Duration
}

// Dial connects to address over TCP.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true) //nolint:errcheck
	}
	return conn, nil
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }
