// Package transport provides the ways the proxy reaches its backend:
// plain TCP, or TCP forwarded through an SSH gateway. What travels over
// the connection is the backend package's business.
package transport

import (
	"context"
	"net"
	"time"

	"mcproxy/internal/metrics"
	"mcproxy/tunnel"
	"mcproxy/util"
)

// Dialer opens outbound connections to the backend.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session). Stateless dialers return nil.
	Close() error
}

// Options selects and configures a Dialer.
type Options struct {
	Timeout   time.Duration
	KeepAlive time.Duration
	// Gateway routes dials through an SSH gateway when non-nil.
	Gateway *tunnel.SSHConfig
	// Metrics counts gateway reconnections. May be nil.
	Metrics *metrics.Collector
}

// New returns the dialer described by opts.
func New(opts Options, logger *util.Logger) Dialer {
	if opts.Gateway != nil {
		d := NewSSHDialer(opts.Gateway, logger)
		d.metrics = opts.Metrics
		return d
	}
	return &TCPDialer{Timeout: opts.Timeout, KeepAlive: opts.KeepAlive}
}
