// Package tunnel reaches a backend that only listens on a private
// network by forwarding the internal link through an SSH gateway.
package tunnel

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Tunnel is an encrypted channel through which TCP connections can be
// forwarded.
type Tunnel interface {
	// Connect establishes the tunnel to the gateway.
	Connect(ctx context.Context) error

	// Dial opens a connection to address through the tunnel.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close tears down the tunnel and frees resources.
	Close() error

	// IsAlive reports whether the underlying connection is still up.
	IsAlive() bool
}

// ParseGateway splits a "user@host[:port]" gateway spec into cfg. The
// port defaults to 22; an IPv6 host needs brackets.
func ParseGateway(spec string, cfg *SSHConfig) error {
	if spec == "" {
		return fmt.Errorf("empty gateway")
	}
	hostport := spec
	if i := strings.LastIndex(spec, "@"); i >= 0 {
		cfg.User, hostport = spec[:i], spec[i+1:]
		if cfg.User == "" {
			return fmt.Errorf("gateway %q: empty user", spec)
		}
	}
	host, port := hostport, 22
	if h, p, err := net.SplitHostPort(hostport); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("gateway %q: invalid port %q", spec, p)
		}
		host, port = h, n
	}
	if host == "" {
		return fmt.Errorf("gateway %q: empty host", spec)
	}
	cfg.Host, cfg.Port = host, port
	return nil
}
