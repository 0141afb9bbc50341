package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"mcproxy/internal/metrics"
	"mcproxy/tunnel"
	"mcproxy/util"
)

// SSHDialer routes backend connections through an SSH gateway. The
// tunnel is connected on first use and reconnected on the next Dial
// after the gateway drops it; links already open through a dead tunnel
// fail on their own.
type SSHDialer struct {
	tunnel  *tunnel.SSHTunnel
	config  *tunnel.SSHConfig
	logger  *util.Logger
	metrics *metrics.Collector
	mu      sync.Mutex
	up      bool // connected at least once
	closed  bool
}

// NewSSHDialer creates a dialer that forwards connections through an
// SSH tunnel. The tunnel is not connected until Connect or the first
// Dial.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return &SSHDialer{
		tunnel: tunnel.NewSSHTunnel(cfg, logger),
		config: cfg,
		logger: logger,
	}
}

// Connect establishes the SSH tunnel if it is not already up.
func (d *SSHDialer) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return net.ErrClosed
	}
	if d.tunnel.IsAlive() {
		return nil
	}

	if d.up {
		d.logger.Warn("SSH tunnel to %s lost, reconnecting", d.config.Addr())
		d.tunnel.Close() //nolint:errcheck
	} else {
		d.logger.Verbose("establishing SSH tunnel to %s@%s", d.config.User, d.config.Addr())
	}
	if err := d.tunnel.Connect(ctx); err != nil {
		return fmt.Errorf("tunnel: %w", err)
	}
	if d.up {
		d.metrics.TunnelReconnect()
	}
	d.up = true
	d.logger.Verbose("SSH tunnel established")
	return nil
}

// Dial connects to address through the SSH tunnel.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.Connect(ctx); err != nil {
		return nil, err
	}
	return d.tunnel.Dial(ctx, network, address)
}

// Close tears down the underlying SSH tunnel. Later dials fail.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	return d.tunnel.Close()
}
