// Package config defines the runtime configuration for mcproxy and the
// loaders that fill it from a file, the environment and the command line.
package config

import (
	"fmt"
	"time"

	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/registry"
	"mcproxy/tunnel"
)

// Config holds every tuneable for one proxy process.
type Config struct {
	// ── Client side ──────────────────────────────────────────────────
	Listen      string
	MinProtocol int // 0: no lower bound
	MaxProtocol int // 0: no upper bound
	Threshold   int // -1 disables client compression
	Encryption  bool

	KeepAliveInterval time.Duration
	KeepAliveTimeout  time.Duration
	LoginTimeout      time.Duration

	Fallback      string // nearest, air or reject
	MaxPacketSize int
	MOTD          string
	MaxPlayers    int

	// ── Backend link ─────────────────────────────────────────────────
	Backend          string
	BackendThreshold int // -1 disables link compression
	LinkSecret       string
	DialAttempts     int
	DialTimeout      time.Duration
	WarmLinks        int
	BreakerFailures  int
	BreakerOpenFor   time.Duration

	// ── SSH gateway to the backend ───────────────────────────────────
	TunnelSpec      string // raw user@host[:port]
	TunnelEnabled   bool
	TunnelUser      string
	TunnelHost      string
	TunnelPort      int
	SSHKeyPath      string
	SSHPassword     bool // true → prompt interactively
	UseSSHAgent     bool
	StrictHostKey   bool
	KnownHostsPath  string
	TunnelKeepAlive time.Duration

	// ── Operation ────────────────────────────────────────────────────
	MetricsAddr  string
	GracePeriod  time.Duration
	Probe        string // host:port to probe instead of serving
	ProbeTimeout time.Duration
	ConfigFile   string
	Verbose      int
}

// FallbackPolicy returns the parsed fallback policy.
func (c *Config) FallbackPolicy() (registry.Fallback, error) {
	return registry.ParseFallback(c.Fallback)
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	var sc tunnel.SSHConfig
	if err := tunnel.ParseGateway(spec, &sc); err != nil {
		return "", "", 0, err
	}
	return sc.User, sc.Host, sc.Port, nil
}

// ResolveTunnel parses TunnelSpec into the tunnel fields.
func (c *Config) ResolveTunnel() error {
	if c.TunnelSpec == "" {
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return &ncerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: err.Error()}
	}
	c.TunnelEnabled = true
	c.TunnelUser, c.TunnelHost, c.TunnelPort = user, host, port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Probe != "" {
		return c.validateProbe()
	}

	if c.Listen == "" {
		return &ncerr.ConfigError{Field: "listen", Message: "listen address is required",
			Hint: "use --listen :25565"}
	}
	if c.Backend == "" {
		return &ncerr.ConfigError{Field: "backend", Message: "backend address is required",
			Hint: "point --backend at the backend's link port"}
	}
	if err := c.validateVersions(); err != nil {
		return err
	}
	if _, err := c.FallbackPolicy(); err != nil {
		return &ncerr.ConfigError{Field: "block-fallback", Value: c.Fallback, Message: err.Error()}
	}

	if c.Threshold < -1 {
		return &ncerr.ConfigError{Field: "threshold", Value: c.Threshold,
			Message: "must be -1 (off) or a byte count"}
	}
	if c.BackendThreshold < -1 {
		return &ncerr.ConfigError{Field: "backend-threshold", Value: c.BackendThreshold,
			Message: "must be -1 (off) or a byte count"}
	}
	if c.MaxPacketSize < 1024 || c.MaxPacketSize > DefaultMaxPacketSize {
		return &ncerr.ConfigError{Field: "max-packet-size", Value: c.MaxPacketSize,
			Message: fmt.Sprintf("must be between 1024 and %d", DefaultMaxPacketSize)}
	}
	if c.KeepAliveInterval <= 0 {
		return &ncerr.ConfigError{Field: "keepalive-interval", Value: c.KeepAliveInterval, Message: "must be positive"}
	}
	if c.KeepAliveTimeout < c.KeepAliveInterval {
		return &ncerr.ConfigError{Field: "keepalive-timeout", Value: c.KeepAliveTimeout,
			Message: "must not be shorter than the keep-alive interval"}
	}
	if c.MaxPlayers < 0 {
		return &ncerr.ConfigError{Field: "max-players", Value: c.MaxPlayers, Message: "must not be negative"}
	}

	if c.LinkSecret != "" && len(c.LinkSecret) < MinLinkSecret {
		return &ncerr.ConfigError{Field: "link-secret", Message: fmt.Sprintf("must be at least %d bytes", MinLinkSecret),
			Hint: "use the same value on the backend; generate one with: openssl rand -hex 16"}
	}
	if c.DialAttempts < 1 {
		return &ncerr.ConfigError{Field: "dial-attempts", Value: c.DialAttempts, Message: "must be at least 1"}
	}
	if c.WarmLinks < 0 {
		return &ncerr.ConfigError{Field: "warm-links", Value: c.WarmLinks, Message: "must not be negative"}
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return &ncerr.ConfigError{Field: "tunnel", Message: "tunnel host is required"}
	}
	return nil
}

func (c *Config) validateProbe() error {
	if c.ProbeTimeout <= 0 {
		return &ncerr.ConfigError{Field: "probe-timeout", Value: c.ProbeTimeout, Message: "must be positive"}
	}
	return c.validateVersions()
}

// validateVersions checks that the protocol bounds leave at least one
// supported version enabled.
func (c *Config) validateVersions() error {
	if c.MinProtocol < 0 || c.MaxProtocol < 0 {
		return &ncerr.ConfigError{Field: "min-protocol", Message: "protocol numbers are positive"}
	}
	if c.MaxProtocol > 0 && c.MinProtocol > c.MaxProtocol {
		return &ncerr.ConfigError{Field: "min-protocol", Value: c.MinProtocol,
			Message: fmt.Sprintf("greater than --max-protocol=%d", c.MaxProtocol)}
	}
	for _, v := range registry.Supported() {
		if c.MinProtocol > 0 && int(v.Protocol) < c.MinProtocol {
			continue
		}
		if c.MaxProtocol > 0 && int(v.Protocol) > c.MaxProtocol {
			continue
		}
		return nil
	}
	return &ncerr.ConfigError{Field: "min-protocol", Value: c.MinProtocol,
		Message: "no supported version falls inside the protocol range",
		Hint:    supportedHint()}
}

func supportedHint() string {
	hint := "supported:"
	for _, v := range registry.Supported() {
		hint += fmt.Sprintf(" %s (%d)", v.Name, v.Protocol)
	}
	return hint
}
