package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultListen is the client-facing address.
	DefaultListen = ":25565"

	// DefaultBackend is the address of the backend's link port.
	DefaultBackend = "127.0.0.1:8483"

	// DefaultThreshold is the client compression threshold in bytes.
	DefaultThreshold = 256

	// DefaultBackendThreshold is the link compression threshold.
	DefaultBackendThreshold = 256

	// DefaultKeepAliveInterval is how often the proxy pings each client.
	DefaultKeepAliveInterval = 10 * time.Second

	// DefaultKeepAliveTimeout is how long a ping may stay unanswered.
	DefaultKeepAliveTimeout = 30 * time.Second

	// DefaultLoginTimeout bounds handshake, status and login.
	DefaultLoginTimeout = 30 * time.Second

	// DefaultFallback is the policy for ids an old client cannot show.
	DefaultFallback = "nearest"

	// DefaultMaxPacketSize is the largest frame a three-byte length
	// prefix can describe.
	DefaultMaxPacketSize = 1<<21 - 1

	// DefaultMOTD is the server list description.
	DefaultMOTD = "A multi-version proxy"

	// DefaultMaxPlayers is the advertised player limit.
	DefaultMaxPlayers = 20

	// DefaultDialAttempts is how many times a login dials the backend.
	DefaultDialAttempts = 3

	// DefaultDialTimeout bounds one backend dial.
	DefaultDialTimeout = 5 * time.Second

	// DefaultBreakerFailures trips the backend circuit.
	DefaultBreakerFailures = 5

	// DefaultBreakerOpenFor is how long a tripped circuit stays open.
	DefaultBreakerOpenFor = 10 * time.Second

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultTunnelKeepAlive is the SSH keepalive interval.
	DefaultTunnelKeepAlive = 30 * time.Second

	// DefaultGracePeriod is how long shutdown waits for sessions to
	// send their disconnects.
	DefaultGracePeriod = 5 * time.Second

	// DefaultProbeTimeout bounds a whole probe.
	DefaultProbeTimeout = 5 * time.Second

	// MinLinkSecret is the shortest accepted link secret.
	MinLinkSecret = 16
)

// Default returns a configuration holding every default.
func Default() *Config {
	return &Config{
		Listen:            DefaultListen,
		Threshold:         DefaultThreshold,
		KeepAliveInterval: DefaultKeepAliveInterval,
		KeepAliveTimeout:  DefaultKeepAliveTimeout,
		LoginTimeout:      DefaultLoginTimeout,
		Fallback:          DefaultFallback,
		MaxPacketSize:     DefaultMaxPacketSize,
		MOTD:              DefaultMOTD,
		MaxPlayers:        DefaultMaxPlayers,

		Backend:          DefaultBackend,
		BackendThreshold: DefaultBackendThreshold,
		DialAttempts:     DefaultDialAttempts,
		DialTimeout:      DefaultDialTimeout,
		BreakerFailures:  DefaultBreakerFailures,
		BreakerOpenFor:   DefaultBreakerOpenFor,

		TunnelKeepAlive: DefaultTunnelKeepAlive,
		GracePeriod:     DefaultGracePeriod,
		ProbeTimeout:    DefaultProbeTimeout,
	}
}
