package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the MCPROXY_ prefix.  Boolean values
// accept "1", "true", "yes" and "0", "false", "no" (case-insensitive).
// Durations use Go syntax ("10s", "1m30s").

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  A malformed value is an error
// naming the variable.
func LoadFromEnv(cfg *Config) error {
	e := &envReader{}

	e.strVar("MCPROXY_LISTEN", &cfg.Listen)
	e.intVar("MCPROXY_MIN_PROTOCOL", &cfg.MinProtocol)
	e.intVar("MCPROXY_MAX_PROTOCOL", &cfg.MaxProtocol)
	e.intVar("MCPROXY_THRESHOLD", &cfg.Threshold)
	e.boolVar("MCPROXY_ENCRYPTION", &cfg.Encryption)
	e.durationVar("MCPROXY_KEEPALIVE_INTERVAL", &cfg.KeepAliveInterval)
	e.durationVar("MCPROXY_KEEPALIVE_TIMEOUT", &cfg.KeepAliveTimeout)
	e.durationVar("MCPROXY_LOGIN_TIMEOUT", &cfg.LoginTimeout)
	e.strVar("MCPROXY_BLOCK_FALLBACK", &cfg.Fallback)
	e.intVar("MCPROXY_MAX_PACKET_SIZE", &cfg.MaxPacketSize)
	e.strVar("MCPROXY_MOTD", &cfg.MOTD)
	e.intVar("MCPROXY_MAX_PLAYERS", &cfg.MaxPlayers)

	// Backend link
	e.strVar("MCPROXY_BACKEND", &cfg.Backend)
	e.intVar("MCPROXY_BACKEND_THRESHOLD", &cfg.BackendThreshold)
	e.strVar("MCPROXY_LINK_SECRET", &cfg.LinkSecret)
	e.intVar("MCPROXY_DIAL_ATTEMPTS", &cfg.DialAttempts)
	e.durationVar("MCPROXY_DIAL_TIMEOUT", &cfg.DialTimeout)
	e.intVar("MCPROXY_WARM_LINKS", &cfg.WarmLinks)

	// SSH gateway
	e.strVar("MCPROXY_TUNNEL", &cfg.TunnelSpec)
	e.strVar("MCPROXY_SSH_KEY", &cfg.SSHKeyPath)
	e.boolVar("MCPROXY_SSH_PASSWORD", &cfg.SSHPassword)
	e.boolVar("MCPROXY_SSH_AGENT", &cfg.UseSSHAgent)
	e.boolVar("MCPROXY_STRICT_HOSTKEY", &cfg.StrictHostKey)
	e.strVar("MCPROXY_KNOWN_HOSTS", &cfg.KnownHostsPath)

	// Operation
	e.strVar("MCPROXY_METRICS_ADDR", &cfg.MetricsAddr)
	e.intVar("MCPROXY_VERBOSE", &cfg.Verbose)

	return e.err
}

// ── helpers ──────────────────────────────────────────────────────────

// envReader records the first malformed variable and ignores the rest.
type envReader struct {
	err error
}

func (e *envReader) lookup(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func (e *envReader) fail(key, v, want string) {
	e.err = fmt.Errorf("environment: %s=%q is not %s", key, v, want)
}

func (e *envReader) strVar(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) intVar(key string, dst *int) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, "an integer")
		return
	}
	*dst = n
}

func (e *envReader) boolVar(key string, dst *bool) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		*dst = true
	case "0", "false", "no":
		*dst = false
	default:
		e.fail(key, v, "a boolean")
	}
}

func (e *envReader) durationVar(key string, dst *time.Duration) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, "a duration")
		return
	}
	*dst = d
}
