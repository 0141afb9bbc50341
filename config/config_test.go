package config

import (
	"errors"
	"testing"
	"time"

	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/registry"
)

// ── ParseTunnelSpec ──────────────────────────────────────────────────

func TestParseTunnelSpec(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantUser string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"full", "admin@bastion.example.com:2222", "admin", "bastion.example.com", 2222, false},
		{"no port", "root@gateway", "root", "gateway", 22, false},
		{"no user", "jump-host:2200", "", "jump-host", 2200, false},
		{"host only", "gateway.local", "", "gateway.local", 22, false},
		{"ipv6", "ops@[::1]:2022", "ops", "::1", 2022, false},
		{"bad port", "user@host:999999", "", "", 0, true},
		{"empty", "", "", "", 0, true},
		{"colon only", ":", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, host, port, err := ParseTunnelSpec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if user != tt.wantUser || host != tt.wantHost || port != tt.wantPort {
				t.Errorf("got (%q, %q, %d), want (%q, %q, %d)",
					user, host, port, tt.wantUser, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestResolveTunnel(t *testing.T) {
	cfg := Default()
	cfg.TunnelSpec = "deploy@bastion:2200"
	if err := cfg.ResolveTunnel(); err != nil {
		t.Fatal(err)
	}
	if !cfg.TunnelEnabled || cfg.TunnelUser != "deploy" || cfg.TunnelHost != "bastion" || cfg.TunnelPort != 2200 {
		t.Errorf("unexpected tunnel fields: %+v", cfg)
	}

	cfg = Default()
	if err := cfg.ResolveTunnel(); err != nil || cfg.TunnelEnabled {
		t.Errorf("empty spec: err=%v enabled=%v", err, cfg.TunnelEnabled)
	}

	cfg.TunnelSpec = "user@host:0"
	var ce *ncerr.ConfigError
	if err := cfg.ResolveTunnel(); !errors.As(err, &ce) || ce.Field != "tunnel" {
		t.Errorf("bad spec: got %v", err)
	}
}

// ── Defaults ─────────────────────────────────────────────────────────

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if fb, _ := cfg.FallbackPolicy(); fb != registry.FallbackNearest {
		t.Errorf("fallback = %s, want nearest", fb)
	}
}

// ── Config.Validate ──────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string // empty: valid
	}{
		{"defaults", func(*Config) {}, ""},
		{"no listen", func(c *Config) { c.Listen = "" }, "listen"},
		{"no backend", func(c *Config) { c.Backend = "" }, "backend"},
		{"single version", func(c *Config) { c.MinProtocol, c.MaxProtocol = 340, 340 }, ""},
		{"alias bound", func(c *Config) { c.MinProtocol = 480 }, ""},
		{"inverted range", func(c *Config) { c.MinProtocol, c.MaxProtocol = 498, 47 }, "min-protocol"},
		{"empty range", func(c *Config) { c.MinProtocol, c.MaxProtocol = 100, 200 }, "min-protocol"},
		{"negative protocol", func(c *Config) { c.MaxProtocol = -1 }, "min-protocol"},
		{"bad fallback", func(c *Config) { c.Fallback = "closest" }, "block-fallback"},
		{"compression off", func(c *Config) { c.Threshold, c.BackendThreshold = -1, -1 }, ""},
		{"bad threshold", func(c *Config) { c.Threshold = -2 }, "threshold"},
		{"bad backend threshold", func(c *Config) { c.BackendThreshold = -5 }, "backend-threshold"},
		{"tiny packets", func(c *Config) { c.MaxPacketSize = 100 }, "max-packet-size"},
		{"huge packets", func(c *Config) { c.MaxPacketSize = 1 << 22 }, "max-packet-size"},
		{"zero interval", func(c *Config) { c.KeepAliveInterval = 0 }, "keepalive-interval"},
		{"timeout below interval", func(c *Config) { c.KeepAliveTimeout = time.Second }, "keepalive-timeout"},
		{"negative players", func(c *Config) { c.MaxPlayers = -1 }, "max-players"},
		{"short secret", func(c *Config) { c.LinkSecret = "abc" }, "link-secret"},
		{"good secret", func(c *Config) { c.LinkSecret = "0123456789abcdef" }, ""},
		{"no attempts", func(c *Config) { c.DialAttempts = 0 }, "dial-attempts"},
		{"negative warm", func(c *Config) { c.WarmLinks = -1 }, "warm-links"},
		{"tunnel no host", func(c *Config) { c.TunnelEnabled = true }, "tunnel"},
		{"probe ignores listen", func(c *Config) { c.Probe, c.Listen = "localhost:25565", "" }, ""},
		{"probe timeout", func(c *Config) { c.Probe, c.ProbeTimeout = "localhost:25565", 0 }, "probe-timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ce *ncerr.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if ce.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ce.Field, tt.wantField)
			}
		})
	}
}
