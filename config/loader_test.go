package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFromEnv_Strings(t *testing.T) {
	t.Setenv("MCPROXY_LISTEN", ":25566")
	t.Setenv("MCPROXY_BACKEND", "10.0.0.5:8483")
	t.Setenv("MCPROXY_MOTD", "env motd")
	t.Setenv("MCPROXY_BLOCK_FALLBACK", "air")
	t.Setenv("MCPROXY_METRICS_ADDR", "127.0.0.1:9100")

	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":25566" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Backend != "10.0.0.5:8483" {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.MOTD != "env motd" {
		t.Errorf("MOTD = %q", cfg.MOTD)
	}
	if cfg.Fallback != "air" {
		t.Errorf("Fallback = %q", cfg.Fallback)
	}
	if cfg.MetricsAddr != "127.0.0.1:9100" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}
}

func TestLoadFromEnv_Numbers(t *testing.T) {
	t.Setenv("MCPROXY_THRESHOLD", "-1")
	t.Setenv("MCPROXY_MIN_PROTOCOL", "340")
	t.Setenv("MCPROXY_WARM_LINKS", "4")
	t.Setenv("MCPROXY_KEEPALIVE_INTERVAL", "5s")
	t.Setenv("MCPROXY_KEEPALIVE_TIMEOUT", "1m")
	t.Setenv("MCPROXY_VERBOSE", "3")

	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Threshold != -1 {
		t.Errorf("Threshold = %d, want -1", cfg.Threshold)
	}
	if cfg.MinProtocol != 340 {
		t.Errorf("MinProtocol = %d", cfg.MinProtocol)
	}
	if cfg.WarmLinks != 4 {
		t.Errorf("WarmLinks = %d", cfg.WarmLinks)
	}
	if cfg.KeepAliveInterval != 5*time.Second || cfg.KeepAliveTimeout != time.Minute {
		t.Errorf("keep-alive = %v/%v", cfg.KeepAliveInterval, cfg.KeepAliveTimeout)
	}
	if cfg.Verbose != 3 {
		t.Errorf("Verbose = %d, want 3", cfg.Verbose)
	}
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true}, {"true", true}, {"YES", true},
		{"0", false}, {"false", false}, {"No", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("MCPROXY_ENCRYPTION", tt.value)
			cfg := Default()
			cfg.Encryption = !tt.want
			if err := LoadFromEnv(cfg); err != nil {
				t.Fatal(err)
			}
			if cfg.Encryption != tt.want {
				t.Errorf("Encryption = %v, want %v", cfg.Encryption, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_SSHFields(t *testing.T) {
	t.Setenv("MCPROXY_TUNNEL", "admin@bastion:2222")
	t.Setenv("MCPROXY_SSH_KEY", "/home/user/.ssh/id_ed25519")
	t.Setenv("MCPROXY_SSH_PASSWORD", "true")
	t.Setenv("MCPROXY_SSH_AGENT", "1")
	t.Setenv("MCPROXY_STRICT_HOSTKEY", "yes")
	t.Setenv("MCPROXY_KNOWN_HOSTS", "/custom/known_hosts")

	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.TunnelSpec != "admin@bastion:2222" {
		t.Errorf("TunnelSpec = %q", cfg.TunnelSpec)
	}
	if cfg.SSHKeyPath != "/home/user/.ssh/id_ed25519" {
		t.Errorf("SSHKeyPath = %q", cfg.SSHKeyPath)
	}
	if !cfg.SSHPassword || !cfg.UseSSHAgent || !cfg.StrictHostKey {
		t.Errorf("ssh flags = %v %v %v", cfg.SSHPassword, cfg.UseSSHAgent, cfg.StrictHostKey)
	}
	if cfg.KnownHostsPath != "/custom/known_hosts" {
		t.Errorf("KnownHostsPath = %q", cfg.KnownHostsPath)
	}
}

func TestLoadFromEnv_NoOverrideWhenEmpty(t *testing.T) {
	os.Clearenv()

	cfg := Default()
	cfg.Backend = "original:1"
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "original:1" {
		t.Errorf("Backend was overridden: %q", cfg.Backend)
	}
	if cfg.Threshold != DefaultThreshold {
		t.Errorf("Threshold was overridden: %d", cfg.Threshold)
	}
}

func TestLoadFromEnv_Malformed(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"MCPROXY_MAX_PLAYERS", "lots"},
		{"MCPROXY_ENCRYPTION", "maybe"},
		{"MCPROXY_DIAL_TIMEOUT", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			err := LoadFromEnv(Default())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q should name %s", err, tt.key)
			}
		})
	}
}

// ── gcfg file ────────────────────────────────────────────────────────

const sampleFile = `
[proxy]
listen = :25570
min-protocol = 340
threshold = -1
encryption = true
keepalive-interval = 15s
keepalive-timeout = 45s
block-fallback = reject
motd = "Hello from file"
max-players = 100

[backend]
address = backend.internal:8483
link-secret = 0123456789abcdef
warm-links = 2
breaker-open-for = 30s

[tunnel]
gateway = deploy@bastion:2222
ssh-agent = true

[metrics]
address = 127.0.0.1:9100

[log]
verbose = 2
`

func TestLoadString(t *testing.T) {
	cfg := Default()
	if err := LoadString(cfg, sampleFile); err != nil {
		t.Fatal(err)
	}

	checks := []struct {
		name      string
		got, want interface{}
	}{
		{"Listen", cfg.Listen, ":25570"},
		{"MinProtocol", cfg.MinProtocol, 340},
		{"Threshold", cfg.Threshold, -1},
		{"Encryption", cfg.Encryption, true},
		{"KeepAliveInterval", cfg.KeepAliveInterval, 15 * time.Second},
		{"KeepAliveTimeout", cfg.KeepAliveTimeout, 45 * time.Second},
		{"Fallback", cfg.Fallback, "reject"},
		{"MOTD", cfg.MOTD, "Hello from file"},
		{"MaxPlayers", cfg.MaxPlayers, 100},
		{"Backend", cfg.Backend, "backend.internal:8483"},
		{"LinkSecret", cfg.LinkSecret, "0123456789abcdef"},
		{"WarmLinks", cfg.WarmLinks, 2},
		{"BreakerOpenFor", cfg.BreakerOpenFor, 30 * time.Second},
		{"TunnelSpec", cfg.TunnelSpec, "deploy@bastion:2222"},
		{"UseSSHAgent", cfg.UseSSHAgent, true},
		{"MetricsAddr", cfg.MetricsAddr, "127.0.0.1:9100"},
		{"Verbose", cfg.Verbose, 2},
		// Untouched keys keep their defaults.
		{"MaxPacketSize", cfg.MaxPacketSize, DefaultMaxPacketSize},
		{"DialAttempts", cfg.DialAttempts, DefaultDialAttempts},
		{"LoginTimeout", cfg.LoginTimeout, DefaultLoginTimeout},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded file does not validate: %v", err)
	}
}

func TestLoadString_UnknownKey(t *testing.T) {
	err := LoadString(Default(), "[proxy]\nlisten-addr = :1\n")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unsupported or misspelled") {
		t.Errorf("error %q should flag the unknown key", err)
	}
}

func TestLoadString_BadDuration(t *testing.T) {
	if err := LoadString(Default(), "[proxy]\nkeepalive-interval = 10\n"); err == nil {
		t.Fatal("expected error for a duration without unit")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcproxy.conf")
	if err := os.WriteFile(path, []byte(sampleFile), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	if err := LoadFile(cfg, path); err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "backend.internal:8483" {
		t.Errorf("Backend = %q", cfg.Backend)
	}

	err := LoadFile(Default(), filepath.Join(t.TempDir(), "missing.conf"))
	if err == nil || !strings.Contains(err.Error(), "missing.conf") {
		t.Errorf("missing file: got %v", err)
	}
}
