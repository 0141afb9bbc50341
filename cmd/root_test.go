package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// capture redirects stdout for the duration of the test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	out := capture(t)
	if err := Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "mcproxy "+version) || !strings.Contains(out.String(), "1.8.9-1.14.4") {
		t.Errorf("version output = %q", out.String())
	}
}

// TestExecute_Help verifies --help prints usage without error.
func TestExecute_Help(t *testing.T) {
	for _, arg := range []string{"--help", "-h"} {
		t.Run(arg, func(t *testing.T) {
			out := capture(t)
			if err := Execute(context.Background(), []string{arg}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out.String(), "--block-fallback") {
				t.Errorf("usage missing flags:\n%s", out.String())
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly.
func TestExecute_DryRun(t *testing.T) {
	out := capture(t)
	err := Execute(context.Background(), []string{
		"--listen", "127.0.0.1:25570", "--min-protocol", "340", "--dry-run",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "configuration OK") || !strings.Contains(got, "127.0.0.1:25570") {
		t.Errorf("summary = %q", got)
	}
	if strings.Contains(got, "1.8.9") || !strings.Contains(got, "1.12.2 1.14.4") {
		t.Errorf("version list ignores --min-protocol: %q", got)
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"fallback", []string{"--block-fallback", "stone"}, "block-fallback"},
		{"range", []string{"--min-protocol", "600"}, "min-protocol"},
		{"secret", []string{"--link-secret", "short"}, "link-secret"},
		{"tunnel", []string{"-T", "user@host:0"}, "tunnel"},
		{"keepalive", []string{"--keepalive-interval", "20s", "--keepalive-timeout", "10s"}, "keepalive-timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture(t)
			err := Execute(context.Background(), append(tt.args, "--dry-run"))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should name %q", err, tt.want)
			}
		})
	}
}

// TestExecute_InvalidFlags verifies unknown flags and stray arguments
// produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	for _, args := range [][]string{{"--nonexistent-flag"}, {"localhost"}} {
		if err := Execute(context.Background(), args); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

// TestResolve_Precedence verifies flags beat the environment, which
// beats the config file, which beats the defaults.
func TestResolve_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcproxy.conf")
	doc := "[proxy]\nmotd = from file\nmax-players = 7\nthreshold = 128\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MCPROXY_MAX_PLAYERS", "9")
	t.Setenv("MCPROXY_THRESHOLD", "64")

	cfg, opts, err := resolve([]string{"--config", path, "--threshold", "32"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.configFile != path || cfg.ConfigFile != path {
		t.Errorf("config file = %q / %q", opts.configFile, cfg.ConfigFile)
	}
	if cfg.MOTD != "from file" {
		t.Errorf("motd = %q, want the file value", cfg.MOTD)
	}
	if cfg.MaxPlayers != 9 {
		t.Errorf("max players = %d, want the env value", cfg.MaxPlayers)
	}
	if cfg.Threshold != 32 {
		t.Errorf("threshold = %d, want the flag value", cfg.Threshold)
	}
	if cfg.Listen != ":25565" {
		t.Errorf("listen = %q, want the default", cfg.Listen)
	}
}

// TestResolve_ConfigFromEnv verifies MCPROXY_CONFIG names the file.
func TestResolve_ConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcproxy.conf")
	if err := os.WriteFile(path, []byte("[backend]\naddress = 10.0.0.5:8483\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MCPROXY_CONFIG", path)

	cfg, _, err := resolve(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "10.0.0.5:8483" {
		t.Errorf("backend = %q", cfg.Backend)
	}
}

// TestResolve_Tunnel verifies the gateway flag fills the tunnel fields.
func TestResolve_Tunnel(t *testing.T) {
	cfg, _, err := resolve([]string{"-T", "deploy@bastion:2200", "-vv"})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.TunnelEnabled || cfg.TunnelHost != "bastion" || cfg.TunnelPort != 2200 {
		t.Errorf("tunnel fields: %+v", cfg)
	}
	if cfg.Verbose != 2 {
		t.Errorf("verbose = %d", cfg.Verbose)
	}
}

// TestResolve_BadFile verifies an unreadable config file is reported.
func TestResolve_BadFile(t *testing.T) {
	_, _, err := resolve([]string{"--config", filepath.Join(t.TempDir(), "missing.conf")})
	if err == nil || !strings.Contains(err.Error(), "configuration file") {
		t.Errorf("err = %v", err)
	}
}
