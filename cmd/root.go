// Package cmd wires up the CLI flags and dispatches to the proxy core.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"mcproxy/config"
	"mcproxy/internal/core"
	"mcproxy/internal/registry"
	"mcproxy/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X mcproxy/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// stdout is where --help, --version and --dry-run write.
var stdout io.Writer = os.Stdout //nolint:gochecknoglobals

// options are the flags that steer the command rather than the proxy.
type options struct {
	configFile  string
	quiet       bool
	dryRun      bool
	showVersion bool
	showHelp    bool
}

// Execute parses args and runs the proxy or a probe.
func Execute(ctx context.Context, args []string) error {
	cfg, opts, err := resolve(args)
	if err != nil {
		return err
	}
	if opts == nil {
		return nil
	}

	if opts.dryRun {
		printSummary(cfg)
		return nil
	}

	level := cfg.Verbose + 1
	if opts.quiet {
		level = 0
	}
	logger := util.NewLogger(level)

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// resolve builds the effective configuration. Sources are layered
// defaults < config file < environment < flags. A nil options with a
// nil error means help or version was printed.
func resolve(args []string) (*config.Config, *options, error) {
	// First pass: locate the config file and the informational flags.
	// Every flag is defined so the pass rejects unknown ones.
	first := &options{}
	fs := newFlagSet(config.Default(), first)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if first.showHelp {
		printUsage(fs)
		return nil, nil, nil
	}
	if first.showVersion {
		fmt.Fprintf(stdout, "mcproxy %s (%s)\n", version, versionRange())
		return nil, nil, nil
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}

	cfg := config.Default()
	path := first.configFile
	if path == "" {
		path = os.Getenv("MCPROXY_CONFIG")
	}
	if path != "" {
		if err := config.LoadFile(cfg, path); err != nil {
			return nil, nil, err
		}
		cfg.ConfigFile = path
	}
	if err := config.LoadFromEnv(cfg); err != nil {
		return nil, nil, err
	}

	// Second pass: flags bound to the layered values, so only flags the
	// user actually passed override them.
	opts := &options{}
	fs = newFlagSet(cfg, opts)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	opts.configFile = cfg.ConfigFile

	if err := cfg.ResolveTunnel(); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, opts, nil
}

func newFlagSet(cfg *config.Config, opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("mcproxy", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	// ── client side ──────────────────────────────────────────────
	fs.StringVarP(&cfg.Listen, "listen", "l", cfg.Listen, "Client-facing listen address")
	fs.IntVar(&cfg.MinProtocol, "min-protocol", cfg.MinProtocol, "Lowest protocol number to accept (0: no bound)")
	fs.IntVar(&cfg.MaxProtocol, "max-protocol", cfg.MaxProtocol, "Highest protocol number to accept (0: no bound)")
	fs.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "Client compression threshold in bytes (-1: off)")
	fs.BoolVar(&cfg.Encryption, "encryption", cfg.Encryption, "Encrypt client connections")
	fs.DurationVar(&cfg.KeepAliveInterval, "keepalive-interval", cfg.KeepAliveInterval, "Keep-alive ping interval")
	fs.DurationVar(&cfg.KeepAliveTimeout, "keepalive-timeout", cfg.KeepAliveTimeout, "Unanswered keep-alive limit")
	fs.DurationVar(&cfg.LoginTimeout, "login-timeout", cfg.LoginTimeout, "Deadline for handshake and login")
	fs.StringVar(&cfg.Fallback, "block-fallback", cfg.Fallback, "Unknown block policy: nearest, air or reject")
	fs.IntVar(&cfg.MaxPacketSize, "max-packet-size", cfg.MaxPacketSize, "Largest accepted frame in bytes")
	fs.StringVar(&cfg.MOTD, "motd", cfg.MOTD, "Server list description")
	fs.IntVar(&cfg.MaxPlayers, "max-players", cfg.MaxPlayers, "Advertised player limit")

	// ── backend link ─────────────────────────────────────────────
	fs.StringVarP(&cfg.Backend, "backend", "b", cfg.Backend, "Backend link address")
	fs.IntVar(&cfg.BackendThreshold, "backend-threshold", cfg.BackendThreshold, "Link compression threshold (-1: off)")
	fs.StringVar(&cfg.LinkSecret, "link-secret", cfg.LinkSecret, "Shared secret for the backend link")
	fs.IntVar(&cfg.DialAttempts, "dial-attempts", cfg.DialAttempts, "Backend dial attempts per login")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "Timeout for one backend dial")
	fs.IntVar(&cfg.WarmLinks, "warm-links", cfg.WarmLinks, "Backend links kept open ahead of logins")
	fs.IntVar(&cfg.BreakerFailures, "breaker-failures", cfg.BreakerFailures, "Consecutive failures that open the backend circuit")
	fs.DurationVar(&cfg.BreakerOpenFor, "breaker-open-for", cfg.BreakerOpenFor, "How long an open circuit rejects logins")

	// ── SSH gateway ──────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Reach the backend via SSH [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")
	fs.DurationVar(&cfg.TunnelKeepAlive, "tunnel-keepalive", cfg.TunnelKeepAlive, "SSH keepalive interval")

	// ── operation ────────────────────────────────────────────────
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve /metrics and /debug/vars on this address")
	fs.DurationVar(&cfg.GracePeriod, "grace-period", cfg.GracePeriod, "Shutdown wait for open sessions")
	fs.StringVar(&cfg.Probe, "probe", cfg.Probe, "Query host[:port] like a server list and exit")
	fs.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "Deadline for --probe")
	fs.StringVarP(&opts.configFile, "config", "c", "", "Configuration file (gcfg)")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "Only print errors")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Validate the configuration and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&opts.showHelp, "help", "h", false, "Show this help")

	return fs
}

// ── helpers ──────────────────────────────────────────────────────────

func versionRange() string {
	return fmt.Sprintf("%s-%s", registry.Oldest(), registry.Latest())
}

func printSummary(cfg *config.Config) {
	fmt.Fprintf(stdout, "configuration OK\n")
	if cfg.ConfigFile != "" {
		fmt.Fprintf(stdout, "  file:     %s\n", cfg.ConfigFile)
	}
	if cfg.Probe != "" {
		fmt.Fprintf(stdout, "  probe:    %s (timeout %s)\n", cfg.Probe, cfg.ProbeTimeout)
		return
	}
	fmt.Fprintf(stdout, "  listen:   %s\n", cfg.Listen)
	fmt.Fprintf(stdout, "  backend:  %s\n", cfg.Backend)
	if cfg.TunnelEnabled {
		fmt.Fprintf(stdout, "  tunnel:   %s@%s:%d\n", cfg.TunnelUser, cfg.TunnelHost, cfg.TunnelPort)
	}
	fmt.Fprintf(stdout, "  versions:")
	for _, v := range registry.Supported() {
		if cfg.MinProtocol > 0 && int(v.Protocol) < cfg.MinProtocol {
			continue
		}
		if cfg.MaxProtocol > 0 && int(v.Protocol) > cfg.MaxProtocol {
			continue
		}
		fmt.Fprintf(stdout, " %s", v.Name)
	}
	fmt.Fprintln(stdout)
	if cfg.MetricsAddr != "" {
		fmt.Fprintf(stdout, "  metrics:  %s\n", cfg.MetricsAddr)
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(stdout, `mcproxy %s

Serves clients of every supported game version (%s) from one backend
that speaks the newest protocol.

Usage:
  mcproxy [options]                           Serve
  mcproxy --probe host[:port]                 Query a server's status

Options:
`, version, versionRange())
	fmt.Fprint(stdout, fs.FlagUsages())
	fmt.Fprintf(stdout, `
Every option can also be set in a --config file or through MCPROXY_*
environment variables; flags win over both.

Examples:
  mcproxy -b 10.0.0.5:8483 --link-secret $SECRET
  mcproxy --min-protocol 340 --encryption
  mcproxy -T deploy@bastion -b 10.1.0.7:8483  Backend behind SSH
  mcproxy --probe play.example.com
`)
}
