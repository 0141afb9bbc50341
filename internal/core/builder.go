package core

import (
	"fmt"
	"os"

	"mcproxy/config"
	"mcproxy/internal/backend"
	"mcproxy/internal/codec"
	"mcproxy/internal/metrics"
	"mcproxy/internal/proxy"
	"mcproxy/internal/registry"
	"mcproxy/internal/transport"
	"mcproxy/tunnel"
	"mcproxy/util"
)

// Build constructs the appropriate Mode from a validated configuration.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	codecs, err := buildCodecs(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Probe != "" {
		return buildProbe(cfg, codecs, logger)
	}
	return buildServe(cfg, codecs, logger)
}

// ── mode builders ────────────────────────────────────────────────────

func buildServe(cfg *config.Config, codecs *codec.Set, logger *util.Logger) (Mode, error) {
	m := metrics.New()
	dialer := buildDialer(cfg, logger, m)

	client, err := backend.NewClient(backend.Config{
		Addr: cfg.Backend,
		Link: backend.LinkConfig{
			Threshold:        cfg.BackendThreshold,
			Secret:           []byte(cfg.LinkSecret),
			MaxPacketSize:    cfg.MaxPacketSize,
			HandshakeTimeout: backend.DefaultHandshakeTimeout,
		},
		Attempts:        cfg.DialAttempts,
		Warm:            cfg.WarmLinks,
		BreakerFailures: uint32(cfg.BreakerFailures),
		BreakerOpenFor:  cfg.BreakerOpenFor,
	}, dialer, logger.Named("backend"))
	if err != nil {
		dialer.Close() //nolint:errcheck
		return nil, err
	}

	mgr, err := proxy.NewManager(proxy.Config{
		Threshold:         cfg.Threshold,
		MaxPacketSize:     cfg.MaxPacketSize,
		Encryption:        cfg.Encryption,
		KeepAliveInterval: cfg.KeepAliveInterval,
		KeepAliveTimeout:  cfg.KeepAliveTimeout,
		LoginTimeout:      cfg.LoginTimeout,
		MOTD:              cfg.MOTD,
		MaxPlayers:        cfg.MaxPlayers,
	}, codecs, client, logger, m)
	if err != nil {
		client.Close()
		dialer.Close() //nolint:errcheck
		return nil, err
	}

	return &ServeMode{
		Address:     cfg.Listen,
		Manager:     mgr,
		Backend:     client,
		Dialer:      dialer,
		Metrics:     m,
		MetricsAddr: cfg.MetricsAddr,
		Grace:       cfg.GracePeriod,
		Logger:      logger,
	}, nil
}

func buildProbe(cfg *config.Config, codecs *codec.Set, logger *util.Logger) (Mode, error) {
	c := codecs.Latest()
	if cfg.MaxProtocol > 0 {
		if bound, ok := codecs.ForProtocol(int32(cfg.MaxProtocol)); ok {
			c = bound
		}
	}
	if c == nil {
		return nil, fmt.Errorf("probe: no codec enabled (%s)", codecs.Range())
	}
	return &ProbeMode{
		Dialer:  &transport.TCPDialer{Timeout: cfg.ProbeTimeout},
		Address: cfg.Probe,
		Codec:   c,
		Timeout: cfg.ProbeTimeout,
		Out:     os.Stdout,
		Logger:  logger,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

func buildCodecs(cfg *config.Config) (*codec.Set, error) {
	fb, err := cfg.FallbackPolicy()
	if err != nil {
		return nil, err
	}
	return codec.NewSet(registry.Default(), codec.Options{
		Fallback:    fb,
		MinProtocol: int32(cfg.MinProtocol),
		MaxProtocol: int32(cfg.MaxProtocol),
	}), nil
}

// buildDialer creates the transport.Dialer the backend client uses.
func buildDialer(cfg *config.Config, logger *util.Logger, m *metrics.Collector) transport.Dialer {
	opts := transport.Options{
		Timeout: cfg.DialTimeout,
		Metrics: m,
	}
	if cfg.TunnelEnabled {
		opts.Gateway = &tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.DialTimeout,
			KeepAlive:     cfg.TunnelKeepAlive,
		}
	}
	return transport.New(opts, logger.Named("transport"))
}
