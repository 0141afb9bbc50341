package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gcfg.v1"
)

// An example file:
//
//	[proxy]
//	listen = :25565
//	min-protocol = 47
//	threshold = 256
//	encryption = true
//	keepalive-interval = 10s
//	block-fallback = nearest
//	motd = "Welcome"
//
//	[backend]
//	address = 10.0.0.5:8483
//	link-secret = 0123456789abcdef
//	warm-links = 4
//
//	[tunnel]
//	gateway = deploy@bastion:2222
//	ssh-agent = true
//
//	[metrics]
//	address = 127.0.0.1:9100

// fileDuration is a duration in Go syntax.
type fileDuration struct {
	time.Duration
}

func (d *fileDuration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type fileConfig struct {
	Proxy struct {
		Listen            string
		MinProtocol       int `gcfg:"min-protocol"`
		MaxProtocol       int `gcfg:"max-protocol"`
		Threshold         int
		Encryption        bool
		KeepAliveInterval fileDuration `gcfg:"keepalive-interval"`
		KeepAliveTimeout  fileDuration `gcfg:"keepalive-timeout"`
		LoginTimeout      fileDuration `gcfg:"login-timeout"`
		BlockFallback     string       `gcfg:"block-fallback"`
		MaxPacketSize     int          `gcfg:"max-packet-size"`
		MOTD              string       `gcfg:"motd"`
		MaxPlayers        int          `gcfg:"max-players"`
		GracePeriod       fileDuration `gcfg:"grace-period"`
	}
	Backend struct {
		Address         string
		Threshold       int
		LinkSecret      string       `gcfg:"link-secret"`
		DialAttempts    int          `gcfg:"dial-attempts"`
		DialTimeout     fileDuration `gcfg:"dial-timeout"`
		WarmLinks       int          `gcfg:"warm-links"`
		BreakerFailures int          `gcfg:"breaker-failures"`
		BreakerOpenFor  fileDuration `gcfg:"breaker-open-for"`
	}
	Tunnel struct {
		Gateway       string
		SSHKey        string       `gcfg:"ssh-key"`
		SSHAgent      bool         `gcfg:"ssh-agent"`
		StrictHostKey bool         `gcfg:"strict-hostkey"`
		KnownHosts    string       `gcfg:"known-hosts"`
		KeepAlive     fileDuration `gcfg:"keepalive"`
	}
	Metrics struct {
		Address string
	}
	Log struct {
		Verbose int
	}
}

// LoadFile overlays the gcfg file at path onto cfg. Keys the file does
// not mention keep their current value.
func LoadFile(cfg *Config, path string) error {
	err := overlay(cfg, func(fc *fileConfig) error { return gcfg.ReadFileInto(fc, path) })
	if err != nil {
		return fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	return nil
}

// LoadString is LoadFile for an in-memory document.
func LoadString(cfg *Config, doc string) error {
	return overlay(cfg, func(fc *fileConfig) error { return gcfg.ReadStringInto(fc, doc) })
}

func overlay(cfg *Config, read func(*fileConfig) error) error {
	fc := toFile(cfg)
	if err := read(fc); err != nil {
		return filterGcfgError(err)
	}
	fromFile(cfg, fc)
	return nil
}

// filterGcfgError makes gcfg's messages for unknown sections and keys
// easier to act on.
func filterGcfgError(err error) error {
	const phrase = "can't store data at"
	if err != nil && strings.Contains(err.Error(), phrase) {
		return errors.New(strings.Replace(err.Error(), phrase, "unsupported or misspelled", 1))
	}
	return err
}

func toFile(c *Config) *fileConfig {
	fc := &fileConfig{}
	p := &fc.Proxy
	p.Listen = c.Listen
	p.MinProtocol, p.MaxProtocol = c.MinProtocol, c.MaxProtocol
	p.Threshold = c.Threshold
	p.Encryption = c.Encryption
	p.KeepAliveInterval.Duration = c.KeepAliveInterval
	p.KeepAliveTimeout.Duration = c.KeepAliveTimeout
	p.LoginTimeout.Duration = c.LoginTimeout
	p.BlockFallback = c.Fallback
	p.MaxPacketSize = c.MaxPacketSize
	p.MOTD = c.MOTD
	p.MaxPlayers = c.MaxPlayers
	p.GracePeriod.Duration = c.GracePeriod

	b := &fc.Backend
	b.Address = c.Backend
	b.Threshold = c.BackendThreshold
	b.LinkSecret = c.LinkSecret
	b.DialAttempts = c.DialAttempts
	b.DialTimeout.Duration = c.DialTimeout
	b.WarmLinks = c.WarmLinks
	b.BreakerFailures = c.BreakerFailures
	b.BreakerOpenFor.Duration = c.BreakerOpenFor

	t := &fc.Tunnel
	t.Gateway = c.TunnelSpec
	t.SSHKey = c.SSHKeyPath
	t.SSHAgent = c.UseSSHAgent
	t.StrictHostKey = c.StrictHostKey
	t.KnownHosts = c.KnownHostsPath
	t.KeepAlive.Duration = c.TunnelKeepAlive

	fc.Metrics.Address = c.MetricsAddr
	fc.Log.Verbose = c.Verbose
	return fc
}

func fromFile(c *Config, fc *fileConfig) {
	p := &fc.Proxy
	c.Listen = p.Listen
	c.MinProtocol, c.MaxProtocol = p.MinProtocol, p.MaxProtocol
	c.Threshold = p.Threshold
	c.Encryption = p.Encryption
	c.KeepAliveInterval = p.KeepAliveInterval.Duration
	c.KeepAliveTimeout = p.KeepAliveTimeout.Duration
	c.LoginTimeout = p.LoginTimeout.Duration
	c.Fallback = p.BlockFallback
	c.MaxPacketSize = p.MaxPacketSize
	c.MOTD = p.MOTD
	c.MaxPlayers = p.MaxPlayers
	c.GracePeriod = p.GracePeriod.Duration

	b := &fc.Backend
	c.Backend = b.Address
	c.BackendThreshold = b.Threshold
	c.LinkSecret = b.LinkSecret
	c.DialAttempts = b.DialAttempts
	c.DialTimeout = b.DialTimeout.Duration
	c.WarmLinks = b.WarmLinks
	c.BreakerFailures = b.BreakerFailures
	c.BreakerOpenFor = b.BreakerOpenFor.Duration

	t := &fc.Tunnel
	c.TunnelSpec = t.Gateway
	c.SSHKeyPath = t.SSHKey
	c.UseSSHAgent = t.SSHAgent
	c.StrictHostKey = t.StrictHostKey
	c.KnownHostsPath = t.KnownHosts
	c.TunnelKeepAlive = t.KeepAlive.Duration

	c.MetricsAddr = fc.Metrics.Address
	c.Verbose = fc.Log.Verbose
}
