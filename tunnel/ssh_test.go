package tunnel

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	ncerr "mcproxy/internal/errors"
	"mcproxy/util"
)

// startGateway runs an SSH server on loopback that accepts any client
// and serves direct-tcpip channels, the way sshd forwards -L traffic.
func startGateway(t *testing.T) (host string, port int) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &ssh.ServerConfig{NoClientAuth: true}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go serveGateway(c, cfg)
		}
	}()
	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func serveGateway(c net.Conn, cfg *ssh.ServerConfig) {
	sconn, chans, reqs, err := ssh.NewServerConn(c, cfg)
	if err != nil {
		c.Close()
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		if nc.ChannelType() != "direct-tcpip" {
			nc.Reject(ssh.UnknownChannelType, "only direct-tcpip") //nolint:errcheck
			continue
		}
		var req struct {
			Host     string
			Port     uint32
			OrigHost string
			OrigPort uint32
		}
		if err := ssh.Unmarshal(nc.ExtraData(), &req); err != nil {
			nc.Reject(ssh.ConnectionFailed, err.Error()) //nolint:errcheck
			continue
		}
		target, err := net.Dial("tcp", net.JoinHostPort(req.Host, strconv.Itoa(int(req.Port))))
		if err != nil {
			nc.Reject(ssh.ConnectionFailed, err.Error()) //nolint:errcheck
			continue
		}
		ch, creqs, err := nc.Accept()
		if err != nil {
			target.Close()
			continue
		}
		go ssh.DiscardRequests(creqs)
		go func() {
			io.Copy(ch, target) //nolint:errcheck
			ch.Close()
		}()
		go func() {
			io.Copy(target, ch) //nolint:errcheck
			target.Close()
		}()
	}
}

// startEcho runs a line echo server standing in for the backend.
func startEcho(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				io.Copy(c, c) //nolint:errcheck
			}()
		}
	}()
	return ln.Addr().String()
}

func testTunnel(t *testing.T) *SSHTunnel {
	t.Helper()
	host, port := startGateway(t)
	key := filepath.Join(t.TempDir(), "id_test")
	writeTestKey(t, key)
	return NewSSHTunnel(&SSHConfig{
		User:        "mc",
		Host:        host,
		Port:        port,
		KeyPath:     key,
		ConnTimeout: 5 * time.Second,
	}, util.NewLogger(0))
}

func TestSSHTunnel_DialThroughGateway(t *testing.T) {
	backend := startEcho(t)
	tun := testTunnel(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tun.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer tun.Close()
	if !tun.IsAlive() {
		t.Fatal("tunnel should be alive after Connect")
	}

	conn, err := tun.Dial(ctx, "tcp", backend)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("hello backend\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != "hello backend\n" {
		t.Errorf("got %q", line)
	}
}

func TestSSHTunnel_DialBeforeConnect(t *testing.T) {
	tun := NewSSHTunnel(&SSHConfig{Host: "127.0.0.1"}, util.NewLogger(0))
	_, err := tun.Dial(context.Background(), "tcp", "127.0.0.1:1")
	if !errors.Is(err, ncerr.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestSSHTunnel_CloseMarksDead(t *testing.T) {
	tun := testTunnel(t)
	if err := tun.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := tun.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if tun.IsAlive() {
		t.Error("tunnel should be dead after Close")
	}
	if err := tun.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSSHTunnel_GatewayDown(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	key := filepath.Join(t.TempDir(), "id_test")
	writeTestKey(t, key)
	tun := NewSSHTunnel(&SSHConfig{Host: "127.0.0.1", Port: port, KeyPath: key}, util.NewLogger(0))

	err = tun.Connect(context.Background())
	var ne *ncerr.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestParseGateway(t *testing.T) {
	tests := []struct {
		spec    string
		user    string
		host    string
		port    int
		wantErr bool
	}{
		{"mc@bastion.example.com", "mc", "bastion.example.com", 22, false},
		{"mc@bastion:2222", "mc", "bastion", 2222, false},
		{"bastion", "", "bastion", 22, false},
		{"ops@[::1]:22", "ops", "::1", 22, false},
		{"", "", "", 0, true},
		{"@bastion", "", "", 0, true},
		{"mc@bastion:0", "", "", 0, true},
		{"mc@:22", "", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			var cfg SSHConfig
			err := ParseGateway(tt.spec, &cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGateway: %v", err)
			}
			if cfg.User != tt.user || cfg.Host != tt.host || cfg.Port != tt.port {
				t.Errorf("got %s@%s:%d, want %s@%s:%d", cfg.User, cfg.Host, cfg.Port, tt.user, tt.host, tt.port)
			}
		})
	}
}
