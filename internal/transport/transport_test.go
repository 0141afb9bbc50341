package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"mcproxy/tunnel"
	"mcproxy/util"
)

// TestTCPDialer_Connect verifies that TCPDialer can reach a local
// TCP server and exchange data.
func TestTCPDialer_Connect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("MCPX")) //nolint:errcheck
	}()

	d := &TCPDialer{Timeout: 2 * time.Second}
	conn, err := d.Dial(context.Background(), "tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 4)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != "MCPX" {
		t.Errorf("got %q, want %q", buf, "MCPX")
	}
}

// TestTCPDialer_ContextCancel verifies that a cancelled context stops the dial.
func TestTCPDialer_ContextCancel(t *testing.T) {
	d := &TCPDialer{Timeout: 5 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dial(ctx, "tcp", "127.0.0.1:1")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

// TestTCPDialer_Refused verifies a closed port fails fast.
func TestTCPDialer_Refused(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	d := &TCPDialer{Timeout: time.Second}
	if _, err := d.Dial(context.Background(), "tcp", util.FormatAddr("127.0.0.1", port)); err == nil {
		t.Fatal("expected connection refused")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNew(t *testing.T) {
	logger := util.NewLogger(0)
	if _, ok := New(Options{Timeout: time.Second}, logger).(*TCPDialer); !ok {
		t.Error("expected a TCP dialer without a gateway")
	}
	d, ok := New(Options{Gateway: &tunnel.SSHConfig{Host: "bastion"}}, logger).(*SSHDialer)
	if !ok {
		t.Fatal("expected an SSH dialer with a gateway")
	}
	if d.config.Port != 22 {
		t.Errorf("gateway port defaulted to %d, want 22", d.config.Port)
	}
}

func TestSSHDialer_ClosedRefusesDials(t *testing.T) {
	d := NewSSHDialer(&tunnel.SSHConfig{Host: "127.0.0.1"}, util.NewLogger(0))
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, err := d.Dial(context.Background(), "tcp", "127.0.0.1:8483")
	if !errors.Is(err, net.ErrClosed) {
		t.Fatalf("expected net.ErrClosed, got %v", err)
	}
}
