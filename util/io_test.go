package util

import (
	"fmt"
	"io"
	"net"
	"testing"
	"time"
)

func TestIsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"wrapped eof", fmt.Errorf("read: %w", io.EOF), true},
		{"closed", net.ErrClosed, true},
		{"op error", &net.OpError{Op: "read", Err: net.ErrClosed}, true},
		{"unexpected eof", io.ErrUnexpectedEOF, false},
		{"other", fmt.Errorf("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClosed(tt.err); got != tt.want {
				t.Errorf("IsClosed(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsDeadline(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	a.SetReadDeadline(time.Now().Add(10 * time.Millisecond)) //nolint:errcheck
	_, err := a.Read(make([]byte, 1))
	if !IsDeadline(err) {
		t.Errorf("expected deadline error, got %v", err)
	}
}
