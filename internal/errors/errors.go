// Package errors provides the error taxonomy shared by every mcproxy layer.
//
// Protocol failures are classified by what the session manager must do
// with them: framing and protocol errors end the session, translation gaps
// only drop the offending packet, and backend link errors tear the client
// down after telling it why. Dial, SSH and configuration failures keep
// their own structured types.
package errors

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrTunnelClosed    = errors.New("tunnel is closed")
	ErrNotConnected    = errors.New("not connected")
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTimeout         = errors.New("operation timed out")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrHostKeyMismatch = errors.New("host key mismatch")
	ErrSessionClosed   = errors.New("session is closed")
	ErrUnknownMapping  = errors.New("unknown registry mapping")
)

// ── Protocol error taxonomy ──────────────────────────────────────────

// FramingError reports a byte stream that can no longer be split into
// packets: a malformed length prefix, a compressed frame that inflates to
// the wrong size, or a desynchronised cipher.
type FramingError struct {
	Op  string // "length", "decompress", "compress", "cipher"
	Err error
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("framing %s: %v", e.Op, e.Err)
}

func (e *FramingError) Unwrap() error { return e.Err }

// ProtocolViolation reports a well-framed packet that the peer was not
// allowed to send.
type ProtocolViolation struct {
	State  string // connection phase when the packet arrived
	Packet string // packet kind or raw id, if known
	Reason string
}

func (e *ProtocolViolation) Error() string {
	if e.Packet == "" {
		return fmt.Sprintf("protocol violation in %s: %s", e.State, e.Reason)
	}
	return fmt.Sprintf("protocol violation in %s: %s: %s", e.State, e.Packet, e.Reason)
}

// TranslationGap reports a packet or field that has no representation in
// the protocol version on the other side.
type TranslationGap struct {
	Version string // client version name
	Packet  string // canonical kind
	Field   string // empty when the whole packet is missing
	Reason  string
}

func (e *TranslationGap) Error() string {
	what := e.Packet
	if e.Field != "" {
		what += "." + e.Field
	}
	return fmt.Sprintf("translation gap %s for %s: %s", what, e.Version, e.Reason)
}

// BackendLinkError reports a failure on the internal link to the backend.
type BackendLinkError struct {
	Op   string // "dial", "handshake", "send", "recv"
	Addr string
	Err  error
}

func (e *BackendLinkError) Error() string {
	return fmt.Sprintf("backend %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *BackendLinkError) Unwrap() error { return e.Err }

// TimeoutError reports a peer that did not answer in time.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no response after %s", e.Op, e.After)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op        string // operation: "dial", "listen", "accept", "write", "read"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether the caller should retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "channel"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// Framing creates a FramingError.
func Framing(op string, err error) *FramingError {
	return &FramingError{Op: op, Err: err}
}

// Violation creates a ProtocolViolation.
func Violation(state, packet, reason string) *ProtocolViolation {
	return &ProtocolViolation{State: state, Packet: packet, Reason: reason}
}

// Link creates a BackendLinkError.
func Link(op, addr string, err error) *BackendLinkError {
	return &BackendLinkError{Op: op, Addr: addr, Err: err}
}

// Escalate turns a translation gap on a packet the session cannot do
// without into a protocol violation. Other errors pass through.
func Escalate(state string, err error) error {
	var gap *TranslationGap
	if errors.As(err, &gap) {
		return &ProtocolViolation{State: state, Packet: gap.Packet, Reason: gap.Reason}
	}
	return err
}

// ── Classification helpers ───────────────────────────────────────────

// IsFatal reports whether err must end the session. Only translation
// gaps are recoverable.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var gap *TranslationGap
	return !errors.As(err, &gap)
}

// IsGap reports whether err is a TranslationGap.
func IsGap(err error) bool {
	var gap *TranslationGap
	return errors.As(err, &gap)
}

// Speakable reports whether the client stream is still aligned enough to
// carry a disconnect packet after err.
func Speakable(err error) bool {
	var ble *BackendLinkError
	if errors.As(err, &ble) {
		return true
	}
	var fe *FramingError
	if errors.As(err, &fe) {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return false
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, ErrSessionClosed) {
		return false
	}
	return true
}

// DisconnectReason returns the text shown to a player disconnected by err.
func DisconnectReason(err error) string {
	var (
		pv  *ProtocolViolation
		te  *TimeoutError
		ble *BackendLinkError
	)
	switch {
	case errors.As(err, &te):
		return "Timed out"
	case errors.As(err, &pv):
		return "Protocol error: " + pv.Reason
	case errors.As(err, &ble):
		return "Backend unavailable"
	default:
		return "Internal proxy error"
	}
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// IsTemporary reports whether err represents a temporary condition.
func IsTemporary(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return true
		}
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
