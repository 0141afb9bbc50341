// Package metrics provides lightweight, lock-free counters and gauges
// for tracking the proxy's sessions.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Outcome classifies how a session ended.
type Outcome uint8

const (
	OutcomeNormal    Outcome = iota // client or backend said goodbye
	OutcomeViolation                // protocol violation
	OutcomeTimeout                  // keep-alive not answered
	OutcomeFraming                  // stream could not be deframed
	OutcomeBackend                  // backend link failed or refused
	OutcomeError                    // anything else, including network resets

	outcomeCount
)

var outcomeNames = [outcomeCount]string{"normal", "violation", "timeout", "framing", "backend", "error"}

func (o Outcome) String() string {
	if o >= outcomeCount {
		return "unknown"
	}
	return outcomeNames[o]
}

// Outcomes returns every outcome in order.
func Outcomes() []Outcome {
	out := make([]Outcome, outcomeCount)
	for i := range out {
		out[i] = Outcome(i)
	}
	return out
}

// Collector tracks runtime metrics for the proxy.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	sessionsActive atomic.Int64
	sessionsTotal  atomic.Int64
	outcomes       [outcomeCount]atomic.Int64

	violations atomic.Int64
	timeouts   atomic.Int64
	gaps       atomic.Int64

	chunks   atomic.Int64
	entities atomic.Int64

	bytesIn          atomic.Int64
	bytesOut         atomic.Int64
	tunnelReconnects atomic.Int64
	errorsTotal      atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Session metrics ──────────────────────────────────────────────────

// SessionOpened increments both the active and total counters.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(1)
	c.sessionsTotal.Add(1)
}

// SessionClosed decrements the active counter and records how the
// session ended.
func (c *Collector) SessionClosed(o Outcome) {
	if c == nil {
		return
	}
	c.sessionsActive.Add(-1)
	if o >= outcomeCount {
		o = OutcomeError
	}
	c.outcomes[o].Add(1)
}

// ActiveSessions returns the current number of open sessions.
func (c *Collector) ActiveSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsActive.Load()
}

// TotalSessions returns the lifetime session count.
func (c *Collector) TotalSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsTotal.Load()
}

// Closed returns how many sessions ended with outcome o.
func (c *Collector) Closed(o Outcome) int64 {
	if c == nil || o >= outcomeCount {
		return 0
	}
	return c.outcomes[o].Load()
}

// ── Protocol metrics ─────────────────────────────────────────────────

// Violation records a packet that was illegal in its state.
func (c *Collector) Violation() {
	if c == nil {
		return
	}
	c.violations.Add(1)
}

// Violations returns the total protocol violation count.
func (c *Collector) Violations() int64 {
	if c == nil {
		return 0
	}
	return c.violations.Load()
}

// Timeout records an unanswered keep-alive.
func (c *Collector) Timeout() {
	if c == nil {
		return
	}
	c.timeouts.Add(1)
}

// Timeouts returns the total keep-alive timeout count.
func (c *Collector) Timeouts() int64 {
	if c == nil {
		return 0
	}
	return c.timeouts.Load()
}

// Gap records a packet or field dropped in translation.
func (c *Collector) Gap() {
	if c == nil {
		return
	}
	c.gaps.Add(1)
}

// Gaps returns the total translation gap count.
func (c *Collector) Gaps() int64 {
	if c == nil {
		return 0
	}
	return c.gaps.Load()
}

// ── Tracking gauges ──────────────────────────────────────────────────

// TrackChunks adjusts the number of chunks loaded on clients by delta.
func (c *Collector) TrackChunks(delta int64) {
	if c == nil {
		return
	}
	c.chunks.Add(delta)
}

// TrackedChunks returns the number of chunks currently loaded on clients.
func (c *Collector) TrackedChunks() int64 {
	if c == nil {
		return 0
	}
	return c.chunks.Load()
}

// TrackEntities adjusts the number of entities known to clients by delta.
func (c *Collector) TrackEntities(delta int64) {
	if c == nil {
		return
	}
	c.entities.Add(delta)
}

// TrackedEntities returns the number of entities currently known to
// clients.
func (c *Collector) TrackedEntities() int64 {
	if c == nil {
		return 0
	}
	return c.entities.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from clients.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to clients.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Tunnel metrics ───────────────────────────────────────────────────

// TunnelReconnect records an SSH gateway reconnection.
func (c *Collector) TunnelReconnect() {
	if c == nil {
		return
	}
	c.tunnelReconnects.Add(1)
}

// TunnelReconnects returns the total tunnel reconnection count.
func (c *Collector) TunnelReconnects() int64 {
	if c == nil {
		return 0
	}
	return c.tunnelReconnects.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string           `json:"uptime"`
	SessionsActive   int64            `json:"sessions_active"`
	SessionsTotal    int64            `json:"sessions_total"`
	SessionsClosed   map[string]int64 `json:"sessions_closed"`
	Violations       int64            `json:"protocol_violations"`
	Timeouts         int64            `json:"keepalive_timeouts"`
	Gaps             int64            `json:"translation_gaps"`
	TrackedChunks    int64            `json:"tracked_chunks"`
	TrackedEntities  int64            `json:"tracked_entities"`
	BytesIn          int64            `json:"bytes_in"`
	BytesOut         int64            `json:"bytes_out"`
	TunnelReconnects int64            `json:"tunnel_reconnects"`
	ErrorsTotal      int64            `json:"errors_total"`
	LastError        string           `json:"last_error,omitempty"`
	LastErrorMessage string           `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:           time.Since(c.startTime).Truncate(time.Second).String(),
		SessionsActive:   c.sessionsActive.Load(),
		SessionsTotal:    c.sessionsTotal.Load(),
		SessionsClosed:   make(map[string]int64, outcomeCount),
		Violations:       c.violations.Load(),
		Timeouts:         c.timeouts.Load(),
		Gaps:             c.gaps.Load(),
		TrackedChunks:    c.chunks.Load(),
		TrackedEntities:  c.entities.Load(),
		BytesIn:          c.bytesIn.Load(),
		BytesOut:         c.bytesOut.Load(),
		TunnelReconnects: c.tunnelReconnects.Load(),
		ErrorsTotal:      c.errorsTotal.Load(),
	}
	for _, o := range Outcomes() {
		s.SessionsClosed[o.String()] = c.outcomes[o].Load()
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
