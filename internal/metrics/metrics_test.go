package metrics

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCollector_Sessions(t *testing.T) {
	c := New()

	c.SessionOpened()
	c.SessionOpened()
	if c.ActiveSessions() != 2 {
		t.Errorf("active = %d, want 2", c.ActiveSessions())
	}
	if c.TotalSessions() != 2 {
		t.Errorf("total = %d, want 2", c.TotalSessions())
	}

	c.SessionClosed(OutcomeViolation)
	if c.ActiveSessions() != 1 {
		t.Errorf("active = %d, want 1", c.ActiveSessions())
	}
	if c.TotalSessions() != 2 {
		t.Errorf("total should remain 2, got %d", c.TotalSessions())
	}
	if c.Closed(OutcomeViolation) != 1 {
		t.Errorf("violation outcomes = %d, want 1", c.Closed(OutcomeViolation))
	}
	if c.Closed(OutcomeNormal) != 0 {
		t.Errorf("normal outcomes = %d, want 0", c.Closed(OutcomeNormal))
	}
}

func TestCollector_UnknownOutcomeCountsAsError(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.SessionClosed(Outcome(200))
	if c.Closed(OutcomeError) != 1 {
		t.Errorf("error outcomes = %d, want 1", c.Closed(OutcomeError))
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{OutcomeNormal, "normal"},
		{OutcomeViolation, "violation"},
		{OutcomeTimeout, "timeout"},
		{OutcomeFraming, "framing"},
		{OutcomeBackend, "backend"},
		{OutcomeError, "error"},
		{Outcome(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}

func TestCollector_ProtocolCounters(t *testing.T) {
	c := New()
	c.Violation()
	c.Timeout()
	c.Timeout()
	c.Gap()
	c.Gap()
	c.Gap()

	if c.Violations() != 1 {
		t.Errorf("violations = %d, want 1", c.Violations())
	}
	if c.Timeouts() != 2 {
		t.Errorf("timeouts = %d, want 2", c.Timeouts())
	}
	if c.Gaps() != 3 {
		t.Errorf("gaps = %d, want 3", c.Gaps())
	}
}

func TestCollector_Tracking(t *testing.T) {
	c := New()
	c.TrackChunks(49)
	c.TrackEntities(3)
	c.TrackChunks(-9)
	c.TrackEntities(-3)

	if c.TrackedChunks() != 40 {
		t.Errorf("chunks = %d, want 40", c.TrackedChunks())
	}
	if c.TrackedEntities() != 0 {
		t.Errorf("entities = %d, want 0", c.TrackedEntities())
	}
}

func TestCollector_Bytes(t *testing.T) {
	c := New()

	c.BytesReceived(1024)
	c.BytesSent(512)
	c.BytesReceived(100)

	if c.TotalBytesIn() != 1124 {
		t.Errorf("bytes in = %d, want 1124", c.TotalBytesIn())
	}
	if c.TotalBytesOut() != 512 {
		t.Errorf("bytes out = %d, want 512", c.TotalBytesOut())
	}
}

func TestCollector_TunnelReconnects(t *testing.T) {
	c := New()

	c.TunnelReconnect()
	c.TunnelReconnect()
	c.TunnelReconnect()

	if c.TunnelReconnects() != 3 {
		t.Errorf("reconnects = %d, want 3", c.TunnelReconnects())
	}
}

func TestCollector_Errors(t *testing.T) {
	c := New()

	c.RecordError("first error")
	c.RecordError("second error")

	if c.ErrorCount() != 2 {
		t.Errorf("errors = %d, want 2", c.ErrorCount())
	}
}

func TestCollector_Snapshot(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed(OutcomeTimeout)
	c.BytesReceived(100)
	c.RecordError("test")

	snap := c.Snapshot()
	if snap.SessionsActive != 1 {
		t.Errorf("snap active = %d", snap.SessionsActive)
	}
	if snap.SessionsClosed["timeout"] != 1 {
		t.Errorf("snap timeout outcomes = %d", snap.SessionsClosed["timeout"])
	}
	if len(snap.SessionsClosed) != len(Outcomes()) {
		t.Errorf("snap outcomes = %v", snap.SessionsClosed)
	}
	if snap.BytesIn != 100 {
		t.Errorf("snap bytes in = %d", snap.BytesIn)
	}
	if snap.LastErrorMessage != "test" {
		t.Errorf("snap error msg = %q", snap.LastErrorMessage)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.TrackChunks(7)

	raw := c.JSON()
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.SessionsActive != 1 {
		t.Errorf("JSON active = %d", snap.SessionsActive)
	}
	if snap.TrackedChunks != 7 {
		t.Errorf("JSON chunks = %d", snap.TrackedChunks)
	}
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.SessionOpened()
	c.SessionClosed(OutcomeNormal)
	c.Violation()
	c.Timeout()
	c.Gap()
	c.TrackChunks(1)
	c.TrackEntities(1)
	c.BytesReceived(100)
	c.BytesSent(100)
	c.TunnelReconnect()
	c.RecordError("test")

	if c.ActiveSessions() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.Closed(OutcomeNormal) != 0 {
		t.Error("nil collector should return 0")
	}
	if c.TrackedChunks() != 0 {
		t.Error("nil collector should return 0")
	}

	snap := c.Snapshot()
	if snap.SessionsActive != 0 {
		t.Error("nil snapshot should be zero")
	}

	j := c.JSON()
	if j == "" {
		t.Error("nil JSON should return valid JSON")
	}
}

func get(t *testing.T, h http.Handler, path string) string {
	t.Helper()
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestHandler_Prometheus(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.SessionClosed(OutcomeBackend)
	c.Gap()
	c.TrackEntities(4)

	body := get(t, Handler(c), "/metrics")
	for _, want := range []string{
		"mcproxy_sessions_total 1",
		`mcproxy_sessions_closed_total{outcome="backend"} 1`,
		`mcproxy_sessions_closed_total{outcome="normal"} 0`,
		"mcproxy_translation_gaps_total 1",
		"mcproxy_tracked_entities 4",
		"mcproxy_sessions_active 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestHandler_DebugVars(t *testing.T) {
	c := New()
	c.Violation()

	body := get(t, Handler(c), "/debug/vars")
	var snap Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.Violations != 1 {
		t.Errorf("violations = %d, want 1", snap.Violations)
	}
}
