package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcproxy"

// Register exports c through reg. Values are read from the collector at
// scrape time, so nothing on the session path touches Prometheus.
func Register(reg prometheus.Registerer, c *Collector) {
	factory := promauto.With(reg)

	gauge := func(name, help string, fn func() int64) {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(fn()) })
	}
	counter := func(name, help string, labels prometheus.Labels, fn func() int64) {
		factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(fn()) })
	}

	gauge("sessions_active", "Client sessions currently open.", c.ActiveSessions)
	counter("sessions_total", "Client sessions accepted.", nil, c.TotalSessions)
	for _, o := range Outcomes() {
		o := o
		counter("sessions_closed_total", "Client sessions closed, by outcome.",
			prometheus.Labels{"outcome": o.String()}, func() int64 { return c.Closed(o) })
	}
	counter("protocol_violations_total", "Packets rejected as illegal for the connection state.", nil, c.Violations)
	counter("keepalive_timeouts_total", "Sessions closed for an unanswered keep-alive.", nil, c.Timeouts)
	counter("translation_gaps_total", "Packets or fields dropped in version translation.", nil, c.Gaps)
	gauge("tracked_chunks", "Chunks currently loaded on clients.", c.TrackedChunks)
	gauge("tracked_entities", "Entities currently known to clients.", c.TrackedEntities)
	counter("client_bytes_received_total", "Bytes read from clients.", nil, c.TotalBytesIn)
	counter("client_bytes_sent_total", "Bytes written to clients.", nil, c.TotalBytesOut)
	counter("tunnel_reconnects_total", "SSH gateway reconnections.", nil, c.TunnelReconnects)
	counter("errors_total", "Session errors.", nil, c.ErrorCount)
}

// Handler returns the diagnostic mux: /metrics for Prometheus and
// /debug/vars for the JSON snapshot.
func Handler(c *Collector) http.Handler {
	reg := prometheus.NewRegistry()
	Register(reg, c)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/vars", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(c.JSON())) //nolint:errcheck
	})
	return mux
}
