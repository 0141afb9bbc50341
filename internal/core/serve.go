package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"mcproxy/config"
	"mcproxy/internal/backend"
	"mcproxy/internal/metrics"
	"mcproxy/internal/proxy"
	"mcproxy/internal/transport"
	"mcproxy/util"
)

// ServeMode accepts client connections and runs one proxy session per
// connection until ctx is cancelled.
type ServeMode struct {
	Address     string // client-facing listen address
	Manager     *proxy.Manager
	Backend     *backend.Client
	Dialer      transport.Dialer
	Metrics     *metrics.Collector
	MetricsAddr string // empty: no diagnostic endpoint
	Grace       time.Duration
	Logger      *util.Logger
}

// gateway is implemented by dialers that hold a long-lived connection
// worth opening before the first player arrives.
type gateway interface {
	Connect(ctx context.Context) error
}

// Run listens, serves sessions and, on cancellation, waits up to Grace
// for them to send their disconnects. The backend client and dialer are
// closed when Run returns.
func (m *ServeMode) Run(ctx context.Context) error {
	defer m.Dialer.Close() //nolint:errcheck
	defer m.Backend.Close()

	if g, ok := m.Dialer.(gateway); ok {
		if err := g.Connect(ctx); err != nil {
			return fmt.Errorf("backend gateway: %w", err)
		}
	}

	ln, err := net.Listen("tcp", m.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", m.Address, err)
	}
	defer ln.Close()

	if m.MetricsAddr != "" {
		stop, err := m.serveMetrics()
		if err != nil {
			return err
		}
		defer stop()
	}

	m.Logger.Info("listening on %s", ln.Addr())
	go m.Backend.Warm(ctx)

	// Shut the listener down when the context expires.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer m.drain(&wg)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Manager.Run(ctx, conn) //nolint:errcheck
		}()
	}
}

// drain waits for open sessions, giving up after the grace period.
func (m *ServeMode) drain(wg *sync.WaitGroup) {
	grace := m.Grace
	if grace <= 0 {
		grace = config.DefaultGracePeriod
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.Logger.Verbose("all sessions closed")
	case <-time.After(grace):
		m.Logger.Warn("%d sessions still open after %s", m.Metrics.ActiveSessions(), grace)
	}
	m.Logger.Verbose("final counters: %s", m.Metrics.JSON())
}

// serveMetrics starts the diagnostic endpoint and returns its shutdown
// function.
func (m *ServeMode) serveMetrics() (func(), error) {
	ln, err := net.Listen("tcp", m.MetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen on %s: %w", m.MetricsAddr, err)
	}
	srv := &http.Server{
		Handler:           metrics.Handler(m.Metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.Logger.Error("metrics server: %v", err)
		}
	}()
	m.Logger.Verbose("metrics on http://%s/metrics", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx) //nolint:errcheck
	}, nil
}
