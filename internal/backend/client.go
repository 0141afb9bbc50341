package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/puddle/v2"

	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/retry"
	"mcproxy/internal/transport"
	"mcproxy/util"
)

// Config describes how sessions reach the backend.
type Config struct {
	Addr string
	Link LinkConfig
	// Attempts bounds dial attempts per Connect.
	Attempts int
	// Warm is the number of pre-dialed sockets kept ready. Zero disables
	// the warm pool.
	Warm int
	// Breaker trips after this many consecutive failed connects.
	BreakerFailures uint32
	BreakerOpenFor  time.Duration
}

// Client opens links to the backend. It is shared by all sessions; every
// Link it returns belongs to exactly one of them.
type Client struct {
	cfg     Config
	dialer  transport.Dialer
	backoff *retry.Backoff
	breaker *retry.Breaker[*Link]
	pool    *puddle.Pool[net.Conn]
	logger  *util.Logger
}

// NewClient prepares a client. No socket is opened until Connect or Warm.
func NewClient(cfg Config, dialer transport.Dialer, logger *util.Logger) (*Client, error) {
	if cfg.Addr == "" {
		return nil, &ncerr.ConfigError{Field: "backend", Message: "backend address is required"}
	}
	c := &Client{
		cfg:     cfg,
		dialer:  dialer,
		backoff: retry.DialBackoff(cfg.Attempts),
		logger:  logger,
	}
	c.backoff.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Verbose("backend dial attempt %d failed: %v (retrying in %s)", attempt, err, wait.Round(time.Millisecond))
	}
	c.breaker = retry.NewBreaker[*Link](&retry.BreakerConfig{
		Name:        "backend",
		MaxFailures: cfg.BreakerFailures,
		OpenFor:     cfg.BreakerOpenFor,
		// A backend that answered and refused the player is up.
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, ErrRejected) },
		OnStateChange: func(name, from, to string) {
			logger.Warn("%s circuit %s -> %s", name, from, to)
		},
	})

	if cfg.Warm > 0 {
		pool, err := puddle.NewPool(&puddle.Config[net.Conn]{
			Constructor: func(ctx context.Context) (net.Conn, error) {
				return c.dial(ctx)
			},
			Destructor: func(conn net.Conn) {
				conn.Close() //nolint:errcheck
			},
			MaxSize: int32(cfg.Warm),
		})
		if err != nil {
			return nil, err
		}
		c.pool = pool
	}
	return c, nil
}

// Warm fills the warm pool. Failures are logged, not returned: sessions
// fall back to dialing on demand.
func (c *Client) Warm(ctx context.Context) {
	if c.pool == nil {
		return
	}
	for i := c.pool.Stat().TotalResources(); i < int32(c.cfg.Warm); i++ {
		if err := c.pool.CreateResource(ctx); err != nil {
			c.logger.Verbose("warming backend pool: %v", err)
			return
		}
	}
}

// Connect opens a link for one player. Dial failures are retried with
// backoff; a refused hello is not. While the breaker is open Connect
// fails immediately with an error wrapping ErrCircuitOpen.
func (c *Client) Connect(ctx context.Context, id Identity) (*Link, error) {
	return c.breaker.Execute(func() (*Link, error) {
		var link *Link
		err := c.backoff.Do(ctx, func(attempt int) error {
			conn, err := c.acquire(ctx)
			if err != nil {
				return ncerr.Link("dial", c.cfg.Addr, err)
			}
			link, err = Open(conn, c.cfg.Link, id)
			if errors.Is(err, ErrRejected) {
				return retry.Permanent(err)
			}
			return err
		})
		return link, err
	})
}

// BreakerState reports "closed", "open" or "half-open".
func (c *Client) BreakerState() string { return c.breaker.State() }

// Close drains the warm pool. Links already handed out are unaffected.
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	conn, err := c.dialer.Dial(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		return nil, ncerr.Wrap("dial", c.cfg.Addr, err)
	}
	return conn, nil
}

// acquire takes a warm socket out of the pool, or dials a fresh one. A
// warm socket is hijacked so the pool forgets it, and a replacement is
// dialed in the background.
func (c *Client) acquire(ctx context.Context) (net.Conn, error) {
	if c.pool == nil {
		return c.dial(ctx)
	}
	res, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("warm pool: %w", err)
	}
	conn := res.Value()
	res.Hijack()
	go c.Warm(context.Background())
	return conn, nil
}
