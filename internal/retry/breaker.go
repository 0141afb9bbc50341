package retry

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	ncerr "mcproxy/internal/errors"
)

// BreakerConfig configures a [Breaker].
type BreakerConfig struct {
	// Name identifies the guarded backend in state-change callbacks.
	Name string
	// MaxFailures is the number of consecutive failed operations that
	// opens the circuit (default 5).
	MaxFailures uint32
	// OpenFor is how long the circuit stays open before letting probes
	// through (default 10s).
	OpenFor time.Duration
	// Probes is the number of successful probes needed to close the
	// circuit again (default 1).
	Probes uint32
	// IsSuccessful decides whether an error still proves the backend
	// reachable. Nil counts every error as a failure.
	IsSuccessful func(error) bool
	// OnStateChange is called on every transition.
	OnStateChange func(name string, from, to string)
}

// Breaker short-circuits operations against a backend that keeps
// failing. It is safe for concurrent use by every session.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewBreaker creates a circuit breaker. A nil cfg uses the defaults.
func NewBreaker[T any](cfg *BreakerConfig) *Breaker[T] {
	if cfg == nil {
		cfg = &BreakerConfig{}
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openFor := cfg.OpenFor
	if openFor <= 0 {
		openFor = 10 * time.Second
	}
	probes := cfg.Probes
	if probes == 0 {
		probes = 1
	}
	st := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: probes,
		Timeout:     openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
	}
	if cfg.IsSuccessful != nil {
		isOK := cfg.IsSuccessful
		st.IsSuccessful = func(err error) bool { return err == nil || isOK(err) }
	}
	if cfg.OnStateChange != nil {
		notify := cfg.OnStateChange
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			notify(name, from.String(), to.String())
		}
	}
	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](st)}
}

// Execute runs fn unless the circuit is open, in which case it fails
// with an error wrapping [ncerr.ErrCircuitOpen] without calling fn.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return v, fmt.Errorf("%s: %w", b.cb.Name(), ncerr.ErrCircuitOpen)
	}
	return v, err
}

// State returns "closed", "half-open" or "open".
func (b *Breaker[T]) State() string { return b.cb.State().String() }

// ConsecutiveFailures returns the current run of failures.
func (b *Breaker[T]) ConsecutiveFailures() uint32 { return b.cb.Counts().ConsecutiveFailures }
