// Package retry bounds how hard the proxy tries to reach its backend:
// exponential backoff between dial attempts, and a circuit breaker that
// fails new logins fast while the backend is known to be down.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError wraps an error to signal that retrying will not help.
// Return [Permanent](err) from the operation function to stop retrying
// immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable. A backend that answered and
// refused the link is permanent; a refused TCP connection is not.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ── Backoff ──────────────────────────────────────────────────────────

// Backoff retries backend dials with exponentially growing waits.
type Backoff struct {
	Base     time.Duration // wait after the first failure (default 100ms)
	Cap      time.Duration // longest wait (default 2s)
	Factor   float64       // growth per failure (default 2)
	Attempts int           // total tries including the first; 0 is unbounded
	Jitter   float64       // ± fraction applied to each wait; 0 disables

	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DialBackoff returns the backend dial policy: a login waits at most a
// few hundred milliseconds on a backend that is restarting.
func DialBackoff(attempts int) *Backoff {
	return &Backoff{
		Base:     100 * time.Millisecond,
		Cap:      2 * time.Second,
		Factor:   2,
		Attempts: max(attempts, 1),
		Jitter:   0.25,
	}
}

// Delay is the un-jittered wait after failed attempt n (1-based).
func (b *Backoff) Delay(n int) time.Duration {
	base, limit, factor := b.Base, b.Cap, b.Factor
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if limit <= 0 {
		limit = 2 * time.Second
	}
	if factor < 1 {
		factor = 2
	}
	d := float64(base) * math.Pow(factor, float64(n-1))
	if d > float64(limit) {
		return limit
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, returns a [Permanent] error, runs out of
// attempts, or ctx ends. fn receives the 1-based attempt number.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
		err := fn(attempt)
		switch {
		case err == nil:
			return nil
		case IsPermanent(err):
			return errors.Unwrap(err)
		case b.Attempts > 0 && attempt >= b.Attempts:
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		wait := jitter(b.Delay(attempt), b.Jitter, rand.Float64())
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-t.C:
		}
	}
}

// jitter spreads d by ±frac using r in [0, 1), never going below 1ms.
func jitter(d time.Duration, frac, r float64) time.Duration {
	if frac <= 0 {
		return d
	}
	spread := float64(d) * frac
	return max(time.Duration(float64(d)-spread+2*spread*r), time.Millisecond)
}
