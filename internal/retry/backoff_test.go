package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fast is a policy that retries without measurable waits.
func fast(attempts int) *Backoff {
	return &Backoff{Base: time.Millisecond, Cap: 4 * time.Millisecond, Factor: 2, Attempts: attempts}
}

func TestBackoff_SuccessAfterRetries(t *testing.T) {
	calls := 0
	err := fast(5).Do(context.Background(), func(attempt int) error {
		calls++
		if attempt < 3 {
			return fmt.Errorf("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestBackoff_ImmediateSuccess(t *testing.T) {
	b := DialBackoff(3)
	b.OnRetry = func(int, error, time.Duration) { t.Error("no retry expected") }
	if err := b.Do(context.Background(), func(int) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBackoff_PermanentError(t *testing.T) {
	calls := 0
	err := DialBackoff(3).Do(context.Background(), func(int) error {
		calls++
		return Permanent(fmt.Errorf("rejected"))
	})
	if err == nil || err.Error() != "rejected" {
		t.Fatalf("expected the unwrapped permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("permanent error should stop after 1 call, got %d", calls)
	}
}

func TestBackoff_Exhausted(t *testing.T) {
	calls := 0
	refused := errors.New("connection refused")
	err := fast(3).Do(context.Background(), func(int) error {
		calls++
		return refused
	})
	if !errors.Is(err, refused) {
		t.Fatalf("expected wrapped dial error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestBackoff_ContextCancelled(t *testing.T) {
	b := &Backoff{Base: 5 * time.Second, Cap: 5 * time.Second, Attempts: 100}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := b.Do(ctx, func(int) error { return fmt.Errorf("fail") })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation did not interrupt the wait")
	}
}

func TestBackoff_CancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := DialBackoff(3).Do(ctx, func(int) error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}

func TestBackoff_OnRetry(t *testing.T) {
	b := fast(3)
	var waits []time.Duration
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		if err == nil {
			t.Error("OnRetry called without an error")
		}
		waits = append(waits, wait)
	}
	_ = b.Do(context.Background(), func(int) error { return fmt.Errorf("refused") })

	want := []time.Duration{time.Millisecond, 2 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("expected %d retries, got %d", len(want), len(waits))
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestBackoff_Delay(t *testing.T) {
	b := DialBackoff(5)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1600 * time.Millisecond},
		{6, 2 * time.Second},
		{30, 2 * time.Second},
	}
	for _, tt := range tests {
		if got := b.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}

	var zero Backoff
	if got := zero.Delay(1); got != 100*time.Millisecond {
		t.Errorf("zero-value Delay(1) = %v", got)
	}
}

func TestDialBackoff(t *testing.T) {
	tests := []struct {
		attempts int
		want     int
	}{
		{3, 3},
		{1, 1},
		{0, 1},
		{-2, 1},
	}
	for _, tt := range tests {
		if got := DialBackoff(tt.attempts).Attempts; got != tt.want {
			t.Errorf("DialBackoff(%d).Attempts = %d, want %d", tt.attempts, got, tt.want)
		}
	}
}

func TestPermanent_Nil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"permanent", Permanent(fmt.Errorf("x")), true},
		{"wrapped", fmt.Errorf("link: %w", Permanent(fmt.Errorf("x"))), true},
		{"not permanent", fmt.Errorf("x"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJitter(t *testing.T) {
	d := 100 * time.Millisecond
	tests := []struct {
		frac, r float64
		want    time.Duration
	}{
		{0, 0.9, d},
		{0.25, 0, 75 * time.Millisecond},
		{0.25, 0.5, d},
		{0.25, 0.999999, 124999990 * time.Nanosecond},
	}
	for _, tt := range tests {
		got := jitter(d, tt.frac, tt.r)
		if diff := got - tt.want; diff < -time.Microsecond || diff > time.Microsecond {
			t.Errorf("jitter(%v, %v, %v) = %v, want %v", d, tt.frac, tt.r, got, tt.want)
		}
	}
	if got := jitter(time.Microsecond, 0.25, 0); got != time.Millisecond {
		t.Errorf("jitter floor = %v, want 1ms", got)
	}
}
