package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kbukum/chatkit/errors"
)

// fastConfig removes real sleeps from retry tests.
func fastConfig(maxAttempts int) Config {
	return Config{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Microsecond,
		MaxJitter:   -1, // negative disables jitter
	}
}

func TestRun_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Run(context.Background(), fastConfig(5), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("result = %q, calls = %d", result, calls)
	}
}

func TestRun_TerminalStopsImmediately(t *testing.T) {
	calls := 0
	_, err := Run(context.Background(), fastConfig(5), func(context.Context) (string, error) {
		calls++
		return "", errors.Client(400, "bad request")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want exactly 1 for a terminal error", calls)
	}
	var ce *errors.ChatError
	if !stderrors.As(err, &ce) || ce.Code != errors.CodeClient {
		t.Errorf("err = %v, want the client error surfaced unchanged", err)
	}
}

func TestRun_ExhaustionBound(t *testing.T) {
	calls := 0
	backoffs := 0
	cfg := fastConfig(5)
	cfg.OnRetry = func(int, error, time.Duration) { backoffs++ }

	_, err := Run(context.Background(), cfg, func(context.Context) (string, error) {
		calls++
		return "", errors.Upstream(503, "")
	})

	if calls != 5 {
		t.Errorf("calls = %d, want maxAttempts as the bound", calls)
	}
	if backoffs != 4 {
		t.Errorf("backoffs = %d, want maxAttempts-1 sleeps", backoffs)
	}
	var ce *errors.ChatError
	if !stderrors.As(err, &ce) || ce.Code != errors.CodeExhausted {
		t.Errorf("err = %v, want RETRIES_EXHAUSTED", err)
	}
}

func TestRun_SuccessAfterRetries(t *testing.T) {
	calls := 0
	result, err := Run(context.Background(), fastConfig(5), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.EmptyCompletion()
		}
		return 42, nil
	})
	if err != nil || result != 42 {
		t.Fatalf("result = %d, err = %v", result, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRun_CancellationShortCircuitsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := Config{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond, MaxJitter: -1}
	calls := 0
	start := time.Now()
	_, err := Run(ctx, cfg, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			// Cancel while the coordinator is in its first backoff sleep.
			go func() {
				time.Sleep(5 * time.Millisecond)
				cancel()
			}()
		}
		return "", errors.Upstream(500, "")
	})

	if calls != 1 {
		t.Errorf("calls = %d, want no attempt after cancellation", calls)
	}
	if !errors.IsCancelled(err) {
		t.Errorf("err = %v, want cancellation, not exhaustion", err)
	}
	if elapsed := time.Since(start); elapsed > 90*time.Millisecond {
		t.Errorf("cancellation should interrupt the sleep, took %v", elapsed)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Run(ctx, fastConfig(5), func(context.Context) (string, error) {
		calls++
		return "x", nil
	})
	if calls != 0 {
		t.Errorf("calls = %d, want 0 when already cancelled", calls)
	}
	if !errors.IsCancelled(err) {
		t.Errorf("err = %v, want cancellation", err)
	}
}

func TestRun_AbortedAttemptNeverRetried(t *testing.T) {
	calls := 0
	_, err := Run(context.Background(), fastConfig(5), func(context.Context) (string, error) {
		calls++
		return "", context.Canceled
	})
	if calls != 1 {
		t.Errorf("calls = %d, an aborted read must not be retried", calls)
	}
	if !errors.IsCancelled(err) {
		t.Errorf("err = %v, want cancellation", err)
	}
}

func TestBackoffFor_ExponentialWithJitter(t *testing.T) {
	cfg := Config{BaseDelay: 400 * time.Millisecond, MaxJitter: 200 * time.Millisecond}

	for attempt := 1; attempt <= 4; attempt++ {
		base := cfg.BaseDelay * (1 << attempt)
		for i := 0; i < 50; i++ {
			got := backoffFor(attempt, cfg)
			if got < base || got >= base+cfg.MaxJitter {
				t.Fatalf("backoffFor(%d) = %v, want [%v, %v)", attempt, got, base, base+cfg.MaxJitter)
			}
		}
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker(2, time.Hour)
	fail := func() error { return errors.Connection(nil) }

	if err := b.Do(fail); err == ErrBreakerOpen {
		t.Fatal("breaker should start closed")
	}
	_ = b.Do(fail)

	if err := b.Do(func() error { return nil }); err != ErrBreakerOpen {
		t.Errorf("err = %v, want ErrBreakerOpen after threshold", err)
	}
}

func TestBreaker_ProbeClosesAfterCooldown(t *testing.T) {
	b := NewBreaker(1, 5*time.Millisecond)
	_ = b.Do(func() error { return errors.Connection(nil) })

	time.Sleep(10 * time.Millisecond)

	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("probe should be admitted after cooldown: %v", err)
	}
	if err := b.Do(func() error { return nil }); err != nil {
		t.Errorf("breaker should be closed after successful probe: %v", err)
	}
}
