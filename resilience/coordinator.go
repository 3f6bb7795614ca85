// Package resilience drives retry and failure-isolation policy for the
// streaming chat core: a coordinator that reruns a logical turn attempt
// with exponential backoff, and a breaker guarding collaborator calls.
package resilience

import (
	"context"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/kbukum/chatkit/errors"
)

// Coordinator defaults.
const (
	// DefaultMaxAttempts is the total number of attempts, first included.
	DefaultMaxAttempts = 5
	// DefaultBaseDelay seeds the exponential backoff: the sleep before
	// attempt k+1 is 2^k * base plus jitter.
	DefaultBaseDelay = 400 * time.Millisecond
	// DefaultMaxJitter is the upper bound of the uniform additive jitter,
	// spreading synchronized retry storms.
	DefaultMaxJitter = 200 * time.Millisecond
)

// Config configures a retry run.
type Config struct {
	// MaxAttempts is the total attempt budget, including the first.
	MaxAttempts int
	// BaseDelay is the backoff base; the k-th sleep is 2^k * BaseDelay.
	BaseDelay time.Duration
	// MaxJitter bounds the uniform random addition to each sleep. Zero
	// takes the default; a negative value disables jitter.
	MaxJitter time.Duration
	// RetryIf decides whether an attempt error allows another attempt.
	// Defaults to errors.IsRetryable.
	RetryIf func(error) bool
	// OnRetry is called after a failed attempt, before its backoff sleep.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

func (c *Config) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxJitter == 0 {
		c.MaxJitter = DefaultMaxJitter
	}
	if c.RetryIf == nil {
		c.RetryIf = errors.IsRetryable
	}
}

// Run drives up to MaxAttempts executions of fn. The first attempt starts
// immediately. A nil error returns at once with exactly-once application of
// the result. A terminal error (per RetryIf) stops the run and is returned
// unchanged. Cancellation is honored before every sleep and again on
// waking, so a cancel issued mid-backoff never starts a doomed attempt.
// When the budget is exhausted the run reports errors.Exhausted wrapping
// the last attempt error.
func Run[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	cfg.applyDefaults()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, errors.Cancelled()
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if errors.IsCancelled(err) || stderrors.Is(err, context.Canceled) {
			return zero, errors.Cancelled()
		}
		if !cfg.RetryIf(err) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		backoff := backoffFor(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, backoff)
		}

		if ctx.Err() != nil {
			return zero, errors.Cancelled()
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, errors.Cancelled()
		case <-timer.C:
		}
		// Re-check on waking: a cancel during the sleep may have lost the
		// select race.
		if ctx.Err() != nil {
			return zero, errors.Cancelled()
		}
	}

	return zero, errors.Exhausted(cfg.MaxAttempts, lastErr)
}

// backoffFor computes the sleep after the k-th failed attempt:
// 2^k * base + uniform(0, jitter).
func backoffFor(attempt int, cfg Config) time.Duration {
	backoff := cfg.BaseDelay * (1 << attempt)
	if cfg.MaxJitter > 0 {
		backoff += time.Duration(rand.Int63n(int64(cfg.MaxJitter)))
	}
	return backoff
}
