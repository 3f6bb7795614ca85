package resilience

import (
	stderrors "errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned while the breaker is rejecting calls.
var ErrBreakerOpen = stderrors.New("resilience: breaker open")

// Breaker fails collaborator calls fast once a service looks unhealthy,
// instead of queueing doomed persistence or upload requests behind a dead
// backend. After MaxFailures consecutive failures it rejects calls for
// Cooldown, then admits a single probe; the probe's outcome closes or
// reopens it.
type Breaker struct {
	// MaxFailures opens the breaker after this many consecutive failures.
	MaxFailures int
	// Cooldown is how long calls are rejected before a probe is allowed.
	Cooldown time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a breaker with the given thresholds. Zero values fall
// back to 5 failures and a 30 second cooldown.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{MaxFailures: maxFailures, Cooldown: cooldown}
}

// Do executes fn under the breaker's admission policy.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.MaxFailures {
		return nil
	}
	if time.Since(b.openedAt) < b.Cooldown {
		return ErrBreakerOpen
	}
	// Cooldown elapsed: admit one probe at a time.
	if b.probing {
		return ErrBreakerOpen
	}
	b.probing = true
	return nil
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if ok {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.MaxFailures {
		b.openedAt = time.Now()
	}
}
