package redis

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned while the breaker rejects calls.
var ErrBreakerOpen = errors.New("redis breaker open")

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // calls pass through
	BreakerOpen                         // calls rejected until cooldown elapses
	BreakerHalfOpen                     // one probe call allowed
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker stops calling Redis after repeated failures so an unreachable
// server does not stall a run. After threshold consecutive failures it
// opens for cooldown, then lets a single probe through.
type Breaker struct {
	mu        sync.Mutex
	state     BreakerState
	failures  int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time
	now       func() time.Time

	// OnChange, if set, is called on every state transition.
	OnChange func(from, to BreakerState)
}

// NewBreaker creates a closed breaker.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Do runs fn unless the breaker is open.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	if b.state == BreakerOpen {
		if b.now().Sub(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
		b.setState(BreakerHalfOpen)
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		if b.state != BreakerClosed {
			b.setState(BreakerClosed)
		}
		return nil
	}
	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		b.openedAt = b.now()
		b.setState(BreakerOpen)
	}
	return err
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) setState(to BreakerState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.OnChange != nil {
		b.OnChange(from, to)
	}
}
