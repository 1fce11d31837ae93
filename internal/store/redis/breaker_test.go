package redis

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(threshold, time.Second)
	b.now = clock.now
	return b, clock
}

var errDown = errors.New("connection refused")

func fail() error { return errDown }
func ok() error   { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3)
	for i := 0; i < 3; i++ {
		if err := b.Do(fail); !errors.Is(err, errDown) {
			t.Fatalf("call %d: expected errDown, got %v", i, err)
		}
	}
	if b.State() != BreakerOpen {
		t.Fatalf("expected open, got %v", b.State())
	}
	called := false
	if err := b.Do(func() error { called = true; return nil }); !errors.Is(err, ErrBreakerOpen) {
		t.Errorf("expected ErrBreakerOpen, got %v", err)
	}
	if called {
		t.Error("fn must not run while open")
	}
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b, _ := newTestBreaker(2)
	b.Do(fail)
	b.Do(ok)
	b.Do(fail)
	if b.State() != BreakerClosed {
		t.Errorf("non-consecutive failures should not open, got %v", b.State())
	}
}

func TestBreaker_ProbeAfterCooldown(t *testing.T) {
	b, clock := newTestBreaker(1)
	var transitions []string
	b.OnChange = func(from, to BreakerState) { transitions = append(transitions, from.String()+"->"+to.String()) }

	b.Do(fail)
	clock.advance(500 * time.Millisecond)
	if err := b.Do(ok); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("still cooling down, got %v", err)
	}

	clock.advance(time.Second)
	b.Do(fail) // failed probe reopens
	if b.State() != BreakerOpen {
		t.Fatalf("failed probe should reopen, got %v", b.State())
	}

	clock.advance(2 * time.Second)
	if err := b.Do(ok); err != nil {
		t.Fatal(err)
	}
	if b.State() != BreakerClosed {
		t.Errorf("successful probe should close, got %v", b.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}
