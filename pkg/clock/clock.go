// Package clock abstracts the time operations used by the lock controller
// so its deadlines can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock is the subset of the time package the controller depends on.
type Clock interface {
	// Now returns the current time. Readings from Real carry a monotonic
	// component, so deadlines derived from them ignore wall clock steps.
	Now() time.Time

	// After returns a channel that receives the current time once d has
	// elapsed. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SteppingClock is a Clock for tests whose time only moves when a caller
// waits on After: each call advances the clock by the requested duration
// and fires immediately. Polling loops therefore run to completion
// without sleeping.
//
// SteppingClock is safe for concurrent use.
type SteppingClock struct {
	mu      sync.Mutex
	current time.Time
}

// Stepping returns a SteppingClock starting at initial.
func Stepping(initial time.Time) *SteppingClock {
	return &SteppingClock{current: initial}
}

func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *SteppingClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d > 0 {
		c.current = c.current.Add(d)
	}
	ch := make(chan time.Time, 1)
	ch <- c.current
	return ch
}

// Advance moves the clock forward by d without firing anything.
func (c *SteppingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}
