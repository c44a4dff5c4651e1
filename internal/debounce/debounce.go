// Package debounce delays an action until its input has been quiet for a
// fixed interval. Only the trailing call of a burst is delivered.
package debounce

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the search-as-you-type interval used when none is configured.
const DefaultDelay = 300 * time.Millisecond

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules deferred callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type settings struct {
	clock Clock
}

// Option configures a Debouncer.
type Option func(*settings)

// WithClock replaces the wall clock, typically with a manual one in tests.
func WithClock(c Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// Debouncer delivers the last argument passed to Call once delay has passed
// without another Call. It is safe for concurrent use; fn runs on the timer
// goroutine, or on the caller's goroutine for Flush.
type Debouncer[T any] struct {
	mu      sync.Mutex
	clock   Clock
	delay   time.Duration
	fn      func(T)
	timer   Timer
	gen     uint64
	arg     T
	pending bool
}

// New returns a debouncer around fn. A negative delay is treated as zero.
func New[T any](delay time.Duration, fn func(T), opts ...Option) *Debouncer[T] {
	s := settings{clock: realClock{}}
	for _, opt := range opts {
		opt(&s)
	}
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{clock: s.clock, delay: delay, fn: fn}
}

// Call records arg and restarts the quiet window.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.arg = arg
	d.pending = true
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops the pending call. It reports whether one was pending.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.pending {
		return false
	}
	d.stopLocked()
	d.clearLocked()
	return true
}

// Flush runs the pending call immediately on the calling goroutine. It
// reports whether there was one.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	d.stopLocked()
	arg := d.arg
	d.clearLocked()
	d.mu.Unlock()

	d.fn(arg)
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// BindContext cancels any pending call once ctx is done. The returned stop
// function detaches the binding.
func (d *Debouncer[T]) BindContext(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() { d.Cancel() })
}

// fire delivers the pending argument unless the timer that scheduled it has
// been superseded since.
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	arg := d.arg
	d.timer = nil
	d.clearLocked()
	d.mu.Unlock()

	d.fn(arg)
}

// stopLocked invalidates the current timer. Bumping gen covers a timer that
// already fired and is waiting on mu.
func (d *Debouncer[T]) stopLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) clearLocked() {
	var zero T
	d.arg = zero
	d.pending = false
}
