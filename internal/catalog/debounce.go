package catalog

import (
	"sync"
	"time"
)

// timerHandle abstracts the one-shot timer behind a Debouncer so tests can
// drive it with simulated time.
type timerHandle interface {
	Stop() bool
}

// Debouncer coalesces bursts of triggers into a single callback fired after
// a quiet period. Each Trigger resets the countdown, so only the last event
// within the window takes effect. Used for search-as-you-type and viewport
// resize handling.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	pending timerHandle

	// newTimer is replaced in tests with a fake clock.
	newTimer func(time.Duration, func()) timerHandle
}

// NewDebouncer creates a debouncer that invokes fn after delay of quiet.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{
		delay: delay,
		fn:    fn,
		newTimer: func(d time.Duration, f func()) timerHandle {
			return time.AfterFunc(d, f)
		},
	}
}

// Trigger schedules the callback, cancelling any previously scheduled run.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = d.newTimer(d.delay, d.fire)
}

// Stop cancels a pending callback without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.pending = nil
	fn := d.fn
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}
