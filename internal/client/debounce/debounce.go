// Package debounce runs a function once input has been quiet for a delay.
package debounce

import (
	"sync"
	"time"
)

// Timer calls fn after delay has elapsed since the last Trigger. Each
// Trigger cancels the pending call and schedules a new one, so a burst of
// triggers yields a single call.
type Timer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	t       *time.Timer
	seq     uint64
	pending bool
}

func New(delay time.Duration, fn func()) *Timer {
	return &Timer{delay: delay, fn: fn}
}

func (d *Timer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = true
	d.t = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

func (d *Timer) fire(seq uint64) {
	d.mu.Lock()
	// a Trigger or Cancel after this timer was armed supersedes it
	if seq != d.seq || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.t = nil
	d.mu.Unlock()

	d.fn()
}

// Cancel drops the pending call, if any, and reports whether there was one.
func (d *Timer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
		d.t = nil
	}
	d.seq++
	was := d.pending
	d.pending = false
	return was
}

func (d *Timer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
