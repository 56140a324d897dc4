package engine

import (
	"sync"
	"time"
)

// displayTimer holds the single server-side safety deadline for a
// client-paced display. The room never sleeps on it: when the timer
// fires it enqueues a system advance through the action queue, and a
// client advancing first cancels it.
type displayTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func (d *displayTimer) arm(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, fn)
}

func (d *displayTimer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
