// SPDX-License-Identifier: MIT

// Package schedule runs session callbacks on a single logical thread. Every
// callback handed to a Scheduler runs serially with every other callback of
// that scheduler, so the code they drive needs no locking.
package schedule

import "time"

// Scheduler is a clock plus one-shot timers.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time
	// After arranges for fn to run once, d from now, on the scheduler's
	// thread. The returned handle cancels it.
	After(d time.Duration, fn func()) Handle
}

// Handle cancels a pending timer. Cancel is idempotent and, when called on
// the scheduler's thread, guarantees the callback will not run afterwards.
type Handle interface {
	Cancel()
}

// timer is the handle shared by both schedulers. It is only ever read and
// written on the scheduler's thread.
type timer struct {
	at        time.Time
	seq       uint64
	fn        func()
	cancelled bool
	fired     bool
	stop      func()
}

func (t *timer) Cancel() {
	if t.cancelled || t.fired {
		return
	}
	t.cancelled = true
	if t.stop != nil {
		t.stop()
	}
}

// fire runs the callback unless it was cancelled first.
func (t *timer) fire() {
	if t.cancelled || t.fired {
		return
	}
	t.fired = true
	t.fn()
}
