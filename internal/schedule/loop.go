// SPDX-License-Identifier: MIT
package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"lipsync/internal/log"
)

// ErrStopped is returned by Do once the loop has stopped.
var ErrStopped = errors.New("event loop stopped")

// Loop is a real-time Scheduler backed by one goroutine. Timers use
// time.AfterFunc but only post their callback onto the loop, so a timer
// cancelled on the loop thread can never run.
type Loop struct {
	events   chan func()
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLoop starts the loop goroutine. buffer sizes the event queue.
func NewLoop(buffer int) *Loop {
	if buffer < 1 {
		buffer = 64
	}
	l := &Loop{
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case fn := <-l.events:
			l.exec(fn)
		case <-l.done:
			return
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Loop: recovered from panic in event: %v", r)
		}
	}()
	fn()
}

// Now implements Scheduler.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// After implements Scheduler. It must be called from the loop thread.
func (l *Loop) After(d time.Duration, fn func()) Handle {
	t := &timer{at: time.Now().Add(d), fn: fn}
	at := time.AfterFunc(d, func() {
		l.Post(t.fire)
	})
	t.stop = func() { at.Stop() }
	return t
}

// Post queues fn to run on the loop. It reports false if the loop has
// stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Stop ends the loop goroutine. Events still queued are dropped and pending
// timers post into the void. Stop must not be called from the loop itself.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
	l.wg.Wait()
}

// Done is closed once Stop has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
