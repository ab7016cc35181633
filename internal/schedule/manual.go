// SPDX-License-Identifier: MIT
package schedule

import (
	"container/heap"
	"time"
)

// Manual is a Scheduler on simulated time. Nothing happens until Advance is
// called; due callbacks then run on the caller's goroutine in time order
// (insertion order for equal deadlines). It is not safe for concurrent use.
type Manual struct {
	now    time.Time
	seq    uint64
	timers timerHeap
}

// NewManual returns a simulated clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now implements Scheduler.
func (m *Manual) Now() time.Time {
	return m.now
}

// After implements Scheduler.
func (m *Manual) After(d time.Duration, fn func()) Handle {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &timer{at: m.now.Add(d), seq: m.seq, fn: fn}
	heap.Push(&m.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer due on the way.
// Timers scheduled by callbacks fire too if they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	end := m.now.Add(d)
	for m.timers.Len() > 0 {
		next := m.timers[0]
		if next.at.After(end) {
			break
		}
		heap.Pop(&m.timers)
		if next.at.After(m.now) {
			m.now = next.at
		}
		next.fire()
	}
	m.now = end
}

// RunUntilIdle fires timers until none are pending or limit is reached. It
// returns the number of callbacks run.
func (m *Manual) RunUntilIdle(limit int) int {
	n := 0
	for n < limit && m.timers.Len() > 0 {
		next := heap.Pop(&m.timers).(*timer)
		if next.at.After(m.now) {
			m.now = next.at
		}
		if !next.cancelled {
			n++
		}
		next.fire()
	}
	return n
}

// Pending returns the number of timers that are scheduled and not
// cancelled.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(*timer)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
