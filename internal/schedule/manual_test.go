// SPDX-License-Identifier: MIT
package schedule

import (
	"slices"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualFiresInOrder(t *testing.T) {
	m := NewManual(epoch)
	var got []string

	m.After(30*time.Millisecond, func() { got = append(got, "c") })
	m.After(10*time.Millisecond, func() { got = append(got, "a") })
	m.After(10*time.Millisecond, func() { got = append(got, "b") })

	m.Advance(5 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("fired early: %v", got)
	}

	m.Advance(25 * time.Millisecond)
	if want := []string{"a", "b", "c"}; !slices.Equal(got, want) {
		t.Errorf("fired %v, want %v", got, want)
	}
	if m.Now() != epoch.Add(30*time.Millisecond) {
		t.Errorf("Now() = %v", m.Now())
	}
}

func TestManualClockInsideCallback(t *testing.T) {
	m := NewManual(epoch)
	var at time.Duration
	m.After(40*time.Millisecond, func() { at = m.Now().Sub(epoch) })

	m.Advance(time.Second)
	if at != 40*time.Millisecond {
		t.Errorf("callback saw Now() at %v, want 40ms", at)
	}
}

func TestManualChainedTimers(t *testing.T) {
	m := NewManual(epoch)
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		m.After(16*time.Millisecond, tick)
	}
	m.After(16*time.Millisecond, tick)

	m.Advance(100 * time.Millisecond)
	if ticks != 6 {
		t.Errorf("ticks = %d, want 6", ticks)
	}
	if m.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", m.Pending())
	}
}

func TestManualCancel(t *testing.T) {
	m := NewManual(epoch)
	fired := false
	h := m.After(10*time.Millisecond, func() { fired = true })

	h.Cancel()
	h.Cancel()

	if m.Pending() != 0 {
		t.Errorf("Pending() = %d after cancel", m.Pending())
	}
	m.Advance(time.Second)
	if fired {
		t.Error("cancelled timer fired")
	}
}

func TestManualCancelFromCallback(t *testing.T) {
	m := NewManual(epoch)
	fired := false
	var second Handle
	m.After(10*time.Millisecond, func() { second.Cancel() })
	second = m.After(10*time.Millisecond, func() { fired = true })

	m.Advance(10 * time.Millisecond)
	if fired {
		t.Error("timer cancelled by an earlier callback at the same instant still fired")
	}
}

func TestManualRunUntilIdle(t *testing.T) {
	m := NewManual(epoch)
	n := 0
	m.After(time.Hour, func() { n++ })
	m.After(2*time.Hour, func() { n++ })
	m.After(3*time.Hour, func() {}).Cancel()

	if ran := m.RunUntilIdle(10); ran != 2 || n != 2 {
		t.Errorf("RunUntilIdle() = %d (n=%d), want 2", ran, n)
	}
	if m.Now() != epoch.Add(3*time.Hour) {
		t.Errorf("Now() = %v", m.Now())
	}
}
