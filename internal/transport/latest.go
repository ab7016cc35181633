// SPDX-License-Identifier: MIT
package transport

import (
	"sync/atomic"

	"lipsync/internal/viseme"
)

// Latest holds the most recent label for readers on other goroutines, such
// as the UDP publisher. The zero value holds Closed.
type Latest struct {
	// Low byte: label. Upper bits: change count.
	state atomic.Uint64
}

// RenderViseme records label.
func (l *Latest) RenderViseme(label viseme.Label) {
	for {
		old := l.state.Load()
		next := (old>>8+1)<<8 | uint64(label)
		if l.state.CompareAndSwap(old, next) {
			return
		}
	}
}

// Load returns the current label and how many changes have been recorded.
func (l *Latest) Load() (viseme.Label, uint64) {
	s := l.state.Load()
	return viseme.Label(s & 0xff), s >> 8
}
