// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"
)

// Gate silences capture buffers whose peak stays at or below a threshold,
// so room noise does not animate the mouth. Its settings may be changed from
// any goroutine while the capture callback reads them.
type Gate struct {
	enabled   atomic.Bool
	threshold atomic.Int32 // Absolute amplitude, 0..MaxInt32.
}

// NewGate returns a gate with threshold given as a fraction of full scale.
func NewGate(enabled bool, threshold float64) *Gate {
	g := &Gate{}
	g.SetEnabled(enabled)
	g.SetThreshold(threshold)
	return g
}

// SetEnabled turns the gate on or off. A disabled gate is always open.
func (g *Gate) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

// Enabled reports whether the gate is active.
func (g *Gate) Enabled() bool {
	return g.enabled.Load()
}

// SetThreshold sets the threshold as a fraction of full scale, clamped to
// [0, 1]: 0 is always open, 1 is always closed.
func (g *Gate) SetThreshold(threshold float64) {
	threshold = min(max(threshold, 0), 1)
	g.threshold.Store(int32(threshold * float64(math.MaxInt32)))
}

// Threshold returns the threshold as a fraction of full scale.
func (g *Gate) Threshold() float64 {
	return float64(g.threshold.Load()) / float64(math.MaxInt32)
}

// Open reports whether the buffer's peak exceeds the threshold.
func (g *Gate) Open(buffer []int32) bool {
	if !g.enabled.Load() {
		return true
	}
	return peak(buffer) > g.threshold.Load()
}

// peak returns the largest absolute sample without branching per sample.
func peak(buffer []int32) int32 {
	var maxAmplitude int32
	for _, sample := range buffer {
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - maxAmplitude
		maxAmplitude += (diff & (diff >> 31)) ^ diff
	}
	return maxAmplitude
}
