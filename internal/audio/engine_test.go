// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"testing"
)

// TestBranchlessAbsPerformance verifies the branchless absolute value calculation has no allocations
func TestBranchlessAbsPerformance(t *testing.T) {
	samples := make([]int32, 1024)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = int32(i * 1000)
		} else {
			samples[i] = int32(-i * 1000)
		}
	}

	allocs := testing.AllocsPerRun(100, func() {
		for i, sample := range samples {
			mask := sample >> 31
			samples[i] = (sample ^ mask) - mask
		}
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in branchless abs, got %.1f", allocs)
	}
	for i, s := range samples {
		if s < 0 {
			t.Fatalf("sample %d still negative: %d", i, s)
		}
	}
}

func TestProcessBufferMono(t *testing.T) {
	sink := &captureSink{}
	engine := newEngine(testConfig(1), sink)
	engine.Gate().SetEnabled(false)

	buf := []int32{0, math.MaxInt32, -math.MaxInt32, math.MaxInt32 / 2}
	engine.processBuffer(buf)

	want := []float32{0, 1, -1, 0.5}
	if len(sink.last) != len(want) {
		t.Fatalf("sink got %d samples, want %d", len(sink.last), len(want))
	}
	for i := range want {
		if math.Abs(float64(sink.last[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d = %f, want %f", i, sink.last[i], want[i])
		}
	}
}

func TestProcessBufferDownmix(t *testing.T) {
	sink := &captureSink{}
	engine := newEngine(testConfig(2), sink)
	engine.Gate().SetEnabled(false)

	// Interleaved L/R frames.
	buf := []int32{math.MaxInt32, 0, math.MaxInt32 / 2, math.MaxInt32 / 2, -math.MaxInt32, math.MaxInt32}
	engine.processBuffer(buf)

	want := []float32{0.5, 0.5, 0}
	if len(sink.last) != len(want) {
		t.Fatalf("sink got %d frames, want %d", len(sink.last), len(want))
	}
	for i := range want {
		if math.Abs(float64(sink.last[i]-want[i])) > 1e-6 {
			t.Errorf("frame %d = %f, want %f", i, sink.last[i], want[i])
		}
	}
}

func TestProcessBufferGateWritesSilence(t *testing.T) {
	sink := &captureSink{}
	engine := newEngine(testConfig(1), sink)
	engine.Gate().SetEnabled(true)
	engine.Gate().SetThreshold(0.1)

	engine.processBuffer(quietBuffer)
	if sink.writes != 1 {
		t.Fatalf("closed gate should still write, got %d writes", sink.writes)
	}
	for i, s := range sink.last {
		if s != 0 {
			t.Fatalf("closed gate leaked sample %d = %f", i, s)
		}
	}

	engine.processBuffer(loudBuffer)
	if sink.writes != 2 || sink.last[1] == 0 {
		t.Error("open gate should pass the signal")
	}
}

func TestProcessBufferNoAllocsHotPath(t *testing.T) {
	engine := newEngine(testConfig(2), &captureSink{last: make([]float32, 0, testFrameSize)})
	buf := make([]int32, testFrameSize*2)
	copy(buf, testBuffer)

	allocs := testing.AllocsPerRun(100, func() {
		engine.processBuffer(buf)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in processBuffer, got %.1f", allocs)
	}
}

func TestProcessBufferNilSink(t *testing.T) {
	engine := newEngine(testConfig(1), nil)
	engine.processBuffer(testBuffer)
}

// BenchmarkHotPath benchmarks the per-callback processing.
func BenchmarkHotPath(b *testing.B) {
	engine := newEngine(testConfig(1), &captureSink{last: make([]float32, 0, testFrameSize)})

	b.ReportAllocs()
	for b.Loop() {
		engine.processBuffer(testBuffer)
	}
}
