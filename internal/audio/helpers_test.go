// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"lipsync/internal/config"
)

const (
	testSampleRate = 44100
	testFrameSize  = 512
)

var (
	lowThreshold  = int32(math.MaxInt32 / 1000)
	highThreshold = int32(math.MaxInt32 / 2)

	quietBuffer = sineBuffer(testFrameSize, 0.01)
	testBuffer  = sineBuffer(testFrameSize, 0.3)
	loudBuffer  = sineBuffer(testFrameSize, 0.95)
)

func sineBuffer(n int, amplitude float64) []int32 {
	buf := make([]int32, n)
	for i := range buf {
		v := amplitude * math.Sin(2*math.Pi*440*float64(i)/testSampleRate)
		buf[i] = int32(v * math.MaxInt32)
	}
	return buf
}

func testConfig(channels int) *config.Config {
	cfg := config.Default()
	cfg.Audio.SampleRate = testSampleRate
	cfg.Audio.InputChannels = channels
	cfg.Audio.FramesPerBuffer = testFrameSize
	cfg.Recording.BitDepth = 16
	return &cfg
}

// captureSink records the last buffer written.
type captureSink struct {
	last   []float32
	writes int
}

func (s *captureSink) Write(samples []float32) {
	s.last = append(s.last[:0], samples...)
	s.writes++
}

// writeWAV encodes int samples (interleaved) to a temp file.
func writeWAV(t testing.TB, sampleRate, bitDepth, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return path
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func absFloat(x float64) float64 {
	return math.Abs(x)
}
