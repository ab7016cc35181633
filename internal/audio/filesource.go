// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"

	"lipsync/internal/analysis"
)

// ErrInvalidWAV is returned for input that is not a PCM WAV file.
var ErrInvalidWAV = errors.New("not a valid WAV file")

// FileSource plays a decoded recording through an Analyser, one frame's
// worth of samples per Snapshot call, so a session ticking at the frame
// interval sees the spectrum the listener would hear at that moment.
type FileSource struct {
	analyser   *analysis.Analyser
	samples    []float32
	sampleRate int
	hop        int
	pos        int
}

// OpenFile decodes the WAV file at path.
func OpenFile(path string, cfg analysis.AnalyserConfig, frameInterval time.Duration) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := NewFileSource(f, cfg, frameInterval)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// NewFileSource decodes a WAV stream to mono and prepares an analyser.
func NewFileSource(r io.ReadSeeker, cfg analysis.AnalyserConfig, frameInterval time.Duration) (*FileSource, error) {
	samples, sampleRate, err := DecodeMono(r)
	if err != nil {
		return nil, err
	}
	if frameInterval <= 0 {
		return nil, fmt.Errorf("frame interval must be positive, got %v", frameInterval)
	}

	a, err := analysis.NewAnalyser(cfg)
	if err != nil {
		return nil, err
	}

	hop := int(float64(sampleRate) * frameInterval.Seconds())
	if hop < 1 {
		hop = 1
	}
	return &FileSource{
		analyser:   a,
		samples:    samples,
		sampleRate: sampleRate,
		hop:        hop,
	}, nil
}

// DecodeMono reads a PCM WAV stream and averages its channels into samples
// in [-1, 1].
func DecodeMono(r io.ReadSeeker) ([]float32, int, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, 0, ErrInvalidWAV
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode WAV: %w", err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, 0, fmt.Errorf("%w: %d channels", ErrInvalidWAV, channels)
	}
	bitDepth := int(d.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, 0, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, bitDepth)
	}

	// 8 bit WAV is unsigned; go-audio leaves it offset by 128.
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}
	scale := 1 / float32(int64(1)<<(bitDepth-1))
	frames := len(buf.Data) / channels
	mono := make([]float32, frames)
	inv := 1 / float32(channels)
	for i := range frames {
		var sum float32
		for ch := range channels {
			sum += float32(buf.Data[i*channels+ch] - offset)
		}
		mono[i] = sum * inv * scale
	}
	return mono, buf.Format.SampleRate, nil
}

// Snapshot feeds the next frame of samples and returns the spectrum. It
// returns io.EOF once the recording is exhausted.
func (f *FileSource) Snapshot() (analysis.Snapshot, error) {
	if f.pos >= len(f.samples) {
		return nil, io.EOF
	}
	end := min(f.pos+f.hop, len(f.samples))
	f.analyser.Write(f.samples[f.pos:end])
	f.pos = end
	return f.analyser.Snapshot()
}

// Position returns how much of the recording has been consumed.
func (f *FileSource) Position() time.Duration {
	return f.offset(f.pos)
}

// Duration returns the length of the recording.
func (f *FileSource) Duration() time.Duration {
	return f.offset(len(f.samples))
}

// SampleRate returns the recording's sample rate.
func (f *FileSource) SampleRate() int {
	return f.sampleRate
}

func (f *FileSource) offset(samples int) time.Duration {
	if f.sampleRate == 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(f.sampleRate)
}

// Close releases the analyser; later snapshots return an error wrapping
// io.EOF.
func (f *FileSource) Close() error {
	f.pos = len(f.samples)
	return f.analyser.Close()
}
