// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"strings"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"lipsync/pkg/bitint"
)

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions.
const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// FFT size limits, matching what browsers accept for an AnalyserNode.
const (
	MinFFTSize = 32
	MaxFFTSize = 32768
)

// ErrClosed is returned by the snapshot readers once the analyser is closed.
// It wraps io.EOF so consumers can treat it as end of playback.
var ErrClosed = fmt.Errorf("analyser closed: %w", io.EOF)

// AnalyserConfig holds the spectrum parameters.
type AnalyserConfig struct {
	FFTSize     int        // Number of points for the FFT (power of 2).
	Smoothing   float64    // Time constant blending each frame with the previous one (0-1).
	MinDecibels float64    // Magnitude mapped to byte value 0.
	MaxDecibels float64    // Magnitude mapped to byte value 255.
	Window      WindowFunc // Window applied before the FFT.
}

// DefaultAnalyserConfig mirrors the defaults of a Web Audio AnalyserNode
// configured with fftSize 256.
func DefaultAnalyserConfig() AnalyserConfig {
	return AnalyserConfig{
		FFTSize:     256,
		Smoothing:   0.8,
		MinDecibels: -100,
		MaxDecibels: -30,
		Window:      Blackman,
	}
}

// Validate checks the parameters.
func (c AnalyserConfig) Validate() error {
	if c.FFTSize < MinFFTSize || c.FFTSize > MaxFFTSize {
		return fmt.Errorf("fft size must be a power of 2 between %d and %d, got %d", MinFFTSize, MaxFFTSize, c.FFTSize)
	}
	if !bitint.IsPowerOfTwo(c.FFTSize) {
		return fmt.Errorf("fft size must be a power of 2 between %d and %d, got %d (try %d)",
			MinFFTSize, MaxFFTSize, c.FFTSize, bitint.NextPowerOfTwo(c.FFTSize))
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		return fmt.Errorf("smoothing must be within [0,1), got %f", c.Smoothing)
	}
	if c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("min decibels (%f) must be below max decibels (%f)", c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

// Pre-allocated buffers for FFT calculations.
type workspace struct {
	ring      []float64    // Most recent fftSize time-domain samples.
	ringPos   int          // Next write position in ring.
	input     []float64    // Windowed input, oldest sample first.
	fftOutput []complex128 // FFT complex results.
	smoothed  []float64    // Smoothed linear magnitudes, one per bin.
	window    []float64    // Pre-calculated window coefficients.
}

// Analyser turns a stream of time-domain samples into byte frequency
// snapshots the way a browser AnalyserNode does: windowed FFT, magnitude
// normalised by the FFT size, temporal smoothing, then a decibel scale
// mapped linearly onto 0-255.
//
// Write is called from the audio callback and Snapshot from the animation
// loop, so both take the workspace lock.
type Analyser struct {
	cfg           AnalyserConfig
	fftCalculator *fourier.FFT
	byteScale     float64

	mu     sync.Mutex
	ws     workspace
	closed bool
}

// NewAnalyser validates cfg and pre-allocates every buffer.
func NewAnalyser(cfg AnalyserConfig) (*Analyser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	windowCoeffs := make([]float64, cfg.FFTSize)
	applyWindow(windowCoeffs, cfg.Window)

	return &Analyser{
		cfg:           cfg,
		fftCalculator: fourier.NewFFT(cfg.FFTSize),
		byteScale:     255 / (cfg.MaxDecibels - cfg.MinDecibels),
		ws: workspace{
			ring:      make([]float64, cfg.FFTSize),
			input:     make([]float64, cfg.FFTSize),
			fftOutput: make([]complex128, cfg.FFTSize/2+1),
			smoothed:  make([]float64, cfg.FFTSize/2),
			window:    windowCoeffs,
		},
	}, nil
}

// BinCount returns the snapshot length, half the FFT size.
func (a *Analyser) BinCount() int {
	return a.cfg.FFTSize / 2
}

// Config returns the parameters the analyser was built with.
func (a *Analyser) Config() AnalyserConfig {
	return a.cfg
}

// Write appends mono samples in [-1, 1] to the time-domain ring.
func (a *Analyser) Write(samples []float32) {
	a.mu.Lock()
	n := len(a.ws.ring)
	for _, s := range samples {
		a.ws.ring[a.ws.ringPos] = float64(s)
		a.ws.ringPos++
		if a.ws.ringPos == n {
			a.ws.ringPos = 0
		}
	}
	a.mu.Unlock()
}

// Snapshot computes a new frequency snapshot. It allocates the result; the
// animation loop calls it once per tick.
func (a *Analyser) Snapshot() (Snapshot, error) {
	dst := make(Snapshot, a.BinCount())
	if err := a.SnapshotInto(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// SnapshotInto computes a new frequency snapshot into dst without allocating.
// dst must be BinCount long.
func (a *Analyser) SnapshotInto(dst Snapshot) error {
	if len(dst) != a.BinCount() {
		return fmt.Errorf("destination length %d does not match bin count %d", len(dst), a.BinCount())
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	// Unroll the ring, oldest sample first, applying the window.
	n := a.cfg.FFTSize
	for i := range n {
		a.ws.input[i] = a.ws.ring[(a.ws.ringPos+i)%n] * a.ws.window[i]
	}

	a.fftCalculator.Coefficients(a.ws.fftOutput, a.ws.input)

	tau := a.cfg.Smoothing
	norm := 1 / float64(n)
	for k := range dst {
		mag := cmplx.Abs(a.ws.fftOutput[k]) * norm
		a.ws.smoothed[k] = tau*a.ws.smoothed[k] + (1-tau)*mag
		dst[k] = a.toByte(a.ws.smoothed[k])
	}
	return nil
}

// Close marks the end of the stream; subsequent snapshots return ErrClosed.
func (a *Analyser) Close() error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return nil
}

func (a *Analyser) toByte(mag float64) uint8 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	scaled := math.Floor(a.byteScale * (db - a.cfg.MinDecibels))
	switch {
	case scaled <= 0:
		return 0
	case scaled >= 255:
		return 255
	default:
		return uint8(scaled)
	}
}

// IsClosed reports whether err signals the end of a snapshot stream, either
// ErrClosed or a source reporting io.EOF.
func IsClosed(err error) bool {
	return errors.Is(err, io.EOF)
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns a known default (Blackman) and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Blackman, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window function. Unknown types
// fall back to Blackman.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// The gonum window funcs scale the slice in place, so start from ones.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Blackman(coeffs)
	}
}
