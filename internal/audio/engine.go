// SPDX-License-Identifier: MIT
/*
Package audio captures the microphone and decodes recordings into mono
float samples for spectrum analysis:
- Audio capture using PortAudio
- Noise gate with branchless peak detection
- WAV recording with atomic state management
- WAV file playback as a frame-paced snapshot source

Thread Safety:
- Uses atomic operations for recording state
- Pre-allocates buffers to avoid GC in hot path
- Locks OS thread during audio processing
*/
package audio

import (
	"math"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"lipsync/internal/config"
	"lipsync/internal/log"
)

// SampleSink consumes mono samples in [-1, 1]. Write is called from the
// audio thread and must not block.
type SampleSink interface {
	Write(samples []float32)
}

type Engine struct {
	// Core configuration and state.
	config *config.Config
	sink   SampleSink

	// Audio input handling.
	inputBuffer  []int32
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Downmixed samples handed to the sink.
	monoBuffer []float32

	// Noise gate for signal conditioning.
	gate *Gate

	// Recording state and buffers.
	isRecording   int32 // Atomic flag for thread-safe state
	outputFile    *os.File
	wavEncoder    *wav.Encoder
	sampleBuf     *audio.IntBuffer // Reusable buffer for format conversion
	bitDepthShift int              // Right shift from 32 bit capture to the file's bit depth
	writeFailures int
}

// NewEngine resolves the configured input device. PortAudio must be
// initialised.
func NewEngine(cfg *config.Config, sink SampleSink) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	engine := newEngine(cfg, sink)
	engine.inputDevice = inputDevice
	if cfg.Audio.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}
	return engine, nil
}

func newEngine(cfg *config.Config, sink SampleSink) *Engine {
	// Pre-allocate I/O buffers sized for frames × channels.
	frames := cfg.Audio.FramesPerBuffer
	e := &Engine{
		config:      cfg,
		sink:        sink,
		inputBuffer: make([]int32, frames*cfg.Audio.InputChannels),
		monoBuffer:  make([]float32, frames),
		gate:        NewGate(cfg.Audio.GateEnabled, cfg.Audio.GateThreshold),
	}
	return e
}

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.Audio.InputChannels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return err
	}

	log.Infof("Engine: capturing from '%s' at %.0f Hz", e.inputDevice.Name, e.config.Audio.SampleRate)
	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// processInputStream is the core audio processing callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := copy(e.inputBuffer, in)
	e.processBuffer(e.inputBuffer[:n])
	e.record(e.inputBuffer[:n])
}

// processBuffer gates, downmixes and forwards one buffer to the sink.
// Performance Critical (Hot Path):
// - No allocations
// - Branchless noise gate implementation
func (e *Engine) processBuffer(buffer []int32) {
	if e.sink == nil {
		return
	}

	channels := e.config.Audio.InputChannels
	frames := len(buffer) / channels
	mono := e.monoBuffer[:frames]

	if !e.gate.Open(buffer) {
		// A closed gate still feeds silence so the spectrum decays.
		clear(mono)
		e.sink.Write(mono)
		return
	}

	const scale = 1.0 / float32(math.MaxInt32)
	if channels == 1 {
		for i, s := range buffer {
			mono[i] = float32(s) * scale
		}
	} else {
		inv := 1 / float32(channels)
		for i := range frames {
			var sum float32
			for ch := range channels {
				sum += float32(buffer[i*channels+ch])
			}
			mono[i] = sum * inv * scale
		}
	}
	e.sink.Write(mono)
}

// Gate returns the engine's noise gate.
func (e *Engine) Gate() *Gate {
	return e.gate
}

// Close stops capture, then finalises any recording so the callback can no
// longer touch the encoder.
func (e *Engine) Close() error {
	if err := e.StopInputStream(); err != nil {
		return err
	}

	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}

	return nil
}
