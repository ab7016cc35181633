// SPDX-License-Identifier: MIT
package config

import (
	"time"

	"lipsync/internal/analysis"
	"lipsync/internal/viseme"
)

// Core configuration constants that define the boundaries and defaults
// for the lip-sync engine.
const (
	// Audio device defaults.
	DefaultChannels        = 1           // Mono audio
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultGateThreshold   = 0.001       // ~0.1% of full scale

	// Animation timing.
	DefaultFrameInterval   = 16 * time.Millisecond
	DefaultWordDuration    = 300 * time.Millisecond
	DefaultPhonemeDuration = 120 * time.Millisecond

	// Transports.
	DefaultWebSocketAddress = ":8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz

	// Hardware and processing limits.
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
)

// Default returns the built-in configuration.
func Default() Config {
	an := analysis.DefaultAnalyserConfig()
	return Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultChannels,
			GateEnabled:     true,
			GateThreshold:   DefaultGateThreshold,
		},
		Analysis: AnalysisConfig{
			FFTSize:     an.FFTSize,
			Smoothing:   an.Smoothing,
			MinDecibels: an.MinDecibels,
			MaxDecibels: an.MaxDecibels,
			Window:      "Blackman",
			Bands:       analysis.DefaultBands(),
		},
		Classifier: viseme.DefaultThresholds(),
		Animation: AnimationConfig{
			FrameInterval:   DefaultFrameInterval,
			WordDuration:    DefaultWordDuration,
			PhonemeDuration: DefaultPhonemeDuration,
		},
		Recording: RecordingConfig{
			OutputDir: "./recordings",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
	}
}
