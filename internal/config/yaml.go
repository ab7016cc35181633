// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"lipsync/internal/analysis"
	"lipsync/internal/log"
	"lipsync/internal/viseme"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug      bool              `yaml:"debug"`      // Enable debug logging.
	LogLevel   string            `yaml:"log_level"`  // Logging level ("debug", "info", "warn", "error").
	TUIMode    bool              `yaml:"tui"`        // Show the terminal mouth view.
	Audio      AudioConfig       `yaml:"audio"`      // Microphone capture.
	Analysis   AnalysisConfig    `yaml:"analysis"`   // Spectrum analysis and band layout.
	Classifier viseme.Thresholds `yaml:"classifier"` // Rule cascade thresholds.
	Animation  AnimationConfig   `yaml:"animation"`  // Session timing.
	Speech     SpeechConfig      `yaml:"speech"`     // External speech engine.
	Recording  RecordingConfig   `yaml:"recording"`  // Microphone recording.
	Transport  TransportConfig   `yaml:"transport"`  // Label delivery.
}

// AudioConfig holds settings related to audio input.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for audio input (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz (e.g., 44100, 48000).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per PortAudio callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
	InputChannels   int     `yaml:"input_channels"`    // Channels to capture; downmixed to mono for analysis.
	GateEnabled     bool    `yaml:"gate_enabled"`      // Silence buffers whose peak is below GateThreshold.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Noise gate threshold, 0.0-1.0 of full scale.
}

// AnalysisConfig holds the spectrum analyser settings.
type AnalysisConfig struct {
	FFTSize     int            `yaml:"fft_size"`     // Power of two; the snapshot has FFTSize/2 bins.
	Smoothing   float64        `yaml:"smoothing"`    // Time constant in [0,1).
	MinDecibels float64        `yaml:"min_decibels"` // Maps to byte 0.
	MaxDecibels float64        `yaml:"max_decibels"` // Maps to byte 255.
	Window      string         `yaml:"window"`       // Window function name (e.g., "Blackman", "Hann").
	Bands       analysis.Bands `yaml:"bands"`        // Bin ranges per band.
}

// AnimationConfig holds session timing.
type AnimationConfig struct {
	FrameInterval   time.Duration `yaml:"frame_interval"`   // Audio session tick period.
	WordDuration    time.Duration `yaml:"word_duration"`    // Time per word of an utterance.
	PhonemeDuration time.Duration `yaml:"phoneme_duration"` // Time per viseme within a word.
}

// SpeechConfig selects the speech engine. An empty Command speaks silently at
// the word rate.
type SpeechConfig struct {
	Command string        `yaml:"command"` // Program to run, e.g. "espeak" or "say".
	Args    []string      `yaml:"args"`    // Arguments; "{text}" is replaced by the text.
	LeadIn  time.Duration `yaml:"lead_in"` // Delay from process start to audible speech.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the microphone while listening.
	OutputDir string `yaml:"output_dir"` // Directory to save recorded audio files.
	BitDepth  int    `yaml:"bit_depth"`  // 16 or 32.
}

// TransportConfig holds settings related to sending labels over the network.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve label events on /visemes.
	WebSocketAddress string        `yaml:"websocket_address"`  // Listen address, e.g. ":8080".
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send the current label over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
}

// SearchPaths are tried in order when LoadConfig is given no path.
var SearchPaths = []string{"lipsync.yaml", "config.yaml"}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches SearchPaths. If no file is found, it uses built-in defaults.
// After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range SearchPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Debugf("Config: loaded %s", path)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// AnalyserConfig converts the analysis section.
func (c *Config) AnalyserConfig() (analysis.AnalyserConfig, error) {
	w, err := analysis.ParseWindowFunc(c.Analysis.Window)
	if err != nil {
		return analysis.AnalyserConfig{}, err
	}
	return analysis.AnalyserConfig{
		FFTSize:     c.Analysis.FFTSize,
		Smoothing:   c.Analysis.Smoothing,
		MinDecibels: c.Analysis.MinDecibels,
		MaxDecibels: c.Analysis.MaxDecibels,
		Window:      w,
	}, nil
}

// Validate checks every section and joins all problems found.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level '%s' is not recognised", c.LogLevel))
	}

	// Audio
	a := c.Audio
	if a.InputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.input_device must be >= %d", MinDeviceID))
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate))
	}
	if a.FramesPerBuffer <= 0 || a.FramesPerBuffer > MaxBufferFrames {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer %d outside (0, %d]", a.FramesPerBuffer, MaxBufferFrames))
	}
	if a.InputChannels < 1 {
		errs = append(errs, fmt.Errorf("audio.input_channels must be positive"))
	}
	if a.GateThreshold < 0 || a.GateThreshold > 1 {
		errs = append(errs, fmt.Errorf("audio.gate_threshold %.3f outside [0, 1]", a.GateThreshold))
	}

	// Analysis
	if ac, err := c.AnalyserConfig(); err != nil {
		errs = append(errs, fmt.Errorf("analysis.window: %w", err))
	} else if err := ac.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("analysis: %w", err))
	} else if err := c.Analysis.Bands.Validate(c.Analysis.FFTSize / 2); err != nil {
		errs = append(errs, fmt.Errorf("analysis.bands: %w", err))
	}

	// Animation
	if c.Animation.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("animation.frame_interval must be positive"))
	}
	if c.Animation.WordDuration <= 0 {
		errs = append(errs, fmt.Errorf("animation.word_duration must be positive"))
	}
	if c.Animation.PhonemeDuration <= 0 {
		errs = append(errs, fmt.Errorf("animation.phoneme_duration must be positive"))
	}

	// Speech
	if c.Speech.LeadIn < 0 {
		errs = append(errs, fmt.Errorf("speech.lead_in must not be negative"))
	}

	// Recording
	if c.Recording.Enabled {
		if c.Recording.OutputDir == "" {
			errs = append(errs, fmt.Errorf("recording.output_dir must be set when recording is enabled"))
		}
		if c.Recording.BitDepth != 16 && c.Recording.BitDepth != 32 {
			errs = append(errs, fmt.Errorf("recording.bit_depth must be 16 or 32, got %d", c.Recording.BitDepth))
		}
	}

	// Transport
	t := c.Transport
	if t.WebSocketEnabled {
		if _, _, err := net.SplitHostPort(t.WebSocketAddress); err != nil {
			errs = append(errs, fmt.Errorf("transport.websocket_address '%s': %w", t.WebSocketAddress, err))
		}
	}
	if t.UDPEnabled {
		if _, _, err := net.SplitHostPort(t.UDPTargetAddress); err != nil {
			errs = append(errs, fmt.Errorf("transport.udp_target_address '%s': %w", t.UDPTargetAddress, err))
		}
		if t.UDPSendInterval <= 0 {
			errs = append(errs, fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled"))
		}
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
// Unparseable values are ignored with a warning.
func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			log.Debugf("Config: overriding debug from env: %v", bVal)
		} else {
			log.Warnf("Config: ignoring ENV_DEBUG=%q: %v", val, err)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		log.Debugf("Config: overriding log_level from env: %s", val)
	}
	// ENV_INPUT_DEVICE
	if val, ok := os.LookupEnv("ENV_INPUT_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Audio.InputDevice = iVal
			log.Debugf("Config: overriding audio.input_device from env: %d", iVal)
		} else {
			log.Warnf("Config: ignoring ENV_INPUT_DEVICE=%q: %v", val, err)
		}
	}
	// ENV_SPEECH_COMMAND
	if val, ok := os.LookupEnv("ENV_SPEECH_COMMAND"); ok {
		cfg.Speech.Command = val
		log.Debugf("Config: overriding speech.command from env: %s", val)
	}

	// ENV_WS_{...}
	// These are specific to the WebSocket transport.

	// ENV_WS_ENABLED
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WebSocketEnabled = bVal
			log.Debugf("Config: overriding transport.websocket_enabled from env: %v", bVal)
		} else {
			log.Warnf("Config: ignoring ENV_WS_ENABLED=%q: %v", val, err)
		}
	}
	// ENV_WS_ADDRESS
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		cfg.Transport.WebSocketAddress = val
		log.Debugf("Config: overriding transport.websocket_address from env: %s", val)
	}

	// ENV_UDP_{...}
	// These are specific to the UDP transport.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			log.Debugf("Config: overriding transport.udp_enabled from env: %v", bVal)
		} else {
			log.Warnf("Config: ignoring ENV_UDP_ENABLED=%q: %v", val, err)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		log.Debugf("Config: overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			log.Debugf("Config: overriding transport.udp_send_interval from env: %s", dur)
		} else {
			log.Warnf("Config: ignoring ENV_UDP_SEND_INTERVAL=%q: %v", val, err)
		}
	}
}
