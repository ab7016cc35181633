// SPDX-License-Identifier: MIT
package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lipsync/internal/analysis"
	"lipsync/internal/animator"
	lsaudio "lipsync/internal/audio"
	"lipsync/internal/config"
	"lipsync/internal/speech"
	"lipsync/internal/transport/udp"
	"lipsync/internal/tui"
	"lipsync/internal/viseme"
)

const fixtureRate = 44100

func testConfig() *config.Config {
	cfg := config.Default()
	return &cfg
}

// writeWAV writes mono 16-bit samples to a temp file.
func writeWAV(t *testing.T, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, fixtureRate, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: fixtureRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func writeSilence(t *testing.T, d time.Duration) string {
	return writeWAV(t, make([]int, int(d.Seconds()*fixtureRate)))
}

// writeNoise writes broadband noise at half scale.
func writeNoise(t *testing.T, d time.Duration) string {
	rng := rand.New(rand.NewPCG(1, 2))
	data := make([]int, int(d.Seconds()*fixtureRate))
	for i := range data {
		data[i] = int((rng.Float64() - 0.5) * math.MaxInt16)
	}
	return writeWAV(t, data)
}

func analysisProfile(v float64) analysis.Profile {
	return analysis.Profile{Overall: v, Bass: v, LowMid: v, Mid: v, HighMid: v, High: v}
}

var lookPath = exec.LookPath

func TestOptionsFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Animation.WordDuration = 250 * time.Millisecond
	cfg.Classifier.Silence = 20

	opts := Options(cfg)
	assert.Equal(t, cfg.Analysis.Bands, opts.Extractor.Bands())
	assert.Equal(t, 250*time.Millisecond, opts.WordDuration)
	assert.Equal(t, cfg.Animation.PhonemeDuration, opts.PhonemeDuration)
	assert.Equal(t, cfg.Animation.FrameInterval, opts.FrameInterval)
	require.NotNil(t, opts.Tokenizer)

	label, rule := opts.Classifier.Explain(analysisProfile(15))
	assert.Equal(t, viseme.Closed, label, "raised silence threshold applies")
	assert.Equal(t, "silence", rule)
}

func TestAnalyzeSilence(t *testing.T) {
	path := writeSilence(t, 500*time.Millisecond)

	var out bytes.Buffer
	summary, err := Analyze(context.Background(), testConfig(), path, &out, false)
	require.NoError(t, err)

	assert.Empty(t, out.String())
	assert.Zero(t, summary.Changes)
	assert.Greater(t, summary.Frames, 25)
	assert.InDelta(t, 500, summary.Duration.Milliseconds(), 1)
}

func TestAnalyzeNoiseJSON(t *testing.T) {
	path := writeNoise(t, 500*time.Millisecond)

	var out bytes.Buffer
	summary, err := Analyze(context.Background(), testConfig(), path, &out, true)
	require.NoError(t, err)

	var changes []Change
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var c Change
		require.NoError(t, json.Unmarshal(sc.Bytes(), &c))
		changes = append(changes, c)
	}
	require.GreaterOrEqual(t, len(changes), 2)
	assert.Equal(t, summary.Changes, len(changes))

	assert.NotEqual(t, viseme.Closed, changes[0].Viseme)
	assert.Equal(t, int64(0), changes[0].OffsetMs, "first frame is classified immediately")
	assert.Equal(t, viseme.Closed, changes[len(changes)-1].Viseme)
	for i := 1; i < len(changes); i++ {
		assert.NotEqual(t, changes[i-1].Viseme, changes[i].Viseme, "only changes are reported")
		assert.GreaterOrEqual(t, changes[i].OffsetMs, changes[i-1].OffsetMs)
	}
}

func TestAnalyzeTextOutput(t *testing.T) {
	path := writeNoise(t, 100*time.Millisecond)

	var out bytes.Buffer
	_, err := Analyze(context.Background(), testConfig(), path, &out, false)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "0ms"), lines[0])
	assert.True(t, strings.HasSuffix(lines[len(lines)-1], "Closed"), lines[len(lines)-1])
}

func TestAnalyzeMissingFile(t *testing.T) {
	_, err := Analyze(context.Background(), testConfig(), filepath.Join(t.TempDir(), "nope.wav"), &bytes.Buffer{}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, animator.ErrAcquisition)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnalyzeCancelled(t *testing.T) {
	path := writeNoise(t, 500*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Analyze(ctx, testConfig(), path, &bytes.Buffer{}, false)
	assert.ErrorIs(t, err, context.Canceled)
}

// scriptedSynth reports Started, waits, then Ended.
type scriptedSynth struct {
	delay time.Duration
}

func (s scriptedSynth) Speak(ctx context.Context, text string, ev speech.Events) error {
	if strings.TrimSpace(text) == "" {
		ev.Failed(speech.ErrEmptyText)
		return speech.ErrEmptyText
	}
	ev.Started()
	select {
	case <-time.After(s.delay):
		ev.Ended()
		return nil
	case <-ctx.Done():
		ev.Failed(ctx.Err())
		return ctx.Err()
	}
}

func fastConfig() *config.Config {
	cfg := testConfig()
	cfg.Animation.WordDuration = 20 * time.Millisecond
	cfg.Animation.PhonemeDuration = 5 * time.Millisecond
	return cfg
}

func TestSpeakCompletes(t *testing.T) {
	cfg := fastConfig()
	err := Speak(context.Background(), cfg, "hi there", scriptedSynth{delay: 30 * time.Millisecond})
	assert.NoError(t, err)
}

func TestSpeakWithPacedSynthesizer(t *testing.T) {
	cfg := fastConfig()
	synth := NewSynthesizer(cfg)
	require.IsType(t, &speech.Paced{}, synth)

	start := time.Now()
	require.NoError(t, Speak(context.Background(), cfg, "one two three", synth))
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestSpeakEmptyText(t *testing.T) {
	err := Speak(context.Background(), fastConfig(), "   ", scriptedSynth{})
	assert.ErrorIs(t, err, speech.ErrEmptyText)
}

func TestSpeakCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Speak(ctx, fastConfig(), "a long sentence", scriptedSynth{delay: time.Minute})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSpeakInterruptedCommandIsCleanExit(t *testing.T) {
	if _, err := lookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	cfg := fastConfig()
	cfg.Speech.Command = "sh"
	cfg.Speech.Args = []string{"-c", "sleep 5; true", "{text}"}
	synth := NewSynthesizer(cfg)
	require.IsType(t, &speech.Command{}, synth)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	assert.NoError(t, Speak(ctx, cfg, "hello there", synth))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewSynthesizerFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.Speech.Command = "definitely-not-a-speech-engine"
	assert.IsType(t, &speech.Paced{}, NewSynthesizer(cfg))

	cfg.Speech.Command = "true"
	if _, err := lookPath("true"); err == nil {
		assert.IsType(t, &speech.Command{}, NewSynthesizer(cfg))
	}
}

func TestOutputsDeliverLabels(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	cfg := testConfig()
	cfg.Transport.WebSocketEnabled = true
	cfg.Transport.WebSocketAddress = "127.0.0.1:0"
	cfg.Transport.UDPEnabled = true
	cfg.Transport.UDPTargetAddress = pc.LocalAddr().String()
	cfg.Transport.UDPSendInterval = 5 * time.Millisecond

	outputs, err := NewOutputs(cfg, func() string { return "s1" })
	require.NoError(t, err)

	outputs.Renderer().RenderViseme(viseme.Oo)
	label, changes := outputs.Latest().Load()
	assert.Equal(t, viseme.Oo, label)
	assert.Equal(t, uint64(1), changes)

	buf := make([]byte, 64)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		n, _, err := pc.ReadFrom(buf)
		require.NoError(t, err)
		_, _, got, err := udp.DecodePacket(buf[:n])
		require.NoError(t, err)
		if got == viseme.Oo {
			break
		}
	}

	assert.NoError(t, outputs.Close())
}

func TestOutputsBadAddress(t *testing.T) {
	cfg := testConfig()
	cfg.Transport.UDPEnabled = true
	cfg.Transport.UDPTargetAddress = "not an address"

	_, err := NewOutputs(cfg, nil)
	assert.Error(t, err)
}

func TestWriteSelection(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteSelection(&out, tui.Selection{DeviceID: 2, SampleRate: 48000}))
	assert.Equal(t, "# Add to lipsync.yaml\naudio:\n  input_device: 2\n  sample_rate: 48000\n", out.String())
}

func TestDevicesListing(t *testing.T) {
	fetch := func() ([]lsaudio.Device, error) {
		return []lsaudio.Device{{ID: 3, Name: "USB Mic", MaxInputChannels: 1, DefaultSampleRate: 48000}}, nil
	}
	var out bytes.Buffer
	require.NoError(t, Devices(&out, false, fetch))
	assert.Contains(t, out.String(), "[3] USB Mic (Input)")

	boom := errors.New("no host api")
	err := Devices(&out, false, func() ([]lsaudio.Device, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}
