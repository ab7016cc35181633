// SPDX-License-Identifier: MIT
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"lipsync/internal/animator"
	"lipsync/internal/audio"
	"lipsync/internal/config"
	applog "lipsync/internal/log"
	"lipsync/internal/schedule"
	"lipsync/internal/viseme"
)

// Change is one label change in an analysed recording.
type Change struct {
	OffsetMs int64        `json:"offset_ms"`
	Viseme   viseme.Label `json:"viseme"`
}

// Summary describes a finished analysis.
type Summary struct {
	Duration time.Duration
	Frames   int
	Changes  int
}

// changeWriter prints label changes at their offset on the simulated clock.
type changeWriter struct {
	clock   *schedule.Manual
	start   time.Time
	out     io.Writer
	enc     *json.Encoder
	changes int
	err     error
}

func (w *changeWriter) RenderViseme(label viseme.Label) {
	w.changes++
	if w.err != nil {
		return
	}
	c := Change{OffsetMs: w.clock.Now().Sub(w.start).Milliseconds(), Viseme: label}
	if w.enc != nil {
		w.err = w.enc.Encode(c)
		return
	}
	_, w.err = fmt.Fprintf(w.out, "%8dms  %s\n", c.OffsetMs, c.Viseme)
}

// Analyze replays the WAV file at path through an audio session on a
// simulated clock and writes every label change to out, one per line, as
// text or JSON. The last change is always back to Closed.
func Analyze(ctx context.Context, cfg *config.Config, path string, out io.Writer, asJSON bool) (Summary, error) {
	acfg, err := cfg.AnalyserConfig()
	if err != nil {
		return Summary{}, err
	}

	start := time.Unix(0, 0).UTC()
	clock := schedule.NewManual(start)
	w := &changeWriter{clock: clock, start: start, out: out}
	if asJSON {
		w.enc = json.NewEncoder(out)
	}

	ctrl := animator.NewController(clock, w, Options(cfg))

	var src *audio.FileSource
	sess, err := ctrl.StartAudio(func() (animator.SnapshotSource, error) {
		f, err := audio.OpenFile(path, acfg, cfg.Animation.FrameInterval)
		if err != nil {
			return nil, err
		}
		src = f
		return f, nil
	})
	if err != nil {
		return Summary{}, err
	}
	applog.Debugf("Analyze: %s, %v at %d Hz", path, src.Duration(), src.SampleRate())

	for {
		select {
		case <-sess.Done():
			summary := Summary{Duration: src.Duration(), Frames: sess.Ticks(), Changes: w.changes}
			if err := sess.Err(); err != nil {
				return summary, fmt.Errorf("analyze %s: %w", path, err)
			}
			return summary, w.err
		case <-ctx.Done():
			ctrl.Stop()
			return Summary{}, ctx.Err()
		default:
		}
		clock.Advance(cfg.Animation.FrameInterval)
	}
}
