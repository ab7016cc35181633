// SPDX-License-Identifier: MIT
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lipsync/internal/analysis"
	"lipsync/internal/animator"
	"lipsync/internal/audio"
	"lipsync/internal/config"
	applog "lipsync/internal/log"
	"lipsync/internal/tui"
)

// micSource is the live snapshot source: the analyser fed by the engine.
// Closing it stops capture.
type micSource struct {
	*analysis.Analyser
	engine *audio.Engine
}

func (m micSource) Close() error {
	return errors.Join(m.engine.StopInputStream(), m.Analyser.Close())
}

// Listen animates the mouth from the microphone until ctx is cancelled or
// the user quits the mouth view.
func Listen(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	acfg, err := cfg.AnalyserConfig()
	if err != nil {
		return err
	}
	analyser, err := analysis.NewAnalyser(acfg)
	if err != nil {
		return err
	}

	engine, err := audio.NewEngine(cfg, analyser)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			applog.Warnf("Listen: closing audio engine: %v", err)
		}
	}()

	var extra []animator.Renderer
	var view *mouthView
	if cfg.TUIMode {
		view = startMouthView("lipsync listen", cancel)
		defer view.Close()
		extra = append(extra, view.renderer)
	}

	loop, ctrl, outputs, err := newLoopController(cfg, extra...)
	if err != nil {
		return err
	}
	defer loop.Stop()
	defer outputs.Close()

	if cfg.Recording.Enabled {
		path := audio.RecordingPath(cfg.Recording.OutputDir, time.Now())
		if err := engine.StartRecording(path); err != nil {
			return err
		}
		defer func() {
			if err := engine.StopRecording(); err != nil {
				applog.Warnf("Listen: stopping recording: %v", err)
				return
			}
			applog.Infof("Listen: recording saved to %s", path)
		}()
	}

	var sess *animator.AudioSession
	var startErr error
	err = loop.Do(ctx, func() {
		sess, startErr = ctrl.StartAudio(func() (animator.SnapshotSource, error) {
			if err := engine.StartInputStream(); err != nil {
				return nil, err
			}
			return micSource{Analyser: analyser, engine: engine}, nil
		})
	})
	if err != nil {
		return err
	}
	if startErr != nil {
		return startErr
	}

	if view != nil {
		view.renderer.Status("Listening, session %s", sess.ID())
	}
	applog.Infof("Listen: animating from microphone (device %d)", cfg.Audio.InputDevice)

	select {
	case <-ctx.Done():
	case <-sess.Done():
	}

	// Stop is synchronous: no tick runs after it returns.
	if err := loop.Do(context.Background(), ctrl.Stop); err != nil {
		applog.Warnf("Listen: stopping controller: %v", err)
	}

	<-sess.Done()
	if err := sess.Err(); err != nil && !errors.Is(err, animator.ErrCancelled) {
		return fmt.Errorf("audio session: %w", err)
	}
	return nil
}

// mouthView runs the terminal mouth program alongside a command.
type mouthView struct {
	program  *tea.Program
	renderer *tui.ProgramRenderer
	done     chan struct{}
}

func startMouthView(title string, onQuit func()) *mouthView {
	p := tea.NewProgram(tui.NewMouthModel(title, onQuit), tea.WithAltScreen())
	v := &mouthView{
		program:  p,
		renderer: tui.NewProgramRenderer(p),
		done:     make(chan struct{}),
	}
	go func() {
		defer close(v.done)
		if _, err := p.Run(); err != nil {
			applog.Errorf("TUI: %v", err)
		}
		onQuit()
	}()
	return v
}

// Close stops forwarding labels and ends the program.
func (v *mouthView) Close() {
	v.renderer.Close()
	v.program.Send(tui.DoneMsg{})
	<-v.done
}
