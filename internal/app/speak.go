// SPDX-License-Identifier: MIT
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lipsync/internal/animator"
	"lipsync/internal/config"
	applog "lipsync/internal/log"
	"lipsync/internal/speech"
)

// NewSynthesizer returns the configured speech engine: an external command
// when one is set, otherwise a silent synthesizer paced at the word rate.
func NewSynthesizer(cfg *config.Config) speech.Synthesizer {
	logger := applog.Component("speech")
	if cfg.Speech.Command == "" {
		return speech.NewPaced(logger, cfg.Animation.WordDuration)
	}
	cmd := speech.NewCommand(logger, speech.CommandConfig{
		Name:   cfg.Speech.Command,
		Args:   cfg.Speech.Args,
		LeadIn: cfg.Speech.LeadIn,
	})
	if !cmd.IsAvailable() {
		applog.Warnf("Speak: %s not found on PATH, speaking silently", cfg.Speech.Command)
		return speech.NewPaced(logger, cfg.Animation.WordDuration)
	}
	return cmd
}

// Speak animates the mouth for text while synth speaks it, and returns once
// the utterance has finished.
func Speak(ctx context.Context, cfg *config.Config, text string, synth speech.Synthesizer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var extra []animator.Renderer
	var view *mouthView
	if cfg.TUIMode {
		view = startMouthView("lipsync speak", cancel)
		defer view.Close()
		extra = append(extra, view.renderer)
	}

	loop, ctrl, outputs, err := newLoopController(cfg, extra...)
	if err != nil {
		return err
	}
	defer loop.Stop()
	defer outputs.Close()

	var utt *animator.Utterance
	if err := loop.Do(ctx, func() { utt = ctrl.StartText(text) }); err != nil {
		return err
	}
	if view != nil {
		view.renderer.Status("Speaking %q", text)
	}
	applog.Infof("Speak: %d words, session %s", len(strings.Fields(text)), utt.ID())

	speakErr := synth.Speak(ctx, text, speech.Via(loop.Post, utt))

	select {
	case <-utt.Done():
	case <-ctx.Done():
		if err := loop.Do(context.Background(), ctrl.Stop); err != nil {
			applog.Warnf("Speak: stopping controller: %v", err)
		}
		<-utt.Done()
	}

	if speakErr != nil {
		if errors.Is(speakErr, context.Canceled) {
			return nil
		}
		return fmt.Errorf("speech: %w", speakErr)
	}
	return nil
}
