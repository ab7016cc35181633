// SPDX-License-Identifier: MIT

// Package app wires configuration, audio, speech and transports around an
// animator.Controller for each of the command-line entry points.
package app

import (
	"errors"
	"fmt"

	"lipsync/internal/animator"
	"lipsync/internal/analysis"
	"lipsync/internal/config"
	applog "lipsync/internal/log"
	"lipsync/internal/phoneme"
	"lipsync/internal/schedule"
	"lipsync/internal/transport"
	"lipsync/internal/transport/udp"
	"lipsync/internal/viseme"
)

// Options builds the controller pipeline described by cfg.
func Options(cfg *config.Config) animator.Options {
	return animator.Options{
		Extractor:       analysis.NewBandExtractor(cfg.Analysis.Bands),
		Classifier:      viseme.NewClassifier(cfg.Classifier),
		Tokenizer:       phoneme.NewTokenizer(nil),
		FrameInterval:   cfg.Animation.FrameInterval,
		WordDuration:    cfg.Animation.WordDuration,
		PhonemeDuration: cfg.Animation.PhonemeDuration,
	}
}

// Outputs holds the transports that receive label changes.
type Outputs struct {
	renderer  animator.Renderer
	transport transport.Transport
	latest    *transport.Latest
	websocket *transport.WebSocketTransport
	publisher *udp.UDPPublisher
	sender    *udp.UDPSender
}

// NewOutputs starts the transports enabled in cfg. Label changes are always
// logged at debug level and kept in a Latest cell. session stamps outgoing
// events and is called on the animation thread.
func NewOutputs(cfg *config.Config, session func() string) (*Outputs, error) {
	o := &Outputs{latest: &transport.Latest{}}
	multi := transport.Multi{transport.NewLoggingTransport()}

	t := cfg.Transport
	if t.WebSocketEnabled {
		o.websocket = transport.NewWebSocketTransport(t.WebSocketAddress)
		if err := o.websocket.Start(); err != nil {
			o.Close()
			return nil, fmt.Errorf("websocket transport: %w", err)
		}
		multi = append(multi, o.websocket)
	}

	if t.UDPEnabled {
		sender, err := udp.NewUDPSender(t.UDPTargetAddress)
		if err != nil {
			o.Close()
			return nil, fmt.Errorf("udp transport: %w", err)
		}
		o.sender = sender
		publisher, err := udp.NewUDPPublisher(t.UDPSendInterval, sender, o.latest)
		if err != nil {
			o.Close()
			return nil, fmt.Errorf("udp transport: %w", err)
		}
		o.publisher = publisher
		publisher.Start()
		applog.Infof("Outputs: sending labels to udp://%s every %v", sender.Target(), t.UDPSendInterval)
	}

	o.transport = multi
	o.renderer = animator.Fanout(transport.NewEventRenderer(multi, session), o.latest)
	return o, nil
}

// Renderer returns the renderer feeding every output.
func (o *Outputs) Renderer() animator.Renderer { return o.renderer }

// Latest returns the most recent label.
func (o *Outputs) Latest() *transport.Latest { return o.latest }

// Close stops every transport.
func (o *Outputs) Close() error {
	var errs []error
	if o.publisher != nil {
		errs = append(errs, o.publisher.Close())
	}
	if o.sender != nil {
		errs = append(errs, o.sender.Close())
	}
	if o.transport != nil {
		errs = append(errs, o.transport.Close())
	} else if o.websocket != nil {
		errs = append(errs, o.websocket.Close())
	}
	return errors.Join(errs...)
}

// newLoopController starts an event loop and a controller bound to it.
// renderers are added to the outputs' renderer.
func newLoopController(cfg *config.Config, renderers ...animator.Renderer) (*schedule.Loop, *animator.Controller, *Outputs, error) {
	loop := schedule.NewLoop(64)

	var ctrl *animator.Controller
	outputs, err := NewOutputs(cfg, func() string { return ctrl.SessionID() })
	if err != nil {
		loop.Stop()
		return nil, nil, nil, err
	}

	ctrl = animator.NewController(loop, animator.Fanout(append([]animator.Renderer{outputs.Renderer()}, renderers...)...), Options(cfg))
	return loop, ctrl, outputs, nil
}
