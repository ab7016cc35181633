// SPDX-License-Identifier: MIT
package animator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lipsync/internal/analysis"
	"lipsync/internal/log"
	"lipsync/internal/phoneme"
	"lipsync/internal/schedule"
	"lipsync/internal/viseme"
)

// Kind identifies the active session.
type Kind int

const (
	None Kind = iota
	Audio
	Text
)

func (k Kind) String() string {
	switch k {
	case Audio:
		return "audio"
	case Text:
		return "text"
	default:
		return "none"
	}
}

// Options configures the controller's pipeline and timing.
type Options struct {
	Extractor       analysis.BandExtractor
	Classifier      *viseme.Classifier
	Tokenizer       *phoneme.Tokenizer
	FrameInterval   time.Duration
	WordDuration    time.Duration
	PhonemeDuration time.Duration
}

// DefaultOptions returns the reference pipeline: default bands, thresholds
// and grapheme table, a 16ms frame, 300ms words and 120ms visemes.
func DefaultOptions() Options {
	return Options{
		Extractor:       analysis.NewBandExtractor(analysis.DefaultBands()),
		Classifier:      viseme.NewClassifier(viseme.DefaultThresholds()),
		Tokenizer:       phoneme.NewTokenizer(nil),
		FrameInterval:   16 * time.Millisecond,
		WordDuration:    300 * time.Millisecond,
		PhonemeDuration: 120 * time.Millisecond,
	}
}

type session interface {
	ID() string
	Done() <-chan struct{}
	kind() Kind
	halt(err error)
}

// Controller owns the current mouth shape and at most one animation
// session. It is not safe for concurrent use: every method, and every
// session callback, runs on the scheduler's thread.
type Controller struct {
	sched    schedule.Scheduler
	renderer Renderer
	opts     Options
	log      zerolog.Logger

	label   viseme.Label
	session session
}

// NewController returns an idle controller showing Closed. Zero fields in
// opts take their defaults.
func NewController(sched schedule.Scheduler, renderer Renderer, opts Options) *Controller {
	def := DefaultOptions()
	if opts.Classifier == nil {
		opts.Classifier = def.Classifier
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = def.Tokenizer
	}
	if opts.Extractor == (analysis.BandExtractor{}) {
		opts.Extractor = def.Extractor
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = def.FrameInterval
	}
	if opts.WordDuration <= 0 {
		opts.WordDuration = def.WordDuration
	}
	if opts.PhonemeDuration <= 0 {
		opts.PhonemeDuration = def.PhonemeDuration
	}
	if renderer == nil {
		renderer = RendererFunc(func(viseme.Label) {})
	}
	return &Controller{
		sched:    sched,
		renderer: renderer,
		opts:     opts,
		log:      log.Component("animator"),
		label:    viseme.Closed,
	}
}

// Label returns the mouth shape currently shown.
func (c *Controller) Label() viseme.Label { return c.label }

// Active returns the kind of the running session.
func (c *Controller) Active() Kind {
	if c.session == nil {
		return None
	}
	return c.session.kind()
}

// SessionID returns the running session's identifier, or "".
func (c *Controller) SessionID() string {
	if c.session == nil {
		return ""
	}
	return c.session.ID()
}

// Options returns the effective options.
func (c *Controller) Options() Options { return c.opts }

// StartAudio cancels any running session, acquires a source with open and
// starts ticking. The first frame is processed before StartAudio returns.
// If open fails the controller is left idle showing Closed and the error
// wraps ErrAcquisition.
func (c *Controller) StartAudio(open func() (SnapshotSource, error)) (*AudioSession, error) {
	c.Stop()

	src, err := open()
	if err != nil {
		c.log.Error().Err(err).Msg("Controller: audio source unavailable")
		return nil, fmt.Errorf("%w: %w", ErrAcquisition, err)
	}

	s := newAudioSession(c, uuid.NewString(), src)
	c.session = s
	c.log.Info().Str("session", s.id).Msg("Controller: audio session started")
	s.tick()
	return s, nil
}

// StartText cancels any running session and returns an utterance waiting
// for its Started signal.
func (c *Controller) StartText(text string) *Utterance {
	c.Stop()

	u := newUtterance(c, uuid.NewString(), text)
	c.session = u
	c.log.Info().Str("session", u.id).Int("chars", len(text)).Msg("Controller: text session created")
	return u
}

// Stop cancels the running session, if any, and shows Closed.
func (c *Controller) Stop() {
	if c.session != nil {
		s := c.session
		c.session = nil
		s.halt(ErrCancelled)
		c.log.Debug().Str("session", s.ID()).Msg("Controller: session cancelled")
	}
	c.publish(viseme.Closed)
}

// finish ends s on its own terms. A session that is no longer current only
// halts; it cannot touch the label.
func (c *Controller) finish(s session, err error) {
	s.halt(err)
	if c.session != s {
		return
	}
	c.session = nil
	c.publish(viseme.Closed)
}

func (c *Controller) publish(label viseme.Label) {
	if label == c.label {
		return
	}
	c.label = label
	c.renderer.RenderViseme(label)
}
