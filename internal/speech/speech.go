// SPDX-License-Identifier: MIT

// Package speech is the boundary to the text-to-speech engine. A Synthesizer
// speaks text and reports its lifecycle through Events; it knows nothing
// about mouth shapes.
package speech

import (
	"context"
	"errors"
)

// ErrEmptyText is returned when there is nothing to speak.
var ErrEmptyText = errors.New("speech: empty text")

// Events receives the lifecycle of one utterance. Exactly one of Ended or
// Failed follows Started, and Failed may also arrive without Started.
type Events interface {
	Started()
	Ended()
	Failed(err error)
}

// Synthesizer speaks text, blocking until playback ends, fails or ctx is
// cancelled.
type Synthesizer interface {
	Speak(ctx context.Context, text string, ev Events) error
}

type posted struct {
	post func(func()) bool
	ev   Events
}

// Via returns Events that forward each signal through post, typically an
// event loop's Post, so the receiver sees them on its own thread.
func Via(post func(func()) bool, ev Events) Events {
	return posted{post: post, ev: ev}
}

func (p posted) Started()         { p.post(p.ev.Started) }
func (p posted) Ended()           { p.post(p.ev.Ended) }
func (p posted) Failed(err error) { p.post(func() { p.ev.Failed(err) }) }
