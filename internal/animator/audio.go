// SPDX-License-Identifier: MIT
package animator

import (
	"io"

	"lipsync/internal/analysis"
	"lipsync/internal/schedule"
)

// SnapshotSource supplies the current spectrum. io.EOF (or an error wrapping
// it) means playback has ended.
type SnapshotSource interface {
	Snapshot() (analysis.Snapshot, error)
}

// AudioSession drives the label from a live spectrum, one tick per frame.
type AudioSession struct {
	id      string
	c       *Controller
	src     SnapshotSource
	next    schedule.Handle
	ticks   int
	err     error
	stopped bool
	done    chan struct{}
}

func newAudioSession(c *Controller, id string, src SnapshotSource) *AudioSession {
	return &AudioSession{
		id:   id,
		c:    c,
		src:  src,
		done: make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *AudioSession) ID() string { return s.id }

// Done is closed when the session ends for any reason.
func (s *AudioSession) Done() <-chan struct{} { return s.done }

// Err reports why the session ended: nil for end of playback, ErrCancelled
// when replaced or stopped, or the source error.
func (s *AudioSession) Err() error { return s.err }

// Ticks returns the number of frames processed.
func (s *AudioSession) Ticks() int { return s.ticks }

func (s *AudioSession) kind() Kind { return Audio }

func (s *AudioSession) tick() {
	if s.stopped {
		return
	}

	snap, err := s.src.Snapshot()
	if err != nil {
		if analysis.IsClosed(err) {
			s.c.log.Debug().Str("session", s.id).Int("ticks", s.ticks).Msg("Audio session: end of playback")
			s.c.finish(s, nil)
			return
		}
		s.c.log.Warn().Err(err).Str("session", s.id).Msg("Audio session: snapshot failed")
		s.c.finish(s, err)
		return
	}

	s.ticks++
	profile := s.c.opts.Extractor.Extract(snap)
	label, rule := s.c.opts.Classifier.Explain(profile)
	if e := s.c.log.Debug(); e.Enabled() {
		e.Str("session", s.id).
			Float64("overall", profile.Overall).
			Str("rule", rule).
			Stringer("label", label).
			Msg("Audio session: tick")
	}

	s.c.publish(label)
	// The renderer may have stopped us.
	if s.stopped {
		return
	}
	s.next = s.c.sched.After(s.c.opts.FrameInterval, s.tick)
}

func (s *AudioSession) halt(err error) {
	if s.stopped {
		return
	}
	s.stopped = true
	s.err = err
	if s.next != nil {
		s.next.Cancel()
	}
	if closer, ok := s.src.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			s.c.log.Debug().Err(cerr).Str("session", s.id).Msg("Audio session: closing source")
		}
	}
	close(s.done)
}
