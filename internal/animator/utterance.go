// SPDX-License-Identifier: MIT
package animator

import (
	"lipsync/internal/phoneme"
	"lipsync/internal/schedule"
)

type utteranceState int

const (
	awaitingStart utteranceState = iota
	playing
	finished
)

// Utterance animates one text-to-speech request. It waits for Started, then
// plays its Timeline on two timers: one advancing words, one advancing
// visemes within the current word. All methods must be called on the
// controller's scheduler thread.
type Utterance struct {
	id       string
	text     string
	c        *Controller
	state    utteranceState
	timeline Timeline

	word, viseme int
	wordTimer    schedule.Handle
	visemeTimer  schedule.Handle

	err  error
	done chan struct{}
}

func newUtterance(c *Controller, id, text string) *Utterance {
	return &Utterance{
		id:   id,
		text: text,
		c:    c,
		done: make(chan struct{}),
	}
}

// ID returns the session identifier.
func (u *Utterance) ID() string { return u.id }

// Text returns the text being spoken.
func (u *Utterance) Text() string { return u.text }

// Timeline returns the playback plan, empty until Started.
func (u *Utterance) Timeline() Timeline { return u.timeline }

// Done is closed when the utterance ends for any reason.
func (u *Utterance) Done() <-chan struct{} { return u.done }

// Err reports why the utterance ended: nil when it ran out of words or the
// speech engine reported the end, the engine's error on failure, or
// ErrCancelled.
func (u *Utterance) Err() error { return u.err }

func (u *Utterance) kind() Kind { return Text }

// Started begins word playback. It is ignored unless the utterance is still
// waiting to start.
func (u *Utterance) Started() {
	if u.state != awaitingStart {
		return
	}
	o := u.c.opts
	u.timeline = BuildTimeline(o.Tokenizer, u.text, o.WordDuration, o.PhonemeDuration)
	u.c.log.Debug().Str("session", u.id).Int("words", len(u.timeline.Words)).Msg("Utterance: started")

	if len(u.timeline.Words) == 0 {
		u.c.finish(u, nil)
		return
	}
	u.state = playing
	u.showWord(0)
}

// Ended stops playback when the speech engine finishes.
func (u *Utterance) Ended() {
	if u.state == finished {
		return
	}
	u.c.log.Debug().Str("session", u.id).Msg("Utterance: ended")
	u.c.finish(u, nil)
}

// Failed stops playback when the speech engine reports an error.
func (u *Utterance) Failed(err error) {
	if u.state == finished {
		return
	}
	u.c.log.Warn().Err(err).Str("session", u.id).Msg("Utterance: synthesis failed")
	u.c.finish(u, err)
}

func (u *Utterance) showWord(i int) {
	u.word, u.viseme = i, 0
	if u.visemeTimer != nil {
		u.visemeTimer.Cancel()
		u.visemeTimer = nil
	}

	seq := u.timeline.Words[i].Visemes
	if len(seq) == 0 {
		u.c.publish(phoneme.Fallback)
	} else {
		u.c.publish(seq[0])
	}
	if u.state != playing {
		return
	}
	if len(seq) > 1 {
		u.visemeTimer = u.c.sched.After(u.timeline.PhonemeDuration, u.nextViseme)
	}
	u.wordTimer = u.c.sched.After(u.timeline.WordDuration, u.nextWord)
}

func (u *Utterance) nextViseme() {
	if u.state != playing {
		return
	}
	seq := u.timeline.Words[u.word].Visemes
	u.viseme++
	u.visemeTimer = nil
	u.c.publish(seq[u.viseme])
	if u.state == playing && u.viseme+1 < len(seq) {
		u.visemeTimer = u.c.sched.After(u.timeline.PhonemeDuration, u.nextViseme)
	}
}

func (u *Utterance) nextWord() {
	if u.state != playing {
		return
	}
	if u.word+1 < len(u.timeline.Words) {
		u.showWord(u.word + 1)
		return
	}
	u.c.finish(u, nil)
}

func (u *Utterance) halt(err error) {
	if u.state == finished {
		return
	}
	u.state = finished
	u.err = err
	if u.wordTimer != nil {
		u.wordTimer.Cancel()
	}
	if u.visemeTimer != nil {
		u.visemeTimer.Cancel()
	}
	close(u.done)
}
