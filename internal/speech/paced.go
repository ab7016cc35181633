// SPDX-License-Identifier: MIT
package speech

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Paced is a silent synthesizer that "speaks" at a fixed rate of one word
// per WordDuration. It stands in for a real engine when none is configured.
type Paced struct {
	WordDuration time.Duration
	logger       zerolog.Logger
}

// NewPaced returns a Paced synthesizer.
func NewPaced(logger zerolog.Logger, wordDuration time.Duration) *Paced {
	if wordDuration <= 0 {
		wordDuration = 300 * time.Millisecond
	}
	return &Paced{
		WordDuration: wordDuration,
		logger:       logger.With().Str("provider", "paced").Logger(),
	}
}

// Speak implements Synthesizer.
func (p *Paced) Speak(ctx context.Context, text string, ev Events) error {
	words := len(strings.Fields(text))
	if words == 0 {
		ev.Failed(ErrEmptyText)
		return ErrEmptyText
	}

	d := time.Duration(words) * p.WordDuration
	p.logger.Debug().Int("words", words).Dur("duration", d).Msg("Speaking")

	ev.Started()
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		ev.Ended()
		return nil
	case <-ctx.Done():
		ev.Failed(ctx.Err())
		return ctx.Err()
	}
}
