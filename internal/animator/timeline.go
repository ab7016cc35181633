// SPDX-License-Identifier: MIT
package animator

import (
	"time"

	"lipsync/internal/phoneme"
)

// Word is one whitespace separated word of an utterance and its mouth shapes.
type Word struct {
	Text    string           `json:"text"`
	Visemes phoneme.Sequence `json:"visemes"`
}

// Timeline is the fixed-rate playback plan for an utterance. Every word gets
// WordDuration; within a word, visemes advance every PhonemeDuration until
// the word's time runs out.
type Timeline struct {
	Words           []Word        `json:"words"`
	WordDuration    time.Duration `json:"word_duration"`
	PhonemeDuration time.Duration `json:"phoneme_duration"`
}

// BuildTimeline tokenizes text word by word.
func BuildTimeline(tok *phoneme.Tokenizer, text string, wordDuration, phonemeDuration time.Duration) Timeline {
	fields := tok.Words(text)
	words := make([]Word, len(fields))
	for i, f := range fields {
		words[i] = Word{Text: f, Visemes: tok.Tokenize(f)}
	}
	return Timeline{
		Words:           words,
		WordDuration:    wordDuration,
		PhonemeDuration: phonemeDuration,
	}
}

// Duration is the time from the first word to the final Closed.
func (t Timeline) Duration() time.Duration {
	return time.Duration(len(t.Words)) * t.WordDuration
}
