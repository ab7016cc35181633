// SPDX-License-Identifier: MIT
package phoneme

import (
	"strings"
	"unicode/utf8"

	"lipsync/internal/viseme"
)

// Sequence is the ordered list of mouth shapes for one word.
type Sequence []viseme.Label

// Fallback is shown for a word with no recognisable graphemes.
const Fallback = viseme.FV

// Tokenizer splits words into viseme sequences by greedy longest match
// against a Table.
type Tokenizer struct {
	table Table
}

// NewTokenizer returns a tokenizer over t. A nil table uses DefaultTable.
func NewTokenizer(t Table) *Tokenizer {
	if t == nil {
		t = DefaultTable()
	}
	return &Tokenizer{table: t}
}

// Table returns the ordered table in use.
func (t *Tokenizer) Table() Table {
	return t.table
}

// Tokenize scans word left to right. At each position the longest matching
// key wins and the cursor moves past it; a position no key matches is
// skipped. The result may be empty.
func (t *Tokenizer) Tokenize(word string) Sequence {
	w := strings.ToLower(word)
	seq := make(Sequence, 0, len(w))
	for i := 0; i < len(w); {
		if e, ok := t.match(w[i:]); ok {
			seq = append(seq, e.Label)
			i += len(e.Key)
			continue
		}
		_, size := utf8.DecodeRuneInString(w[i:])
		i += size
	}
	return seq
}

func (t *Tokenizer) match(s string) (Entry, bool) {
	for _, e := range t.table {
		if strings.HasPrefix(s, e.Key) {
			return e, true
		}
	}
	return Entry{}, false
}

// Words splits text on whitespace.
func (t *Tokenizer) Words(text string) []string {
	return strings.Fields(text)
}
