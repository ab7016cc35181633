// SPDX-License-Identifier: MIT
package phoneme

import (
	"fmt"
	"sort"
	"strings"

	"lipsync/internal/viseme"
)

// Entry maps a grapheme key to a mouth shape.
type Entry struct {
	Key   string
	Label viseme.Label
}

// Table is an ordered grapheme table. Longer keys come first so that
// digraphs and trigraphs win over their leading letter.
type Table []Entry

// NewTable lower-cases the keys and orders them by descending length, ties
// alphabetically. Empty or duplicate keys are rejected.
func NewTable(entries map[string]viseme.Label) (Table, error) {
	t := make(Table, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for key, label := range entries {
		k := strings.ToLower(key)
		if k == "" {
			return nil, fmt.Errorf("phoneme table: empty key")
		}
		if !label.Valid() {
			return nil, fmt.Errorf("phoneme table: key '%s' maps to invalid label %d", key, uint8(label))
		}
		if _, ok := seen[k]; ok {
			return nil, fmt.Errorf("phoneme table: duplicate key '%s'", k)
		}
		seen[k] = struct{}{}
		t = append(t, Entry{Key: k, Label: label})
	}
	sort.Slice(t, func(i, j int) bool {
		if len(t[i].Key) != len(t[j].Key) {
			return len(t[i].Key) > len(t[j].Key)
		}
		return t[i].Key < t[j].Key
	})
	return t, nil
}

// DefaultEntries returns the English grapheme heuristics: every ASCII letter
// plus the common multi-letter spellings.
func DefaultEntries() map[string]viseme.Label {
	return map[string]viseme.Label{
		// Trigraphs.
		"tch": viseme.ChJ,
		"igh": viseme.Ah,

		// Digraphs.
		"sh": viseme.ChJ,
		"ch": viseme.ChJ,
		"zh": viseme.ChJ,
		"th": viseme.LTD,
		"ph": viseme.FV,
		"wh": viseme.Oo,
		"qu": viseme.Oo,
		"ng": viseme.LTD,
		"ck": viseme.LTD,
		"oo": viseme.Oo,
		"ee": viseme.Ee,
		"ea": viseme.Ee,
		"ou": viseme.Oo,
		"ow": viseme.Oo,

		// Vowels.
		"a": viseme.Ah,
		"e": viseme.Ee,
		"i": viseme.Ee,
		"y": viseme.Ee,
		"o": viseme.Oo,
		"u": viseme.Oo,
		"w": viseme.Oo,
		"q": viseme.Oo,
		"h": viseme.Ah,

		// Consonants.
		"b": viseme.MBP,
		"m": viseme.MBP,
		"p": viseme.MBP,
		"f": viseme.FV,
		"v": viseme.FV,
		"s": viseme.S,
		"z": viseme.S,
		"c": viseme.S,
		"x": viseme.S,
		"j": viseme.ChJ,
		"t": viseme.LTD,
		"d": viseme.LTD,
		"n": viseme.LTD,
		"l": viseme.LTD,
		"k": viseme.LTD,
		"g": viseme.LTD,
		"r": viseme.LTD,
	}
}

// DefaultTable is NewTable(DefaultEntries()).
func DefaultTable() Table {
	t, err := NewTable(DefaultEntries())
	if err != nil {
		panic(err)
	}
	return t
}
