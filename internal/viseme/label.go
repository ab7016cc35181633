// SPDX-License-Identifier: MIT
package viseme

import (
	"fmt"
	"strings"
)

// Label is a discrete mouth shape. The zero value is Closed.
type Label uint8

// The closed set of mouth shapes.
const (
	Closed Label = iota // Rest, silence.
	Ah                  // Open vowel.
	Ee                  // Spread vowel.
	Oo                  // Rounded vowel.
	FV                  // Labiodental fricative, also the unvoiced fallback.
	S                   // Sibilant.
	MBP                 // Bilabial.
	LTD                 // Alveolar.
	ChJ                 // Affricate / postalveolar.

	numLabels = iota
)

// Count is the number of labels.
const Count = numLabels

var labelNames = [numLabels]string{
	Closed: "Closed",
	Ah:     "Ah",
	Ee:     "Ee",
	Oo:     "Oo",
	FV:     "FV",
	S:      "S",
	MBP:    "MBP",
	LTD:    "LTD",
	ChJ:    "ChJ",
}

// All returns every label in declaration order.
func All() []Label {
	labels := make([]Label, numLabels)
	for i := range labels {
		labels[i] = Label(i)
	}
	return labels
}

// Valid reports whether l is one of the declared labels.
func (l Label) Valid() bool {
	return int(l) < numLabels
}

func (l Label) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Label(%d)", uint8(l))
	}
	return labelNames[l]
}

// ParseLabel converts a label name (case-insensitive) to a Label.
func ParseLabel(name string) (Label, error) {
	for i, n := range labelNames {
		if strings.EqualFold(n, name) {
			return Label(i), nil
		}
	}
	return Closed, fmt.Errorf("unknown viseme label: '%s'", name)
}

// MarshalText implements encoding.TextMarshaler so labels travel by name in
// JSON and YAML.
func (l Label) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid viseme label %d", uint8(l))
	}
	return []byte(labelNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
