// SPDX-License-Identifier: MIT
package viseme

import (
	"encoding/json"
	"testing"
)

func TestLabelZeroValueIsClosed(t *testing.T) {
	var l Label
	if l != Closed {
		t.Errorf("zero Label = %v, want Closed", l)
	}
}

func TestParseLabel(t *testing.T) {
	for _, l := range All() {
		got, err := ParseLabel(l.String())
		if err != nil || got != l {
			t.Errorf("ParseLabel(%q) = %v, %v", l.String(), got, err)
		}
	}

	if got, err := ParseLabel("chj"); err != nil || got != ChJ {
		t.Errorf("ParseLabel is not case-insensitive: %v, %v", got, err)
	}
	if _, err := ParseLabel("Uh"); err == nil {
		t.Error("expected error for unknown label")
	}
}

func TestLabelString(t *testing.T) {
	if len(All()) != 9 {
		t.Fatalf("expected 9 labels, got %d", len(All()))
	}
	if Label(42).Valid() {
		t.Error("Label(42) should not be valid")
	}
	if Label(42).String() != "Label(42)" {
		t.Errorf("unexpected string for invalid label: %s", Label(42))
	}
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(Event{Viseme: MBP, Seq: 7, Timestamp: 1000})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"viseme":"MBP","seq":7,"timestamp":1000}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var ev Event
	if err := json.Unmarshal([]byte(`{"viseme":"Oo","seq":1}`), &ev); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if ev.Viseme != Oo {
		t.Errorf("Unmarshal() viseme = %v, want Oo", ev.Viseme)
	}

	if _, err := json.Marshal(Event{Viseme: Label(99)}); err == nil {
		t.Error("expected error marshalling an invalid label")
	}
}
