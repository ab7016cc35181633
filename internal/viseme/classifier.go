// SPDX-License-Identifier: MIT
package viseme

import "lipsync/internal/analysis"

// Thresholds are the tunable constants of the classification cascade.
type Thresholds struct {
	Silence          float64 `yaml:"silence"`            // overall below this is Closed.
	SibilantHigh     float64 `yaml:"sibilant_high"`      // high band floor for S.
	SibilantRatio    float64 `yaml:"sibilant_ratio"`     // high must exceed highMid by this factor.
	AffricateHighMid float64 `yaml:"affricate_high_mid"` // highMid floor for ChJ.
	RoundedRatio     float64 `yaml:"rounded_ratio"`      // bass must exceed mid by this factor for Oo.
	RoundedBass      float64 `yaml:"rounded_bass"`       // bass floor for Oo.
	AlveolarLowMid   float64 `yaml:"alveolar_low_mid"`   // lowMid floor for LTD.
	BilabialBass     float64 `yaml:"bilabial_bass"`      // bass floor for MBP.
	BilabialOverall  float64 `yaml:"bilabial_overall"`   // overall ceiling for MBP.
	OpenVowel        float64 `yaml:"open_vowel"`         // overall above this is Ah.
	SpreadVowel      float64 `yaml:"spread_vowel"`       // overall above this is Ee.
}

// DefaultThresholds returns the reference tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Silence:          12,
		SibilantHigh:     45,
		SibilantRatio:    1.5,
		AffricateHighMid: 40,
		RoundedRatio:     1.8,
		RoundedBass:      50,
		AlveolarLowMid:   30,
		BilabialBass:     25,
		BilabialOverall:  40,
		OpenVowel:        65,
		SpreadVowel:      30,
	}
}

// Rule pairs a predicate over a band profile with the label it selects.
type Rule struct {
	Name  string
	Label Label
	When  func(p analysis.Profile) bool
}

// Classifier picks a label by evaluating its rules top to bottom; the first
// satisfied rule wins and Default applies when none match. The order is part
// of the behaviour: more specific high-frequency signals are tested before the
// loudness based vowel fallbacks.
type Classifier struct {
	rules   []Rule
	Default Label
}

// NewClassifier builds the cascade from the given thresholds.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{
		rules: []Rule{
			{"silence", Closed, func(p analysis.Profile) bool {
				return p.Overall < t.Silence
			}},
			{"sibilant", S, func(p analysis.Profile) bool {
				return p.High > t.SibilantHigh && p.High > p.HighMid*t.SibilantRatio
			}},
			{"affricate", ChJ, func(p analysis.Profile) bool {
				return p.HighMid > t.AffricateHighMid && p.HighMid > p.Mid
			}},
			{"rounded", Oo, func(p analysis.Profile) bool {
				return p.Bass > p.Mid*t.RoundedRatio && p.Bass > t.RoundedBass
			}},
			{"alveolar", LTD, func(p analysis.Profile) bool {
				return p.LowMid > p.Mid && p.LowMid > t.AlveolarLowMid
			}},
			{"bilabial", MBP, func(p analysis.Profile) bool {
				return p.Bass > t.BilabialBass && p.Overall < t.BilabialOverall
			}},
			{"open vowel", Ah, func(p analysis.Profile) bool {
				return p.Overall > t.OpenVowel
			}},
			{"spread vowel", Ee, func(p analysis.Profile) bool {
				return p.Overall > t.SpreadVowel
			}},
		},
		Default: FV,
	}
}

// Rules returns a copy of the ordered rule list.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify returns the label of the first matching rule. It keeps no state
// between calls.
func (c *Classifier) Classify(p analysis.Profile) Label {
	label, _ := c.Explain(p)
	return label
}

// Explain is Classify plus the name of the rule that decided, "default" when
// the fallback applied.
func (c *Classifier) Explain(p analysis.Profile) (Label, string) {
	for _, r := range c.rules {
		if r.When(p) {
			return r.Label, r.Name
		}
	}
	return c.Default, "default"
}
