// SPDX-License-Identifier: MIT
package analysis

import "fmt"

// Snapshot is one frequency-domain capture: one unsigned magnitude per bin,
// fftSize/2 bins long. Consumers must treat it as read-only.
type Snapshot []uint8

// BandRange is a half-open range of bin indices [Start, End).
type BandRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Width returns the number of bins covered by the range.
func (r BandRange) Width() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Bands holds the bin ranges of the named energy bands. The ranges are
// configuration constants and are never derived from the snapshot.
type Bands struct {
	Bass    BandRange `yaml:"bass"`
	LowMid  BandRange `yaml:"low_mid"`
	Mid     BandRange `yaml:"mid"`
	HighMid BandRange `yaml:"high_mid"`
	High    BandRange `yaml:"high"`
}

// DefaultBands returns ranges tuned for a 256 point FFT at 44.1 kHz, where
// each bin is roughly 172 Hz wide.
func DefaultBands() Bands {
	return Bands{
		Bass:    BandRange{Start: 0, End: 3},   // ~0-520 Hz
		LowMid:  BandRange{Start: 3, End: 8},   // ~520-1400 Hz
		Mid:     BandRange{Start: 8, End: 20},  // ~1.4-3.4 kHz
		HighMid: BandRange{Start: 20, End: 40}, // ~3.4-6.9 kHz
		High:    BandRange{Start: 40, End: 80}, // ~6.9-13.8 kHz
	}
}

// Validate checks every range against the number of bins a snapshot will have.
func (b Bands) Validate(binCount int) error {
	named := []struct {
		name string
		r    BandRange
	}{
		{"bass", b.Bass},
		{"low_mid", b.LowMid},
		{"mid", b.Mid},
		{"high_mid", b.HighMid},
		{"high", b.High},
	}
	for _, band := range named {
		if band.r.Start < 0 || band.r.End <= band.r.Start {
			return fmt.Errorf("band %s has invalid range [%d,%d)", band.name, band.r.Start, band.r.End)
		}
		if band.r.End > binCount {
			return fmt.Errorf("band %s ends at bin %d, beyond the %d available bins", band.name, band.r.End, binCount)
		}
	}
	return nil
}

// Profile is the set of band-average energies computed from one snapshot.
type Profile struct {
	Overall float64 `json:"overall"`
	Bass    float64 `json:"bass"`
	LowMid  float64 `json:"lowMid"`
	Mid     float64 `json:"mid"`
	HighMid float64 `json:"highMid"`
	High    float64 `json:"high"`
}

// BandExtractor reduces a snapshot to a Profile.
type BandExtractor struct {
	bands Bands
}

// NewBandExtractor creates an extractor over the given band ranges.
func NewBandExtractor(bands Bands) BandExtractor {
	return BandExtractor{bands: bands}
}

// Bands returns the configured ranges.
func (e BandExtractor) Bands() Bands {
	return e.bands
}

// Extract computes the mean magnitude of each band. A range reaching past the
// end of the snapshot is truncated to the available bins; a range with no
// bins left averages to zero.
func (e BandExtractor) Extract(s Snapshot) Profile {
	return Profile{
		Overall: mean(s, BandRange{Start: 0, End: len(s)}),
		Bass:    mean(s, e.bands.Bass),
		LowMid:  mean(s, e.bands.LowMid),
		Mid:     mean(s, e.bands.Mid),
		HighMid: mean(s, e.bands.HighMid),
		High:    mean(s, e.bands.High),
	}
}

func mean(s Snapshot, r BandRange) float64 {
	start, end := max(r.Start, 0), min(r.End, len(s))
	if end <= start {
		return 0
	}
	var sum int
	for _, v := range s[start:end] {
		sum += int(v)
	}
	return float64(sum) / float64(end-start)
}
