// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

func constSnapshot(n int, v uint8) Snapshot {
	s := make(Snapshot, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestExtractBandMeans(t *testing.T) {
	bands := Bands{
		Bass:    BandRange{0, 2},
		LowMid:  BandRange{2, 4},
		Mid:     BandRange{4, 6},
		HighMid: BandRange{6, 8},
		High:    BandRange{8, 10},
	}
	s := Snapshot{10, 20, 30, 30, 0, 100, 5, 5, 255, 1}

	got := NewBandExtractor(bands).Extract(s)
	want := Profile{
		Overall: 456.0 / 10,
		Bass:    15,
		LowMid:  30,
		Mid:     50,
		HighMid: 5,
		High:    128,
	}

	if got != want {
		t.Errorf("Extract() = %+v, want %+v", got, want)
	}
}

func TestExtractTruncatesShortSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		want     Profile
	}{
		{
			name:     "Empty snapshot",
			snapshot: Snapshot{},
			want:     Profile{},
		},
		{
			name:     "High band partly available",
			snapshot: constSnapshot(50, 40),
			want:     Profile{Overall: 40, Bass: 40, LowMid: 40, Mid: 40, HighMid: 40, High: 40},
		},
		{
			name:     "High band missing",
			snapshot: constSnapshot(30, 40),
			want:     Profile{Overall: 40, Bass: 40, LowMid: 40, Mid: 40, HighMid: 40, High: 0},
		},
	}

	extractor := NewBandExtractor(DefaultBands())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractor.Extract(tt.snapshot)
			if got != tt.want {
				t.Errorf("Extract() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractIsPure(t *testing.T) {
	s := Snapshot{1, 2, 3, 4, 5, 6, 7, 8}
	orig := append(Snapshot(nil), s...)
	extractor := NewBandExtractor(DefaultBands())

	first := extractor.Extract(s)
	second := extractor.Extract(s)

	if first != second {
		t.Errorf("Extract() not deterministic: %+v vs %+v", first, second)
	}
	for i := range s {
		if s[i] != orig[i] {
			t.Fatalf("Extract() modified the snapshot at %d", i)
		}
	}
}

func TestBandsValidate(t *testing.T) {
	if err := DefaultBands().Validate(128); err != nil {
		t.Errorf("default bands should validate against 128 bins: %v", err)
	}

	bad := DefaultBands()
	bad.Mid = BandRange{Start: 10, End: 10}
	if err := bad.Validate(128); err == nil {
		t.Error("expected error for empty mid range")
	}

	if err := DefaultBands().Validate(64); err == nil {
		t.Error("expected error when high band ends beyond the bin count")
	}
}

func TestExtractHotPath(t *testing.T) {
	extractor := NewBandExtractor(DefaultBands())
	s := constSnapshot(128, 77)

	allocs := testing.AllocsPerRun(100, func() {
		p := extractor.Extract(s)
		if math.IsNaN(p.Overall) {
			t.Fatal("unexpected NaN")
		}
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Extract, got %.1f", allocs)
	}
}

func BenchmarkExtract(b *testing.B) {
	extractor := NewBandExtractor(DefaultBands())
	s := constSnapshot(128, 77)

	b.ReportAllocs()
	for b.Loop() {
		_ = extractor.Extract(s)
	}
}
