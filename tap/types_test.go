package tap

import (
	"testing"
	"time"
)

func TestClassifyDefaultRanges(t *testing.T) {
	ranges := DefaultRanges()
	tests := []struct {
		d    time.Duration
		want Category
	}{
		{0, Short},
		{120 * time.Millisecond, Short},
		{300 * time.Millisecond, Short},
		{300*time.Millisecond + time.Microsecond, Short}, // between ranges: falls back to first
		{301 * time.Millisecond, Long},
		{10 * time.Second, Long},
	}
	for _, tt := range tests {
		if got := Classify(tt.d, ranges); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	ranges := []Range{
		NewRange(0, 100*time.Millisecond, Custom("flick")),
		NewRange(50*time.Millisecond, 500*time.Millisecond, Short),
		NewRange(501*time.Millisecond, 2*time.Second, Long),
	}
	if got := Classify(80*time.Millisecond, ranges); got != Custom("flick") {
		t.Errorf("overlap: got %q, want flick", got)
	}
	if got := Classify(200*time.Millisecond, ranges); got != Short {
		t.Errorf("got %q, want short", got)
	}
}

func TestClassifyFallsBackToFirstRange(t *testing.T) {
	ranges := []Range{
		NewRange(100*time.Millisecond, 200*time.Millisecond, Long),
		NewRange(300*time.Millisecond, 400*time.Millisecond, Short),
	}
	for _, d := range []time.Duration{0, 250 * time.Millisecond, time.Hour} {
		if got := Classify(d, ranges); got != Long {
			t.Errorf("Classify(%v) = %q, want fallback %q", d, got, Long)
		}
	}
}

func TestClassifyNoRanges(t *testing.T) {
	if got := Classify(time.Second, nil); got != "" {
		t.Errorf("got %q, want zero category", got)
	}
}

func TestKeyConfigTapCarriesPressure(t *testing.T) {
	cfg := NewKeyConfig(testKey)
	tp := cfg.Tap(450*time.Millisecond, 0.25)
	if tp.Category != Long || tp.Duration != 450*time.Millisecond || tp.Pressure != 0.25 {
		t.Errorf("unexpected tap %+v", tp)
	}
}
