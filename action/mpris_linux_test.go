//go:build linux

package action

import (
	"slices"
	"testing"
)

func TestMPRISFallsBackForNonMediaKeys(t *testing.T) {
	rec := NewRecorder()
	m := &MPRIS{Fallback: rec}

	// Non-media keys never touch the bus, so this runs without a session.
	for _, k := range []Key{F14, VolumeDown} {
		if err := m.Send(k); err != nil {
			t.Fatalf("Send(%s): %v", k, err)
		}
	}
	if got := rec.Sent(); !slices.Equal(got, []Key{F14, VolumeDown}) {
		t.Errorf("fallback got %q", got)
	}
}

func TestMPRISCoversTransportKeys(t *testing.T) {
	for _, k := range Keys() {
		_, ok := mprisMethods[k]
		if ok != k.IsMedia() {
			t.Errorf("%s: mpris method %v, IsMedia %v", k, ok, k.IsMedia())
		}
	}
}
