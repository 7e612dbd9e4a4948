package tap

import (
	"slices"
	"time"
)

// KeyState is the per-key record the detector advances every tick.
//
//	Idle:         no events, not pressed
//	Pressed:      pressure above threshold, LastPressed set
//	Accumulating: one or more events, waiting for a tap or the debounce window
type KeyState struct {
	Events       []Event
	LastPressure float32
	LastPressed  time.Time // zero when unset
	LastReleased time.Time // zero when unset

	// matched is the binding index of the most recent exact match, or -1.
	// It is what the debounce path dispatches.
	matched int
}

func newKeyState() *KeyState {
	return &KeyState{matched: -1}
}

// Pending returns the remembered match index, if any.
func (s *KeyState) Pending() (int, bool) {
	return s.matched, s.matched >= 0
}

func (s *KeyState) Pressed(threshold float32) bool {
	return s.LastPressure > threshold
}

// Reset returns the key to Idle.
func (s *KeyState) Reset() {
	s.Events = s.Events[:0]
	s.LastPressure = 0
	s.LastPressed = time.Time{}
	s.LastReleased = time.Time{}
	s.matched = -1
}

func (s *KeyState) clone() KeyState {
	cp := *s
	cp.Events = slices.Clone(s.Events)
	return cp
}
