package tap

import (
	"slices"
	"time"

	"tapkey/keyboard"
)

const DefaultDebounce = 300 * time.Millisecond

// Action runs when its sequence completes. It is called from the polling
// goroutine and may be shared by several bindings.
type Action func()

// Binding pairs a sequence with its action. Name is only used for reporting.
type Binding struct {
	Name     string
	Sequence Sequence
	Action   Action
}

// KeyConfig binds one key to its duration ranges, patterns, debounce window
// and activation threshold. The detector keeps its own copy, so changes made
// after AddKeyConfig have no effect.
type KeyConfig struct {
	key       keyboard.KeyCode
	ranges    []Range
	bindings  []Binding
	debounce  time.Duration
	threshold float32
}

func NewKeyConfig(key keyboard.KeyCode) *KeyConfig {
	return &KeyConfig{
		key:      key,
		ranges:   DefaultRanges(),
		debounce: DefaultDebounce,
	}
}

// WithRanges replaces the duration ranges. Order matters: the first
// matching range wins and the first range is the fallback.
func (c *KeyConfig) WithRanges(ranges ...Range) *KeyConfig {
	c.ranges = slices.Clone(ranges)
	return c
}

func (c *KeyConfig) WithDebounce(d time.Duration) *KeyConfig {
	c.debounce = d
	return c
}

// WithThreshold sets the pressure a reading must exceed to count as pressed.
func (c *KeyConfig) WithThreshold(p float32) *KeyConfig {
	c.threshold = p
	return c
}

// AddPattern binds seq to action. Sequences are not validated; an empty
// sequence is accepted but can never fire, since patterns are only checked
// after a tap has been recorded.
func (c *KeyConfig) AddPattern(seq Sequence, action Action) *KeyConfig {
	return c.AddNamedPattern(seq.String(), seq, action)
}

func (c *KeyConfig) AddNamedPattern(name string, seq Sequence, action Action) *KeyConfig {
	c.bindings = append(c.bindings, Binding{
		Name:     name,
		Sequence: slices.Clone(seq),
		Action:   action,
	})
	return c
}

func (c *KeyConfig) Key() keyboard.KeyCode   { return c.key }
func (c *KeyConfig) Ranges() []Range         { return slices.Clone(c.ranges) }
func (c *KeyConfig) Bindings() []Binding     { return slices.Clone(c.bindings) }
func (c *KeyConfig) Debounce() time.Duration { return c.debounce }
func (c *KeyConfig) Threshold() float32      { return c.threshold }

// Tap classifies a completed press.
func (c *KeyConfig) Tap(d time.Duration, pressure float32) Tap {
	return Tap{Duration: d, Pressure: pressure, Category: Classify(d, c.ranges)}
}

// FindMatch returns the index of the first binding whose sequence exactly
// matches events.
func (c *KeyConfig) FindMatch(events []Event) (int, bool) {
	for i, b := range c.bindings {
		if b.Sequence.Matches(events) {
			return i, true
		}
	}
	return -1, false
}

// HasLongerPatterns reports whether some binding could still complete if
// more taps arrive.
func (c *KeyConfig) HasLongerPatterns(events []Event) bool {
	return HasLongerExtension(events, c.patterns())
}

func (c *KeyConfig) patterns() []Sequence {
	seqs := make([]Sequence, len(c.bindings))
	for i, b := range c.bindings {
		seqs[i] = b.Sequence
	}
	return seqs
}

func (c *KeyConfig) clone() *KeyConfig {
	cp := *c
	cp.ranges = slices.Clone(c.ranges)
	cp.bindings = slices.Clone(c.bindings)
	return &cp
}
