// Package tap turns pressure readings from a single key into tap gestures
// and fires the action bound to a completed tap sequence.
//
// A press/release cycle becomes a Tap whose Category is chosen by the key's
// duration ranges. Taps accumulate per key until they match a registered
// Sequence. A match that is also the prefix of a longer sequence is held
// back until either more taps arrive or the key's debounce window passes.
package tap

import (
	"math"
	"time"
)

// Category labels a tap by which duration range it fell into. Only the
// category takes part in sequence matching.
type Category string

const (
	Short Category = "short"
	Long  Category = "long"
)

// Custom returns a category for a user-defined duration band.
func Custom(name string) Category { return Category(name) }

// MaxDuration is the open upper bound of the default long range.
const MaxDuration = time.Duration(math.MaxInt64)

// Range maps press durations in [Min, Max] (both inclusive) to a category.
type Range struct {
	Min      time.Duration
	Max      time.Duration
	Category Category
}

func NewRange(min, max time.Duration, c Category) Range {
	return Range{Min: min, Max: max, Category: c}
}

func ShortRange() Range { return NewRange(0, 300*time.Millisecond, Short) }
func LongRange() Range  { return NewRange(301*time.Millisecond, MaxDuration, Long) }

func DefaultRanges() []Range { return []Range{ShortRange(), LongRange()} }

func (r Range) Contains(d time.Duration) bool {
	return d >= r.Min && d <= r.Max
}

// Classify returns the category of the first range containing d. A duration
// outside every range falls back to the first range's category. With no
// ranges at all the zero Category is returned.
func Classify(d time.Duration, ranges []Range) Category {
	for _, r := range ranges {
		if r.Contains(d) {
			return r.Category
		}
	}
	if len(ranges) == 0 {
		return ""
	}
	return ranges[0].Category
}

// Tap is one completed press and release.
type Tap struct {
	Duration time.Duration
	Pressure float32 // reading at release
	Category Category
}

// Event is one entry of a key's accumulated tap history.
type Event struct {
	Tap Tap
}
