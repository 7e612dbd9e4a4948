package tap

import "strings"

// Sequence is an ordered list of tap categories bound to an action.
type Sequence []Category

func Seq(cats ...Category) Sequence { return Sequence(cats) }

// Repeat returns a sequence of n copies of c.
func Repeat(c Category, n int) Sequence {
	s := make(Sequence, n)
	for i := range s {
		s[i] = c
	}
	return s
}

// Matches reports whether events has the same length as s and the same
// categories in order.
func (s Sequence) Matches(events []Event) bool {
	if len(events) != len(s) {
		return false
	}
	for i, e := range events {
		if e.Tap.Category != s[i] {
			return false
		}
	}
	return true
}

// Extends reports whether s is strictly longer than events and starts with
// the categories of events.
func (s Sequence) Extends(events []Event) bool {
	if len(s) <= len(events) {
		return false
	}
	for i, e := range events {
		if e.Tap.Category != s[i] {
			return false
		}
	}
	return true
}

// HasLongerExtension reports whether any of seqs strictly extends events.
func HasLongerExtension(events []Event, seqs []Sequence) bool {
	for _, s := range seqs {
		if s.Extends(events) {
			return true
		}
	}
	return false
}

func (s Sequence) String() string {
	if len(s) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = string(c)
	}
	return strings.Join(parts, "+")
}

// Categories returns the categories of events, for display and logging.
func Categories(events []Event) Sequence {
	s := make(Sequence, len(events))
	for i, e := range events {
		s[i] = e.Tap.Category
	}
	return s
}
