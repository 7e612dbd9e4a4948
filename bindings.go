package main

import (
	"fmt"

	"tapkey/action"
	"tapkey/config"
	"tapkey/tap"
)

// Binding names as they appear in logs, the tray and script output.
const (
	bindPlayPause = "play_pause"
	bindNext      = "next_track"
	bindPrev      = "prev_track"
	bindLongPress = "long_press"
)

// buildKeyConfig maps the settings onto the media key gestures:
// one short tap, two, three, or a single long press.
func buildKeyConfig(s *config.Settings, d *action.Dispatcher) (*tap.KeyConfig, error) {
	cfg := tap.NewKeyConfig(s.MediaKey).
		WithRanges(s.Ranges()...).
		WithDebounce(s.Debounce()).
		WithThreshold(s.Threshold())

	for _, b := range []struct {
		name string
		seq  tap.Sequence
		key  string
	}{
		{bindPlayPause, tap.Seq(tap.Short), s.PlayPauseKey},
		{bindNext, tap.Repeat(tap.Short, 2), s.NextTrackKey},
		{bindPrev, tap.Repeat(tap.Short, 3), s.PrevTrackKey},
		{bindLongPress, tap.Seq(tap.Long), s.LongPressKey},
	} {
		act, err := d.Action(b.key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.name, err)
		}
		cfg.AddNamedPattern(b.name, b.seq, act)
	}
	return cfg, nil
}
