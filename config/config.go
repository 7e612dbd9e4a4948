// Package config loads and persists the tapkey settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tapkey/action"
	"tapkey/keyboard"
	"tapkey/tap"
)

const (
	EnvPath  = "TAPKEY_CONFIG"
	fileName = "config.json"
	appDir   = "tapkey"
)

// Settings is the persisted record. Zero tuning values mean "use the
// built-in default".
type Settings struct {
	Backend      string           `json:"backend" toml:"backend" yaml:"backend"`
	MediaKey     keyboard.KeyCode `json:"media_key" toml:"media_key" yaml:"media_key"`
	PlayPauseKey string           `json:"play_pause_key" toml:"play_pause_key" yaml:"play_pause_key"`
	NextTrackKey string           `json:"next_track_key" toml:"next_track_key" yaml:"next_track_key"`
	PrevTrackKey string           `json:"prev_track_key" toml:"prev_track_key" yaml:"prev_track_key"`
	LongPressKey string           `json:"long_press_key" toml:"long_press_key" yaml:"long_press_key"`

	ActionBackend     string  `json:"action_backend,omitempty" toml:"action_backend,omitempty" yaml:"action_backend,omitempty"`
	DebounceMs        int     `json:"debounce_ms,omitempty" toml:"debounce_ms,omitempty" yaml:"debounce_ms,omitempty"`
	ShortMaxMs        int     `json:"short_max_ms,omitempty" toml:"short_max_ms,omitempty" yaml:"short_max_ms,omitempty"`
	PressureThreshold float64 `json:"pressure_threshold,omitempty" toml:"pressure_threshold,omitempty" yaml:"pressure_threshold,omitempty"`
}

func Default() *Settings {
	return &Settings{
		Backend:      "auto",
		MediaKey:     keyboard.DefaultKey("auto"),
		PlayPauseKey: string(action.MediaPlayPause),
		NextTrackKey: string(action.MediaNextTrack),
		PrevTrackKey: string(action.MediaPrevTrack),
		LongPressKey: string(action.F14),
	}
}

func (s *Settings) Clone() *Settings {
	cp := *s
	return &cp
}

func (s *Settings) Debounce() time.Duration {
	if s.DebounceMs > 0 {
		return time.Duration(s.DebounceMs) * time.Millisecond
	}
	return tap.DefaultDebounce
}

// Ranges returns the short/long split, moved when short_max_ms is set.
func (s *Settings) Ranges() []tap.Range {
	if s.ShortMaxMs <= 0 {
		return tap.DefaultRanges()
	}
	limit := time.Duration(s.ShortMaxMs) * time.Millisecond
	return []tap.Range{
		tap.NewRange(0, limit, tap.Short),
		tap.NewRange(limit+time.Millisecond, tap.MaxDuration, tap.Long),
	}
}

func (s *Settings) Threshold() float32 { return float32(s.PressureThreshold) }

// Validate checks what the schema cannot: that action names resolve.
func (s *Settings) Validate() error {
	var errs []error
	for field, name := range map[string]string{
		"play_pause_key": s.PlayPauseKey,
		"next_track_key": s.NextTrackKey,
		"prev_track_key": s.PrevTrackKey,
		"long_press_key": s.LongPressKey,
	} {
		if _, err := action.ParseKey(name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}
	return errors.Join(errs...)
}

// Path resolves the settings file: flag, then $TAPKEY_CONFIG, then the
// user config directory.
func Path(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, appDir, fileName), nil
}
