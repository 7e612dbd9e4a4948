// Package action sends the media and function keys that gestures are bound to.
package action

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownKey  = errors.New("unknown action key")
	ErrUnsupported = errors.New("action not supported on this platform")
)

type Key string

const (
	MediaPlayPause Key = "MediaPlayPause"
	MediaNextTrack Key = "MediaNextTrack"
	MediaPrevTrack Key = "MediaPrevTrack"
	MediaStop      Key = "MediaStop"
	VolumeUp       Key = "VolumeUp"
	VolumeDown     Key = "VolumeDown"
	VolumeMute     Key = "VolumeMute"
	F13            Key = "F13"
	F14            Key = "F14"
	F15            Key = "F15"
	F16            Key = "F16"
	F17            Key = "F17"
	F18            Key = "F18"
	F19            Key = "F19"
	F20            Key = "F20"
)

var allKeys = []Key{
	MediaPlayPause, MediaNextTrack, MediaPrevTrack, MediaStop,
	VolumeUp, VolumeDown, VolumeMute,
	F13, F14, F15, F16, F17, F18, F19, F20,
}

var byLower = func() map[string]Key {
	m := make(map[string]Key, len(allKeys))
	for _, k := range allKeys {
		m[strings.ToLower(string(k))] = k
	}
	return m
}()

// Keys lists every key name in canonical spelling.
func Keys() []Key {
	out := make([]Key, len(allKeys))
	copy(out, allKeys)
	return out
}

// ParseKey resolves a key name case-insensitively.
func ParseKey(name string) (Key, error) {
	if k, ok := byLower[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, name)
}

// IsMedia reports whether k is a transport control a media player can
// handle directly.
func (k Key) IsMedia() bool {
	switch k {
	case MediaPlayPause, MediaNextTrack, MediaPrevTrack, MediaStop:
		return true
	}
	return false
}

// Sender delivers keys to the system.
type Sender interface {
	Init() error
	Send(Key) error
}

var (
	sendersMu sync.Mutex
	senders   = map[string]func() Sender{}
)

func register(name string, open func() Sender) {
	sendersMu.Lock()
	senders[name] = open
	sendersMu.Unlock()
}

// Backends lists the action backends compiled into this binary.
func Backends() []string {
	sendersMu.Lock()
	defer sendersMu.Unlock()
	names := make([]string, 0, len(senders))
	for n := range senders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open returns an uninitialized Sender. "" and "auto" pick keystroke.
func Open(name string) (Sender, error) {
	if name == "" || name == "auto" {
		name = "keystroke"
	}
	sendersMu.Lock()
	open, ok := senders[name]
	sendersMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: action backend %q", ErrUnsupported, name)
	}
	return open(), nil
}

// Dispatcher turns key names into detector actions.
type Dispatcher struct {
	sender Sender

	// OnError receives failures from actions run by the detector.
	OnError func(Key, error)
}

func NewDispatcher(s Sender) *Dispatcher {
	return &Dispatcher{sender: s}
}

func (d *Dispatcher) Init() error { return d.sender.Init() }

func (d *Dispatcher) Sender() Sender { return d.sender }

// Send resolves name and sends it right away.
func (d *Dispatcher) Send(name string) error {
	k, err := ParseKey(name)
	if err != nil {
		return err
	}
	return d.sender.Send(k)
}

// Action resolves name now and returns a func that sends it later. Send
// errors go to OnError.
func (d *Dispatcher) Action(name string) (func(), error) {
	k, err := ParseKey(name)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := d.sender.Send(k); err != nil && d.OnError != nil {
			d.OnError(k, err)
		}
	}, nil
}
