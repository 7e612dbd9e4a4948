//go:build linux

package action

import (
	"fmt"
	"sync"

	"github.com/micmonay/keybd_event"
)

func init() {
	register("keystroke", func() Sender { return &Keystroke{} })
}

// Linux input event codes (linux/input-event-codes.h).
var keystrokeCodes = map[Key]int{
	MediaPlayPause: 164, // KEY_PLAYPAUSE
	MediaNextTrack: 163, // KEY_NEXTSONG
	MediaPrevTrack: 165, // KEY_PREVIOUSSONG
	MediaStop:      166, // KEY_STOPCD
	VolumeMute:     113,
	VolumeDown:     114,
	VolumeUp:       115,
	F13:            183,
	F14:            184,
	F15:            185,
	F16:            186,
	F17:            187,
	F18:            188,
	F19:            189,
	F20:            190,
}

// Keystroke synthesizes key presses through a uinput virtual keyboard.
type Keystroke struct {
	mu   sync.Mutex
	once sync.Once
	kb   keybd_event.KeyBonding
	err  error
}

// Init creates the virtual device. The kernel needs a moment before the new
// device delivers events, so this is done once at startup.
func (k *Keystroke) Init() error {
	k.once.Do(func() {
		k.kb, k.err = keybd_event.NewKeyBonding()
		if k.err != nil {
			k.err = fmt.Errorf("create virtual keyboard (is /dev/uinput writable?): %w", k.err)
		}
	})
	return k.err
}

func (k *Keystroke) Send(key Key) error {
	code, ok := keystrokeCodes[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupported, key)
	}
	if err := k.Init(); err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.kb.Clear()
	k.kb.SetKeys(code)
	return k.kb.Launching()
}
