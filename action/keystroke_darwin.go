//go:build darwin

package action

import (
	"fmt"
	"sync"

	"github.com/micmonay/keybd_event"
)

func init() {
	register("keystroke", func() Sender { return &Keystroke{} })
}

// macOS virtual keycodes. Media keys are system-defined NSEvents that
// CGEvent keystrokes cannot produce.
var keystrokeCodes = map[Key]int{
	F13: 0x69,
	F14: 0x6B,
	F15: 0x71,
	F16: 0x6A,
	F17: 0x40,
	F18: 0x4F,
	F19: 0x50,
	F20: 0x5A,
}

type Keystroke struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
	ok bool
}

func (k *Keystroke) Init() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.init()
}

func (k *Keystroke) init() error {
	if k.ok {
		return nil
	}
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return fmt.Errorf("create key bonding: %w", err)
	}
	k.kb, k.ok = kb, true
	return nil
}

func (k *Keystroke) Send(key Key) error {
	code, ok := keystrokeCodes[key]
	if !ok {
		return fmt.Errorf("%w: %s (use F13-F20 on macOS)", ErrUnsupported, key)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.init(); err != nil {
		return err
	}
	k.kb.Clear()
	k.kb.SetKeys(code)
	return k.kb.Launching()
}
