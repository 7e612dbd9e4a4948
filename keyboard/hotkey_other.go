//go:build !linux

package keyboard

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

func init() {
	register("hotkey", 10, func() Source { return NewHotkey() })
}

type watchedKey struct {
	hk   *hotkey.Hotkey
	held bool
	err  error
}

// Hotkey is the digital fallback on macOS and Windows. Each key is grabbed
// as a global hotkey on its first read; keydown/keyup toggle 1 and 0.
type Hotkey struct {
	mu   sync.Mutex
	keys map[KeyCode]*watchedKey
	stop chan struct{}
	once sync.Once
}

func NewHotkey() *Hotkey {
	return &Hotkey{keys: make(map[KeyCode]*watchedKey)}
}

func (h *Hotkey) Name() string { return "hotkey" }

func (h *Hotkey) Initialize() error {
	h.stop = make(chan struct{})
	return nil
}

func (h *Hotkey) ReadPressure(key KeyCode) (float32, error) {
	if key.Kind != KindRaw {
		return 0, fmt.Errorf("%w: %s (use a raw virtual keycode)", ErrUnsupportedKey, key)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop == nil {
		return 0, ErrNotInitialized
	}
	w, ok := h.keys[key]
	if !ok {
		w = h.watch(key)
		h.keys[key] = w
	}
	if w.err != nil {
		return 0, w.err
	}
	if w.held {
		return 1, nil
	}
	return 0, nil
}

// watch registers key once; a failed registration is remembered so the
// polling loop does not retry it every tick.
func (h *Hotkey) watch(key KeyCode) *watchedKey {
	w := &watchedKey{hk: hotkey.New(nil, hotkey.Key(key.Code))}
	if err := w.hk.Register(); err != nil {
		w.err = fmt.Errorf("register hotkey %s: %w", key, err)
		return w
	}
	go func() {
		for {
			select {
			case <-h.stop:
				return
			case <-w.hk.Keydown():
				h.mu.Lock()
				w.held = true
				h.mu.Unlock()
			case <-w.hk.Keyup():
				h.mu.Lock()
				w.held = false
				h.mu.Unlock()
			}
		}
	}()
	return w
}

func (h *Hotkey) Close() error {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, w := range h.keys {
			if w.err == nil {
				w.hk.Unregister()
			}
		}
	})
	return nil
}

// Diagnose reports hotkey availability.
func Diagnose() (string, error) {
	return "global hotkey support available", nil
}
