//go:build wooting && cgo

package keyboard

/*
#cgo LDFLAGS: -lwooting_analog_wrapper
#include <wooting-analog-wrapper.h>
*/
import "C"

import (
	"fmt"
	"sync"
)

func init() {
	register("wooting", 100, func() Source { return &Wooting{} })
}

// Wooting reads true analog travel through the Wooting Analog SDK wrapper.
// Keys are addressed by HID usage ID.
type Wooting struct {
	mu    sync.Mutex
	ready bool
}

func (w *Wooting) Name() string { return "wooting" }

func (w *Wooting) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Returns the number of connected devices, or a negative result code.
	if res := C.wooting_analog_initialise(); res < 0 {
		return fmt.Errorf("failed to initialize Wooting SDK: result %d", int(res))
	}
	if res := C.wooting_analog_set_keycode_mode(C.WootingAnalog_KeycodeType_HID); res != C.WootingAnalogResult_Ok {
		return fmt.Errorf("failed to set keycode mode: result %d", int(res))
	}
	w.ready = true
	return nil
}

func (w *Wooting) ReadPressure(key KeyCode) (float32, error) {
	if key.Kind != KindHID {
		return 0, fmt.Errorf("%w: %s (Wooting keys are HID codes)", ErrUnsupportedKey, key)
	}
	w.mu.Lock()
	ready := w.ready
	w.mu.Unlock()
	if !ready {
		return 0, ErrNotInitialized
	}
	v := float32(C.wooting_analog_read_analog(C.ushort(key.Code)))
	if v < 0 {
		return 0, fmt.Errorf("failed to read analog value for %s: result %d", key, int(v))
	}
	return v, nil
}

func (w *Wooting) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ready {
		C.wooting_analog_uninitialise()
		w.ready = false
	}
	return nil
}
