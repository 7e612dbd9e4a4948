//go:build linux

package keyboard

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
)

// input_event is 24 bytes on 64-bit Linux:
// timeval (16 bytes) + type (2) + code (2) + value (4)
const inputEventSize = 24

// KEY_MAX is 0x2ff; EVIOCGKEY fills one bit per key.
const keyBitmapLen = (0x2ff + 7) / 8

// _IOC(_IOC_READ, 'E', 0x18, len)
const evIOCGKey = 2<<30 | keyBitmapLen<<16 | 'E'<<8 | 0x18

func init() {
	register("evdev", 10, func() Source { return NewEvdev() })
}

// Evdev is the digital fallback on Linux. It reads /dev/input/event* for
// every keyboard and reports 1 while a key is held.
type Evdev struct {
	mu    sync.Mutex
	held  map[uint16]bool
	files []*os.File
	stop  chan struct{}
	once  sync.Once
	ready bool
}

func NewEvdev() *Evdev {
	return &Evdev{held: make(map[uint16]bool)}
}

func (e *Evdev) Name() string { return "evdev" }

func (e *Evdev) Initialize() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	e.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		e.seed(f)
		e.files = append(e.files, f)
		go e.readEvents(f)
	}

	if len(e.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	e.mu.Lock()
	e.ready = true
	e.mu.Unlock()
	return nil
}

// seed records keys that are already down when the device is opened, so a
// key held across startup releases cleanly.
func (e *Evdev) seed(f *os.File) {
	var bits [keyBitmapLen]byte
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), uintptr(evIOCGKey), uintptr(unsafe.Pointer(&bits[0])))
	if errno != 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, b := range bits {
		for bit := 0; bit < 8; bit++ {
			if b&(1<<bit) != 0 {
				e.held[uint16(i*8+bit)] = true
			}
		}
	}
}

func (e *Evdev) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)

	for {
		select {
		case <-e.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}
			// value 2 is autorepeat; the key stays held
			switch evValue {
			case keyPress:
				e.mu.Lock()
				e.held[evCode] = true
				e.mu.Unlock()
			case keyRelease:
				e.mu.Lock()
				delete(e.held, evCode)
				e.mu.Unlock()
			}
		}
	}
}

func (e *Evdev) ReadPressure(key KeyCode) (float32, error) {
	code, err := evdevCode(key)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return 0, ErrNotInitialized
	}
	if e.held[code] {
		return 1, nil
	}
	return 0, nil
}

func (e *Evdev) Close() error {
	e.once.Do(func() {
		if e.stop != nil {
			close(e.stop)
		}
		for _, f := range e.files {
			f.Close()
		}
	})
	return nil
}

// evdev KEY_F1..KEY_F10 are 59..68, F11/F12 87/88, F13..F24 183..194.
func evdevCode(key KeyCode) (uint16, error) {
	if key.Kind == KindRaw {
		return key.Code, nil
	}
	switch c := key.Code; {
	case c >= 0x3A && c <= 0x43:
		return 59 + (c - 0x3A), nil
	case c == 0x44:
		return 87, nil
	case c == 0x45:
		return 88, nil
	case c >= 0x68 && c <= 0x73:
		return 183 + (c - 0x68), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedKey, key)
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		path := filepath.Join("/dev/input", e.Name())
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, path)
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	// Real keyboards have long key capability bitmaps
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

// Diagnose checks evdev access and returns a status message.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
