package keyboard

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

type Kind uint8

const (
	// KindRaw is a platform keycode (evdev code on Linux, virtual keycode elsewhere).
	KindRaw Kind = iota
	// KindHID is a USB HID usage ID, as used by analog keyboards.
	KindHID
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindHID:
		return "hid"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// KeyCode identifies one physical key for any backend. It is comparable and
// used as a map key by the detector.
type KeyCode struct {
	Kind Kind
	Code uint16
}

func Raw(code uint16) KeyCode { return KeyCode{Kind: KindRaw, Code: code} }
func HID(code uint16) KeyCode { return KeyCode{Kind: KindHID, Code: code} }

// HID usage IDs for the function keys (USB HID Usage Tables, page 0x07).
var hidNames = map[string]uint16{
	"F1": 0x3A, "F2": 0x3B, "F3": 0x3C, "F4": 0x3D, "F5": 0x3E, "F6": 0x3F,
	"F7": 0x40, "F8": 0x41, "F9": 0x42, "F10": 0x43, "F11": 0x44, "F12": 0x45,
	"F13": 0x68, "F14": 0x69, "F15": 0x6A, "F16": 0x6B, "F17": 0x6C, "F18": 0x6D,
	"F19": 0x6E, "F20": 0x6F, "F21": 0x70, "F22": 0x71, "F23": 0x72, "F24": 0x73,
}

// HIDName returns the function key name for a HID usage, or "".
func HIDName(code uint16) string {
	for name, c := range hidNames {
		if c == code {
			return name
		}
	}
	return ""
}

func (k KeyCode) String() string {
	if k.Kind == KindHID {
		if name := HIDName(k.Code); name != "" {
			return "hid:" + name
		}
		return fmt.Sprintf("hid:0x%02x", k.Code)
	}
	return k.Kind.String() + ":" + strconv.Itoa(int(k.Code))
}

// ParseKeyCode accepts "raw:183", "hid:0x68", "hid:F13" and a bare number,
// which is read as a raw code.
func ParseKeyCode(s string) (KeyCode, error) {
	s = strings.TrimSpace(s)
	kind, val, found := strings.Cut(s, ":")
	if !found {
		kind, val = "raw", s
	}
	var k KeyCode
	switch strings.ToLower(kind) {
	case "raw":
		k.Kind = KindRaw
	case "hid":
		k.Kind = KindHID
		if c, ok := hidNames[strings.ToUpper(val)]; ok {
			k.Code = c
			return k, nil
		}
	default:
		return KeyCode{}, fmt.Errorf("invalid key kind %q in %q", kind, s)
	}
	n, err := strconv.ParseUint(val, 0, 16)
	if err != nil {
		return KeyCode{}, fmt.Errorf("invalid key code %q: %w", s, err)
	}
	k.Code = uint16(n)
	return k, nil
}

func (k KeyCode) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *KeyCode) UnmarshalText(b []byte) error {
	parsed, err := ParseKeyCode(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// DefaultKey is F13 expressed the way backend expects it.
func DefaultKey(backend string) KeyCode {
	if backend == "" || backend == "auto" {
		if names := Backends(); len(names) > 0 {
			backend = names[0]
		}
	}
	if backend == "wooting" {
		return HID(hidNames["F13"])
	}
	switch runtime.GOOS {
	case "darwin":
		return Raw(0x69) // kVK_F13
	case "windows":
		return Raw(0x7C) // VK_F13
	default:
		return Raw(183) // KEY_F13
	}
}
