//go:build linux

package keyboard

import (
	"errors"
	"testing"
)

func TestEvdevCode(t *testing.T) {
	tests := []struct {
		key  KeyCode
		want uint16
	}{
		{Raw(183), 183},
		{HID(0x3A), 59},  // F1
		{HID(0x43), 68},  // F10
		{HID(0x44), 87},  // F11
		{HID(0x45), 88},  // F12
		{HID(0x68), 183}, // F13
		{HID(0x73), 194}, // F24
	}
	for _, tt := range tests {
		got, err := evdevCode(tt.key)
		if err != nil || got != tt.want {
			t.Errorf("evdevCode(%s) = %d, %v; want %d", tt.key, got, err, tt.want)
		}
	}
	if _, err := evdevCode(HID(0x04)); !errors.Is(err, ErrUnsupportedKey) {
		t.Errorf("HID letter: err = %v", err)
	}
}

func TestEvdevReadBeforeInit(t *testing.T) {
	e := NewEvdev()
	if _, err := e.ReadPressure(Raw(183)); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("err = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
}
