package keyboard

import (
	"errors"
	"slices"
	"testing"
)

func TestParseKeyCode(t *testing.T) {
	tests := []struct {
		in   string
		want KeyCode
	}{
		{"raw:183", Raw(183)},
		{"183", Raw(183)},
		{" 0x7c ", Raw(0x7C)},
		{"hid:0x68", HID(0x68)},
		{"hid:F13", HID(0x68)},
		{"HID:f24", HID(0x73)},
		{"hid:104", HID(104)},
	}
	for _, tt := range tests {
		got, err := ParseKeyCode(tt.in)
		if err != nil {
			t.Errorf("ParseKeyCode(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKeyCode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseKeyCodeErrors(t *testing.T) {
	for _, in := range []string{"", "usb:3", "raw:F13", "hid:F99", "raw:70000", "raw:-1"} {
		if _, err := ParseKeyCode(in); err == nil {
			t.Errorf("ParseKeyCode(%q) succeeded", in)
		}
	}
}

func TestKeyCodeString(t *testing.T) {
	tests := []struct {
		k    KeyCode
		want string
	}{
		{Raw(183), "raw:183"},
		{HID(0x68), "hid:F13"},
		{HID(0x04), "hid:0x04"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.k, got, tt.want)
		}
		back, err := ParseKeyCode(tt.want)
		if err != nil || back != tt.k {
			t.Errorf("ParseKeyCode(%q) = %v, %v", tt.want, back, err)
		}
	}
}

func TestKeyCodeText(t *testing.T) {
	var k KeyCode
	if err := k.UnmarshalText([]byte("hid:F14")); err != nil {
		t.Fatal(err)
	}
	if k != HID(0x69) {
		t.Fatalf("got %v", k)
	}
	if err := k.UnmarshalText([]byte("bogus:1")); err == nil {
		t.Fatal("expected error")
	}
	if k != HID(0x69) {
		t.Error("failed unmarshal modified the key")
	}
}

func TestDefaultKeyWooting(t *testing.T) {
	if got := DefaultKey("wooting"); got != HID(0x68) {
		t.Errorf("DefaultKey(wooting) = %v", got)
	}
	if got := DefaultKey("fake"); got.Kind != KindRaw {
		t.Errorf("DefaultKey(fake) = %v, want raw code", got)
	}
}

func TestRegistry(t *testing.T) {
	names := Backends()
	if !slices.Contains(names, "fake") {
		t.Fatalf("fake backend not registered: %v", names)
	}
	if names[len(names)-1] != "fake" {
		t.Errorf("fake should be the last auto candidate: %v", names)
	}

	src, err := Open("fake")
	if err != nil {
		t.Fatal(err)
	}
	if Name(src) != "fake" {
		t.Errorf("Name = %q", Name(src))
	}

	if _, err := Open("nope"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(nope) = %v", err)
	}
	if _, err := Open("auto"); err != nil {
		t.Errorf("Open(auto) = %v", err)
	}
}

func TestFakeSource(t *testing.T) {
	f := NewFake()
	key := Raw(30)
	if err := f.Initialize(); err != nil {
		t.Fatal(err)
	}

	if p, err := f.ReadPressure(key); err != nil || p != 0 {
		t.Fatalf("unset key: %v, %v", p, err)
	}
	f.SimPress(key)
	if p, _ := f.ReadPressure(key); p != 1 {
		t.Fatalf("pressed: %v", p)
	}

	f.FailReads(key, 2)
	for i := range 2 {
		if _, err := f.ReadPressure(key); !errors.Is(err, ErrFakeRead) {
			t.Fatalf("read %d: err = %v", i, err)
		}
	}
	if p, err := f.ReadPressure(key); err != nil || p != 1 {
		t.Fatalf("after failures: %v, %v", p, err)
	}

	f.SetPressure(key, 0.4)
	f.SimRelease(key)
	if p, _ := f.ReadPressure(key); p != 0 {
		t.Fatalf("released: %v", p)
	}
}
