package keyboard

import (
	"errors"
	"sync"
)

var ErrFakeRead = errors.New("fake read failure")

// Fake is an in-memory Source. Tests and the script command set pressures
// directly and can inject initialization and read failures.
type Fake struct {
	mu        sync.Mutex
	pressure  map[KeyCode]float32
	failReads map[KeyCode]int
	InitErr   error
	inits     int
}

func NewFake() *Fake {
	return &Fake{
		pressure:  make(map[KeyCode]float32),
		failReads: make(map[KeyCode]int),
	}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Initialize() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	return f.InitErr
}

func (f *Fake) ReadPressure(key KeyCode) (float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := f.failReads[key]; n > 0 {
		f.failReads[key] = n - 1
		return 0, ErrFakeRead
	}
	return f.pressure[key], nil
}

func (f *Fake) SetPressure(key KeyCode, p float32) {
	f.mu.Lock()
	f.pressure[key] = p
	f.mu.Unlock()
}

func (f *Fake) SimPress(key KeyCode)   { f.SetPressure(key, 1) }
func (f *Fake) SimRelease(key KeyCode) { f.SetPressure(key, 0) }

// FailReads makes the next n reads of key fail.
func (f *Fake) FailReads(key KeyCode, n int) {
	f.mu.Lock()
	f.failReads[key] = n
	f.mu.Unlock()
}

func (f *Fake) Inits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inits
}
