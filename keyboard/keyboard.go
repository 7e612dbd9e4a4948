// Package keyboard reads key pressure from analog and digital keyboards.
package keyboard

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrUnsupportedKey = errors.New("key not supported by backend")
	ErrUnknownBackend = errors.New("unknown keyboard backend")
	ErrNotInitialized = errors.New("keyboard backend not initialized")
)

// Source reports the current pressure of a key, conventionally in [0, 1].
// Digital backends report 1 while the key is held and 0 otherwise.
type Source interface {
	Initialize() error
	ReadPressure(key KeyCode) (float32, error)
}

type backend struct {
	name     string
	priority int // higher wins for "auto"
	open     func() Source
}

var (
	registryMu sync.Mutex
	registry   = map[string]backend{}
)

func register(name string, priority int, open func() Source) {
	registryMu.Lock()
	registry[name] = backend{name: name, priority: priority, open: open}
	registryMu.Unlock()
}

func init() {
	register("fake", -1, func() Source { return NewFake() })
}

// Backends lists registered backend names, best "auto" candidate first.
func Backends() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	all := make([]backend, 0, len(registry))
	for _, b := range registry {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].priority != all[j].priority {
			return all[i].priority > all[j].priority
		}
		return all[i].name < all[j].name
	})
	names := make([]string, len(all))
	for i, b := range all {
		names[i] = b.name
	}
	return names
}

// Open returns an uninitialized Source for the named backend. "auto" and ""
// pick the highest-priority backend compiled into this binary.
func Open(name string) (Source, error) {
	if name == "" || name == "auto" {
		names := Backends()
		if len(names) == 0 {
			return nil, ErrUnknownBackend
		}
		name = names[0]
	}
	registryMu.Lock()
	b, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return b.open(), nil
}

// Name returns the backend name a Source was registered under, if known.
func Name(s Source) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}
