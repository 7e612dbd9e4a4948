package tap

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"tapkey/keyboard"
)

const PollInterval = 5 * time.Millisecond

// Detector polls a keyboard.Source for every configured key and dispatches
// bound actions. One goroutine runs the loop; AddKeyConfig, SetKeyConfigs,
// Snapshot and Stop may be called from any goroutine.
type Detector struct {
	source   keyboard.Source
	interval time.Duration
	observer Observer

	// Lock order: configMu, then stateMu. A tick holds both.
	configMu sync.Mutex
	configs  []*KeyConfig

	stateMu  sync.Mutex
	states   map[keyboard.KeyCode]*KeyState
	failures map[keyboard.KeyCode]uint64

	running atomic.Bool
	runMu   sync.Mutex
	done    chan struct{}
}

type Option func(*Detector)

func WithInterval(d time.Duration) Option {
	return func(det *Detector) { det.interval = d }
}

func WithObserver(o Observer) Option {
	return func(det *Detector) { det.observer = o }
}

// New initializes source and returns a stopped detector.
func New(source keyboard.Source, opts ...Option) (*Detector, error) {
	if err := source.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize keyboard backend: %w", err)
	}
	d := &Detector{
		source:   source,
		interval: PollInterval,
		observer: nopObserver{},
		states:   make(map[keyboard.KeyCode]*KeyState),
		failures: make(map[keyboard.KeyCode]uint64),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// AddKeyConfig starts monitoring cfg's key. A config for a key that is
// already monitored replaces the old one and resets that key's state.
func (d *Detector) AddKeyConfig(cfg *KeyConfig) {
	cfg = cfg.clone()

	d.configMu.Lock()
	defer d.configMu.Unlock()
	d.stateMu.Lock()
	defer d.stateMu.Unlock()

	for i, c := range d.configs {
		if c.key == cfg.key {
			d.configs[i] = cfg
			delete(d.states, cfg.key)
			return
		}
	}
	d.configs = append(d.configs, cfg)
}

// SetKeyConfigs replaces every config at once. States of all keys are
// dropped, so a gesture in progress during a reload is abandoned.
func (d *Detector) SetKeyConfigs(cfgs []*KeyConfig) {
	next := make([]*KeyConfig, 0, len(cfgs))
	seen := make(map[keyboard.KeyCode]int, len(cfgs))
	for _, c := range cfgs {
		c = c.clone()
		if i, ok := seen[c.key]; ok {
			next[i] = c
			continue
		}
		seen[c.key] = len(next)
		next = append(next, c)
	}

	d.configMu.Lock()
	defer d.configMu.Unlock()
	d.stateMu.Lock()
	defer d.stateMu.Unlock()

	d.configs = next
	clear(d.states)
	for k := range d.failures {
		if _, ok := seen[k]; !ok {
			delete(d.failures, k)
		}
	}
}

// Start launches the polling goroutine. It is a no-op while already running.
// The loop ends on Stop or when ctx is cancelled.
func (d *Detector) Start(ctx context.Context) {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.done != nil {
		select {
		case <-d.done:
			// ended by its context; start over
		default:
			return
		}
	}
	d.running.Store(true)
	done := make(chan struct{})
	d.done = done
	go d.loop(ctx, done)
}

func (d *Detector) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for d.running.Load() {
		d.tick(time.Now())
		select {
		case <-ctx.Done():
			d.running.Store(false)
			return
		case <-ticker.C:
		}
	}
}

// Stop clears the running flag and waits for the loop to exit. It must not
// be called from an Action, which runs on the loop goroutine.
func (d *Detector) Stop() {
	d.runMu.Lock()
	d.running.Store(false)
	done := d.done
	d.done = nil
	d.runMu.Unlock()
	if done != nil {
		<-done
	}
}

func (d *Detector) Running() bool { return d.running.Load() }

// Close stops the loop and releases the source.
func (d *Detector) Close() error {
	d.Stop()
	if c, ok := d.source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// notice is detector output gathered under the locks and delivered after.
type notice struct {
	key      keyboard.KeyCode
	tap      *Tap
	pending  int
	dispatch *Dispatch
	action   Action
}

func (d *Detector) tick(now time.Time) {
	var out []notice

	d.configMu.Lock()
	d.stateMu.Lock()
	for _, cfg := range d.configs {
		out = d.advance(cfg, now, out)
	}
	d.stateMu.Unlock()
	d.configMu.Unlock()

	d.deliver(out)
}

func (d *Detector) advance(cfg *KeyConfig, now time.Time, out []notice) []notice {
	pressure, err := d.source.ReadPressure(cfg.key)
	if err != nil {
		d.failures[cfg.key]++
		return out
	}

	state, ok := d.states[cfg.key]
	if !ok {
		state = newKeyState()
		d.states[cfg.key] = state
	}

	wasPressed := state.LastPressure > cfg.threshold
	isPressed := pressure > cfg.threshold

	switch {
	case !wasPressed && isPressed:
		state.LastPressed = now
	case wasPressed && !isPressed && !state.LastPressed.IsZero():
		tap := cfg.Tap(now.Sub(state.LastPressed), pressure)
		state.Events = append(state.Events, Event{Tap: tap})
		state.LastReleased = now
		out = append(out, notice{key: cfg.key, tap: &tap, pending: len(state.Events)})
		out = d.match(cfg, state, out)
	}

	state.LastPressure = pressure

	if state.LastReleased.IsZero() || state.LastPressed.IsZero() {
		return out
	}
	if state.LastPressed.After(state.LastReleased) || now.Sub(state.LastReleased) < cfg.debounce {
		return out
	}
	if idx, ok := state.Pending(); ok && idx < len(cfg.bindings) {
		out = append(out, dispatchNotice(cfg, idx, TriggerDebounce))
	}
	state.Reset()
	return out
}

// match remembers an exact match and fires it at once unless a longer
// binding could still complete.
func (d *Detector) match(cfg *KeyConfig, state *KeyState, out []notice) []notice {
	idx, ok := cfg.FindMatch(state.Events)
	if !ok {
		return out
	}
	state.matched = idx
	if cfg.HasLongerPatterns(state.Events) {
		return out
	}
	out = append(out, dispatchNotice(cfg, idx, TriggerImmediate))
	state.Reset()
	return out
}

func dispatchNotice(cfg *KeyConfig, idx int, trig Trigger) notice {
	b := cfg.bindings[idx]
	return notice{
		key:      cfg.key,
		dispatch: &Dispatch{Index: idx, Name: b.Name, Sequence: b.Sequence, Trigger: trig},
		action:   b.Action,
	}
}

func (d *Detector) deliver(out []notice) {
	for _, n := range out {
		if n.tap != nil {
			d.observer.TapRecorded(n.key, *n.tap, n.pending)
			continue
		}
		d.observer.Dispatched(n.key, *n.dispatch)
		d.run(n)
	}
}

func (d *Detector) run(n notice) {
	if n.action == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.observer.ActionFailed(n.key, *n.dispatch, r)
		}
	}()
	n.action()
}

// KeySnapshot is a copy of one key's configuration summary and state.
type KeySnapshot struct {
	Key          keyboard.KeyCode
	Bindings     []Binding
	Debounce     time.Duration
	Threshold    float32
	State        KeyState
	Pending      string // name of the remembered match, "" if none
	ReadFailures uint64
}

// Snapshot returns every configured key in configuration order. Keys that
// have not produced a reading yet report an Idle state.
func (d *Detector) Snapshot() []KeySnapshot {
	d.configMu.Lock()
	defer d.configMu.Unlock()
	d.stateMu.Lock()
	defer d.stateMu.Unlock()

	snaps := make([]KeySnapshot, 0, len(d.configs))
	for _, cfg := range d.configs {
		s := KeySnapshot{
			Key:          cfg.key,
			Bindings:     cfg.Bindings(),
			Debounce:     cfg.debounce,
			Threshold:    cfg.threshold,
			ReadFailures: d.failures[cfg.key],
		}
		if st, ok := d.states[cfg.key]; ok {
			s.State = st.clone()
			if idx, ok := st.Pending(); ok && idx < len(cfg.bindings) {
				s.Pending = cfg.bindings[idx].Name
			}
		} else {
			s.State = newKeyState().clone()
		}
		snaps = append(snaps, s)
	}
	return snaps
}
