package tap

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"tapkey/keyboard"
)

var (
	testKey  = keyboard.Raw(183)
	otherKey = keyboard.Raw(184)
)

// rig drives a detector tick by tick on a synthetic clock.
type rig struct {
	t   *testing.T
	src *keyboard.Fake
	det *Detector
	now time.Time

	mu     sync.Mutex
	fired  []string
	failed []string
}

func newRig(t *testing.T, cfgs ...*KeyConfig) *rig {
	t.Helper()
	r := &rig{t: t, src: keyboard.NewFake(), now: time.Unix(1000, 0)}
	det, err := New(r.src, WithObserver(ObserverFuncs{
		OnFailure: func(_ keyboard.KeyCode, d Dispatch, _ any) {
			r.mu.Lock()
			r.failed = append(r.failed, d.Name)
			r.mu.Unlock()
		},
	}))
	if err != nil {
		t.Fatal(err)
	}
	r.det = det
	for _, c := range cfgs {
		det.AddKeyConfig(c)
	}
	return r
}

func (r *rig) record(name string) Action {
	return func() {
		r.mu.Lock()
		r.fired = append(r.fired, name)
		r.mu.Unlock()
	}
}

func (r *rig) step(d time.Duration) {
	r.now = r.now.Add(d)
	r.det.tick(r.now)
}

// hold presses key for exactly d, ticking on press and on release.
func (r *rig) hold(key keyboard.KeyCode, d time.Duration) {
	r.src.SimPress(key)
	r.step(0)
	r.src.SimRelease(key)
	r.step(d)
}

func (r *rig) wantFired(want ...string) {
	r.t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Equal(r.fired, want) {
		r.t.Fatalf("fired %q, want %q", r.fired, want)
	}
}

func (r *rig) snapshot(key keyboard.KeyCode) KeySnapshot {
	r.t.Helper()
	for _, s := range r.det.Snapshot() {
		if s.Key == key {
			return s
		}
	}
	r.t.Fatalf("no snapshot for %s", key)
	return KeySnapshot{}
}

func mediaConfig(r *rig, key keyboard.KeyCode) *KeyConfig {
	return NewKeyConfig(key).
		AddPattern(Seq(Short), r.record("single")).
		AddPattern(Repeat(Short, 2), r.record("double")).
		AddPattern(Repeat(Short, 3), r.record("triple")).
		AddPattern(Seq(Long), r.record("long"))
}

func TestSingleTapFiresOnceAfterDebounce(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(mediaConfig(r, testKey))

	r.hold(testKey, 50*time.Millisecond)
	r.wantFired()

	r.step(100 * time.Millisecond)
	r.wantFired()

	r.step(200 * time.Millisecond) // 300ms since release
	r.wantFired("single")

	for range 100 {
		r.step(5 * time.Millisecond)
	}
	r.wantFired("single")
}

func TestSecondTapResolvesAmbiguity(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(NewKeyConfig(testKey).
		AddPattern(Seq(Short), r.record("single")).
		AddPattern(Repeat(Short, 2), r.record("double")))

	r.hold(testKey, 40*time.Millisecond)
	r.step(150 * time.Millisecond)
	r.hold(testKey, 40*time.Millisecond)
	r.wantFired("double")

	r.step(time.Second)
	r.wantFired("double")
}

func TestTripleTapWalksThroughPrefixes(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(mediaConfig(r, testKey))

	for range 3 {
		r.hold(testKey, 60*time.Millisecond)
		r.step(100 * time.Millisecond)
	}
	r.wantFired("triple")
}

func TestUnambiguousMatchFiresOnRelease(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(mediaConfig(r, testKey))

	r.hold(testKey, 450*time.Millisecond)
	r.wantFired("long")
}

func TestDebounceTimeoutResetsState(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(mediaConfig(r, testKey))

	r.hold(testKey, 50*time.Millisecond)
	if s := r.snapshot(testKey); len(s.State.Events) != 1 || s.Pending != "short" {
		t.Fatalf("before debounce: events=%d pending=%q", len(s.State.Events), s.Pending)
	}

	r.step(DefaultDebounce)
	r.wantFired("single")

	s := r.snapshot(testKey)
	if len(s.State.Events) != 0 {
		t.Errorf("events not cleared: %d", len(s.State.Events))
	}
	if !s.State.LastPressed.IsZero() || !s.State.LastReleased.IsZero() {
		t.Errorf("timestamps not cleared: %+v", s.State)
	}
	if s.Pending != "" {
		t.Errorf("pending match survived reset: %q", s.Pending)
	}
}

func TestGestureAfterResetStartsFresh(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(mediaConfig(r, testKey))

	r.hold(testKey, 450*time.Millisecond)
	r.step(10 * time.Millisecond)
	r.hold(testKey, 50*time.Millisecond)
	r.step(DefaultDebounce)
	r.wantFired("long", "single")
}

func TestHeldKeyDefersDebounce(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(NewKeyConfig(testKey).
		AddPattern(Seq(Short), r.record("single")).
		AddPattern(Repeat(Short, 2), r.record("double")))

	r.hold(testKey, 50*time.Millisecond)
	r.step(50 * time.Millisecond)

	r.src.SimPress(testKey)
	r.step(0)
	for range 5 {
		// the window since the first release passes while the key is down
		r.step(50 * time.Millisecond)
		r.wantFired()
	}
	r.src.SimRelease(testKey)
	r.step(50 * time.Millisecond) // held exactly 300ms: still short
	r.wantFired("double")
}

func TestKeysAreIndependent(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(NewKeyConfig(testKey).
		AddPattern(Seq(Short), r.record("a-single")).
		AddPattern(Repeat(Short, 2), r.record("a-double")))
	r.det.AddKeyConfig(NewKeyConfig(otherKey).
		AddPattern(Seq(Long), r.record("b-long")).
		AddPattern(Repeat(Short, 2), r.record("b-double")))

	r.src.SimPress(testKey)
	r.src.SimPress(otherKey)
	r.step(0)
	r.src.SimRelease(testKey)
	r.step(50 * time.Millisecond)
	r.src.SimPress(testKey)
	r.step(50 * time.Millisecond)
	r.src.SimRelease(testKey)
	r.step(50 * time.Millisecond)
	r.wantFired("a-double")

	r.src.SimRelease(otherKey)
	r.step(300 * time.Millisecond) // held 450ms
	r.wantFired("a-double", "b-long")

	r.step(time.Second)
	r.wantFired("a-double", "b-long")
}

func TestReadFailureKeepsGesture(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(NewKeyConfig(testKey).
		AddPattern(Seq(Short), r.record("single")).
		AddPattern(Seq(Long), r.record("long")))

	r.src.SimPress(testKey)
	r.step(0)
	r.src.FailReads(testKey, 3)
	for range 3 {
		r.step(100 * time.Millisecond)
	}
	r.wantFired()
	r.src.SimRelease(testKey)
	r.step(100 * time.Millisecond) // held 400ms in total
	r.wantFired("long")

	if got := r.snapshot(testKey).ReadFailures; got != 3 {
		t.Errorf("ReadFailures = %d, want 3", got)
	}
}

func TestReadFailureBeforeFirstReading(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(mediaConfig(r, testKey))
	r.src.FailReads(testKey, 1)
	r.step(5 * time.Millisecond)

	s := r.snapshot(testKey)
	if s.ReadFailures != 1 || len(s.State.Events) != 0 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	r.hold(testKey, 450*time.Millisecond)
	r.wantFired("long")
}

// A match followed by a tap that leads nowhere still fires the earlier
// match once the debounce window passes.
func TestStaleMatchFiresOnDebounce(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(NewKeyConfig(testKey).
		AddPattern(Seq(Short), r.record("single")).
		AddPattern(Repeat(Short, 2), r.record("double")))

	r.hold(testKey, 50*time.Millisecond)
	r.step(50 * time.Millisecond)
	r.hold(testKey, 500*time.Millisecond)
	r.wantFired()
	if s := r.snapshot(testKey); s.Pending != "short" || len(s.State.Events) != 2 {
		t.Fatalf("pending=%q events=%d", s.Pending, len(s.State.Events))
	}

	r.step(DefaultDebounce)
	r.wantFired("single")
}

func TestDeadEndClearedByDebounce(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(NewKeyConfig(testKey).AddPattern(Seq(Long), r.record("long")))

	r.hold(testKey, 50*time.Millisecond)
	r.hold(testKey, 50*time.Millisecond)
	if n := len(r.snapshot(testKey).State.Events); n != 2 {
		t.Fatalf("events = %d, want dead-end sequence retained", n)
	}

	r.step(DefaultDebounce)
	r.wantFired()
	if n := len(r.snapshot(testKey).State.Events); n != 0 {
		t.Fatalf("events = %d after debounce", n)
	}

	r.hold(testKey, 400*time.Millisecond)
	r.wantFired("long")
}

func TestEmptyPatternNeverFires(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(NewKeyConfig(testKey).
		AddPattern(Seq(), r.record("empty")).
		AddPattern(Seq(Short), r.record("single")))

	r.step(time.Second)
	r.hold(testKey, 50*time.Millisecond)
	r.wantFired("single")
	r.step(time.Second)
	r.wantFired("single")
}

func TestThreshold(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(NewKeyConfig(testKey).
		WithThreshold(0.5).
		AddPattern(Seq(Short), r.record("single")))

	r.src.SetPressure(testKey, 0.4)
	r.step(0)
	r.src.SetPressure(testKey, 0.1)
	r.step(50 * time.Millisecond)
	r.step(time.Second)
	r.wantFired()

	r.src.SetPressure(testKey, 0.8)
	r.step(0)
	r.src.SetPressure(testKey, 0.2)
	r.step(50 * time.Millisecond)
	r.wantFired("single")
}

func TestCustomRangesAndDebounce(t *testing.T) {
	flick := Custom("flick")
	r := newRig(t)
	r.det.AddKeyConfig(NewKeyConfig(testKey).
		WithRanges(
			NewRange(0, 80*time.Millisecond, flick),
			NewRange(81*time.Millisecond, MaxDuration, Long),
		).
		WithDebounce(100*time.Millisecond).
		AddPattern(Seq(flick), r.record("flick")).
		AddPattern(Seq(flick, Long), r.record("flick-long")))

	r.hold(testKey, 30*time.Millisecond)
	r.step(99 * time.Millisecond)
	r.wantFired()
	r.step(time.Millisecond)
	r.wantFired("flick")
}

func TestActionPanicIsRecovered(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(NewKeyConfig(testKey).
		AddNamedPattern("boom", Seq(Long), func() { panic("boom") }).
		AddPattern(Seq(Short), r.record("single")))

	r.hold(testKey, 400*time.Millisecond)
	r.hold(testKey, 40*time.Millisecond)
	r.wantFired("single")

	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Equal(r.failed, []string{"boom"}) {
		t.Errorf("failed = %q", r.failed)
	}
}

func TestAddKeyConfigTakesACopy(t *testing.T) {
	r := newRig(t)
	cfg := NewKeyConfig(testKey).AddPattern(Seq(Long), r.record("long"))
	r.det.AddKeyConfig(cfg)
	cfg.AddPattern(Seq(Short), r.record("late"))

	r.hold(testKey, 50*time.Millisecond)
	r.step(time.Second)
	r.wantFired()
}

func TestAddKeyConfigReplacesSameKey(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(NewKeyConfig(testKey).AddPattern(Seq(Short), r.record("old")))
	r.det.AddKeyConfig(NewKeyConfig(testKey).AddPattern(Seq(Short), r.record("new")))

	if n := len(r.det.Snapshot()); n != 1 {
		t.Fatalf("configs = %d, want 1", n)
	}
	r.hold(testKey, 50*time.Millisecond)
	r.wantFired("new")
}

func TestSetKeyConfigsDropsState(t *testing.T) {
	r := newRig(t)
	r.det.AddKeyConfig(mediaConfig(r, testKey))

	r.hold(testKey, 50*time.Millisecond)
	r.det.SetKeyConfigs([]*KeyConfig{
		NewKeyConfig(otherKey).AddPattern(Seq(Short), r.record("other")),
	})
	r.step(time.Second)
	r.wantFired()

	snaps := r.det.Snapshot()
	if len(snaps) != 1 || snaps[0].Key != otherKey {
		t.Fatalf("unexpected configs %+v", snaps)
	}
}

func TestNewSurfacesInitError(t *testing.T) {
	src := keyboard.NewFake()
	src.InitErr = errors.New("no device")
	if _, err := New(src); !errors.Is(err, src.InitErr) {
		t.Fatalf("err = %v, want wrapped init error", err)
	}
	if src.Inits() != 1 {
		t.Errorf("Initialize called %d times", src.Inits())
	}
}

func TestLoopDispatchesAndStops(t *testing.T) {
	src := keyboard.NewFake()
	fired := make(chan string, 4)
	det, err := New(src, WithInterval(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	det.AddKeyConfig(NewKeyConfig(testKey).
		WithDebounce(20*time.Millisecond).
		AddPattern(Seq(Short), func() { fired <- "single" }).
		AddPattern(Repeat(Short, 2), func() { fired <- "double" }))

	det.Start(context.Background())
	defer det.Close()

	src.SimPress(testKey)
	time.Sleep(15 * time.Millisecond)
	src.SimRelease(testKey)

	select {
	case got := <-fired:
		if got != "single" {
			t.Fatalf("fired %q, want single", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatch")
	}

	det.Stop()
	if det.Running() {
		t.Error("still running after Stop")
	}
	select {
	case got := <-fired:
		t.Fatalf("unexpected second dispatch %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoopEndsWithContext(t *testing.T) {
	det, err := New(keyboard.NewFake(), WithInterval(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	det.Start(ctx)
	cancel()

	deadline := time.Now().Add(time.Second)
	for det.Running() {
		if time.Now().After(deadline) {
			t.Fatal("loop did not stop on context cancel")
		}
		time.Sleep(time.Millisecond)
	}
	det.Stop()

	det.Start(context.Background())
	if !det.Running() {
		t.Error("restart after cancel failed")
	}
	det.Stop()
}

func TestStopRacingStartNeverHangs(t *testing.T) {
	det, err := New(keyboard.NewFake(), WithInterval(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			var wg sync.WaitGroup
			wg.Add(2)
			go func() { defer wg.Done(); det.Start(context.Background()) }()
			go func() { defer wg.Done(); det.Stop() }()
			wg.Wait()
			det.Stop()
			if det.Running() {
				t.Error("running after Stop")
				return
			}
		}
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Stop hung while racing Start")
	}
}

func TestStopBeforeStart(t *testing.T) {
	det, err := New(keyboard.NewFake())
	if err != nil {
		t.Fatal(err)
	}
	det.Stop()
	if det.Running() {
		t.Error("running after Stop")
	}
}
