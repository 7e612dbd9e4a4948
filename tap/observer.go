package tap

import "tapkey/keyboard"

type Trigger int

const (
	// TriggerImmediate fires when a sequence matches and nothing longer can.
	TriggerImmediate Trigger = iota
	// TriggerDebounce fires a remembered match after the debounce window.
	TriggerDebounce
)

func (t Trigger) String() string {
	if t == TriggerDebounce {
		return "debounce"
	}
	return "immediate"
}

// Dispatch describes one fired binding.
type Dispatch struct {
	Index    int
	Name     string
	Sequence Sequence
	Trigger  Trigger
}

// Observer receives detector activity. Calls happen on the polling
// goroutine after the tick's locks are released, so implementations must
// return quickly and may call back into the Detector.
type Observer interface {
	TapRecorded(key keyboard.KeyCode, tap Tap, pending int)
	Dispatched(key keyboard.KeyCode, d Dispatch)
	ActionFailed(key keyboard.KeyCode, d Dispatch, recovered any)
}

// ObserverFuncs adapts plain functions to Observer; nil fields are skipped.
type ObserverFuncs struct {
	OnTap      func(key keyboard.KeyCode, tap Tap, pending int)
	OnDispatch func(key keyboard.KeyCode, d Dispatch)
	OnFailure  func(key keyboard.KeyCode, d Dispatch, recovered any)
}

func (o ObserverFuncs) TapRecorded(key keyboard.KeyCode, tap Tap, pending int) {
	if o.OnTap != nil {
		o.OnTap(key, tap, pending)
	}
}

func (o ObserverFuncs) Dispatched(key keyboard.KeyCode, d Dispatch) {
	if o.OnDispatch != nil {
		o.OnDispatch(key, d)
	}
}

func (o ObserverFuncs) ActionFailed(key keyboard.KeyCode, d Dispatch, recovered any) {
	if o.OnFailure != nil {
		o.OnFailure(key, d, recovered)
	}
}

// Observers fans out to several observers in order.
type Observers []Observer

func (obs Observers) TapRecorded(key keyboard.KeyCode, tap Tap, pending int) {
	for _, o := range obs {
		o.TapRecorded(key, tap, pending)
	}
}

func (obs Observers) Dispatched(key keyboard.KeyCode, d Dispatch) {
	for _, o := range obs {
		o.Dispatched(key, d)
	}
}

func (obs Observers) ActionFailed(key keyboard.KeyCode, d Dispatch, recovered any) {
	for _, o := range obs {
		o.ActionFailed(key, d, recovered)
	}
}

type nopObserver struct{}

func (nopObserver) TapRecorded(keyboard.KeyCode, Tap, int)      {}
func (nopObserver) Dispatched(keyboard.KeyCode, Dispatch)       {}
func (nopObserver) ActionFailed(keyboard.KeyCode, Dispatch, any) {}
