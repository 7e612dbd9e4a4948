package action

import "sync"

func init() {
	register("dry-run", func() Sender { return NewRecorder() })
}

// Recorder is a Sender that only remembers what it was asked to send. The
// monitor uses it for dry runs.
type Recorder struct {
	mu   sync.Mutex
	sent []Key
	Err  error
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error { return nil }

func (r *Recorder) Send(k Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, k)
	return nil
}

func (r *Recorder) Sent() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Key, len(r.sent))
	copy(out, r.sent)
	return out
}
