//go:build !linux && !darwin

package action

func init() {
	register("keystroke", func() Sender { return unsupported{} })
}

type unsupported struct{}

func (unsupported) Init() error    { return ErrUnsupported }
func (unsupported) Send(Key) error { return ErrUnsupported }
