//go:build !linux

package action

func init() {
	register("mpris", func() Sender { return unsupportedMPRIS{} })
}

type unsupportedMPRIS struct{}

func (unsupportedMPRIS) Init() error    { return ErrUnsupported }
func (unsupportedMPRIS) Send(Key) error { return ErrUnsupported }
