//go:build linux

package action

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPrefix = "org.mpris.MediaPlayer2."
	mprisPath   = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisPlayer = "org.mpris.MediaPlayer2.Player"
)

func init() {
	register("mpris", func() Sender { return &MPRIS{Fallback: &Keystroke{}} })
}

var mprisMethods = map[Key]string{
	MediaPlayPause: "PlayPause",
	MediaNextTrack: "Next",
	MediaPrevTrack: "Previous",
	MediaStop:      "Stop",
}

// ErrNoPlayers is returned when no MPRIS player is on the session bus.
var ErrNoPlayers = errors.New("no MPRIS media players running")

// MPRIS controls media players over the D-Bus session bus. Keys that are
// not transport controls go to Fallback.
type MPRIS struct {
	Fallback Sender

	mu   sync.Mutex
	conn *dbus.Conn
}

func (m *MPRIS) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		return nil
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}
	m.conn = conn
	return nil
}

// Players lists the bus names of running MPRIS players.
func (m *MPRIS) Players() ([]string, error) {
	if err := m.Init(); err != nil {
		return nil, err
	}
	var names []string
	if err := m.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	var players []string
	for _, n := range names {
		if strings.HasPrefix(n, mprisPrefix) {
			players = append(players, n)
		}
	}
	return players, nil
}

func (m *MPRIS) Send(key Key) error {
	method, ok := mprisMethods[key]
	if !ok {
		if m.Fallback == nil {
			return fmt.Errorf("%w: %s over mpris", ErrUnsupported, key)
		}
		return m.Fallback.Send(key)
	}

	players, err := m.Players()
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return ErrNoPlayers
	}
	var errs []error
	for _, p := range players {
		call := m.conn.Object(p, mprisPath).Call(mprisPlayer+"."+method, 0)
		if call.Err != nil {
			errs = append(errs, fmt.Errorf("%s.%s: %w", p, method, call.Err))
		}
	}
	return errors.Join(errs...)
}
