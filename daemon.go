package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"tapkey/action"
	"tapkey/config"
	"tapkey/keyboard"
	"tapkey/log"
	"tapkey/shutdown"
	"tapkey/tap"
	"tapkey/tray"
)

var trayFlag bool

// sessionObserver logs detector activity and mirrors it in the tray.
type sessionObserver struct {
	dispatches atomic.Int64
}

func (o *sessionObserver) TapRecorded(key keyboard.KeyCode, t tap.Tap, pending int) {
	log.Tap(key.String(), string(t.Category), t.Duration, t.Pressure, pending)
}

func (o *sessionObserver) Dispatched(key keyboard.KeyCode, d tap.Dispatch) {
	o.dispatches.Add(1)
	log.Dispatch(key.String(), d.Name, d.Sequence.String(), d.Trigger.String())
	tray.SetStatus(fmt.Sprintf("%s (%s)", d.Name, d.Sequence))
	tray.Flash()
}

func (o *sessionObserver) ActionFailed(key keyboard.KeyCode, d tap.Dispatch, recovered any) {
	log.ActionFailed(key.String(), d.Name, fmt.Errorf("panic: %v", recovered))
}

// openDispatcher opens and initializes the action backend. Send failures
// are logged and shown in the tray.
func openDispatcher(name string) (*action.Dispatcher, error) {
	sender, err := action.Open(name)
	if err != nil {
		return nil, err
	}
	d := action.NewDispatcher(sender)
	if err := d.Init(); err != nil {
		return nil, fmt.Errorf("initialize action backend: %w", err)
	}
	d.OnError = func(k action.Key, err error) {
		log.Errorf("send %s: %v", k, err)
		tray.SetStatus(fmt.Sprintf("%s failed", k))
	}
	return d, nil
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	defer log.Close()
	started := time.Now()

	s, path, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	src, err := keyboard.Open(s.Backend)
	if err != nil {
		return err
	}
	obs := &sessionObserver{}
	det, err := tap.New(src, tap.WithObserver(obs))
	if err != nil {
		log.Errorf("%v", err)
		return err
	}
	defer det.Close()

	disp, err := openDispatcher(s.ActionBackend)
	if err != nil {
		log.Errorf("%v", err)
		return err
	}
	kc, err := buildKeyConfig(s, disp)
	if err != nil {
		return err
	}
	det.AddKeyConfig(kc)

	if w, err := config.Watch(path); err != nil {
		log.Warnf("settings will not reload: %v", err)
	} else {
		defer w.Close()
		w.OnChange(func(next *config.Settings) { reload(det, disp, next, path) })
		go func() {
			for err := range w.Errors() {
				log.Warnf("%v", err)
				tray.SetStatus("settings error, see log")
			}
		}()
	}

	ctx, stop := shutdown.Context(cmd.Context())
	defer stop()
	det.Start(ctx)

	log.SessionStart(keyboard.Name(src), s.ActionBackend, path, 1)
	fmt.Fprintf(cmd.OutOrStdout(), "tapkey %s: watching %s on %s (Ctrl+C to quit)\n",
		version, s.MediaKey, keyboard.Name(src))

	if trayFlag {
		tray.SetConfigPath(path)
		tray.SetStatus("watching " + s.MediaKey.String())
		quit := tray.Init()
		select {
		case <-ctx.Done():
		case <-quit:
		}
	} else {
		<-ctx.Done()
	}

	det.Stop()
	tray.Quit()
	log.SessionEnd(int(obs.dispatches.Load()), time.Since(started))
	return nil
}

// reload applies edited settings. The keyboard backend is fixed for the
// session, so only bindings and timing change.
func reload(det *tap.Detector, disp *action.Dispatcher, s *config.Settings, path string) {
	applyBackendFlag(s)
	kc, err := buildKeyConfig(s, disp)
	if err != nil {
		log.Warnf("reload %s: %v", path, err)
		return
	}
	det.SetKeyConfigs([]*tap.KeyConfig{kc})
	log.ConfigReload(path, 1)
	tray.SetStatus("settings reloaded")
}
