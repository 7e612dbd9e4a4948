//go:build !linux

package tray

import (
	"fyne.io/systray"
	"golang.design/x/hotkey/mainthread"
)

// Init shows the status icon and returns a channel closed on Quit. The
// native loop must start and end on the main thread.
func Init() <-chan struct{} {
	start, end := systray.RunWithExternalLoop(onReady, onExit)
	setEnd(func() { mainthread.Call(end) })
	done := make(chan struct{})
	mainthread.Call(func() {
		start()
		close(done)
	})
	<-done
	return quitCh
}
