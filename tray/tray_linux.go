//go:build linux

package tray

import "fyne.io/systray"

// Init shows the status icon and returns a channel closed on Quit. The
// Linux tray talks to the StatusNotifier host over D-Bus and needs no
// particular thread.
func Init() <-chan struct{} {
	start, end := systray.RunWithExternalLoop(onReady, onExit)
	setEnd(end)
	start()
	return quitCh
}
