package tray

import (
	"sync"
	"time"

	"fyne.io/systray"
	"github.com/atotto/clipboard"
)

const appName = "Tapkey"

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	mu         sync.Mutex
	configPath string
	lastStatus = "idle"
	mStatus    *systray.MenuItem
	active     bool
	endLoop    func()

	// overridable in tests
	copyText = clipboard.WriteAll
)

// SetConfigPath sets the path that "Copy Config Path" puts on the clipboard.
func SetConfigPath(p string) {
	mu.Lock()
	configPath = p
	mu.Unlock()
}

// SetStatus shows msg in the disabled status item and tooltip.
func SetStatus(msg string) {
	mu.Lock()
	lastStatus = msg
	item := mStatus
	mu.Unlock()
	if item != nil {
		item.SetTitle(msg)
		systray.SetTooltip(appName + " – " + msg)
	}
}

func Status() string {
	mu.Lock()
	defer mu.Unlock()
	return lastStatus
}

// Flash switches to the active icon briefly after a dispatch.
func Flash() {
	mu.Lock()
	if mStatus == nil || active {
		mu.Unlock()
		return
	}
	active = true
	mu.Unlock()

	systray.SetIcon(iconActive)
	time.AfterFunc(250*time.Millisecond, func() {
		mu.Lock()
		active = false
		mu.Unlock()
		setIdleIcon()
	})
}

// Quit closes the channel returned by Init and tears the tray down if it
// was started.
func Quit() {
	mu.Lock()
	end := endLoop
	endLoop = nil
	mu.Unlock()

	closeQuit()
	if end != nil {
		end()
	}
}

func closeQuit() {
	closeOnce.Do(func() { close(quitCh) })
}

func setEnd(end func()) {
	mu.Lock()
	endLoop = end
	mu.Unlock()
}

func copyConfigPath() error {
	mu.Lock()
	p := configPath
	mu.Unlock()
	if p == "" {
		return nil
	}
	return copyText(p)
}

func onReady() {
	setIdleIcon()
	systray.SetTitle("")
	systray.SetTooltip(appName + " – " + Status())

	status := systray.AddMenuItem(Status(), "Last gesture")
	status.Disable()
	mu.Lock()
	mStatus = status
	mu.Unlock()

	systray.AddSeparator()
	mCopy := systray.AddMenuItem("Copy Config Path", "Copy the settings file path to the clipboard")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit "+appName)

	go func() {
		for {
			select {
			case <-mCopy.ClickedCh:
				if err := copyConfigPath(); err != nil {
					SetStatus("clipboard: " + err.Error())
				}
			case <-mQuit.ClickedCh:
				Quit()
				return
			case <-quitCh:
				return
			}
		}
	}()
}

// onExit also runs from the end func, so it must not call Quit.
func onExit() {
	closeQuit()
}
