//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// Hotkey registration and the tray both need the main thread outside Linux,
// so the command tree runs inside mainthread.Init.
func main() {
	code := 0
	mainthread.Init(func() { code = execute() })
	os.Exit(code)
}
