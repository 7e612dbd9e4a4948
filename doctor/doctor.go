package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"tapkey/action"
	"tapkey/keyboard"
	"tapkey/shutdown"
	"tapkey/tap"
)

type Options struct {
	Backend       string
	Key           keyboard.KeyCode
	ActionBackend string
	Ranges        []tap.Range
	// Threshold is the pressure a reading must exceed to count as pressed.
	Threshold float32

	// Source replaces the backend named by Backend.
	Source keyboard.Source
	// Wait bounds the key press check; zero means 10s.
	Wait time.Duration
	Out  io.Writer
}

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
// An interrupt while waiting for the key fails the run.
func Run(ctx context.Context, opts Options) int {
	ctx, stop := shutdown.Context(ctx)
	defer stop()
	return run(ctx, opts)
}

func run(ctx context.Context, opts Options) int {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Wait == 0 {
		opts.Wait = 10 * time.Second
	}
	if opts.Ranges == nil {
		opts.Ranges = tap.DefaultRanges()
	}
	w := opts.Out

	fmt.Fprintln(w, "tapkey doctor - interactive system diagnostics")
	fmt.Fprintln(w, "===============================================")

	allPass := true
	src, ok := checkBackend(w, opts)
	if !ok {
		allPass = false
	}
	if allPass && !checkKeyPress(ctx, w, src, opts) {
		allPass = false
	}
	if c, ok := src.(io.Closer); ok {
		c.Close()
	}
	if ctx.Err() != nil {
		fmt.Fprintln(w, "\nInterrupted")
		return 1
	}
	if !checkActions(w, opts.ActionBackend) {
		allPass = false
	}

	fmt.Fprintln(w)
	if allPass {
		fmt.Fprintln(w, "All checks passed!")
		return 0
	}
	fmt.Fprintln(w, "Some checks failed. See details above.")
	return 1
}

func checkBackend(w io.Writer, opts Options) (keyboard.Source, bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[1/3] Keyboard backend")

	if msg, err := keyboard.Diagnose(); err != nil {
		fmt.Fprintf(w, "  Warning: %v\n", err)
	} else {
		fmt.Fprintf(w, "  %s\n", msg)
	}

	src := opts.Source
	if src == nil {
		var err error
		if src, err = keyboard.Open(opts.Backend); err != nil {
			fmt.Fprintf(w, "  FAIL: %v\n", err)
			fmt.Fprintf(w, "  Available backends: %v\n", keyboard.Backends())
			return nil, false
		}
	}
	if err := src.Initialize(); err != nil {
		fmt.Fprintf(w, "  FAIL: %s backend: %v\n", keyboard.Name(src), err)
		return src, false
	}
	fmt.Fprintf(w, "  PASS: %s backend initialized\n", keyboard.Name(src))
	return src, true
}

func checkKeyPress(ctx context.Context, w io.Writer, src keyboard.Source, opts Options) bool {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[2/3] Key detection")
	fmt.Fprintf(w, "Press and release %s...\n", opts.Key)

	deadline := time.After(opts.Wait)
	ticker := time.NewTicker(tap.PollInterval)
	defer ticker.Stop()

	var pressedAt time.Time
	var peak float32
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline:
			if pressedAt.IsZero() {
				fmt.Fprintln(w, "  FAIL: timeout waiting for key press")
			} else {
				fmt.Fprintln(w, "  FAIL: key still held at timeout")
			}
			return false
		case now := <-ticker.C:
			p, err := src.ReadPressure(opts.Key)
			if err != nil {
				fmt.Fprintf(w, "  FAIL: read %s: %v\n", opts.Key, err)
				return false
			}
			peak = max(peak, p)
			switch {
			case pressedAt.IsZero() && p > opts.Threshold:
				pressedAt = now
			case !pressedAt.IsZero() && p <= opts.Threshold:
				d := now.Sub(pressedAt)
				fmt.Fprintf(w, "  PASS: %s tap, %dms, peak pressure %.2f\n",
					tap.Classify(d, opts.Ranges), d.Milliseconds(), peak)
				return true
			}
		}
	}
}

func checkActions(w io.Writer, backend string) bool {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[3/3] Action output")

	s, err := action.Open(backend)
	if err != nil {
		fmt.Fprintf(w, "  FAIL: %v\n", err)
		return false
	}
	if err := s.Init(); err != nil {
		fmt.Fprintf(w, "  FAIL: %v\n", err)
		fmt.Fprintln(w, "  Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		return false
	}
	if p, ok := s.(interface{ Players() ([]string, error) }); ok {
		players, err := p.Players()
		if err != nil {
			fmt.Fprintf(w, "  FAIL: %v\n", err)
			return false
		}
		fmt.Fprintf(w, "  media players on the bus: %d\n", len(players))
	}
	fmt.Fprintln(w, "  PASS: action backend ready")
	return true
}
