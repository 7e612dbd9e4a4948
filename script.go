package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"tapkey/action"
	"tapkey/config"
	"tapkey/keyboard"
	"tapkey/log"
	"tapkey/tap"
)

func newScriptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "script",
		Short: "Drive the detector from stdin with a simulated key",
		Long: `Read commands from stdin, one per line, and apply them to a simulated
media key on the real detector:

  PRESS [pressure]   press the key (pressure defaults to 1)
  RELEASE            release the key
  FAIL n             make the next n reads fail
  SLEEP ms           wait
  QUIT               stop reading

Each fired binding prints "dispatch <name>". Actions are never performed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer log.Close()
			s, err := scriptSettings()
			if err != nil {
				return err
			}
			log.SessionStart("fake", "dry-run", configFlag, 1)
			return runScript(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), s)
		},
	}
}

// scriptSettings reads the settings file if there is one but never creates
// or repairs it.
func scriptSettings() (*config.Settings, error) {
	s := config.Default()
	path, err := config.Path(configFlag)
	if err != nil {
		return nil, err
	}
	loaded, err := config.Load(path)
	switch {
	case err == nil:
		s = loaded
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	return s, nil
}

func runScript(ctx context.Context, in io.Reader, out io.Writer, s *config.Settings) error {
	src := keyboard.NewFake()
	key := s.MediaKey

	var outMu sync.Mutex
	emit := func(format string, args ...any) {
		outMu.Lock()
		fmt.Fprintf(out, format+"\n", args...)
		outMu.Unlock()
	}

	obs := tap.Observers{
		&sessionObserver{},
		tap.ObserverFuncs{
			OnDispatch: func(_ keyboard.KeyCode, d tap.Dispatch) { emit("dispatch %s", d.Name) },
			OnFailure: func(_ keyboard.KeyCode, d tap.Dispatch, r any) {
				emit("action_failed %s: %v", d.Name, r)
			},
		},
	}
	det, err := tap.New(src, tap.WithObserver(obs))
	if err != nil {
		return err
	}
	defer det.Close()

	disp := action.NewDispatcher(action.NewRecorder())
	kc, err := buildKeyConfig(s, disp)
	if err != nil {
		return err
	}
	det.AddKeyConfig(kc)
	det.Start(ctx)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		verb, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToUpper(verb) {
		case "PRESS":
			p := float64(1)
			if arg != "" {
				if p, err = strconv.ParseFloat(arg, 32); err != nil {
					return fmt.Errorf("PRESS: bad pressure %q", arg)
				}
			}
			src.SetPressure(key, float32(p))
		case "RELEASE":
			src.SimRelease(key)
		case "FAIL":
			n, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("FAIL: bad count %q", arg)
			}
			src.FailReads(key, n)
		case "SLEEP":
			ms, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("SLEEP: bad duration %q", arg)
			}
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		case "QUIT":
			return nil
		default:
			return fmt.Errorf("unknown command %q", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	// let a pending gesture resolve before exiting on EOF
	select {
	case <-time.After(s.Debounce() + 10*tap.PollInterval):
	case <-ctx.Done():
	}
	return nil
}
