package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvPath   = "TAPKEY_LOG_PATH"
	FileName  = "tapkey_log.txt"
	CrashName = "crash_log.txt"
)

var (
	diagLog   zerolog.Logger
	diagFile  *os.File
	crashFile *os.File
	logMu     sync.Mutex
	logReady  bool
	verbose   bool
	pid       int
	dir       string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: --logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: TAPKEY_LOG_PATH environment variable
	if envPath := os.Getenv(EnvPath); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

// SetVerbose enables debug-level events such as individual taps.
func SetVerbose(v bool) {
	logMu.Lock()
	verbose = v
	if logReady {
		diagLog = diagLog.Level(level())
	}
	logMu.Unlock()
}

func level() zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).Level(level()).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

// InitCrashOutput sends runtime crash reports to crash_log.txt. It should
// run as early as possible, before any cgo backend is touched.
func InitCrashOutput() error {
	if err := EnsureDir(); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, CrashName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	fmt.Fprintf(f, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	if err := debug.SetCrashOutput(f, debug.CrashOptions{}); err != nil {
		f.Close()
		return err
	}
	logMu.Lock()
	crashFile = f
	logMu.Unlock()
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if crashFile != nil {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		crashFile.Close()
		crashFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Debugf(format string, args ...any) {
	if logReady {
		diagLog.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(backend, actions, configPath string, keys int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("backend", backend).
		Str("actions", actions).
		Str("config", configPath).
		Int("keys", keys).
		Msg("session_start")
}

func Tap(key, category string, d time.Duration, pressure float32, pending int) {
	if !logReady {
		return
	}
	diagLog.Debug().
		Str("key", key).
		Str("category", category).
		Dur("duration", d).
		Float32("pressure", pressure).
		Int("pending", pending).
		Msg("tap")
}

func Dispatch(key, binding, sequence, trigger string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("key", key).
		Str("binding", binding).
		Str("sequence", sequence).
		Str("trigger", trigger).
		Msg("dispatch")
}

func ActionFailed(key, binding string, err error) {
	if !logReady {
		return
	}
	diagLog.Error().
		Str("key", key).
		Str("binding", binding).
		Err(err).
		Msg("action_failed")
}

func ConfigReload(path string, keys int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("config", path).
		Int("keys", keys).
		Msg("config_reload")
}

func SessionEnd(dispatches int, uptime time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("dispatches", dispatches).
		Dur("uptime", uptime).
		Msg("session_end")
}
