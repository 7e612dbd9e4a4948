package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDelay = 100 * time.Millisecond

// Watcher reloads the settings file when it changes on disk. Invalid
// edits are reported on Errors and leave the current settings in place.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	done    chan struct{}
	closeMu sync.Once

	errMu  sync.Mutex
	errs   chan error
	closed bool

	mu       sync.Mutex
	onChange []func(*Settings)
	timer    *time.Timer
}

// Watch starts watching the directory that holds path, so editors that
// replace the file by rename are seen too.
func Watch(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}
	w := &Watcher{
		path: path,
		fsw:  fsw,
		errs: make(chan error, 1),
		done: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) OnChange(fn func(*Settings)) {
	w.mu.Lock()
	w.onChange = append(w.onChange, fn)
	w.mu.Unlock()
}

// Errors delivers reload failures. Errors are dropped while one is unread.
// The channel is closed by Close.
func (w *Watcher) Errors() <-chan error { return w.errs }

func (w *Watcher) loop() {
	name := filepath.Base(w.path)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(reloadDelay, w.reload)
			w.mu.Unlock()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}
	s, err := Load(w.path)
	if err != nil {
		w.report(fmt.Errorf("reload %s: %w", w.path, err))
		return
	}
	w.mu.Lock()
	fns := slices.Clone(w.onChange)
	w.mu.Unlock()
	for _, fn := range fns {
		fn(s.Clone())
	}
}

func (w *Watcher) report(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.errs <- err:
	default:
	}
}

func (w *Watcher) Close() error {
	var err error
	w.closeMu.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.fsw.Close()

		w.errMu.Lock()
		w.closed = true
		close(w.errs)
		w.errMu.Unlock()
	})
	return err
}
