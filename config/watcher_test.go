package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, Save(path, Default()))

	w, err := Watch(path)
	require.NoError(t, err)
	defer w.Close()

	changed := make(chan *Settings, 4)
	w.OnChange(func(s *Settings) { changed <- s })

	next := Default()
	next.DebounceMs = 450
	require.NoError(t, Save(path, next))

	select {
	case s := <-changed:
		assert.Equal(t, 450, s.DebounceMs)
	case err := <-w.Errors():
		t.Fatalf("reload error: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherReportsInvalidEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, Save(path, Default()))

	w, err := Watch(path)
	require.NoError(t, err)
	defer w.Close()

	w.OnChange(func(*Settings) { t.Error("invalid edit must not be applied") })
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	select {
	case err := <-w.Errors():
		assert.ErrorIs(t, err, ErrInvalid)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, Save(path, Default()))

	w, err := Watch(path)
	require.NoError(t, err)
	defer w.Close()

	changed := make(chan struct{}, 1)
	w.OnChange(func(*Settings) { changed <- struct{}{} })
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	select {
	case <-changed:
		t.Fatal("reloaded for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherNotifiesEveryCallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, Save(path, Default()))

	w, err := Watch(path)
	require.NoError(t, err)
	defer w.Close()

	first := make(chan *Settings, 4)
	second := make(chan *Settings, 4)
	w.OnChange(func(s *Settings) { first <- s })
	w.OnChange(func(s *Settings) { second <- s })

	next := Default()
	next.ShortMaxMs = 220
	require.NoError(t, Save(path, next))

	for i, ch := range []chan *Settings{first, second} {
		select {
		case s := <-ch:
			assert.Equal(t, 220, s.ShortMaxMs, "callback %d", i)
		case <-time.After(3 * time.Second):
			t.Fatalf("callback %d not called", i)
		}
	}
}

func TestWatcherCloseEndsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, Save(path, Default()))

	w, err := Watch(path)
	require.NoError(t, err)

	drained := make(chan struct{})
	go func() {
		for range w.Errors() {
		}
		close(drained)
	}()

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("Errors channel still open after Close")
	}
	w.report(os.ErrClosed) // must not panic on the closed channel
}
