package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pixed/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitReload(t *testing.T, ch <-chan Reload) Reload {
	t.Helper()
	select {
	case r, ok := <-ch:
		require.True(t, ok, "reload channel closed unexpectedly")
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout waiting for reload")
	}
	return Reload{}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("canvas:\n  width: 640\n"), 0644))

	w, err := New(path, WithDebounce(100*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()
	assert.True(t, w.IsRunning())

	// Allow a brief moment for fsnotify to initialize watches
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("canvas:\n  width: 800\n  height: 600\n"), 0644))

	r := waitReload(t, w.Reloads())
	require.NoError(t, r.Err)
	require.NotNil(t, r.Config)
	assert.Equal(t, w.Path(), r.Path)
	assert.Equal(t, 800, r.Config.Canvas.Width)
	assert.Equal(t, 600, r.Config.Canvas.Height)
}

func TestWatcherReportsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	w, err := New(path, WithDebounce(100*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("view:\n  zoom_step: -3\n"), 0644))

	r := waitReload(t, w.Reloads())
	require.Error(t, r.Err)
	assert.Nil(t, r.Config)
	assert.True(t, errors.IsInvalidConfig(r.Err))
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	w, err := New(path, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644))

	select {
	case r := <-w.Reloads():
		t.Fatalf("unexpected reload: %+v", r)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	w, err := New(path, WithDebounce(200*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("canvas:\n  width: 100\n"), 0644))
	}

	r := waitReload(t, w.Reloads())
	require.NoError(t, r.Err)

	select {
	case extra := <-w.Reloads():
		t.Fatalf("burst should coalesce into one reload, got another: %+v", extra)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherStartStop(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	require.NoError(t, w.Start())
	assert.Error(t, w.Start(), "second start must fail")

	w.Stop()
	assert.False(t, w.IsRunning())
	w.Stop()

	_, ok := <-w.Reloads()
	assert.False(t, ok, "reload channel should be closed after stop")
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Unwrap(err)))

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = New(filepath.Join(file, "config.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}
