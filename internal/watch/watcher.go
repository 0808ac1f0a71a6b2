// Package watch reloads the configuration file when it changes on disk.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"pixed/internal/config"
	"pixed/internal/errors"
	"pixed/internal/log"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor produces when
// saving a file.
const DefaultDebounce = 150 * time.Millisecond

// Reload is the outcome of re-reading the watched file. Err is set when the
// new contents could not be loaded; Config is nil in that case.
type Reload struct {
	Path      string
	Config    *config.Config
	Err       error
	Timestamp time.Time
	Op        fsnotify.Op
}

// Watcher monitors one configuration file using fsnotify. The parent
// directory is watched so that atomic saves (write to temp, rename over)
// are seen.
type Watcher struct {
	path     string
	debounce time.Duration

	// Channel to receive reloads
	reloads chan Reload

	// Channel to signal stop
	stopChan chan struct{}

	fsWatcher *fsnotify.Watcher

	// Lock for running state and the pending debounce timer
	mutex   sync.Mutex
	running bool
	timer   *time.Timer
	lastOp  fsnotify.Op
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits for events to settle.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for the configuration file at path. The file need
// not exist yet, but its directory must.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", path)
	}
	dir := filepath.Dir(abs)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "error accessing directory")
	}
	if !info.IsDir() {
		return nil, errors.Newf("%s is not a directory", dir)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, errors.Wrapf(err, "failed to add directory %s to watcher", dir)
	}

	w := &Watcher{
		path:      abs,
		debounce:  DefaultDebounce,
		reloads:   make(chan Reload, 4),
		fsWatcher: fsWatcher,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Reloads returns the channel that delivers reload results. It is closed
// by Stop.
func (w *Watcher) Reloads() <-chan Reload {
	return w.reloads
}

// Start begins processing file events.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	stop := w.stopChan
	w.mutex.Unlock()

	go w.loop(stop)
	log.LogWithFields(log.F("file", w.path)).Info("Watching configuration file")
	return nil
}

func (w *Watcher) loop(stop <-chan struct{}) {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			// A removal is usually the first half of an atomic save; the
			// following create triggers the reload.
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Rename) {
				w.schedule(event.Op)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

		case <-stop:
			return
		}
	}
}

func (w *Watcher) schedule(op fsnotify.Op) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !w.running {
		return
	}
	w.lastOp = op
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !w.running {
		return
	}
	w.timer = nil

	// A rename away leaves nothing to read yet.
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		return
	}

	r := Reload{Path: w.path, Timestamp: time.Now(), Op: w.lastOp}
	r.Config, r.Err = config.LoadConfigFile(w.path)
	if r.Err != nil {
		log.LogWithError(r.Err).Warn("Configuration reload failed")
	} else {
		log.LogWithFields(log.F("file", w.path)).Info("Configuration reloaded")
	}

	select {
	case w.reloads <- r:
	default:
		log.LogWithFields(log.F("file", w.path)).Warn("Reload channel is full, dropped reload")
	}
}

// Stop halts watching and closes the reload channel.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.running {
		return
	}
	close(w.stopChan)
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}
	w.running = false
	close(w.reloads)
	log.Info("Watcher stopped.")
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.running
}
