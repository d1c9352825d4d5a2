package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"stagehand/pkg/logging"
)

// Setter receives session changes. A nil value means sign-out.
type Setter interface {
	SetSession(value any) error
}

// WatcherConfig holds configuration for the token file watcher.
type WatcherConfig struct {
	// TokenFile is the file holding the session token.
	TokenFile string

	// WatchInterval is the fallback polling interval when fsnotify is not available.
	WatchInterval time.Duration

	// Debounce is the time to wait after the last change before the file is
	// read again.
	Debounce time.Duration

	// Setter receives every token read from the file, and nil when the file
	// disappears.
	Setter Setter
}

const (
	// DefaultWatchInterval is the polling interval used without fsnotify.
	DefaultWatchInterval = 2 * time.Second

	// DefaultDebounceInterval is the time to wait before re-reading the token
	// after the last file change is detected.
	DefaultDebounceInterval = 250 * time.Millisecond
)

// Watcher monitors the token file and pushes its content to the session
// unit. It uses fsnotify on the containing directory, so the file may be
// created, replaced or removed at any time, and falls back to polling when
// fsnotify is not available.
type Watcher struct {
	mu sync.Mutex

	config WatcherConfig

	// fsWatcher is the fsnotify watcher (nil while polling)
	fsWatcher *fsnotify.Watcher

	stopCh  chan struct{}
	running bool

	// signedIn is true after a token was handed to the setter
	signedIn bool

	// lastModTime and lastPresent back the polling fallback
	lastModTime time.Time
	lastPresent bool

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewWatcher creates a new token file watcher.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.TokenFile == "" {
		return nil, errors.New("token file is required")
	}
	if config.Setter == nil {
		return nil, errors.New("session setter is required")
	}
	if config.WatchInterval == 0 {
		config.WatchInterval = DefaultWatchInterval
	}
	if config.Debounce == 0 {
		config.Debounce = DefaultDebounceInterval
	}
	return &Watcher{config: config}, nil
}

// Start reads the token file once and begins watching it.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.stopCh = make(chan struct{})
	w.running = true
	w.mu.Unlock()

	w.sync()

	dir := filepath.Dir(w.config.TokenFile)

	w.mu.Lock()
	defer w.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("Session", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges()
		return nil
	}

	if err := watcher.Add(dir); err != nil {
		logging.Warn("Session", "Failed to watch directory %s, falling back to polling: %v", dir, err)
		watcher.Close()
		go w.pollForChanges()
		return nil
	}
	w.fsWatcher = watcher

	// Capture channels before releasing lock to avoid race conditions
	go w.processEvents(watcher.Events, watcher.Errors)

	logging.Info("Session", "Watching %s for session changes", w.config.TokenFile)
	return nil
}

// processEvents handles fsnotify events.
func (w *Watcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("Session", err, "fsnotify error")
		}
	}
}

// handleEvent reacts to changes of the token file only.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.config.TokenFile) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	logging.Debug("Session", "Token file event: %s", event)
	w.syncDebounced()
}

// syncDebounced re-reads the token after the debounce period, collapsing
// the burst of events an editor or an atomic replace produces.
func (w *Watcher) syncDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.config.Debounce, func() {
		if w.IsRunning() {
			w.sync()
		}
	})
}

// sync reads the token file and hands the result to the setter. A missing
// file signs out if a token was handed over before; an unreadable or
// invalid file is logged and leaves the session untouched.
func (w *Watcher) sync() {
	token, err := ReadToken(w.config.TokenFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		w.mu.Lock()
		signedIn := w.signedIn
		w.signedIn = false
		w.mu.Unlock()
		if !signedIn {
			return
		}
		logging.Info("Session", "Token file %s removed, signing out", w.config.TokenFile)
		if err := w.config.Setter.SetSession(nil); err != nil {
			logging.Error("Session", err, "Failed to clear session")
		}
	case err != nil:
		logging.Error("Session", err, "Ignoring unreadable token file")
	default:
		if err := w.config.Setter.SetSession(token); err != nil {
			logging.Error("Session", err, "Failed to set session")
			return
		}
		w.mu.Lock()
		w.signedIn = true
		w.mu.Unlock()
		logging.Info("Session", "Session updated from %s", w.config.TokenFile)
	}
}

// pollForChanges implements fallback polling when fsnotify is not available.
func (w *Watcher) pollForChanges() {
	ticker := time.NewTicker(w.config.WatchInterval)
	defer ticker.Stop()

	w.checkForChanges()

	for {
		select {
		case <-w.stopCh:
			return

		case <-ticker.C:
			if w.checkForChanges() {
				logging.Debug("Session", "Token file change detected via polling")
				w.syncDebounced()
			}
		}
	}
}

// checkForChanges reports whether the token file appeared, disappeared or
// was modified since the last call.
func (w *Watcher) checkForChanges() bool {
	info, err := os.Stat(w.config.TokenFile)
	present := err == nil

	w.mu.Lock()
	defer w.mu.Unlock()

	changed := present != w.lastPresent
	if present {
		if info.ModTime().After(w.lastModTime) && w.lastPresent {
			changed = true
		}
		w.lastModTime = info.ModTime()
	}
	w.lastPresent = present
	return changed
}

// Stop stops watching. The current session is left as it is.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("Session", "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}

	logging.Info("Session", "Stopped session watcher")
	return nil
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
