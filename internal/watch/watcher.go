// Package watch reports debounced changes to a fixed set of files.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"resumefit/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of events from editors and atomic renames
const DefaultDebounce = time.Second

// Watcher calls onChange once per burst of modifications to its files.
// Directories are watched too so that files replaced by rename are still seen.
type Watcher struct {
	mu sync.Mutex

	files   []string
	lastMod map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan chan struct{}
	fireChan chan struct{}
	done     chan struct{}

	onChange func()
	logger   *errors.Logger
	running  bool
}

// New creates a watcher for files. Empty paths are ignored.
func New(files []string, debounceDelay time.Duration, onChange func(), logger *errors.Logger) *Watcher {
	if debounceDelay <= 0 {
		debounceDelay = DefaultDebounce
	}
	var paths []string
	for _, f := range files {
		if f != "" {
			paths = append(paths, filepath.Clean(f))
		}
	}
	return &Watcher{
		files:         paths,
		lastMod:       make(map[string]time.Time),
		debounceDelay: debounceDelay,
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("file watcher is already running")
	}
	if len(w.files) == 0 {
		return fmt.Errorf("no files to watch")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	for _, file := range w.files {
		if stat, err := os.Stat(file); err == nil {
			w.lastMod[file] = stat.ModTime()
		}
	}

	dirs := w.directories()
	for _, dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			_ = fsWatcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	w.fsWatcher = fsWatcher
	w.stopChan = make(chan struct{})
	w.fireChan = make(chan struct{}, 1)
	w.done = make(chan struct{})
	w.running = true
	go w.loop()

	w.logger.Info("File watcher started",
		"files", w.files,
		"debounce_delay", w.debounceDelay.String())
	return nil
}

// Stop ends watching and waits for the event loop to exit. Stopping a stopped watcher is a no-op.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	err := w.fsWatcher.Close()
	done := w.done
	w.mu.Unlock()

	<-done
	if err != nil {
		w.logger.LogError(err, "Failed to close file watcher")
		return err
	}
	w.logger.Info("File watcher stopped")
	return nil
}

// IsRunning returns whether the watcher is currently running
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Files returns the watched paths
func (w *Watcher) Files() []string {
	return slices.Clone(w.files)
}

func (w *Watcher) directories() []string {
	var dirs []string
	for _, f := range w.files {
		dir := filepath.Dir(f)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.schedule()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "File watcher error")

		case <-w.fireChan:
			if w.anyChanged() {
				w.logger.Debug("Watched files changed", "files", w.files)
				w.onChange()
			}

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return slices.Contains(w.files, filepath.Clean(event.Name))
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	fire := w.fireChan
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

// anyChanged compares modification times with the last observed ones.
// Only the event loop touches lastMod after Start.
func (w *Watcher) anyChanged() bool {
	changed := false
	for _, file := range w.files {
		stat, err := os.Stat(file)
		if err != nil {
			continue
		}
		if last, ok := w.lastMod[file]; !ok || !stat.ModTime().Equal(last) {
			w.lastMod[file] = stat.ModTime()
			changed = true
		}
	}
	return changed
}
