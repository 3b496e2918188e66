// Package watcher delivers debounced, recursive file system events for a document tree.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period before events are delivered.
const DefaultDebounceInterval = 100 * time.Millisecond

// IgnoreChecker reports paths the watcher never descends into or reports.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// Options configures a Watcher.
type Options struct {
	RootDir string
	Ignore  IgnoreChecker // optional
	// Accept limits file events to paths it returns true for. Removal of a watched
	// directory is always reported. Nil accepts every file.
	Accept   func(path string) bool
	Interval time.Duration // debounce interval, DefaultDebounceInterval when zero
	MaxDelay time.Duration // upper bound on batching, ten intervals when zero
	Logger   *slog.Logger
}

// Watcher watches a directory tree recursively and emits debounced batches of
// file events. Directories created later are watched as they appear.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	ignore    IgnoreChecker
	accept    func(string) bool
	rootDir   string
	logger    *slog.Logger

	mu   sync.Mutex
	dirs map[string]struct{} // watched directories
}

// NewWatcher starts watching every non-ignored directory under options.RootDir.
func NewWatcher(options Options) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	interval := options.Interval
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}
	maxDelay := options.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 10 * interval
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		debouncer: NewDebouncerWithMaxDelay(interval, maxDelay),
		ignore:    options.Ignore,
		accept:    options.Accept,
		rootDir:   options.RootDir,
		logger:    logger,
		dirs:      make(map[string]struct{}),
	}

	if err := w.addTree(w.rootDir); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and every non-ignored directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.rootDir && w.ignoreDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		w.mu.Lock()
		w.dirs[path] = struct{}{}
		w.mu.Unlock()
		return nil
	})
}

// Events returns the channel that receives debounced batches.
func (w *Watcher) Events() <-chan []DebouncedEvent {
	return w.debouncer.Output()
}

// Start forwards fsnotify events until the watcher is closed. Call it in a goroutine.
func (w *Watcher) Start() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.ignoreDir(path) {
				return
			}
			// Files may land in the directory before it is watched; the tree walk
			// registers nested directories, the periodic rescan catches those files.
			if err := w.addTree(path); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			return
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if w.forgetDir(path) {
			w.debouncer.Add(path, removalOp(event))
			return
		}
	}

	if w.ignore != nil && w.ignore.ShouldIgnore(path) {
		return
	}
	if w.accept != nil && !w.accept(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		w.debouncer.Add(path, OpCreate)
	case event.Has(fsnotify.Write):
		w.debouncer.Add(path, OpWrite)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.debouncer.Add(path, removalOp(event))
	}
}

func removalOp(event fsnotify.Event) EventOp {
	if event.Has(fsnotify.Remove) {
		return OpRemove
	}
	return OpRename
}

// forgetDir drops path and its subdirectories from the watched set. It reports
// whether path was a watched directory.
func (w *Watcher) forgetDir(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.dirs[path]; !ok {
		return false
	}
	prefix := path + string(filepath.Separator)
	for dir := range w.dirs {
		if dir == path || strings.HasPrefix(dir, prefix) {
			delete(w.dirs, dir)
		}
	}
	return true
}

// WatchedDirs returns the number of directories currently watched.
func (w *Watcher) WatchedDirs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirs)
}

func (w *Watcher) ignoreDir(path string) bool {
	return w.ignore != nil && w.ignore.ShouldIgnoreDir(path)
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.debouncer.Stop()
	return w.fsWatcher.Close()
}
