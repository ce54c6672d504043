package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// skipDirectories are directories that are never watched.
var skipDirectories = map[string]bool{
	".git":         true,
	".jj":          true,
	"node_modules": true,
}

const eventChannelBuffer = 100

// Watcher watches source roots recursively using fsnotify.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	events    chan ports.WatchEvent

	mu   sync.RWMutex
	skip []string
}

// NewWatcher creates a file system watcher. The underlying fsnotify watcher
// is opened by Start, so an unused Watcher holds no descriptors.
func NewWatcher(logger ports.Logger) *Watcher {
	return &Watcher{
		logger: logger,
		events: make(chan ports.WatchEvent, eventChannelBuffer),
	}
}

// Start begins watching every root recursively. Paths below skip, typically
// the destination root, produce no events.
func (w *Watcher) Start(ctx context.Context, roots []string, skip ...string) error {
	w.mu.Lock()
	if w.fsWatcher == nil {
		fsWatcher, err := fsnotify.NewWatcher()
		if err != nil {
			w.mu.Unlock()
			return zerr.Wrap(err, domain.ErrWatchFailed.Error())
		}
		w.fsWatcher = fsWatcher
	}
	w.skip = make([]string, 0, len(skip))
	for _, s := range skip {
		if s != "" {
			w.skip = append(w.skip, filepath.Clean(s))
		}
	}
	w.mu.Unlock()

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "root", root)
		}
		if !info.IsDir() {
			// fsnotify reports changes to a single file through its parent.
			root = filepath.Dir(root)
		}
		for dir := range w.watchRecursively(root) {
			if err := w.fsWatcher.Add(dir); err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "dir", dir)
			}
		}
	}

	go w.processEvents(ctx)

	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.fsWatcher == nil {
		return nil
	}
	return w.fsWatcher.Close()
}

// Events returns an iterator of file system events.
// The iterator ends once the watcher is stopped or its context is done.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

func (w *Watcher) watchRecursively(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // Unreadable directories are skipped.
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skipDirectories[d.Name()] || w.skipped(path) {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Watcher) skipped(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, s := range w.skip {
		if domain.Within(s, path) {
			return true
		}
	}
	return false
}

//nolint:cyclop // One branch per fsnotify channel and operation.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.skipped(event.Name) {
				continue
			}

			watchEvent, ok := convertEvent(event)
			if !ok {
				continue
			}

			select {
			case w.events <- watchEvent:
			case <-ctx.Done():
				return
			}

			if watchEvent.Operation == ports.OpCreate {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDirectories[info.Name()] {
					for dir := range w.watchRecursively(event.Name) {
						_ = w.fsWatcher.Add(dir)
					}
				}
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Error(zerr.Wrap(err, domain.ErrWatchFailed.Error()))
			}
		}
	}
}

func convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	switch {
	case event.Has(fsnotify.Write):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpWrite}, true
	case event.Has(fsnotify.Create):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpCreate}, true
	case event.Has(fsnotify.Remove):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpRemove}, true
	case event.Has(fsnotify.Rename):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpRename}, true
	default:
		return ports.WatchEvent{}, false
	}
}
