package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gallery-player/internal/logging"
	"gallery-player/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

// maxWatchedDirs caps how many directories the watcher registers.
// fsnotify watches are not recursive and inotify handles are finite.
const maxWatchedDirs = 512

// Watcher monitors a local photo tree and invokes onChange when files
// are created, removed, or renamed. Debouncing is the caller's concern;
// the engine funnels change notifications through its criteria debounce.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	onChange func()
	stopCh   chan struct{}
}

// NewWatcher creates a watcher over root. The watch set covers root and
// its subdirectories up to maxWatchedDirs.
func NewWatcher(root string, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		watcher:  fw,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}

	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}

	return w, nil
}

func (w *Watcher) addTree(root string) error {
	count := 0
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("watcher: error accessing %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if count >= maxWatchedDirs {
			logging.Warn("watcher: directory cap (%d) reached, %s not watched", maxWatchedDirs, path)
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.Warn("watcher: failed to watch %s: %v", path, err)
			return nil
		}
		count++
		return nil
	})
}

// Start runs the watch loop. It blocks until Stop is called or the
// underlying watcher closes.
func (w *Watcher) Start() {
	logging.Info("watching %s for changes", w.root)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isRelevantEvent(event) {
				continue
			}
			metrics.WatcherEventsTotal.Inc()
			logging.Debug("watcher event: %s %s", event.Op, event.Name)

			// New directories join the watch set so nested additions
			// keep triggering refreshes.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watcher.Add(event.Name); err != nil {
						logging.Debug("watcher: failed to watch new dir %s: %v", event.Name, err)
					}
				}
			}

			if w.onChange != nil {
				w.onChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("watcher error: %v", err)
		}
	}
}

// Stop halts the watch loop and releases the fsnotify resources.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

// isRelevantEvent filters for events that change playlist contents.
// Chmod and plain writes to existing files do not alter membership.
func isRelevantEvent(e fsnotify.Event) bool {
	return e.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
