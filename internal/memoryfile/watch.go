package memoryfile

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sriinnu/chitragupta/internal/layout"
)

// debounceDelay coalesces the burst of Write events an editor's save
// sequence (write-then-rename, or multiple flushes) tends to produce.
const debounceDelay = 200 * time.Millisecond

// Watcher invalidates a Manager's cache when a memory markdown file changes
// on disk for a reason other than Manager.Append - an editor open on
// memory/global.md, a sync tool, a human fixing up project.md by hand.
type Watcher struct {
	fsw     *fsnotify.Watcher
	manager *Manager
	stop    chan struct{}
}

// NewWatcher creates a Watcher rooted at home's memory/ tree and registers
// watches on every directory present (including ones created after
// construction, picked up via Create events as they arrive).
func NewWatcher(home *layout.Home, manager *Manager) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	root := filepath.Join(home.Root(), "memory")
	if err := os.MkdirAll(root, 0o755); err != nil {
		fsw.Close()
		return nil, err
	}
	if err := addRecursive(fsw, root); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{fsw: fsw, manager: manager, stop: make(chan struct{})}, nil
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			_ = fsw.Add(path)
		}
		return nil
	})
}

// Run consumes fsnotify events until Stop is called, debouncing rapid
// writes to the same path before invalidating the cache.
func (w *Watcher) Run() {
	timers := make(map[string]*time.Timer)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.fsw.Add(event.Name)
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}
			path := event.Name
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(debounceDelay, func() {
				w.manager.Invalidate(path)
			})
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		case <-w.stop:
			return
		}
	}
}

// Stop shuts the watcher down and releases its inotify/kqueue handle.
func (w *Watcher) Stop() {
	close(w.stop)
	_ = w.fsw.Close()
}
