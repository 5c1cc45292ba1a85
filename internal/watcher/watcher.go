// Package watcher notifies the rest of the service when the shared
// directory changes on disk, so connected clients can refresh their file
// listings without polling.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lansend/lansend/internal/logger"
)

// Watcher observes one directory tree. Events are debounced: rapid bursts
// (an unpacking archive, a large copy) collapse into a single notification.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func(path string)

	mu   sync.Mutex
	root string
}

// New creates a watcher that calls onChange with the affected path after
// each debounced burst of events. A zero debounce defaults to 500ms.
func New(debounce time.Duration, onChange func(path string)) (*Watcher, error) {
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{fsw: fsw, debounce: debounce, onChange: onChange}, nil
}

// Watch replaces the watched tree with the one rooted at dir. Subdirectories
// are registered recursively; new ones are picked up as create events arrive.
func (w *Watcher) Watch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.root != "" {
		for _, watched := range w.fsw.WatchList() {
			_ = w.fsw.Remove(watched)
		}
	}
	w.root = dir

	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Unreadable subdirectories are skipped, not fatal.
			logger.Debug("Watcher skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}

// Run processes events until the context is cancelled, then closes the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var (
		timer   *time.Timer
		pending string
	)
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				// A new directory needs its own watch before anything
				// inside it can be seen.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.fsw.Add(event.Name); err != nil {
						logger.Debug("Watcher add %s: %v", event.Name, err)
					}
				}
				logger.Debug("New file detected: %s", event.Name)
			}
			pending = event.Name
			if timer == nil {
				timer = time.AfterFunc(w.debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			if w.onChange != nil {
				w.onChange(pending)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("File watcher error: %v", err)
		}
	}
}
