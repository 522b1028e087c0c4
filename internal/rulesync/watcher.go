package rulesync

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault absorbs editor write bursts (truncate + write + rename)
// into one sync trigger.
const debounceDefault = 200 * time.Millisecond

// Watcher triggers a callback when the rule-content file changes on disk.
// It watches the parent directory because most writers replace the file
// by rename, which drops a watch on the file itself.
type Watcher struct {
	path     string
	onChange func()
	debounce time.Duration
}

// NewWatcher creates a watcher for the given rule file.
func NewWatcher(path string, onChange func()) *Watcher {
	return &Watcher{path: path, onChange: onChange, debounce: debounceDefault}
}

// Run blocks until ctx is cancelled, invoking onChange after each
// debounced change to the rule file.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	base := filepath.Base(w.path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			w.onChange()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
