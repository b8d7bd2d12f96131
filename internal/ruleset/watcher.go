package ruleset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/keywatch/internal/logging"
)

// Invalidator is notified when the watched rule file changes
type Invalidator interface {
	Invalidate()
}

// DefaultDebounce collapses bursts of file events from editors
const DefaultDebounce = 250 * time.Millisecond

// Watcher invalidates a rule store when its rule file changes
type Watcher struct {
	path     string
	target   Invalidator
	debounce time.Duration
	logger   logging.Logger
	onChange func()
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce window
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatchLogger sets the logger
func WithWatchLogger(l logging.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// OnChange registers a callback run after each invalidation
func OnChange(fn func()) WatcherOption {
	return func(w *Watcher) { w.onChange = fn }
}

// NewWatcher creates a watcher for the rule file at path
func NewWatcher(path string, target Invalidator, opts ...WatcherOption) *Watcher {
	w := &Watcher{path: filepath.Clean(path), target: target, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.OrNop(w.logger)
	return w
}

// Run watches until ctx is done. The parent directory is watched so that
// editors replacing the file by rename are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching rule file", logging.String("path", w.path))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("rule watcher error", logging.Error(err))

		case <-timer.C:
			w.target.Invalidate()
			w.logger.Info("rule file changed, rule set invalidated", logging.String("path", w.path))
			if w.onChange != nil {
				w.onChange()
			}
		}
	}
}
