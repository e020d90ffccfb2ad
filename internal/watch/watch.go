// Package watch reruns a callback whenever a file changes on disk.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ajitpratap0/csvcols/pkg/errors"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 100 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce collapses bursts of events into one callback
	Debounce time.Duration
	Logger   *zap.Logger
}

// Watcher watches a single file.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger
}

// New creates a watcher for path.
func New(path string, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Watcher{
		path:     path,
		debounce: opts.Debounce,
		logger:   opts.Logger.With(zap.String("path", path)),
	}
}

// Run calls onChange after each write to the file until ctx is cancelled.
// Callback errors are logged and do not stop the watcher. Run returns nil
// when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create file watcher")
	}
	defer watcher.Close()

	// Watch the directory so editors that save by rename are still seen
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to watch directory").
			WithDetail("directory", dir)
	}
	w.logger.Info("watching file for changes")

	filename := filepath.Base(w.path)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug("file changed", zap.String("event", event.Op.String()))
			timer.Reset(w.debounce)

		case <-timer.C:
			if err := onChange(ctx); err != nil {
				w.logger.Error("reload failed", zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", zap.Error(err))

		case <-ctx.Done():
			return nil
		}
	}
}
