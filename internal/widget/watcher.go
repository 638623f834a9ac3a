package widget

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kyawhla/hydromate/internal/logger"
)

// DefaultDebounce coalesces bursts of writes from the widget into one call
const DefaultDebounce = 250 * time.Millisecond

// Watcher calls OnChange after the queue file is written
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context)
	log      logger.Logger
}

// NewWatcher creates a watcher for the queue file at path. A zero debounce
// uses DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, onChange func(ctx context.Context), log logger.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{path: path, debounce: debounce, onChange: onChange, log: log}
}

// Run watches until ctx is cancelled. The parent directory is watched
// because both the widget and TruncateUpTo replace the file by rename.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	name := filepath.Base(w.path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("widget queue watcher error", logger.Err(err))

		case <-timer.C:
			w.onChange(logger.WithTrigger(ctx, "watch"))
		}
	}
}
