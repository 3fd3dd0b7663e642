// Package watch re-runs a callback when a single file changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long changes must settle before the callback runs.
const DefaultDebounce = 300 * time.Millisecond

// FileWatcher watches one file. Editors often save by rename, so the parent
// directory is watched and events are filtered by base name.
type FileWatcher struct {
	Path     string
	Debounce time.Duration
	// OnChange runs after a burst of changes has settled. Errors are logged
	// and do not stop the watcher.
	OnChange func(ctx context.Context) error
}

// Run blocks until ctx is canceled or the underlying watcher fails.
func (w *FileWatcher) Run(ctx context.Context) error {
	if w.Path == "" {
		return errors.New("watch: empty path")
	}
	if w.OnChange == nil {
		return errors.New("watch: nil OnChange")
	}
	abs, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()
	dir := filepath.Dir(abs)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Info().Str("file", abs).Msg("watching")

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	base := filepath.Base(abs)
	// Stop and Reset discard stale ticks on timers since Go 1.23.
	timer := time.NewTimer(debounce)
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
			if filepath.Base(ev.Name) != base || !relevant(ev.Op) {
				continue
			}
			log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("change")
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")
		case <-timer.C:
			if err := w.OnChange(ctx); err != nil {
				log.Error().Err(err).Str("file", abs).Msg("change handler failed")
			}
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) || op.Has(fsnotify.Rename)
}
