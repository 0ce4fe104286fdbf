package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jaa/ytqueue/internal/logging"
)

const DefaultDebounce = 200 * time.Millisecond

// Watcher calls OnChange after the watched file is written, created, or
// renamed into place. Bursts of events within Debounce collapse into one call.
// The parent directory is watched so editors that replace the file on save are
// still observed.
type Watcher struct {
	Path     string
	Debounce time.Duration
	OnChange func()
}

func NewWatcher(path string, onChange func()) *Watcher {
	return &Watcher{Path: path, Debounce: DefaultDebounce, OnChange: onChange}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	log := logging.FromContext(logging.WithComponent(ctx, "watch"))

	target, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("resolve watch path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	log.Debug().Str("path", target).Msg("watching candidate file")

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug().Str("op", event.Op.String()).Str("file", event.Name).Msg("candidate file changed")
			timer.Reset(debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("file watcher error")
		case <-timer.C:
			if w.OnChange != nil {
				w.OnChange()
			}
		}
	}
}
