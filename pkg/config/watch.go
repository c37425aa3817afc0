package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fieldforge/fieldforge/pkg/telemetry"
)

// Watcher reloads a configuration file whenever it changes on disk.
type Watcher struct {
	loader  *Loader
	log     *telemetry.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher creates a config watcher.
func NewWatcher(loader *Loader, log *telemetry.Logger) *Watcher {
	if log == nil {
		log = telemetry.Nop()
	}
	return &Watcher{
		loader: loader,
		log:    log.NewComponentLogger("config-watcher"),
	}
}

// Watch watches path and invokes reloadFn with the freshly loaded
// configuration after each change, debounced. It blocks until ctx is
// cancelled. A config that fails to load or validate is reported and
// skipped; the previous configuration stays in effect.
func (w *Watcher) Watch(ctx context.Context, path string, reloadFn func(*Config) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	w.watcher = watcher

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	w.log.Infof("watching %s", path)

	// Debounce: editors often produce bursts of write events.
	var reloadTimer *time.Timer
	reloadDelay := 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.log.Debugf("config changed: %s", event.Op)

			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(reloadDelay, func() {
				cfg, err := w.loader.Load(path)
				if err != nil {
					w.log.WithError(err).Error("reload failed, keeping previous config")
					return
				}
				if err := reloadFn(cfg); err != nil {
					w.log.WithError(err).Error("reload callback failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")
		}
	}
}
