package app

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce absorbs the bursts of write events editors produce for a single
// save.
const debounce = 250 * time.Millisecond

// watch runs the plan once, then re-runs it whenever the configuration
// document changes. A failed run logs and waits for the next edit instead
// of terminating the process.
func (a *App) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors typically replace files on save, so watch the directory and
	// filter events rather than watching the file itself.
	target := filepath.Clean(a.config.ConfigPath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}
	a.logger.Info("👀 Watching configuration for changes.", "path", target)

	a.runAndReport(ctx)

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			// Interrupt is the normal way to leave watch mode.
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case <-pending:
			a.logger.Info("Configuration changed, re-running plan.", "path", target)
			a.runAndReport(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("Watcher error.", "error", err)
		}
	}
}

func (a *App) runAndReport(ctx context.Context) {
	if err := a.runOnce(ctx); err != nil {
		a.logger.Error("Run failed.", "error", err)
	}
}
