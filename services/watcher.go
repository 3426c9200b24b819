package services

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wanessald/chatbot-payroll/utils"
)

const watchDebounce = 500 * time.Millisecond

// WatchSource reloads the store whenever the source file changes, until ctx
// is done. Bursts of events within the debounce window trigger one reload.
func WatchSource(ctx context.Context, reloader *Reloader) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(reloader.Source)
	if err != nil {
		watcher.Close()
		return err
	}

	// Editors replace files on save, so watch the directory.
	dir, filename := filepath.Dir(absPath), filepath.Base(absPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	utils.Logger.Info("Watching payroll source for changes", zap.String("path", absPath))

	go func() {
		defer watcher.Close()

		var (
			mu    sync.Mutex
			timer *time.Timer
		)
		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				mu.Unlock()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filename {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, func() {
					if _, err := reloader.Reload(ctx); err != nil {
						utils.Logger.Error("Reload after source change failed", zap.Error(err))
					}
				})
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				utils.Logger.Warn("Source watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
