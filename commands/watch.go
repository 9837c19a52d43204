package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"chatcli/config"
)

const watchDebounce = 150 * time.Millisecond

// Watch reloads the external commands whenever a markdown file in dirs
// changes, calling onChange with the new count after each reload. Missing
// directories are skipped. It blocks until ctx is done.
func (r *Registry) Watch(ctx context.Context, dirs []string, onChange func(loaded int, errs []error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched++
	}
	if watched == 0 {
		<-ctx.Done()
		return nil
	}

	// Editors write in bursts; reload once the burst settles.
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".md" {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			n, errs := r.LoadExternal(dirs)
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Commands] reloaded %d external commands (%d errors)", n, len(errs))
			}
			if onChange != nil {
				onChange(n, errs)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Commands] watcher error: %v", err)
			}
		}
	}
}
