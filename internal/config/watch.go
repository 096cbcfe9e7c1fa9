package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the tuning file at path whenever it changes and hands each
// successfully validated config to onChange. Invalid edits are logged and
// ignored so a half-saved file never reaches the resolver.
//
// The parent directory is watched rather than the file itself because most
// editors save by rename, which drops a file-level watch.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*ResolverConfig)) error {
	cleanPath := filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(cleanPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(cleanPath), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != cleanPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadResolverConfig(cleanPath)
			if err != nil {
				log.Printf("config reload of %s rejected: %v", cleanPath, err)
				continue
			}
			log.Printf("config reloaded from %s", cleanPath)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("config watcher error: %v", err)
		}
	}
}
