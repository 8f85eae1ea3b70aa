package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// reloadDelay coalesces the burst of events editors emit for one save
const reloadDelay = 250 * time.Millisecond

// Watch reloads path whenever it changes and passes the new configuration to
// apply. The directory is watched rather than the file so atomic renames are
// seen. Files that fail to parse or validate are logged and skipped. Watch
// blocks until ctx is done.
func Watch(ctx context.Context, path string, logger logrus.FieldLogger, apply func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger.WithField("path", abs).Info("watching configuration file")

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(reloadDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("configuration watcher error")
		case <-pending:
			pending = nil
			cfg, err := LoadFile(abs)
			if err != nil {
				logger.WithError(err).Warn("ignoring invalid configuration file")
				continue
			}
			apply(cfg)
		}
	}
}

// LogLevelReloader returns an apply func for Watch that updates logger's level
func LogLevelReloader(logger *logrus.Logger) func(*Config) {
	return func(cfg *Config) {
		level, err := logrus.ParseLevel(cfg.Observability.LogLevel)
		if err != nil {
			return
		}
		if level != logger.GetLevel() {
			logger.SetLevel(level)
			logger.WithField("level", level.String()).Info("log level reloaded")
		}
	}
}
