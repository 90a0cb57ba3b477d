package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher monitors the configuration file and calls onChange, debounced.
type ConfigWatcher struct {
	configPath   string
	onChange     func(ctx context.Context) error
	watcher      *fsnotify.Watcher
	mu           sync.Mutex
	stopOnce     sync.Once
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewConfigWatcher creates a watcher for configPath.
func NewConfigWatcher(configPath string, debounce time.Duration, onChange func(ctx context.Context) error) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	return &ConfigWatcher{
		configPath:   absPath,
		onChange:     onChange,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: debounce,
	}, nil
}

// Start begins monitoring the configuration file.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	// Editors replace files on save, so the directory is watched rather than the file.
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", configDir, err)
	}

	slog.Info("Starting configuration watcher", "config_path", cw.configPath)
	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx)
	return nil
}

// Stop stops the configuration watcher.
func (cw *ConfigWatcher) Stop() error {
	var err error
	cw.stopOnce.Do(func() {
		slog.Info("Stopping configuration watcher")
		close(cw.stopChan)
		err = cw.watcher.Close()
	})
	return err
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(cw.configPath)
	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				slog.Debug("Config file change detected", "file", event.Name, "op", event.Op.String())
				cw.triggerReload()
			case event.Has(fsnotify.Remove):
				slog.Warn("Config file removed", "file", event.Name)
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", "error", err)
		}
	}
}

// reloadLoop restarts the debounce timer on every change.
func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	var timer *time.Timer
	stopTimer := func() {
		cw.mu.Lock()
		defer cw.mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return
		case <-cw.stopChan:
			stopTimer()
			return
		case <-cw.reloadChan:
			cw.mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(cw.debounceTime, func() {
				if err := cw.onChange(ctx); err != nil {
					slog.Error("Failed to reload configuration", "error", err)
				}
			})
			cw.mu.Unlock()
		}
	}
}

func (cw *ConfigWatcher) triggerReload() {
	select {
	case cw.reloadChan <- struct{}{}:
	default:
	}
}
