package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/linkmon/internal/config"
	derrors "git.home.luguber.info/inful/linkmon/internal/errors"
	"git.home.luguber.info/inful/linkmon/internal/logfields"
)

// ConfigWatcher reloads the daemon configuration when the file changes
// on disk or when a reload is requested through the fsChange RPC
// method. Rapid change bursts collapse into one reload per debounce
// window, and a reload that fails validation leaves the running
// configuration untouched.
type ConfigWatcher struct {
	configPath   string
	daemon       *Daemon
	watcher      *fsnotify.Watcher
	mu           sync.Mutex
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewConfigWatcher creates a watcher for the given configuration file.
func NewConfigWatcher(configPath string, daemon *Daemon) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	return &ConfigWatcher{
		configPath:   absPath,
		daemon:       daemon,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second,
	}, nil
}

// Start begins monitoring. The loops join the supplied worker group so
// daemon shutdown waits for them.
func (cw *ConfigWatcher) Start(ctx context.Context, workers *WorkerGroup) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	// Watching the directory instead of the file survives the
	// rename-and-replace write pattern editors and config tools use.
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", configDir, err)
	}

	slog.Info("Starting configuration watcher", logfields.Path(cw.configPath))

	if !workers.Go(func() { cw.watchLoop(ctx) }) || !workers.Go(func() { cw.reloadLoop(ctx) }) {
		return derrors.DaemonUnavailable("worker group is stopping")
	}
	return nil
}

// Stop ends monitoring. Pending debounced reloads are abandoned.
func (cw *ConfigWatcher) Stop(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	select {
	case <-cw.stopChan:
		return nil
	default:
		close(cw.stopChan)
	}

	slog.Info("Stopping configuration watcher")
	if cw.watcher != nil {
		if err := cw.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}
	return nil
}

// Schedule requests a debounced reload. path is only recorded; the
// daemon always re-reads its own configuration file, never a
// caller-supplied one.
func (cw *ConfigWatcher) Schedule(path string) {
	slog.Debug("Configuration reload requested", logfields.Path(path))
	cw.trigger()
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
			case event.Op.Has(fsnotify.Write):
				slog.Debug("Config file write detected", logfields.Path(event.Name))
				cw.trigger()
			case event.Op.Has(fsnotify.Create):
				slog.Debug("Config file create detected", logfields.Path(event.Name))
				cw.trigger()
			case event.Op.Has(fsnotify.Rename):
				slog.Debug("Config file rename detected", logfields.Path(event.Name))
				cw.trigger()
			case event.Op.Has(fsnotify.Remove):
				slog.Warn("Config file removed", logfields.Path(event.Name))
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", logfields.Error(err))
		}
	}
}

// reloadLoop debounces triggers: every new trigger restarts the timer,
// so a burst of writes produces a single reload after the window.
func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	var reloadTimer *time.Timer
	defer func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case <-cw.reloadChan:
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(cw.debounceTime, func() {
				if err := cw.performReload(ctx); err != nil {
					slog.Error("Failed to reload configuration", logfields.Error(err))
				}
			})
		}
	}
}

func (cw *ConfigWatcher) trigger() {
	select {
	case cw.reloadChan <- struct{}{}:
	default:
		// A reload is already pending.
	}
}

// performReload re-reads the configuration file and applies it. Load
// and validation failures count as failed reloads and change nothing.
func (cw *ConfigWatcher) performReload(ctx context.Context) error {
	slog.Info("Reloading configuration", logfields.Path(cw.configPath))

	newConfig, err := config.Load(cw.configPath)
	if err != nil {
		cw.daemon.recorder.IncConfigReload(false)
		return fmt.Errorf("failed to load new configuration: %w", err)
	}

	if err := cw.daemon.ReloadConfig(ctx, newConfig); err != nil {
		return fmt.Errorf("failed to apply new configuration: %w", err)
	}
	return nil
}
