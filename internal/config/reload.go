// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	xglog "github.com/httpme/httpme/internal/log"
	"github.com/httpme/httpme/internal/metrics"
	"github.com/rs/zerolog"
)

const reloadDebounce = 500 * time.Millisecond

// ConfigHolder holds configuration with atomic reloading capability.
// Reloads come from the file watcher, SIGHUP or an explicit call.
type ConfigHolder struct {
	mu         sync.RWMutex
	current    AppConfig
	loader     *Loader
	configPath string
	watcher    *fsnotify.Watcher
	logger     zerolog.Logger

	reloadMu        sync.RWMutex
	reloadListeners []chan<- AppConfig
}

// NewConfigHolder creates a new configuration holder with initial config.
func NewConfigHolder(initial AppConfig, loader *Loader) *ConfigHolder {
	return &ConfigHolder{
		current:    initial,
		loader:     loader,
		configPath: loader.Path(),
		logger:     xglog.WithComponent("config"),
	}
}

// Get returns the current configuration (thread-safe read).
func (h *ConfigHolder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads and validates the configuration again. On failure the old
// configuration stays in place and the error is returned.
func (h *ConfigHolder) Reload(_ context.Context) error {
	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	if err != nil {
		metrics.IncConfigReload(false)
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("new configuration rejected, keeping current")
		return fmt.Errorf("load config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.current
	h.current = newCfg
	h.mu.Unlock()

	metrics.IncConfigReload(true)
	h.notifyListeners(newCfg)
	h.logChanges(oldCfg, newCfg)

	h.logger.Info().
		Str("event", "config.reload_success").
		Msg("configuration reloaded successfully")
	return nil
}

// StartWatcher starts watching the config file for changes.
// If there is no config file this is a no-op.
//
// The parent directory is watched rather than the file itself so that
// editors and atomic writers that replace the file by rename keep working.
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().
			Str("event", "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(filepath.Clean(h.configPath))
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.watcher = watcher

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", h.configPath).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, watcher)
	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounce *time.Timer
	target := filepath.Clean(h.configPath)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			_ = watcher.Close()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str("event", "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				if ctx.Err() != nil {
					return
				}
				if err := h.Reload(ctx); err != nil {
					h.logger.Error().
						Err(err).
						Str("event", "config.auto_reload_failed").
						Msg("automatic config reload failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop stops the config watcher (if running).
func (h *ConfigHolder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// RegisterListener registers a channel that receives every successfully
// reloaded config. Sends never block; a full channel misses the update.
func (h *ConfigHolder) RegisterListener(ch chan<- AppConfig) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.reloadListeners = append(h.reloadListeners, ch)
}

func (h *ConfigHolder) notifyListeners(newCfg AppConfig) {
	h.reloadMu.RLock()
	defer h.reloadMu.RUnlock()

	for _, ch := range h.reloadListeners {
		select {
		case ch <- newCfg:
		default:
			h.logger.Warn().
				Str("event", "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

// logChanges logs the runtime-tunable keys that changed. Keys that need a
// restart (listen addresses, asset backend) are reported as such.
func (h *ConfigHolder) logChanges(old, newCfg AppConfig) {
	if old.Realtime != newCfg.Realtime {
		h.logger.Info().
			Str("old_channel", old.Realtime.Channel).
			Str("new_channel", newCfg.Realtime.Channel).
			Str("old_echo", old.Realtime.EchoMode).
			Str("new_echo", newCfg.Realtime.EchoMode).
			Msg("config changed: Realtime")
	}
	if old.Tarpit != newCfg.Tarpit {
		h.logger.Info().
			Int("old_chunk_size", old.Tarpit.ChunkSize).
			Int("new_chunk_size", newCfg.Tarpit.ChunkSize).
			Dur("old_delay", old.Tarpit.Delay).
			Dur("new_delay", newCfg.Tarpit.Delay).
			Msg("config changed: Tarpit")
	}
	if old.LogLevel != newCfg.LogLevel {
		h.logger.Info().
			Str("old", old.LogLevel).
			Str("new", newCfg.LogLevel).
			Msg("config changed: LogLevel")
	}
	if old.Handoff.Target != newCfg.Handoff.Target {
		h.logger.Info().
			Str("old", maskURL(old.Handoff.Target)).
			Str("new", maskURL(newCfg.Handoff.Target)).
			Msg("config changed: Handoff.Target")
	}
	if old.Server.ListenAddr != newCfg.Server.ListenAddr ||
		old.Metrics.ListenAddr != newCfg.Metrics.ListenAddr ||
		old.Assets.Backend != newCfg.Assets.Backend {
		h.logger.Warn().
			Str("event", "config.restart_required").
			Msg("listener or asset backend changed; restart to apply")
	}
}

// maskURL hides everything but scheme and host.
func maskURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "***redacted***"
	}
	return u.Scheme + "://" + u.Host
}
