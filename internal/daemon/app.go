// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/httpme/httpme/internal/config"
	"github.com/httpme/httpme/internal/log"
)

// ConfigApplier receives every configuration the holder swaps in.
// Implemented by api.Server.
type ConfigApplier interface {
	ApplyConfig(cfg config.AppConfig) error
}

// App owns the long-lived runtime lifecycle (config watcher, reload wiring)
// and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.ConfigHolder
	applier      ConfigApplier
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. cfgHolder and applier may be nil.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.ConfigHolder, applier ConfigApplier) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		applier:      applier,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// The watcher is best-effort: startup does not fail without it.
	if a.cfgHolder != nil {
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}
		defer a.cfgHolder.Stop()
	}

	if a.cfgHolder != nil && a.applier != nil {
		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-applyCh:
					if err := a.applier.ApplyConfig(cfg); err != nil {
						a.logger.Warn().
							Err(err).
							Str(log.FieldEvent, "config.apply_failed").
							Msg("reloaded config could not be applied")
					}
				}
			}
		})
	}

	// SIGHUP triggers a manual reload.
	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(log.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")

					if err := a.cfgHolder.Reload(ctx); err != nil {
						a.logger.Warn().
							Err(err).
							Str(log.FieldEvent, "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}
