// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/httpme/httpme/internal/api"
	"github.com/httpme/httpme/internal/assets"
	"github.com/httpme/httpme/internal/config"
	"github.com/httpme/httpme/internal/log"
	"github.com/httpme/httpme/internal/openapi"
	"github.com/httpme/httpme/internal/telemetry"
)

// ServiceName is attached to every log line and span.
const ServiceName = "httpme"

// Options select the configuration a daemon starts from.
type Options struct {
	// ConfigPath is the path to the YAML config file; empty means
	// defaults plus environment.
	ConfigPath string

	// Version is the build version
	Version string

	// LogOutput defaults to stdout.
	LogOutput io.Writer
}

// Run loads the configuration, builds every component and serves until ctx
// is cancelled or a server fails.
func Run(ctx context.Context, opts Options) error {
	loader := config.NewLoader(opts.ConfigPath, opts.Version)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Output:  opts.LogOutput,
		Service: ServiceName,
		Version: opts.Version,
	})
	logger := log.WithComponent("daemon")
	logger.Info().
		Str(log.FieldEvent, "daemon.starting").
		Str("version", opts.Version).
		Str("listen", cfg.Server.ListenAddr).
		Str("asset_backend", cfg.Assets.Backend).
		Msg("starting httpme daemon")

	if _, err := openapi.Load(ctx); err != nil {
		return fmt.Errorf("embedded API description: %w", err)
	}

	provider := initTelemetry(ctx, cfg, opts.Version, logger)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return errors.Join(err, provider.Shutdown(context.WithoutCancel(ctx)))
	}

	holder := config.NewConfigHolder(cfg, loader)
	srv, err := api.New(cfg, store)
	if err != nil {
		return errors.Join(err, store.Close(), provider.Shutdown(context.WithoutCancel(ctx)))
	}

	deps := Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
	}
	if cfg.Metrics.ListenAddr != "" {
		deps.MetricsHandler = srv.MetricsHandler()
		deps.MetricsAddr = cfg.Metrics.ListenAddr
	}
	mgr, err := NewManager(cfg.Server, deps)
	if err != nil {
		return errors.Join(err, store.Close(), provider.Shutdown(context.WithoutCancel(ctx)))
	}
	// LIFO: the store closes before spans are flushed.
	mgr.RegisterShutdownHook("telemetry", provider.Shutdown)
	mgr.RegisterShutdownHook("asset_store", func(context.Context) error { return store.Close() })

	return NewApp(logger, mgr, holder, srv).Run(ctx)
}

// initTelemetry installs the tracer provider. A broken exporter setup only
// disables tracing.
func initTelemetry(ctx context.Context, cfg config.AppConfig, version string, logger zerolog.Logger) *telemetry.Provider {
	telCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	}
	provider, err := telemetry.NewProvider(ctx, telCfg)
	if err != nil {
		logger.Warn().Err(err).Str(log.FieldEvent, "telemetry.init_failed").Msg("telemetry initialization failed, continuing without tracing")
		provider, _ = telemetry.NewProvider(ctx, telemetry.Config{})
		return provider
	}
	if provider.Enabled() {
		logger.Info().
			Str(log.FieldEvent, "telemetry.initialized").
			Str("endpoint", telCfg.Endpoint).
			Float64("sampling_rate", telCfg.SamplingRate).
			Msg("telemetry initialized")
	}
	return provider
}

// openStore opens the asset store and fills it: built-in assets first, then
// the seed directory, whose files win.
func openStore(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (assets.Store, error) {
	store, err := assets.Open(ctx, cfg.AssetStore())
	if err != nil {
		return nil, fmt.Errorf("open asset store: %w", err)
	}
	n, err := assets.SeedDefaults(ctx, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed built-in assets: %w", err)
	}
	logger.Debug().Str(log.FieldEvent, "assets.defaults_seeded").Int("files", n).Msg("built-in assets available")

	if dir := cfg.Assets.SeedDir; dir != "" {
		n, err := assets.Seed(ctx, store, dir)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("seed assets from %s: %w", dir, err)
		}
		logger.Info().
			Str(log.FieldEvent, "assets.seeded").
			Str("dir", dir).
			Int("files", n).
			Msg("assets seeded")
	}
	return store, nil
}

// SignalContext returns a context cancelled on interrupt or termination.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
