// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"strings"
	"time"

	"github.com/httpme/httpme/internal/validate"
	"github.com/rs/zerolog"
)

var (
	echoModes      = []string{"raw", "payload"}
	assetBackends  = []string{"memory", "badger", "redis", "sqlite"}
	traceExporters = []string{"grpc", "http"}
)

// Validate checks cfg and returns a validate.ValidationError listing every
// bad field.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil || cfg.LogLevel == "" {
		v.AddError("LogLevel", "unknown log level", cfg.LogLevel)
	}

	v.ListenAddr("Server.ListenAddr", cfg.Server.ListenAddr)
	v.Duration("Server.ReadTimeout", cfg.Server.ReadTimeout, 0, 0)
	v.Duration("Server.WriteTimeout", cfg.Server.WriteTimeout, 0, 0)
	v.Duration("Server.IdleTimeout", cfg.Server.IdleTimeout, 0, 0)
	v.Duration("Server.ShutdownTimeout", cfg.Server.ShutdownTimeout, time.Second, 5*time.Minute)
	v.Positive("Server.MaxHeaderBytes", cfg.Server.MaxHeaderBytes)
	if cfg.Metrics.ListenAddr != "" {
		v.ListenAddr("Metrics.ListenAddr", cfg.Metrics.ListenAddr)
		if cfg.Metrics.ListenAddr == cfg.Server.ListenAddr {
			v.AddError("Metrics.ListenAddr", "must differ from Server.ListenAddr", cfg.Metrics.ListenAddr)
		}
	}

	rt := cfg.Realtime
	v.NotEmpty("Realtime.PathPrefix", rt.PathPrefix)
	if strings.TrimSpace(rt.PathPrefix) == "/" {
		v.AddError("Realtime.PathPrefix", "must not claim the whole path space", rt.PathPrefix)
	}
	v.NotEmpty("Realtime.Channel", rt.Channel)
	v.NotEmpty("Realtime.SignatureHeader", rt.SignatureHeader)
	v.OneOf("Realtime.EchoMode", strings.ToLower(rt.EchoMode), echoModes)
	if rt.MaxBodyBytes <= 0 {
		v.AddError("Realtime.MaxBodyBytes", "must be positive", rt.MaxBodyBytes)
	}

	if cfg.Handoff.Target != "" {
		v.URL("Handoff.Target", cfg.Handoff.Target, []string{"http", "https"})
	}
	v.Duration("Handoff.ConnectTimeout", cfg.Handoff.ConnectTimeout, 0, 0)
	v.Duration("Handoff.FirstByteTimeout", cfg.Handoff.FirstByteTimeout, 0, 0)
	v.Duration("Handoff.BetweenBytesTimeout", cfg.Handoff.BetweenBytesTimeout, 0, 0)

	v.Positive("Tarpit.ChunkSize", cfg.Tarpit.ChunkSize)
	v.Duration("Tarpit.Delay", cfg.Tarpit.Delay, 0, time.Minute)

	a := cfg.Assets
	backend := strings.ToLower(a.Backend)
	v.OneOf("Assets.Backend", backend, assetBackends)
	switch backend {
	case "sqlite":
		v.NotEmpty("Assets.Path", a.Path)
	case "redis":
		v.NotEmpty("Assets.Redis.Addr", a.Redis.Addr)
		v.Range("Assets.Redis.DB", a.Redis.DB, 0, 15)
	}

	d := cfg.DynamicBackend
	v.IPOrCIDR("DynamicBackend.CIDRs", d.CIDRs)
	for _, p := range d.Ports {
		v.Port("DynamicBackend.Ports", p)
	}
	for _, s := range d.Schemes {
		v.OneOf("DynamicBackend.Schemes", strings.ToLower(s), []string{"http", "https"})
	}
	v.Range("DynamicBackend.MaxRepeat", d.MaxRepeat, 1, 1000)
	if d.RepeatRate <= 0 {
		v.AddError("DynamicBackend.RepeatRate", "must be positive", d.RepeatRate)
	}

	if cfg.RateLimit.Enabled {
		v.Positive("RateLimit.RequestsPerMinute", cfg.RateLimit.RequestsPerMinute)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", strings.ToLower(cfg.Telemetry.Exporter), traceExporters)
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("Telemetry.SamplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
