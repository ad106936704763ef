// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package telemetry provides OpenTelemetry tracing utilities for httpme.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string

	// ExporterType is "grpc" or "http".
	ExporterType string

	// Endpoint is the OTLP collector endpoint, e.g. "localhost:4317" for gRPC.
	Endpoint string

	// SamplingRate in [0, 1].
	SamplingRate float64

	// MetricReader collects the realtime and tarpit instruments. Nil installs
	// a noop meter provider. Independent of Enabled, which governs spans.
	MetricReader sdkmetric.Reader
}

// Provider manages the OpenTelemetry tracer and meter providers.
type Provider struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// NewProvider creates and installs the global tracer and meter providers. A
// disabled config installs a noop tracer provider.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	p := &Provider{}
	if cfg.Enabled {
		exporter, err := newExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p.tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(Sampler(cfg.SamplingRate)),
		)
		otel.SetTracerProvider(p.tp)
	} else {
		otel.SetTracerProvider(noop.NewTracerProvider())
	}

	// TODO: add an otlpmetricgrpc reader next to the span exporter once
	// telemetry.exporter grows a metrics endpoint.
	if cfg.MetricReader != nil {
		p.mp = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(cfg.MetricReader),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(p.mp)
	} else {
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
	}
	return p, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.ExporterType) {
	case "grpc":
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC exporter: %w", err)
		}
		return exp, nil
	case "http":
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP exporter: %w", err)
		}
		return exp, nil
	}
	return nil, fmt.Errorf("unsupported exporter type: %s (supported: grpc, http)", cfg.ExporterType)
}

// Sampler maps a sampling rate to a parent-based sampler.
func Sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case rate <= 0.0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool { return p != nil && p.tp != nil }

// Shutdown flushes pending spans and metrics. It is a no-op for noop
// providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || (p.tp == nil && p.mp == nil) {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var errs []error
	if p.tp != nil {
		errs = append(errs, p.tp.Shutdown(shutdownCtx))
	}
	if p.mp != nil {
		errs = append(errs, p.mp.Shutdown(shutdownCtx))
	}
	return errors.Join(errs...)
}

// Tracer returns a tracer for the given name.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
