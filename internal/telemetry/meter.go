// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "httpme.realtime"

// Instrument names exported through the meter provider.
const (
	RealtimeDispatchMetric = "httpme_realtime_dispatch_total"
	TarpitChunksMetric     = "httpme_tarpit_chunks_total"
)

// RecordRealtimeDispatch counts one realtime request by route and
// destination.
func RecordRealtimeDispatch(ctx context.Context, route, destination string) {
	meter := otel.GetMeterProvider().Meter(meterName)
	counter, err := meter.Int64Counter(RealtimeDispatchMetric,
		metric.WithDescription("Realtime requests by route and destination"))
	if err != nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(RealtimeRouteKey, route),
		attribute.String(RealtimeDestinationKey, destination),
	))
}

// RecordTarpitChunks counts the chunks a tarpitted response delivered.
// outcome is "completed" or "aborted".
func RecordTarpitChunks(ctx context.Context, outcome string, chunks int) {
	if chunks <= 0 {
		return
	}
	meter := otel.GetMeterProvider().Meter(meterName)
	counter, err := meter.Int64Counter(TarpitChunksMetric,
		metric.WithDescription("Chunks written by the tarpit streamer"),
		metric.WithUnit("{chunk}"))
	if err != nil {
		return
	}
	counter.Add(ctx, int64(chunks), metric.WithAttributes(attribute.String("outcome", outcome)))
}
