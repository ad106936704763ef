// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for consistent tracing across the service.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	RealtimeRouteKey       = "realtime.route"
	RealtimeDestinationKey = "realtime.destination"
	RealtimeFrameKindKey   = "realtime.frame_kind"
	GripChannelKey         = "grip.channel"
	GripHoldModeKey        = "grip.hold_mode"

	TarpitChunkSizeKey = "tarpit.chunk_size"
	TarpitChunksKey    = "tarpit.chunks"

	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// RealtimeAttributes describes how the realtime router classified a request.
func RealtimeAttributes(route, destination string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(RealtimeRouteKey, route),
		attribute.String(RealtimeDestinationKey, destination),
	}
}

// GripAttributes describes a hold instruction.
func GripAttributes(channel, holdMode string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(GripChannelKey, channel),
		attribute.String(GripHoldModeKey, holdMode),
	}
}

// TarpitAttributes describes a tarpitted response.
func TarpitAttributes(chunkSize, chunks int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(TarpitChunkSizeKey, chunkSize),
		attribute.Int(TarpitChunksKey, chunks),
	}
}

// Annotate adds attributes to the span in ctx. Without a recording span it
// does nothing.
func Annotate(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attrs...)
}
