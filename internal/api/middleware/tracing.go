// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracing wraps the handler with OpenTelemetry HTTP instrumentation:
// one server span per request with W3C trace context propagation.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(
			next,
			serviceName,
			otelhttp.WithTracerProvider(otel.GetTracerProvider()),
			otelhttp.WithPropagators(otel.GetTextMapPropagator()),
			otelhttp.WithFilter(shouldTrace),
			otelhttp.WithSpanNameFormatter(spanNameFormatter),
		)
	}
}

// shouldTrace skips health and metrics endpoints to reduce noise.
func shouldTrace(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics":
		return false
	}
	return true
}

// spanNameFormatter yields "{METHOD} {PATH}"; query values are never exposed.
func spanNameFormatter(_ string, r *http.Request) string {
	name := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		name += "?"
	}
	return name
}

// TraceIDs extracts trace_id and span_id from the request context.
// Returns empty strings if no active span exists.
func TraceIDs(r *http.Request) (traceID, spanID string) {
	sc := trace.SpanContextFromContext(r.Context())
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}
