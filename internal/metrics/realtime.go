// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics provides Prometheus metrics for the httpme realtime and
// collaborator subsystems.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels are bounded enums. No channel names or request ids.

var (
	// RealtimeRequestsTotal counts requests that reached the realtime router.
	RealtimeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "httpme_realtime_requests_total",
		Help: "Realtime router decisions, by route and outcome (handoff|hold|session|not_found).",
	}, []string{"route", "outcome"})

	// RealtimeFramesTotal counts leading frames decoded on the WebSocket-over-HTTP path.
	RealtimeFramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "httpme_realtime_frames_total",
		Help: "Leading event frames decoded from WebSocket-over-HTTP requests, by kind.",
	}, []string{"kind"})

	// RealtimeRejectedTotal counts WebSocket-over-HTTP requests refused before decoding.
	RealtimeRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "httpme_realtime_rejected_total",
		Help: "WebSocket-over-HTTP requests rejected, by reason (content_type|body).",
	}, []string{"reason"})

	// HandoffTotal counts delegations to the hold infrastructure.
	HandoffTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "httpme_handoff_total",
		Help: "Handoffs of unsigned realtime requests, by outcome (success|failure).",
	}, []string{"outcome"})
)

// IncRealtimeRequest records one routing decision.
func IncRealtimeRequest(route, outcome string) {
	if route == "" {
		route = "unknown"
	}
	RealtimeRequestsTotal.WithLabelValues(route, outcome).Inc()
}

// IncRealtimeFrame records the kind of a decoded leading frame.
func IncRealtimeFrame(kind string) {
	RealtimeFramesTotal.WithLabelValues(kind).Inc()
}

// IncRealtimeRejected records a refused WebSocket-over-HTTP request.
func IncRealtimeRejected(reason string) {
	RealtimeRejectedTotal.WithLabelValues(reason).Inc()
}

// IncHandoff records a handoff outcome.
func IncHandoff(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	HandoffTotal.WithLabelValues(outcome).Inc()
}
