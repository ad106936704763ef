// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	assetLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "httpme_asset_lookups_total",
		Help: "Asset store lookups by backend and result",
	}, []string{"backend", "result"}) // result=hit|miss|error

	dynamicBackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "httpme_dynamic_backend_requests_total",
		Help: "Outbound requests issued by the dynamic backend endpoint",
	}, []string{"outcome"}) // outcome=success|error|denied

	dynamicBackendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "httpme_dynamic_backend_request_duration_seconds",
		Help:    "Latency of outbound dynamic backend requests",
		Buckets: prometheus.DefBuckets,
	})

	configReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "httpme_config_reloads_total",
		Help: "Configuration reload attempts by result",
	}, []string{"result"}) // result=success|failure
)

// IncAssetLookup records an asset store lookup.
func IncAssetLookup(backend, result string) {
	if backend == "" {
		backend = "unknown"
	}
	assetLookupsTotal.WithLabelValues(backend, result).Inc()
}

// ObserveDynamicBackend records one outbound request and its latency.
func ObserveDynamicBackend(outcome string, seconds float64) {
	dynamicBackendRequestsTotal.WithLabelValues(outcome).Inc()
	if outcome != "denied" {
		dynamicBackendDuration.Observe(seconds)
	}
}

// IncConfigReload records a configuration reload attempt.
func IncConfigReload(success bool) {
	if success {
		configReloadsTotal.WithLabelValues("success").Inc()
		return
	}
	configReloadsTotal.WithLabelValues("failure").Inc()
}
