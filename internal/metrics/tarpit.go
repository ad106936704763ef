// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tarpitStreamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "httpme_tarpit_streams_total",
		Help: "Tarpit deliveries by outcome",
	}, []string{"outcome"}) // outcome=completed|aborted|invalid

	tarpitChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "httpme_tarpit_chunks_total",
		Help: "Total number of tarpit chunks written and flushed",
	})

	tarpitActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "httpme_tarpit_active",
		Help: "Tarpit deliveries currently in progress",
	})
)

// TarpitStarted marks a tarpit delivery as in progress. The returned func
// must be called once the delivery ends.
func TarpitStarted() func() {
	tarpitActive.Inc()
	return tarpitActive.Dec
}

// RecordTarpit records a finished tarpit delivery.
func RecordTarpit(outcome string, chunks int) {
	tarpitStreamsTotal.WithLabelValues(outcome).Inc()
	if chunks > 0 {
		tarpitChunksTotal.Add(float64(chunks))
	}
}
