// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/httpme/httpme/internal/api/middleware"
	"github.com/httpme/httpme/internal/health"
	"github.com/httpme/httpme/internal/openapi"
	"github.com/httpme/httpme/internal/tarpit"
)

// serviceName names the tracer of the ingress spans.
const serviceName = "httpme"

func (s *Server) routes() http.Handler {
	cfg := s.cfg
	stack := middleware.StackConfig{
		EnableMetrics:     true,
		EnableLogging:     true,
		EnableRateLimit:   cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	}
	if cfg.Telemetry.Enabled {
		stack.TracingService = serviceName
	}
	r := middleware.NewRouter(stack)

	r.Get("/healthz", s.healthManager.ServeHealth)
	r.Get("/readyz", s.healthManager.ServeReady)
	r.Get("/openapi.yaml", openapi.ServeYAML)
	r.Get("/openapi.json", openapi.ServeJSON)
	if cfg.Metrics.ListenAddr == "" {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Everything else belongs to the service: realtime routes first, then
	// the testing endpoints. Tarpit delivery wraps both.
	service := tarpit.Middleware(s.currentTarpitPlan)(s.realtime)
	r.NotFound(service.ServeHTTP)
	r.MethodNotAllowed(service.ServeHTTP)
	return r
}

func (s *Server) currentTarpitPlan() tarpit.Streamer { return *s.tarpitPlan.Load() }

// Handler returns the configured HTTP handler with all routes and middleware applied.
func (s *Server) Handler() http.Handler { return s.handler }

// MetricsHandler serves the Prometheus registry on the dedicated listener.
func (s *Server) MetricsHandler() http.Handler { return promhttp.Handler() }

// HealthManager returns the health and readiness checks.
func (s *Server) HealthManager() *health.Manager { return s.healthManager }
