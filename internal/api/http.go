// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api composes the HTTP surface of httpme: the ingress middleware
// stack, system routes and the realtime router in front of the testing
// endpoints.
package api

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/httpme/httpme/internal/config"
	"github.com/httpme/httpme/internal/endpoints"
	"github.com/httpme/httpme/internal/handoff"
	"github.com/httpme/httpme/internal/health"
	"github.com/httpme/httpme/internal/platform/outbound"
	"github.com/httpme/httpme/internal/realtime"
	"github.com/httpme/httpme/internal/tarpit"
)

// Server represents the HTTP API server for httpme.
type Server struct {
	mu  sync.RWMutex
	cfg config.AppConfig

	healthManager *health.Manager
	handoff       *handoff.Switch
	realtime      *realtime.Router
	dynamic       *endpoints.DynamicBackend

	// Hot-swapped on reload; read per request.
	tarpitPlan atomic.Pointer[tarpit.Streamer]
	policy     atomic.Pointer[outbound.Policy]

	// Overrides for tests.
	dynamicClient *http.Client
	resolver      outbound.Resolver

	handler http.Handler
}

// ServerOption allows functional configuration of the Server.
type ServerOption func(*Server)

// WithDynamicClient overrides the HTTP client used by /dynamic_backend.
func WithDynamicClient(c *http.Client) ServerOption {
	return func(s *Server) { s.dynamicClient = c }
}

// WithResolver overrides the resolver the outbound policy checks hosts with.
func WithResolver(r outbound.Resolver) ServerOption {
	return func(s *Server) { s.resolver = r }
}
