// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"fmt"

	"github.com/httpme/httpme/internal/assets"
	"github.com/httpme/httpme/internal/config"
	"github.com/httpme/httpme/internal/endpoints"
	"github.com/httpme/httpme/internal/handoff"
	"github.com/httpme/httpme/internal/health"
	"github.com/httpme/httpme/internal/platform/httpx"
	"github.com/httpme/httpme/internal/platform/outbound"
	"github.com/httpme/httpme/internal/realtime"
)

// New creates and initializes a new HTTP API server over store.
func New(cfg config.AppConfig, store assets.Store, opts ...ServerOption) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("asset store is required for API server initialization")
	}
	settings, err := cfg.RealtimeSettings()
	if err != nil {
		return nil, fmt.Errorf("realtime settings: %w", err)
	}
	proxy, err := handoff.NewProxy(cfg.Handoff.Target, cfg.HandoffTimeouts())
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		handoff: handoff.NewSwitch(proxy),
	}
	for _, opt := range opts {
		opt(s)
	}

	plan := cfg.TarpitPlan()
	s.tarpitPlan.Store(&plan)
	policy := cfg.OutboundPolicy()
	s.policy.Store(&policy)

	client := s.dynamicClient
	if client == nil {
		client = httpx.NewClient(httpx.DefaultTimeouts())
	}
	s.dynamic = endpoints.NewDynamicBackend(endpoints.DynamicOptions{
		Policy:     s.outboundPolicy,
		MaxRepeat:  cfg.DynamicBackend.MaxRepeat,
		RepeatRate: cfg.DynamicBackend.RepeatRate,
		Client:     client,
		Resolver:   s.resolver,
	})

	s.healthManager = health.NewManager(cfg.Version)
	s.healthManager.RegisterChecker(health.NewStoreChecker(cfg.Assets.Backend, store))
	s.healthManager.RegisterChecker(health.NewHandoffChecker(cfg.Handoff.Target))

	plain := endpoints.NewRouter(endpoints.Deps{
		Assets:  endpoints.NewAssets(store),
		Dynamic: s.dynamic,
	})
	s.realtime = realtime.NewRouter(settings, s.handoff, plain)
	s.handler = s.routes()
	return s, nil
}

func (s *Server) outboundPolicy() outbound.Policy { return *s.policy.Load() }
