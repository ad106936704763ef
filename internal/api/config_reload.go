// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"fmt"

	"github.com/httpme/httpme/internal/config"
	"github.com/httpme/httpme/internal/handoff"
	"github.com/httpme/httpme/internal/health"
	"github.com/httpme/httpme/internal/log"
)

// ApplyConfig swaps the runtime-tunable settings of a reloaded
// configuration into the running server: realtime settings, tarpit plan,
// outbound policy and handoff target. Listener, middleware and asset store
// settings need a restart. On error nothing is changed.
func (s *Server) ApplyConfig(cfg config.AppConfig) error {
	settings, err := cfg.RealtimeSettings()
	if err != nil {
		return fmt.Errorf("realtime settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cfg

	var proxy *handoff.Proxy
	targetChanged := old.Handoff.Target != cfg.Handoff.Target || old.HandoffTimeouts() != cfg.HandoffTimeouts()
	if targetChanged {
		proxy, err = handoff.NewProxy(cfg.Handoff.Target, cfg.HandoffTimeouts())
		if err != nil {
			return err
		}
	}

	s.realtime.Apply(settings)
	plan := cfg.TarpitPlan()
	s.tarpitPlan.Store(&plan)
	policy := cfg.OutboundPolicy()
	s.policy.Store(&policy)
	if targetChanged {
		s.handoff.Store(proxy)
		s.healthManager.ReplaceChecker(health.NewHandoffChecker(cfg.Handoff.Target))
	}
	s.cfg = cfg

	logger := log.WithComponent("api")
	logger.Info().
		Str(log.FieldEvent, "config.applied").
		Str(log.FieldChannel, settings.Channel).
		Str("echo_mode", settings.EchoMode.String()).
		Bool("handoff_changed", targetChanged).
		Msg("runtime configuration applied")
	return nil
}

// Config returns the configuration the server currently runs with.
func (s *Server) Config() config.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}
