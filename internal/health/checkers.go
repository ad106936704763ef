// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"net"
	"net/url"
)

// Pinger is satisfied by the asset store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker reports the asset store unhealthy when it cannot be pinged.
type StoreChecker struct {
	backend string
	store   Pinger
}

// NewStoreChecker creates a checker for the asset store.
func NewStoreChecker(backend string, store Pinger) *StoreChecker {
	return &StoreChecker{backend: backend, store: store}
}

func (c *StoreChecker) Name() string { return "asset_store" }

func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	if c.store == nil {
		return CheckResult{Status: StatusUnhealthy, Error: "asset store not initialised"}
	}
	if err := c.store.Ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: c.backend}
	}
	return CheckResult{Status: StatusHealthy, Message: c.backend}
}

// HandoffChecker reports whether the GRIP proxy that receives unsigned
// realtime requests is configured and accepting connections. A missing or
// unreachable target only degrades the service: every other route still works.
type HandoffChecker struct {
	target string
	dialer *net.Dialer
}

// NewHandoffChecker creates a checker for the handoff target URL.
func NewHandoffChecker(target string) *HandoffChecker {
	return &HandoffChecker{target: target, dialer: &net.Dialer{}}
}

func (c *HandoffChecker) Name() string { return "handoff" }

func (c *HandoffChecker) Check(ctx context.Context) CheckResult {
	if c.target == "" {
		return CheckResult{Status: StatusDegraded, Message: "no handoff target configured; unsigned realtime requests answer 502"}
	}
	u, err := url.Parse(c.target)
	if err != nil || u.Host == "" {
		return CheckResult{Status: StatusUnhealthy, Error: "invalid handoff target"}
	}
	addr := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		addr = net.JoinHostPort(u.Hostname(), port)
	}
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return CheckResult{Status: StatusDegraded, Error: err.Error(), Message: "handoff target unreachable"}
	}
	_ = conn.Close()
	return CheckResult{Status: StatusHealthy, Message: u.Scheme + "://" + u.Host}
}
