// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package handoff delegates unsigned realtime requests to the hold
// infrastructure, which re-issues them with a signature.
package handoff

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/httpme/httpme/internal/log"
	"github.com/httpme/httpme/internal/platform/httpx"
)

var (
	// ErrHandoff reports that the request could not be delegated. Nothing has
	// been written to the client when it is returned.
	ErrHandoff = errors.New("handoff: delegation failed")
	// ErrNoTarget is returned when no hold infrastructure is configured.
	ErrNoTarget = errors.New("handoff: no target configured")
)

// Handoff relays a request to the hold infrastructure and copies its
// response to w verbatim.
type Handoff interface {
	Handoff(w http.ResponseWriter, r *http.Request) error
}

// Func adapts a function to Handoff.
type Func func(w http.ResponseWriter, r *http.Request) error

// Handoff calls f(w, r).
func (f Func) Handoff(w http.ResponseWriter, r *http.Request) error { return f(w, r) }

// Proxy forwards requests to a fixed upstream through a reverse proxy.
type Proxy struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
}

// NewProxy returns a Proxy for target. An empty target yields a Proxy whose
// every call fails with ErrNoTarget.
func NewProxy(target string, timeouts httpx.Timeouts) (*Proxy, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return &Proxy{}, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse handoff target: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("handoff target must be http(s): %q", target)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("handoff target has no host: %q", target)
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
		},
		Transport:     httpx.NewRoundTripper(timeouts),
		FlushInterval: -1,
	}
	return &Proxy{target: u, proxy: rp}, nil
}

// Target returns the configured upstream or nil.
func (p *Proxy) Target() *url.URL { return p.target }

// Handoff implements Handoff.
func (p *Proxy) Handoff(w http.ResponseWriter, r *http.Request) error {
	if p.proxy == nil {
		return fmt.Errorf("%w: %w", ErrHandoff, ErrNoTarget)
	}

	var upstreamErr error
	rp := *p.proxy
	rp.ErrorHandler = func(_ http.ResponseWriter, _ *http.Request, err error) {
		upstreamErr = err
	}
	rp.ServeHTTP(w, r)

	if upstreamErr != nil {
		logger := log.WithComponentFromContext(r.Context(), "handoff")
		logger.Warn().
			Err(upstreamErr).
			Str(log.FieldEvent, "handoff.failed").
			Str(log.FieldTarget, p.target.Redacted()).
			Msg("hold infrastructure unreachable")
		return fmt.Errorf("%w: %w", ErrHandoff, upstreamErr)
	}
	return nil
}

// Switch is a Handoff whose target can be replaced while requests are in
// flight. A request uses the Proxy current when it arrives.
type Switch struct {
	cur atomic.Pointer[Proxy]
}

// NewSwitch returns a Switch starting at p. A nil p behaves like a Proxy
// without target.
func NewSwitch(p *Proxy) *Switch {
	s := &Switch{}
	s.Store(p)
	return s
}

// Store replaces the current proxy.
func (s *Switch) Store(p *Proxy) {
	if p == nil {
		p = &Proxy{}
	}
	s.cur.Store(p)
}

// Target returns the current upstream or nil.
func (s *Switch) Target() *url.URL { return s.cur.Load().Target() }

// Handoff implements Handoff.
func (s *Switch) Handoff(w http.ResponseWriter, r *http.Request) error {
	return s.cur.Load().Handoff(w, r)
}
