// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package realtime bridges plain HTTP requests to a GRIP hold proxy: it
// routes requests under the realtime prefix, emits hold instructions and
// answers WebSocket-over-HTTP sessions.
package realtime

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/httpme/httpme/internal/api/problem"
	"github.com/httpme/httpme/internal/grip"
	"github.com/httpme/httpme/internal/handoff"
	"github.com/httpme/httpme/internal/log"
	"github.com/httpme/httpme/internal/metrics"
	"github.com/httpme/httpme/internal/telemetry"
)

// Route is a realtime-capable endpoint below the prefix.
type Route int

const (
	RouteNone Route = iota
	RouteLongPoll
	RouteStream
	RouteSSE
	RouteWebSocket
)

var routeNames = map[string]Route{
	"long-poll": RouteLongPoll,
	"stream":    RouteStream,
	"sse":       RouteSSE,
	"websocket": RouteWebSocket,
}

func (r Route) String() string {
	switch r {
	case RouteLongPoll:
		return "long-poll"
	case RouteStream:
		return "stream"
	case RouteSSE:
		return "sse"
	case RouteWebSocket:
		return "websocket"
	case RouteNone:
		return "none"
	}
	return "none"
}

// Hold returns the content type and hold mode a route asks the proxy for.
// ok is false for the WebSocket route, which is answered by a session.
func (r Route) Hold() (contentType string, mode grip.HoldMode, ok bool) {
	switch r {
	case RouteLongPoll:
		return "text/plain", grip.HoldResponse, true
	case RouteStream:
		return "text/plain", grip.HoldStream, true
	case RouteSSE:
		return "text/event-stream", grip.HoldStream, true
	case RouteWebSocket, RouteNone:
	}
	return "", grip.HoldResponse, false
}

// DestinationKind is where the router sends a request.
type DestinationKind int

const (
	// DestPlain passes the request to the collaborator endpoints.
	DestPlain DestinationKind = iota
	// DestHandoff delegates an unsigned realtime request to the hold proxy.
	DestHandoff
	// DestHold answers a signed long-poll, stream or SSE request with hold
	// instructions.
	DestHold
	// DestSession answers a signed WebSocket-over-HTTP request.
	DestSession
)

func (k DestinationKind) String() string {
	switch k {
	case DestPlain:
		return "plain"
	case DestHandoff:
		return "handoff"
	case DestHold:
		return "hold"
	case DestSession:
		return "session"
	}
	return "plain"
}

// Destination is the routing decision for one request.
type Destination struct {
	Kind  DestinationKind
	Route Route
}

// Router classifies requests and dispatches them. Settings can be replaced
// at runtime with Apply; each request uses one snapshot.
type Router struct {
	settings atomic.Pointer[Settings]
	handoff  handoff.Handoff
	sessions *SessionHandler
	next     http.Handler
}

// NewRouter returns a router that hands plain requests to next.
func NewRouter(s Settings, h handoff.Handoff, next http.Handler) *Router {
	rt := &Router{handoff: h, next: next}
	rt.Apply(s)
	rt.sessions = NewSessionHandler(rt.Settings)
	return rt
}

// Apply swaps in new settings for subsequent requests.
func (rt *Router) Apply(s Settings) {
	n := s.normalized()
	rt.settings.Store(&n)
}

// Settings returns the current snapshot.
func (rt *Router) Settings() Settings {
	return *rt.settings.Load()
}

// Classify decides where r goes under the current settings.
func (rt *Router) Classify(r *http.Request) Destination {
	return classify(r, rt.Settings())
}

func classify(r *http.Request, s Settings) Destination {
	rest, ok := strings.CutPrefix(r.URL.Path, s.Prefix)
	if !ok {
		return Destination{Kind: DestPlain}
	}
	route, ok := routeNames[rest]
	if !ok {
		return Destination{Kind: DestPlain}
	}
	if len(r.Header.Values(s.SignatureHeader)) == 0 {
		return Destination{Kind: DestHandoff, Route: route}
	}
	if route == RouteWebSocket {
		return Destination{Kind: DestSession, Route: route}
	}
	return Destination{Kind: DestHold, Route: route}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := rt.Settings()
	d := classify(r, s)
	if d.Kind == DestPlain {
		rt.next.ServeHTTP(w, r)
		return
	}

	metrics.IncRealtimeRequest(d.Route.String(), d.Kind.String())
	telemetry.Annotate(r.Context(), telemetry.RealtimeAttributes(d.Route.String(), d.Kind.String())...)
	telemetry.RecordRealtimeDispatch(r.Context(), d.Route.String(), d.Kind.String())
	logger := log.WithComponentFromContext(r.Context(), "realtime")
	logger.Debug().
		Str(log.FieldEvent, "realtime.routed").
		Str(log.FieldRoute, d.Route.String()).
		Str("destination", d.Kind.String()).
		Msg("realtime request routed")

	switch d.Kind {
	case DestHandoff:
		err := rt.handoff.Handoff(w, r)
		metrics.IncHandoff(err == nil)
		if err != nil {
			logger.Error().Err(err).Str(log.FieldEvent, "realtime.handoff_failed").Str(log.FieldRoute, d.Route.String()).Msg("handoff failed")
			problem.Write(w, r, http.StatusBadGateway, "realtime/handoff_failed", "Bad Gateway", "HANDOFF_FAILED",
				"the hold infrastructure could not take the request", nil)
		}
	case DestHold:
		contentType, mode, _ := d.Route.Hold()
		telemetry.Annotate(r.Context(), telemetry.GripAttributes(s.Channel, mode.String())...)
		logger.Info().
			Str(log.FieldEvent, "realtime.hold").
			Str(log.FieldRoute, d.Route.String()).
			Str(log.FieldHoldMode, mode.String()).
			Str(log.FieldChannel, s.Channel).
			Msg("hold instruction sent")
		if err := grip.Build(contentType, mode, s.Channel).WriteTo(w); err != nil {
			logger.Debug().Err(err).Str(log.FieldEvent, "realtime.write_failed").Msg("peer went away")
		}
	case DestSession:
		rt.sessions.ServeHTTP(w, r)
	case DestPlain:
	}
}
