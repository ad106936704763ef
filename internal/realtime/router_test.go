// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httpme/httpme/internal/grip"
	"github.com/httpme/httpme/internal/handoff"
	"github.com/httpme/httpme/internal/wsevents"
)

type handoffRecorder struct {
	calls int
	err   error
}

func (h *handoffRecorder) Handoff(w http.ResponseWriter, _ *http.Request) error {
	h.calls++
	if h.err != nil {
		return h.err
	}
	w.Header().Set("X-Handoff", "1")
	w.WriteHeader(http.StatusAccepted)
	return nil
}

func plainHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Plain", "1")
		w.WriteHeader(http.StatusOK)
	})
}

func TestClassify(t *testing.T) {
	rt := NewRouter(DefaultSettings(), &handoffRecorder{}, plainHandler())

	tests := []struct {
		path   string
		signed bool
		want   Destination
	}{
		{"/anything", false, Destination{Kind: DestPlain}},
		{"/test/", true, Destination{Kind: DestPlain}},
		{"/test/unknown", true, Destination{Kind: DestPlain}},
		{"/testing/stream", true, Destination{Kind: DestPlain}},
		{"/test/long-poll", false, Destination{Kind: DestHandoff, Route: RouteLongPoll}},
		{"/test/stream", false, Destination{Kind: DestHandoff, Route: RouteStream}},
		{"/test/sse", false, Destination{Kind: DestHandoff, Route: RouteSSE}},
		{"/test/websocket", false, Destination{Kind: DestHandoff, Route: RouteWebSocket}},
		{"/test/long-poll", true, Destination{Kind: DestHold, Route: RouteLongPoll}},
		{"/test/stream", true, Destination{Kind: DestHold, Route: RouteStream}},
		{"/test/sse", true, Destination{Kind: DestHold, Route: RouteSSE}},
		{"/test/websocket", true, Destination{Kind: DestSession, Route: RouteWebSocket}},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.signed {
			req.Header.Set(grip.HeaderSignature, "sig")
		}
		assert.Equal(t, tt.want, rt.Classify(req), "%s signed=%v", tt.path, tt.signed)
	}
}

func TestRouter_UnsignedNeverReachesSession(t *testing.T) {
	h := &handoffRecorder{}
	rt := NewRouter(DefaultSettings(), h, plainHandler())

	bodies := []string{"OPEN\r\n", string(wsevents.EncodeText([]byte("hi"))), "CLOSE\r\n", ""}
	routes := []string{"long-poll", "stream", "sse", "websocket"}
	calls := 0
	for _, route := range routes {
		for _, body := range bodies {
			req := httptest.NewRequest(http.MethodPost, "/test/"+route, strings.NewReader(body))
			req.Header.Set("Content-Type", wsevents.ContentType)
			rec := httptest.NewRecorder()
			rt.ServeHTTP(rec, req)
			calls++

			assert.Equal(t, http.StatusAccepted, rec.Code)
			assert.Equal(t, "1", rec.Header().Get("X-Handoff"))
			assert.Empty(t, rec.Body.String())
			assert.Empty(t, rec.Header().Get(grip.HeaderHold))
			assert.Empty(t, rec.Header().Get(grip.HeaderExtensions))
		}
	}
	assert.Equal(t, calls, h.calls)
}

func TestRouter_HandoffFailure(t *testing.T) {
	h := &handoffRecorder{err: errors.Join(handoff.ErrHandoff, errors.New("dial tcp: refused"))}
	rt := NewRouter(DefaultSettings(), h, plainHandler())

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test/stream", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "HANDOFF_FAILED", body["code"])
}

func TestRouter_SignedHold(t *testing.T) {
	rt := NewRouter(DefaultSettings(), &handoffRecorder{}, plainHandler())
	tests := []struct {
		route       string
		contentType string
		hold        string
	}{
		{"long-poll", "text/plain", "response"},
		{"stream", "text/plain", "stream"},
		{"sse", "text/event-stream", "stream"},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test/"+tt.route, nil)
			req.Header.Set(grip.HeaderSignature, "signed-by-proxy")
			rec := httptest.NewRecorder()
			rt.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.hold, rec.Header().Get(grip.HeaderHold))
			assert.Equal(t, "test", rec.Header().Get(grip.HeaderChannel))
			assert.Equal(t, string(grip.PlaceholderBody), rec.Body.String())
		})
	}
}

func TestRouter_EmptySignatureCountsAsPresent(t *testing.T) {
	h := &handoffRecorder{}
	rt := NewRouter(DefaultSettings(), h, plainHandler())

	req := httptest.NewRequest(http.MethodGet, "/test/long-poll", nil)
	req.Header.Set(grip.HeaderSignature, "")
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	assert.Zero(t, h.calls)
	assert.Equal(t, "response", rec.Header().Get(grip.HeaderHold))
	assert.Equal(t, DestHold, rt.Classify(req).Kind)
}

func TestRouter_SignedWebSocket(t *testing.T) {
	rt := NewRouter(DefaultSettings(), &handoffRecorder{}, plainHandler())

	req := httptest.NewRequest(http.MethodPost, "/test/websocket", strings.NewReader("OPEN\r\n"))
	req.Header.Set(grip.HeaderSignature, "sig")
	req.Header.Set("Content-Type", wsevents.ContentType)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OPEN\r\n"+string(wsevents.EncodeSubscribe("test")), rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/test/websocket", strings.NewReader("OPEN\r\n"))
	req.Header.Set(grip.HeaderSignature, "sig")
	rec = httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_PlainPassThrough(t *testing.T) {
	h := &handoffRecorder{}
	rt := NewRouter(DefaultSettings(), h, plainHandler())

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))
	assert.Equal(t, "1", rec.Header().Get("X-Plain"))
	assert.Zero(t, h.calls)
}

func TestRouter_Apply(t *testing.T) {
	rt := NewRouter(DefaultSettings(), &handoffRecorder{}, plainHandler())
	rt.Apply(Settings{Prefix: "rt", Channel: "news", SignatureHeader: "X-Sig"})

	s := rt.Settings()
	assert.Equal(t, "/rt/", s.Prefix)
	assert.Equal(t, int64(defaultMaxBodyBytes), s.MaxBodyBytes)

	req := httptest.NewRequest(http.MethodGet, "/rt/sse", nil)
	req.Header.Set("X-Sig", "1")
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	assert.Equal(t, "news", rec.Header().Get(grip.HeaderChannel))

	req = httptest.NewRequest(http.MethodGet, "/test/sse", nil)
	req.Header.Set(grip.HeaderSignature, "1")
	assert.Equal(t, DestPlain, rt.Classify(req).Kind)
}

func TestRouteHold(t *testing.T) {
	_, _, ok := RouteWebSocket.Hold()
	assert.False(t, ok)
	ct, mode, ok := RouteSSE.Hold()
	assert.True(t, ok)
	assert.Equal(t, "text/event-stream", ct)
	assert.Equal(t, grip.HoldStream, mode)
}
