// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package handoff

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httpme/httpme/internal/platform/httpx"
)

func TestProxy_RelaysVerbatim(t *testing.T) {
	var gotPath, gotHost, gotXFF string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHost = r.Host
		gotXFF = r.Header.Get("X-Forwarded-For")
		w.Header().Set("Grip-Hold", "stream")
		w.Header().Set("X-Upstream", "hold")
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, "held")
	}))
	defer upstream.Close()

	p, err := NewProxy(upstream.URL, httpx.DefaultTimeouts())
	require.NoError(t, err)
	require.NotNil(t, p.Target())

	req := httptest.NewRequest(http.MethodGet, "http://edge.example/test/stream", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, p.Handoff(rec, req))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "held", rec.Body.String())
	assert.Equal(t, "hold", rec.Header().Get("X-Upstream"))
	assert.Equal(t, "stream", rec.Header().Get("Grip-Hold"))
	assert.Equal(t, "/test/stream", gotPath)
	assert.Equal(t, "edge.example", gotHost)
	assert.NotEmpty(t, gotXFF)
}

func TestProxy_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	target := upstream.URL
	upstream.Close()

	p, err := NewProxy(target, httpx.Timeouts{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = p.Handoff(rec, httptest.NewRequest(http.MethodGet, "/test/long-poll", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHandoff)
	assert.Zero(t, rec.Body.Len(), "nothing may be written on failure")
}

func TestProxy_NoTarget(t *testing.T) {
	p, err := NewProxy("  ", httpx.DefaultTimeouts())
	require.NoError(t, err)
	assert.Nil(t, p.Target())

	err = p.Handoff(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test/sse", nil))
	assert.ErrorIs(t, err, ErrHandoff)
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestNewProxy_InvalidTarget(t *testing.T) {
	for _, target := range []string{"ftp://hold.example", "http://", "://bad"} {
		_, err := NewProxy(target, httpx.DefaultTimeouts())
		assert.Error(t, err, target)
	}
}

func TestFunc(t *testing.T) {
	boom := errors.New("boom")
	var h Handoff = Func(func(http.ResponseWriter, *http.Request) error { return boom })
	assert.ErrorIs(t, h.Handoff(nil, nil), boom)
}

func TestSwitch_ReplacesTarget(t *testing.T) {
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "first")
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "second")
	}))
	defer second.Close()

	sw := NewSwitch(nil)
	assert.Nil(t, sw.Target())
	err := sw.Handoff(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test/stream", nil))
	assert.ErrorIs(t, err, ErrNoTarget)

	for _, tc := range []struct {
		target, want string
	}{
		{first.URL, "first"},
		{second.URL, "second"},
	} {
		p, err := NewProxy(tc.target, httpx.DefaultTimeouts())
		require.NoError(t, err)
		sw.Store(p)
		assert.Equal(t, tc.target, sw.Target().String())

		rec := httptest.NewRecorder()
		require.NoError(t, sw.Handoff(rec, httptest.NewRequest(http.MethodGet, "/test/stream", nil)))
		assert.Equal(t, tc.want, rec.Body.String())
	}
}
