// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httpme/httpme/internal/api/problem"
	"github.com/httpme/httpme/internal/log"
)

func TestRecoverer_ReturnsProblem(t *testing.T) {
	h := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, problem.ContentType, rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.Equal(t, rec.Header().Get(problem.HeaderRequestID), body[problem.JSONKeyRequestID])
}

func TestRecoverer_RepanicsAbort(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = log.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(problem.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(problem.HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(problem.HeaderRequestID, "has space")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "has space", seen)
	assert.False(t, validRequestID(strings.Repeat("a", maxRequestIDLen+1)))
}

func TestRequestID_CorrelationID(t *testing.T) {
	var buf bytes.Buffer
	var cid string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		cid = log.CorrelationIDFromContext(r.Context())
		logger := log.WithContext(r.Context(), zerolog.New(&buf))
		logger.Info().Msg("handled")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, "checkout-42")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "checkout-42", cid)
	assert.Contains(t, buf.String(), `"correlation_id":"checkout-42"`)

	buf.Reset()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, "bad value")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, cid)
	assert.NotContains(t, buf.String(), "correlation_id")
}

func TestRateLimit(t *testing.T) {
	h := PerMinute(2)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	assert.Equal(t, http.StatusNoContent, do().Code)
	assert.Equal(t, http.StatusNoContent, do().Code)
	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func histogramCount(t *testing.T, vec *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, vec.WithLabelValues(labels...).(prometheus.Histogram).Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := NewRouter(StackConfig{EnableMetrics: true})
	r.Get("/status/{code}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {})

	before := histogramCount(t, httpRequestDuration, http.MethodGet, "/status/{code}", "418")
	beforeOther := histogramCount(t, httpRequestDuration, http.MethodGet, unmatchedRoute, "200")

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status/418", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/some/random/path", nil))

	assert.Equal(t, before+1, histogramCount(t, httpRequestDuration, http.MethodGet, "/status/{code}", "418"))
	assert.Equal(t, beforeOther+1, histogramCount(t, httpRequestDuration, http.MethodGet, unmatchedRoute, "200"))
}

func TestMetrics_KeepsFlusher(t *testing.T) {
	var ok bool
	h := Metrics()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, ok = w.(http.Flusher)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, ok)
}

func TestSpanNameFormatter(t *testing.T) {
	assert.Equal(t, "GET /anything", spanNameFormatter("", httptest.NewRequest(http.MethodGet, "/anything", nil)))
	assert.Equal(t, "GET /anything?", spanNameFormatter("", httptest.NewRequest(http.MethodGet, "/anything?token=x", nil)))
	assert.False(t, shouldTrace(httptest.NewRequest(http.MethodGet, "/healthz", nil)))
	assert.True(t, shouldTrace(httptest.NewRequest(http.MethodGet, "/test/websocket", nil)))

	traceID, spanID := TraceIDs(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
}

func TestStack_Order(t *testing.T) {
	r := chi.NewRouter()
	ApplyStack(r, StackConfig{EnableLogging: true, EnableRateLimit: true, RequestsPerMinute: 100})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, log.RequestIDFromContext(r.Context()))
		panic("late")
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(problem.HeaderRequestID))
}
