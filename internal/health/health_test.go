// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	name   string
	result CheckResult
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult { return m.result }

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestManager_Health(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(&mockChecker{name: "a", result: CheckResult{Status: StatusUnhealthy}})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)
	assert.Equal(t, "v1", resp.Version)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Contains(t, resp.Checks, "a")
}

func TestManager_Ready(t *testing.T) {
	tests := []struct {
		name      string
		results   []Status
		wantReady bool
		want      Status
	}{
		{"no checkers", nil, true, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, true, StatusHealthy},
		{"degraded", []Status{StatusHealthy, StatusDegraded}, true, StatusDegraded},
		{"unhealthy wins", []Status{StatusUnhealthy, StatusDegraded}, false, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("")
			for i, s := range tt.results {
				m.RegisterChecker(&mockChecker{name: string(rune('a' + i)), result: CheckResult{Status: s}})
			}
			resp := m.Ready(context.Background())
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestManager_ReplaceChecker(t *testing.T) {
	m := NewManager("")
	m.RegisterChecker(&mockChecker{name: "handoff", result: CheckResult{Status: StatusUnhealthy}})
	m.ReplaceChecker(&mockChecker{name: "handoff", result: CheckResult{Status: StatusHealthy}})
	resp := m.Ready(context.Background())
	assert.True(t, resp.Ready)
	assert.Len(t, resp.Checks, 1)
}

func TestManager_ServeReady(t *testing.T) {
	m := NewManager("")
	m.RegisterChecker(NewStoreChecker("memory", fakePinger{}))

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	m.ReplaceChecker(NewStoreChecker("redis", fakePinger{err: errors.New("connection refused")}))
	rec = httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Ready)
	assert.Equal(t, "connection refused", body.Checks["asset_store"].Error)
}

func TestManager_ServeHealth(t *testing.T) {
	m := NewManager("v2")
	m.RegisterChecker(NewStoreChecker("memory", nil))

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "liveness is always 200")

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusUnhealthy, body.Status)
}

func TestHandoffChecker(t *testing.T) {
	ctx := context.Background()

	res := NewHandoffChecker("").Check(ctx)
	assert.Equal(t, StatusDegraded, res.Status)

	res = NewHandoffChecker("://bad").Check(ctx)
	assert.Equal(t, StatusUnhealthy, res.Status)

	srv := httptest.NewServer(http.NotFoundHandler())
	res = NewHandoffChecker(srv.URL).Check(ctx)
	assert.Equal(t, StatusHealthy, res.Status)

	addr := srv.URL
	srv.Close()
	res = NewHandoffChecker(addr).Check(ctx)
	assert.Equal(t, StatusDegraded, res.Status)
}
