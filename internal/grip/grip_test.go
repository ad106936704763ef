// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package grip

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		mode        HoldMode
		channel     string
		wantHold    string
	}{
		{"long-poll", "text/plain", HoldResponse, "test", "response"},
		{"stream", "text/plain", HoldStream, "test", "stream"},
		{"sse", "text/event-stream", HoldStream, "news", "stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Build(tt.contentType, tt.mode, tt.channel)
			assert.Equal(t, http.StatusOK, res.Status)
			assert.Equal(t, tt.contentType, res.Header.Get("Content-Type"))
			assert.Equal(t, tt.wantHold, res.Header.Get(HeaderHold))
			assert.Equal(t, tt.channel, res.Header.Get(HeaderChannel))
			assert.NotEmpty(t, res.Body)
			assert.Equal(t, PlaceholderBody, res.Body)
		})
	}
}

func TestBuild_BodyIsCopy(t *testing.T) {
	res := Build("text/plain", HoldResponse, "test")
	res.Body[0] = 'X'
	assert.Equal(t, byte('{'), PlaceholderBody[0])
}

func TestHoldModeString(t *testing.T) {
	assert.Equal(t, "response", HoldResponse.String())
	assert.Equal(t, "stream", HoldStream.String())
}

func TestControlResponse_WriteTo(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Type", "application/json")

	err := Build("text/event-stream", HoldStream, "test").WriteTo(rec)
	require.NoError(t, err)

	res := rec.Result()
	defer func() { _ = res.Body.Close() }()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{"text/event-stream"}, res.Header.Values("Content-Type"))
	assert.Equal(t, "stream", res.Header.Get(HeaderHold))
	assert.Equal(t, "test", res.Header.Get(HeaderChannel))
	assert.Equal(t, string(PlaceholderBody), rec.Body.String())
}
