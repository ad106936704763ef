// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package endpoints

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/httpme/httpme/internal/log"
)

// maxEchoBody caps the request body /anything reflects.
const maxEchoBody = 10 << 20

// AnythingResponse is the JSON document /anything returns.
type AnythingResponse struct {
	Args    string            `json:"args"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
	IP      string            `json:"ip"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
}

// Anything echoes the request back as JSON for any method.
func Anything(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEchoBody))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	headers := make(map[string]string, len(r.Header)+1)
	for name, values := range r.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	if r.Host != "" {
		headers["host"] = r.Host
	}

	resp := AnythingResponse{
		Args:    r.URL.RawQuery,
		Body:    strings.ToValidUTF8(string(body), "�"),
		Headers: headers,
		IP:      clientIP(r),
		Method:  r.Method,
		URL:     requestURL(r),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "endpoints")
		logger.Error().Err(err).Str(log.FieldEvent, "anything.encode_error").Msg("failed to encode echo response")
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
