// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package problem writes RFC 7807 problem details responses.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/httpme/httpme/internal/log"
)

const (
	// HeaderRequestID carries the request id on every response.
	HeaderRequestID = "X-Request-ID"
	// JSONKeyRequestID is the problem body field holding the request id.
	JSONKeyRequestID = "requestId"
	// ContentType is the media type of problem responses.
	ContentType = "application/problem+json"
)

// Write writes an RFC 7807 problem details response.
//
// Semantics:
//   - type: canonical machine identifier (e.g. "realtime/handoff_failed").
//   - title: human-readable short label (e.g. "Bad Gateway").
//   - code: stable machine-readable short code (e.g. "HANDOFF_FAILED").
//   - detail: human-readable explanation of the specific error.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	instance := ""
	reqID := ""
	if r != nil {
		instance = r.URL.EscapedPath()
		reqID = log.RequestIDFromContext(r.Context())
	}
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}

	res := map[string]any{
		"type":   problemType,
		"title":  title,
		"status": status,
		"code":   code,
	}
	if reqID != "" {
		res[JSONKeyRequestID] = reqID
		w.Header().Set(HeaderRequestID, reqID)
	}
	if detail != "" {
		res["detail"] = detail
	}
	if instance != "" {
		res["instance"] = instance
	}

	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code", JSONKeyRequestID:
			log.L().Warn().Str("key", k).Str("problem_type", problemType).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	w.Header().Set("Content-Type", ContentType)
	w.Header().Del("Content-Length")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.L().Error().
			Err(err).
			Str("type", problemType).
			Int("status", status).
			Msg("failed to encode problem response")
	}
}
