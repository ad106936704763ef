// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/httpme/httpme/internal/api/problem"
	"github.com/httpme/httpme/internal/log"
)

const maxRequestIDLen = 128

// HeaderCorrelationID carries a caller-chosen ID that spans several requests.
const HeaderCorrelationID = "X-Correlation-ID"

// RequestID adds a unique ID to every request. A well-formed inbound
// X-Request-ID is kept so callers can correlate across hops, and a
// well-formed X-Correlation-ID is attached to every log line of the request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(problem.HeaderRequestID)
		if !validRequestID(reqID) {
			reqID = uuid.New().String()
		}
		w.Header().Set(problem.HeaderRequestID, reqID)
		ctx := log.ContextWithRequestID(r.Context(), reqID)
		if cid := r.Header.Get(HeaderCorrelationID); validRequestID(cid) {
			ctx = log.ContextWithCorrelationID(ctx, cid)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
