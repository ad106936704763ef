// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package middleware provides the HTTP ingress middleware of the API server.
package middleware

import (
	"net/http"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/httpme/httpme/internal/api/problem"
	"github.com/httpme/httpme/internal/log"
)

// Recoverer ensures that panics inside any downstream handler
// do not crash the process. It logs the panic with context and returns a 500 problem.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			buf := make([]byte, 8192)
			n := runtime.Stack(buf, false)

			path := r.URL.Path
			if !utf8.ValidString(path) {
				path = strings.ToValidUTF8(path, "")
			}

			logger := log.WithComponentFromContext(r.Context(), "panic-recovery")
			logger.Error().
				Str(log.FieldEvent, "panic.recovered").
				Str(log.FieldMethod, r.Method).
				Str(log.FieldPath, path).
				Str(log.FieldRemote, r.RemoteAddr).
				Interface("panic_value", rec).
				Str("stack_trace", string(buf[:n])).
				Msg("panic recovered in HTTP handler")

			problem.Write(w, r, http.StatusInternalServerError, "server/panic", "Internal Server Error", "INTERNAL_ERROR",
				"An unexpected error occurred. Please try again later.", nil)
		}()

		next.ServeHTTP(w, r)
	})
}
