// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Middleware logs one "request.handled" event per request once the handler returns.
// The wrapped writer keeps http.Flusher available so streaming handlers are unaffected.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			reqLogger := WithComponentFromContext(r.Context(), "http")
			ctx := reqLogger.WithContext(r.Context())

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			var evt *zerolog.Event
			switch {
			case status >= 500:
				evt = reqLogger.Error()
			case status >= 400:
				evt = reqLogger.Warn()
			default:
				evt = reqLogger.Info()
			}
			evt.
				Str(FieldEvent, "request.handled").
				Str(FieldMethod, r.Method).
				Str(FieldPath, r.URL.Path).
				Int(FieldStatus, status).
				Int(FieldBytes, ww.BytesWritten()).
				Dur(FieldDuration, time.Since(start)).
				Str(FieldRemote, r.RemoteAddr).
				Msg("request handled")
		})
	}
}
