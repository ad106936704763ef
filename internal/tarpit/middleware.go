// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tarpit

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/httpme/httpme/internal/log"
	"github.com/httpme/httpme/internal/metrics"
	"github.com/httpme/httpme/internal/telemetry"
)

const (
	// HeaderEndpoint is the request header a client uses to opt in.
	HeaderEndpoint = "endpoint"
	// HeaderAction marks a response delivered through the tarpit.
	HeaderAction = "action-tarpit"
)

// Requested reports whether r opted into tarpit delivery.
func Requested(r *http.Request) bool {
	return strings.Contains(r.Header.Get(HeaderEndpoint), "tarpit")
}

// Middleware buffers the response of any request that opted in and replays it
// through the Streamer returned by plan. Requests without the opt-in pass
// through untouched. plan is consulted per request so a reload takes effect
// on the next delivery.
func Middleware(plan func() Streamer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Requested(r) {
				next.ServeHTTP(w, r)
				return
			}

			buf := newBufferedWriter()
			next.ServeHTTP(buf, r)

			s := plan()
			logger := log.WithComponentFromContext(r.Context(), "tarpit")
			if err := s.Validate(); err != nil {
				metrics.RecordTarpit("invalid", 0)
				logger.Error().
					Err(err).
					Str(log.FieldEvent, "tarpit.invalid_plan").
					Msg("tarpit plan rejected, using defaults")
				s = Default()
			}

			dst := w.Header()
			for k, vv := range buf.header {
				dst[k] = vv
			}
			dst.Del("Content-Length")
			dst.Set(HeaderAction, "1")
			w.WriteHeader(buf.status())

			done := metrics.TarpitStarted()
			defer done()

			start := time.Now()
			chunks, err := s.Stream(r.Context(), buf.body.Bytes(), ResponseSink(w))
			telemetry.Annotate(r.Context(), telemetry.TarpitAttributes(s.ChunkSize, chunks)...)
			if err == nil {
				metrics.RecordTarpit("completed", chunks)
				telemetry.RecordTarpitChunks(r.Context(), "completed", chunks)
				logger.Debug().
					Str(log.FieldEvent, "tarpit.completed").
					Int(log.FieldChunkSize, s.ChunkSize).
					Int(log.FieldChunks, chunks).
					Dur(log.FieldDuration, time.Since(start)).
					Msg("tarpit delivery completed")
				return
			}
			metrics.RecordTarpit("aborted", chunks)
			telemetry.RecordTarpitChunks(r.Context(), "aborted", chunks)
			logger.Warn().
				Err(err).
				Str(log.FieldEvent, "tarpit.aborted").
				Int(log.FieldChunks, chunks).
				Int(log.FieldBytes, min(chunks*s.ChunkSize, buf.body.Len())).
				Msg("tarpit delivery aborted by peer")
		})
	}
}

// bufferedWriter collects a complete response so it can be replayed.
type bufferedWriter struct {
	header http.Header
	code   int
	body   bytes.Buffer
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header)}
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) WriteHeader(code int) {
	if b.code == 0 {
		b.code = code
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.code == 0 {
		b.code = http.StatusOK
	}
	return b.body.Write(p)
}

// Flush is a no-op; the body is only released once the handler returns.
func (b *bufferedWriter) Flush() {}

func (b *bufferedWriter) status() int {
	if b.code == 0 {
		return http.StatusOK
	}
	return b.code
}
