// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/httpme/httpme/internal/log"
)

// HeaderEndpoint is the request header selecting optional behaviours such as
// "status=404" or "tarpit".
const HeaderEndpoint = "endpoint"

const statusParseError = "unable to parse status code properly. Try sending request like /status/302"

// Valid status codes a caller may request.
const (
	minStatus = 200
	maxStatus = 599
)

// parseStatus parses a requested status code.
func parseStatus(s string) (int, error) {
	code, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if code < minStatus || code > maxStatus {
		return 0, fmt.Errorf("status %d out of range", code)
	}
	return code, nil
}

// requestedStatus returns the status forced by the endpoint header
// ("status=NNN") or the ?status= query parameter, in that order.
// ok is false when neither asks for a status.
func requestedStatus(r *http.Request) (code int, ok bool, err error) {
	if ep := r.Header.Get(HeaderEndpoint); strings.Contains(ep, "status") {
		_, v, found := strings.Cut(ep, "=")
		if !found {
			return 0, true, fmt.Errorf("endpoint header %q has no status value", ep)
		}
		if i := strings.IndexAny(v, ",; "); i >= 0 {
			v = v[:i]
		}
		code, err = parseStatus(v)
		return code, true, err
	}
	if q := r.URL.Query(); q.Has("status") {
		code, err = parseStatus(q.Get("status"))
		return code, true, err
	}
	return 0, false, nil
}

func writeStatusError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": statusParseError})
}

// StatusOverride forces the response status requested by the endpoint
// header or ?status= query on whatever handler serves the path. The body of
// that handler is kept.
func StatusOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code, ok, err := requestedStatus(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			logger := log.WithComponentFromContext(r.Context(), "endpoints")
			logger.Debug().Err(err).Str(log.FieldEvent, "status.invalid").Msg("invalid status override")
			writeStatusError(w)
			return
		}
		ow := &overrideWriter{ResponseWriter: w, code: code}
		next.ServeHTTP(ow, r)
		if !ow.wrote {
			ow.WriteHeader(code)
		}
	})
}

type overrideWriter struct {
	http.ResponseWriter
	code  int
	wrote bool
}

func (o *overrideWriter) WriteHeader(int) {
	if o.wrote {
		return
	}
	o.wrote = true
	o.ResponseWriter.WriteHeader(o.code)
}

func (o *overrideWriter) Write(p []byte) (int, error) {
	if !o.wrote {
		o.WriteHeader(o.code)
	}
	return o.ResponseWriter.Write(p)
}

func (o *overrideWriter) Flush() {
	if !o.wrote {
		o.WriteHeader(o.code)
	}
	_ = http.NewResponseController(o.ResponseWriter).Flush()
}

func (o *overrideWriter) Unwrap() http.ResponseWriter { return o.ResponseWriter }

// Status answers /status/{code} with that status and an empty body.
func Status(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "code")
	if raw == "" {
		writeStatusError(w)
		return
	}
	var code int
	err := runtime.BindStyledParameterWithOptions("simple", "code", raw, &code, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil || code < minStatus || code > maxStatus {
		writeStatusError(w)
		return
	}
	w.WriteHeader(code)
}
