// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/httpme/httpme/internal/api/problem"
	"github.com/httpme/httpme/internal/log"
	"github.com/httpme/httpme/internal/metrics"
	"github.com/httpme/httpme/internal/platform/httpx"
	"github.com/httpme/httpme/internal/platform/outbound"
)

// HeaderResponseTiming carries the total upstream time in milliseconds.
const HeaderResponseTiming = "response-timing"

const (
	maxDynamicRequest  = 1 << 20
	maxDynamicResponse = 10 << 20
)

// DynamicRequest is the JSON body accepted by /dynamic_backend.
type DynamicRequest struct {
	Backend   string         `json:"backend"`
	Method    string         `json:"method,omitempty"`
	TargetURL string         `json:"target_url,omitempty"`
	Headers   map[string]any `json:"headers,omitempty"`
	Repeat    *int           `json:"repeat,omitempty"`
}

// DynamicOptions configures a DynamicBackend.
type DynamicOptions struct {
	// Policy is consulted per request so reloads apply immediately.
	Policy     func() outbound.Policy
	MaxRepeat  int
	RepeatRate float64 // requests per second between repeats
	Client     *http.Client
	Resolver   outbound.Resolver
}

// DynamicBackend sends caller-described requests to an arbitrary HTTPS
// origin and returns the last response.
type DynamicBackend struct {
	opts DynamicOptions
}

// NewDynamicBackend fills unset options with defaults.
func NewDynamicBackend(opts DynamicOptions) *DynamicBackend {
	if opts.Policy == nil {
		opts.Policy = func() outbound.Policy { return outbound.Policy{} }
	}
	if opts.MaxRepeat <= 0 {
		opts.MaxRepeat = 10
	}
	if opts.RepeatRate <= 0 {
		opts.RepeatRate = 5
	}
	if opts.Client == nil {
		opts.Client = httpx.NewClient(httpx.DefaultTimeouts())
	}
	if opts.Resolver == nil {
		opts.Resolver = net.DefaultResolver
	}
	return &DynamicBackend{opts: opts}
}

type upstreamResult struct {
	status int
	body   []byte
}

// ServeHTTP handles POST /dynamic_backend.
func (d *DynamicBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := log.WithComponentFromContext(r.Context(), "dynamic_backend")

	var req DynamicRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDynamicRequest))
	if err := dec.Decode(&req); err != nil || strings.TrimSpace(req.Backend) == "" {
		metrics.ObserveDynamicBackend("invalid", time.Since(start).Seconds())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "Invalid JSON")
		return
	}

	target := req.TargetURL
	if target == "" {
		target = req.Backend
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	repeat := 1
	if req.Repeat != nil {
		repeat = max(*req.Repeat, 0)
	}
	if repeat > d.opts.MaxRepeat {
		logger.Debug().Int("requested", repeat).Int("max", d.opts.MaxRepeat).Msg("capping repeat")
		repeat = d.opts.MaxRepeat
	}

	targetURL, err := outbound.ValidateWith(r.Context(), d.opts.Resolver, "https://"+target, d.opts.Policy())
	if err != nil {
		metrics.ObserveDynamicBackend("denied", 0)
		logger.Warn().Err(err).Str(log.FieldEvent, "dynamic_backend.denied").Str(log.FieldTarget, target).Msg("outbound target denied")
		problem.Write(w, r, http.StatusForbidden, "dynamic_backend/forbidden", "Forbidden", "OUTBOUND_DENIED", err.Error(), nil)
		return
	}

	res, err := d.send(r.Context(), method, targetURL, req, repeat)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveDynamicBackend("error", elapsed.Seconds())
		logger.Warn().Err(err).Str(log.FieldEvent, "dynamic_backend.failed").Str(log.FieldTarget, targetURL).Msg("upstream request failed")
		problem.Write(w, r, http.StatusBadGateway, "dynamic_backend/upstream_failed", "Bad Gateway", "UPSTREAM_FAILED", err.Error(), nil)
		return
	}
	metrics.ObserveDynamicBackend("ok", elapsed.Seconds())

	w.Header().Set(HeaderResponseTiming, strconv.FormatInt(elapsed.Milliseconds(), 10))
	w.WriteHeader(res.status)
	_, _ = w.Write(res.body)
}

// send issues the request repeat times, paced by the repeat rate, and
// returns the last response. Zero repeats yield an empty 200.
func (d *DynamicBackend) send(ctx context.Context, method, targetURL string, req DynamicRequest, repeat int) (upstreamResult, error) {
	res := upstreamResult{status: http.StatusOK}
	limiter := rate.NewLimiter(rate.Limit(d.opts.RepeatRate), 1)
	for i := 0; i < repeat; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return res, err
		}
		out, err := http.NewRequestWithContext(ctx, method, targetURL, nil)
		if err != nil {
			return res, fmt.Errorf("build request: %w", err)
		}
		for name, v := range req.Headers {
			out.Header.Set(name, headerValue(v))
		}
		out.Host = req.Backend

		resp, err := d.opts.Client.Do(out)
		if err != nil {
			return res, err
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDynamicResponse))
		_ = resp.Body.Close()
		if err != nil {
			return res, fmt.Errorf("read upstream body: %w", err)
		}
		res = upstreamResult{status: resp.StatusCode, body: body}
	}
	return res, nil
}

// headerValue renders a JSON header value. Strings are used verbatim, other
// values in their compact JSON form.
func headerValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}
