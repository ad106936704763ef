// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package httpx builds the outbound HTTP transport shared by the handoff proxy
// and the dynamic backend endpoint.
package httpx

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultConnectTimeout      = 1 * time.Second
	defaultFirstByteTimeout    = 15 * time.Second
	defaultBetweenBytesTimeout = 10 * time.Second
	defaultIdleConnTimeout     = 30 * time.Second
	defaultExpectContinue      = 1 * time.Second
	defaultMaxIdleConns        = 16
	defaultMaxIdleConnsPerHost = 4
)

// Timeouts bounds each phase of an outbound exchange. Zero values fall back
// to the defaults.
type Timeouts struct {
	Connect      time.Duration // TCP connect and TLS handshake
	FirstByte    time.Duration // request sent until response headers
	BetweenBytes time.Duration // longest silence while reading the body
}

// DefaultTimeouts returns 1s connect, 15s first byte and 10s between bytes.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Connect:      defaultConnectTimeout,
		FirstByte:    defaultFirstByteTimeout,
		BetweenBytes: defaultBetweenBytesTimeout,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Connect <= 0 {
		t.Connect = defaultConnectTimeout
	}
	if t.FirstByte <= 0 {
		t.FirstByte = defaultFirstByteTimeout
	}
	if t.BetweenBytes <= 0 {
		t.BetweenBytes = defaultBetweenBytesTimeout
	}
	return t
}

// NewTransport returns the base transport with connect and first-byte limits.
func NewTransport(t Timeouts) *http.Transport {
	t = t.withDefaults()
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: t.Connect, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   t.Connect,
		ResponseHeaderTimeout: t.FirstByte,
		ExpectContinueTimeout: defaultExpectContinue,
	}
}

// NewRoundTripper layers the between-bytes limit and client tracing on top of
// NewTransport.
func NewRoundTripper(t Timeouts) http.RoundTripper {
	t = t.withDefaults()
	return otelhttp.NewTransport(&idleTransport{
		base: NewTransport(t),
		idle: t.BetweenBytes,
	})
}

// NewClient returns a client using NewRoundTripper. It sets no overall
// deadline so long but active bodies are not cut off.
func NewClient(t Timeouts) *http.Client {
	return &http.Client{Transport: NewRoundTripper(t)}
}

type idleTransport struct {
	base http.RoundTripper
	idle time.Duration
}

func (t *idleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancel(req.Context())
	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode == http.StatusSwitchingProtocols {
		// Upgraded bodies must stay io.ReadWriteCloser for the proxy.
		if rwc, ok := resp.Body.(io.ReadWriteCloser); ok {
			resp.Body = &upgradedBody{ReadWriteCloser: rwc, cancel: cancel}
			return resp, nil
		}
		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}
	resp.Body = newIdleBody(resp.Body, t.idle, cancel)
	return resp, nil
}

// upgradedBody releases the round trip's context when the tunnel closes.
type upgradedBody struct {
	io.ReadWriteCloser
	cancel context.CancelFunc
}

func (b *upgradedBody) Close() error {
	err := b.ReadWriteCloser.Close()
	b.cancel()
	return err
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
