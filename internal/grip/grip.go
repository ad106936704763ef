// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package grip builds the control responses that ask a GRIP hold proxy to keep
// a client connection open and bind it to a channel.
package grip

import (
	"net/http"
	"strconv"
)

// Response and request header names understood by the hold proxy.
const (
	HeaderHold       = "Grip-Hold"
	HeaderChannel    = "Grip-Channel"
	HeaderSignature  = "Grip-Sig"
	HeaderExtensions = "Sec-WebSocket-Extensions"

	// ExtensionMessagePrefix advertises unprefixed TEXT messages on an OPEN reply.
	ExtensionMessagePrefix = `grip; message-prefix=""`
)

// PlaceholderBody is sent with every hold instruction for clients that expect a
// body on the initial response. The proxy discards it.
var PlaceholderBody = []byte(`{"msg":"hello world"}`)

// HoldMode selects how the proxy holds a connection.
type HoldMode int

const (
	// HoldResponse holds until one publish arrives, then completes the response.
	HoldResponse HoldMode = iota
	// HoldStream keeps the response open and appends every publish.
	HoldStream
)

// String returns the Grip-Hold wire value.
func (m HoldMode) String() string {
	switch m {
	case HoldResponse:
		return "response"
	case HoldStream:
		return "stream"
	}
	return "response"
}

// ControlResponse is a fully built hold instruction.
type ControlResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Build returns a 200 response carrying contentType and the hold and channel
// instructions. It never fails.
func Build(contentType string, mode HoldMode, channel string) ControlResponse {
	h := make(http.Header, 4)
	h.Set("Content-Type", contentType)
	h.Set(HeaderHold, mode.String())
	h.Set(HeaderChannel, channel)
	h.Set("Content-Length", strconv.Itoa(len(PlaceholderBody)))
	return ControlResponse{
		Status: http.StatusOK,
		Header: h,
		Body:   append([]byte(nil), PlaceholderBody...),
	}
}

// WriteTo copies the response onto w. Existing values for the same header
// names are replaced.
func (c ControlResponse) WriteTo(w http.ResponseWriter) error {
	dst := w.Header()
	for k, vv := range c.Header {
		dst[k] = append([]string(nil), vv...)
	}
	w.WriteHeader(c.Status)
	_, err := w.Write(c.Body)
	return err
}
