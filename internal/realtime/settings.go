// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package realtime

import (
	"fmt"
	"strings"

	"github.com/httpme/httpme/internal/grip"
)

// EchoMode selects what a TEXT reply quotes back.
type EchoMode int

const (
	// EchoRaw quotes the complete request body, framing bytes included.
	// Peers built against the hosted service expect exactly this.
	EchoRaw EchoMode = iota
	// EchoPayload quotes only the decoded TEXT payload.
	EchoPayload
)

func (m EchoMode) String() string {
	switch m {
	case EchoRaw:
		return "raw"
	case EchoPayload:
		return "payload"
	}
	return "raw"
}

// ParseEchoMode parses "raw" or "payload". The empty string means raw.
func ParseEchoMode(s string) (EchoMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw":
		return EchoRaw, nil
	case "payload":
		return EchoPayload, nil
	}
	return EchoRaw, fmt.Errorf("realtime: unknown echo mode %q (want raw|payload)", s)
}

const defaultMaxBodyBytes = 1 << 20

// Settings holds the runtime-tunable knobs of the realtime subsystem.
type Settings struct {
	Prefix          string // path prefix owning the realtime routes, e.g. "/test/"
	Channel         string
	SignatureHeader string
	EchoMode        EchoMode
	EscapeChannel   bool
	MaxBodyBytes    int64
}

// DefaultSettings mirrors the hosted test service.
func DefaultSettings() Settings {
	return Settings{
		Prefix:          "/test/",
		Channel:         "test",
		SignatureHeader: grip.HeaderSignature,
		EchoMode:        EchoRaw,
		MaxBodyBytes:    defaultMaxBodyBytes,
	}
}

func (s Settings) normalized() Settings {
	d := DefaultSettings()
	if s.Prefix == "" {
		s.Prefix = d.Prefix
	}
	if !strings.HasPrefix(s.Prefix, "/") {
		s.Prefix = "/" + s.Prefix
	}
	if !strings.HasSuffix(s.Prefix, "/") {
		s.Prefix += "/"
	}
	if s.Channel == "" {
		s.Channel = d.Channel
	}
	if s.SignatureHeader == "" {
		s.SignatureHeader = d.SignatureHeader
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = d.MaxBodyBytes
	}
	return s
}
