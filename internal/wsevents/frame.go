// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package wsevents implements the WebSocket-over-HTTP event framing used by
// GRIP hold proxies: OPEN, TEXT and CLOSE frames carried in plain HTTP bodies.
package wsevents

import (
	"bytes"
	"errors"
	"strconv"
)

// ContentType is the media type of request and response bodies carrying frames.
const ContentType = "application/websocket-events"

// Kind identifies the type of a decoded frame.
type Kind int

const (
	KindUnknown Kind = iota
	KindOpen
	KindText
	KindClose
)

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "OPEN"
	case KindText:
		return "TEXT"
	case KindClose:
		return "CLOSE"
	case KindUnknown:
		return "UNKNOWN"
	}
	return "UNKNOWN"
}

var (
	crlf       = []byte("\r\n")
	openLine   = []byte("OPEN\r\n")
	closeLine  = []byte("CLOSE\r\n")
	textPrefix = []byte("TEXT ")
)

var (
	// ErrShortFrame reports a TEXT frame whose payload or trailer is truncated.
	ErrShortFrame = errors.New("wsevents: truncated frame")
	// ErrBadLength reports a TEXT frame whose length field is not lowercase hex.
	ErrBadLength = errors.New("wsevents: invalid length field")
)

// Frame is one unit of the event protocol. Payload is only set for TEXT frames;
// for UNKNOWN frames it holds the unrecognised bytes.
type Frame struct {
	Kind    Kind
	Payload []byte
}

// Open returns an OPEN frame.
func Open() Frame { return Frame{Kind: KindOpen} }

// Close returns a CLOSE frame.
func Close() Frame { return Frame{Kind: KindClose} }

// Text returns a TEXT frame carrying p.
func Text(p []byte) Frame { return Frame{Kind: KindText, Payload: p} }

// Decode reads the leading frame of b and reports how many bytes it consumed.
// Unrecognised input yields a KindUnknown frame that consumes the rest of b;
// err is then non-nil only to explain why a TEXT header could not be used.
func Decode(b []byte) (Frame, int, error) {
	switch {
	case bytes.HasPrefix(b, openLine):
		return Open(), len(openLine), nil
	case bytes.HasPrefix(b, closeLine):
		return Close(), len(closeLine), nil
	case bytes.HasPrefix(b, textPrefix):
		f, n, err := decodeText(b)
		if err != nil {
			return Frame{Kind: KindUnknown, Payload: b}, len(b), err
		}
		return f, n, nil
	}
	return Frame{Kind: KindUnknown, Payload: b}, len(b), nil
}

// HasTextPrefix reports whether b opens with a TEXT header, whether or not
// the rest of the frame is well formed.
func HasTextPrefix(b []byte) bool { return bytes.HasPrefix(b, textPrefix) }

// DecodeAll decodes frames until b is exhausted. Decoding stops after the first
// UNKNOWN frame since its boundaries cannot be known.
func DecodeAll(b []byte) []Frame {
	var frames []Frame
	for len(b) > 0 {
		f, n, _ := Decode(b)
		frames = append(frames, f)
		if f.Kind == KindUnknown {
			break
		}
		b = b[n:]
	}
	return frames
}

func decodeText(b []byte) (Frame, int, error) {
	rest := b[len(textPrefix):]
	end := bytes.Index(rest, crlf)
	if end < 0 {
		return Frame{}, 0, ErrShortFrame
	}
	lenField := rest[:end]
	if len(lenField) == 0 || !isLowerHex(lenField) {
		return Frame{}, 0, ErrBadLength
	}
	size, err := strconv.ParseUint(string(lenField), 16, 31)
	if err != nil {
		return Frame{}, 0, ErrBadLength
	}

	start := len(textPrefix) + end + len(crlf)
	stop := start + int(size)
	if stop+len(crlf) > len(b) {
		return Frame{}, 0, ErrShortFrame
	}
	if !bytes.Equal(b[stop:stop+len(crlf)], crlf) {
		return Frame{}, 0, ErrShortFrame
	}

	payload := make([]byte, size)
	copy(payload, b[start:stop])
	return Text(payload), stop + len(crlf), nil
}

func isLowerHex(b []byte) bool {
	for _, c := range b {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
