// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package wsevents

import (
	"fmt"
)

// EncodeText frames p as "TEXT <hex len>\r\n<p>\r\n". The length is the byte
// count of p in lowercase hex, formatted with %02x.
func EncodeText(p []byte) []byte {
	header := fmt.Sprintf("TEXT %02x\r\n", len(p))
	out := make([]byte, 0, len(header)+len(p)+len(crlf))
	out = append(out, header...)
	out = append(out, p...)
	out = append(out, crlf...)
	return out
}

// EncodeOpen returns the OPEN frame bytes.
func EncodeOpen() []byte {
	return append([]byte(nil), openLine...)
}

// EncodeClose returns the CLOSE frame bytes.
func EncodeClose() []byte {
	return append([]byte(nil), closeLine...)
}

// Encode serialises a single frame. UNKNOWN frames are written back verbatim.
func Encode(f Frame) []byte {
	switch f.Kind {
	case KindOpen:
		return EncodeOpen()
	case KindText:
		return EncodeText(f.Payload)
	case KindClose:
		return EncodeClose()
	case KindUnknown:
		return append([]byte(nil), f.Payload...)
	}
	return nil
}

// EncodeSubscribe wraps a subscribe control command for channel in a TEXT frame.
// The channel is inserted into the JSON without escaping.
func EncodeSubscribe(channel string) []byte {
	return EncodeText(Subscribe(channel).Bytes(false))
}

// EncodeSubscribeEscaped is EncodeSubscribe with the channel JSON-escaped.
func EncodeSubscribeEscaped(channel string) []byte {
	return EncodeText(Subscribe(channel).Bytes(true))
}
