// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package realtime

import (
	"errors"
	"fmt"

	"github.com/httpme/httpme/internal/grip"
	"github.com/httpme/httpme/internal/wsevents"
)

// ErrChannelMismatch is returned when a subscribe names a channel other than
// the one the session was opened against.
var ErrChannelMismatch = errors.New("realtime: channel does not match session")

// Session is one WebSocket-over-HTTP exchange. It lives for a single request
// and is never registered anywhere.
type Session struct {
	Channel string
	Hold    grip.HoldMode
	Frames  []wsevents.Frame

	raw []byte
}

// NewSession decodes body into the session's frame sequence.
func NewSession(channel string, hold grip.HoldMode, body []byte) *Session {
	return &Session{
		Channel: channel,
		Hold:    hold,
		Frames:  wsevents.DecodeAll(body),
		raw:     body,
	}
}

// Leading returns the first frame. An empty body yields an UNKNOWN frame.
func (s *Session) Leading() wsevents.Frame {
	if len(s.Frames) == 0 {
		return wsevents.Frame{Kind: wsevents.KindUnknown}
	}
	return s.Frames[0]
}

// Raw returns the request body exactly as received.
func (s *Session) Raw() []byte { return s.raw }

// Subscribe builds the subscribe command for channel.
func (s *Session) Subscribe(channel string) (wsevents.ControlCommand, error) {
	if channel != s.Channel {
		return wsevents.ControlCommand{}, fmt.Errorf("%w: %q != %q", ErrChannelMismatch, channel, s.Channel)
	}
	return wsevents.Subscribe(channel), nil
}
