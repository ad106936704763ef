// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package wsevents

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ControlPrefix marks a TEXT payload as a control message for the hold proxy.
const ControlPrefix = "c:"

// CommandSubscribe is the only control command type emitted by this service.
const CommandSubscribe = "subscribe"

// ErrNotControl is returned when a payload does not carry the control prefix.
var ErrNotControl = errors.New("wsevents: payload is not a control message")

// ControlCommand is a GRIP control message embedded in a TEXT payload.
type ControlCommand struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// Subscribe returns a subscribe command for channel.
func Subscribe(channel string) ControlCommand {
	return ControlCommand{Type: CommandSubscribe, Channel: channel}
}

// Bytes renders the command with the control prefix. With escape=false the
// fields are spliced into the JSON text as-is, which is only well-formed for
// values without quotes or backslashes.
func (c ControlCommand) Bytes(escape bool) []byte {
	if escape {
		// json.Marshal of two string fields cannot fail.
		body, _ := json.Marshal(c)
		return append([]byte(ControlPrefix), body...)
	}
	return []byte(fmt.Sprintf(`%s{"type":"%s","channel":"%s"}`, ControlPrefix, c.Type, c.Channel))
}

// ParseControlCommand decodes a "c:" prefixed TEXT payload.
func ParseControlCommand(payload []byte) (ControlCommand, error) {
	if !bytes.HasPrefix(payload, []byte(ControlPrefix)) {
		return ControlCommand{}, ErrNotControl
	}
	var cmd ControlCommand
	if err := json.Unmarshal(payload[len(ControlPrefix):], &cmd); err != nil {
		return ControlCommand{}, fmt.Errorf("decode control command: %w", err)
	}
	return cmd, nil
}
