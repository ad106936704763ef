// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package realtime

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/httpme/httpme/internal/grip"
	"github.com/httpme/httpme/internal/log"
	"github.com/httpme/httpme/internal/metrics"
	"github.com/httpme/httpme/internal/wsevents"
)

// RejectBody is the plain-text body of a 400 for a request without the
// event-protocol content type.
const RejectBody = "Not a WebSocket-over-HTTP request.\n"

const echoPrefix = "You said: "

// State is a step of the session handler.
type State int

const (
	StateAwaitingContentType State = iota
	StateRejected
	StateDispatching
)

func (s State) String() string {
	switch s {
	case StateAwaitingContentType:
		return "awaiting_content_type"
	case StateRejected:
		return "rejected"
	case StateDispatching:
		return "dispatching"
	}
	return "unknown"
}

// Reply is the outcome of dispatching a session.
type Reply struct {
	Header http.Header
	Body   []byte
}

// SessionHandler answers signed WebSocket-over-HTTP requests forwarded by the
// hold proxy.
type SessionHandler struct {
	settings func() Settings
}

// NewSessionHandler returns a handler reading its settings from fn on every
// request.
func NewSessionHandler(fn func() Settings) *SessionHandler {
	return &SessionHandler{settings: fn}
}

// Accept is the entry guard: the content type must match exactly.
func Accept(r *http.Request) State {
	if r.Header.Get("Content-Type") != wsevents.ContentType {
		return StateRejected
	}
	return StateDispatching
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := h.settings().normalized()
	logger := log.WithComponentFromContext(r.Context(), "realtime")

	if Accept(r) == StateRejected {
		metrics.IncRealtimeRejected("content_type")
		logger.Info().
			Str(log.FieldEvent, "realtime.rejected").
			Str("content_type", r.Header.Get("Content-Type")).
			Msg("not a WebSocket-over-HTTP request")
		writeText(w, http.StatusBadRequest, RejectBody)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.MaxBodyBytes))
	if err != nil {
		metrics.IncRealtimeRejected("body")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn().Str(log.FieldEvent, "realtime.body_too_large").Int64("limit", tooLarge.Limit).Msg("event body too large")
			writeText(w, http.StatusRequestEntityTooLarge, "Event body too large.\n")
			return
		}
		logger.Warn().Err(err).Str(log.FieldEvent, "realtime.body_read_failed").Msg("failed to read event body")
		writeText(w, http.StatusBadRequest, "Unable to read request body.\n")
		return
	}

	sess := NewSession(s.Channel, grip.HoldStream, body)
	reply := Dispatch(sess, s, logger)

	dst := w.Header()
	for k, vv := range reply.Header {
		dst[k] = vv
	}
	dst.Set("Content-Length", strconv.Itoa(len(reply.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(reply.Body); err != nil {
		logger.Debug().Err(err).Str(log.FieldEvent, "realtime.write_failed").Msg("peer went away")
	}
}

// Dispatch produces the reply for the session's leading frame. It never fails:
// CLOSE and UNKNOWN frames get an empty body, except a malformed TEXT frame in
// raw echo mode, which is echoed like a well-formed one.
func Dispatch(sess *Session, s Settings, logger zerolog.Logger) Reply {
	lead := sess.Leading()
	metrics.IncRealtimeFrame(lead.Kind.String())

	h := make(http.Header, 2)
	h.Set("Content-Type", wsevents.ContentType)

	var body []byte
	switch lead.Kind {
	case wsevents.KindOpen:
		h.Set(grip.HeaderExtensions, grip.ExtensionMessagePrefix)
		body = append(wsevents.EncodeOpen(), subscribeFrame(sess, s, logger)...)
	case wsevents.KindText:
		body = wsevents.EncodeText([]byte(echoPrefix + echoSource(sess, lead, s.EchoMode)))
	case wsevents.KindUnknown:
		// Raw echo keys off the TEXT prefix alone, so a frame with a bad
		// length field is still quoted back.
		if s.EchoMode == EchoRaw && wsevents.HasTextPrefix(sess.Raw()) {
			body = wsevents.EncodeText([]byte(echoPrefix + echoSource(sess, lead, EchoRaw)))
		}
	case wsevents.KindClose:
	}

	logger.Debug().
		Str(log.FieldEvent, "realtime.dispatched").
		Str(log.FieldFrameKind, lead.Kind.String()).
		Str(log.FieldChannel, sess.Channel).
		Int(log.FieldBytes, len(body)).
		Msg("session dispatched")

	return Reply{Header: h, Body: body}
}

func subscribeFrame(sess *Session, s Settings, logger zerolog.Logger) []byte {
	cmd, err := sess.Subscribe(s.Channel)
	if err != nil {
		// Session and settings are built from the same snapshot.
		logger.Error().Err(err).Str(log.FieldEvent, "realtime.channel_mismatch").Msg("subscribe refused")
		return nil
	}
	if !s.EscapeChannel && strings.ContainsAny(cmd.Channel, `"\`) {
		logger.Warn().
			Str(log.FieldEvent, "realtime.channel_unescaped").
			Str(log.FieldChannel, cmd.Channel).
			Msg("channel name is not JSON-safe and escaping is off")
	}
	return wsevents.EncodeText(cmd.Bytes(s.EscapeChannel))
}

// echoSource returns the text quoted back to the peer. Invalid UTF-8 becomes
// the empty string.
func echoSource(sess *Session, lead wsevents.Frame, mode EchoMode) string {
	src := sess.Raw()
	if mode == EchoPayload {
		src = lead.Payload
	}
	if !utf8.Valid(src) {
		return ""
	}
	return string(src)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
