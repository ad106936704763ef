// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tarpit

import (
	"errors"
	"net/http"
)

type responseSink struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// ResponseSink adapts w to a Sink. Writers that cannot flush still receive
// every chunk; the flush is then left to the server.
func ResponseSink(w http.ResponseWriter) Sink {
	return &responseSink{w: w, rc: http.NewResponseController(w)}
}

func (s *responseSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *responseSink) Flush() error {
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
