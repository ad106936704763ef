// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package tarpit replays a finished response body in small chunks with a fixed
// pause between them, so clients can exercise their read timeouts.
package tarpit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Defaults used when a request opts in and no plan is configured.
const (
	DefaultChunkSize = 100
	DefaultDelay     = time.Second
)

var (
	// ErrInvalidChunkSize is returned when ChunkSize is below one byte.
	ErrInvalidChunkSize = errors.New("tarpit: chunk size must be at least 1")
	// ErrTransport wraps a failed write or flush. The peer is presumed gone.
	ErrTransport = errors.New("tarpit: transport failure")
)

// Sink receives chunks. Flush must make everything written so far visible to
// the peer.
type Sink interface {
	Write(p []byte) (int, error)
	Flush() error
}

// Streamer is a tarpit plan: the chunk size in bytes and the pause between
// consecutive chunks.
type Streamer struct {
	ChunkSize int
	Delay     time.Duration
}

// Default returns the plan with DefaultChunkSize and DefaultDelay.
func Default() Streamer {
	return Streamer{ChunkSize: DefaultChunkSize, Delay: DefaultDelay}
}

// Validate reports whether the plan can be streamed.
func (s Streamer) Validate() error {
	if s.ChunkSize < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, s.ChunkSize)
	}
	if s.Delay < 0 {
		return fmt.Errorf("tarpit: delay must not be negative: %s", s.Delay)
	}
	return nil
}

// Chunks returns how many writes body needs under this plan.
func (s Streamer) Chunks(body []byte) int {
	if s.ChunkSize < 1 || len(body) == 0 {
		return 0
	}
	return (len(body) + s.ChunkSize - 1) / s.ChunkSize
}

// Stream writes body to sink one chunk at a time, flushing after every chunk
// and waiting Delay before the next one. The wait only ever suspends the
// calling goroutine and returns early when ctx is done.
//
// It returns the number of chunks fully written and flushed. A failed write,
// a failed flush or a cancelled ctx stop the loop with an error wrapping
// ErrTransport.
func (s Streamer) Stream(ctx context.Context, body []byte, sink Sink) (int, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	sent := 0
	for off := 0; off < len(body); off += s.ChunkSize {
		if sent > 0 && s.Delay > 0 {
			if timer == nil {
				timer = time.NewTimer(s.Delay)
			} else {
				timer.Reset(s.Delay)
			}
			select {
			case <-ctx.Done():
				return sent, fmt.Errorf("%w: %w", ErrTransport, ctx.Err())
			case <-timer.C:
			}
		}

		end := min(off+s.ChunkSize, len(body))
		if _, err := sink.Write(body[off:end]); err != nil {
			return sent, fmt.Errorf("%w: write chunk %d: %w", ErrTransport, sent, err)
		}
		if err := sink.Flush(); err != nil {
			return sent, fmt.Errorf("%w: flush chunk %d: %w", ErrTransport, sent, err)
		}
		sent++
	}
	return sent, nil
}
