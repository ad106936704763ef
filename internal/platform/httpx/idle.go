// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// ErrBetweenBytesTimeout is returned by a response body that stayed silent
// longer than Timeouts.BetweenBytes.
var ErrBetweenBytesTimeout = errors.New("httpx: between-bytes timeout")

type idleBody struct {
	rc       io.ReadCloser
	idle     time.Duration
	timer    *time.Timer
	cancel   context.CancelFunc
	timedOut atomic.Bool
}

func newIdleBody(rc io.ReadCloser, idle time.Duration, cancel context.CancelFunc) *idleBody {
	b := &idleBody{rc: rc, idle: idle, cancel: cancel}
	b.timer = time.AfterFunc(idle, func() {
		b.timedOut.Store(true)
		cancel()
	})
	return b
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if b.timedOut.Load() {
		if !errors.Is(err, io.EOF) {
			return n, fmt.Errorf("%w after %s", ErrBetweenBytesTimeout, b.idle)
		}
		return n, err
	}
	if n > 0 {
		b.timer.Reset(b.idle)
	}
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	b.cancel()
	return b.rc.Close()
}
