// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tarpit

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	chunks  [][]byte
	writes  []time.Time
	flushes int
	failAt  int // 1-based write index that fails; 0 never fails
	err     error
}

func (s *recordingSink) Write(p []byte) (int, error) {
	if s.failAt > 0 && len(s.chunks)+1 == s.failAt {
		return 0, s.err
	}
	s.writes = append(s.writes, time.Now())
	s.chunks = append(s.chunks, append([]byte(nil), p...))
	return len(p), nil
}

func (s *recordingSink) Flush() error {
	s.flushes++
	return nil
}

func TestStream_Reconstruction(t *testing.T) {
	bodies := [][]byte{
		nil,
		[]byte("x"),
		bytes.Repeat([]byte("ab"), 50),
		bytes.Repeat([]byte{0x00, 0xff}, 501),
	}
	for _, body := range bodies {
		for _, size := range []int{1, 3, 7, 100, 1000, 5000} {
			sink := &recordingSink{}
			s := Streamer{ChunkSize: size}

			n, err := s.Stream(context.Background(), body, sink)
			require.NoError(t, err)

			want := (len(body) + size - 1) / size
			assert.Equal(t, want, n, "len=%d size=%d", len(body), size)
			assert.Len(t, sink.chunks, want)
			assert.Equal(t, want, sink.flushes)
			assert.Equal(t, want, s.Chunks(body))
			assert.Equal(t, string(body), string(bytes.Join(sink.chunks, nil)))
			for i, c := range sink.chunks {
				assert.LessOrEqual(t, len(c), size)
				if i < len(sink.chunks)-1 {
					assert.Len(t, c, size)
				}
			}
		}
	}
}

func TestStream_Cadence(t *testing.T) {
	if testing.Short() {
		t.Skip("waits two seconds")
	}
	sink := &recordingSink{}
	s := Streamer{ChunkSize: 100, Delay: 1000 * time.Millisecond}

	start := time.Now()
	n, err := s.Stream(context.Background(), bytes.Repeat([]byte("z"), 250), sink)
	require.NoError(t, err)
	elapsed := time.Since(start)

	require.Equal(t, 3, n)
	assert.Len(t, sink.chunks[0], 100)
	assert.Len(t, sink.chunks[1], 100)
	assert.Len(t, sink.chunks[2], 50)
	for i := 1; i < len(sink.writes); i++ {
		assert.GreaterOrEqual(t, sink.writes[i].Sub(sink.writes[i-1]), time.Second)
	}
	// no wait after the final chunk
	assert.Less(t, elapsed, 2*time.Second+900*time.Millisecond)
}

func TestStream_WriteFailureAborts(t *testing.T) {
	peerGone := errors.New("broken pipe")
	sink := &recordingSink{failAt: 2, err: peerGone}
	s := Streamer{ChunkSize: 10, Delay: time.Millisecond}

	n, err := s.Stream(context.Background(), bytes.Repeat([]byte("q"), 45), sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, peerGone)
	assert.Equal(t, 1, n)
	assert.Len(t, sink.chunks, 1)
}

func TestStream_ContextCancelStopsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordingSink{}
	s := Streamer{ChunkSize: 1, Delay: time.Hour}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	n, err := s.Stream(ctx, []byte("abc"), sink)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, n)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStream_InvalidPlan(t *testing.T) {
	_, err := Streamer{ChunkSize: 0}.Stream(context.Background(), []byte("a"), &recordingSink{})
	assert.ErrorIs(t, err, ErrInvalidChunkSize)
	assert.NotErrorIs(t, err, ErrTransport)

	assert.Error(t, Streamer{ChunkSize: 1, Delay: -time.Second}.Validate())
	assert.NoError(t, Default().Validate())
}

func TestStream_SingleChunkDoesNotWait(t *testing.T) {
	sink := &recordingSink{}
	start := time.Now()
	n, err := Streamer{ChunkSize: 100, Delay: time.Hour}.Stream(context.Background(), []byte("short"), sink)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Less(t, time.Since(start), time.Second)
}
