package backend

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/kbukum/chatkit/errors"
)

// TurnStream is the open body of a 2xx streaming turn response. Reads
// yield raw UTF-8 chunks for the frame decoder; io.EOF signals a cleanly
// finished stream.
type TurnStream struct {
	body io.ReadCloser
}

func newTurnStream(body io.ReadCloser, idle time.Duration) *TurnStream {
	if idle > 0 {
		body = newIdleReader(body, idle)
	}
	return &TurnStream{body: body}
}

// Read reads the next raw chunk from the stream.
func (s *TurnStream) Read(p []byte) (int, error) {
	return s.body.Read(p)
}

// Close releases the underlying connection. Safe to call after EOF and
// required on early abandonment.
func (s *TurnStream) Close() error {
	return s.body.Close()
}

// idleReader closes the stream when no bytes arrive for the configured
// window, converting the stall into a retryable idle-timeout error. The
// watchdog is re-armed after every successful read.
type idleReader struct {
	rc       io.ReadCloser
	timeout  time.Duration
	timer    *time.Timer
	timedOut atomic.Bool
	closed   atomic.Bool
}

func newIdleReader(rc io.ReadCloser, timeout time.Duration) *idleReader {
	r := &idleReader{rc: rc, timeout: timeout}
	r.timer = time.AfterFunc(timeout, func() {
		r.timedOut.Store(true)
		// Closing the body unblocks the pending Read.
		_ = rc.Close()
	})
	return r
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if err != nil {
		if r.timedOut.Load() {
			return n, errors.IdleTimeout(err)
		}
		return n, err
	}
	if !r.closed.Load() {
		r.timer.Reset(r.timeout)
	}
	return n, nil
}

func (r *idleReader) Close() error {
	r.closed.Store(true)
	r.timer.Stop()
	return r.rc.Close()
}
