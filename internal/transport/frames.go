// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"bytes"
	"context"
	"time"
)

// frameAssembler accumulates raw reads and splits them on newlines. Bytes
// after the last newline stay buffered for the next frame.
type frameAssembler struct {
	buf []byte
}

func (a *frameAssembler) Write(p []byte) {
	a.buf = append(a.buf, p...)
}

// Next pops the oldest complete line, without its terminator.
func (a *frameAssembler) Next() (string, bool) {
	i := bytes.IndexByte(a.buf, '\n')
	if i < 0 {
		return "", false
	}
	line := string(a.buf[:i])
	a.buf = append(a.buf[:0], a.buf[i+1:]...)
	return line, true
}

func (a *frameAssembler) Pending() int { return len(a.buf) }

func (a *frameAssembler) Reset() { a.buf = a.buf[:0] }

// readWithTimeout runs a blocking read that cannot be interrupted and gives
// up on it after timeout or when ctx is done. An abandoned read keeps its
// goroutine until the underlying call returns; its result is dropped.
func readWithTimeout(ctx context.Context, timeout time.Duration, read func() ([]byte, error)) ([]byte, error) {
	type result struct {
		p   []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		p, err := read()
		done <- result{p, err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case r := <-done:
		return r.p, r.err
	case <-expired:
		return nil, ErrReadTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// sleepCtx waits d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
