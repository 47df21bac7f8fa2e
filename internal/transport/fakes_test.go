// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	serial "github.com/jacobsa/go-serial/serial"
)

// scriptedReads hands out chunks in order; a nil chunk reads as an idle
// line, and an exhausted script stays idle unless err is set.
type scriptedReads struct {
	mu     sync.Mutex
	chunks [][]byte
	err    error
}

func (s *scriptedReads) next(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.chunks) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.EOF
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	if chunk == nil {
		return 0, io.EOF
	}
	n := copy(p, chunk)
	if n < len(chunk) {
		s.chunks = append([][]byte{chunk[n:]}, s.chunks...)
	}
	return n, nil
}

type fakePort struct {
	scriptedReads

	written  bytes.Buffer
	writeErr error
	closed   int
	closeErr error
}

func (p *fakePort) Read(b []byte) (int, error) { return p.next(b) }

func (p *fakePort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	p.closed++
	return p.closeErr
}

// withFakeSerial routes openSerial to port for the duration of the test.
func withFakeSerial(t *testing.T, port io.ReadWriteCloser, openErr error) *serial.OpenOptions {
	t.Helper()

	var got serial.OpenOptions
	prev := openSerial
	openSerial = func(opts serial.OpenOptions) (io.ReadWriteCloser, error) {
		got = opts
		if openErr != nil {
			return nil, openErr
		}
		return port, nil
	}
	t.Cleanup(func() { openSerial = prev })
	return &got
}

type fakeCharacteristic struct {
	scriptedReads

	// block, when set, makes Read wait on it before answering.
	block   chan struct{}
	written [][]byte
}

func (c *fakeCharacteristic) Read(p []byte) (int, error) {
	if c.block != nil {
		<-c.block
	}
	n, err := c.next(p)
	if err == io.EOF {
		// A characteristic read with nothing new returns an empty value.
		return n, nil
	}
	return n, err
}

func (c *fakeCharacteristic) WriteWithoutResponse(p []byte) (int, error) {
	c.written = append(c.written, append([]byte(nil), p...))
	return len(p), nil
}

type fakePeripheral struct {
	disconnects int
}

func (p *fakePeripheral) Disconnect() error {
	p.disconnects++
	return nil
}

type dialArgs struct {
	address, service, characteristic string
}

func withFakeBLE(t *testing.T, char *fakeCharacteristic, dialErr error) (*fakePeripheral, *dialArgs) {
	t.Helper()

	periph := &fakePeripheral{}
	args := &dialArgs{}
	prev := dialBLE
	dialBLE = func(_ context.Context, address, service, characteristic string) (*bleLink, error) {
		*args = dialArgs{address, service, characteristic}
		if dialErr != nil {
			return nil, dialErr
		}
		return &bleLink{peripheral: periph, characteristic: char}, nil
	}
	t.Cleanup(func() { dialBLE = prev })
	return periph, args
}
