// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotConnected is returned when I/O is attempted without a link.
	ErrNotConnected = errors.New("not connected")
	// ErrPeerClosed is returned when the peer hangs up or a receive is empty.
	ErrPeerClosed = errors.New("peer closed the connection")
	// ErrReadTimeout is returned when no complete frame arrives in time.
	ErrReadTimeout = errors.New("read timed out")
)

// ConnectionError reports a failure to establish the link.
type ConnectionError struct {
	Transport string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connect: %v", e.Transport, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransportError reports an I/O failure on an established (or missing) link.
type TransportError struct {
	Transport string
	Op        string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Transport, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
