// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/orientation"
	"github.com/relabs-tech/channelling_portal/internal/protocol"
)

// wifiReadSize is the receive size for one frame.
const wifiReadSize = 1024

// WiFi accepts a single TCP peer and treats each receive as one frame.
type WiFi struct {
	bindAddress string
	port        int
	readTimeout time.Duration
	logger      *zap.SugaredLogger

	// OnListen, when set, is called with the bound address before Connect
	// starts waiting for the peer.
	OnListen func(addr net.Addr)

	listener net.Listener
	conn     net.Conn
	buf      []byte
}

// NewWiFi returns an unconnected WiFi transport.
func NewWiFi(bindAddress string, port int, readTimeout time.Duration, logger *zap.SugaredLogger) *WiFi {
	return &WiFi{
		bindAddress: bindAddress,
		port:        port,
		readTimeout: readTimeout,
		logger:      logger,
		buf:         make([]byte, wifiReadSize),
	}
}

// Connect listens on the bind address and blocks until one peer attaches.
// The listener is closed once the peer is accepted.
func (w *WiFi) Connect(ctx context.Context) error {
	if w.conn != nil {
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(w.bindAddress, strconv.Itoa(w.port)))
	if err != nil {
		return &ConnectionError{Transport: KindWiFi, Err: err}
	}
	w.listener = ln
	w.logger.Infof("wifi: listening on %s", ln.Addr())
	if w.OnListen != nil {
		w.OnListen(ln.Addr())
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	conn, err := ln.Accept()
	stop()
	_ = ln.Close()
	w.listener = nil
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return &ConnectionError{Transport: KindWiFi, Err: errors.Wrap(err, "accept")}
	}

	w.conn = conn
	w.logger.Infof("wifi: connected to %s", conn.RemoteAddr())
	return nil
}

func (w *WiFi) Disconnect() error {
	var err error
	if w.conn != nil {
		err = multierr.Append(err, w.conn.Close())
		w.conn = nil
	}
	if w.listener != nil {
		err = multierr.Append(err, w.listener.Close())
		w.listener = nil
	}
	if err != nil {
		return &TransportError{Transport: KindWiFi, Op: "disconnect", Err: err}
	}
	return nil
}

func (w *WiFi) Measure(ctx context.Context) (orientation.Measurement, error) {
	if w.conn == nil {
		return orientation.Measurement{}, &TransportError{Transport: KindWiFi, Op: "measure", Err: ErrNotConnected}
	}

	var deadline time.Time
	if w.readTimeout > 0 {
		deadline = time.Now().Add(w.readTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := w.conn.SetReadDeadline(deadline); err != nil {
		return orientation.Measurement{}, &TransportError{Transport: KindWiFi, Op: "measure", Err: err}
	}
	conn := w.conn
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Unix(1, 0)) })
	defer stop()

	n, err := conn.Read(w.buf)
	if n > 0 {
		return protocol.ParseMeasurement(string(w.buf[:n]))
	}

	var netErr net.Error
	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case errors.As(err, &netErr) && netErr.Timeout():
		err = ErrReadTimeout
	case err == nil || errors.Is(err, io.EOF):
		err = ErrPeerClosed
	}
	return orientation.Measurement{}, &TransportError{Transport: KindWiFi, Op: "read", Err: err}
}

func (w *WiFi) NotifyState(state protocol.State) error {
	if w.conn == nil {
		return &TransportError{Transport: KindWiFi, Op: "notify", Err: ErrNotConnected}
	}
	if w.readTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.readTimeout))
	}
	if _, err := w.conn.Write(protocol.StateFrame(state)); err != nil {
		return &TransportError{Transport: KindWiFi, Op: "notify", Err: err}
	}
	return nil
}
