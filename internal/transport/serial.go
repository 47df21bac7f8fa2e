// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"io"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/orientation"
	"github.com/relabs-tech/channelling_portal/internal/protocol"
)

// SerialPollInterval is how long Measure waits before reading again when the
// port has nothing buffered.
const SerialPollInterval = 10 * time.Millisecond

// openSerial opens the port. It's a variable so tests can swap in a fake.
var openSerial = func(opts serial.OpenOptions) (io.ReadWriteCloser, error) {
	return serial.Open(opts)
}

// Serial reads one frame per line from a serial port.
type Serial struct {
	portName    string
	baudRate    int
	readTimeout time.Duration
	logger      *zap.SugaredLogger

	port   io.ReadWriteCloser
	frames frameAssembler
	chunk  []byte
}

// NewSerial returns an unconnected serial transport.
func NewSerial(portName string, baudRate int, readTimeout time.Duration, logger *zap.SugaredLogger) *Serial {
	return &Serial{
		portName:    portName,
		baudRate:    baudRate,
		readTimeout: readTimeout,
		logger:      logger,
		chunk:       make([]byte, 256),
	}
}

func (s *Serial) Connect(ctx context.Context) error {
	if s.port != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &ConnectionError{Transport: KindSerial, Err: err}
	}

	// MinimumReadSize 0 with an inter-character timeout makes reads return
	// when the line is idle, so Measure can poll and honor its deadline.
	opts := serial.OpenOptions{
		PortName:              s.portName,
		BaudRate:              uint(s.baudRate),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	}

	port, err := openSerial(opts)
	if err != nil {
		return &ConnectionError{Transport: KindSerial, Err: err}
	}
	s.port = port
	s.frames.Reset()
	s.logger.Infof("serial: opened %s at %d baud", s.portName, s.baudRate)
	return nil
}

func (s *Serial) Disconnect() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.frames.Reset()
	if err != nil {
		return &TransportError{Transport: KindSerial, Op: "disconnect", Err: err}
	}
	s.logger.Infof("serial: closed %s", s.portName)
	return nil
}

func (s *Serial) Measure(ctx context.Context) (orientation.Measurement, error) {
	if s.port == nil {
		return orientation.Measurement{}, &TransportError{Transport: KindSerial, Op: "measure", Err: ErrNotConnected}
	}

	deadline := time.Now().Add(s.readTimeout)
	for {
		if line, ok := s.frames.Next(); ok {
			return protocol.ParseMeasurement(line)
		}

		n, err := s.port.Read(s.chunk)
		if n > 0 {
			s.frames.Write(s.chunk[:n])
			continue
		}
		// An idle line reads as (0, io.EOF) once the inter-character timeout lapses.
		if err != nil && err != io.EOF {
			return orientation.Measurement{}, &TransportError{Transport: KindSerial, Op: "read", Err: err}
		}

		if s.readTimeout > 0 && time.Now().After(deadline) {
			return orientation.Measurement{}, &TransportError{Transport: KindSerial, Op: "measure", Err: ErrReadTimeout}
		}
		if err := sleepCtx(ctx, SerialPollInterval); err != nil {
			return orientation.Measurement{}, &TransportError{Transport: KindSerial, Op: "measure", Err: err}
		}
	}
}

func (s *Serial) NotifyState(state protocol.State) error {
	if s.port == nil {
		return &TransportError{Transport: KindSerial, Op: "notify", Err: ErrNotConnected}
	}
	if _, err := s.port.Write(protocol.StateFrame(state)); err != nil {
		return &TransportError{Transport: KindSerial, Op: "notify", Err: err}
	}
	return nil
}
