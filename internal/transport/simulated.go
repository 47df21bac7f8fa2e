// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/gesture"
	"github.com/relabs-tech/channelling_portal/internal/orientation"
	"github.com/relabs-tech/channelling_portal/internal/protocol"
)

// DefaultMockSampleInterval is the simulated device's sample period.
const DefaultMockSampleInterval = 20 * time.Millisecond

// Simulated is a device-less transport that performs the reference gesture,
// one sample per interval, for running the portal without hardware.
type Simulated struct {
	interval time.Duration
	waveform gesture.Waveform
	logger   *zap.SugaredLogger

	connected bool
	clock     int64 // simulated device clock, ms
	last      protocol.State
}

// NewSimulated returns an unconnected simulated transport.
func NewSimulated(interval time.Duration, waveform gesture.Waveform, logger *zap.SugaredLogger) *Simulated {
	if interval <= 0 {
		interval = DefaultMockSampleInterval
	}
	return &Simulated{interval: interval, waveform: waveform, logger: logger}
}

func (s *Simulated) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &ConnectionError{Transport: KindMock, Err: err}
	}
	s.connected = true
	s.logger.Infof("mock: simulating gesture every %s", s.interval)
	return nil
}

func (s *Simulated) Disconnect() error {
	s.connected = false
	return nil
}

func (s *Simulated) Measure(ctx context.Context) (orientation.Measurement, error) {
	if !s.connected {
		return orientation.Measurement{}, &TransportError{Transport: KindMock, Op: "measure", Err: ErrNotConnected}
	}
	if err := sleepCtx(ctx, s.interval); err != nil {
		return orientation.Measurement{}, &TransportError{Transport: KindMock, Op: "measure", Err: err}
	}

	ts := s.clock
	s.clock += s.interval.Milliseconds()
	angle := s.waveform.Angle(time.Duration(ts) * time.Millisecond)
	return orientation.Measurement{Timestamp: ts, Orientation: orientation.FromYRotation(angle)}, nil
}

func (s *Simulated) NotifyState(state protocol.State) error {
	if !s.connected {
		return &TransportError{Transport: KindMock, Op: "notify", Err: ErrNotConnected}
	}
	s.last = state
	s.logger.Infof("mock: device state -> %s", state)
	return nil
}

// LastState returns the most recent state notified to the simulated device.
func (s *Simulated) LastState() protocol.State { return s.last }
