// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/orientation"
	"github.com/relabs-tech/channelling_portal/internal/protocol"
)

// bleReadSize is the largest attribute value a characteristic read returns.
const bleReadSize = 512

// bleCharacteristic is the single GATT characteristic used both for reading
// frames and writing state notifications.
type bleCharacteristic interface {
	Read(p []byte) (int, error)
	WriteWithoutResponse(p []byte) (int, error)
}

type blePeripheral interface {
	Disconnect() error
}

type bleLink struct {
	peripheral     blePeripheral
	characteristic bleCharacteristic
}

// dialBLE connects to the peripheral and resolves the characteristic.
// The implementation is platform specific; tests replace it.
var dialBLE = dialPeripheral

// BLE reads frames from a GATT characteristic. A read may return a partial
// frame, so reads are reassembled until a newline is seen.
type BLE struct {
	address        string
	service        string
	characteristic string
	readTimeout    time.Duration
	logger         *zap.SugaredLogger

	link   *bleLink
	frames frameAssembler
}

// NewBLE returns an unconnected BLE transport.
func NewBLE(address, service, characteristic string, readTimeout time.Duration, logger *zap.SugaredLogger) *BLE {
	return &BLE{
		address:        address,
		service:        service,
		characteristic: characteristic,
		readTimeout:    readTimeout,
		logger:         logger,
	}
}

func (b *BLE) Connect(ctx context.Context) error {
	if b.link != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &ConnectionError{Transport: KindBLE, Err: err}
	}

	link, err := dialBLE(ctx, b.address, b.service, b.characteristic)
	if err != nil {
		return &ConnectionError{Transport: KindBLE, Err: err}
	}
	b.link = link
	b.frames.Reset()
	b.logger.Infof("ble: connected to %s (service %s, characteristic %s)", b.address, b.service, b.characteristic)
	return nil
}

func (b *BLE) Disconnect() error {
	if b.link == nil {
		return nil
	}
	err := b.link.peripheral.Disconnect()
	b.link = nil
	b.frames.Reset()
	if err != nil {
		return &TransportError{Transport: KindBLE, Op: "disconnect", Err: err}
	}
	b.logger.Infof("ble: disconnected from %s", b.address)
	return nil
}

func (b *BLE) Measure(ctx context.Context) (orientation.Measurement, error) {
	if b.link == nil {
		return orientation.Measurement{}, &TransportError{Transport: KindBLE, Op: "measure", Err: ErrNotConnected}
	}

	char := b.link.characteristic
	deadline := time.Now().Add(b.readTimeout)
	for {
		if line, ok := b.frames.Next(); ok {
			return protocol.ParseMeasurement(line)
		}

		remaining := time.Until(deadline)
		if b.readTimeout > 0 && remaining <= 0 {
			return orientation.Measurement{}, &TransportError{Transport: KindBLE, Op: "measure", Err: ErrReadTimeout}
		}

		part, err := readWithTimeout(ctx, remaining, func() ([]byte, error) {
			p := make([]byte, bleReadSize)
			n, err := char.Read(p)
			return p[:n], err
		})
		if err != nil {
			return orientation.Measurement{}, &TransportError{Transport: KindBLE, Op: "read", Err: err}
		}
		if len(part) == 0 {
			// Nothing new in the attribute yet.
			if err := sleepCtx(ctx, SerialPollInterval); err != nil {
				return orientation.Measurement{}, &TransportError{Transport: KindBLE, Op: "measure", Err: err}
			}
			continue
		}
		b.frames.Write(part)
	}
}

func (b *BLE) NotifyState(state protocol.State) error {
	if b.link == nil {
		return &TransportError{Transport: KindBLE, Op: "notify", Err: ErrNotConnected}
	}
	if _, err := b.link.characteristic.WriteWithoutResponse(protocol.StateFrame(state)); err != nil {
		return &TransportError{Transport: KindBLE, Op: "notify", Err: err}
	}
	return nil
}
