// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transport moves measurement frames from the spirit device and
// state notifications back to it. Each variant owns its link exclusively.
package transport

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/gesture"
	"github.com/relabs-tech/channelling_portal/internal/orientation"
	"github.com/relabs-tech/channelling_portal/internal/protocol"
)

// Transport is the link to one device.
type Transport interface {
	// Connect blocks until the link is established. Failures are *ConnectionError.
	Connect(ctx context.Context) error
	// Disconnect releases the link. It is idempotent and safe before Connect.
	Disconnect() error
	// Measure blocks for the next complete frame. Malformed frames return
	// *protocol.ParseError, link failures and timeouts *TransportError.
	Measure(ctx context.Context) (orientation.Measurement, error)
	// NotifyState sends `state:<name>` to the device.
	NotifyState(state protocol.State) error
}

// Transport kinds accepted by New.
const (
	KindSerial = "serial"
	KindBLE    = "ble"
	KindWiFi   = "wifi"
	KindMock   = "mock"
)

// DefaultReadTimeout bounds every blocking read when Config leaves it unset.
const DefaultReadTimeout = 5 * time.Second

// Config selects and addresses a transport.
type Config struct {
	Kind string

	SerialPort     string
	SerialBaudRate int

	BLEAddress        string
	BLEService        string
	BLECharacteristic string

	WiFiBindAddress string
	WiFiPort        int

	ReadTimeout time.Duration

	MockSampleInterval time.Duration
	MockWaveform       gesture.Waveform
}

// New builds the variant named by cfg.Kind.
func New(cfg Config, logger *zap.SugaredLogger) (Transport, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case KindSerial:
		if cfg.SerialPort == "" {
			return nil, errors.New("serial transport requires a port")
		}
		return NewSerial(cfg.SerialPort, cfg.SerialBaudRate, cfg.ReadTimeout, logger), nil
	case KindBLE:
		if cfg.BLEAddress == "" || cfg.BLEService == "" || cfg.BLECharacteristic == "" {
			return nil, errors.New("ble transport requires address, service and characteristic")
		}
		return NewBLE(cfg.BLEAddress, cfg.BLEService, cfg.BLECharacteristic, cfg.ReadTimeout, logger), nil
	case KindWiFi:
		if cfg.WiFiPort < 0 || cfg.WiFiPort > 65535 {
			return nil, errors.Errorf("wifi port %d out of range", cfg.WiFiPort)
		}
		return NewWiFi(cfg.WiFiBindAddress, cfg.WiFiPort, cfg.ReadTimeout, logger), nil
	case KindMock:
		return NewSimulated(cfg.MockSampleInterval, cfg.MockWaveform, logger), nil
	default:
		return nil, errors.Errorf("unknown transport %q", cfg.Kind)
	}
}
