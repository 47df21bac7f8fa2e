// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build linux

package transport

import (
	"context"

	"github.com/pkg/errors"
	"tinygo.org/x/bluetooth"
)

func dialPeripheral(ctx context.Context, address, service, characteristic string) (*bleLink, error) {
	mac, err := bluetooth.ParseMAC(address)
	if err != nil {
		return nil, errors.Wrapf(err, "parse address %q", address)
	}
	serviceUUID, err := bluetooth.ParseUUID(service)
	if err != nil {
		return nil, errors.Wrapf(err, "parse service uuid %q", service)
	}
	charUUID, err := bluetooth.ParseUUID(characteristic)
	if err != nil {
		return nil, errors.Wrapf(err, "parse characteristic uuid %q", characteristic)
	}

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, errors.Wrap(err, "enable adapter")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	device, err := adapter.Connect(bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s", address)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil || len(services) == 0 {
		_ = device.Disconnect()
		if err == nil {
			err = errors.New("not found")
		}
		return nil, errors.Wrapf(err, "discover service %s", service)
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{charUUID})
	if err != nil || len(chars) == 0 {
		_ = device.Disconnect()
		if err == nil {
			err = errors.New("not found")
		}
		return nil, errors.Wrapf(err, "discover characteristic %s", characteristic)
	}

	return &bleLink{peripheral: tinygoPeripheral{disconnect: device.Disconnect}, characteristic: &chars[0]}, nil
}

// tinygoPeripheral adapts the connected device to blePeripheral.
type tinygoPeripheral struct {
	disconnect func() error
}

func (p tinygoPeripheral) Disconnect() error { return p.disconnect() }
