// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build !linux

package transport

import (
	"context"

	"github.com/pkg/errors"
)

func dialPeripheral(_ context.Context, _, _, _ string) (*bleLink, error) {
	return nil, errors.New("ble transport is only supported on linux")
}
