// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package spirit

import (
	"time"

	"github.com/relabs-tech/channelling_portal/internal/protocol"
)

// Gauge thresholds and fitness threshold used when Config leaves them unset.
const (
	DefaultFitnessThreshold = 0.1
	DefaultInterestedGauge  = 10
	DefaultAwakenedGauge    = 40
)

// Status is a snapshot of the controller after one measurement cycle.
type Status struct {
	Name      string         `json:"name"`
	Color     string         `json:"color,omitempty"`
	State     protocol.State `json:"state"`
	Gauge     int            `json:"gauge"`
	Distance  float64        `json:"distance"`
	Timestamp int64          `json:"timestamp"`
	TimeZero  int64          `json:"time_zero"`
	WindowLen int            `json:"window_len"`
	Capacity  int            `json:"capacity"`
	Changed   bool           `json:"changed"`
	At        time.Time      `json:"at"`
}

// Reporter receives a Status after every cycle of the drive loop. Report is
// called on the loop goroutine and should not block.
type Reporter interface {
	Report(Status)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Status)

func (f ReporterFunc) Report(s Status) { f(s) }

// stateForGauge maps a full window's gauge onto a state. Interconnected is
// never returned.
func stateForGauge(gauge, interestedFrom, awakenedFrom int) protocol.State {
	switch {
	case gauge < interestedFrom:
		return protocol.Dormant
	case gauge < awakenedFrom:
		return protocol.Interested
	default:
		return protocol.Awakened
	}
}
