// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"math"
)

// Quaternion is the orientation reported by the device.
// Components are expected in [-1, 1]; unit norm is assumed, not checked.
type Quaternion struct {
	W float64 `json:"qw"`
	X float64 `json:"qx"`
	Y float64 `json:"qy"`
	Z float64 `json:"qz"`
}

// Identity is the zero rotation.
var Identity = Quaternion{W: 1}

// Validate reports an error if any component lies outside [-1, 1].
func (q Quaternion) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{{"qw", q.W}, {"qx", q.X}, {"qy", q.Y}, {"qz", q.Z}} {
		if math.IsNaN(c.v) || c.v < -1 || c.v > 1 {
			return fmt.Errorf("%s=%v out of range [-1, 1]", c.name, c.v)
		}
	}
	return nil
}

// YRotation returns the rotation angle (radians) tracked by the gesture:
//
//	asin(2·(qw·qy − qx·qz))
//
// The argument is clamped so rounding on near-unit input never yields NaN.
func (q Quaternion) YRotation() float64 {
	s := 2.0 * (q.W*q.Y - q.X*q.Z)
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return math.Asin(s)
}

// FromYRotation builds the unit quaternion for a pure rotation of angle
// radians about the y axis.
func FromYRotation(angle float64) Quaternion {
	return Quaternion{
		W: math.Cos(angle / 2),
		Y: math.Sin(angle / 2),
	}
}

// Measurement is one telemetry sample. Timestamp is the device clock in
// milliseconds and is not aligned with wall-clock time.
type Measurement struct {
	Timestamp   int64      `json:"timestamp"`
	Orientation Quaternion `json:"orientation"`
}

// NewMeasurement validates q and returns the measurement.
func NewMeasurement(timestamp int64, q Quaternion) (Measurement, error) {
	if err := q.Validate(); err != nil {
		return Measurement{}, err
	}
	return Measurement{Timestamp: timestamp, Orientation: q}, nil
}

// Angle is a shorthand for m.Orientation.YRotation().
func (m Measurement) Angle() float64 {
	return m.Orientation.YRotation()
}
