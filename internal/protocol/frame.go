// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package protocol holds the text wire format spoken with the spirit device:
// inbound `timestamp,qw,qx,qy,qz` measurement frames and outbound
// `state:<name>` notifications.
package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relabs-tech/channelling_portal/internal/orientation"
)

// FrameFields is the number of comma separated fields in a measurement frame.
const FrameFields = 5

// ParseError reports a malformed measurement frame.
type ParseError struct {
	Frame  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed frame %q: %s: %v", e.Frame, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed frame %q: %s", e.Frame, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseMeasurement decodes one frame. Leading and trailing whitespace,
// including the line terminator, is ignored.
func ParseMeasurement(frame string) (orientation.Measurement, error) {
	line := strings.TrimSpace(frame)
	fields := strings.Split(line, ",")
	if len(fields) != FrameFields {
		return orientation.Measurement{}, &ParseError{
			Frame:  line,
			Reason: fmt.Sprintf("expected %d fields, got %d", FrameFields, len(fields)),
		}
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return orientation.Measurement{}, &ParseError{Frame: line, Reason: "timestamp", Err: err}
	}

	var comps [4]float64
	for i := range comps {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if err != nil {
			return orientation.Measurement{}, &ParseError{Frame: line, Reason: fmt.Sprintf("field %d", i+1), Err: err}
		}
		comps[i] = v
	}

	m, err := orientation.NewMeasurement(ts, orientation.Quaternion{
		W: comps[0],
		X: comps[1],
		Y: comps[2],
		Z: comps[3],
	})
	if err != nil {
		return orientation.Measurement{}, &ParseError{Frame: line, Reason: "orientation", Err: err}
	}
	return m, nil
}

// FormatMeasurement renders m as a frame without the line terminator.
func FormatMeasurement(m orientation.Measurement) string {
	q := m.Orientation
	return strconv.FormatInt(m.Timestamp, 10) + "," +
		strconv.FormatFloat(q.W, 'f', -1, 64) + "," +
		strconv.FormatFloat(q.X, 'f', -1, 64) + "," +
		strconv.FormatFloat(q.Y, 'f', -1, 64) + "," +
		strconv.FormatFloat(q.Z, 'f', -1, 64)
}
