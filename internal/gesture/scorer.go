// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gesture

import (
	"time"

	"github.com/relabs-tech/channelling_portal/internal/orientation"
)

// Scorer compares a window of measurements with the reference waveform.
type Scorer struct {
	Waveform Waveform
}

// Distance returns the DTW distance between the observed y-rotation of ms
// and the waveform evaluated at each measurement's time since timeZero.
func (s Scorer) Distance(ms []orientation.Measurement, timeZero int64) float64 {
	elapsed := make([]time.Duration, len(ms))
	observed := make([]float64, len(ms))
	for i, m := range ms {
		elapsed[i] = time.Duration(m.Timestamp-timeZero) * time.Millisecond
		observed[i] = m.Angle()
	}
	return DTW(observed, s.Waveform.Angles(elapsed))
}
