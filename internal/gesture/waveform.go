// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gesture scores observed motion against the reference
// back-and-forth gesture.
package gesture

import (
	"math"
	"time"
)

// Default phase durations of the reference gesture.
const (
	DefaultRotation = 1000 * time.Millisecond
	DefaultPause    = 100 * time.Millisecond
)

// Waveform is the expected rotation angle over one gesture cycle:
//
//  1. ramp 0 -> pi over Rotation
//  2. hold pi for Pause
//  3. ramp pi -> 0 over Rotation
//  4. hold 0 for Pause
//
// A zero Waveform uses the defaults.
type Waveform struct {
	Rotation time.Duration
	Pause    time.Duration
}

// DefaultWaveform returns the 1000ms/100ms reference gesture.
func DefaultWaveform() Waveform {
	return Waveform{Rotation: DefaultRotation, Pause: DefaultPause}
}

func (w Waveform) withDefaults() Waveform {
	if w == (Waveform{}) {
		return DefaultWaveform()
	}
	if w.Rotation <= 0 {
		w.Rotation = DefaultRotation
	}
	if w.Pause < 0 {
		w.Pause = 0
	}
	return w
}

// Cycle is the length of one full gesture.
func (w Waveform) Cycle() time.Duration {
	w = w.withDefaults()
	return 2*w.Rotation + 2*w.Pause
}

// Angle returns the expected angle in radians elapsed after the phase anchor.
func (w Waveform) Angle(elapsed time.Duration) float64 {
	w = w.withDefaults()
	cycle := 2*w.Rotation + 2*w.Pause

	t := elapsed % cycle
	if t < 0 {
		t += cycle
	}

	leftEnd := w.Rotation
	holdEnd := leftEnd + w.Pause
	rightEnd := holdEnd + w.Rotation

	switch {
	case t <= leftEnd:
		return math.Pi * (float64(t) / float64(w.Rotation))
	case t <= holdEnd:
		return math.Pi
	case t <= rightEnd:
		return math.Pi - math.Pi*(float64(t-holdEnd)/float64(w.Rotation))
	default:
		return 0
	}
}

// Angles evaluates Angle for each elapsed time, preserving order.
func (w Waveform) Angles(elapsed []time.Duration) []float64 {
	out := make([]float64, len(elapsed))
	for i, e := range elapsed {
		out[i] = w.Angle(e)
	}
	return out
}
