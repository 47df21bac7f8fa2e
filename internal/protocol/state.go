// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package protocol

import "fmt"

// State is the device state reported back to the spirit.
type State int

// The closed set of states. Interconnected exists on the device side but no
// gauge value maps to it.
const (
	Inert State = iota
	Dormant
	Interested
	Awakened
	Interconnected
)

var stateNames = [...]string{
	Inert:          "inert",
	Dormant:        "dormant",
	Interested:     "interested",
	Awakened:       "awakened",
	Interconnected: "interconnected",
}

// AllStates returns every state in declaration order.
func AllStates() []State {
	return []State{Inert, Dormant, Interested, Awakened, Interconnected}
}

// String returns the wire label.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state as its wire label.
func (s State) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stateNames) {
		return nil, fmt.Errorf("unknown state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText decodes a wire label.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// StateFrame renders the outbound notification `state:<name>\n`.
func StateFrame(s State) []byte {
	return []byte("state:" + s.String() + "\n")
}
