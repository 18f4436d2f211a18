// Copyright (c) 2026 xwdoor
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package sample

import (
	"fmt"
	"math"
	"time"
)

// MockSource synthesizes slowly rolling gravity and Earth-field vectors so
// the full pipeline can run without hardware. The accelerometer vector
// holds 1 g magnitude, the magnetometer roughly a 50 µT field.
type MockSource struct {
	start time.Time
}

// NewMockSource creates a mock source whose tilt drifts smoothly over time.
func NewMockSource() *MockSource {
	return &MockSource{start: time.Now()}
}

// Read returns a synthesized sample for the channel, stamped with the
// current time.
func (m *MockSource) Read(ch Channel) (Raw, error) {
	elapsed := time.Since(m.start).Seconds()

	// The simulated device's attitude: slow roll and pitch swings wide
	// enough to cross the flat, tilted and vertical regions.
	roll := 80 * math.Sin(elapsed*0.5) * math.Pi / 180
	pitch := 40 * math.Cos(elapsed*0.35) * math.Pi / 180

	switch ch {
	case Accelerometer:
		return Raw{
			X:  -math.Sin(pitch),
			Y:  math.Sin(roll) * math.Cos(pitch),
			Z:  math.Cos(roll) * math.Cos(pitch),
			At: time.Now(),
		}, nil
	case Magnetometer:
		// Same attitude applied to a 50 µT field with a 60° inclination,
		// plus a little measurement wobble so the two channels differ.
		wobble := 1 + 0.02*math.Sin(elapsed*3)
		return Raw{
			X:  -50 * math.Sin(pitch) * wobble,
			Y:  50 * math.Sin(roll) * math.Cos(pitch) * wobble,
			Z:  50 * math.Cos(roll) * math.Cos(pitch) * wobble,
			At: time.Now(),
		}, nil
	}
	return Raw{}, fmt.Errorf("sample: unknown channel %q", ch)
}
