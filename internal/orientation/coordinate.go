package orientation

import (
	"math"

	"github.com/xwdoor/bubble/internal/sample"
)

// Coordinate is the canonical tilt representation: roll and pitch in
// degrees. Positive X means the right edge of the device is down,
// positive Y means the top edge is down (device tipping forward).
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Calculate derives the tilt coordinate from one raw tri-axis sample.
// The sample is treated as a field vector in device axes (gravity for the
// accelerometer, the Earth field for the magnetometer); only the relative
// ratios of the axes matter, so units are irrelevant.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(y, z)
//	pitch = atan2(-x, sqrt(y² + z²))
//
// Degenerate input (NaN, infinities) propagates through the math without
// panicking; downstream classification absorbs it.
func Calculate(s sample.Raw) Coordinate {
	rollRad := math.Atan2(s.Y, s.Z)
	pitchRad := math.Atan2(-s.X, math.Sqrt(s.Y*s.Y+s.Z*s.Z))

	return Coordinate{
		X: rollRad * 180.0 / math.Pi,
		Y: pitchRad * 180.0 / math.Pi,
	}
}

// Average reduces coordinates to their arithmetic mean, ordinate by
// ordinate. The slice must be non-empty; callers only reduce full windows.
func Average(cs []Coordinate) Coordinate {
	var sumX, sumY float64
	for _, c := range cs {
		sumX += c.X
		sumY += c.Y
	}
	n := float64(len(cs))
	return Coordinate{X: sumX / n, Y: sumY / n}
}
