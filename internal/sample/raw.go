package sample

import "time"

// Channel identifies one physical sensor input stream.
type Channel string

const (
	Accelerometer Channel = "accelerometer"
	Magnetometer  Channel = "magnetometer"
)

// Channels lists every stream a source is expected to serve.
var Channels = []Channel{Accelerometer, Magnetometer}

// Raw is a single timestamped tri-axis reading from one sensor channel.
// Axis units depend on the channel (g for the accelerometer, µT for the
// magnetometer); the tilt math downstream only needs relative ratios.
type Raw struct {
	X  float64   `json:"x"`
	Y  float64   `json:"y"`
	Z  float64   `json:"z"`
	At time.Time `json:"at"`
}

// Source is anything that can provide raw samples per channel: real
// hardware, a mock, maybe a replay source from file later. Timestamps
// must be monotonic within a channel.
type Source interface {
	Read(ch Channel) (Raw, error)
}
