package sample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSourceRead(t *testing.T) {
	t.Parallel()

	src := NewMockSource()

	accel, err := src.Read(Accelerometer)
	require.NoError(t, err)
	norm := math.Sqrt(accel.X*accel.X + accel.Y*accel.Y + accel.Z*accel.Z)
	assert.InDelta(t, 1.0, norm, 1e-9, "gravity vector should hold 1 g")
	assert.False(t, accel.At.IsZero())

	mag, err := src.Read(Magnetometer)
	require.NoError(t, err)
	norm = math.Sqrt(mag.X*mag.X + mag.Y*mag.Y + mag.Z*mag.Z)
	assert.InDelta(t, 50.0, norm, 2.0, "field magnitude should stay near 50 µT")
}

func TestMockSourceUnknownChannel(t *testing.T) {
	t.Parallel()

	src := NewMockSource()
	_, err := src.Read(Channel("barometer"))
	assert.Error(t, err)
}

func TestMockSourceTimestampsAdvance(t *testing.T) {
	t.Parallel()

	src := NewMockSource()
	first, err := src.Read(Accelerometer)
	require.NoError(t, err)
	second, err := src.Read(Accelerometer)
	require.NoError(t, err)
	assert.False(t, second.At.Before(first.At))
}
