package sensors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBeInt16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		hi, lo byte
		want   int16
	}{
		{"zero", 0x00, 0x00, 0},
		{"one", 0x00, 0x01, 1},
		{"byte order", 0x01, 0x00, 256},
		{"max positive", 0x7F, 0xFF, 32767},
		{"minus one", 0xFF, 0xFF, -1},
		{"min negative", 0x80, 0x00, -32768},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, beInt16(tt.hi, tt.lo))
		})
	}
}

func TestLeInt16MirrorsBeInt16(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int16(256), leInt16(0x00, 0x01))
	assert.Equal(t, int16(1), leInt16(0x01, 0x00))
	assert.Equal(t, int16(-1), leInt16(0xFF, 0xFF))
	assert.Equal(t, beInt16(0x12, 0x34), leInt16(0x34, 0x12))
}

// Full-range counts must decode to the configured full-scale value in g.
func TestAccelScales(t *testing.T) {
	t.Parallel()

	wantFullScale := []float64{2, 4, 8, 16}
	for sel, scale := range accelScales {
		assert.InDelta(t, wantFullScale[sel], float64(32768)*scale, 1e-9, "range selector %d", sel)
	}

	// 1 g flat on the table at ±2g is 16384 counts.
	assert.InDelta(t, 1.0, float64(16384)*accelScales[0], 1e-9)
}

func TestMagScale(t *testing.T) {
	t.Parallel()

	// Full 16-bit swing covers the AK8963's ±4912 µT range.
	assert.InDelta(t, 4912.0, 32760.0*magScale, 1e-9)
}

func TestSensitivityAdj(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		asa  byte
		want float64
	}{
		{"neutral", 128, 1.0},
		{"max boost", 255, 1.49609375},
		{"strong cut", 0, 0.5},
		{"typical part", 176, 1.1875},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, sensitivityAdj(tt.asa), 1e-9)
		})
	}
}
