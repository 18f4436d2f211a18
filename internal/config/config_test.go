package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bubble_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const minimalConfig = `
MQTT_BROKER=tcp://localhost:1883
SAMPLING_PERIOD_MS=50
GPS_SERIAL_PORT=/dev/serial0
GPS_BAUD_RATE=9600
`

func TestLoadMinimalWithDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, 50, cfg.SamplingPeriodMS)
	assert.Equal(t, 20, cfg.WindowSize)
	assert.Equal(t, 1000, cfg.JitterRingSize)
	assert.Equal(t, "bubble/events", cfg.TopicEvents)
	assert.Equal(t, "bubble/jitter", cfg.TopicJitter)
	assert.Equal(t, uint16(0x68), cfg.IMUI2CAddr)
	assert.Equal(t, 100, cfg.DisplayUpdateInterval)
	assert.Equal(t, ":8080", cfg.WebAddr)
	assert.Equal(t, "bubble-producer", cfg.MQTTClientIDProducer)
}

func TestLoadIgnoresCommentsAndBlankLines(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `
# bubble broker settings

MQTT_BROKER = tcp://pi:1883

# fusion tuning
WINDOW_SIZE = 5
SAMPLING_PERIOD_MS=20
GPS_SERIAL_PORT=/dev/ttyUSB0
GPS_BAUD_RATE=4800
`))
	require.NoError(t, err)
	assert.Equal(t, "tcp://pi:1883", cfg.MQTTBroker)
	assert.Equal(t, 5, cfg.WindowSize)
	assert.Equal(t, 4800, cfg.GPSBaudRate)
}

func TestLoadValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
		wantIn   string
	}{
		{
			name:     "missing broker",
			contents: "SAMPLING_PERIOD_MS=50\nGPS_SERIAL_PORT=/dev/serial0\nGPS_BAUD_RATE=9600\n",
			wantIn:   "MQTT_BROKER",
		},
		{
			name:     "missing sampling period",
			contents: "MQTT_BROKER=tcp://localhost:1883\nGPS_SERIAL_PORT=/dev/serial0\nGPS_BAUD_RATE=9600\n",
			wantIn:   "SAMPLING_PERIOD_MS",
		},
		{
			name:     "accel range out of range",
			contents: minimalConfig + "IMU_ACCEL_RANGE=4\n",
			wantIn:   "IMU_ACCEL_RANGE must be 0-3",
		},
		{
			name:     "window size not a number",
			contents: minimalConfig + "WINDOW_SIZE=twenty\n",
			wantIn:   "invalid WINDOW_SIZE",
		},
		{
			name:     "window size below one",
			contents: minimalConfig + "WINDOW_SIZE=0\n",
			wantIn:   "WINDOW_SIZE must be >= 1",
		},
		{
			name:     "jitter ring too small",
			contents: minimalConfig + "JITTER_RING_SIZE=1\n",
			wantIn:   "JITTER_RING_SIZE must be >= 2",
		},
		{
			name:     "unknown key",
			contents: minimalConfig + "MQTT_PASSWORD=hunter2\n",
			wantIn:   "unknown config key",
		},
		{
			name:     "malformed line",
			contents: minimalConfig + "WINDOW_SIZE\n",
			wantIn:   "invalid config line",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.contents))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantIn)
		})
	}
}

func TestLoadHexAddresses(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, minimalConfig+"IMU_I2C_ADDR=0x69\n"))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x69), cfg.IMUI2CAddr)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
