package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDHeading  string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicEvents  string
	TopicJitter  string
	TopicHeading string
	TopicEnv     string

	// Fusion
	WindowSize       int // coordinates averaged per orientation decision
	JitterRingSize   int // inter-arrival deltas per jitter snapshot
	SamplingPeriodMS int // hardware sampling period hint, milliseconds

	// IMU Hardware
	IMUI2CBus  string
	IMUI2CAddr uint16
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte

	// Environment sensor
	EnvSPIPort string

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Web Server
	WebAddr string

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_HEADING":
		c.MQTTClientIDHeading = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_EVENTS":
		c.TopicEvents = value
	case "TOPIC_JITTER":
		c.TopicJitter = value
	case "TOPIC_HEADING":
		c.TopicHeading = value
	case "TOPIC_ENV":
		c.TopicEnv = value

	// Fusion
	case "WINDOW_SIZE":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WINDOW_SIZE %q: %w", value, err)
		}
		if size < 1 {
			return fmt.Errorf("WINDOW_SIZE must be >= 1, got %d", size)
		}
		c.WindowSize = size
	case "JITTER_RING_SIZE":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid JITTER_RING_SIZE %q: %w", value, err)
		}
		if size < 2 {
			return fmt.Errorf("JITTER_RING_SIZE must be >= 2, got %d", size)
		}
		c.JitterRingSize = size
	case "SAMPLING_PERIOD_MS":
		period, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLING_PERIOD_MS %q: %w", value, err)
		}
		if period < 1 {
			return fmt.Errorf("SAMPLING_PERIOD_MS must be >= 1, got %d", period)
		}
		c.SamplingPeriodMS = period

	// IMU Hardware
	case "IMU_I2C_BUS":
		c.IMUI2CBus = value
	case "IMU_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid IMU_I2C_ADDR %q: %w", value, err)
		}
		c.IMUI2CAddr = uint16(addr)
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)

	// Environment sensor
	case "ENV_SPI_PORT":
		c.EnvSPIPort = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// Web Server
	case "WEB_ADDR":
		c.WebAddr = value

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// applyDefaults fills the fields that have sensible defaults when the file
// leaves them unset.
func (c *Config) applyDefaults() {
	if c.MQTTClientIDProducer == "" {
		c.MQTTClientIDProducer = "bubble-producer"
	}
	if c.MQTTClientIDHeading == "" {
		c.MQTTClientIDHeading = "bubble-heading-producer"
	}
	if c.MQTTClientIDConsole == "" {
		c.MQTTClientIDConsole = "bubble-console-subscriber"
	}
	if c.MQTTClientIDWeb == "" {
		c.MQTTClientIDWeb = "bubble-web-subscriber"
	}
	if c.MQTTClientIDDisplay == "" {
		c.MQTTClientIDDisplay = "bubble-display-subscriber"
	}
	if c.TopicEvents == "" {
		c.TopicEvents = "bubble/events"
	}
	if c.TopicJitter == "" {
		c.TopicJitter = "bubble/jitter"
	}
	if c.TopicHeading == "" {
		c.TopicHeading = "bubble/heading"
	}
	if c.TopicEnv == "" {
		c.TopicEnv = "bubble/env"
	}
	if c.WindowSize == 0 {
		c.WindowSize = 20
	}
	if c.JitterRingSize == 0 {
		c.JitterRingSize = 1000
	}
	if c.IMUI2CAddr == 0 {
		c.IMUI2CAddr = 0x68
	}
	if c.WebAddr == "" {
		c.WebAddr = ":8080"
	}
	if c.DisplayUpdateInterval == 0 {
		c.DisplayUpdateInterval = 100
	}
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.SamplingPeriodMS == 0 {
		return fmt.Errorf("SAMPLING_PERIOD_MS is required")
	}
	if c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required")
	}
	if c.GPSBaudRate == 0 {
		return fmt.Errorf("GPS_BAUD_RATE is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
// Uses read lock (configMu.RLock) to allow multiple concurrent readers without blocking.
// This is thread-safe and efficient for concurrent access across goroutines.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
