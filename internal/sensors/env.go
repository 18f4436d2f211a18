package sensors

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/xwdoor/bubble/internal/config"
	"github.com/xwdoor/bubble/internal/env"
)

var (
	envDev     *bmxx80.Dev
	envOnce    sync.Once
	envInitErr error
)

// initEnv initializes the BME280 once.
func initEnv() {
	envOnce.Do(func() {
		cfg := config.Get()

		if _, err := host.Init(); err != nil {
			envInitErr = fmt.Errorf("periph host init: %w", err)
			return
		}

		port, err := spireg.Open(cfg.EnvSPIPort)
		if err != nil {
			envInitErr = fmt.Errorf("env sensor SPI open: %w", err)
			return
		}

		envDev, err = bmxx80.NewSPI(port, &bmxx80.DefaultOpts)
		if err != nil {
			envInitErr = fmt.Errorf("env sensor init: %w", err)
			return
		}
	})
}

// ReadEnv reads the BME280 (temperature, pressure, humidity). The first
// call initializes the sensor; a missing sensor keeps failing with the same
// error and never affects the orientation path.
func ReadEnv() (env.Sample, error) {
	initEnv()
	if envInitErr != nil {
		return env.Sample{}, envInitErr
	}

	var e physic.Env
	if err := envDev.Sense(&e); err != nil {
		return env.Sample{}, fmt.Errorf("env sensor sense: %w", err)
	}

	pressurePa := float64(e.Pressure) / float64(physic.Pascal)
	return env.Sample{
		Temperature: e.Temperature.Celsius(),
		Pressure:    pressurePa / 100.0, // 1 hPa = 100 Pa
		Humidity:    float64(e.Humidity) / float64(physic.PercentRH),
		At:          time.Now(),
	}, nil
}
