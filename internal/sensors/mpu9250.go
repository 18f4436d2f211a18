// Copyright (c) 2026 xwdoor
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/xwdoor/bubble/internal/sample"
)

// MPU9250 drives an InvenSense MPU-9250 (or 9255) over I2C at register
// level and implements sample.Source for the accelerometer and the on-die
// AK8963 magnetometer. The AK8963 is reached through the MPU's bypass
// multiplexer, so both devices answer directly on the host bus.
type MPU9250 struct {
	dev   i2c.Dev
	mag   i2c.Dev
	bus   i2c.BusCloser
	scale float64    // accel g per LSB for the configured range
	adj   [3]float64 // AK8963 factory sensitivity adjustments
}

// NewMPU9250 opens busName (empty selects the first available bus), probes
// the device at addr and brings up both channels. accelRange selects the
// accelerometer full scale: 0=±2g, 1=±4g, 2=±8g, 3=±16g.
func NewMPU9250(busName string, addr uint16, accelRange byte) (*MPU9250, error) {
	if accelRange > 3 {
		return nil, fmt.Errorf("sensors: accel range must be 0-3, got %d", accelRange)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("sensors: periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("sensors: I2C bus %q: %w", busName, err)
	}

	m := &MPU9250{
		dev:   i2c.Dev{Bus: bus, Addr: addr},
		mag:   i2c.Dev{Bus: bus, Addr: ak8963Addr},
		bus:   bus,
		scale: accelScales[accelRange],
	}

	if err := m.init(accelRange); err != nil {
		bus.Close()
		return nil, err
	}
	return m, nil
}

func (m *MPU9250) init(accelRange byte) error {
	id, err := m.readReg(m.dev, regWhoAmI)
	if err != nil {
		return fmt.Errorf("sensors: WHO_AM_I read at 0x%02X: %w", m.dev.Addr, err)
	}
	if id != devIDMPU9250 && id != devIDMPU9255 {
		return fmt.Errorf("sensors: unexpected WHO_AM_I 0x%02X at 0x%02X (want 0x71 or 0x73)", id, m.dev.Addr)
	}

	// Reset, then wake with the best available clock.
	if err := m.writeReg(m.dev, regPwrMgmt1, bitHReset); err != nil {
		return fmt.Errorf("sensors: device reset: %w", err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := m.writeReg(m.dev, regPwrMgmt1, bitClkSelAuto); err != nil {
		return fmt.Errorf("sensors: wake: %w", err)
	}
	if err := m.writeReg(m.dev, regPwrMgmt2, 0x00); err != nil {
		return fmt.Errorf("sensors: enable sensors: %w", err)
	}

	// Full-scale range lives in ACCEL_CONFIG bits 4:3.
	if err := m.writeReg(m.dev, regAccelConfig, accelRange<<3); err != nil {
		return fmt.Errorf("sensors: set accel range: %w", err)
	}
	log.Printf("sensors: accelerometer range set to %d (±%dg)", accelRange, []int{2, 4, 8, 16}[accelRange])

	// Open the bypass so the AK8963 answers on the host bus.
	if err := m.writeReg(m.dev, regIntPinCfg, bitBypassEn); err != nil {
		return fmt.Errorf("sensors: enable magnetometer bypass: %w", err)
	}
	time.Sleep(10 * time.Millisecond)

	return m.initMag()
}

// initMag resets the AK8963, reads its factory sensitivity adjustments out
// of fuse ROM and switches it to 16-bit continuous measurement at 100 Hz.
func (m *MPU9250) initMag() error {
	id, err := m.readReg(m.mag, akRegWia)
	if err != nil {
		return fmt.Errorf("sensors: magnetometer WHO_AM_I read: %w", err)
	}
	if id != akDevID {
		return fmt.Errorf("sensors: unexpected magnetometer WHO_AM_I 0x%02X (want 0x48)", id)
	}

	if err := m.writeReg(m.mag, akRegCntl2, akBitSoftReset); err != nil {
		return fmt.Errorf("sensors: magnetometer reset: %w", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := m.writeReg(m.mag, akRegCntl1, akModeFuseROM); err != nil {
		return fmt.Errorf("sensors: magnetometer fuse ROM access: %w", err)
	}
	time.Sleep(10 * time.Millisecond)

	var asa [3]byte
	if err := m.mag.Tx([]byte{akRegAsax}, asa[:]); err != nil {
		return fmt.Errorf("sensors: magnetometer sensitivity read: %w", err)
	}
	for i, a := range asa {
		m.adj[i] = sensitivityAdj(a)
	}
	log.Printf("sensors: mag sensitivity adj: X=%.4f Y=%.4f Z=%.4f", m.adj[0], m.adj[1], m.adj[2])

	// Mode changes go through power-down.
	if err := m.writeReg(m.mag, akRegCntl1, akModePowerDown); err != nil {
		return fmt.Errorf("sensors: magnetometer power-down: %w", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := m.writeReg(m.mag, akRegCntl1, akModeCont100Hz16Bit); err != nil {
		return fmt.Errorf("sensors: magnetometer continuous mode: %w", err)
	}
	time.Sleep(10 * time.Millisecond)

	return nil
}

// Read returns one sample for the channel: accelerometer axes in g,
// magnetometer axes in µT. Timestamps are taken right after the bus
// transfer and are monotonic per channel.
func (m *MPU9250) Read(ch sample.Channel) (sample.Raw, error) {
	switch ch {
	case sample.Accelerometer:
		return m.readAccel()
	case sample.Magnetometer:
		return m.readMag()
	}
	return sample.Raw{}, fmt.Errorf("sensors: unknown channel %q", ch)
}

func (m *MPU9250) readAccel() (sample.Raw, error) {
	var buf [6]byte
	if err := m.dev.Tx([]byte{regAccelXoutH}, buf[:]); err != nil {
		return sample.Raw{}, fmt.Errorf("sensors: accel read: %w", err)
	}
	at := time.Now()

	return sample.Raw{
		X:  float64(beInt16(buf[0], buf[1])) * m.scale,
		Y:  float64(beInt16(buf[2], buf[3])) * m.scale,
		Z:  float64(beInt16(buf[4], buf[5])) * m.scale,
		At: at,
	}, nil
}

func (m *MPU9250) readMag() (sample.Raw, error) {
	st1, err := m.readReg(m.mag, akRegSt1)
	if err != nil {
		return sample.Raw{}, fmt.Errorf("sensors: mag status read: %w", err)
	}
	if st1&akBitDrdy == 0 {
		return sample.Raw{}, fmt.Errorf("sensors: magnetometer data not ready")
	}

	// Data plus ST2; reading ST2 ends the measurement cycle.
	var buf [7]byte
	if err := m.mag.Tx([]byte{akRegHxl}, buf[:]); err != nil {
		return sample.Raw{}, fmt.Errorf("sensors: mag read: %w", err)
	}
	at := time.Now()

	if buf[6]&akBitHofl != 0 {
		return sample.Raw{}, fmt.Errorf("sensors: magnetometer overflow")
	}

	return sample.Raw{
		X:  float64(leInt16(buf[0], buf[1])) * magScale * m.adj[0],
		Y:  float64(leInt16(buf[2], buf[3])) * magScale * m.adj[1],
		Z:  float64(leInt16(buf[4], buf[5])) * magScale * m.adj[2],
		At: at,
	}, nil
}

// Close powers the magnetometer down and releases the bus.
func (m *MPU9250) Close() error {
	if err := m.writeReg(m.mag, akRegCntl1, akModePowerDown); err != nil {
		log.Printf("sensors: magnetometer power-down on close: %v", err)
	}
	return m.bus.Close()
}

func (m *MPU9250) readReg(dev i2c.Dev, reg byte) (byte, error) {
	var buf [1]byte
	if err := dev.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (m *MPU9250) writeReg(dev i2c.Dev, reg, value byte) error {
	return dev.Tx([]byte{reg, value}, nil)
}
